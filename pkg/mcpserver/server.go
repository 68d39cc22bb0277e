// Package mcpserver публикует инструменты из tools.Registry как MCP сервер.
//
// Транспорт — stdio (JSON-RPC построчно). Инструменты ничего не знают о MCP:
// аргументы передаются сырым JSON, ошибка превращается в isError результат
// с видом ошибки в тексте ("AccessDenied: ...").
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/ilkoid/mcp-s3/pkg/lookup"
	"github.com/ilkoid/mcp-s3/pkg/tools"
	"github.com/ilkoid/mcp-s3/pkg/utils"
)

// Server — MCP сервер поверх реестра инструментов.
type Server struct {
	mcp         *server.MCPServer
	registry    *tools.Registry
	callTimeout time.Duration
}

// New регистрирует в MCP сервере все инструменты из registry.
//
// callTimeout ограничивает один вызов инструмента, 0 = без ограничения.
func New(name, version string, registry *tools.Registry, callTimeout time.Duration) (*Server, error) {
	s := &Server{
		mcp: server.NewMCPServer(name, version,
			server.WithToolCapabilities(false),
			server.WithRecovery(),
		),
		registry:    registry,
		callTimeout: callTimeout,
	}

	for _, def := range registry.GetDefinitions() {
		schema, err := json.Marshal(def.Parameters)
		if err != nil {
			return nil, fmt.Errorf("tool '%s': failed to marshal schema: %w", def.Name, err)
		}
		s.mcp.AddTool(mcp.NewToolWithRawSchema(def.Name, def.Description, schema), s.handler(def.Name))
		utils.Debug("tool registered", "name", def.Name)
	}

	return s, nil
}

func (s *Server) handler(name string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if s.callTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, s.callTimeout)
			defer cancel()
		}

		args, err := json.Marshal(req.GetRawArguments())
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("%s: %v", lookup.KindInvalidQuery, err)), nil
		}

		start := time.Now()
		result, err := s.registry.Call(ctx, name, string(args))
		if err != nil {
			kind := lookup.Kind(err)
			utils.Warn("tool call failed", "tool", name, "kind", kind, "error", err, "duration", time.Since(start))
			return mcp.NewToolResultError(fmt.Sprintf("%s: %v", kind, err)), nil
		}

		utils.Info("tool call", "tool", name, "duration", time.Since(start))
		return mcp.NewToolResultText(result), nil
	}
}

// ServeStdio обслуживает запросы из in, отвечает в out до EOF или отмены ctx.
func (s *Server) ServeStdio(ctx context.Context, in io.Reader, out io.Writer) error {
	stdio := server.NewStdioServer(s.mcp)
	stdio.SetErrorLogger(log.New(os.Stderr, "mcp: ", log.LstdFlags))

	utils.Info("stdio server started", "tools", len(s.registry.GetDefinitions()))
	return stdio.Listen(ctx, in, out)
}

// HandleMessage обрабатывает одно JSON-RPC сообщение (для тестов и отладки).
func (s *Server) HandleMessage(ctx context.Context, raw json.RawMessage) mcp.JSONRPCMessage {
	return s.mcp.HandleMessage(ctx, raw)
}
