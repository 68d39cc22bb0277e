package tools

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// echoTool возвращает аргументы как есть.
type echoTool struct {
	def ToolDefinition
	err error
}

func (e *echoTool) Definition() ToolDefinition { return e.def }

func (e *echoTool) Execute(_ context.Context, argsJSON string) (string, error) {
	if e.err != nil {
		return "", e.err
	}
	return argsJSON, nil
}

func objectDef(name string) ToolDefinition {
	return ToolDefinition{
		Name:        name,
		Description: "echo",
		Parameters: JSONSchema{
			"type": "object",
			"properties": map[string]any{
				"input": map[string]any{"type": "string"},
			},
			"required": []string{"input"},
		},
	}
}

func TestRegistry_RegisterAndCall(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&echoTool{def: objectDef("echo")}))

	out, err := r.Call(context.Background(), "echo", `{"input":"x"}`)
	require.NoError(t, err)
	assert.Equal(t, `{"input":"x"}`, out)

	_, err = r.Call(context.Background(), "missing", `{}`)
	assert.Error(t, err)
}

func TestRegistry_CallReturnsToolErrorUnchanged(t *testing.T) {
	sentinel := errors.New("backend down")
	r := NewRegistry()
	require.NoError(t, r.Register(&echoTool{def: objectDef("fail"), err: sentinel}))

	_, err := r.Call(context.Background(), "fail", `{}`)
	assert.Same(t, sentinel, err)
}

func TestRegistry_RejectsInvalidDefinitions(t *testing.T) {
	tests := []struct {
		name string
		def  ToolDefinition
	}{
		{"empty name", ToolDefinition{Parameters: JSONSchema{"type": "object"}}},
		{"nil parameters", ToolDefinition{Name: "x"}},
		{"non-object type", ToolDefinition{Name: "x", Parameters: JSONSchema{"type": "string"}}},
		{"missing type", ToolDefinition{Name: "x", Parameters: JSONSchema{}}},
		{"required not array", ToolDefinition{Name: "x", Parameters: JSONSchema{"type": "object", "required": "input"}}},
		{"required not strings", ToolDefinition{Name: "x", Parameters: JSONSchema{"type": "object", "required": []any{1}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, NewRegistry().Register(&echoTool{def: tt.def}))
		})
	}
}

func TestRegistry_DuplicateAndDefinitions(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&echoTool{def: objectDef("b_tool")}))
	require.NoError(t, r.Register(&echoTool{def: objectDef("a_tool")}))
	assert.Error(t, r.Register(&echoTool{def: objectDef("a_tool")}))

	defs := r.GetDefinitions()
	require.Len(t, defs, 2)
	assert.Equal(t, "a_tool", defs[0].Name)
	assert.Equal(t, "b_tool", defs[1].Name)
}
