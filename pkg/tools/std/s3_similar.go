// Инструмент get_similar_file_names: поиск похожих имён файлов в S3.
//
// Бакет и префикс фиксированы конфигурацией, клиент передаёт только строку запроса.
package std

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ilkoid/mcp-s3/pkg/lookup"
	"github.com/ilkoid/mcp-s3/pkg/tools"
)

// SimilarFilesToolName — имя инструмента на границе.
const SimilarFilesToolName = "get_similar_file_names"

// queryArg — имя единственного аргумента.
const queryArg = "match_string"

// Finder — то, что умеет lookup.Service.
type Finder interface {
	FindSimilar(ctx context.Context, query string) ([]string, error)
}

// SimilarFilesTool отдаёт до 5 ключей, наиболее похожих на match_string.
type SimilarFilesTool struct {
	finder Finder
}

// NewSimilarFilesTool создает инструмент поверх lookup.Service (или любого Finder).
func NewSimilarFilesTool(f Finder) *SimilarFilesTool {
	return &SimilarFilesTool{finder: f}
}

// Definition возвращает описание инструмента для MCP (tools/list).
func (t *SimilarFilesTool) Definition() tools.ToolDefinition {
	return tools.ToolDefinition{
		Name:        SimilarFilesToolName,
		Description: "Get the most similar file names from an S3 bucket based on a match string. Returns a JSON array of object keys ordered by descending similarity.",
		Parameters: tools.JSONSchema{
			"type": "object",
			"properties": map[string]any{
				queryArg: map[string]any{
					"type":        "string",
					"description": "The string to match against object keys.",
				},
			},
			"required": []string{queryArg},
		},
	}
}

// Execute разбирает match_string и возвращает JSON массив ключей.
//
// Ошибки поиска возвращаются без изменений, вид ошибки определяет lookup.Kind.
func (t *SimilarFilesTool) Execute(ctx context.Context, argsJSON string) (string, error) {
	query, err := parseQuery(argsJSON)
	if err != nil {
		return "", err
	}

	names, err := t.finder.FindSimilar(ctx, query)
	if err != nil {
		return "", err
	}
	if names == nil {
		names = []string{}
	}

	data, err := json.Marshal(names)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// parseQuery достаёт match_string. Отсутствие или не-строка → lookup.ErrInvalidQuery.
func parseQuery(argsJSON string) (string, error) {
	var args map[string]json.RawMessage
	if err := json.Unmarshal([]byte(argsJSON), &args); err != nil {
		return "", fmt.Errorf("%w: arguments must be a JSON object", lookup.ErrInvalidQuery)
	}

	raw, ok := args[queryArg]
	if !ok || string(raw) == "null" {
		return "", fmt.Errorf("%w: %s is required", lookup.ErrInvalidQuery, queryArg)
	}

	var query string
	if err := json.Unmarshal(raw, &query); err != nil {
		return "", fmt.Errorf("%w: %s must be a string", lookup.ErrInvalidQuery, queryArg)
	}
	return query, nil
}
