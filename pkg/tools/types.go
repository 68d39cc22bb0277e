// Интерфейс Tool и структуры определений.

package tools

import "context"

// JSONSchema представляет JSON Schema для параметров инструмента.
type JSONSchema map[string]any

// ToolDefinition описывает инструмент для клиента (имя, описание, схема аргументов).
type ToolDefinition struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Parameters  JSONSchema `json:"parameters"` // JSON Schema объекта аргументов
}

// Tool — контракт, который должен реализовать любой инструмент.
//
// Инструмент не знает о транспорте: аргументы приходят сырым JSON,
// результат уходит строкой (обычно JSON).
type Tool interface {
	// Definition возвращает описание инструмента.
	Definition() ToolDefinition

	// Execute выполняет логику инструмента.
	// argsJSON — сырой JSON объект с аргументами вызова.
	Execute(ctx context.Context, argsJSON string) (string, error)
}
