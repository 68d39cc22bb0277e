package config

import (
	"os"
	"path/filepath"
)

// DefaultFileName — имя конфига, которое ищется по умолчанию.
const DefaultFileName = "config.yaml"

// FindPath находит путь к config.yaml.
//
// Порядок поиска:
// 1. Флаг --config (если указан)
// 2. Текущая директория
// 3. Директория бинарника
//
// Если ничего не найдено, возвращает ./config.yaml (Load сообщит об ошибке).
func FindPath(flagValue string) string {
	if flagValue != "" {
		return resolveAbsPath(flagValue)
	}

	if _, err := os.Stat(DefaultFileName); err == nil {
		return resolveAbsPath(DefaultFileName)
	}

	// MCP клиенты часто запускают бинарник из чужой рабочей директории
	if execPath, err := os.Executable(); err == nil {
		cfgPath := filepath.Join(filepath.Dir(execPath), DefaultFileName)
		if _, err := os.Stat(cfgPath); err == nil {
			return cfgPath
		}
	}

	return resolveAbsPath(DefaultFileName)
}

func resolveAbsPath(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		return p
	}
	return abs
}
