// Package utils предоставляет логгер и graceful shutdown для утилит mcp-s3.
//
// Логгер пишет в stderr или в файл и никогда в stdout: stdout занят
// stdio транспортом инструментов. Thread-safe.
package utils

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LoggerOptions — параметры логгера (зеркалит секцию log в config.yaml).
type LoggerOptions struct {
	Level  string // debug | info | warn | error
	File   string // пусто = stderr
	Format string // console | json

	// Discard отключает вывод, если File не задан (TUI занимает терминал).
	Discard bool
}

var (
	logMutex sync.RWMutex
	logger   = zap.NewNop().Sugar()
)

// InitLogger настраивает глобальный логгер.
//
// До вызова InitLogger все сообщения отбрасываются (удобно в тестах).
func InitLogger(opts LoggerOptions) error {
	var cfg zap.Config
	switch opts.Format {
	case "json":
		cfg = zap.NewProductionConfig()
	case "", "console":
		cfg = zap.NewDevelopmentConfig()
		cfg.Development = false
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	default:
		return fmt.Errorf("unknown log format %q", opts.Format)
	}

	if opts.Level != "" {
		var level zapcore.Level
		if err := level.UnmarshalText([]byte(opts.Level)); err != nil {
			return fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		cfg.Level = zap.NewAtomicLevelAt(level)
	}

	if opts.Discard && opts.File == "" {
		replaceLogger(zap.NewNop().Sugar())
		return nil
	}

	out := "stderr"
	if opts.File != "" {
		out = opts.File
	}
	cfg.OutputPaths = []string{out}
	cfg.ErrorOutputPaths = []string{"stderr"}

	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}

	replaceLogger(l.Sugar())
	return nil
}

func replaceLogger(l *zap.SugaredLogger) {
	logMutex.Lock()
	old := logger
	logger = l
	logMutex.Unlock()

	_ = old.Sync()
}

func current() *zap.SugaredLogger {
	logMutex.RLock()
	defer logMutex.RUnlock()
	return logger
}

// Info - информационное сообщение.
func Info(msg string, keyvals ...any) {
	current().Infow(msg, keyvals...)
}

// Error - сообщение об ошибке.
func Error(msg string, keyvals ...any) {
	current().Errorw(msg, keyvals...)
}

// Debug - отладочное сообщение.
func Debug(msg string, keyvals ...any) {
	current().Debugw(msg, keyvals...)
}

// Warn - предупреждение.
func Warn(msg string, keyvals ...any) {
	current().Warnw(msg, keyvals...)
}

// Close сбрасывает буферы и возвращает логгер в no-op.
//
// Вызывается через defer в main().
func Close() {
	logMutex.Lock()
	defer logMutex.Unlock()

	_ = logger.Sync()
	logger = zap.NewNop().Sugar()
}
