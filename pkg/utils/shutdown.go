package utils

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// SetupGracefulShutdown создаёт контекст, который отменяется по SIGINT/SIGTERM.
//
// Использование:
//
//	ctx, shutdown := utils.SetupGracefulShutdown(context.Background())
//	defer shutdown()
//
// shutdown снимает обработчик сигналов и закрывает логгер.
func SetupGracefulShutdown(parent context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancel(parent)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			Info("Received signal, shutting down gracefully", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigChan)
		cancel()
		Close()
	}
}
