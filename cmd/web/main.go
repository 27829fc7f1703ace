package main

import (
	"log/slog"
	"os"

	"agronexus/internal/app"
	"agronexus/web"
)

func main() {
	application, err := app.NewApplication(web.FS())
	if err != nil {
		slog.Error("Failed to initialize application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := application.Run(); err != nil {
		slog.Error("Application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
