package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"agronexus/internal/climate"
	"agronexus/internal/config"
	"agronexus/internal/dataset"
	"agronexus/internal/exporter"
	"agronexus/internal/infrastructure"
)

func main() {
	from := flag.String("from", "", "start date (YYYY-MM-DD, defaults to the configured window)")
	to := flag.String("to", "", "end date (YYYY-MM-DD, defaults to yesterday)")
	out := flag.String("out", "climate_history.csv", "output csv path (relative paths land in data/reports)")
	fill := flag.Bool("fill", false, "fill gaps in the output (forward-fill, then back-fill)")
	timeout := flag.Duration("timeout", 2*time.Minute, "fetch timeout")
	flag.Parse()

	paths, err := config.GetPaths()
	if err != nil {
		slog.Error("Failed to initialize paths", "error", err)
		os.Exit(1)
	}
	if err := paths.EnsureDirectories(); err != nil {
		slog.Error("Failed to create required directories", "error", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Warn("Failed to load config, using defaults", "error", err)
		cfg = config.Default()
		cfg.Logging.FilePath = paths.GetLogPath("climatecsv.log")
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}

	end := time.Now().UTC().AddDate(0, 0, -1)
	if *to != "" {
		end, err = time.Parse("2006-01-02", *to)
		if err != nil {
			logger.Error("Invalid -to date", slog.String("value", *to), slog.String("error", err.Error()))
			os.Exit(1)
		}
	}
	start := end.AddDate(-cfg.Sources.WindowYears, 0, 0)
	if *from != "" {
		start, err = time.Parse("2006-01-02", *from)
		if err != nil {
			logger.Error("Invalid -from date", slog.String("value", *from), slog.String("error", err.Error()))
			os.Exit(1)
		}
	}
	if end.Before(start) {
		logger.Error("Date range is reversed",
			slog.String("from", start.Format("2006-01-02")),
			slog.String("to", end.Format("2006-01-02")))
		os.Exit(1)
	}

	logger.Info("Fetching climate history",
		slog.String("from", start.Format("2006-01-02")),
		slog.String("to", end.Format("2006-01-02")),
		slog.Float64("latitude", cfg.Sources.Latitude),
		slog.Float64("longitude", cfg.Sources.Longitude),
		slog.String("output", *out))

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	client := climate.NewClient(cfg.Sources, logger)
	history, err := client.FetchHistory(ctx, start, end)
	if err != nil {
		logger.Error("Climate fetch failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	table := dataset.MergeByDate(history.TempMax, history.Rainfall)
	if table.NumRows() == 0 {
		logger.Error("Climate source returned no observations")
		os.Exit(1)
	}
	if *fill {
		table.FillGaps()
	}

	writer := exporter.NewCSVWriter(paths)
	if err := writer.WriteTableCSV(*out, table); err != nil {
		logger.Error("Failed to write CSV", slog.String("path", *out), slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("Climate history written",
		slog.Int("rows", table.NumRows()),
		slog.String("output", *out))
	fmt.Printf("Wrote %d rows to %s\n", table.NumRows(), *out)
}
