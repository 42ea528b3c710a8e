// Command hoursreport exports the franchise catalog's opening hours to an
// Excel workbook.
package main

import (
	"flag"
	"os"
	"time"

	"github.com/rs/zerolog"

	"grabbi/internal/config"
	"grabbi/internal/model"
	"grabbi/internal/report"
)

func main() {
	catalogPath := flag.String("catalog", "configs/franchises.yaml", "franchise catalog file")
	out := flag.String("out", "store_hours.xlsx", "output workbook")
	tz := flag.String("tz", "", "zone store hours are written in (default: local)")
	flag.Parse()

	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	logger := zerolog.New(output).With().Timestamp().Logger()

	loc := time.Local
	if *tz != "" {
		l, err := time.LoadLocation(*tz)
		if err != nil {
			logger.Fatal().Err(err).Str("tz", *tz).Msg("invalid timezone")
		}
		loc = l
	}

	cfg, err := config.LoadFranchisesConfig(*catalogPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load franchise catalog")
	}

	f, err := os.Create(*out)
	if err != nil {
		logger.Fatal().Err(err).Msg("create output")
	}

	franchises := make([]*model.Franchise, 0, len(cfg.Franchises))
	for i := range cfg.Franchises {
		franchises = append(franchises, &cfg.Franchises[i])
	}
	if err := report.WriteHours(f, franchises, time.Now().In(loc)); err != nil {
		_ = f.Close()
		logger.Fatal().Err(err).Msg("write workbook")
	}
	if err := f.Close(); err != nil {
		logger.Fatal().Err(err).Msg("close output")
	}

	logger.Info().
		Str("path", *out).
		Int("franchises", len(franchises)).
		Int("active", len(cfg.GetActiveFranchises())).
		Msg("Hours report written")
}
