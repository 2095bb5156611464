package main

import (
	"io"

	"github.com/caarlos0/env/v11"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
)

type logSettings struct {
	Logfile string `env:"VOXPAGE_LOGFILE"`
	Debug   bool   `env:"VOXPAGE_DEBUG"`
}

// setupLog routes logging to a file when VOXPAGE_LOGFILE is set, otherwise
// discards it so log lines never bleed into the TUI.
func setupLog() (func() error, error) {
	cfg, err := env.ParseAs[logSettings]()
	if err != nil {
		return nil, err
	}
	if cfg.Logfile != "" {
		f, err := tea.LogToFile(cfg.Logfile, "voxpage")
		if err != nil {
			return nil, err
		}
		log.SetOutput(f)
		log.SetLevel(log.InfoLevel)
		if cfg.Debug {
			log.SetLevel(log.DebugLevel)
		}
		return f.Close, nil
	}
	log.SetOutput(io.Discard)
	return func() error { return nil }, nil
}
