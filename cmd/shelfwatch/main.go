package main

import (
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"shelfwatch/internal/api"
	"shelfwatch/internal/cache"
	"shelfwatch/internal/config"
	"shelfwatch/internal/ui"
)

func main() {
	cfg, err := config.LoadOrCreate(config.DefaultConfigFileName)
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	if os.Getenv("SHELFWATCH_DEBUG") != "" {
		f, err := tea.LogToFile("shelfwatch.log", "debug")
		if err == nil {
			defer f.Close()
		}
	}

	var snaps ui.SnapshotStore
	store, err := cache.Open(cfg.CachePath)
	if err != nil {
		// The dashboard still works without the offline cache.
		fmt.Printf("warning: cache unavailable: %v\n", err)
	} else {
		snaps = store
		defer store.Close()
	}

	client := api.NewClient(cfg.ServerURL, cfg.ReadRetries)

	if err := ui.Run(cfg, client, snaps); err != nil {
		if errors.Is(err, ui.ErrAuthExpired) {
			fmt.Printf("Session expired — log in at %s/login and restart.\n", cfg.ServerURL)
			os.Exit(1)
		}
		fmt.Printf("error running program: %v\n", err)
		os.Exit(1)
	}
}
