package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/jwebster45206/narrative-engine/internal/config"
	"github.com/jwebster45206/narrative-engine/internal/game"
)

const requestTimeout = 10 * time.Second

// Usage: console [game-id]
//
// Without a game id a new game is created for PC_ID.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	api := NewAPIClient(&http.Client{Timeout: requestTimeout}, cfg.APIURL)

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	if !api.testConnection(ctx) {
		fmt.Fprintf(os.Stderr, "Could not connect to API at %s. Please ensure the API is running.\n", cfg.APIURL)
		os.Exit(1)
	}

	var snap *game.Snapshot
	if len(os.Args) > 1 {
		id, err := uuid.Parse(os.Args[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid game id %q: %v\n", os.Args[1], err)
			os.Exit(1)
		}
		snap, err = api.GetGame(ctx, id)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load game: %v\n", err)
			os.Exit(1)
		}
	} else {
		snap, err = api.CreateGame(ctx, cfg.PCID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create game: %v\n", err)
			os.Exit(1)
		}
	}

	p := tea.NewProgram(NewConsoleUI(api, snap), tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
}
