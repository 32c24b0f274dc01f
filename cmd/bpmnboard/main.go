// cmd/bpmnboard/main.go
//
// This is the entry point for the dashboard.
//
// Flow:
// 1. Initialize the .bpmnboard folder in the current directory
// 2. Load configuration (yaml file + environment overrides)
// 3. Launch the TUI

package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/udexvinda/process-flow-dashboard/internal/config"
	"github.com/udexvinda/process-flow-dashboard/internal/logging"
	"github.com/udexvinda/process-flow-dashboard/internal/tui"
)

func main() {
	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error getting working directory: %v\n", err)
		os.Exit(1)
	}

	if err := config.InitProjectDir(cwd); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing .bpmnboard directory: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.New(cwd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cwd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening log file: %v\n", err)
		os.Exit(1)
	}
	defer logger.Close()
	logger.Printf("bpmnboard: session opened for %s/%s@%s",
		cfg.Repository().Owner, cfg.Repository().Name, cfg.Repository().Branch)

	p := tea.NewProgram(
		tui.NewApp(cfg, logger),
		tea.WithAltScreen(),
	)
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		os.Exit(1)
	}
}
