// dify-tui - A terminal chat client for Dify chat apps.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/dify-tui/internal/appapi"
	"github.com/jeranaias/dify-tui/internal/config"
	"github.com/jeranaias/dify-tui/internal/exchange"
	"github.com/jeranaias/dify-tui/internal/store"
	"github.com/jeranaias/dify-tui/internal/ui/chat"
	"github.com/jeranaias/dify-tui/internal/ui/components"
	"github.com/jeranaias/dify-tui/internal/ui/styles"
	"github.com/jeranaias/dify-tui/internal/util"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Global program reference for async event delivery
var (
	programRef *tea.Program
	programMu  sync.Mutex
)

func main() {
	if len(os.Args) > 1 && (os.Args[1] == "--version" || os.Args[1] == "version") {
		fmt.Printf("dify-tui %s (%s, %s)\n", Version, GitCommit, BuildDate)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.CheckUsable(); err != nil {
		if errors.Is(err, config.ErrUnavailable) {
			runUnavailable()
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	runTUI(cfg)
}

// =============================================================================
// TUI STARTUP
// =============================================================================

func runTUI(cfg *config.Config) {
	if !util.IsTerminal() {
		fmt.Fprintln(os.Stderr, "dify-tui requires an interactive terminal")
		os.Exit(1)
	}
	styles.ApplyTheme(cfg.UI.Theme)

	var api appapi.API
	if cfg.Demo {
		demo := appapi.NewDemoClient()
		demo.ChunkDelay = 30 * time.Millisecond
		api = demo
	} else {
		api = appapi.NewClient(&appapi.ClientConfig{
			BaseURL: cfg.API.BaseURL,
			APIKey:  cfg.API.Key,
			User:    cfg.API.User,
			Timeout: time.Duration(cfg.API.TimeoutSecs) * time.Second,
		})
	}

	stateStore, err := store.OpenStateStore(cfg.StatePath)
	if err != nil {
		// A broken state database should not keep the chat from starting;
		// selections and inputs just won't persist this session.
		fmt.Fprintf(os.Stderr, "Warning: state database unavailable: %v\n", err)
		stateStore = nil
	}
	if stateStore != nil {
		defer stateStore.Close()
	}

	conversations := store.NewConversationStore()

	// Controller events arrive on background goroutines; program.Send
	// re-enters them into the Bubble Tea update loop.
	notify := func(ev exchange.Event) {
		programMu.Lock()
		p := programRef
		programMu.Unlock()
		if p != nil {
			p.Send(chat.ControllerMsg{Event: ev})
		}
	}

	controller := exchange.NewController(api, conversations, stateStore, cfg.API.AppID, notify)
	toasts := components.NewToastManager()

	m := chat.New(cfg, api, controller, conversations, stateStore, toasts)

	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	programMu.Lock()
	programRef = p
	programMu.Unlock()

	// Live-reload rendering preferences while the app runs.
	if path, err := config.ConfigPath(); err == nil {
		if w, werr := config.NewWatcher(path, func(next *config.Config, loadErr error) {
			if loadErr != nil || next == nil {
				return
			}
			cfg.UI = next.UI
		}); werr == nil {
			defer w.Close()
		}
	}

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running dify-tui: %v\n", err)
		os.Exit(1)
	}
}

func runUnavailable() {
	p := tea.NewProgram(chat.NewUnavailable(), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
