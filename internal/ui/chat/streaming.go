// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view for the TUI.
//
// This file implements render pacing for streaming responses. Stream
// events can arrive far faster than the terminal can usefully repaint;
// the renderGate coalesces bursts and caps repaints at a fixed frame
// rate so streaming stays smooth without pegging the CPU.
package chat

import (
	"sync"
	"time"
)

// =============================================================================
// RENDER GATE
// =============================================================================

// renderGate batches message-update notifications for rendering.
// An update is marked from the controller's goroutine; the update loop
// asks whether a repaint is due. A repaint triggers when either:
// 1. The batch size threshold is reached (e.g. 15 pending updates)
// 2. Enough time has passed since the last repaint (e.g. 33ms for 30fps)
//
// Thread-safety: marking happens on controller goroutines while the
// check runs in the Bubble Tea loop, so all state sits behind a mutex.
type renderGate struct {
	mu        sync.Mutex
	pending   int
	lastFlush time.Time

	batchSize int
	minFlush  time.Duration
}

// newRenderGate creates a gate with default pacing: 15 updates per
// batch, 30fps ceiling.
func newRenderGate() *renderGate {
	const (
		defaultBatchSize = 15
		defaultMaxFPS    = 30
	)
	return &renderGate{
		batchSize: defaultBatchSize,
		minFlush:  time.Duration(1000/defaultMaxFPS) * time.Millisecond,
		lastFlush: time.Now(),
	}
}

// newRenderGateWithConfig creates a gate with custom pacing.
func newRenderGateWithConfig(batchSize, maxFPS int) *renderGate {
	if batchSize <= 0 {
		batchSize = 15
	}
	if maxFPS <= 0 || maxFPS > 60 {
		maxFPS = 30
	}
	return &renderGate{
		batchSize: batchSize,
		minFlush:  time.Duration(1000/maxFPS) * time.Millisecond,
		lastFlush: time.Now(),
	}
}

// Mark records one pending update. Called from controller goroutines.
func (g *renderGate) Mark() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pending++
}

// TakeIfDue reports whether a repaint should happen now and, if so,
// consumes the pending updates.
func (g *renderGate) TakeIfDue() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.pending == 0 {
		return false
	}
	if g.pending < g.batchSize && time.Since(g.lastFlush) < g.minFlush {
		return false
	}

	g.pending = 0
	g.lastFlush = time.Now()
	return true
}

// TakeAll consumes pending updates unconditionally. Used when a stream
// completes so the final state always renders.
func (g *renderGate) TakeAll() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	had := g.pending > 0
	g.pending = 0
	g.lastFlush = time.Now()
	return had
}

// Pending returns the number of unconsumed updates.
func (g *renderGate) Pending() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pending
}

// Reset clears pending updates without repainting.
func (g *renderGate) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pending = 0
	g.lastFlush = time.Now()
}
