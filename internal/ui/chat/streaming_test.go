// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"testing"
	"time"
)

func TestRenderGateBatchThreshold(t *testing.T) {
	g := newRenderGateWithConfig(5, 30)
	g.Reset()

	for i := 0; i < 4; i++ {
		g.Mark()
	}
	if g.TakeIfDue() {
		t.Error("expected no repaint below batch threshold inside flush window")
	}

	g.Mark()
	if !g.TakeIfDue() {
		t.Error("expected repaint once batch threshold is reached")
	}
	if g.Pending() != 0 {
		t.Errorf("expected pending reset after take, got %d", g.Pending())
	}
}

func TestRenderGateTimeThreshold(t *testing.T) {
	g := newRenderGateWithConfig(100, 60)
	g.Reset()

	g.Mark()
	if g.TakeIfDue() {
		t.Error("expected no repaint immediately after flush")
	}

	time.Sleep(25 * time.Millisecond)
	if !g.TakeIfDue() {
		t.Error("expected repaint after the flush interval elapsed")
	}
}

func TestRenderGateNothingPending(t *testing.T) {
	g := newRenderGate()
	time.Sleep(40 * time.Millisecond)
	if g.TakeIfDue() {
		t.Error("expected no repaint with zero pending updates")
	}
}

func TestRenderGateTakeAll(t *testing.T) {
	g := newRenderGate()
	g.Reset()

	if g.TakeAll() {
		t.Error("expected TakeAll to report false with nothing pending")
	}

	g.Mark()
	if !g.TakeAll() {
		t.Error("expected TakeAll to report true with pending updates")
	}
	if g.Pending() != 0 {
		t.Errorf("expected pending cleared, got %d", g.Pending())
	}
}

func TestRenderGateConfigClamps(t *testing.T) {
	g := newRenderGateWithConfig(0, 0)
	if g.batchSize != 15 {
		t.Errorf("expected default batch size 15, got %d", g.batchSize)
	}
	if g.minFlush != time.Duration(1000/30)*time.Millisecond {
		t.Errorf("expected 30fps flush interval, got %v", g.minFlush)
	}

	g = newRenderGateWithConfig(10, 120)
	if g.minFlush != time.Duration(1000/30)*time.Millisecond {
		t.Errorf("expected fps clamp to 30, got %v", g.minFlush)
	}
}

func TestRenderGateReset(t *testing.T) {
	g := newRenderGate()
	g.Mark()
	g.Mark()
	g.Reset()
	if g.Pending() != 0 {
		t.Errorf("expected pending cleared by reset, got %d", g.Pending())
	}
}
