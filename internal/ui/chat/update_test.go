// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"testing"

	"github.com/jeranaias/dify-tui/internal/appapi"
	"github.com/jeranaias/dify-tui/internal/config"
	"github.com/jeranaias/dify-tui/internal/exchange"
	"github.com/jeranaias/dify-tui/internal/store"
	"github.com/jeranaias/dify-tui/internal/ui/components"
)

func newTestModel() Model {
	cfg := config.Default()
	api := appapi.NewDemoClient()
	conversations := store.NewConversationStore()
	controller := exchange.NewController(api, conversations, nil, "app1", nil)
	toasts := components.NewToastManager()
	return New(cfg, api, controller, conversations, nil, toasts)
}

func TestSubmitEmptyInputShowsNotice(t *testing.T) {
	m := newTestModel()

	if _, _ = m.submit(); !m.toasts.HasToasts() {
		t.Fatal("expected a notice for an empty submit")
	}

	toasts := m.toasts.Toasts()
	if toasts[0].Kind != components.ToastKindWarning {
		t.Errorf("toast kind = %v, want warning", toasts[0].Kind)
	}
}

func TestSubmitBlankInputShowsNotice(t *testing.T) {
	m := newTestModel()
	m.input.SetValue("   ")

	m.submit()
	if !m.toasts.HasToasts() {
		t.Fatal("expected a notice for a whitespace-only submit")
	}
}
