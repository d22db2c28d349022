package config

import (
	"context"
	"os"
	"testing"
	"time"
)

func TestWatcherStopsOnCancel(t *testing.T) {
	w, err := NewWatcher(writeTempConfig(t, minimalConfig), 0)
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	defer w.Close()
	ctx, cancel := context.WithCancel(context.Background())
	cancel() // cancel immediately
	if err := w.Run(ctx, nil, nil); err == nil {
		t.Fatalf("expected context cancellation")
	}
}

func TestWatcherTriggersOnChange(t *testing.T) {
	path := writeTempConfig(t, minimalConfig)
	w, err := NewWatcher(path, 0)
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	updates := make(chan AppConfig, 4)
	errs := make(chan error, 4)
	go func() {
		_ = w.Run(ctx, func(cfg AppConfig) { updates <- cfg }, func(err error) { errs <- err })
	}()

	// broken file is reported, not applied
	if err := os.WriteFile(path, []byte("env: dev\nrates: ["), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	select {
	case <-errs:
	case cfg := <-updates:
		t.Fatalf("unexpected update %+v", cfg)
	case <-time.After(2 * time.Second):
		t.Fatalf("expected error callback")
	}

	if err := os.WriteFile(path, []byte(minimalConfig+"calculator:\n  strategy: apd\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	deadline := time.After(2 * time.Second)
	for {
		select {
		case cfg := <-updates:
			if cfg.Calculator.Strategy == "apd" {
				return
			}
		case <-errs:
			// partial writes can surface as parse errors; wait for the next event
		case <-deadline:
			t.Fatalf("expected update callback")
		}
	}
}

func TestWatcherAppliesEditInsideCooldown(t *testing.T) {
	path := writeTempConfig(t, minimalConfig)
	w, err := NewWatcher(path, 300*time.Millisecond)
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	updates := make(chan AppConfig, 16)
	go func() {
		_ = w.Run(ctx, func(cfg AppConfig) { updates <- cfg }, nil)
	}()

	if err := os.WriteFile(path, []byte(minimalConfig+"calculator:\n  strategy: apd\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	waitForStrategy(t, updates, "apd", 2*time.Second)

	// 紧接着的第二次修改落在冷却期内，冷却结束后仍需生效
	if err := os.WriteFile(path, []byte(minimalConfig+"calculator:\n  strategy: decimal\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	waitForStrategy(t, updates, "decimal", 2*time.Second)
}

func waitForStrategy(t *testing.T, updates <-chan AppConfig, strategy string, timeout time.Duration) {
	t.Helper()
	deadline := time.After(timeout)
	for {
		select {
		case cfg := <-updates:
			if cfg.Calculator.Strategy == strategy {
				return
			}
		case <-deadline:
			t.Fatalf("expected config with strategy %q", strategy)
		}
	}
}
