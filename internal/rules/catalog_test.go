package rules

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestLoadMissingFileFallsBack(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Version != Default().Version || len(c.Threat) == 0 {
		t.Error("expected the compiled-in default catalog")
	}
}

func TestLoadEmptyPathUsesDefaults(t *testing.T) {
	c, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(c.Commands) == 0 || len(c.DLP) == 0 {
		t.Error("default catalog must carry command and dlp rules")
	}
}

func TestLoadMalformedFileErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	os.WriteFile(path, []byte("version: [not an int"), 0o600)

	if _, err := Load(path); err == nil {
		t.Error("malformed catalog must not silently fall back")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	if err := Default().Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(c.Threat) != len(Default().Threat) || len(c.Commands) != len(Default().Commands) {
		t.Error("round trip lost rules")
	}
}

func TestDefaultPatternsCompile(t *testing.T) {
	c := Default()
	for _, r := range c.Threat {
		if _, err := regexp.Compile(r.Pattern); err != nil {
			t.Errorf("threat rule %q: %v", r.Name, err)
		}
	}
	for _, r := range c.DLP {
		if _, err := regexp.Compile(r.Pattern); err != nil {
			t.Errorf("dlp rule %q: %v", r.Name, err)
		}
	}
	for _, r := range c.Commands {
		if _, err := regexp.Compile(r.Pattern); err != nil {
			t.Errorf("command rule %q: %v", r.Name, err)
		}
	}
	for _, r := range c.MalwareCalls {
		if _, err := regexp.Compile(r.Pattern); err != nil {
			t.Errorf("malware rule %q: %v", r.Name, err)
		}
	}
}

func TestDefaultNamedRulesPresent(t *testing.T) {
	c := Default()
	names := make(map[string]bool)
	for _, r := range c.Threat {
		names[r.Name] = true
	}
	for _, want := range []string{"SQL Injection", "Command Injection", "Path Traversal"} {
		if !names[want] {
			t.Errorf("missing threat rule %q", want)
		}
	}
}

func TestWatcherReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")

	reloaded := make(chan *Catalog, 1)
	w := NewWatcher(path, func(c *Catalog) {
		select {
		case reloaded <- c:
		default:
		}
	}, zerolog.Nop())
	w.debounce = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.Run(ctx)
	}()

	// Give the watcher time to register before writing.
	time.Sleep(50 * time.Millisecond)
	if err := os.WriteFile(path, []byte("version: 7\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	select {
	case c := <-reloaded:
		if c.Version != 7 {
			t.Errorf("expected reloaded version 7, got %d", c.Version)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not reload")
	}

	cancel()
	<-done
}
