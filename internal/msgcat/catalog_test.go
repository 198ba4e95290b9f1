package msgcat

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRenderEmbeddedDefault(t *testing.T) {
	c, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got, err := c.Render("reject.not_found", map[string]string{"ID": "g1"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got != "room g1 does not exist" {
		t.Fatalf("unexpected render: %q", got)
	}
}

func TestRenderMissingKey(t *testing.T) {
	c, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := c.Render("reject.nope", nil); err == nil {
		t.Fatalf("expected error for missing key")
	}
	if got := c.RenderOr("reject.nope", nil, "fallback"); got != "fallback" {
		t.Fatalf("RenderOr fallback broken: %q", got)
	}
}

func TestOverrideDirectoryWins(t *testing.T) {
	dir := t.TempDir()
	override := "reject:\n  not_found: \"no such room: {{.ID}}\"\n"
	if err := os.WriteFile(filepath.Join(dir, "override.yaml"), []byte(override), 0o644); err != nil {
		t.Fatalf("write override: %v", err)
	}
	c, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got, err := c.Render("reject.not_found", map[string]string{"ID": "g9"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got != "no such room: g9" {
		t.Fatalf("override not applied: %q", got)
	}
	// Keys outside the override stay intact.
	if got := c.RenderOr("reject.bad_command", nil, ""); got != "malformed command" {
		t.Fatalf("untouched key lost: %q", got)
	}
}
