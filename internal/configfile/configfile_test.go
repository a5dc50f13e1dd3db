package configfile

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingReturnsNil(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg != nil {
		t.Errorf("Load() on missing file = %+v, want nil", cfg)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), DirName)
	in := &Config{
		Backend:        "bd",
		BDBinary:       "/usr/local/bin/bd",
		BDDBPath:       "/tmp/beads.db",
		TimeoutSeconds: 60,
		Actor:          "casey",
	}
	if err := in.Save(dir); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	out, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if out.Backend != "bd" || out.BDBinary != "/usr/local/bin/bd" || out.Actor != "casey" {
		t.Errorf("round trip = %+v", out)
	}
	if out.Timeout() != 60*time.Second {
		t.Errorf("Timeout() = %v, want 60s", out.Timeout())
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(ConfigPath(dir), []byte("backend: jsonl\n"), 0o600); err != nil {
		t.Fatalf("seed config: %v", err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	def := DefaultConfig()
	if cfg.JSONLFile != def.JSONLFile {
		t.Errorf("JSONLFile = %q, want default %q", cfg.JSONLFile, def.JSONLFile)
	}
	if cfg.BDBinary != def.BDBinary {
		t.Errorf("BDBinary = %q, want default %q", cfg.BDBinary, def.BDBinary)
	}
	if cfg.TimeoutSeconds != def.TimeoutSeconds {
		t.Errorf("TimeoutSeconds = %d, want default %d", cfg.TimeoutSeconds, def.TimeoutSeconds)
	}
	if cfg.IDPrefix != def.IDPrefix {
		t.Errorf("IDPrefix = %q, want default %q", cfg.IDPrefix, def.IDPrefix)
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(ConfigPath(dir), []byte("backend: [unclosed"), 0o600); err != nil {
		t.Fatalf("seed config: %v", err)
	}
	if _, err := Load(dir); err == nil {
		t.Error("Load() on malformed yaml = nil error, want failure")
	}
}

func TestJSONLPath(t *testing.T) {
	cfg := &Config{JSONLFile: "beads.jsonl"}
	if got := cfg.JSONLPath("/proj/.foolery"); got != filepath.Join("/proj/.foolery", "beads.jsonl") {
		t.Errorf("JSONLPath() = %q", got)
	}
	abs := &Config{JSONLFile: "/elsewhere/beads.jsonl"}
	if got := abs.JSONLPath("/proj/.foolery"); got != "/elsewhere/beads.jsonl" {
		t.Errorf("JSONLPath() with absolute file = %q", got)
	}
}
