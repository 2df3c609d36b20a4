package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_DefaultWhenMissing(t *testing.T) {
	tmpDir := t.TempDir()

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	def := DefaultConfig()
	if cfg.SnapTolerancePx != def.SnapTolerancePx {
		t.Fatalf("SnapTolerancePx = %v, want %v", cfg.SnapTolerancePx, def.SnapTolerancePx)
	}
	if cfg.MinFieldPercent != 0.5 {
		t.Fatalf("MinFieldPercent = %v, want 0.5", cfg.MinFieldPercent)
	}
	if cfg.DrawMode {
		t.Fatal("DrawMode should default to false")
	}
}

func TestLoad_OverridesFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	if err := os.WriteFile(configPath, []byte(`{"snap_tolerance_px": 8, "draw_mode": true, "web_port": 9000}`), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.SnapTolerancePx != 8 {
		t.Fatalf("SnapTolerancePx = %v, want 8", cfg.SnapTolerancePx)
	}
	if !cfg.DrawMode {
		t.Fatal("DrawMode = false, want true")
	}
	if cfg.WebPort != 9000 {
		t.Fatalf("WebPort = %d, want 9000", cfg.WebPort)
	}
	// Untouched keys keep defaults
	if cfg.RenderScale != DefaultConfig().RenderScale {
		t.Fatalf("RenderScale = %v, want default", cfg.RenderScale)
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	if err := os.WriteFile(configPath, []byte(`{not json}`), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	if _, err := Load(tmpDir); err == nil {
		t.Fatalf("Load() expected error, got nil")
	}
}

func TestLoad_NegativeScalarsIgnored(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	if err := os.WriteFile(configPath, []byte(`{"min_field_percent": -1, "render_scale": 0}`), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.MinFieldPercent != 0.5 {
		t.Errorf("MinFieldPercent = %v, want 0.5", cfg.MinFieldPercent)
	}
	if cfg.RenderScale != 1.5 {
		t.Errorf("RenderScale = %v, want 1.5", cfg.RenderScale)
	}
}

func TestMerge_ArraysDeduplicated(t *testing.T) {
	base := &Config{AllowedPaths: []string{"/a", " /b "}, DisabledTools: []string{"field_delete"}}
	overlay := &Config{AllowedPaths: []string{"/b", "/c", ""}, DisabledTools: []string{"field_delete", "fields_import"}}

	got := Merge(base, overlay)

	wantPaths := []string{"/a", "/b", "/c"}
	if len(got.AllowedPaths) != len(wantPaths) {
		t.Fatalf("AllowedPaths = %v, want %v", got.AllowedPaths, wantPaths)
	}
	for i, p := range wantPaths {
		if got.AllowedPaths[i] != p {
			t.Errorf("AllowedPaths[%d] = %q, want %q", i, got.AllowedPaths[i], p)
		}
	}
	if len(got.DisabledTools) != 2 {
		t.Errorf("DisabledTools = %v, want 2 entries", got.DisabledTools)
	}
}

func TestMerge_EmptyArraysNil(t *testing.T) {
	got := Merge(&Config{}, &Config{})
	if got.AllowedPaths != nil {
		t.Errorf("AllowedPaths = %v, want nil", got.AllowedPaths)
	}
}

func TestLoadWithRepo_RepoOverridesGlobal(t *testing.T) {
	globalDir := t.TempDir()
	repoRoot := t.TempDir()
	nested := filepath.Join(repoRoot, "forms", "invoices")
	if err := os.MkdirAll(nested, 0700); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	if err := os.MkdirAll(filepath.Join(repoRoot, ".fieldmark"), 0700); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}

	if err := os.WriteFile(filepath.Join(globalDir, "config.json"),
		[]byte(`{"snap_tolerance_px": 3, "allowed_paths": ["/global"]}`), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if err := os.WriteFile(filepath.Join(repoRoot, ".fieldmark", "config.json"),
		[]byte(`{"snap_tolerance_px": 10, "allowed_paths": ["/repo"]}`), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := LoadWithRepo(globalDir, nested)
	if err != nil {
		t.Fatalf("LoadWithRepo() error = %v", err)
	}
	if cfg.SnapTolerancePx != 10 {
		t.Errorf("SnapTolerancePx = %v, want 10", cfg.SnapTolerancePx)
	}
	if len(cfg.AllowedPaths) != 2 {
		t.Errorf("AllowedPaths = %v, want both entries", cfg.AllowedPaths)
	}
}

func TestLoadWithRepo_NoRepoConfig(t *testing.T) {
	globalDir := t.TempDir()
	startDir := t.TempDir()

	cfg, err := LoadWithRepo(globalDir, startDir)
	if err != nil {
		t.Fatalf("LoadWithRepo() error = %v", err)
	}
	if cfg.SnapTolerancePx != DefaultConfig().SnapTolerancePx {
		t.Errorf("SnapTolerancePx = %v, want default", cfg.SnapTolerancePx)
	}
}

func TestFindRepoConfig_FindsNearest(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0700); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	if err := os.MkdirAll(filepath.Join(root, "a", ".fieldmark"), 0700); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	want := filepath.Join(root, "a", ".fieldmark", "config.json")
	if err := os.WriteFile(want, []byte(`{}`), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	if got := FindRepoConfig(nested); got != want {
		t.Errorf("FindRepoConfig() = %q, want %q", got, want)
	}
}
