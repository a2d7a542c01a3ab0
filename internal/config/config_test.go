package config

import "testing"

func TestDefault(t *testing.T) {
	cfg := Default()

	if got := cfg.ListenAddr(); got != "127.0.0.1:7433" {
		t.Errorf("ListenAddr = %q, want 127.0.0.1:7433", got)
	}
	if cfg.Params.Boundary != "half_open" {
		t.Errorf("Boundary = %q, want half_open", cfg.Params.Boundary)
	}
	if cfg.Database.Path != "" {
		t.Errorf("Database.Path = %q, want empty", cfg.Database.Path)
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Bind != "127.0.0.1" {
		t.Errorf("Bind = %q, want 127.0.0.1", cfg.Server.Bind)
	}
	if cfg.Server.Port != 7433 {
		t.Errorf("Port = %d, want 7433", cfg.Server.Port)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("MINDLINE_BIND", "0.0.0.0")
	t.Setenv("MINDLINE_PORT", "9999")
	t.Setenv("MINDLINE_DB", "/tmp/mindline-test.db")
	t.Setenv("MINDLINE_BOUNDARY", "inclusive")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Bind != "0.0.0.0" {
		t.Errorf("Bind = %q, want 0.0.0.0", cfg.Server.Bind)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("Port = %d, want 9999", cfg.Server.Port)
	}
	if cfg.Database.Path != "/tmp/mindline-test.db" {
		t.Errorf("Database.Path = %q", cfg.Database.Path)
	}
	if cfg.Params.Boundary != "inclusive" {
		t.Errorf("Boundary = %q, want inclusive", cfg.Params.Boundary)
	}
	if got := cfg.BaseURL(); got != "http://0.0.0.0:9999" {
		t.Errorf("BaseURL = %q", got)
	}
}
