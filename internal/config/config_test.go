package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatal(err)
		}
	})
}

func writeConfig(t *testing.T, content string) {
	t.Helper()
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "config"), 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config", "test.yaml"), []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	chdir(t, dir)
}

func TestLoad_AppliesDefaults(t *testing.T) {
	writeConfig(t, "http:\n  port: 9090\n")

	cfg, err := Load("test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTP.Port != 9090 {
		t.Errorf("port = %d", cfg.HTTP.Port)
	}
	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("read timeout default = %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.TMDB.BaseURL != "https://api.themoviedb.org/3" {
		t.Errorf("tmdb base url default = %q", cfg.TMDB.BaseURL)
	}
	if cfg.Fetch.OnError != "abort" {
		t.Errorf("fetch.on_error default = %q, want abort", cfg.Fetch.OnError)
	}
	if cfg.Catalog.Path != filepath.Join("data", "movies.txt") {
		t.Errorf("catalog path default = %q", cfg.Catalog.Path)
	}
}

func TestLoad_ExpandsEnvVars(t *testing.T) {
	t.Setenv("TEST_TMDB_TOKEN", "secret-token")
	writeConfig(t, strings.Join([]string{
		"tmdb:",
		"  api_token: ${TEST_TMDB_TOKEN}",
		"  language: ${TEST_UNSET_LANG:-de-DE}",
	}, "\n"))

	cfg, err := Load("test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.TMDB.APIToken != "secret-token" {
		t.Errorf("api_token = %q", cfg.TMDB.APIToken)
	}
	if cfg.TMDB.Language != "de-DE" {
		t.Errorf("language = %q, want fallback default", cfg.TMDB.Language)
	}
}

func TestLoad_InvalidOnError(t *testing.T) {
	writeConfig(t, "fetch:\n  on_error: ignore\n")

	_, err := Load("test")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "on_error") {
		t.Errorf("error = %q", err)
	}
}

func TestLoad_InvalidCatalogExtension(t *testing.T) {
	writeConfig(t, "catalog:\n  path: data/movies.csv\n")

	_, err := Load("test")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "catalog.path") {
		t.Errorf("error = %q", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	chdir(t, t.TempDir())
	_, err := Load("absent")
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("ENV", "")
	if env := GetEnv(); env != "local" {
		t.Errorf("GetEnv() = %q, want local default", env)
	}
	t.Setenv("ENV", "prod")
	if env := GetEnv(); env != "prod" {
		t.Errorf("GetEnv() = %q", env)
	}
}
