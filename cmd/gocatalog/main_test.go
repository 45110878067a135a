package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	apppkg "github.com/hyperifyio/gocatalog/internal/app"
)

// Smoke test: run writes the catalog for a single file.
func TestRun_File_WritesOutput(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.html")
	out := filepath.Join(dir, "out.json")
	page := `<h2>Widgets</h2><p>Great widgets.</p><table><tr><th>Description</th><th>Price</th></tr><tr><td>Widget A</td><td>$10.00</td></tr></table>`
	if err := os.WriteFile(in, []byte(page), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	cfg := apppkg.Config{InputFile: in, OutputPath: out}
	if err := run(context.Background(), cfg); err != nil {
		t.Fatalf("run error: %v", err)
	}
	b, err := os.ReadFile(out)
	if err != nil || len(b) == 0 {
		t.Fatalf("expected output file, err=%v", err)
	}
}

func TestRun_NoSources_ExitCode(t *testing.T) {
	dir := t.TempDir()
	cfg := apppkg.Config{InputFile: filepath.Join(dir, "missing.html"), OutputPath: filepath.Join(dir, "out.json")}
	err := run(context.Background(), cfg)
	if !errors.Is(err, apppkg.ErrNoSources) {
		t.Fatalf("expected ErrNoSources, got %v", err)
	}
	if code := exitCode(err); code != exitNoSources {
		t.Fatalf("exit code = %d, want %d", code, exitNoSources)
	}
}

func TestExitCode(t *testing.T) {
	if exitCode(nil) != exitOK {
		t.Fatalf("nil should map to 0")
	}
	if exitCode(fmt.Errorf("init app: %w", apppkg.ErrConfig)) != exitFailure {
		t.Fatalf("config errors should map to 1")
	}
	if exitCode(fmt.Errorf("wrapped: %w", apppkg.ErrNoSources)) != exitNoSources {
		t.Fatalf("wrapped ErrNoSources should map to 2")
	}
}

func TestParseFlags(t *testing.T) {
	t.Setenv(apppkg.EnvUserAgent, "")
	t.Setenv(apppkg.EnvConcurrency, "")
	dir := t.TempDir()
	conf := filepath.Join(dir, "c.yaml")
	_ = os.WriteFile(conf, []byte("fetch:\n  userAgent: file-agent\n  concurrency: 3\noutput:\n  pdf: cat.pdf\n"), 0o644)

	cfg, ver, err := parseFlags([]string{
		"-url", "https://a.test/x, https://a.test/y",
		"-concurrency", "8",
		"-config", conf,
		"-env", filepath.Join(dir, "missing.env"),
	}, io.Discard)
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	if ver {
		t.Fatalf("version flag not given")
	}
	if len(cfg.URLs) != 2 || cfg.URLs[1] != "https://a.test/y" {
		t.Fatalf("urls = %q", cfg.URLs)
	}
	if cfg.Concurrency != 8 {
		t.Fatalf("flag should win over file: %d", cfg.Concurrency)
	}
	if cfg.UserAgent != "file-agent" || cfg.PDFPath != "cat.pdf" {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.OutputPath != apppkg.DefaultOutputPath {
		t.Fatalf("output = %q", cfg.OutputPath)
	}
}

func TestParseFlags_BadConfig(t *testing.T) {
	_, _, err := parseFlags([]string{"-config", filepath.Join(t.TempDir(), "nope.yaml"), "-env", ""}, io.Discard)
	if !errors.Is(err, apppkg.ErrConfig) {
		t.Fatalf("expected ErrConfig, got %v", err)
	}
}
