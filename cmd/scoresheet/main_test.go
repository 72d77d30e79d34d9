package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestReviewCommand(t *testing.T) {
	dir := t.TempDir()
	page := filepath.Join(dir, "page1.pgn")
	if err := os.WriteFile(page, []byte("1. e4 e5 2. Nf3 0-0-0"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"review", page, "--white", "Alice", "-v"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	got := out.String()
	if !strings.Contains(got, `[White "Alice"]`) || !strings.Contains(got, "1. e4 e5") {
		t.Fatalf("output = %q", got)
	}
}

func TestNormalizeCommand(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"normalize", "0-0"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != "0-0\tO-O" {
		t.Fatalf("got %q", got)
	}
}
