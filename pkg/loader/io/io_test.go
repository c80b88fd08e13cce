package io

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/alaris-labs/papergraph/pkg/loader"
)

func TestFileLoader(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "paper.txt")
	if err := os.WriteFile(path, []byte("Abstract\nText"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	l := NewFileLoader()
	file := loader.NewSourceFile("1", path, l)

	got, err := file.GetBytes(t.Context())
	if err != nil {
		t.Fatalf("GetBytes() error = %v", err)
	}
	if string(got) != "Abstract\nText" {
		t.Fatalf("GetBytes() = %q", got)
	}

	// served from cache after the file is gone
	if err := os.Remove(path); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := file.GetBytes(t.Context()); err != nil {
		t.Fatalf("cached GetBytes() error = %v", err)
	}
}

func TestFileLoaderMissingFile(t *testing.T) {
	l := NewFileLoader()
	file := loader.NewSourceFile("1", filepath.Join(t.TempDir(), "missing.txt"), l)

	_, err := file.GetBytes(t.Context())
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("GetBytes() error = %v, want fs.ErrNotExist", err)
	}
}
