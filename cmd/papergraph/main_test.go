package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"testing"
)

const paperText = `3D Gaussian Splatting for Real-Time Radiance Field Rendering

Abstract
Radiance field methods have recently revolutionized novel-view synthesis.

Introduction
Meshes and points are the most common 3D scene representations.
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestCollectFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "a")
	writeFile(t, filepath.Join(dir, "nested", "b.PDF"), "b")
	writeFile(t, filepath.Join(dir, "notes.docx"), "c")
	single := filepath.Join(t.TempDir(), "single.bin")
	writeFile(t, single, "d")

	const url = "https://arxiv.org/pdf/2308.04079.pdf"
	got, err := collectFiles([]string{dir, single, url})
	if err != nil {
		t.Fatalf("collectFiles() error = %v", err)
	}
	sort.Strings(got)
	want := []string{filepath.Join(dir, "a.txt"), filepath.Join(dir, "nested", "b.PDF"), single, url}
	sort.Strings(want)
	if len(got) != len(want) {
		t.Fatalf("collectFiles() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("collectFiles() = %v, want %v", got, want)
		}
	}

	if _, err := collectFiles([]string{t.TempDir()}); err == nil {
		t.Fatalf("expected error for empty directory")
	}
	if _, err := collectFiles([]string{filepath.Join(dir, "missing.txt")}); err == nil {
		t.Fatalf("expected error for missing path")
	}
}

func TestIngestDryRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "splat.txt")
	writeFile(t, path, paperText)

	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs([]string{"ingest", "--dry-run", "--no-extract", path})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v, log: %s", err, errOut.String())
	}

	var graphs []map[string]any
	if err := json.Unmarshal(out.Bytes(), &graphs); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out.String())
	}
	if len(graphs) != 1 {
		t.Fatalf("graphs = %d, want 1", len(graphs))
	}
	nodes := graphs[0]["nodes"].([]any)
	if len(nodes) != 2 {
		t.Fatalf("nodes = %v, want paper and one section", nodes)
	}
}

func TestMigrateRequiresDatabase(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"migrate"})
	if err := cmd.Execute(); err == nil {
		t.Fatalf("expected error without DATABASE_URL")
	}
}
