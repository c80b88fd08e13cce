package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// Converter turns PDF bytes into plain text.
type Converter interface {
	Convert(ctx context.Context, input []byte) ([]byte, error)
}

// PdfToText converts with the poppler pdftotext binary.
type PdfToText struct {
	// Binary defaults to "pdftotext" looked up in PATH.
	Binary string
	// Timeout defaults to 30 seconds.
	Timeout time.Duration
}

var reNewlines = regexp.MustCompile(`\n{3,}`)

func (p PdfToText) Convert(ctx context.Context, input []byte) ([]byte, error) {
	binary := p.Binary
	if binary == "" {
		binary = "pdftotext"
	}
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	if _, err := exec.LookPath(binary); err != nil {
		return nil, fmt.Errorf("%s not found in PATH: %w", binary, err)
	}

	tmpDir, err := os.MkdirTemp("", "pdfextract-")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	pdfPath := filepath.Join(tmpDir, "input.pdf")
	if err := os.WriteFile(pdfPath, input, 0o600); err != nil {
		return nil, fmt.Errorf("failed to write temp PDF: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(
		ctx,
		binary,
		"-enc", "UTF-8",
		"-eol", "unix",
		"-nopgbrk",
		"-q",
		pdfPath,
		"-",
	)
	cmd.Env = append(os.Environ(), "LANG=C.UTF-8", "LC_ALL=C.UTF-8")

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return nil, fmt.Errorf("%s timed out after %s", binary, timeout)
	}
	if err != nil {
		return nil, fmt.Errorf("%s failed: %w: %s", binary, err, bytes.TrimSpace(stderr.Bytes()))
	}

	return []byte(normalizeText(string(out))), nil
}

// normalizeText collapses runs of blank lines and ends the text with a
// single newline. Form feeds left by some producers become line breaks.
func normalizeText(text string) string {
	text = strings.ReplaceAll(text, "\f", "\n")
	text = strings.TrimSpace(text)
	text = reNewlines.ReplaceAllString(text, "\n\n")
	if text != "" {
		text += "\n"
	}
	return text
}
