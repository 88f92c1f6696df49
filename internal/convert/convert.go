// Package convert coerces legacy Word uploads into .docx with a headless
// LibreOffice process.
package convert

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

var (
	// ErrUnavailable means no LibreOffice binary could be found.
	ErrUnavailable = errors.New("document converter unavailable")
	// ErrFailed means the converter ran but produced no usable output.
	ErrFailed = errors.New("document conversion failed")
)

// Converter runs soffice. The zero value looks up "libreoffice" or
// "soffice" on PATH and allows one minute per conversion.
type Converter struct {
	Path    string
	Timeout time.Duration
}

// IsDOC reports whether filename is a legacy .doc file.
func IsDOC(filename string) bool {
	return strings.EqualFold(filepath.Ext(filename), ".doc")
}

// EnsureDOCX returns data unchanged for anything but a .doc upload. A .doc
// upload is converted and returned with a .docx filename.
func (c *Converter) EnsureDOCX(ctx context.Context, data []byte, filename string) ([]byte, string, error) {
	if !IsDOC(filename) {
		return data, filename, nil
	}
	out, err := c.ToDOCX(ctx, data, filename)
	if err != nil {
		return nil, filename, err
	}
	return out, strings.TrimSuffix(filename, filepath.Ext(filename)) + ".docx", nil
}

// ToDOCX converts a document to .docx in a scratch directory.
func (c *Converter) ToDOCX(ctx context.Context, data []byte, filename string) ([]byte, error) {
	bin, err := c.binary()
	if err != nil {
		return nil, err
	}

	dir, err := os.MkdirTemp("", "slidenauli-convert-*")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	name := filepath.Base(filename)
	in := filepath.Join(dir, name)
	if err := os.WriteFile(in, data, 0o600); err != nil {
		return nil, fmt.Errorf("write input: %w", err)
	}

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = time.Minute
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, bin, "--headless", "--convert-to", "docx", "--outdir", dir, in)
	// A private profile keeps concurrent runs from fighting over the user lock.
	cmd.Env = append(os.Environ(), "HOME="+dir)
	var stderr, stdout bytes.Buffer
	cmd.Stdout, cmd.Stderr = &stdout, &stderr
	cmd.WaitDelay = 2 * time.Second

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: timed out after %s", ErrFailed, timeout)
		}
		return nil, fmt.Errorf("%w: %v: %s", ErrFailed, err, strings.TrimSpace(stderr.String()))
	}

	outPath := filepath.Join(dir, strings.TrimSuffix(name, filepath.Ext(name))+".docx")
	out, err := os.ReadFile(outPath)
	if err != nil {
		return nil, fmt.Errorf("%w: no output (%s)", ErrFailed, strings.TrimSpace(stdout.String()))
	}
	return out, nil
}

func (c *Converter) binary() (string, error) {
	if c.Path != "" {
		if _, err := exec.LookPath(c.Path); err != nil {
			return "", fmt.Errorf("%w: %s", ErrUnavailable, c.Path)
		}
		return c.Path, nil
	}
	for _, name := range []string{"libreoffice", "soffice"} {
		if p, err := exec.LookPath(name); err == nil {
			return p, nil
		}
	}
	return "", ErrUnavailable
}
