package main

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const serviceText = `TATA IBADAH MINGGU ADVENT I
Minggu, 13 November 2024
TOPIK: Kasih Allah
1. VOTUM - INTROITUS
P: Pertolongan kita adalah dalam nama Tuhan
2. TINGTING
3. KHOTBAH
Damai sejahtera bagi kamu
`

const bulletinText = `WARTA JEMAAT
I. PERSEMBAHAN
Terima kasih atas persembahan
`

// cleanEnv clears every setting the CLI reads so tests see defaults.
func cleanEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"PORT", "DIALECTS_FILE", "BACKGROUND_DIR", "SOFFICE_PATH", "HISTORY_DB", "WEBHOOK_URL"} {
		t.Setenv(key, "")
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := rootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestDialectsCommand(t *testing.T) {
	cleanEnv(t)
	out, _, err := run(t, "dialects")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 5 {
		t.Fatalf("expected 5 dialects, got %d: %q", len(lines), out)
	}
	if !strings.HasPrefix(lines[0], "indo\t") {
		t.Errorf("expected indo first, got %q", lines[0])
	}
}

func TestInspectCommand(t *testing.T) {
	cleanEnv(t)
	path := writeFile(t, t.TempDir(), "tata.txt", serviceText)

	out, _, err := run(t, "inspect", path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var got struct {
		Dialect struct {
			ID string `json:"id"`
		} `json:"dialect"`
		Cover struct {
			Topic string `json:"topic"`
		} `json:"cover"`
		Sections []struct {
			Title string `json:"title"`
		} `json:"sections"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("invalid JSON output: %v\n%s", err, out)
	}
	if got.Dialect.ID != "indo" {
		t.Errorf("expected dialect %q, got %q", "indo", got.Dialect.ID)
	}
	if got.Cover.Topic != "KASIH ALLAH" {
		t.Errorf("expected topic %q, got %q", "KASIH ALLAH", got.Cover.Topic)
	}
	if len(got.Sections) != 3 {
		t.Errorf("expected 3 sections, got %d", len(got.Sections))
	}
}

func TestRenderCommand(t *testing.T) {
	cleanEnv(t)
	dir := t.TempDir()
	service := writeFile(t, dir, "tata.txt", serviceText)
	bull := writeFile(t, dir, "warta.txt", bulletinText)
	output := filepath.Join(dir, "out.pptx")

	out, _, err := run(t, "render", service, "--bulletin", bull, "--mode", "broadcast", "-o", output)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "out.pptx") || !strings.Contains(out, "broadcast") {
		t.Errorf("unexpected summary %q", out)
	}

	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatal(err)
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("output is not a zip archive: %v", err)
	}
	var found bool
	for _, f := range zr.File {
		if f.Name == "ppt/presentation.xml" {
			found = true
		}
	}
	if !found {
		t.Error("expected ppt/presentation.xml in output")
	}
}

func TestRenderCommand_Errors(t *testing.T) {
	cleanEnv(t)
	dir := t.TempDir()
	service := writeFile(t, dir, "tata.txt", serviceText)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"bad mode", []string{"render", service, "--mode", "cinema"}, "mode"},
		{"missing file", []string{"render", filepath.Join(dir, "nope.txt")}, "read service order"},
		{"unknown dialect", []string{"render", service, "--dialect", "latin", "-o", filepath.Join(dir, "x.pptx")}, "dialect"},
		{"no args", []string{"render"}, "arg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := run(t, tt.args...)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %q", tt.want, err.Error())
			}
		})
	}
}
