package utils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestUpdateEnvValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	initial := "DB_HOST=localhost\nQB_ACCESS_TOKEN=stale\n# comment line\n"
	if err := os.WriteFile(path, []byte(initial), 0o600); err != nil {
		t.Fatalf("seed env file: %v", err)
	}

	err := UpdateEnvValues(path, map[string]string{
		"QB_ACCESS_TOKEN":  "fresh",
		"QB_REFRESH_TOKEN": "added",
	})
	if err != nil {
		t.Fatalf("UpdateEnvValues: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	got := string(content)

	if !strings.Contains(got, "QB_ACCESS_TOKEN=fresh") {
		t.Errorf("existing key was not rewritten:\n%s", got)
	}
	if strings.Contains(got, "stale") {
		t.Errorf("old value survived:\n%s", got)
	}
	if !strings.Contains(got, "QB_REFRESH_TOKEN=added") {
		t.Errorf("missing key was not appended:\n%s", got)
	}
	if !strings.Contains(got, "DB_HOST=localhost") || !strings.Contains(got, "# comment line") {
		t.Errorf("unrelated lines were disturbed:\n%s", got)
	}
	if !strings.HasSuffix(got, "\n") {
		t.Errorf("file does not end with a newline")
	}
}

func TestUpdateEnvValuesMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.env")
	if err := UpdateEnvValues(path, map[string]string{"K": "v"}); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}
