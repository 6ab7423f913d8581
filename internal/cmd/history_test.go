package cmd

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/harrison/capstudy/internal/history"
)

func TestHistoryCommands_NoDatabase(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CAPSTUDY_HOME", dir)
	dbPath := filepath.Join(dir, "none.db")

	output, err := executeCommand(t, "history", "list", "--history-db", dbPath)
	if err != nil {
		t.Fatalf("history list returned error: %v", err)
	}
	if !strings.Contains(output, "No studies saved yet.") {
		t.Errorf("unexpected output: %s", output)
	}

	output, err = executeCommand(t, "history", "element", "LEN-1", "--history-db", dbPath)
	if err != nil {
		t.Fatalf("history element returned error: %v", err)
	}
	if !strings.Contains(output, "No saved results for LEN-1") {
		t.Errorf("unexpected output: %s", output)
	}

	for _, sub := range []string{"show", "delete"} {
		_, err := executeCommand(t, "history", sub, "abc123", "--history-db", dbPath)
		if !errors.Is(err, history.ErrStudyNotFound) {
			t.Errorf("history %s error = %v, want ErrStudyNotFound", sub, err)
		}
	}
}

func TestHistoryCommands_DefaultDatabase(t *testing.T) {
	t.Setenv("CAPSTUDY_HOME", t.TempDir())

	output, err := executeCommand(t, "history", "list")
	if err != nil {
		t.Fatalf("history list returned error: %v", err)
	}
	if !strings.Contains(output, "No studies saved yet.") {
		t.Errorf("unexpected output: %s", output)
	}
}

func TestShortID(t *testing.T) {
	if got := shortID("0123456789abcdef"); got != "01234567" {
		t.Errorf("shortID() = %q", got)
	}
	if got := shortID("abc"); got != "abc" {
		t.Errorf("shortID() = %q", got)
	}
}

func TestOptIndex(t *testing.T) {
	if got := optIndex(nil); got != "-" {
		t.Errorf("optIndex(nil) = %q, want -", got)
	}
	v := 1.333
	if got := optIndex(&v); got != "1.33" {
		t.Errorf("optIndex(1.333) = %q, want 1.33", got)
	}
}
