package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/HendryAvila/codeagent/internal/journal"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out, "codeagent v") {
		t.Errorf("output = %q", out)
	}
}

func TestServeCommand_InvalidConfig(t *testing.T) {
	for _, key := range []string{"GEMINI_API_KEY", "GEMINI_API_KEYS", "CODEBASE_VIEWER_PATH"} {
		t.Setenv(key, "")
	}

	_, err := execute(t, "serve")
	if err == nil {
		t.Fatal("serve without keys or viewer should fail")
	}
	if !strings.Contains(err.Error(), "GEMINI_API_KEY") || !strings.Contains(err.Error(), "CODEBASE_VIEWER_PATH") {
		t.Errorf("error should name the missing settings, got %v", err)
	}
}

func TestHistoryCommand(t *testing.T) {
	dir := t.TempDir()
	store, err := journal.New(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, inv := range []journal.Invocation{
		{Tool: "plan_feature", Directory: "/srv/one", Status: journal.StatusSuccess, DurationMS: 1500},
		{Tool: "explain_code", Directory: "/srv/two", Status: journal.StatusError, Error: "boom"},
	} {
		if _, err := store.Record(inv); err != nil {
			t.Fatal(err)
		}
	}
	store.Close()

	out, err := execute(t, "history", "--data-dir", dir)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if !strings.Contains(out, "/srv/one") || !strings.Contains(out, "/srv/two") {
		t.Errorf("output should list both runs:\n%s", out)
	}

	out, err = execute(t, "history", "--data-dir", dir, "--tool", "explain_code")
	if err != nil {
		t.Fatalf("history --tool: %v", err)
	}
	if strings.Contains(out, "/srv/one") {
		t.Errorf("tool filter leaked plan_feature:\n%s", out)
	}
}

func TestHistoryCommand_Empty(t *testing.T) {
	out, err := execute(t, "history", "--data-dir", t.TempDir())
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if !strings.Contains(out, "No invocations recorded yet") {
		t.Errorf("output = %q", out)
	}
}
