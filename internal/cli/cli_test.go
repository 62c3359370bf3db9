package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// runCLI executes the root command against a database in dir and returns
// its standard output.
func runCLI(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()

	addDescription = ""
	addSubtasks = nil
	importPolicy = ""
	historyLimit = 10
	resetYes = false

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{
		"--config", filepath.Join(dir, "config.yaml"),
		"--db", filepath.Join(dir, "taskman.db"),
	}, args...))

	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func mustRun(t *testing.T, dir string, args ...string) string {
	t.Helper()
	out, err := runCLI(t, dir, args...)
	if err != nil {
		t.Fatalf("taskman %s: %v\n%s", strings.Join(args, " "), err, out)
	}
	return out
}

// idOf extracts the short id from "Created <id> <name>".
func idOf(t *testing.T, out string) string {
	t.Helper()
	fields := strings.Fields(out)
	if len(fields) < 2 || fields[0] != "Created" {
		t.Fatalf("unexpected add output %q", out)
	}
	return fields[1]
}

func TestListEmpty(t *testing.T) {
	out := mustRun(t, t.TempDir(), "list")
	if !strings.Contains(out, "No tasks yet") {
		t.Errorf("list output = %q", out)
	}
}

func TestTaskLifecycle(t *testing.T) {
	dir := t.TempDir()

	id := idOf(t, mustRun(t, dir, "add", "write docs"))

	if out := mustRun(t, dir, "finish", id); !strings.Contains(out, "only started tasks") {
		t.Errorf("finish before start output = %q", out)
	}
	if out := mustRun(t, dir, "start", id); !strings.HasPrefix(out, "Started write docs") {
		t.Errorf("start output = %q", out)
	}
	if out := mustRun(t, dir, "start", id); !strings.Contains(out, "already started") {
		t.Errorf("second start output = %q", out)
	}
	if out := mustRun(t, dir, "finish", id); !strings.HasPrefix(out, "Finished write docs") {
		t.Errorf("finish output = %q", out)
	}

	out := mustRun(t, dir, "list")
	if !strings.Contains(out, id) || !strings.Contains(out, "finished") {
		t.Errorf("list output = %q", out)
	}
}

func TestAddWithSubtaskAndRemove(t *testing.T) {
	dir := t.TempDir()

	child := idOf(t, mustRun(t, dir, "add", "child"))
	parent := idOf(t, mustRun(t, dir, "add", "parent", "--sub", child))

	out := mustRun(t, dir, "list")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("list has %d lines, want header + 2:\n%s", len(lines), out)
	}
	// Newest first.
	if !strings.HasPrefix(lines[1], parent) || !strings.HasSuffix(strings.TrimSpace(lines[1]), "1") {
		t.Errorf("parent line = %q", lines[1])
	}

	mustRun(t, dir, "rm", child)
	out = mustRun(t, dir, "list")
	if strings.Contains(out, child) {
		t.Errorf("removed task still listed:\n%s", out)
	}
	if !strings.HasSuffix(strings.TrimSpace(out), "0") {
		t.Errorf("parent still counts the removed subtask:\n%s", out)
	}
}

func TestRename(t *testing.T) {
	dir := t.TempDir()
	id := idOf(t, mustRun(t, dir, "add", "old"))

	if out := mustRun(t, dir, "rename", id, "new"); !strings.Contains(out, "to new") {
		t.Errorf("rename output = %q", out)
	}
	if out := mustRun(t, dir, "list"); !strings.Contains(out, "new") || strings.Contains(out, "old") {
		t.Errorf("list after rename = %q", out)
	}
}

func TestUnknownTask(t *testing.T) {
	if _, err := runCLI(t, t.TempDir(), "start", "ffffffff"); err == nil {
		t.Error("start of unknown task should fail")
	}
}

func TestExportImport(t *testing.T) {
	src, dst := t.TempDir(), t.TempDir()
	file := filepath.Join(t.TempDir(), "tasks.json")

	mustRun(t, src, "add", "one")
	mustRun(t, src, "add", "two")
	if out := mustRun(t, src, "export", file); !strings.Contains(out, "Exported 2 tasks") {
		t.Errorf("export output = %q", out)
	}

	out := mustRun(t, dst, "import", file)
	if !strings.Contains(out, "2 added, 0 replaced, 0 skipped") {
		t.Errorf("first import output = %q", out)
	}
	out = mustRun(t, dst, "import", file)
	if !strings.Contains(out, "0 added, 0 replaced, 2 skipped") {
		t.Errorf("skip import output = %q", out)
	}
	out = mustRun(t, dst, "import", "--policy", "overwrite", file)
	if !strings.Contains(out, "0 added, 2 replaced, 0 skipped") {
		t.Errorf("overwrite import output = %q", out)
	}
}

func TestImportLegacyFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "old.json")
	legacy := `[[1,"from v1","",null,null],{"id":2,"creationtime":"2020-05-01T10:00:00Z","name":"from v2","description":"","started":null,"finished":null}]`
	if err := os.WriteFile(file, []byte(legacy), 0o644); err != nil {
		t.Fatal(err)
	}

	if out := mustRun(t, dir, "import", file); !strings.Contains(out, "2 added") {
		t.Errorf("import output = %q", out)
	}
	out := mustRun(t, dir, "list")
	if !strings.Contains(out, "from v1") || !strings.Contains(out, "from v2") {
		t.Errorf("list output = %q", out)
	}
}

func TestImportRejectsBadPolicy(t *testing.T) {
	if _, err := runCLI(t, t.TempDir(), "import", "--policy", "merge", "x.json"); err == nil {
		t.Error("import with unknown policy should fail")
	}
}

func TestHistoryAndRestore(t *testing.T) {
	dir := t.TempDir()
	mustRun(t, dir, "add", "first")
	mustRun(t, dir, "add", "second")

	out := mustRun(t, dir, "history")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) < 2 {
		t.Fatalf("history output = %q", out)
	}
	rev := strings.Fields(lines[1])[0]

	if out := mustRun(t, dir, "restore", rev); !strings.Contains(out, "(1 tasks)") {
		t.Errorf("restore output = %q", out)
	}
	if out := mustRun(t, dir, "list"); strings.Contains(out, "second") {
		t.Errorf("list after restore = %q", out)
	}
}

func TestResetNeedsConfirmation(t *testing.T) {
	dir := t.TempDir()
	mustRun(t, dir, "add", "first")
	mustRun(t, dir, "add", "second")

	if _, err := runCLI(t, dir, "reset"); err == nil {
		t.Fatal("reset without --yes succeeded")
	}
	if out := mustRun(t, dir, "list"); !strings.Contains(out, "second") {
		t.Fatalf("unconfirmed reset removed tasks: %q", out)
	}

	if out := mustRun(t, dir, "reset", "--yes"); !strings.Contains(out, "Deleted 2 tasks") {
		t.Errorf("reset output = %q", out)
	}
	if out := mustRun(t, dir, "list"); !strings.Contains(out, "No tasks yet") {
		t.Errorf("list after reset = %q", out)
	}
	if out := mustRun(t, dir, "history"); !strings.Contains(out, "No earlier versions saved.") {
		t.Errorf("history after reset = %q", out)
	}
}

func TestConfigFileIsRead(t *testing.T) {
	dir := t.TempDir()
	cfg := "pomodoro:\n  work_minutes: 90\n"
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := runCLI(t, dir, "list"); err == nil {
		t.Error("out of range work_minutes should be rejected")
	}
}
