package source

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// writeTree lays out <root>/<project>/<file>.jsonl fixtures.
func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func TestScanProjects_GroupsByParentDir(t *testing.T) {
	root := writeTree(t, map[string]string{
		"alpha/a.jsonl": "{}\n",
		"alpha/b.jsonl": "{}\n",
		"beta/c.jsonl":  "{}\n",
		"beta/note.txt": "ignored",
	})

	projects, err := ScanProjects(root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(projects) != 2 {
		t.Fatalf("projects = %d, want 2", len(projects))
	}

	// Sorted by name.
	if projects[0].Name != "alpha" || projects[1].Name != "beta" {
		t.Errorf("names = %q, %q", projects[0].Name, projects[1].Name)
	}
	if len(projects[0].Files) != 2 {
		t.Errorf("alpha files = %d, want 2", len(projects[0].Files))
	}
	if len(projects[1].Files) != 1 {
		t.Errorf("beta files = %d, want 1", len(projects[1].Files))
	}
}

func TestScanProjects_MissingRoot(t *testing.T) {
	projects, err := ScanProjects(filepath.Join(t.TempDir(), "does-not-exist"))
	if err != nil {
		t.Fatalf("missing root must not be an error, got: %v", err)
	}
	if len(projects) != 0 {
		t.Errorf("projects = %d, want 0", len(projects))
	}
}

func TestScanProjects_LastModifiedIsMaxMtime(t *testing.T) {
	root := writeTree(t, map[string]string{
		"alpha/old.jsonl": "{}\n",
		"alpha/new.jsonl": "{}\n",
	})

	older := time.Now().Add(-2 * time.Hour)
	newer := time.Now().Add(-1 * time.Minute)
	if err := os.Chtimes(filepath.Join(root, "alpha", "old.jsonl"), older, older); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(filepath.Join(root, "alpha", "new.jsonl"), newer, newer); err != nil {
		t.Fatal(err)
	}

	projects, err := ScanProjects(root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(projects) != 1 {
		t.Fatalf("projects = %d, want 1", len(projects))
	}

	got := projects[0].LastModified
	if !got.Equal(newer.Truncate(time.Second)) && !got.Equal(newer) {
		// Filesystems vary in mtime precision; require at least that the
		// newer file won.
		if got.Before(older.Add(time.Hour)) {
			t.Errorf("LastModified = %v, want mtime of newer file (~%v)", got, newer)
		}
	}
}

func TestMaxModTime(t *testing.T) {
	root := writeTree(t, map[string]string{
		"alpha/a.jsonl": "{}\n",
		"beta/b.jsonl":  "{}\n",
	})

	projects, err := ScanProjects(root)
	if err != nil {
		t.Fatal(err)
	}

	max := MaxModTime(projects)
	for _, p := range projects {
		if p.LastModified.After(max) {
			t.Errorf("MaxModTime %v is before project %s at %v", max, p.Name, p.LastModified)
		}
	}

	if !MaxModTime(nil).IsZero() {
		t.Error("MaxModTime(nil) should be zero")
	}
}

func TestValidatePath(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "f.jsonl")
	if err := os.WriteFile(file, []byte("{}"), 0o600); err != nil {
		t.Fatal(err)
	}

	if !ValidatePath(dir) {
		t.Error("existing readable directory should validate")
	}
	if ValidatePath(file) {
		t.Error("a file is not a valid scan root")
	}
	if ValidatePath(filepath.Join(dir, "missing")) {
		t.Error("missing path should not validate")
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home dir in test environment")
	}

	if got := ExpandHome("~/logs"); got != filepath.Join(home, "logs") {
		t.Errorf("ExpandHome(~/logs) = %q", got)
	}
	if got := ExpandHome("~"); got != home {
		t.Errorf("ExpandHome(~) = %q", got)
	}
	if got := ExpandHome("/abs/path"); got != "/abs/path" {
		t.Errorf("ExpandHome(/abs/path) = %q", got)
	}
	if got := ExpandHome("~user/x"); got != "~user/x" {
		t.Errorf("ExpandHome(~user/x) = %q, want untouched", got)
	}
}
