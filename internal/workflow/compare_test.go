package workflow

import (
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"prism/internal/config"
	"prism/internal/diff"
	"prism/internal/logging"
	"prism/internal/store"
)

func testLogger() *logging.Logger {
	return logging.NewLogger(logging.Config{Level: logging.ErrorLevel, Format: logging.JSONFormat, Output: io.Discard})
}

func git(t *testing.T, dir string, args ...string) string {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(),
		"GIT_AUTHOR_NAME=test", "GIT_AUTHOR_EMAIL=test@example.com",
		"GIT_COMMITTER_NAME=test", "GIT_COMMITTER_EMAIL=test@example.com",
	)
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("git %v failed: %v\n%s", args, err, output)
	}
	return string(output)
}

// scratchRepo builds a repo with two commits: the second grows auth.py and
// adds billing.py.
func scratchRepo(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}

	root := t.TempDir()
	git(t, root, "init", "-q")

	write := func(rel, content string) {
		full := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	write("src/services/auth.py", "def login(): pass\n")
	git(t, root, "add", ".")
	git(t, root, "commit", "-q", "-m", "initial")
	git(t, root, "tag", "v1")

	write("src/services/auth.py", "def login(): pass\ndef logout(): pass\ndef refresh(): pass\n")
	write("src/services/billing.py", "def charge(): pass\n")
	git(t, root, "add", ".")
	git(t, root, "commit", "-q", "-m", "grow services")
	git(t, root, "tag", "v2")

	return root
}

func testConfig(root string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.RepoRoot = root
	cfg.Cache.Enabled = false
	return cfg
}

func TestResolveRef(t *testing.T) {
	root := scratchRepo(t)

	sha, err := ResolveRef(root, "v1")
	if err != nil {
		t.Fatal(err)
	}
	if len(sha) != 40 {
		t.Errorf("resolved sha %q, want full 40-char sha", sha)
	}

	head, err := ResolveRef(root, "HEAD")
	if err != nil {
		t.Fatal(err)
	}
	if head == sha {
		t.Error("HEAD and v1 resolve to the same commit")
	}

	if _, err := ResolveRef(root, "no-such-ref"); err == nil {
		t.Fatal("expected error for unknown ref")
	}
}

func TestIsGitRepository(t *testing.T) {
	root := scratchRepo(t)
	if !IsGitRepository(root) {
		t.Error("scratch repo not recognized")
	}
	if IsGitRepository(t.TempDir()) {
		t.Error("plain temp dir recognized as git repo")
	}
}

func TestCompareRefs(t *testing.T) {
	root := scratchRepo(t)
	c := NewComparer(testConfig(root), nil, testLogger())

	report, err := c.CompareRefs("v1", "v2")
	if err != nil {
		t.Fatal(err)
	}

	if report.Meta.Source != diff.SourceCommits {
		t.Errorf("meta source = %q, want commits", report.Meta.Source)
	}
	if report.Meta.RefA != "v1" || report.Meta.RefB != "v2" {
		t.Errorf("meta refs = %q..%q", report.Meta.RefA, report.Meta.RefB)
	}

	var addedBilling, modifiedAuth bool
	for _, n := range report.AddedNodes {
		if n.ID == "file:src/services/billing.py" {
			addedBilling = true
		}
	}
	for _, m := range report.ModifiedNodes {
		if m.ID == "file:src/services/auth.py" {
			modifiedAuth = true
			if _, ok := m.Changes["lines_of_code"]; !ok {
				t.Error("auth.py growth not reflected in lines_of_code change")
			}
		}
	}
	if !addedBilling {
		t.Error("billing.py not reported as added")
	}
	if !modifiedAuth {
		t.Error("auth.py not reported as modified")
	}
}

func TestCompareRefsSameRefEmpty(t *testing.T) {
	root := scratchRepo(t)
	c := NewComparer(testConfig(root), nil, testLogger())

	report, err := c.CompareRefs("v2", "v2")
	if err != nil {
		t.Fatal(err)
	}
	if !report.IsEmpty() {
		t.Errorf("same-ref diff not empty: %+v", report.Summary)
	}
}

func TestCompareRefsUsesCache(t *testing.T) {
	root := scratchRepo(t)
	cfg := testConfig(root)

	cache, err := store.Open(filepath.Join(t.TempDir(), "snapshots.db"), testLogger())
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = cache.Close() }()

	c := NewComparer(cfg, cache, testLogger())
	if _, err := c.CompareRefs("v1", "v2"); err != nil {
		t.Fatal(err)
	}
	if n, _ := cache.Count(); n != 2 {
		t.Errorf("cache holds %d snapshots after compare, want 2", n)
	}

	// Second run must hit the cache and still produce the same summary.
	first, err := c.CompareRefs("v1", "v2")
	if err != nil {
		t.Fatal(err)
	}
	if first.Summary.AddedNodes == 0 {
		t.Error("cached rerun lost the added node")
	}
}

func TestCompareRefsLeavesNoWorktrees(t *testing.T) {
	root := scratchRepo(t)
	c := NewComparer(testConfig(root), nil, testLogger())

	if _, err := c.CompareRefs("v1", "v2"); err != nil {
		t.Fatal(err)
	}

	out := strings.TrimSpace(git(t, root, "worktree", "list"))
	if n := len(strings.Split(out, "\n")); n != 1 {
		t.Errorf("worktrees remaining after compare:\n%s", out)
	}
}
