package workflow

import (
	"fmt"
	"os/exec"
	"strings"

	"prism/internal/errors"
)

// IsGitRepository checks whether path sits inside a git work tree.
func IsGitRepository(path string) bool {
	cmd := exec.Command("git", "rev-parse", "--git-dir")
	cmd.Dir = path
	return cmd.Run() == nil
}

// RepoRoot finds the repository root from the given directory.
func RepoRoot(startPath string) (string, error) {
	cmd := exec.Command("git", "rev-parse", "--show-toplevel")
	cmd.Dir = startPath
	output, err := cmd.Output()
	if err != nil {
		return "", errors.NewPrismError(errors.GitError, "not a git repository", err)
	}
	return strings.TrimSpace(string(output)), nil
}

// ResolveRef resolves a ref expression (branch, tag, sha, HEAD~2) to a
// full commit sha.
func ResolveRef(repoRoot, ref string) (string, error) {
	cmd := exec.Command("git", "rev-parse", "--verify", ref+"^{commit}")
	cmd.Dir = repoRoot
	output, err := cmd.Output()
	if err != nil {
		return "", errors.NewPrismError(errors.GitError,
			fmt.Sprintf("cannot resolve ref %q", ref), err)
	}
	return strings.TrimSpace(string(output)), nil
}

func worktreeAdd(repoRoot, dir, sha string) error {
	cmd := exec.Command("git", "worktree", "add", "--detach", dir, sha)
	cmd.Dir = repoRoot
	if output, err := cmd.CombinedOutput(); err != nil {
		return errors.NewPrismError(errors.GitError,
			fmt.Sprintf("failed to create worktree for %s: %s", sha, strings.TrimSpace(string(output))), err)
	}
	return nil
}

func worktreeRemove(repoRoot, dir string) error {
	cmd := exec.Command("git", "worktree", "remove", "--force", dir)
	cmd.Dir = repoRoot
	if output, err := cmd.CombinedOutput(); err != nil {
		return errors.NewPrismError(errors.GitError,
			fmt.Sprintf("failed to remove worktree %s: %s", dir, strings.TrimSpace(string(output))), err)
	}
	return nil
}
