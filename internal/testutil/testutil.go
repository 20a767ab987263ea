package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Revision describes one commit of a test repository.
type Revision struct {
	Tag   string            // Tag to create for the commit. No tag if empty.
	Files map[string]string // Files to write before committing, keyed by slash-separated path.
}

// CreateGitRepo initializes a git repo in a temp dir, commits each revision
// on the default branch ("master") and returns the path to the directory.
// Files of earlier revisions stay in place unless overwritten.
func CreateGitRepo(t *testing.T, revisions ...Revision) string {
	t.Helper()

	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("Failed to init git repo: %v", err)
	}
	w, err := repo.Worktree()
	if err != nil {
		t.Fatalf("Failed to get worktree: %v", err)
	}

	for i, rev := range revisions {
		for name, content := range rev.Files {
			WriteFile(t, dir, name, content)
		}
		if _, err := w.Add("."); err != nil {
			t.Fatalf("Failed to add files: %v", err)
		}
		hash, err := w.Commit("Revision "+rev.Tag, &git.CommitOptions{
			Author: &object.Signature{
				Name:  "Test User",
				Email: "test@example.com",
				When:  time.Now(),
			},
		})
		if err != nil {
			t.Fatalf("Failed to commit revision #%d: %v", i, err)
		}
		if rev.Tag == "" {
			continue
		}
		if _, err := repo.CreateTag(rev.Tag, hash, nil); err != nil {
			t.Fatalf("Failed to create tag %s: %v", rev.Tag, err)
		}
	}
	return dir
}

// WriteFile writes content to the slash-separated path name below dir,
// creating parent directories as needed, and returns the full path.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create directory for %s: %v", name, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write file %s: %v", name, err)
	}
	return path
}

// Chdir changes the working directory to dir and restores the previous
// working directory when the test finishes. It stands in for t.Chdir,
// which requires Go 1.24.
func Chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change working directory: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatalf("Failed to restore working directory: %v", err)
		}
	})
}
