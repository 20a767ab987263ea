package gitclient

import (
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

var (
	ErrFileNotFound = errors.New("file not found in revision")
)

// Client reads files from the object database of a local git repository.
// It never touches the worktree and never talks to a remote.
type Client struct {
	repo *git.Repository
}

// Open opens the repository containing dir. dir may be any directory
// inside the worktree; the enclosing .git directory is detected.
func Open(dir string) (*Client, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{
		DetectDotGit: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open git repository at %s: %w", dir, err)
	}
	return &Client{repo: repo}, nil
}

// ListReferences returns the short names of all branches and tags.
// Remote-tracking branches are listed without their remote prefix.
func (c *Client) ListReferences() ([]string, error) {
	refMap := make(map[string]bool)

	refs, err := c.repo.References()
	if err != nil {
		return nil, err
	}

	err = refs.ForEach(func(ref *plumbing.Reference) error {
		name := ref.Name()
		if name.IsTag() || name.IsBranch() {
			refMap[name.Short()] = true
		} else if name.IsRemote() {
			// refs/remotes/origin/main -> main
			short := name.Short()
			if slashIdx := strings.Index(short, "/"); slashIdx != -1 {
				refMap[short[slashIdx+1:]] = true
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var references []string
	for v := range refMap {
		references = append(references, v)
	}
	return references, nil
}

// ResolveRevision resolves a branch, tag or commit hash to a commit hash.
func (c *Client) ResolveRevision(revision string) (plumbing.Hash, error) {
	hash, err := c.repo.ResolveRevision(plumbing.Revision(revision))
	if err == nil {
		return *hash, nil
	}

	// Branches that only exist as remote-tracking branches in a fresh clone.
	if !strings.HasPrefix(revision, "refs/") {
		if hash, err := c.repo.ResolveRevision(plumbing.Revision("origin/" + revision)); err == nil {
			return *hash, nil
		}
	}

	return plumbing.ZeroHash, fmt.Errorf("revision %q not found: %w", revision, err)
}

// ReadFile returns the contents of filePath at the given revision.
// filePath is relative to the repository root and uses "/" as separator.
func (c *Client) ReadFile(revision, filePath string) ([]byte, error) {
	file, err := c.file(revision, filePath)
	if err != nil {
		return nil, err
	}

	reader, err := file.Reader()
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	return io.ReadAll(reader)
}

// HasFile reports whether filePath exists as a file at the given revision.
func (c *Client) HasFile(revision, filePath string) (bool, error) {
	_, err := c.file(revision, filePath)
	if errors.Is(err, ErrFileNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (c *Client) file(revision, filePath string) (*object.File, error) {
	hash, err := c.ResolveRevision(revision)
	if err != nil {
		return nil, err
	}

	commit, err := c.repo.CommitObject(hash)
	if err != nil {
		return nil, fmt.Errorf("commit lookup failed: %w", err)
	}

	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("failed to get root tree: %w", err)
	}

	file, err := tree.File(path.Clean(filePath))
	if errors.Is(err, object.ErrFileNotFound) || errors.Is(err, object.ErrEntryNotFound) {
		return nil, fmt.Errorf("%s@%s: %w", filePath, revision, ErrFileNotFound)
	}
	if err != nil {
		return nil, err
	}
	return file, nil
}
