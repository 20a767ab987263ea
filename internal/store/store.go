package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/dnswlt/stixmerge/internal/gitclient"
)

var (
	ErrReadOnly  = errors.New("store is read-only")
	ErrNotFound  = errors.New("file not found")
	ErrNoSuchRef = errors.New("no such ref")
)

// Store is a minimal abstraction to check, read, and write files.
// It is the common interface for disk-based and git-repo-based stores.
type Store interface {
	// Exists reports whether path exists in the store.
	Exists(path string) (bool, error)
	// ReadFile reads the contents of path from the store.
	// Implementations wrap ErrNotFound if path does not exist.
	ReadFile(path string) ([]byte, error)
	// WriteFile writes the given contents to path in the store,
	// creating parent directories as needed.
	// Stores that do not support writing should return ErrReadOnly.
	WriteFile(path string, contents []byte) error
}

// DiskStore is an implementation of Store that reads files from the local file system.
type DiskStore struct {
	rootDir string // Directory relative paths are resolved against. Empty means the working directory.
}

var _ Store = (*DiskStore)(nil)

func NewDiskStore(rootDir string) *DiskStore {
	return &DiskStore{
		rootDir: rootDir,
	}
}

func (d *DiskStore) resolve(p string) string {
	if d.rootDir == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(d.rootDir, p)
}

func (d *DiskStore) Exists(path string) (bool, error) {
	_, err := os.Stat(d.resolve(path))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (d *DiskStore) ReadFile(path string) ([]byte, error) {
	bs, err := os.ReadFile(d.resolve(path))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
	}
	return bs, err
}

func (d *DiskStore) WriteFile(path string, contents []byte) error {
	fullPath := d.resolve(path)
	if dir := filepath.Dir(fullPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return os.WriteFile(fullPath, contents, 0644)
}

// GitStore is a read-only view over a single revision of a local git repository.
type GitStore struct {
	client *gitclient.Client
	ref    string
}

var _ Store = (*GitStore)(nil)

// NewGitStore returns a store reading files at ref. ref must name
// a branch or tag of the repository, or resolve to a commit.
func NewGitStore(client *gitclient.Client, ref string) (*GitStore, error) {
	if _, err := client.ResolveRevision(ref); err != nil {
		refs, _ := client.ListReferences()
		slices.Sort(refs)
		return nil, fmt.Errorf("invalid ref %q (available: %s): %w", ref, strings.Join(refs, ", "), ErrNoSuchRef)
	}
	return &GitStore{
		client: client,
		ref:    ref,
	}, nil
}

func (g *GitStore) Ref() string {
	return g.ref
}

// gitPath converts an OS path to the slash-separated form used in git trees.
// Avoid using filepath here, as git needs "/" on any OS.
func gitPath(p string) string {
	return path.Clean(filepath.ToSlash(p))
}

func (g *GitStore) Exists(p string) (bool, error) {
	return g.client.HasFile(g.ref, gitPath(p))
}

func (g *GitStore) ReadFile(p string) ([]byte, error) {
	bs, err := g.client.ReadFile(g.ref, gitPath(p))
	if errors.Is(err, gitclient.ErrFileNotFound) {
		return nil, fmt.Errorf("%s@%s: %w", p, g.ref, ErrNotFound)
	}
	return bs, err
}

func (g *GitStore) WriteFile(path string, contents []byte) error {
	return ErrReadOnly
}
