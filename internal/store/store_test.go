package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/dnswlt/stixmerge/internal/gitclient"
	"github.com/dnswlt/stixmerge/internal/testutil"
)

func TestDiskStore(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFile(t, dir, "enterprise.json", `{"objects": []}`)
	st := NewDiskStore(dir)

	t.Run("Exists", func(t *testing.T) {
		for path, want := range map[string]bool{
			"enterprise.json":                      true,
			"missing.json":                         false,
			filepath.Join(dir, "enterprise.json"):  true,
			filepath.Join(dir, "sub", "none.json"): false,
			".":                                    true,
		} {
			got, err := st.Exists(path)
			if err != nil {
				t.Fatalf("Exists(%q) error = %v", path, err)
			}
			if got != want {
				t.Errorf("Exists(%q) = %v, want %v", path, got, want)
			}
		}
	})

	t.Run("ReadFile", func(t *testing.T) {
		bs, err := st.ReadFile("enterprise.json")
		if err != nil {
			t.Fatalf("ReadFile() error = %v", err)
		}
		if string(bs) != `{"objects": []}` {
			t.Errorf("ReadFile() = %q", string(bs))
		}
	})

	t.Run("ReadFile missing", func(t *testing.T) {
		_, err := st.ReadFile("missing.json")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("ReadFile() error = %v, want %v", err, ErrNotFound)
		}
	})

	t.Run("WriteFile creates directories", func(t *testing.T) {
		if err := st.WriteFile(filepath.Join("data", "nested", "out.json"), []byte("{}")); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}
		bs, err := os.ReadFile(filepath.Join(dir, "data", "nested", "out.json"))
		if err != nil {
			t.Fatalf("could not read written file: %v", err)
		}
		if string(bs) != "{}" {
			t.Errorf("written content = %q, want %q", string(bs), "{}")
		}
	})

	t.Run("WriteFile overwrites", func(t *testing.T) {
		if err := st.WriteFile("enterprise.json", []byte("[]")); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}
		bs, _ := st.ReadFile("enterprise.json")
		if string(bs) != "[]" {
			t.Errorf("content after overwrite = %q, want %q", string(bs), "[]")
		}
	})
}

func TestDiskStoreWorkingDir(t *testing.T) {
	dir := t.TempDir()
	testutil.Chdir(t, dir)

	st := NewDiskStore("")
	if err := st.WriteFile("out.json", []byte("{}")); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	ok, err := st.Exists(filepath.Join(dir, "out.json"))
	if err != nil || !ok {
		t.Errorf("Exists() = %v, %v; want true, nil", ok, err)
	}
}

func TestGitStore(t *testing.T) {
	repoPath := testutil.CreateGitRepo(t,
		testutil.Revision{
			Tag:   "v16",
			Files: map[string]string{"enterprise-attack/enterprise-attack.json": "v16"},
		},
		testutil.Revision{
			Tag:   "v17",
			Files: map[string]string{"enterprise-attack/enterprise-attack.json": "v17"},
		},
	)
	client, err := gitclient.Open(repoPath)
	if err != nil {
		t.Fatalf("gitclient.Open() error = %v", err)
	}

	t.Run("unknown ref", func(t *testing.T) {
		_, err := NewGitStore(client, "v99")
		if !errors.Is(err, ErrNoSuchRef) {
			t.Errorf("NewGitStore() error = %v, want %v", err, ErrNoSuchRef)
		}
	})

	st, err := NewGitStore(client, "v16")
	if err != nil {
		t.Fatalf("NewGitStore() error = %v", err)
	}
	path := filepath.Join("enterprise-attack", "enterprise-attack.json")

	t.Run("ReadFile", func(t *testing.T) {
		bs, err := st.ReadFile(path)
		if err != nil {
			t.Fatalf("ReadFile() error = %v", err)
		}
		if string(bs) != "v16" {
			t.Errorf("ReadFile() = %q, want %q", string(bs), "v16")
		}
	})

	t.Run("Exists", func(t *testing.T) {
		if ok, err := st.Exists(path); err != nil || !ok {
			t.Errorf("Exists(%q) = %v, %v; want true, nil", path, ok, err)
		}
		if ok, err := st.Exists("ics-attack.json"); err != nil || ok {
			t.Errorf("Exists(missing) = %v, %v; want false, nil", ok, err)
		}
	})

	t.Run("ReadFile missing", func(t *testing.T) {
		_, err := st.ReadFile("ics-attack.json")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("ReadFile() error = %v, want %v", err, ErrNotFound)
		}
	})

	t.Run("read-only", func(t *testing.T) {
		if err := st.WriteFile("out.json", nil); !errors.Is(err, ErrReadOnly) {
			t.Errorf("WriteFile() error = %v, want %v", err, ErrReadOnly)
		}
	})
}
