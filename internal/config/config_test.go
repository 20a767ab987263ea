package config

import (
	"testing"

	"github.com/dnswlt/stixmerge/internal/merge"
	"github.com/dnswlt/stixmerge/internal/store"
	"github.com/dnswlt/stixmerge/internal/testutil"
	"github.com/google/go-cmp/cmp"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	st := store.NewDiskStore(dir)

	t.Run("full profile", func(t *testing.T) {
		testutil.WriteFile(t, dir, "profile.yml", `
collection:
  id: x-mitre-collection--ics-ext
  name: ICS ATT&CK (Extended)
  description: ICS with extensions
  version: 17-ext
  attackSpecVersion: 3.2.0
  specVersion: "2.1"
  domains: [ics-attack]
bundleID: bundle--ics-merged
excludedTypes:
  - identity
report:
  title: ICS merge
  maxListed: 10
`)
		got, err := Load(st, "profile.yml")
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		want := Default()
		want.Merge.Collection = merge.CollectionConfig{
			ID:                "x-mitre-collection--ics-ext",
			Name:              "ICS ATT&CK (Extended)",
			Description:       "ICS with extensions",
			Version:           "17-ext",
			AttackSpecVersion: "3.2.0",
			SpecVersion:       "2.1",
			Domains:           []string{"ics-attack"},
		}
		want.Merge.BundleID = "bundle--ics-merged"
		want.Merge.ExcludedTypes = []string{"identity"}
		want.Report.Title = "ICS merge"
		want.Report.MaxListed = 10
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("Load() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("partial profile keeps defaults", func(t *testing.T) {
		testutil.WriteFile(t, dir, "partial.yml", "collection:\n  version: 17-custom\n")
		got, err := Load(st, "partial.yml")
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		want := Default()
		want.Merge.Collection.Version = "17-custom"
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("Load() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("empty profile", func(t *testing.T) {
		testutil.WriteFile(t, dir, "empty.yml", "")
		got, err := Load(st, "empty.yml")
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if diff := cmp.Diff(Default(), got); diff != "" {
			t.Errorf("Load() mismatch (-want +got):\n%s", diff)
		}
	})

	invalid := map[string]string{
		"unknown field":       "collection:\n  nmae: typo\n",
		"empty version":       "collection:\n  version: \"\"\n",
		"bad spec version":    "collection:\n  attackSpecVersion: three\n",
		"bad collection id":   "collection:\n  id: bundle--1\n",
		"no domains":          "collection:\n  domains: []\n",
		"negative max listed": "report:\n  maxListed: -1\n",
		"not yaml":            "collection: [",
	}
	for name, content := range invalid {
		t.Run(name, func(t *testing.T) {
			testutil.WriteFile(t, dir, "invalid.yml", content)
			if _, err := Load(st, "invalid.yml"); err == nil {
				t.Errorf("Load() succeeded, want error")
			}
		})
	}

	t.Run("missing file", func(t *testing.T) {
		if _, err := Load(st, "missing.yml"); err == nil {
			t.Errorf("Load() succeeded, want error")
		}
	})
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("Default().Validate() = %v", err)
	}
}
