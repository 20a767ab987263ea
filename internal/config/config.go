package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dnswlt/stixmerge/internal/merge"
	"github.com/dnswlt/stixmerge/internal/report"
	"github.com/dnswlt/stixmerge/internal/store"
	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"
)

// Bundle is the umbrella struct for the serialized profile YAML.
// It bundles the package-specific configurations. Merge settings
// live at the top level, report settings under "report".
type Bundle struct {
	Merge  merge.Config  `yaml:",inline"`
	Report report.Config `yaml:"report"`
}

// Default returns the configuration used when no profile is given.
func Default() *Bundle {
	return &Bundle{
		Merge:  merge.DefaultConfig(),
		Report: report.DefaultConfig(),
	}
}

// Load reads the profile at configPath. Fields not set in the profile
// keep their default values.
func Load(st store.Store, configPath string) (*Bundle, error) {
	bs, err := st.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("could not read profile %q: %v", configPath, err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(bs))
	dec.KnownFields(true)
	bundle := Default()
	// An empty profile is valid and yields the defaults.
	if err := dec.Decode(bundle); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("invalid profile YAML in %q: %v", configPath, err)
	}
	if err := bundle.Validate(); err != nil {
		return nil, fmt.Errorf("invalid profile %q: %v", configPath, err)
	}
	return bundle, nil
}

// Validate checks the fields the merge relies on.
func (b *Bundle) Validate() error {
	c := b.Merge.Collection
	if strings.TrimSpace(c.Version) == "" {
		return errors.New("collection.version must not be empty")
	}
	if c.ID == "" {
		return errors.New("collection.id must not be empty")
	}
	if t, _, _ := strings.Cut(c.ID, "--"); t != "x-mitre-collection" {
		return fmt.Errorf("collection.id %q must start with \"x-mitre-collection--\"", c.ID)
	}
	if !semver.IsValid(canonicalVersion(c.AttackSpecVersion)) {
		return fmt.Errorf("collection.attackSpecVersion %q is not a semantic version", c.AttackSpecVersion)
	}
	if len(c.Domains) == 0 {
		return errors.New("collection.domains must not be empty")
	}
	if b.Merge.BundleID == "" {
		return errors.New("bundleID must not be empty")
	}
	if b.Report.MaxListed < 0 {
		return fmt.Errorf("report.maxListed must not be negative, got %d", b.Report.MaxListed)
	}
	return nil
}

// canonicalVersion adds the "v" prefix that semver expects.
func canonicalVersion(v string) string {
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v
}
