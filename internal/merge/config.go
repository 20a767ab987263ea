package merge

import "github.com/dnswlt/stixmerge/internal/stix"

const (
	DefaultCollectionID          = "x-mitre-collection--qntk-enterprise-17"
	DefaultCollectionName        = "Enterprise ATT&CK (QNTK HPH Extended)"
	DefaultCollectionDescription = "Enterprise ATT&CK v17 extended with QuinnTech's HPH/DICOM custom objects (QNTK). " +
		"Intended for ATT&CK Navigator via customDataURL."
	// DefaultVersion distinguishes the merged dataset from the vanilla Enterprise release.
	DefaultVersion           = "17-qntk"
	DefaultAttackSpecVersion = "3.3.0"
	DefaultSpecVersion       = "2.1"
	DefaultBundleID          = "bundle--qntk-merged"
	DefaultDomain            = "enterprise-attack"
)

// CollectionConfig controls the metadata written to the collection object.
type CollectionConfig struct {
	// ID of a synthesized collection. Existing collections keep their ID.
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	// Version is written to x_mitre_version unconditionally.
	Version string `yaml:"version"`
	// AttackSpecVersion is used only if the collection has no x_mitre_attack_spec_version.
	AttackSpecVersion string `yaml:"attackSpecVersion"`
	// SpecVersion is the STIX spec_version of a synthesized collection.
	SpecVersion string `yaml:"specVersion"`
	// Domains are used only if the collection has no x_mitre_domains.
	Domains []string `yaml:"domains"`
}

// Config is the merge configuration. The zero value is not useful;
// start from DefaultConfig.
type Config struct {
	Collection CollectionConfig `yaml:"collection"`
	// BundleID is the output bundle ID if the baseline bundle has none.
	BundleID string `yaml:"bundleID"`
	// ExcludedTypes lists object types that are not indexed in x_mitre_contents.
	ExcludedTypes []string `yaml:"excludedTypes"`
}

func DefaultConfig() Config {
	return Config{
		Collection: CollectionConfig{
			ID:                DefaultCollectionID,
			Name:              DefaultCollectionName,
			Description:       DefaultCollectionDescription,
			Version:           DefaultVersion,
			AttackSpecVersion: DefaultAttackSpecVersion,
			SpecVersion:       DefaultSpecVersion,
			Domains:           []string{DefaultDomain},
		},
		BundleID: DefaultBundleID,
		ExcludedTypes: []string{
			stix.TypeIdentity,
			stix.TypeMarkingDefinition,
			stix.TypeSighting,
		},
	}
}
