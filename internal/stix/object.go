package stix

import "encoding/json"

const (
	TypeBundle            = "bundle"
	TypeCollection        = "x-mitre-collection"
	TypeIdentity          = "identity"
	TypeMarkingDefinition = "marking-definition"
	TypeSighting          = "sighting"
)

// Property names the merge reads or writes. All other properties
// are carried through untouched.
const (
	PropID                = "id"
	PropType              = "type"
	PropCreated           = "created"
	PropModified          = "modified"
	PropName              = "name"
	PropDescription       = "description"
	PropSpecVersion       = "spec_version"
	PropAttackSpecVersion = "x_mitre_attack_spec_version"
	PropVersion           = "x_mitre_version"
	PropDomains           = "x_mitre_domains"
	PropContents          = "x_mitre_contents"
)

// TimestampLayout is the layout of STIX timestamps written by this package.
// Timestamps read from input bundles are passed through verbatim.
const TimestampLayout = "2006-01-02T15:04:05Z"

// Object is a single STIX object as a free-form JSON mapping.
type Object map[string]any

// ID returns the object's identifier, or "" if it has none
// or the identifier is not a string.
func (o Object) ID() string {
	id, _ := o[PropID].(string)
	return id
}

func (o Object) Type() string {
	t, _ := o[PropType].(string)
	return t
}

func (o Object) Has(key string) bool {
	_, ok := o[key]
	return ok
}

// String returns the string value of key, or "" if key is absent or not a string.
func (o Object) String(key string) string {
	s, _ := o[key].(string)
	return s
}

// LastModified returns the "modified" property, falling back to "created"
// and finally to def if neither is set.
func (o Object) LastModified(def string) any {
	for _, key := range []string{PropModified, PropCreated} {
		if v := o[key]; isSet(v) {
			return v
		}
	}
	return def
}

// isSet reports whether v counts as a present value. Nulls, empty strings,
// false, zero numbers and empty collections do not.
func isSet(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case string:
		return x != ""
	case bool:
		return x
	case json.Number:
		f, err := x.Float64()
		return err != nil || f != 0
	case float64:
		return x != 0
	case []any:
		return len(x) > 0
	case map[string]any:
		return len(x) > 0
	}
	return true
}

// ContentRef is one entry of a collection's x_mitre_contents list.
type ContentRef struct {
	ObjectRef      string `json:"object_ref"`
	ObjectModified any    `json:"object_modified"`
}
