package merge

import (
	"fmt"
	"slices"
	"time"

	"github.com/dnswlt/stixmerge/internal/stix"
	"github.com/emirpasic/gods/maps/linkedhashmap"
)

// Result describes the outcome of a merge.
type Result struct {
	Bundle *stix.Bundle

	// Collection is the collection object of Bundle.
	Collection stix.Object
	// Synthesized is true if neither input contained a collection.
	Synthesized bool

	BaselineCount   int // Number of objects in the baseline bundle, with or without ID.
	ExtensionMerged int // Number of extension objects with an ID.
	SkippedNoID     int // Objects of either input dropped for lacking an ID.

	Replaced []string // Baseline IDs whose objects were replaced by the extension.
	Added    []string // IDs only present in the extension.

	// DroppedCollections holds IDs of collection objects other than the one kept.
	DroppedCollections []string
	// InvalidIDs holds identifier problems found when ID checking is enabled.
	InvalidIDs []error

	// Timestamp is the run time as written to the collection.
	Timestamp string
}

func (r *Result) ObjectCount() int {
	return len(r.Bundle.Objects)
}

func (r *Result) CollectionName() string {
	return r.Collection.String(stix.PropName)
}

func (r *Result) CollectionVersion() string {
	return r.Collection.String(stix.PropVersion)
}

// Contents returns the rebuilt content index of the collection.
func (r *Result) Contents() []stix.ContentRef {
	contents, _ := r.Collection[stix.PropContents].([]stix.ContentRef)
	return contents
}

// Merger unions a baseline and an extension bundle and rebuilds
// the collection object summarizing the result.
type Merger struct {
	config   Config
	excluded map[string]bool
	checkIDs bool
	now      func() time.Time
}

type Option func(*Merger)

// WithClock sets the time source used for timestamps. Defaults to time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Merger) {
		m.now = now
	}
}

// WithIDCheck enables validation of merged object identifiers.
// Problems are reported in Result.InvalidIDs and never fail the merge.
func WithIDCheck(enabled bool) Option {
	return func(m *Merger) {
		m.checkIDs = enabled
	}
}

func NewMerger(config Config, opts ...Option) *Merger {
	m := &Merger{
		config:   config,
		excluded: make(map[string]bool),
		now:      time.Now,
	}
	for _, t := range config.ExcludedTypes {
		m.excluded[t] = true
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Merge unions the objects of baseline and extension by ID. Extension objects
// replace baseline objects with the same ID but keep their position.
// The first collection object found is updated in place, or a new one is appended.
// Objects of both bundles are shared with the result, not copied.
func (m *Merger) Merge(baseline, extension *stix.Bundle) *Result {
	now := m.now().UTC().Format(stix.TimestampLayout)
	res := &Result{
		BaselineCount: len(baseline.Objects),
		Timestamp:     now,
	}

	objects, coll, dropped := m.resolveCollection(m.union(baseline, extension, res))
	res.DroppedCollections = dropped
	synthesized := coll == nil
	if synthesized {
		coll = m.newCollection(now)
		objects = append(objects, coll)
	}
	m.updateCollection(coll, now)
	coll[stix.PropContents] = m.contents(objects, now)

	if m.checkIDs {
		for _, o := range objects {
			if err := stix.CheckID(o); err != nil {
				res.InvalidIDs = append(res.InvalidIDs, err)
			}
		}
	}

	bundleID := baseline.ID
	if bundleID == "" {
		bundleID = m.config.BundleID
	}
	res.Bundle = &stix.Bundle{
		Type:    stix.TypeBundle,
		ID:      bundleID,
		Objects: objects,
	}
	res.Collection = coll
	res.Synthesized = synthesized
	return res
}

func (m *Merger) union(baseline, extension *stix.Bundle, res *Result) []stix.Object {
	// Insertion-ordered: a Put on an existing key keeps the key's position.
	byID := linkedhashmap.New()
	baselineIDs := make(map[string]bool)
	for _, o := range baseline.Objects {
		id := o.ID()
		if id == "" {
			res.SkippedNoID++
			continue
		}
		byID.Put(id, o)
		baselineIDs[id] = true
	}

	seen := make(map[string]bool)
	for _, o := range extension.Objects {
		id := o.ID()
		if id == "" {
			res.SkippedNoID++
			continue
		}
		byID.Put(id, o)
		res.ExtensionMerged++
		if seen[id] {
			continue
		}
		seen[id] = true
		if baselineIDs[id] {
			res.Replaced = append(res.Replaced, id)
		} else {
			res.Added = append(res.Added, id)
		}
	}

	values := byID.Values()
	objects := make([]stix.Object, len(values))
	for i, v := range values {
		objects[i] = v.(stix.Object)
	}
	return objects
}

// resolveCollection returns the first collection object in objects, or nil.
// Any further collection objects are removed from objects and their IDs returned,
// so that the output never holds more than one collection.
func (m *Merger) resolveCollection(objects []stix.Object) ([]stix.Object, stix.Object, []string) {
	var coll stix.Object
	var dropped []string
	kept := objects[:0]
	for _, o := range objects {
		if o.Type() == stix.TypeCollection {
			if coll != nil {
				dropped = append(dropped, o.ID())
				continue
			}
			coll = o
		}
		kept = append(kept, o)
	}
	return kept, coll, dropped
}

func (m *Merger) newCollection(now string) stix.Object {
	return stix.Object{
		stix.PropType:        stix.TypeCollection,
		stix.PropSpecVersion: m.config.Collection.SpecVersion,
		stix.PropID:          m.config.Collection.ID,
		stix.PropCreated:     now,
		stix.PropModified:    now,
		stix.PropDomains:     slices.Clone(m.config.Collection.Domains),
		stix.PropContents:    []stix.ContentRef{},
	}
}

func (m *Merger) updateCollection(coll stix.Object, now string) {
	cfg := m.config.Collection
	coll[stix.PropName] = cfg.Name
	coll[stix.PropDescription] = cfg.Description
	if !coll.Has(stix.PropAttackSpecVersion) {
		coll[stix.PropAttackSpecVersion] = cfg.AttackSpecVersion
	}
	coll[stix.PropVersion] = cfg.Version
	coll[stix.PropModified] = now
	if !coll.Has(stix.PropDomains) {
		coll[stix.PropDomains] = slices.Clone(cfg.Domains)
	}
}

// contents builds the content index over all objects in order,
// skipping excluded types.
func (m *Merger) contents(objects []stix.Object, now string) []stix.ContentRef {
	contents := make([]stix.ContentRef, 0, len(objects))
	for _, o := range objects {
		if m.excluded[o.Type()] {
			continue
		}
		id := o.ID()
		if id == "" {
			continue
		}
		contents = append(contents, stix.ContentRef{
			ObjectRef:      id,
			ObjectModified: o.LastModified(now),
		})
	}
	return contents
}

func (r *Result) String() string {
	return fmt.Sprintf("merge result: %d baseline objects, %d extension objects merged (%d replaced, %d added), %d total",
		r.BaselineCount, r.ExtensionMerged, len(r.Replaced), len(r.Added), r.ObjectCount())
}
