package stix

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

const (
	// JSONIndent is the indentation used when writing bundles.
	JSONIndent = "  "
)

var (
	ErrMalformed = errors.New("malformed bundle")
)

// Bundle is a STIX bundle: an identifier and a list of objects.
type Bundle struct {
	Type    string   `json:"type"`
	ID      string   `json:"id,omitempty"`
	Objects []Object `json:"objects"`
}

// ReadBundle decodes a single JSON bundle from r.
// Numbers are kept as json.Number so that they are written back unchanged.
// A missing "objects" list yields a bundle without objects, but a null
// document or a null entry in "objects" is rejected.
func ReadBundle(r io.Reader) (*Bundle, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var b *Bundle
	if err := dec.Decode(&b); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if b == nil {
		return nil, fmt.Errorf("%w: top-level value is null", ErrMalformed)
	}
	for i, o := range b.Objects {
		if o == nil {
			return nil, fmt.Errorf("%w: objects[%d] is null", ErrMalformed, i)
		}
	}
	// Trailing data after the bundle is as bad as a truncated document.
	var extra json.RawMessage
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: unexpected data after top-level value", ErrMalformed)
	}
	return b, nil
}

// WriteBundle writes b to w as indented JSON.
func WriteBundle(w io.Writer, b *Bundle) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", JSONIndent)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(b); err != nil {
		return fmt.Errorf("failed to encode bundle %s: %w", b.ID, err)
	}
	return nil
}
