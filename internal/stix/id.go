package stix

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrInvalidID = errors.New("invalid identifier")
)

// CheckID verifies that o's identifier has the form <type>--<uuid>,
// where <type> equals the object's type property.
func CheckID(o Object) error {
	id := o.ID()
	prefix, suffix, found := strings.Cut(id, "--")
	if !found {
		return fmt.Errorf("%w %q: missing \"--\" separator", ErrInvalidID, id)
	}
	if t := o.Type(); prefix != t {
		return fmt.Errorf("%w %q: prefix does not match type %q", ErrInvalidID, id, t)
	}
	// uuid.Parse also accepts braced and URN forms, STIX only the canonical one.
	if len(suffix) != 36 {
		return fmt.Errorf("%w %q: %q is not a canonical UUID", ErrInvalidID, id, suffix)
	}
	if _, err := uuid.Parse(suffix); err != nil {
		return fmt.Errorf("%w %q: %v", ErrInvalidID, id, err)
	}
	return nil
}
