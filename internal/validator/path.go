package validator

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
)

// ErrInvalidPath is returned by ParsePath for malformed field paths.
var ErrInvalidPath = errors.New("invalid field path")

// Path locates a field or an array-entry sub-field, e.g. techs.1.title.
// Index segments are stored in decimal form.
type Path []string

// Field returns a root path for a top-level field.
func Field(name string) Path {
	return Path{name}
}

// Key returns a copy of p extended with a named segment.
func (p Path) Key(name string) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, name)
}

// Index returns a copy of p extended with an array index segment.
func (p Path) Index(i int) Path {
	return p.Key(strconv.Itoa(i))
}

// Root returns the top-level field name, or "" for an empty path.
func (p Path) Root() string {
	if len(p) == 0 {
		return ""
	}
	return p[0]
}

// EntryIndex returns the first array index in the path, if any.
func (p Path) EntryIndex() (int, bool) {
	for _, seg := range p {
		if i, err := strconv.Atoi(seg); err == nil && i >= 0 {
			return i, true
		}
	}
	return 0, false
}

// Leaf returns the last segment.
func (p Path) Leaf() string {
	if len(p) == 0 {
		return ""
	}
	return p[len(p)-1]
}

func (p Path) String() string {
	return strings.Join(p, ".")
}

// MarshalJSON renders the path in its dotted form.
func (p Path) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

// ParsePath parses a dotted path such as "email" or "techs.0.knowledge".
func ParsePath(s string) (Path, error) {
	if strings.TrimSpace(s) == "" {
		return nil, ErrInvalidPath
	}
	segs := strings.Split(s, ".")
	for _, seg := range segs {
		if seg == "" {
			return nil, ErrInvalidPath
		}
	}
	return Path(segs), nil
}
