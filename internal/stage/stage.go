// Package stage names the independently suppressible phases of an index
// build and tracks which of them a caller asked to skip.
package stage

import (
	"fmt"
	"sort"
	"strings"
)

// Stage is a named build phase.
type Stage int

const (
	// Compile covers building the toolchain itself.
	Compile Stage = iota
	// BuildIndex covers the whole index build of a collection.
	BuildIndex
	// ParseCollection produces the forward index from raw documents.
	ParseCollection
	// ParseBatches is the batch-producing half of parsing. Suppressing it
	// together with ParseCollection merges batches already on disk.
	ParseBatches
	// Invert produces the inverted index from the forward index.
	Invert
)

var names = [...]string{
	Compile:         "compile",
	BuildIndex:      "build",
	ParseCollection: "parse",
	ParseBatches:    "parse_batches",
	Invert:          "invert",
}

// All returns every stage in declaration order.
func All() []Stage {
	return []Stage{Compile, BuildIndex, ParseCollection, ParseBatches, Invert}
}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(names) {
		return fmt.Sprintf("stage(%d)", int(s))
	}
	return names[s]
}

// Parse resolves a stage from its name, ignoring case.
func Parse(name string) (Stage, error) {
	lower := strings.ToLower(strings.TrimSpace(name))
	for i, n := range names {
		if n == lower {
			return Stage(i), nil
		}
	}
	return 0, fmt.Errorf("invalid stage: %s", name)
}

// MarshalText implements encoding.TextMarshaler.
func (s Stage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Stage) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Controller holds the set of suppressed stages. The zero value suppresses
// nothing and a nil *Controller behaves the same way.
type Controller struct {
	suppressed map[Stage]struct{}
}

// NewController returns a controller suppressing the given stages.
func NewController(stages ...Stage) *Controller {
	c := &Controller{}
	for _, s := range stages {
		c.Suppress(s)
	}
	return c
}

// Suppress adds s to the suppressed set. Repeated calls are no-ops.
func (c *Controller) Suppress(s Stage) {
	if c.suppressed == nil {
		c.suppressed = make(map[Stage]struct{})
	}
	c.suppressed[s] = struct{}{}
}

// IsSuppressed reports whether s was suppressed.
func (c *Controller) IsSuppressed(s Stage) bool {
	if c == nil {
		return false
	}
	_, ok := c.suppressed[s]
	return ok
}

// Suppressed returns the suppressed stages in declaration order.
func (c *Controller) Suppressed() []Stage {
	if c == nil {
		return nil
	}
	out := make([]Stage, 0, len(c.suppressed))
	for s := range c.suppressed {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Equal reports whether both controllers suppress the same stages.
func (c *Controller) Equal(other *Controller) bool {
	a, b := c.Suppressed(), other.Suppressed()
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
