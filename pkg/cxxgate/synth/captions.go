package synth

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrCaptionCollision reports an overload group no caption strategy can
// split. This is a configuration error: the colliding methods need manual
// disambiguation.
var ErrCaptionCollision = errors.New("synth: no caption strategy disambiguates overload group")

// captionStrategy derives a name suffix for one candidate. An empty suffix
// means the base name is used untouched.
type captionStrategy func(c *candidate) string

// captionNone only works for singleton groups.
func captionNone(*candidate) string { return "" }

// captionArity distinguishes overloads by positional argument count.
func captionArity(c *candidate) string {
	return strconv.Itoa(len(c.method.Args))
}

// captionArgNames joins the declared argument names. Unnamed parameters fall
// back to their position, which keeps the rendering total.
func captionArgNames(c *candidate) string {
	if len(c.method.Args) == 0 {
		return "0"
	}
	parts := make([]string, len(c.method.Args))
	for i, a := range c.method.Args {
		if a.Name == "" {
			parts[i] = strconv.Itoa(i)
		} else {
			parts[i] = a.Name
		}
	}
	return strings.Join(parts, "_")
}

// captionArgTypes joins the caption renderings of the original argument
// types. Captions name what the C++ caller sees, not the ABI representation.
func captionArgTypes(c *candidate) string {
	if len(c.method.Args) == 0 {
		return "0"
	}
	parts := make([]string, len(c.method.Args))
	for i, a := range c.method.Args {
		parts[i] = a.Type.Caption()
	}
	return strings.Join(parts, "_")
}

// strategies in fixed priority order. The first one producing pairwise
// distinct captions across the group is adopted.
var strategies = []captionStrategy{
	captionNone,
	captionArity,
	captionArgNames,
	captionArgTypes,
}

// disambiguate assigns final names to every candidate in a colliding group.
// Candidates keep their relative order, so the output stays deterministic.
func disambiguate(group []*candidate) error {
	if len(group) == 1 {
		group[0].finalName = group[0].baseName
		return nil
	}
	for si, strat := range strategies {
		if si == 0 {
			// The empty caption can never split a real group.
			continue
		}
		captions := make([]string, len(group))
		distinct := true
		seen := make(map[string]bool, len(group))
		for i, c := range group {
			captions[i] = strat(c)
			if seen[captions[i]] {
				distinct = false
				break
			}
			seen[captions[i]] = true
		}
		if !distinct {
			continue
		}
		for i, c := range group {
			c.finalName = c.baseName + "_" + captions[i]
		}
		return nil
	}

	names := make([]string, len(group))
	for i, c := range group {
		names[i] = c.describe()
	}
	return fmt.Errorf("%w: %s", ErrCaptionCollision, strings.Join(names, "; "))
}

// describe renders a candidate for error messages.
func (c *candidate) describe() string {
	if c.origin != nil {
		return c.origin.Signature()
	}
	return c.baseName
}
