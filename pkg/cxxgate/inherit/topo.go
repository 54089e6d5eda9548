package inherit

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cxxgate/cxxgate-go/pkg/cxxgate/decl"
)

// ErrBaseCycle reports a cyclic base-class dependency. Valid C++ cannot
// produce one, but malformed input must be detected, not looped on.
var ErrBaseCycle = errors.New("cyclic base-class dependency")

// eligibleBase reports whether a base specifier participates in member
// inheritance: private bases contribute nothing to the derived class's
// bindable surface, and a base reached through indirection is malformed.
func eligibleBase(b decl.BaseSpecifier) bool {
	return b.Visibility != decl.Private && b.Base.Indirection == decl.IndirNone
}

// topoOrder returns the module's class item IDs ordered so every class comes
// after all its eligible local bases. Bases resolved from dependency
// databases impose no ordering. Ready classes are released in declaration
// order, keeping the result deterministic.
func topoOrder(db *decl.Database) ([]decl.ItemID, error) {
	var ids []decl.ItemID
	db.EachClass(func(id decl.ItemID, _ *decl.ClassDecl) {
		ids = append(ids, id)
	})

	indegree := make(map[decl.ItemID]int, len(ids))
	dependents := make(map[decl.ItemID][]decl.ItemID, len(ids))

	for _, id := range ids {
		c := db.Item(id).Class
		for _, b := range c.Bases {
			if !eligibleBase(b) {
				continue
			}
			baseID, local := db.LocalClassID(b.Base.Name)
			if !local {
				if _, ok := db.ClassByName(b.Base.Name); !ok {
					return nil, fmt.Errorf("%w: class %s has base %q",
						decl.ErrUnknownType, c.Path.String(), b.Base.Name)
				}
				continue
			}
			indegree[id]++
			dependents[baseID] = append(dependents[baseID], id)
		}
	}

	var order []decl.ItemID
	queued := make(map[decl.ItemID]bool, len(ids))
	for len(order) < len(ids) {
		progress := false
		for _, id := range ids {
			if queued[id] || indegree[id] > 0 {
				continue
			}
			queued[id] = true
			order = append(order, id)
			for _, dep := range dependents[id] {
				indegree[dep]--
			}
			progress = true
		}
		if !progress {
			var stuck []string
			for _, id := range ids {
				if !queued[id] {
					stuck = append(stuck, db.Item(id).Class.Path.String())
				}
			}
			return nil, fmt.Errorf("%w: %s", ErrBaseCycle, strings.Join(stuck, ", "))
		}
	}
	return order, nil
}
