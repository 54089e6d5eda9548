package synth

import (
	"context"

	"github.com/cxxgate/cxxgate-go/pkg/cxxgate/decl"
	"github.com/cxxgate/cxxgate-go/pkg/cxxgate/ffi"
)

// Field access crosses the ABI as synthesized accessor methods: a copy
// getter, reference getters where the field shape allows them, and a setter.
// The pseudo-methods run through the same conversion rules as declared
// methods, so a class-valued field picks up out-parameter or heap handling
// exactly like a method returning that class.

type accessorSpec struct {
	kind   ffi.AccessorKind
	suffix string
}

func (s *Synthesizer) accessorCandidates(ctx context.Context, c *decl.ClassDecl) ([]*candidate, error) {
	path := c.Path.String()
	scope := symbolPrefix + "_" + sanitizeSymbol(path)

	var cands []*candidate
	for _, f := range c.Fields {
		if f.Visibility != decl.Public || f.Static {
			continue
		}

		specs := []accessorSpec{{ffi.AccessorGet, ""}}
		if f.Type.Indirection == decl.IndirNone {
			// Reference getters only make sense for fields the wrapper can
			// hand out a stable address to.
			specs = append(specs,
				accessorSpec{ffi.AccessorGetRef, "_ref"},
				accessorSpec{ffi.AccessorGetMut, "_mut"},
			)
		}
		specs = append(specs, accessorSpec{ffi.AccessorSet, ""})

		for _, spec := range specs {
			m := accessorMethod(c, f, spec.kind)
			if signatureParametric(&m) {
				s.sink.DropItem(ctx, "field", path+"::"+f.Name, ffi.ErrTemplateParam)
				break
			}
			s.insts.ObserveMethod(&m)

			origin := ffi.Origin{
				Item:     decl.NoItem,
				Class:    path,
				Field:    f.Name,
				Accessor: spec.kind,
				Const:    m.Member.Const,
			}
			fn, err := s.buildFunction(path, &m, origin)
			if err != nil {
				s.sink.DropItem(ctx, "field", path+"::"+f.Name, err)
				continue
			}

			base := scope + "_" + sanitizeSymbol(f.Name) + spec.suffix
			if spec.kind == ffi.AccessorSet {
				base = scope + "_set_" + sanitizeSymbol(f.Name)
			}
			cands = append(cands, &candidate{baseName: base, method: m, fn: *fn})
		}
	}
	return cands, nil
}

// accessorMethod builds the pseudo-method a field accessor behaves as.
func accessorMethod(c *decl.ClassDecl, f decl.Field, kind ffi.AccessorKind) decl.Method {
	member := decl.Membership{Class: c.Path, Visibility: decl.Public}
	m := decl.Method{Name: f.Name, Member: &member, Return: decl.Void()}

	switch kind {
	case ffi.AccessorGet:
		member.Const = true
		m.Return = f.Type
	case ffi.AccessorGetRef:
		member.Const = true
		m.Return = f.Type.WithConst().WithIndirection(decl.IndirRef)
	case ffi.AccessorGetMut:
		m.Return = f.Type.WithIndirection(decl.IndirRef)
	case ffi.AccessorSet:
		arg := f.Type
		if arg.IsClassValue() {
			// Setters take class values the way C++ APIs conventionally
			// do: by const reference.
			arg = arg.WithConst().WithIndirection(decl.IndirRef)
		}
		m.Args = []decl.Argument{{Name: "value", Type: arg}}
	}
	return m
}
