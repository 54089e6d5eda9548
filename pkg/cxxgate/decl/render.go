package decl

import "strings"

// Caption rendering turns a type into an identifier-safe chunk usable as a
// wrapper-name suffix. The rendering must stay injective over the supported
// type set within a single overload group: two distinct argument types must
// never produce the same caption, or disambiguation silently breaks.

var captionReplacer = strings.NewReplacer(
	"::", "_",
	"<", "_of_",
	">", "",
	", ", "_",
	",", "_",
	" ", "_",
)

func sanitizeIdent(s string) string {
	return captionReplacer.Replace(s)
}

// Caption renders t as an identifier-safe overload suffix. Constness and
// indirection participate: "const QString&" and "QString*" must caption
// differently because C++ overloads on exactly those distinctions.
func (t Type) Caption() string {
	var parts []string
	if t.ConstBase {
		parts = append(parts, "const")
	}
	parts = append(parts, sanitizeIdent(t.baseName()))
	switch t.Indirection {
	case IndirPtr:
		parts = append(parts, "ptr")
	case IndirRef:
		parts = append(parts, "ref")
	case IndirRValueRef:
		parts = append(parts, "rref")
	case IndirPtrPtr:
		parts = append(parts, "ptr_ptr")
	}
	return strings.Join(parts, "_")
}
