package decl

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// The parser front-end delivers declarations as a stream of JSON objects,
// one per declaration, in source order. This file is the only place that
// knows the wire shape; the rest of the engine works on Database items.

// ErrMalformedStream reports input the decoder cannot classify.
var ErrMalformedStream = errors.New("malformed declaration stream")

type rawLoc struct {
	File string `json:"file"`
	Line int    `json:"line"`
}

type rawType struct {
	Kind         string    `json:"kind"`
	Name         string    `json:"name"`
	Signed       bool      `json:"signed,omitempty"`
	Bits         int       `json:"bits,omitempty"`
	TemplateArgs []rawType `json:"template_args,omitempty"`
	Return       *rawType  `json:"return,omitempty"`
	Params       []rawType `json:"params,omitempty"`
	Variadic     bool      `json:"variadic,omitempty"`
	Indirection  string    `json:"indirection,omitempty"`
	Const        bool      `json:"const,omitempty"`
	ConstPtr     bool      `json:"const_ptr,omitempty"`
}

type rawArg struct {
	Name       string  `json:"name"`
	Type       rawType `json:"type"`
	HasDefault bool    `json:"has_default,omitempty"`
}

type rawDecl struct {
	Kind string `json:"kind"`
	Name string `json:"name"`
	Loc  rawLoc `json:"loc"`
	Doc  string `json:"doc,omitempty"`

	// class
	Movable        bool     `json:"movable,omitempty"`
	TemplateParams []string `json:"template_params,omitempty"`

	// base specifier
	Class      string   `json:"class,omitempty"`
	Base       *rawType `json:"base,omitempty"`
	Virtual    bool     `json:"virtual,omitempty"`
	Visibility string   `json:"visibility,omitempty"`

	// using directive
	UsingBase   string `json:"using_base,omitempty"`
	UsingMember string `json:"using_member,omitempty"`

	// enum value
	Enum  string `json:"enum,omitempty"`
	Value int64  `json:"value,omitempty"`

	// method / field
	Type        *rawType  `json:"type,omitempty"`
	Return      *rawType  `json:"return,omitempty"`
	Args        []rawArg  `json:"args,omitempty"`
	MethodKind  string    `json:"method_kind,omitempty"`
	PureVirtual bool      `json:"pure_virtual,omitempty"`
	ConstMethod bool      `json:"const_method,omitempty"`
	Static      bool      `json:"static,omitempty"`
	Signal      bool      `json:"signal,omitempty"`
	Slot        bool      `json:"slot,omitempty"`
	Operator    string    `json:"operator,omitempty"`
	TplArgs     []rawType `json:"tpl_args,omitempty"`
}

func decodeIndirection(s string) Indirection {
	switch s {
	case "", "none":
		return IndirNone
	case "ptr":
		return IndirPtr
	case "ref":
		return IndirRef
	case "rvalue_ref":
		return IndirRValueRef
	case "ptr_ptr":
		return IndirPtrPtr
	}
	// Anything deeper than the closed set is kept, flagged, and rejected
	// later per item instead of failing the whole stream.
	return IndirUnsupported
}

func decodeVisibility(s string) (Visibility, error) {
	switch s {
	case "", "public":
		return Public, nil
	case "protected":
		return Protected, nil
	case "private":
		return Private, nil
	}
	return Public, fmt.Errorf("%w: visibility %q", ErrMalformedStream, s)
}

func decodeType(r rawType) (Type, error) {
	t := Type{
		Name:        r.Name,
		Signed:      r.Signed,
		Bits:        r.Bits,
		Indirection: decodeIndirection(r.Indirection),
		ConstBase:   r.Const,
		ConstPtr:    r.ConstPtr,
	}
	switch r.Kind {
	case "void":
		t.Kind = KindVoid
		t.Name = "void"
	case "builtin":
		t.Kind = KindBuiltin
	case "fixed":
		t.Kind = KindFixed
	case "enum":
		t.Kind = KindEnum
	case "flags":
		t.Kind = KindFlags
	case "class":
		t.Kind = KindClass
		for _, a := range r.TemplateArgs {
			at, err := decodeType(a)
			if err != nil {
				return Type{}, err
			}
			t.TemplateArgs = append(t.TemplateArgs, at)
		}
	case "fn_ptr":
		t.Kind = KindFunctionPtr
		fn := &FnSignature{Variadic: r.Variadic}
		if r.Return != nil {
			rt, err := decodeType(*r.Return)
			if err != nil {
				return Type{}, err
			}
			fn.Return = &rt
		}
		for _, p := range r.Params {
			pt, err := decodeType(p)
			if err != nil {
				return Type{}, err
			}
			fn.Params = append(fn.Params, pt)
		}
		t.Fn = fn
	case "template_param":
		t.Kind = KindTemplateParam
	default:
		return Type{}, fmt.Errorf("%w: type kind %q", ErrMalformedStream, r.Kind)
	}
	return t, nil
}

func decodeArgs(raws []rawArg) ([]Argument, error) {
	var out []Argument
	for _, r := range raws {
		t, err := decodeType(r.Type)
		if err != nil {
			return nil, err
		}
		out = append(out, Argument{Name: r.Name, Type: t, HasDefault: r.HasDefault})
	}
	return out, nil
}

// ReadStream ingests a complete declaration stream into db. Base specifiers,
// fields and using-directives fold into their owning class, which must have
// appeared earlier in the stream; a reference to a class the database has
// never seen is malformed input and fatal.
func ReadStream(r io.Reader, db *Database) error {
	dec := json.NewDecoder(r)
	for {
		var raw rawDecl
		if err := dec.Decode(&raw); err == io.EOF {
			return nil
		} else if err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedStream, err)
		}
		if err := ingest(db, raw); err != nil {
			return err
		}
	}
}

func ingest(db *Database, raw rawDecl) error {
	loc := Location{File: raw.Loc.File, Line: raw.Loc.Line}
	switch raw.Kind {
	case "namespace":
		db.AddNamespace(&NamespaceDecl{Path: ParsePath(raw.Name)}, loc, raw.Doc)

	case "class":
		db.AddClass(&ClassDecl{
			Path:           ParsePath(raw.Name),
			Movable:        raw.Movable,
			TemplateParams: raw.TemplateParams,
		}, loc, raw.Doc)

	case "base":
		c, err := localClass(db, raw.Class)
		if err != nil {
			return err
		}
		if raw.Base == nil {
			return fmt.Errorf("%w: base specifier without base type", ErrMalformedStream)
		}
		bt, err := decodeType(*raw.Base)
		if err != nil {
			return err
		}
		vis, err := decodeVisibility(raw.Visibility)
		if err != nil {
			return err
		}
		c.Bases = append(c.Bases, BaseSpecifier{
			Base:       bt,
			Index:      len(c.Bases),
			Virtual:    raw.Virtual,
			Visibility: vis,
		})

	case "using":
		c, err := localClass(db, raw.Class)
		if err != nil {
			return err
		}
		c.Using = append(c.Using, UsingDirective{Base: raw.UsingBase, Member: raw.UsingMember})

	case "field":
		c, err := localClass(db, raw.Class)
		if err != nil {
			return err
		}
		if raw.Type == nil {
			return fmt.Errorf("%w: field %q without type", ErrMalformedStream, raw.Name)
		}
		ft, err := decodeType(*raw.Type)
		if err != nil {
			return err
		}
		vis, err := decodeVisibility(raw.Visibility)
		if err != nil {
			return err
		}
		c.Fields = append(c.Fields, Field{
			Name:       raw.Name,
			Type:       ft,
			Visibility: vis,
			Static:     raw.Static,
		})

	case "enum":
		db.AddEnum(&EnumDecl{Path: ParsePath(raw.Name)}, loc, raw.Doc)

	case "enum_value":
		v := &EnumValue{Enum: NoItem, Name: raw.Name, Value: raw.Value}
		if raw.Enum != "" {
			id, ok := db.LocalEnumID(raw.Enum)
			if !ok {
				return fmt.Errorf("%w: enum value %q references unknown enum %q", ErrMalformedStream, raw.Name, raw.Enum)
			}
			v.Enum = id
		}
		db.AddEnumValue(v, loc, raw.Doc)

	case "method", "function":
		m := &Method{Name: raw.Name, Operator: Operator(raw.Operator)}
		if raw.Class != "" {
			vis, err := decodeVisibility(raw.Visibility)
			if err != nil {
				return err
			}
			if _, err := localClass(db, raw.Class); err != nil {
				return err
			}
			m.Member = &Membership{
				Class:       ParsePath(raw.Class),
				Virtual:     raw.Virtual,
				PureVirtual: raw.PureVirtual,
				Const:       raw.ConstMethod,
				Static:      raw.Static,
				Visibility:  vis,
				Signal:      raw.Signal,
				Slot:        raw.Slot,
			}
			switch raw.MethodKind {
			case "", "regular":
				m.Member.Kind = Regular
			case "constructor":
				m.Member.Kind = Constructor
			case "destructor":
				m.Member.Kind = Destructor
			default:
				return fmt.Errorf("%w: method kind %q", ErrMalformedStream, raw.MethodKind)
			}
		}
		args, err := decodeArgs(raw.Args)
		if err != nil {
			return err
		}
		m.Args = args
		if raw.Return != nil {
			rt, err := decodeType(*raw.Return)
			if err != nil {
				return err
			}
			m.Return = rt
		} else {
			m.Return = Void()
		}
		for _, ta := range raw.TplArgs {
			t, err := decodeType(ta)
			if err != nil {
				return err
			}
			m.TemplateArgs = append(m.TemplateArgs, t)
		}
		db.AddMethod(m, loc, raw.Doc)

	default:
		return fmt.Errorf("%w: declaration kind %q", ErrMalformedStream, raw.Kind)
	}
	return nil
}

func localClass(db *Database, name string) (*ClassDecl, error) {
	id, ok := db.LocalClassID(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, name)
	}
	return db.Item(id).Class, nil
}
