package emit

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Stack placement bakes a class's size and alignment into the bound side, so
// both must be measured by the same compiler that builds the wrappers. The
// probe program prints one line per class; ParseProbeOutput reads them back.

// ProbeUnit is the generated measurement program.
type ProbeUnit struct {
	Includes []string
	Classes  []string
}

// Layout is the measured shape of one class.
type Layout struct {
	Size  int
	Align int
}

// WriteTo renders the probe program.
func (u *ProbeUnit) WriteTo(w io.Writer) (int64, error) {
	var b strings.Builder
	b.WriteString("// Generated layout probe. Do not edit.\n\n")
	b.WriteString("#include <cstdio>\n")
	for _, inc := range u.Includes {
		fmt.Fprintf(&b, "#include %s\n", includeSpelling(inc))
	}
	b.WriteString("\nint main() {\n")
	for _, c := range u.Classes {
		fmt.Fprintf(&b, "    std::printf(\"%%s,%%zu,%%zu\\n\", %q, sizeof(%s), alignof(%s));\n", c, c, c)
	}
	b.WriteString("    return 0;\n}\n")

	n, err := io.WriteString(w, b.String())
	return int64(n), err
}

// ParseProbeOutput reads the probe program's stdout. Blank lines are
// skipped; anything else that is not a name,size,alignment triple is an
// error.
func ParseProbeOutput(r io.Reader) (map[string]Layout, error) {
	out := make(map[string]Layout)
	sc := bufio.NewScanner(r)
	for line := 1; sc.Scan(); line++ {
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		name, rest, ok := strings.Cut(text, ",")
		if !ok {
			return nil, fmt.Errorf("emit: probe output line %d: %q", line, text)
		}
		sizeStr, alignStr, ok := strings.Cut(rest, ",")
		if !ok {
			return nil, fmt.Errorf("emit: probe output line %d: %q", line, text)
		}
		size, err := strconv.Atoi(strings.TrimSpace(sizeStr))
		if err != nil {
			return nil, fmt.Errorf("emit: probe output line %d: bad size: %w", line, err)
		}
		align, err := strconv.Atoi(strings.TrimSpace(alignStr))
		if err != nil {
			return nil, fmt.Errorf("emit: probe output line %d: bad alignment: %w", line, err)
		}
		out[strings.TrimSpace(name)] = Layout{Size: size, Align: align}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("emit: reading probe output: %w", err)
	}
	return out, nil
}
