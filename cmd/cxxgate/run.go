package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/cxxgate/cxxgate-go/internal/emit"
	"github.com/cxxgate/cxxgate-go/pkg/cxxgate"
	"github.com/cxxgate/cxxgate-go/pkg/cxxgate/decl"
	"github.com/cxxgate/cxxgate-go/pkg/cxxgate/diag"
	"github.com/cxxgate/cxxgate-go/pkg/cxxgate/ffi"
)

type runOptions struct {
	module        string
	outDir        string
	cacheDir      string
	includes      []string
	deps          []string
	overrides     []string
	flagsTemplate string
	force         bool
}

func newRunCmd() *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run [declaration stream]",
		Short: "Process a declaration stream and emit binding artifacts",
		Long: `Run reads a JSON declaration stream (from the given file, or stdin when
the argument is "-" or absent), resolves the module, and writes the wrapper
translation unit, the bound Go source, the layout probe program and the
module database.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.module, "module", "m", "", "Module name (required)")
	cmd.Flags().StringVarP(&opts.outDir, "out", "o", ".", "Output directory for generated artifacts")
	cmd.Flags().StringVar(&opts.cacheDir, "cache", "", "Cache directory for the run marker and module database")
	cmd.Flags().StringSliceVarP(&opts.includes, "include", "I", nil, "Header to #include in the generated unit (repeatable)")
	cmd.Flags().StringSliceVar(&opts.deps, "dep", nil, "Processed dependency database (.cxgdb) to attach (repeatable)")
	cmd.Flags().StringSliceVar(&opts.overrides, "alloc", nil, "Allocation override, e.g. ns::Type=stack (repeatable)")
	cmd.Flags().StringVar(&opts.flagsTemplate, "flags-template", "", "Class template used to spell bit-flags types")
	cmd.Flags().BoolVar(&opts.force, "force", false, "Re-run even if a completed-run marker exists")
	_ = cmd.MarkFlagRequired("module")

	return cmd
}

func parseOverrides(specs []string) (map[string]ffi.AllocationPlace, error) {
	if len(specs) == 0 {
		return nil, nil
	}
	out := make(map[string]ffi.AllocationPlace, len(specs))
	for _, spec := range specs {
		class, place, ok := strings.Cut(spec, "=")
		if !ok {
			return nil, fmt.Errorf("malformed allocation override %q, want Class=stack|heap", spec)
		}
		switch place {
		case "stack":
			out[class] = cxxgate.PlaceStack
		case "heap":
			out[class] = cxxgate.PlaceHeap
		default:
			return nil, fmt.Errorf("unknown allocation place %q in override for %s", place, class)
		}
	}
	return out, nil
}

func openStream(args []string) (io.ReadCloser, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(args[0])
}

func runGenerate(cmd *cobra.Command, args []string, opts runOptions) error {
	ctx := cmd.Context()

	overrides, err := parseOverrides(opts.overrides)
	if err != nil {
		return err
	}

	cfg := cxxgate.Config{
		Module:         opts.module,
		Includes:       opts.includes,
		FlagsTemplate:  opts.flagsTemplate,
		CacheDir:       opts.cacheDir,
		AllocOverrides: overrides,
	}.FromEnv()

	if cfg.CacheDir != "" && !opts.force {
		if m, ok, err := cxxgate.ReadMarker(cfg.CacheDir); err != nil {
			return err
		} else if ok && m.Module == cfg.Module {
			fmt.Fprintf(cmd.OutOrStdout(), "module %s already processed (run %s), use --force to re-run\n", m.Module, m.RunID)
			return nil
		}
	}

	in, err := openStream(args)
	if err != nil {
		return err
	}
	defer in.Close()

	db := cxxgate.NewDatabase(cfg.Module)
	if err := cxxgate.ReadStream(in, db); err != nil {
		return err
	}

	p := cxxgate.NewPipeline(db, cfg, diag.New(slog.Default()))
	for _, path := range opts.deps {
		mod, err := cxxgate.OpenModule(path)
		if err != nil {
			return fmt.Errorf("attaching dependency %s: %w", path, err)
		}
		p.AttachDependency(mod)
	}

	res, err := p.Run(ctx)
	if err != nil {
		return err
	}

	if err := writeArtifacts(opts.outDir, cfg, db, res); err != nil {
		return err
	}

	if cfg.CacheDir != "" {
		mod := p.Snapshot(res)
		if err := cxxgate.SaveModule(mod, filepath.Join(cfg.CacheDir, cfg.Module+".cxgdb")); err != nil {
			return err
		}
	}

	printSummary(cmd.OutOrStdout(), res)

	if cfg.CacheDir != "" {
		return cxxgate.WriteMarker(cfg.CacheDir, cxxgate.Marker{
			RunID:     res.RunID,
			Module:    cfg.Module,
			Functions: len(res.Functions),
		})
	}
	return nil
}

func writeArtifacts(outDir string, cfg cxxgate.Config, db *cxxgate.Database, res *cxxgate.Result) error {
	if outDir == "" {
		outDir = "."
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}

	wrapper := &emit.WrapperUnit{
		Module:        cfg.Module,
		Includes:      cfg.Includes,
		FlagsTemplate: cfg.FlagsTemplate,
		Functions:     res.Functions,
	}
	if err := writeFile(filepath.Join(outDir, cfg.Module+"_bindings.cpp"), wrapper); err != nil {
		return err
	}

	gosrc := &emit.GoUnit{
		Package:   goPackageName(cfg.Module),
		Module:    cfg.Module,
		Classes:   emit.ClassesForGo(classBases(db)),
		Functions: res.Functions,
	}
	if err := writeFile(filepath.Join(outDir, cfg.Module+"_bindings.go"), gosrc); err != nil {
		return err
	}

	var stackClasses []string
	for _, class := range res.Places.Keys() {
		if place, _ := res.Places.Get(class); place == cxxgate.PlaceStack {
			stackClasses = append(stackClasses, class)
		}
	}
	if len(stackClasses) == 0 {
		return nil
	}
	probe := &emit.ProbeUnit{Includes: cfg.Includes, Classes: stackClasses}
	return writeFile(filepath.Join(outDir, cfg.Module+"_probe.cpp"), probe)
}

// classBases maps every concrete class to its first-listed public base, the
// one exposed as a typed upcast on the generated wrapper type.
func classBases(db *cxxgate.Database) map[string]string {
	out := make(map[string]string)
	db.EachClass(func(_ decl.ItemID, c *decl.ClassDecl) {
		if len(c.TemplateParams) > 0 {
			return
		}
		base := ""
		for i := range c.Bases {
			b := &c.Bases[i]
			if b.Visibility == decl.Public && b.Index == 0 {
				base = b.Base.Name
			}
		}
		out[c.Path.String()] = base
	})
	return out
}

// goPackageName squeezes a module name into a legal Go package identifier.
func goPackageName(module string) string {
	mapped := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return -1
		}
	}, module)
	if mapped == "" || mapped[0] >= '0' && mapped[0] <= '9' {
		mapped = "m" + mapped
	}
	return mapped
}

func writeFile(path string, src io.WriterTo) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := src.WriteTo(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func printSummary(w io.Writer, res *cxxgate.Result) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"CLASS", "ALLOCATION"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	for _, class := range res.Places.Keys() {
		place, _ := res.Places.Get(class)
		table.Append([]string{class, place.String()})
	}
	table.Render()

	fmt.Fprintln(w)
	stats := tablewriter.NewWriter(w)
	stats.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	stats.SetAlignment(tablewriter.ALIGN_LEFT)
	stats.SetHeaderLine(false)
	stats.SetBorder(false)
	stats.SetNoWhiteSpace(true)
	stats.SetTablePadding("    ")
	stats.AppendBulk([][]string{
		{"functions", strconv.Itoa(len(res.Functions))},
		{"template instantiations", strconv.Itoa(len(res.Instantiations))},
		{"dropped items", strconv.Itoa(res.Summary.DroppedItems)},
		{"heuristic warnings", strconv.Itoa(res.Summary.HeuristicWarnings)},
	})
	stats.Render()
}
