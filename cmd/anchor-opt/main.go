package main

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"runtime"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/anchor-lang/anchorc/internal/quadsim"
	"github.com/anchor-lang/anchorc/pkg/cfg"
	"github.com/anchor-lang/anchorc/pkg/listing"
	"github.com/anchor-lang/anchorc/pkg/liveness"
	"github.com/anchor-lang/anchorc/pkg/optimizer"
	"github.com/anchor-lang/anchorc/pkg/quad"
)

var version = "0.1.0"

// Debug flags for dumping intermediate forms
var (
	dBlocks bool
	dQuads  bool
)

// Optimizer options
var (
	outputPath   string
	formatName   string
	jobs         int
	extraGlobals []string
	trace        bool
	strict       bool
	verify       bool
	noOptimize   bool
)

var (
	// ErrUndefinedLabel is returned under --strict when a jump names a
	// label the unit never defines.
	ErrUndefinedLabel = errors.New("jump to undefined label")
	// ErrVerifyMismatch is returned by --verify when the optimized code
	// behaves differently from its input.
	ErrVerifyMismatch = errors.New("optimized code changes behaviour")
)

func main() {
	os.Exit(run())
}

func run() int {
	rootCmd := newRootCmd(os.Stdout, os.Stderr)
	// Normalize single-dash debug flags to double-dash for pflag
	rootCmd.SetArgs(normalizeFlags(os.Args[1:]))
	if err := rootCmd.Execute(); err != nil {
		return 1
	}
	return 0
}

// debugFlagNames lists the debug flags that also accept a single dash
var debugFlagNames = []string{"dblocks", "dquads"}

// normalizeFlags converts single-dash debug flags like -dblocks to --dblocks
func normalizeFlags(args []string) []string {
	result := make([]string, len(args))
	for i, arg := range args {
		result[i] = arg
		for _, flagName := range debugFlagNames {
			if arg == "-"+flagName {
				result[i] = "--" + flagName
				break
			}
		}
	}
	return result
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "anchor-opt [file]",
		Short: "anchor-opt optimizes Anchor quadruple listings",
		Long: `anchor-opt runs the Anchor block-local optimizer over a quadruple
listing: basic blocks, liveness, constant folding, common subexpression
elimination, copy propagation and dead code removal.

Input is a text listing (one (op, arg1, arg2, result) per line) or a
YAML unit (.yaml/.yml) carrying globals and a symbol table.`,
		Version:       version,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				cmd.Help()
				return nil
			}
			err := optimizeFile(cmd, args[0], out, errOut)
			if err != nil {
				fmt.Fprintf(errOut, "anchor-opt: %v\n", err)
			}
			return err
		},
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)

	addOptimizerFlags(rootCmd.Flags())
	return rootCmd
}

// addOptimizerFlags registers every flag on fs.
func addOptimizerFlags(fs *pflag.FlagSet) {
	fs.BoolVar(&dBlocks, "dblocks", false, "Dump basic blocks with use/def and liveness")
	fs.BoolVar(&dQuads, "dquads", false, "Dump the parsed input listing")

	fs.StringVarP(&outputPath, "output", "o", "", "Write the optimized unit to `file` instead of stdout")
	fs.StringVar(&formatName, "format", "", "Output format: text or yaml (default from the output file name)")
	fs.IntVarP(&jobs, "jobs", "j", runtime.GOMAXPROCS(0), "Number of blocks optimized concurrently")
	fs.StringArrayVarP(&extraGlobals, "global", "g", nil, "Treat `name` as a global variable (repeatable)")
	fs.BoolVar(&trace, "trace", false, "Print optimizer diagnostics to stderr")
	fs.BoolVar(&strict, "strict", false, "Fail when a jump targets an undefined label")
	fs.BoolVar(&verify, "verify", false, "Run the input and the output and fail if they behave differently")
	fs.BoolVar(&noOptimize, "no-optimize", false, "Pass the unit through unchanged")
}

// outputFormat picks the format from --format, then from the output file name.
func outputFormat() (listing.Format, error) {
	if formatName != "" {
		return listing.ParseFormat(formatName)
	}
	if outputPath != "" {
		return listing.FormatForPath(outputPath), nil
	}
	return listing.FormatText, nil
}

// optimizeFile loads a unit, optimizes it and writes the result.
func optimizeFile(cmd *cobra.Command, filename string, out, errOut io.Writer) error {
	format, err := outputFormat()
	if err != nil {
		return err
	}

	unit, err := listing.Load(filename)
	if err != nil {
		return err
	}
	unit.Globals = mergeNames(unit.Globals, extraGlobals)
	globals := unit.GlobalNames()

	if dQuads {
		p := quad.NewNumberedPrinter(out)
		p.PrintGlobals(globals)
		p.PrintQuads(unit.Quads)
		return nil
	}
	if dBlocks {
		return dumpBlocks(unit.Quads, out)
	}

	optimized := unit.Quads
	if !noOptimize {
		res, err := optimizer.OptimizeContext(cmd.Context(), unit.Quads, globals, optimizer.Options{Jobs: jobs})
		if err != nil {
			return err
		}
		if trace {
			res.Log.Print(errOut)
		}
		if strict && len(res.Unresolved) > 0 {
			labels := make([]string, 0, len(res.Unresolved))
			for _, u := range res.Unresolved {
				labels = append(labels, u.Label)
			}
			return fmt.Errorf("%w: %s", ErrUndefinedLabel, strings.Join(labels, ", "))
		}
		optimized = res.Quads
	}

	if verify {
		if err := verifyEquivalent(unit.Quads, optimized, globals); err != nil {
			return err
		}
	}

	result := &listing.Unit{Globals: unit.Globals, Symbols: unit.Symbols, Quads: optimized}
	if outputPath == "" {
		return listing.Write(out, result, format)
	}

	outFile, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", outputPath, err)
	}
	defer outFile.Close()
	if err := listing.Write(outFile, result, format); err != nil {
		return fmt.Errorf("writing %s: %w", outputPath, err)
	}
	return nil
}

// dumpBlocks prints the flow graph of the input with its live sets.
func dumpBlocks(quads []quad.Quad, out io.Writer) error {
	g := cfg.Build(cfg.Partition(quads))
	liveness.Analyze(g.Blocks)
	cfg.NewPrinter(out).PrintGraph(g)
	return nil
}

// verifyEquivalent runs both programs and compares what they print and
// the globals they leave behind.
func verifyEquivalent(before, after []quad.Quad, globals []string) error {
	opts := quadsim.Options{Globals: globals}
	want, err := quadsim.Run(before, opts)
	if err != nil {
		return fmt.Errorf("verify: input does not run: %w", err)
	}
	got, err := quadsim.Run(after, opts)
	if err != nil {
		return fmt.Errorf("%w: optimized code fails: %v", ErrVerifyMismatch, err)
	}
	if !slices.Equal(got.Printed, want.Printed) {
		return fmt.Errorf("%w: prints %q, input prints %q", ErrVerifyMismatch, got.Printed, want.Printed)
	}
	if !maps.Equal(got.Globals, want.Globals) {
		return fmt.Errorf("%w: leaves globals %v, input leaves %v", ErrVerifyMismatch, got.Globals, want.Globals)
	}
	return nil
}

// mergeNames appends the names of extra not already in names.
func mergeNames(names, extra []string) []string {
	out := slices.Clone(names)
	for _, name := range extra {
		if !slices.Contains(out, name) {
			out = append(out, name)
		}
	}
	return out
}
