package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/anchor-lang/anchorc/pkg/listing"
)

// resetFlags restores every package-level flag to its default
func resetFlags() {
	dBlocks, dQuads = false, false
	outputPath, formatName = "", ""
	jobs = 1
	extraGlobals = nil
	trace, strict, verify, noOptimize = false, false, false, false
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}
	return path
}

func execute(args ...string) (string, string, error) {
	resetFlags()
	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)
	cmd.SetArgs(normalizeFlags(args))
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

const foldProgram = `(+, 2, 3, T0)
(=, T0, _, x)
(PRINT, x, _, _)
`

func TestVersion(t *testing.T) {
	if version == "" {
		t.Error("version should not be empty")
	}
}

func TestFlagsExist(t *testing.T) {
	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)

	expectedFlags := []string{"dblocks", "dquads", "output", "format", "jobs", "global", "trace", "strict", "verify", "no-optimize"}
	for _, flagName := range expectedFlags {
		if cmd.Flags().Lookup(flagName) == nil {
			t.Errorf("expected flag --%s to exist", flagName)
		}
	}
}

func TestNormalizeFlags(t *testing.T) {
	got := normalizeFlags([]string{"-dblocks", "-dquads", "-o", "out.quad", "-dother", "in.quad"})
	want := []string{"--dblocks", "--dquads", "-o", "out.quad", "-dother", "in.quad"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("normalizeFlags = %v, want %v", got, want)
	}
}

func TestNoArgsPrintsHelp(t *testing.T) {
	out, _, err := execute()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "anchor-opt") {
		t.Errorf("expected help output, got %q", out)
	}
}

func TestOptimizeToStdout(t *testing.T) {
	path := writeFile(t, "fold.quad", foldProgram)

	out, errOut, err := execute(path)
	if err != nil {
		t.Fatalf("unexpected error: %v (stderr %q)", err, errOut)
	}
	if out != "0:\t(PRINT, 5, _, _)\n" {
		t.Errorf("output = %q", out)
	}
}

func TestNoOptimize(t *testing.T) {
	path := writeFile(t, "fold.quad", foldProgram)

	out, _, err := execute("--no-optimize", path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "0:\t(+, 2, 3, T0)") || !strings.Contains(out, "2:\t(PRINT, x, _, _)") {
		t.Errorf("output = %q", out)
	}
}

func TestOutputFile(t *testing.T) {
	path := writeFile(t, "fold.quad", foldProgram)
	outPath := filepath.Join(t.TempDir(), "fold.opt.yaml")

	out, _, err := execute("-o", outPath, path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "" {
		t.Errorf("stdout should be empty, got %q", out)
	}

	u, err := listing.Load(outPath)
	if err != nil {
		t.Fatalf("output does not load: %v", err)
	}
	if len(u.Quads) != 1 || u.Quads[0].String() != "(PRINT, 5, _, _)" {
		t.Errorf("quads = %v", u.Quads)
	}
}

func TestFormatFlag(t *testing.T) {
	path := writeFile(t, "fold.quad", foldProgram)

	out, _, err := execute("--format", "yaml", path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "quads:") || !strings.Contains(out, "[PRINT, 5, _, _]") {
		t.Errorf("output = %q", out)
	}

	_, errOut, err := execute("--format", "xml", path)
	if err == nil {
		t.Fatal("expected error for unknown format")
	}
	if !strings.Contains(errOut, "anchor-opt: unknown format") {
		t.Errorf("stderr = %q", errOut)
	}
}

func TestGlobalFlag(t *testing.T) {
	path := writeFile(t, "global.quad", `(=, 1, _, g)
(=, 2, _, x)
`)

	out, _, err := execute(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "" {
		t.Errorf("without --global both stores are dead, got %q", out)
	}

	out, _, err = execute("--global", "g", path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "globals: g\n0:\t(=, 1, _, g)\n"
	if out != want {
		t.Errorf("output = %q, want %q", out, want)
	}
}

func TestTrace(t *testing.T) {
	path := writeFile(t, "fold.quad", foldProgram)

	_, errOut, err := execute("--trace", path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(errOut, "3 instructions in 1 blocks") {
		t.Errorf("missing blocks line in %q", errOut)
	}
	if !strings.Contains(errOut, "block 0: fold (+, 2, 3, T0): 5") {
		t.Errorf("missing fold line in %q", errOut)
	}
}

func TestStrict(t *testing.T) {
	path := writeFile(t, "undefined.quad", `(JUMP, _, _, nowhere)
(PRINT, 1, _, _)
`)

	if _, _, err := execute(path); err != nil {
		t.Fatalf("undefined label without --strict: %v", err)
	}

	_, errOut, err := execute("--strict", path)
	if !errors.Is(err, ErrUndefinedLabel) {
		t.Fatalf("expected ErrUndefinedLabel, got %v", err)
	}
	if !strings.Contains(errOut, "nowhere") {
		t.Errorf("stderr = %q", errOut)
	}
}

func TestVerify(t *testing.T) {
	path := writeFile(t, "loop.quad", `(FUNC_BEGIN, main, _, _)
(=, 0, _, i)
(LABEL, L0, _, _)
(+, i, 1, T0)
(=, T0, _, i)
(<, i, 10, T1)
(JUMPNZ, T1, _, L0)
(PRINT, i, _, _)
(FUNC_END, main, _, _)
`)

	if _, errOut, err := execute("--verify", path); err != nil {
		t.Fatalf("verify failed: %v (stderr %q)", err, errOut)
	}
}

func TestVerifyEquivalent(t *testing.T) {
	before, err := listing.ParseListing("(PRINT, 1, _, _)\n")
	if err != nil {
		t.Fatal(err)
	}
	after, err := listing.ParseListing("(PRINT, 2, _, _)\n")
	if err != nil {
		t.Fatal(err)
	}

	if err := verifyEquivalent(before.Quads, before.Quads, nil); err != nil {
		t.Errorf("same program: %v", err)
	}
	if err := verifyEquivalent(before.Quads, after.Quads, nil); !errors.Is(err, ErrVerifyMismatch) {
		t.Errorf("expected ErrVerifyMismatch, got %v", err)
	}
}

func TestDQuads(t *testing.T) {
	path := writeFile(t, "unit.yaml", `globals: [g]
quads:
  - ["=", "1", _, g]
  - [PRINT, g, _, _]
`)

	out, _, err := execute("-dquads", path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "globals: g\n0:\t(=, 1, _, g)\n1:\t(PRINT, g, _, _)\n"
	if out != want {
		t.Errorf("output = %q, want %q", out, want)
	}
}

func TestDBlocks(t *testing.T) {
	path := writeFile(t, "loop.quad", `(=, 0, _, i)
(LABEL, L0, _, _)
(+, i, 1, i)
(JUMPNZ, i, _, L0)
(PRINT, i, _, _)
`)

	out, _, err := execute("-dblocks", path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"block 0:", "block 1:", "block 2:", "(JUMPNZ, i, _, L0)"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, out)
		}
	}
}

func TestFileNotFound(t *testing.T) {
	_, errOut, err := execute("/nonexistent/file.quad")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !strings.HasPrefix(errOut, "anchor-opt: ") {
		t.Errorf("stderr = %q", errOut)
	}
}

func TestSyntaxError(t *testing.T) {
	path := writeFile(t, "bad.quad", "(+, 1, 2\n")

	_, errOut, err := execute(path)
	if !errors.Is(err, listing.ErrSyntax) {
		t.Fatalf("expected ErrSyntax, got %v", err)
	}
	if !strings.Contains(errOut, "line 1") {
		t.Errorf("stderr = %q", errOut)
	}
}

func TestMergeNames(t *testing.T) {
	got := mergeNames([]string{"a", "b"}, []string{"b", "c"})
	if !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("mergeNames = %v", got)
	}
}
