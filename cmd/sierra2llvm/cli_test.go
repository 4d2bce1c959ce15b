package main

import (
	"bytes"
	"context"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"sierra2llvm/internal/felt"
	"sierra2llvm/internal/observ"
	"sierra2llvm/internal/project"
)

const subProgram = `
type_declarations:
  - id: {id: 0, debug_name: felt}
    long_id: {generic_id: felt}
  - id: {id: 1, debug_name: u8}
    long_id: {generic_id: u8}
libfunc_declarations:
  - id: {id: 0, debug_name: felt_const<42>}
    long_id:
      generic_id: felt_const
      generic_args:
        - value: "42"
  - id: {id: 1, debug_name: felt_sub}
    long_id: {generic_id: felt_sub}
  - id: {id: 2, debug_name: u8_wrapping_add}
    long_id: {generic_id: u8_wrapping_add}
`

func writeProgram(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(subProgram), 0o600); err != nil {
		t.Fatalf("write program: %v", err)
	}
	return path
}

func TestOutputNames(t *testing.T) {
	names, err := outputNames([]string{"a/sub.yaml", "b/add.msgpack", "noext"})
	if err != nil {
		t.Fatalf("outputNames: %v", err)
	}
	want := []string{"sub.ll", "add.ll", "noext.ll"}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names[%d] = %s, want %s", i, names[i], want[i])
		}
	}
	if _, err := outputNames([]string{"a/sub.yaml", "b/sub.json"}); err == nil {
		t.Fatal("expected collision error")
	}
}

func TestApplyColorMode(t *testing.T) {
	orig := color.NoColor
	defer func() { color.NoColor = orig }()

	tests := []struct {
		mode    string
		tty     bool
		noColor bool
	}{
		{"auto", true, false},
		{"auto", false, true},
		{"ON", false, false},
		{"off", true, true},
	}
	for _, tt := range tests {
		if err := applyColorMode(tt.mode, tt.tty); err != nil {
			t.Fatalf("applyColorMode(%s): %v", tt.mode, err)
		}
		if color.NoColor != tt.noColor {
			t.Errorf("mode %s tty %v: NoColor = %v", tt.mode, tt.tty, color.NoColor)
		}
	}
	if err := applyColorMode("sometimes", true); err == nil {
		t.Fatal("expected invalid mode error")
	}
}

func buildFlags() *cobra.Command {
	cmd := &cobra.Command{Use: "build"}
	cmd.Flags().Bool("debug-info", false, "")
	cmd.Flags().String("out-dir", "build", "")
	return cmd
}

func TestResolveSettings(t *testing.T) {
	manifest := &project.Manifest{
		Root: "/proj",
		Config: project.Config{
			Package: project.PackageConfig{Name: "demo"},
			Build: project.BuildConfig{
				Inputs:    []string{"p.yaml"},
				OutDir:    "out",
				DebugInfo: true,
			},
			Debug: project.DebugConfig{File: "p.cairo", Directory: "src"},
		},
	}

	s, err := resolveSettings(buildFlags(), nil, manifest)
	if err != nil {
		t.Fatalf("resolveSettings: %v", err)
	}
	if s.inputs[0] != filepath.Join("/proj", "p.yaml") || s.outDir != filepath.Join("/proj", "out") || !s.debugInfo {
		t.Fatalf("manifest settings = %+v", s)
	}
	opts := s.compileOptions(s.inputs[0])
	if opts.SourceFile != "p.cairo" || opts.SourceDir != filepath.Join("/proj", "src") || !opts.DebugInfo {
		t.Fatalf("compile options = %+v", opts)
	}

	cmd := buildFlags()
	if err := cmd.Flags().Set("debug-info", "false"); err != nil {
		t.Fatal(err)
	}
	if err := cmd.Flags().Set("out-dir", "elsewhere"); err != nil {
		t.Fatal(err)
	}
	s, err = resolveSettings(cmd, []string{"x.json"}, manifest)
	if err != nil {
		t.Fatalf("resolveSettings: %v", err)
	}
	if s.inputs[0] != "x.json" || s.outDir != "elsewhere" || s.debugInfo {
		t.Fatalf("flags did not override manifest: %+v", s)
	}

	s, err = resolveSettings(buildFlags(), []string{"x.json"}, nil)
	if err != nil {
		t.Fatalf("resolveSettings: %v", err)
	}
	if s.outDir != "build" {
		t.Fatalf("default out dir = %s", s.outDir)
	}
	if opts := s.compileOptions("dir/x.json"); opts.SourceFile != "x.json" {
		t.Fatalf("default source file = %s", opts.SourceFile)
	}

	if _, err := resolveSettings(buildFlags(), nil, nil); err == nil {
		t.Fatal("expected error without inputs")
	}
}

func TestBuildAllWritesModules(t *testing.T) {
	dir := t.TempDir()
	inputs := []string{writeProgram(t, dir, "one.yaml"), writeProgram(t, dir, "two.yaml")}
	s := buildSettings{inputs: inputs, outDir: filepath.Join(dir, "out"), debugInfo: true}

	timer := observ.NewTimer()
	results, err := buildAll(context.Background(), s, 2, timer)
	if err != nil {
		t.Fatalf("buildAll: %v", err)
	}
	if len(results) != 2 || results[0].output != "one.ll" || results[1].output != "two.ll" {
		t.Fatalf("results out of order: %+v", results)
	}
	if err := writeResults(s.outDir, results); err != nil {
		t.Fatalf("writeResults: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(s.outDir, "one.ll"))
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	text := string(data)
	for _, want := range []string{"define", "@felt_sub", "@modulo", "!llvm.dbg.cu"} {
		if !strings.Contains(text, want) {
			t.Errorf("output lacks %q", want)
		}
	}
	if got := len(timer.Report().Phases); got != 4 {
		t.Fatalf("%d timer phases, want 4", got)
	}
}

func TestBuildAllReportsFailingInput(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("type_declarations:\n  - id: {id: 0}\n    long_id: {generic_id: Box}\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	s := buildSettings{inputs: []string{writeProgram(t, dir, "good.yaml"), bad}}
	_, err := buildAll(context.Background(), s, 0, observ.NewTimer())
	if err == nil || !strings.Contains(err.Error(), "bad.yaml") {
		t.Fatalf("expected error naming bad.yaml, got %v", err)
	}
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := &cobra.Command{Use: "run", RunE: runExecution}
	cmd.Flags().Bool("signed", false, "")
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return strings.TrimSpace(out.String()), err
}

func TestRunEvaluatesFunction(t *testing.T) {
	path := writeProgram(t, t.TempDir(), "sub.yaml")

	got, err := runCommand(t, path, "felt_sub", "3", "10")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	want := new(big.Int).Sub(felt.Prime(), big.NewInt(7)).String()
	if got != want {
		t.Fatalf("felt_sub(3, 10) = %s, want %s", got, want)
	}

	got, err = runCommand(t, "--signed", path, "u8_wrapping_add", "100", "100")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if got != "-56" {
		t.Fatalf("signed u8 sum = %s, want -56", got)
	}

	if _, err := runCommand(t, path, "missing"); err == nil {
		t.Fatal("expected unknown function error")
	}
	if _, err := runCommand(t, path, "felt_sub", "x", "1"); err == nil {
		t.Fatal("expected bad argument error")
	}
}

func TestVersionJSON(t *testing.T) {
	var out bytes.Buffer
	if err := renderVersionJSON(&out, versionOptions{showHash: true}); err != nil {
		t.Fatalf("renderVersionJSON: %v", err)
	}
	for _, want := range []string{`"tool": "sierra2llvm"`, `"felt_width": 253`, `"git_commit"`} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("version json lacks %s:\n%s", want, out.String())
		}
	}
}
