package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"sierra2llvm/internal/backend/llvm"
	"sierra2llvm/internal/project"
)

// buildSettings is the manifest merged with command-line flags; flags win
// when they were set explicitly.
type buildSettings struct {
	inputs    []string
	outDir    string
	debugInfo bool
	debug     project.DebugConfig
}

func resolveSettings(cmd *cobra.Command, args []string, manifest *project.Manifest) (buildSettings, error) {
	var s buildSettings
	if manifest != nil {
		s.inputs = manifest.Inputs()
		s.outDir = manifest.OutDir()
		s.debugInfo = manifest.Config.Build.DebugInfo
		s.debug = manifest.Config.Debug
		if s.debug.Directory != "" && !filepath.IsAbs(s.debug.Directory) {
			s.debug.Directory = filepath.Join(manifest.Root, s.debug.Directory)
		}
	}
	if len(args) > 0 {
		s.inputs = args
	}
	if len(s.inputs) == 0 {
		return s, fmt.Errorf("no input programs: pass them as arguments or list them in [build].inputs of %s", project.ManifestName)
	}

	flags := cmd.Flags()
	if flags.Changed("debug-info") {
		v, err := flags.GetBool("debug-info")
		if err != nil {
			return s, err
		}
		s.debugInfo = v
	}
	if flags.Changed("out-dir") || s.outDir == "" {
		v, err := flags.GetString("out-dir")
		if err != nil {
			return s, err
		}
		s.outDir = v
	}
	return s, nil
}

// compileOptions builds the per-input backend options. Without an explicit
// [debug].file the compile unit is named after the input.
func (s buildSettings) compileOptions(input string) llvm.Options {
	opts := llvm.Options{
		DebugInfo:  s.debugInfo,
		SourceFile: s.debug.File,
		SourceDir:  s.debug.Directory,
		Producer:   s.debug.Producer,
	}
	if opts.SourceFile == "" {
		opts.SourceFile = filepath.Base(input)
	}
	if opts.SourceDir == "" {
		if abs, err := filepath.Abs(filepath.Dir(input)); err == nil {
			opts.SourceDir = abs
		}
	}
	return opts
}

// outputName maps an input path to its .ll file name.
func outputName(input string) string {
	base := filepath.Base(input)
	if ext := filepath.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	if base == "" || base == "." {
		base = "a"
	}
	return base + ".ll"
}

// outputNames maps every input to its output name and rejects collisions.
func outputNames(inputs []string) ([]string, error) {
	names := make([]string, len(inputs))
	seen := make(map[string]string, len(inputs))
	for i, in := range inputs {
		name := outputName(in)
		if prev, dup := seen[name]; dup {
			return nil, fmt.Errorf("inputs %s and %s would both be written to %s", prev, in, name)
		}
		seen[name] = in
		names[i] = name
	}
	return names, nil
}
