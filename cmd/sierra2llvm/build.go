package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"sierra2llvm/internal/backend/llvm"
	"sierra2llvm/internal/observ"
	"sierra2llvm/internal/prof"
	"sierra2llvm/internal/project"
	"sierra2llvm/internal/sierra"
	"sierra2llvm/internal/trace"
)

var buildCmd = &cobra.Command{
	Use:   "build [flags] [inputs...]",
	Short: "Lower Sierra programs into .ll files",
	Long: "Lower each input program (.yaml, .json or .msgpack) into one LLVM IR module.\n" +
		"Without arguments the inputs come from [build].inputs of sierra2llvm.toml.",
	RunE: buildExecution,
}

func init() {
	buildCmd.Flags().Bool("debug-info", false, "emit debug metadata")
	buildCmd.Flags().StringP("out-dir", "o", "build", "directory for the .ll files")
	buildCmd.Flags().Bool("emit-stdout", false, "print modules to stdout instead of writing files")
	buildCmd.Flags().Bool("timings", false, "print phase timings")
	buildCmd.Flags().IntP("jobs", "j", runtime.NumCPU(), "programs lowered in parallel")
	buildCmd.Flags().String("cpu-profile", "", "write a CPU profile")
	buildCmd.Flags().String("mem-profile", "", "write a heap profile after the build")
	buildCmd.Flags().String("runtime-trace", "", "write a Go runtime trace")
}

// buildResult is one lowered module.
type buildResult struct {
	input  string
	output string
	text   string
	funcs  int
}

func buildExecution(cmd *cobra.Command, args []string) (err error) {
	profiles, err := startProfiling(cmd)
	if err != nil {
		return err
	}
	defer func() {
		if stopErr := profiles.Stop(); stopErr != nil && err == nil {
			err = stopErr
		}
	}()

	emitStdout, err := cmd.Flags().GetBool("emit-stdout")
	if err != nil {
		return err
	}
	showTimings, err := cmd.Flags().GetBool("timings")
	if err != nil {
		return err
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return err
	}

	manifest, found, err := project.Load(".")
	if err != nil {
		return err
	}
	if found {
		log.Debugf("using manifest %s (package %s)", manifest.Path, manifest.Config.Package.Name)
	}
	settings, err := resolveSettings(cmd, args, manifest)
	if err != nil {
		return err
	}

	timer := observ.NewTimer()
	results, err := buildAll(cmd.Context(), settings, jobs, timer)
	if err != nil {
		return err
	}

	if emitStdout {
		for _, r := range results {
			if _, err := io.WriteString(cmd.OutOrStdout(), r.text); err != nil {
				return err
			}
		}
	} else if err := writeResults(settings.outDir, results); err != nil {
		return err
	}
	if showTimings {
		fmt.Fprint(cmd.ErrOrStderr(), timer.Summary())
	}
	return nil
}

// buildAll lowers every input on its own compiler. Results keep input order.
func buildAll(ctx context.Context, s buildSettings, jobs int, timer *observ.Timer) ([]buildResult, error) {
	names, err := outputNames(s.inputs)
	if err != nil {
		return nil, err
	}
	span := trace.Begin(trace.FromContext(ctx), trace.ScopeDriver, "build", trace.CurrentSpan(ctx))
	ctx = trace.WithSpan(ctx, span.ID())
	defer span.End("")

	results := make([]buildResult, len(s.inputs))
	g, gctx := errgroup.WithContext(ctx)
	if jobs > 0 {
		g.SetLimit(jobs)
	}
	for i, input := range s.inputs {
		g.Go(func() error {
			r, err := buildOne(gctx, input, s.compileOptions(input), timer)
			if err != nil {
				return fmt.Errorf("%s: %w", input, err)
			}
			r.output = names[i]
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func startProfiling(cmd *cobra.Command) (*prof.Session, error) {
	var cfg prof.Config
	var err error
	if cfg.CPU, err = cmd.Flags().GetString("cpu-profile"); err != nil {
		return nil, err
	}
	if cfg.Mem, err = cmd.Flags().GetString("mem-profile"); err != nil {
		return nil, err
	}
	if cfg.Trace, err = cmd.Flags().GetString("runtime-trace"); err != nil {
		return nil, err
	}
	return prof.Start(cfg)
}

func buildOne(ctx context.Context, input string, opts llvm.Options, timer *observ.Timer) (buildResult, error) {
	idx := timer.Begin("decode " + filepath.Base(input))
	prog, err := sierra.Decode(input)
	if err != nil {
		timer.End(idx, "failed")
		return buildResult{}, err
	}
	timer.End(idx, fmt.Sprintf("%d types, %d libfuncs", len(prog.TypeDeclarations), len(prog.LibfuncDeclarations)))

	idx = timer.Begin("lower " + filepath.Base(input))
	c, err := llvm.LowerProgram(ctx, prog, opts)
	if err != nil {
		timer.End(idx, "failed")
		return buildResult{}, err
	}
	text, err := c.Emit()
	if err != nil {
		timer.End(idx, "failed")
		return buildResult{}, err
	}
	funcs := len(c.Module().Funcs)
	timer.End(idx, fmt.Sprintf("%d functions", funcs))
	log.Debugf("lowered %s: %d functions, debug info %v", input, funcs, c.DebugInfo())
	return buildResult{input: input, text: text, funcs: funcs}, nil
}

func writeResults(outDir string, results []buildResult) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	for _, r := range results {
		path := filepath.Join(outDir, r.output)
		if err := os.WriteFile(path, []byte(r.text), 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		log.Infof("%s -> %s (%d functions)", r.input, path, r.funcs)
	}
	return nil
}
