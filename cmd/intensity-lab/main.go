package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime"
	"sort"
	"strings"

	"intensity-lab/internal/algorithms"
	"intensity-lab/internal/config"
	"intensity-lab/internal/debug/timing"
	"intensity-lab/internal/logger"
	"intensity-lab/internal/models"
	"intensity-lab/internal/pipeline"
	"intensity-lab/internal/services"
	"intensity-lab/internal/shutdown"
)

const (
	AppName    = "intensity-lab"
	AppVersion = "1.0.0"
)

// paramFlags maps command-line flags to filter parameter names. Only flags
// given on the command line are forwarded, so filter defaults apply
// otherwise.
var paramFlags = map[string]string{
	"size":        "size",
	"sigma":       "sigma",
	"kernel":      "kernel",
	"boundary":    "boundary",
	"size-policy": "size_policy",
	"mode":        "mode",
	"fill":        "fill",
	"depth":       "depth",
	"weight":      "weight",
	"variant":     "variant",
	"diameter":    "diameter",
	"sigma-color": "sigma_color",
	"sigma-space": "sigma_space",
	"amount":      "amount",
	"seed":        "seed",
}

type options struct {
	in, out    string
	filter     string
	recipe     string
	backend    string
	workers    int
	list       bool
	version    bool
	showTiming bool
	params     map[string]interface{}
	setFlags   map[string]bool
}

func main() {
	log := logger.NewConsoleLogger(logger.LevelFromEnv())
	sm := shutdown.NewManager(log)
	sm.Listen()

	code := run(sm, log, os.Args[1:], os.Stdout, os.Stderr)
	sm.Shutdown()
	os.Exit(code)
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet(AppName, flag.ContinueOnError)
	fs.SetOutput(stderr)

	opts := &options{params: make(map[string]interface{}), setFlags: make(map[string]bool)}
	fs.StringVar(&opts.in, "in", "", "input image (png, jpeg, gif, bmp, tiff, webp)")
	fs.StringVar(&opts.out, "out", "", "output image (png, jpeg, bmp, tiff by extension)")
	fs.StringVar(&opts.filter, "filter", "gaussian", "filter to apply when no recipe is given")
	fs.StringVar(&opts.recipe, "recipe", "", "YAML recipe file with a list of steps")
	fs.StringVar(&opts.backend, "backend", "native", "native or opencv")
	fs.IntVar(&opts.workers, "workers", 0, "goroutines per filter, 0 for GOMAXPROCS")
	fs.BoolVar(&opts.list, "list", false, "list filters with their default parameters and exit")
	fs.BoolVar(&opts.version, "version", false, "print the version and exit")
	fs.BoolVar(&opts.showTiming, "timings", false, "print per-step timings")

	fs.Int("size", 0, "window or kernel size (odd)")
	fs.Float64("sigma", 0, "Gaussian sigma, 0 derives it from the size")
	fs.String("kernel", "", "explicit kernel, rows separated by ';' and values by ','")
	fs.String("boundary", "", "fill, wrap, symmetric or replicate")
	fs.String("size-policy", "", "full, same or valid")
	fs.String("mode", "", "correlation or convolution")
	fs.Float64("fill", 0, "constant used outside the image by the fill boundary")
	fs.String("depth", "", "float or uint8")
	fs.Float64("weight", 0, "sharpen weight")
	fs.String("variant", "", "Laplacian neighbourhood: 4 or 8")
	fs.Int("diameter", 0, "bilateral neighbourhood diameter")
	fs.Float64("sigma-color", 0, "bilateral range sigma")
	fs.Float64("sigma-space", 0, "bilateral spatial sigma")
	fs.Float64("amount", 0, "unsharp amount or salt-and-pepper density")
	fs.Uint64("seed", 1, "salt-and-pepper seed")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	fs.Visit(func(f *flag.Flag) {
		opts.setFlags[f.Name] = true
		if name, ok := paramFlags[f.Name]; ok {
			opts.params[name] = f.Value.String()
		}
	})
	return opts, nil
}

func run(sm *shutdown.Manager, log logger.Logger, args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(stderr, err)
		return 2
	}

	manager := algorithms.NewManager()
	switch {
	case opts.version:
		fmt.Fprintf(stdout, "%s %s (%s)\n", AppName, AppVersion, runtime.Version())
		return 0
	case opts.list:
		printAlgorithms(stdout, manager)
		return 0
	}

	if opts.in == "" || opts.out == "" {
		fmt.Fprintln(stderr, "both -in and -out are required")
		return 2
	}

	recipe, err := buildRecipe(opts)
	if err == nil && opts.recipe == "" {
		// flags alone describe the step, so a step that does not build is a usage error
		_, err = manager.BuildChain(recipe)
	}
	if err != nil {
		if opts.recipe == "" {
			fmt.Fprintln(stderr, err)
			return 2
		}
		log.Error("CLI", err, map[string]interface{}{"recipe": opts.recipe})
		return 1
	}

	tracker := timing.NewTracker()
	service := services.NewProcessingService(manager, log, tracker, models.PerformanceSettings{})
	sm.Register(service)

	loader := pipeline.NewLoader(log, tracker)
	saver := pipeline.NewSaver(log, tracker)

	input, err := loader.LoadFromPath(opts.in)
	if err != nil {
		log.Error("CLI", err, map[string]interface{}{"path": opts.in})
		return 1
	}

	result, err := service.Run(sm.Context(), recipe, input.Grid)
	if err != nil {
		log.Error("CLI", err, map[string]interface{}{"recipe": recipe.Name})
		return 1
	}

	if err := saver.SaveToPath(opts.out, result.Output); err != nil {
		log.Error("CLI", err, map[string]interface{}{"path": opts.out})
		return 1
	}

	printResult(stdout, result)
	if opts.showTiming {
		printTimings(stdout, tracker)
	}
	return 0
}

func buildRecipe(opts *options) (*config.Recipe, error) {
	var recipe *config.Recipe
	if opts.recipe != "" {
		loaded, err := config.Load(opts.recipe)
		if err != nil {
			return nil, err
		}
		if len(opts.params) > 0 {
			return nil, fmt.Errorf("%w: filter parameter flags cannot be combined with -recipe",
				models.ErrInvalidParameter)
		}
		recipe = loaded
	} else {
		recipe = &config.Recipe{
			Name:  opts.filter,
			Steps: []config.StepConfig{{Filter: opts.filter, Params: opts.params}},
		}
	}

	if opts.recipe == "" || opts.setFlags["backend"] {
		backend, err := models.ParseBackend(opts.backend)
		if err != nil {
			return nil, err
		}
		recipe.Backend = backend
	}
	if opts.recipe == "" || opts.setFlags["workers"] {
		recipe.Workers = opts.workers
	}
	return recipe, recipe.Validate()
}

func printAlgorithms(w io.Writer, manager *algorithms.Manager) {
	for _, name := range manager.GetAvailableAlgorithms() {
		params := manager.GetParameters(name)
		keys := make([]string, 0, len(params))
		for k := range params {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = fmt.Sprintf("%s=%v", k, params[k])
		}
		fmt.Fprintf(w, "%-12s %s\n", name, strings.Join(parts, " "))
	}
}

func printResult(w io.Writer, result *services.Result) {
	steps := make([]string, len(result.Steps))
	for i, s := range result.Steps {
		steps[i] = s.Step
	}
	fmt.Fprintf(w, "run %s: %s [%s] %dx%d in %s\n",
		result.RunID, result.Recipe, strings.Join(steps, " -> "),
		result.Output.Cols(), result.Output.Rows(), result.ProcessTime)
	if m := result.Metrics; m != nil {
		fmt.Fprintf(w, "  mse=%.3f mae=%.3f psnr=%.2fdB contrast=%.3f\n", m.MSE, m.MAE, m.PSNR, m.StdDevRatio)
	}
}

func printTimings(w io.Writer, tracker *timing.Tracker) {
	for _, s := range tracker.Summary() {
		fmt.Fprintf(w, "  %-20s n=%d mean=%s total=%s\n", s.Operation, s.Count, s.Mean, s.Total)
	}
}
