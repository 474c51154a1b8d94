// Command scanmatch solves for the rigid transform that best explains a set
// of LiDAR correspondences and optionally records the run in SQLite.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/banshee-data/scanmatch/internal/config"
	"github.com/banshee-data/scanmatch/internal/lidar/factor"
	"github.com/banshee-data/scanmatch/internal/lidar/se3"
	"github.com/banshee-data/scanmatch/internal/lidar/solver"
	"github.com/banshee-data/scanmatch/internal/lidar/storage/sqlite"
	"github.com/banshee-data/scanmatch/internal/monitoring"
	"github.com/banshee-data/scanmatch/internal/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

type options struct {
	configPath string
	inputPath  string
	dbPath     string
	method     string
	mode       string
	quiet      bool
}

func parseFlags(args []string, stderr io.Writer) (*options, bool, error) {
	fs := flag.NewFlagSet("scanmatch", flag.ContinueOnError)
	fs.SetOutput(stderr)
	o := &options{}
	fs.StringVar(&o.configPath, "config", "", "Registration config JSON (defaults apply when empty)")
	fs.StringVar(&o.inputPath, "input", "", "Correspondence set JSON, or - for stdin")
	fs.StringVar(&o.dbPath, "db", "", "SQLite database to record the run in (optional)")
	fs.StringVar(&o.method, "method", "", "Label stored with the run (defaults to lm or gn)")
	fs.StringVar(&o.mode, "mode", "", "Override feature_mode: all, loam, loam_mapping, icp, icpn")
	fs.BoolVar(&o.quiet, "quiet", false, "Mute diagnostic logging")
	showVersion := fs.Bool("version", false, "Print version and exit")
	if err := fs.Parse(args); err != nil {
		return nil, false, err
	}
	if *showVersion {
		return o, true, nil
	}
	if o.inputPath == "" {
		return nil, false, errors.New("-input is required")
	}
	return o, false, nil
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	o, showVersion, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(stderr, "scanmatch: %v\n", err)
		return 2
	}
	if showVersion {
		fmt.Fprintf(stdout, "scanmatch %s\n", version.String())
		return 0
	}
	if o.quiet {
		monitoring.SetLogger(nil)
	}
	if err := register(ctx, o, stdin, stdout); err != nil {
		fmt.Fprintf(stderr, "scanmatch: %v\n", err)
		return 1
	}
	return 0
}

func loadConfig(o *options) (*config.RegistrationConfig, factor.Mode, error) {
	cfg := config.EmptyRegistrationConfig()
	if o.configPath != "" {
		var err error
		if cfg, err = config.LoadRegistrationConfig(o.configPath); err != nil {
			return nil, "", err
		}
	}
	mode := cfg.GetFeatureMode()
	if o.mode != "" {
		m, err := factor.ParseMode(o.mode)
		if err != nil {
			return nil, "", err
		}
		mode = m
	}
	return cfg, mode, nil
}

func readSet(path string, stdin io.Reader) (*factor.Set, error) {
	if path == "-" {
		return factor.DecodeSet(stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input: %w", err)
	}
	defer f.Close()
	return factor.DecodeSet(f)
}

func register(ctx context.Context, o *options, stdin io.Reader, stdout io.Writer) error {
	cfg, mode, err := loadConfig(o)
	if err != nil {
		return err
	}
	set, err := readSet(o.inputPath, stdin)
	if err != nil {
		return err
	}
	set.Sweep = set.Sweep.WithPeriod(cfg.GetScanPeriod())

	loss, err := cfg.GetLoss()
	if err != nil {
		return err
	}
	opts := cfg.SolverOptions()
	prob := solver.NewProblem(opts)
	for _, f := range set.CostFunctions(mode) {
		prob.AddResidual(f, loss)
	}
	monitoring.Logf("scanmatch: %d correspondences, %d residual blocks in mode %s",
		set.Len(), prob.NumResidualBlocks(), mode)

	sum, err := prob.Solve(ctx, set.InitialParams())
	if err != nil {
		return fmt.Errorf("solve failed: %w", err)
	}
	printSummary(stdout, sum)

	if o.dbPath == "" {
		return nil
	}
	method := o.method
	if method == "" {
		method = "lm"
		if opts.GaussNewton {
			method = "gn"
		}
	}
	cfgJSON, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	rec := &sqlite.Run{
		Method:            method,
		FeatureMode:       string(mode),
		Params:            sum.Params,
		InitialCost:       sum.InitialCost,
		FinalCost:         sum.FinalCost,
		Iterations:        sum.Iterations,
		Termination:       string(sum.Termination),
		UsedResiduals:     sum.UsedResiduals,
		RejectedResiduals: sum.RejectedResiduals,
		Correspondences:   set.Len(),
		ConfigJSON:        cfgJSON,
	}
	if o.inputPath != "-" {
		rec.InputPath = o.inputPath
	}
	return recordRun(ctx, o.dbPath, rec, stdout)
}

func recordRun(ctx context.Context, path string, rec *sqlite.Run, stdout io.Writer) error {
	store, err := sqlite.Open(ctx, path)
	if err != nil {
		return err
	}
	defer store.Close()
	if err := store.RecordRun(ctx, rec); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "run %s recorded in %s\n", rec.RunID, path)
	return nil
}

func printSummary(w io.Writer, sum solver.Summary) {
	t := sum.Transform()
	m := t.Matrix()
	fmt.Fprintln(w, "transform:")
	for r := 0; r < 4; r++ {
		fmt.Fprintf(w, "  % .9f % .9f % .9f % .9f\n", m[r*4], m[r*4+1], m[r*4+2], m[r*4+3])
	}
	v := se3.Log(t).Values()
	fmt.Fprintf(w, "log: [% .9f % .9f % .9f % .9f % .9f % .9f]\n", v[0], v[1], v[2], v[3], v[4], v[5])
	fmt.Fprintf(w, "cost: %.6g -> %.6g after %d iterations (%s)\n",
		sum.InitialCost, sum.FinalCost, sum.Iterations, sum.Termination)
	fmt.Fprintf(w, "residual blocks: %d used, %d rejected\n", sum.UsedResiduals, sum.RejectedResiduals)
}
