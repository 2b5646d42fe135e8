package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/pkg/profile"
	"gopkg.in/cheggaaa/pb.v1"

	"github.com/jr-dreamview/ingest-bulk/internal/config"
	"github.com/jr-dreamview/ingest-bulk/internal/grouping"
	"github.com/jr-dreamview/ingest-bulk/internal/log"
)

var (
	StartParams = startParams{}

	ApplicationName = "partition"
)

type startParams struct {
	Inputs []string

	Rules      string
	JSON       bool
	Debug      bool
	NoProgress bool
	CpuProfile bool
}

func init() {
	flag.StringVar(&StartParams.Rules,
		"rules", StartParams.Rules, "YAML rules file (include filters and grouping options). Defaults are used when empty.")
	flag.BoolVar(&StartParams.JSON,
		"json", StartParams.JSON, "Print results as JSON instead of the audit dump.")
	flag.BoolVar(&StartParams.Debug,
		"debug", StartParams.Debug, "Log every matched pair to stderr.")
	flag.BoolVar(&StartParams.NoProgress,
		"no-progress", StartParams.NoProgress, "No shell progress bar.")
	flag.BoolVar(&StartParams.CpuProfile,
		"cpu-profile", StartParams.CpuProfile, "Record ./cpu.pprof profile.")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] scene.json|scene.gltf|scene.glb ...\n", ApplicationName)
		flag.PrintDefaults()
	}
}

func main() {
	flag.Parse()
	StartParams.Inputs = flag.Args()
	if len(StartParams.Inputs) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	// cpu profiling for development: github.com/pkg/profile
	if StartParams.CpuProfile {
		defer profile.Start(profile.ProfilePath(".")).Stop()
	}

	logger, err := log.NewLogger(true, StartParams.Debug, "stderr")
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	rules, err := config.LoadRules(StartParams.Rules)
	if err != nil {
		logger.Fatalf("Error loading rules: %v", err)
	}
	opts := rules.Grouping
	opts.Logger = logger
	partitioner := grouping.NewPartitioner(opts)

	var bar *pb.ProgressBar
	if !StartParams.NoProgress && len(StartParams.Inputs) > 1 {
		bar = pb.New(len(StartParams.Inputs)).Prefix("  - scenes").SetMaxWidth(130)
		bar.Output = os.Stderr
		bar.Start()
	}

	reports := make([]sceneReport, 0, len(StartParams.Inputs))
	for _, path := range StartParams.Inputs {
		scene, err := loadScene(path)
		if err != nil {
			logger.Fatalf("Error reading %s: %v", path, err)
		}
		result := partitioner.PartitionScene(scene.Roots, rules.Include)
		reports = append(reports, newSceneReport(path, result, partitioner.NearMisses(result)))
		if bar != nil {
			bar.Increment()
		}
	}
	if bar != nil {
		bar.Finish()
	}

	if StartParams.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(reports); err != nil {
			logger.Fatalf("Error writing results: %v", err)
		}
		return
	}
	for _, r := range reports {
		if err := r.write(os.Stdout); err != nil {
			logger.Fatalf("Error writing results: %v", err)
		}
	}
}
