package main

import(
	"flag"
	"fmt"
	"log"
	"math/rand"
	"path/filepath"

	"github.com/abworrall/synthburst/pkg/experiment"
	"github.com/abworrall/synthburst/pkg/synth"
)

var(
	fVerbosity int
	fBurstSize int
	fDownsample int
	fInterp string
	fSeed int64
	fDumpDir string
	fParallelism int
)

func init() {
	flag.IntVar(&fVerbosity, "v", 0, "how verbose to get")
	flag.IntVar(&fBurstSize, "burst", 0, "frames per burst, including the anchor (0 keeps the config's value)")
	flag.IntVar(&fDownsample, "downsample", 0, "downsampling factor of the burst (0 keeps the config's value)")
	flag.StringVar(&fInterp, "interp", "", fmt.Sprintf("interpolation, one of %v (empty keeps the config's value)", synth.Interpolations))
	flag.Int64Var(&fSeed, "seed", -1, "random seed (-1 keeps the config's value)")
	flag.StringVar(&fDumpDir, "dump", "", "if set, write frames, flow pictures and curves into this dir")
	flag.IntVar(&fParallelism, "j", 0, "frames to synthesize and score concurrently")
	flag.Parse()

	log.Printf("burstflow starting\n")
}

func main() {
	e := experiment.NewExperiment()
	if err := e.LoadFilesAndDirs(flag.Args()...); err != nil {
		log.Fatal(err)
	}

	e.Config.Verbosity = fVerbosity
	if fBurstSize > 0     { e.Config.Synth.BurstSize = fBurstSize }
	if fDownsample > 0    { e.Config.Synth.DownsampleFactor = fDownsample }
	if fInterp != ""      { e.Config.Synth.Interpolation = fInterp }
	if fSeed >= 0         { e.Config.Synth.Seed = fSeed }
	if fParallelism > 0 {
		e.Config.Synth.Parallelism = fParallelism
		e.Config.Evaluation.Parallelism = fParallelism
	}

	if e.Verbosity > 0 {
		log.Printf("Final configuration:-\n\n%s\n", e.Config.AsYaml())
	}

	results, err := e.Run(rand.New(rand.NewSource(e.Config.Synth.Seed)))
	if err != nil {
		log.Fatal(err)
	}

	for i, r := range results {
		fmt.Printf("# %s\n%s\n", r.Source.LoadFilename, r.Report.AsYaml())

		if fDumpDir != "" {
			dir := fDumpDir
			if len(results) > 1 {
				dir = filepath.Join(fDumpDir, fmt.Sprintf("src-%02d", i))
			}
			if err := r.Dump(dir); err != nil {
				log.Fatal(err)
			}
		}
	}
}
