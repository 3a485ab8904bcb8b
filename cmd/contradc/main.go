// Command contradc simulates one chirped contra-directional coupler from
// command-line parameters and prints its figures of merit. Optionally it
// writes the mask-layout export table and reuses a SQLite chirp-profile
// cache across runs.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/mustafacc/contradc/internal/chirpstore"
	"github.com/mustafacc/contradc/pkg/contradc"
)

func main() {
	def := contradc.DefaultConfig()

	var (
		nPeriods   = flag.Int("periods", def.NPeriods, "total number of grating periods")
		nSeg       = flag.Int("segments", def.NSeg, "number of apodization/chirp segments")
		period     = flag.Float64("pitch", def.Period[0]*1e9, "grating pitch in nm")
		periodEnd  = flag.Float64("pitch-end", 0, "end pitch in nm for a linear chirp (0 = uniform)")
		kappa      = flag.Float64("kappa", def.Kappa, "maximum coupling strength in 1/m")
		apodShape  = flag.String("apod", def.ApodShape, "apodization shape: gaussian|tanh|hann|hamming|blackman")
		apodGain   = flag.Float64("apod-gain", def.ApodGain, "gaussian apodization constant a (0 = uniform)")
		loss       = flag.Float64("loss", def.Loss, "propagation loss in dB/cm")
		temp       = flag.Float64("temperature", def.Temp, "device temperature in K")
		wvlStart   = flag.Float64("wvl-start", def.WvlRange[0]*1e9, "first sampled wavelength in nm")
		wvlEnd     = flag.Float64("wvl-end", def.WvlRange[1]*1e9, "last sampled wavelength in nm")
		resolution = flag.Int("resolution", def.Resolution, "number of wavelength samples")
		stages     = flag.Int("stages", def.Stages, "cascaded stage count")
		w1         = flag.Float64("w1", def.W1[0]*1e9, "waveguide 1 width in nm")
		w1End      = flag.Float64("w1-end", 0, "end width of waveguide 1 in nm (0 = uniform)")
		w2         = flag.Float64("w2", def.W2[0]*1e9, "waveguide 2 width in nm")
		w2End      = flag.Float64("w2-end", 0, "end width of waveguide 2 in nm (0 = uniform)")
		tgtStart   = flag.Float64("target-start", 0, "chirp optimization: first target wavelength in nm (0 = off)")
		tgtEnd     = flag.Float64("target-end", 0, "chirp optimization: last target wavelength in nm")
		cachePath  = flag.String("cache", "", "SQLite chirp-profile cache path (empty = in-memory)")
		gdsPath    = flag.String("gds", "", "write mask-layout export table to this file")
		groupDelay = flag.Bool("group-delay", false, "also report the group delay extrema")
	)
	flag.Parse()

	cfg := def
	cfg.NPeriods = *nPeriods
	cfg.NSeg = *nSeg
	cfg.Period = ramp(*period, *periodEnd)
	cfg.Kappa = *kappa
	cfg.ApodShape = *apodShape
	cfg.ApodGain = *apodGain
	cfg.Loss = *loss
	cfg.Temp = *temp
	cfg.WvlRange = [2]float64{*wvlStart * 1e-9, *wvlEnd * 1e-9}
	cfg.Resolution = *resolution
	cfg.Stages = *stages
	cfg.W1 = ramp(*w1, *w1End)
	cfg.W2 = ramp(*w2, *w2End)
	if *tgtStart > 0 {
		end := *tgtEnd
		if end <= 0 {
			end = *tgtStart
		}
		cfg.TargetWvl = []float64{*tgtStart * 1e-9, end * 1e-9}
	}

	ctx := context.Background()

	store, err := chirpstore.Open(ctx, *cachePath)
	if err != nil {
		log.Fatalf("Opening chirp-profile cache: %v", err)
	}

	dev, err := contradc.New(cfg, contradc.WithChirpStore(store))
	if err != nil {
		log.Fatalf("Invalid device configuration: %v", err)
	}

	log.Println("Starting simulation...")
	if err := dev.Simulate(ctx); err != nil {
		log.Fatalf("Simulation failed: %v", err)
	}

	perf, err := dev.Performance()
	if err != nil {
		log.Fatalf("Performance analysis failed: %v", err)
	}

	fmt.Println("Performance")
	fmt.Printf("  Ref. wvl : %s\n", perf.CenterWavelength)
	fmt.Printf("  BW       : %s\n", perf.Bandwidth)
	fmt.Printf("  Max ref. : %s\n", perf.PeakReflection)
	fmt.Printf("  Avg ref. : %s\n", perf.MeanRipple)
	fmt.Printf("  Std dev. : %s\n", perf.RippleStdDev)

	if *groupDelay {
		gd, err := dev.GroupDelay()
		if err != nil {
			log.Fatalf("Group delay failed: %v", err)
		}
		lo, hi := gd[0], gd[0]
		for _, v := range gd {
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
		fmt.Printf("  Group delay: %.3g s .. %.3g s\n", lo, hi)
	}

	if *gdsPath != "" {
		f, err := os.Create(*gdsPath)
		if err != nil {
			log.Fatalf("Creating export file: %v", err)
		}
		defer f.Close()
		if err := dev.WriteExport(ctx, f); err != nil {
			log.Fatalf("Writing export table: %v", err)
		}
		log.Printf("Mask-layout table written to %s", *gdsPath)
	}
}

// ramp converts a start/end flag pair in nm to the meters-based
// scalar-or-ramp form of the config.
func ramp(startNM, endNM float64) []float64 {
	if endNM <= 0 || endNM == startNM {
		return []float64{startNM * 1e-9}
	}
	return []float64{startNM * 1e-9, endNM * 1e-9}
}
