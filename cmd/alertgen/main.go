package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"strings"
	"time"

	"safewatch/internal/alertparse"
	"safewatch/internal/gateway/app"
	"safewatch/internal/gateway/config"
	"safewatch/internal/geolocation"
	"safewatch/internal/incident"
	"safewatch/internal/repository/artifact"
	"safewatch/internal/task"
	"safewatch/internal/types"
)

func main() {
	location := flag.String("location", "", "street address, e.g. \"Coetzenberg Way, Edgemead, Cape Town\"")
	lat := flag.Float64("lat", 0, "latitude of the location (required with -lng)")
	lng := flag.Float64("lng", 0, "longitude of the location (required with -lat)")
	radius := flag.Float64("radius", 5, "radius in km")
	country := flag.String("country", "", "country name or ISO code")
	geolocate := flag.Bool("geolocate", false, "also run the geolocation pipeline and wait for it")
	outDir := flag.String("out", "out", "directory for geolocation artifacts")
	flag.Parse()
	if strings.TrimSpace(*location) == "" {
		log.Fatal("--location is required")
	}

	cfg, err := config.LoadArgs(nil)
	if err != nil {
		log.Fatal(err)
	}
	logger := log.New(os.Stderr, "", log.LstdFlags)

	ctx := context.Background()
	client, err := app.NewLLMClient(ctx, cfg.LLM, logger)
	if err != nil {
		log.Fatal(err)
	}
	if client == nil {
		log.Fatalf("no api key configured for llm provider %q", cfg.LLM.Provider)
	}
	defer client.Close()

	recovery, err := alertparse.RecoveryByName(cfg.AlertRecovery)
	if err != nil {
		log.Fatal(err)
	}
	p, err := incident.New(incident.Config{
		Searcher:    app.NewSearcher(cfg.Search, logger),
		LLM:         client,
		Parser:      alertparse.New(recovery),
		Logger:      logger,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
	})
	if err != nil {
		log.Fatal(err)
	}

	res, err := p.Generate(ctx, incident.Request{
		Location:    *location,
		RadiusKm:    *radius,
		Coordinates: coordinatesFromFlags(flag.CommandLine, *lat, *lng),
		Country:     *country,
	})
	if err != nil {
		log.Fatal(err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(res.Alerts); err != nil {
		log.Fatal(err)
	}

	if !*geolocate {
		return
	}
	store, err := artifact.NewFileStore(*outDir)
	if err != nil {
		log.Fatal(err)
	}
	geo := geolocation.New(geolocation.Config{LLM: client, Store: store, Logger: logger})
	var geoRes geolocation.Result
	h := task.Go(ctx, "geolocation", func(ctx context.Context) error {
		geoRes = geo.Process(ctx, res.Query, res.SearchResults)
		return nil
	})
	waitCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()
	if err := h.Wait(waitCtx); err != nil {
		log.Fatalf("geolocation: %v", err)
	}
	if !geoRes.Success {
		log.Fatalf("geolocation failed: %s", geoRes.Error)
	}
	log.Printf("geolocation: %d incidents via %s -> %s/%s", geoRes.IncidentsGenerated, geoRes.Method, *outDir, geoRes.ArtifactKey)
}

// coordinatesFromFlags returns nil unless both -lat and -lng were given, so a
// run without a position fails instead of using 0,0.
func coordinatesFromFlags(fs *flag.FlagSet, lat, lng float64) *types.Coordinates {
	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if !set["lat"] || !set["lng"] {
		return nil
	}
	return &types.Coordinates{Lat: lat, Lng: lng}
}
