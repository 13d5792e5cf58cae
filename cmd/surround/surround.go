package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/akamensky/argparse"
	"github.com/coreos/go-systemd/daemon"
	"github.com/cyclopcam/logs"
	"github.com/johaankjis/Surround-Surveillance-Perception-System/pkg/detect"
	"github.com/johaankjis/Surround-Surveillance-Perception-System/server"
	"github.com/johaankjis/Surround-Surveillance-Perception-System/server/configdb"
	"github.com/johaankjis/Surround-Surveillance-Perception-System/server/engine"
)

func main() {
	// This is purely for documentation of the cmd-line args
	nominalDefaultDB := "$HOME/surround/config.sqlite"

	parser := argparse.NewParser("surround", "Vehicle surround surveillance perception core")
	configFile := parser.String("c", "config", &argparse.Options{Help: "Configuration database file", Default: nominalDefaultDB})
	port := parser.Int("p", "port", &argparse.Options{Help: "HTTP listen port", Default: 8080})
	synthetic := parser.Flag("", "synthetic", &argparse.Options{Help: "Run off a built-in synthetic detection feed instead of the ingestion API", Default: false})
	seed := parser.Int("", "seed", &argparse.Options{Help: "Seed for the synthetic feed", Default: 42})
	ingestMS := parser.Int("", "ingest-ms", &argparse.Options{Help: "Detection ingestion interval (milliseconds)", Default: 100})
	analyzeMS := parser.Int("", "analyze-ms", &argparse.Options{Help: "Tracking analysis interval (milliseconds)", Default: 2000})
	verbose := parser.Flag("v", "verbose", &argparse.Options{Help: "Log per-track lifecycle events", Default: false})
	if err := parser.Parse(os.Args); err != nil {
		fmt.Print(parser.Usage(err))
		os.Exit(1)
	}

	logger, err := logs.NewLog()
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}

	if *configFile == nominalDefaultDB {
		home, _ := os.UserHomeDir()
		if home == "" {
			home = "/var/lib"
		}
		*configFile = filepath.Join(home, "surround", "config.sqlite")
	}

	cfg, err := configdb.NewConfigDB(logger, *configFile)
	if err != nil {
		logger.Errorf("%v", err)
		os.Exit(1)
	}

	settings := engine.DefaultSettings()
	settings.IngestInterval = time.Duration(*ingestMS) * time.Millisecond
	settings.AnalyzeInterval = time.Duration(*analyzeMS) * time.Millisecond
	settings.Verbose = *verbose
	if policy, err := cfg.GetSeverityPolicy(); err != nil {
		logger.Warnf("Failed to load severity policy, using built-in defaults: %v", err)
	} else if len(policy) != 0 {
		settings.SeverityPolicy = policy
	}

	var source detect.Source
	var channelSource *detect.ChannelSource
	if *synthetic {
		logger.Infof("Using synthetic detection feed (seed %v)", *seed)
		source = detect.NewSyntheticSource(int64(*seed))
	} else {
		channelSource = detect.NewChannelSource(256)
		source = channelSource
	}

	eng := engine.NewEngine(logger, source, settings)

	srv, err := server.NewServer(logger, cfg, eng, channelSource)
	if err != nil {
		logger.Errorf("%v", err)
		os.Exit(1)
	}

	daemon.SdNotify(false, daemon.SdNotifyReady)

	if err := srv.ListenHTTP(fmt.Sprintf(":%v", *port)); err != nil {
		logger.Errorf("ListenHTTP: %v", err)
		os.Exit(1)
	}
}
