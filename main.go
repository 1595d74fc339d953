package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cranial-data/landmark.report/internal/api"
	"github.com/cranial-data/landmark.report/internal/config"
	"github.com/cranial-data/landmark.report/internal/db"
	"github.com/cranial-data/landmark.report/internal/digitizer"
	"github.com/cranial-data/landmark.report/internal/landmark"
	"github.com/cranial-data/landmark.report/internal/report"
	"github.com/cranial-data/landmark.report/internal/version"
)

var (
	devMode    = flag.Bool("dev", false, "Run in dev mode (read probe lines from fixtures.txt)")
	listen     = flag.String("listen", "", "Listen address (overrides config)")
	configPath = flag.String("config", "", "Path to project config JSON")
	serialPort = flag.String("serial", "", "Digitizer serial port (overrides config)")
	studyName  = flag.String("study", "", "Study to record digitized points into")
)

func main() {
	flag.Parse()

	log.Printf("landmark.report %s (%s, built %s)", version.Version, version.GitSHA, version.BuildTime)

	cfg := config.Empty()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
	}

	// "landmark-report migrate <action>" manages the schema and exits.
	if flag.Arg(0) == "migrate" {
		db.RunMigrateCommand(flag.Args()[1:], cfg.GetDBPath())
		return
	}

	addr := cfg.GetListenAddr()
	if *listen != "" {
		addr = *listen
	}

	names := landmark.DefaultNames
	if nf := cfg.GetNamesFile(); nf != "" {
		loaded, err := config.LoadNames(nf)
		if err != nil {
			log.Fatalf("failed to load landmark names: %v", err)
		}
		names = loaded
	}

	database, err := db.NewDB(cfg.GetDBPath())
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer database.Close()

	// Wait group for the HTTP server, digitizer monitor, and intake routines
	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	port := cfg.GetDigitizerPort()
	if *serialPort != "" {
		port = *serialPort
	}

	var dig *digitizer.Digitizer
	switch {
	case *devMode:
		dig = digitizer.NewMockDigitizer(mustReadFixtures())
	case port != "":
		dig, err = digitizer.Open(port, cfg.GetDigitizerBaud())
		if err != nil {
			log.Fatalf("failed to open digitizer port: %v", err)
		}
	}

	if dig != nil {
		defer dig.Close()

		study, err := activeStudy(database, *studyName)
		if err != nil {
			log.Fatalf("failed to resolve study for digitizer intake: %v", err)
		}
		log.Printf("recording digitized points into study %q (%s)", study.Name, study.ID)

		// run the monitor routine to manage IO on the serial port
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := dig.Monitor(ctx); err != nil && err != context.Canceled {
				log.Printf("failed to monitor digitizer port: %v", err)
			}
			log.Print("monitor routine terminated")
		}()

		// consume probe readings and record them as fiducials
		wg.Add(1)
		go func() {
			defer wg.Done()
			intake := newIntake(database, study.ID, names)
			for {
				select {
				case r, ok := <-dig.Readings():
					if !ok {
						log.Print("intake routine terminated: readings channel closed")
						return
					}
					if err := intake.Record(r); err != nil {
						log.Printf("error recording reading: %v", err)
					}
				case <-ctx.Done():
					log.Print("intake routine terminated")
					return
				}
			}
		}()
	}

	// HTTP server goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()

		mux := http.NewServeMux()

		// mount the admin debugging routes (accessible only in dev mode or over Tailscale)
		database.AttachAdminRoutes(mux)
		mux.HandleFunc("/debug/charts/landmarks", report.ChartHandler(database, names))

		apiMux := api.NewServer(database, names, cfg.GetUnits()).ServeMux()
		mux.Handle("/api/", apiMux)

		server := &http.Server{
			Addr:    addr,
			Handler: api.LoggingMiddleware(mux),
		}

		go func() {
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()
		log.Printf("listening on %s", addr)

		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
		}

		log.Printf("HTTP server routine stopped")
	}()

	wg.Wait()
	log.Printf("graceful shutdown complete")
}
