package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"
	"github.com/oomph-ac/reckon"
	"github.com/oomph-ac/reckon/example/internal/demo"
	"github.com/oomph-ac/reckon/session"
	"github.com/oomph-ac/reckon/settings"
	"github.com/oomph-ac/reckon/store"
	"github.com/oomph-ac/reckon/validator"
	"github.com/oomph-ac/reckon/worker"
	"github.com/sirupsen/logrus"
)

// The following program runs a server that validates and relays the movement of every client in the
// demo world.
func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{
		ForceColors:     true,
		TimestampFormat: "2006-01-02 15:04:05",
		FullTimestamp:   true,
	})

	s, err := settings.LoadOrCreate("config.toml")
	if err != nil {
		log.Fatalf("error loading settings: %v", err)
	}
	if lvl, err := logrus.ParseLevel(s.Server.LogLevel); err == nil {
		log.SetLevel(lvl)
	}

	if s.Server.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: s.Server.SentryDSN}); err != nil {
			log.Fatalf("error initialising sentry: %v", err)
		}
		defer sentry.Flush(time.Second * 5)
	}

	if os.Getenv("PPROF_ENABLED") != "" {
		// set configurations before calling `statsview.New()` method
		viewer.SetConfiguration(viewer.WithTheme(viewer.ThemeWesteros), viewer.WithAddr("localhost:8080"))

		mgr := statsview.New()
		go mgr.Start()
		defer mgr.Stop()
	}

	var recorder validator.Recorder
	if s.Server.StorePath != "" {
		st, err := store.Open(s.Server.StorePath, log)
		if err != nil {
			log.Fatalf("error opening violation store: %v", err)
		}
		defer st.Close()
		recorder = worker.NewRecorder(st, log)
	}

	srv, err := reckon.Listen(reckon.Config{
		Address:   s.Server.Address,
		World:     demo.World(log),
		Validator: s.ValidatorConfig(),
		Rules:     s.ValidatorRules(),
		Session: session.Options{
			ReportsPerSecond: s.Server.ReportsPerSecond,
			ReportBurst:      s.Server.ReportBurst,
			LatencySamples:   session.DefaultOptions().LatencySamples,
		},
		Recorder: recorder,
		Log:      log,
	})
	if err != nil {
		log.Fatalf("error starting server: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := srv.Serve(ctx); err != nil {
		log.Errorf("server stopped: %v", err)
	}
	_ = srv.Close()
}
