package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/agrochain/ledger/app/services/node/handlers"
	"github.com/agrochain/ledger/foundation/blockchain/genesis"
	"github.com/agrochain/ledger/foundation/blockchain/state"
	"github.com/agrochain/ledger/foundation/blockchain/worker"
	"github.com/agrochain/ledger/foundation/events"
	"github.com/agrochain/ledger/foundation/logger"
	"github.com/agrochain/ledger/foundation/nameservice"
	"github.com/ardanlabs/conf/v3"
	"go.uber.org/zap"
)

// build is the git version of this program. It is set using build flags in the makefile.
var build = "develop"

func main() {

	// Construct the application logger.
	log, err := logger.New("LEDGER")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	// Perform the startup and shutdown sequence.
	if err := run(log); err != nil {
		log.Errorw("startup", "ERROR", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(log *zap.SugaredLogger) error {

	// =========================================================================
	// Configuration

	// This is all the configuration for the application and the default values.
	// Configuration values will be passed through the application as individual
	// values.
	cfg := struct {
		conf.Version
		Web struct {
			ReadTimeout     time.Duration `conf:"default:5s"`
			WriteTimeout    time.Duration `conf:"default:60s"`
			IdleTimeout     time.Duration `conf:"default:120s"`
			ShutdownTimeout time.Duration `conf:"default:20s"`
			DebugHost       string        `conf:"default:0.0.0.0:7080"`
			PublicHost      string        `conf:"default:0.0.0.0:8080"`
			CorsOrigin      string        `conf:"default:*"`
		}
		State struct {
			GenesisFile   string        `conf:"help:json yaml or toml genesis file or empty for the built in defaults"`
			MiningTimeout time.Duration `conf:"default:30s"`
		}
		Storage struct {
			Kind         string `conf:"default:disk,help:memory disk leveldb badger postgres"`
			Path         string `conf:"default:zblock/blocks"`
			DSN          string `conf:"mask"`
			MaxIdleConns int    `conf:"default:2"`
			MaxOpenConns int    `conf:"default:10"`
		}
		NameService struct {
			Folder string `conf:"default:zblock/actors/"`
		}
	}{
		Version: conf.Version{
			Build: build,
			Desc:  "agricultural supply chain ledger",
		},
	}

	// Parse will set the defaults and then look for any overriding values
	// in environment variables and command line flags.
	const prefix = "LEDGER"
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	// =========================================================================
	// App Starting

	log.Infow("starting service", "version", build)
	defer log.Infow("shutdown complete")

	// Display the current configuration to the logs.
	out, err := conf.String(&cfg)
	if err != nil {
		return fmt.Errorf("generating config for output: %w", err)
	}
	log.Infow("startup", "config", out)

	// =========================================================================
	// Name Service Support

	// The nameservice package provides display names for the actor ids
	// recorded in transactions.
	ns, err := nameservice.New(cfg.NameService.Folder)
	if err != nil {
		return fmt.Errorf("unable to load actor name service: %w", err)
	}

	// Logging the actors for documentation in the logs.
	for id, actor := range ns.Copy() {
		log.Infow("startup", "status", "nameservice", "id", id, "name", actor.Name, "role", actor.Role)
	}

	// =========================================================================
	// Ledger Support

	gen := genesis.Default()
	if cfg.State.GenesisFile != "" {
		gen, err = genesis.Load(cfg.State.GenesisFile)
		if err != nil {
			return fmt.Errorf("unable to load genesis: %w", err)
		}
	}

	storage, err := openStorage(storageConfig{
		Kind:         cfg.Storage.Kind,
		Path:         cfg.Storage.Path,
		DSN:          cfg.Storage.DSN,
		MaxIdleConns: cfg.Storage.MaxIdleConns,
		MaxOpenConns: cfg.Storage.MaxOpenConns,
	})
	if err != nil {
		return fmt.Errorf("unable to open storage: %w", err)
	}

	// The ledger packages accept a function of this signature to allow the
	// application to log. The raw messages are also sent to any websocket
	// client that is connected into the system through the events package.
	evts := events.New()
	ev := func(v string, args ...any) {
		s := fmt.Sprintf(v, args...)
		if !strings.HasPrefix(s, "viewer:") {
			log.Infow(s, "traceid", "00000000-0000-0000-0000-000000000000")
		}
		evts.Send(s)
	}

	// The state value represents the ledger and manages the chain database
	// and provides an API for application support.
	state, err := state.New(state.Config{
		Genesis:       gen,
		Storage:       storage,
		MiningTimeout: cfg.State.MiningTimeout,
		EvHandler:     ev,
	})
	if err != nil {
		storage.Close()
		return err
	}
	defer state.Shutdown()

	// The worker package implements the background mining workflow. The
	// worker will register itself with the state.
	worker.Run(state, ev)

	// =========================================================================
	// Start Debug Service

	log.Infow("startup", "status", "debug v1 router started", "host", cfg.Web.DebugHost)

	// Construct the mux for the debug calls.
	debugMux := handlers.DebugMux(build, log, state)

	// Start the service listening for debug requests.
	// Not concerned with shutting this down with load shedding.
	go func() {
		if err := http.ListenAndServe(cfg.Web.DebugHost, debugMux); err != nil {
			log.Errorw("shutdown", "status", "debug v1 router closed", "host", cfg.Web.DebugHost, "ERROR", err)
		}
	}()

	// =========================================================================
	// Service Start/Stop Support

	// Make a channel to listen for an interrupt or terminate signal from the OS.
	// Use a buffered channel because the signal package requires it.
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	// Make a channel to listen for errors coming from the listener. Use a
	// buffered channel so the goroutine can exit if we don't collect this error.
	serverErrors := make(chan error, 1)

	// =========================================================================
	// Start Public Service

	log.Infow("startup", "status", "initializing V1 public API support")

	// Construct the mux for the public API calls.
	publicMux := handlers.PublicMux(handlers.MuxConfig{
		Shutdown:    shutdown,
		Log:         log,
		State:       state,
		NS:          ns,
		Evts:        evts,
		CorsOrigins: cfg.Web.CorsOrigin,
	})

	// Construct a server to service the requests against the mux.
	public := http.Server{
		Addr:         cfg.Web.PublicHost,
		Handler:      publicMux,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		ErrorLog:     zap.NewStdLog(log.Desugar()),
	}

	// Start the service listening for api requests.
	go func() {
		log.Infow("startup", "status", "public api router started", "host", public.Addr)
		serverErrors <- public.ListenAndServe()
	}()

	// =========================================================================
	// Shutdown

	// Blocking main and waiting for shutdown.
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		log.Infow("shutdown", "status", "shutdown started", "signal", sig)
		defer log.Infow("shutdown", "status", "shutdown complete", "signal", sig)

		// Release any web sockets that are currently active.
		log.Infow("shutdown", "status", "shutdown web socket channels")
		evts.Shutdown()

		// Give outstanding requests a deadline for completion.
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancel()

		// Asking listener to shut down and shed load.
		log.Infow("shutdown", "status", "shutdown public API started")
		if err := public.Shutdown(ctx); err != nil {
			public.Close()
			return fmt.Errorf("could not stop public service gracefully: %w", err)
		}
	}

	return nil
}
