package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"opsdash/internal/api"
	"opsdash/internal/csvstats"
	"opsdash/internal/dashboard"
	"opsdash/internal/inventory"
	"opsdash/internal/logger"
	"opsdash/internal/sop"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the dashboard HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	od := a.cfg.OpsDash
	logger.Infof("opsdash starting")

	store, err := buildFixtures(a.cfg)
	if err != nil {
		return err
	}
	ops, err := buildOpsStore(ctx, a.cfg)
	if err != nil {
		return err
	}
	defer ops.Close()

	var queue jobQueue
	if od.Pipeline.Enabled || strings.EqualFold(od.Pipeline.Queue.Mode, "redis") {
		queue, err = buildQueue(a.cfg)
		if err != nil {
			return err
		}
	}

	var enq dashboard.Enqueuer
	if queue != nil {
		enq = queue
	}
	svc, err := buildService(a.cfg, store, enq)
	if err != nil {
		return err
	}

	h := &api.Handler{
		Dashboard: svc,
		Ops:       ops,
		Generator: sop.NewGenerator(sop.GeneratorConfig{Delay: od.SOP.GenerateDelay}),
		Inventory: func() []inventory.Connector { return inventory.Load(od.Inventory.Path) },
		MaxDepth:  od.Graph.MaxDepth,
		CSV:       csvstats.New(csvstats.Config{MaxBytes: od.CSV.MaxBytes, PreviewRows: od.CSV.PreviewRows}),
	}
	if strings.EqualFold(od.SOP.Mode, "remote") {
		client, err := sop.NewClient(sop.Config{APIURL: od.SOP.APIURL, Timeout: od.SOP.Timeout, Headers: od.SOP.Headers})
		if err != nil {
			return fmt.Errorf("failed to create SOP client: %w", err)
		}
		h.Remote = client
		logger.Infof("SOP generation: remote (%s)", client.Endpoint())
	} else {
		logger.Infof("SOP generation: local")
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var bg sync.WaitGroup
	if od.Pipeline.Enabled {
		pipe, err := buildPipeline(a.cfg, queue, store, ops)
		if err != nil {
			return err
		}
		bg.Add(1)
		go func() {
			defer bg.Done()
			if err := pipe.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Errorf("Pipeline error: %v", err)
			}
			if err := pipe.Close(); err != nil {
				logger.Errorf("Error closing pipeline: %v", err)
			}
		}()
	} else if queue != nil {
		defer queue.Close()
	}

	srv := &http.Server{
		Addr: od.Server.Addr,
		Handler: api.NewRouter(h, api.Options{
			CORSOrigins:     od.Server.CORSOrigins,
			CORSCredentials: *od.Server.CORSCredentials,
			RequestTimeout:  od.Server.RequestTimeout,
		}),
		ReadTimeout:  od.Server.ReadTimeout,
		WriteTimeout: od.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("HTTP API listening on %s", od.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			cancel()
			bg.Wait()
			return fmt.Errorf("http server: %w", err)
		}
	}

	logger.Infof("Shutting down")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), od.Server.ShutdownTimeout)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("HTTP shutdown: %v", err)
	}
	cancel()
	bg.Wait()
	logger.Infof("opsdash stopped")
	return nil
}
