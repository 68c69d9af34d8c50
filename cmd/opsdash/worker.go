package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"opsdash/internal/logger"
	"opsdash/internal/output/natsbus"
	"opsdash/pkg/models"
)

func newWorkerCmd(a *app) *cobra.Command {
	var enqueue []int
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Consume refresh jobs from the queue and record outcomes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.worker(ctx, enqueue)
		},
	}
	cmd.Flags().IntSliceVar(&enqueue, "enqueue", nil, "connector ids to enqueue before consuming")
	return cmd
}

func (a *app) worker(ctx context.Context, enqueue []int) error {
	store, err := buildFixtures(a.cfg)
	if err != nil {
		return err
	}
	ops, err := buildOpsStore(ctx, a.cfg)
	if err != nil {
		return err
	}
	defer ops.Close()

	queue, err := buildQueue(a.cfg)
	if err != nil {
		return err
	}
	if len(enqueue) > 0 {
		if err := enqueueAll(ctx, queue, enqueue); err != nil {
			queue.Close()
			return err
		}
		logger.Infof("Enqueued %d refresh job(s)", len(enqueue))
	}
	if _, err := logBacklog(ctx, queue); err != nil {
		logger.Warnf("%v", err)
	}

	pipe, err := buildPipeline(a.cfg, queue, store, ops)
	if err != nil {
		queue.Close()
		return err
	}
	defer func() {
		if err := pipe.Close(); err != nil {
			logger.Errorf("Error closing pipeline: %v", err)
		}
	}()

	if err := pipe.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("pipeline: %w", err)
	}
	return nil
}

func newWatchCmd(a *app) *cobra.Command {
	var subject string
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print refresh outcomes published on NATS",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			nc := a.cfg.OpsDash.Pipeline.Output.NATS
			if subject == "" {
				subject = nc.Subject
			}
			if subject == "" {
				subject = natsbus.DefaultSubject
			}
			sub, err := natsbus.NewSubscriber(nc.URL)
			if err != nil {
				return err
			}
			defer sub.Close()

			enc := json.NewEncoder(cmd.OutOrStdout())
			if _, err := sub.Subscribe(subject, func(o models.RefreshOutcome) {
				if err := enc.Encode(o); err != nil {
					logger.Warnf("Failed to print outcome %s: %v", o.JobID, err)
				}
			}); err != nil {
				return err
			}
			logger.Infof("Watching %s on %s", subject, nc.URL)
			<-ctx.Done()
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "", "NATS subject (defaults to the configured output subject)")
	return cmd
}
