package main

import (
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	batchChunkSize int
	enrichLimit    int
	dispatchLimit  int
)

var processBatchCmd = &cobra.Command{
	Use:   "process-batch",
	Short: "Normalize, deduplicate and score every lead that was never scored",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initApp(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		chunk := batchChunkSize
		if chunk <= 0 {
			chunk = cfg.Pipeline.ChunkSize
		}
		summary, err := env.Processor.ProcessBatch(ctx, chunk)
		if err != nil {
			return eris.Wrap(err, "process batch")
		}

		zap.L().Info("process-batch complete",
			zap.Int("processed", summary.Processed),
			zap.Int("errors", summary.Errors),
			zap.Int("high_priority", summary.HighPriority),
			zap.Int("duplicates", summary.Duplicates),
		)
		return nil
	},
}

var enrichBatchCmd = &cobra.Command{
	Use:   "enrich-batch",
	Short: "Run the configured enrichment providers over leads that were never enriched",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initApp(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		if len(env.Enrichment.Providers()) == 0 {
			return eris.New("no enrichment providers configured")
		}

		summary, err := env.Enrichment.EnrichBatch(ctx, enrichLimit)
		if err != nil {
			return eris.Wrap(err, "enrich batch")
		}

		zap.L().Info("enrich-batch complete",
			zap.Int("enriched", summary.Enriched),
			zap.Int("errors", summary.Errors),
			zap.Int("high_quality", summary.HighQuality),
		)
		return nil
	},
}

var dispatchAlertsCmd = &cobra.Command{
	Use:   "dispatch-alerts",
	Short: "Deliver unsent lead alerts through Telegram and email",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initApp(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		if env.Dispatcher == nil {
			return eris.New("no alert channels configured")
		}

		summary, err := env.Dispatcher.DispatchPending(ctx, dispatchLimit)
		if err != nil {
			return eris.Wrap(err, "dispatch alerts")
		}

		zap.L().Info("dispatch-alerts complete",
			zap.Int("sent", summary.Sent),
			zap.Int("failed", summary.Failed),
		)
		return nil
	},
}

func init() {
	processBatchCmd.Flags().IntVar(&batchChunkSize, "chunk-size", 0, "records per chunk (defaults to PIPELINE_CHUNK_SIZE)")
	enrichBatchCmd.Flags().IntVar(&enrichLimit, "limit", 50, "maximum records to enrich")
	dispatchAlertsCmd.Flags().IntVar(&dispatchLimit, "limit", 50, "maximum alerts to send")

	rootCmd.AddCommand(processBatchCmd, enrichBatchCmd, dispatchAlertsCmd)
}
