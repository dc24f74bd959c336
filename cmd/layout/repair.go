package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/mikeydub/go-gallery-layout/env"
	"github.com/mikeydub/go-gallery-layout/service/persist"
	"github.com/mikeydub/go-gallery-layout/service/persist/postgres"
	"github.com/mikeydub/go-gallery-layout/service/repair"
	"github.com/mikeydub/go-gallery-layout/util"
	"github.com/mikeydub/go-gallery-layout/util/retry"
)

type repairOptions struct {
	dryRun    bool
	workers   int
	batchSize int
}

func newRepairCmd(root *rootOptions) *cobra.Command {
	opts := &repairOptions{}

	cmd := &cobra.Command{
		Use:   "repair [COLLECTION_ID...]",
		Short: "Rewrite collection layouts so they fit the tokens that still exist",
		Long:  "Rewrite collection layouts so they fit the tokens that still exist. Repairs every collection when no IDs are given.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			defer util.Track(ctx, "repairing collection layouts", time.Now())

			if !cmd.Flags().Changed("workers") {
				opts.workers = env.GetInt(ctx, "LAYOUT_REPAIR_WORKERS")
			}
			if !cmd.Flags().Changed("batch-size") {
				opts.batchSize = env.GetInt(ctx, "LAYOUT_REPAIR_BATCH_SIZE")
			}
			if !cmd.Flags().Changed("dry-run") {
				opts.dryRun = env.GetBool(ctx, "LAYOUT_REPAIR_DRY_RUN")
			}

			// Each worker holds at most one connection, plus one for listing collections
			pgx, err := postgres.NewPgxClient(ctx,
				postgres.WithAppName("layout-repair"),
				postgres.WithMaxConns(int32(opts.workers+1)),
				postgres.WithRetries(retry.DefaultRetry),
			)
			if err != nil {
				return err
			}
			defer pgx.Close()

			repairer := repair.NewRepairer(
				postgres.NewCollectionLayoutRepository(pgx),
				repair.WithWorkers(opts.workers),
				repair.WithBatchSize(opts.batchSize),
				repair.WithDryRun(opts.dryRun),
			)

			report, err := repairer.Run(ctx, persist.StringsToDBIDs(args))
			if err != nil {
				return err
			}

			return printResult(cmd, root.output, report)
		},
	}

	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "report changes without writing them (default LAYOUT_REPAIR_DRY_RUN)")
	cmd.Flags().IntVar(&opts.workers, "workers", 0, "collections to repair concurrently (default LAYOUT_REPAIR_WORKERS)")
	cmd.Flags().IntVar(&opts.batchSize, "batch-size", 0, "collections to list per query (default LAYOUT_REPAIR_BATCH_SIZE)")

	return cmd
}
