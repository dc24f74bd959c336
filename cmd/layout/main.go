// Decodes, encodes, validates and repairs collection layouts.
package main

import (
	"context"
	"os"

	sentrypkg "github.com/getsentry/sentry-go"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mikeydub/go-gallery-layout/env"
	"github.com/mikeydub/go-gallery-layout/service/logger"
	sentryutil "github.com/mikeydub/go-gallery-layout/service/sentry"
	"github.com/mikeydub/go-gallery-layout/util"
)

type rootOptions struct {
	env    string
	output string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "layout",
		Short:         "Work with collection layouts",
		Long:          "Decode stored collection layouts into staged sections, encode them back, and repair layouts that no longer fit their tokens",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := validateOutput(opts.output); err != nil {
				return err
			}
			if env.GetString(cmd.Context(), "ENV") == "local" && opts.env != "local" {
				util.LoadEnvFile(util.ResolveEnvFile("layout", opts.env))
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.env, "env", "e", "local", "source env to pull")
	cmd.PersistentFlags().StringVarP(&opts.output, "output", "o", outputJSON, "output format: json or yaml")

	cmd.AddCommand(
		newDecodeCmd(opts),
		newEncodeCmd(opts),
		newValidateCmd(opts),
		newUpgradeCmd(opts),
		newRepairCmd(opts),
	)

	return cmd
}

func main() {
	setDefaults()
	initLogger()
	initSentry()
	defer sentrypkg.Flush(sentryFlushTimeout)

	ctx := context.Background()
	if hub := sentrypkg.CurrentHub(); hub != nil {
		ctx = sentryutil.NewSentryHubContext(ctx, hub)
	}

	if err := run(ctx, os.Args[1:]); err != nil {
		logger.For(ctx).WithError(err).Error("layout command failed")
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) (err error) {
	defer sentryutil.RecoverAndRaise(ctx)
	cmd := newRootCmd()
	cmd.SetArgs(args)
	return cmd.ExecuteContext(ctx)
}

func setDefaults() {
	viper.SetDefault("ENV", "local")
	viper.SetDefault("POSTGRES_HOST", "0.0.0.0")
	viper.SetDefault("POSTGRES_PORT", 5432)
	viper.SetDefault("POSTGRES_USER", "gallery_backend")
	viper.SetDefault("POSTGRES_PASSWORD", "")
	viper.SetDefault("POSTGRES_DB", "postgres")
	viper.SetDefault("SENTRY_DSN", "")
	viper.SetDefault("SENTRY_TRACES_SAMPLE_RATE", "1.0")
	viper.SetDefault("GAE_VERSION", "")
	viper.SetDefault("LAYOUT_REPAIR_WORKERS", 8)
	viper.SetDefault("LAYOUT_REPAIR_BATCH_SIZE", 100)
	viper.SetDefault("LAYOUT_REPAIR_DRY_RUN", false)
	viper.AutomaticEnv()

	env.RegisterValidation("ENV", "required", "oneof=local dev prod")
	env.RegisterValidation("LAYOUT_REPAIR_WORKERS", "gte=1")
	env.RegisterValidation("LAYOUT_REPAIR_BATCH_SIZE", "gte=1")
}

func initLogger() {
	if env.GetString(context.Background(), "ENV") != "local" {
		logger.InitWithGCPDefaults()
	}
}

func initSentry() {
	ctx := context.Background()

	if env.GetString(ctx, "ENV") == "local" {
		logger.For(ctx).Info("skipping sentry init")
		return
	}

	logger.For(ctx).Info("initializing sentry...")

	err := sentrypkg.Init(sentrypkg.ClientOptions{
		MaxSpans:         100000,
		Dsn:              env.GetString(ctx, "SENTRY_DSN"),
		Environment:      env.GetString(ctx, "ENV"),
		TracesSampleRate: env.GetFloat64(ctx, "SENTRY_TRACES_SAMPLE_RATE"),
		Release:          env.GetString(ctx, "GAE_VERSION"),
		AttachStacktrace: true,
		BeforeSend:       sentryutil.UpdateErrorFingerprints,
	})

	if err != nil {
		logger.For(ctx).Fatalf("failed to start sentry: %s", err)
	}
}
