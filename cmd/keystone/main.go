// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/z5labs/keystone"
	"github.com/z5labs/keystone/app"
	"github.com/z5labs/keystone/appbuilder"
	"github.com/z5labs/keystone/config"
	"github.com/z5labs/keystone/example/heroes"
	"github.com/z5labs/keystone/healthcheck"
	"github.com/z5labs/keystone/service"
	"github.com/z5labs/keystone/settings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:]...)
	cancel()
	os.Exit(code)
}

func run(ctx context.Context, args ...string) int {
	cmd := rootCmd()
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(ctx)
	return healthcheck.ExitCode(err)
}

type globalFlags struct {
	configFile string
	secretsDir string
}

// sources returns the settings sources in precedence order. The config
// file, when given, is rendered as a template before being parsed as YAML.
func (f *globalFlags) sources() []config.Source {
	var extra []config.Source
	if f.configFile != "" {
		r := config.NewFileReader(os.DirFS(filepath.Dir(f.configFile)), filepath.Base(f.configFile))
		extra = append(extra, config.FromYaml(config.RenderTemplate(r)))
	}
	return settings.Sources(os.DirFS(f.secretsDir), extra...)
}

func rootCmd() *cobra.Command {
	flags := &globalFlags{}

	cmd := &cobra.Command{
		Use:          "keystone",
		Short:        "HTTP service starter",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&flags.configFile, "config", "", "optional YAML config file, rendered as a template first")
	cmd.PersistentFlags().StringVar(&flags.secretsDir, "secrets-dir", settings.SecretsDir, "directory holding one file per secret setting")

	cmd.AddCommand(
		serveCmd(flags),
		healthcheckCmd(flags),
	)
	return cmd
}

func serveCmd(flags *globalFlags) *cobra.Command {
	var withExamples bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API until SIGINT or SIGTERM",
		RunE: func(cmd *cobra.Command, args []string) error {
			var opts []service.Option
			if withExamples {
				opts = append(opts, service.Mount(heroes.Mount))
			}

			builder := appbuilder.Recover(
				appbuilder.OTel(
					appbuilder.LifecycleContext(
						service.Builder(opts...),
					),
				),
			)
			return keystone.Run(cmd.Context(), withSignals(builder), flags.sources()...)
		},
	}
	cmd.Flags().BoolVar(&withExamples, "with-examples", false, "mount the example heroes api")
	return cmd
}

func withSignals[T any](builder keystone.AppBuilder[T]) keystone.AppBuilder[T] {
	return keystone.AppBuilderFunc[T](func(ctx context.Context, cfg T) (keystone.App, error) {
		a, err := builder.Build(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return app.Recover(app.WithSignalNotifications(a, os.Interrupt, syscall.SIGTERM)), nil
	})
}

func healthcheckCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "healthcheck",
		Short: "Probe the healthcheck endpoint of a running server",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := settings.NewProvider(flags.sources()...).Get()
			if err != nil {
				return err
			}

			log := zap.New(zapcore.NewCore(
				zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
				zapcore.Lock(os.Stdout),
				zap.InfoLevel,
			))
			defer log.Sync()

			return healthcheck.Run(cmd.Context(), s, healthcheck.Logger(log))
		},
	}
}
