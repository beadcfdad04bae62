package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"kautsky-classification/internal/infrastructure"
)

var rootCommand = &cobra.Command{
	Use:           "kautsky",
	Short:         "Train and evaluate classifiers of Kautsky curves over a pool of workers.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	flags := rootCommand.PersistentFlags()
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.Bool("log-console", false, "human readable log lines instead of JSON")
	flags.String("log-path", "", "path of log file")
	flags.Int("log-max-size", 100, "maximum size in megabytes of the log file")
	flags.Int("log-max-age", 0, "maximum number of days to retain old log files")
	flags.Int("log-max-backups", 0, "maximum number of old log files to retain")
	flags.Int("metrics-port", 0, "serve Prometheus metrics on this port, 0 disables")

	rootCommand.AddCommand(masterCommand, workerCommand, runCommand, confusionCommand, dataSetsCommand)
}

// newViper layers KAUTSKY_* environment variables over the command flags.
func newViper(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("KAUTSKY")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	cmd.Flags().VisitAll(func(flag *pflag.Flag) {
		_ = v.BindPFlag(flag.Name, flag)
	})
	return v
}

// execute sets up logging, metrics and signal handling around body and
// logs the error it returns. Deferred cleanup inside body has already run
// when the error is logged.
func execute(cmd *cobra.Command, body func(ctx context.Context, logger *zap.Logger, v *viper.Viper) error) error {
	v := newViper(cmd)
	logger := infrastructure.NewLogger(infrastructure.LogOptions{
		Level:      v.GetString("log-level"),
		Console:    v.GetBool("log-console"),
		Path:       v.GetString("log-path"),
		MaxSize:    v.GetInt("log-max-size"),
		MaxAge:     v.GetInt("log-max-age"),
		MaxBackups: v.GetInt("log-max-backups"),
	})
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if port := v.GetInt("metrics-port"); port > 0 {
		server := &http.Server{Addr: ":" + strconv.Itoa(port), Handler: promhttp.Handler()}
		go func() {
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server stopped", zap.Error(err))
			}
		}()
		defer server.Close()
		logger.Info("serving metrics", zap.Int("port", port))
	}

	if err := body(ctx, logger, v); err != nil {
		logger.Error("command failed", zap.String("command", cmd.Name()), zap.Error(err))
		return err
	}
	return nil
}

func main() {
	if err := rootCommand.Execute(); err != nil {
		os.Exit(1)
	}
}
