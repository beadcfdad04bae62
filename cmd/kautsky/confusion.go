package main

import (
	"context"
	"fmt"

	"github.com/juju/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"kautsky-classification/internal/app"
	"kautsky-classification/internal/domain"
	"kautsky-classification/internal/infrastructure"
)

var confusionCommand = &cobra.Command{
	Use:   "confusion FILE...",
	Short: "Print the confusion matrix of one or more raw output files.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return execute(cmd, func(ctx context.Context, logger *zap.Logger, v *viper.Viper) error {
			return runConfusion(cmd, logger, v, args)
		})
	},
}

func init() {
	flags := confusionCommand.Flags()
	flags.Int("classes", 7, "number of classes in the raw output files")
	flags.Bool("normalize", true, "divide every row by the number of samples of its real class")
}

func runConfusion(cmd *cobra.Command, logger *zap.Logger, v *viper.Viper, files []string) error {
	classes := v.GetInt("classes")
	reader := infrastructure.NewTSVFileReader(logger)
	var pairs []domain.ClassPair
	for _, filename := range files {
		read, err := reader.ReadRawOutput(filename, classes)
		if err != nil {
			return errors.Trace(err)
		}
		pairs = append(pairs, read...)
	}
	m, err := app.ConfusionMatrix(pairs, classes)
	if err != nil {
		return errors.Trace(err)
	}
	format := "%v\n"
	if v.GetBool("normalize") {
		m = app.NormalizeRows(m)
		format = "%.2f\n"
	}
	fmt.Fprintln(cmd.OutOrStdout(), "rows: real class 1..N, columns: predicted class 0 (no output) ..N")
	fmt.Fprintf(cmd.OutOrStdout(), format, mat.Formatted(m, mat.Squeeze()))
	return nil
}
