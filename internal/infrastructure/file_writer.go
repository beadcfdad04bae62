package infrastructure

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/juju/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"kautsky-classification/internal/domain"
)

// Suffix names the files of one batch after its inputs, the cluster job
// and the start time.
func Suffix(dataSetsPath, paramsPath string, seed int64, fractionTest float64, now time.Time) string {
	return strings.Join([]string{
		filepath.Base(dataSetsPath),
		filepath.Base(paramsPath),
		strconv.FormatInt(seed, 10),
		strconv.FormatFloat(fractionTest, 'g', -1, 64),
		envOrNone("SGE_TASK_ID"),
		envOrNone("JOB_ID"),
		now.Format("2006-01-02-15-04-05"),
	}, "_")
}

func envOrNone(key string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return "None"
}

type FileNames struct {
	Results   string
	Output    string
	Structure string
	Histogram string
}

func NewFileNames(dir string, kind domain.ClassifierKind, suffix string) FileNames {
	prefix := string(kind)
	name := func(what, ext string) string {
		return filepath.Join(dir, fmt.Sprintf("%s_%s_%s.%s", prefix, what, suffix, ext))
	}
	return FileNames{
		Results:   name("results", "csv"),
		Output:    name("output", "csv"),
		Structure: name("structure", "csv"),
		Histogram: name("histogram", "txt"),
	}
}

// CSVResultWriter writes the results, raw output and structure files. The
// results and output headers are derived from the first message written.
type CSVResultWriter struct {
	logger    *zap.Logger
	params    domain.ParamSet
	iterative bool

	files     []*os.File
	results   *csv.Writer
	output    *csv.Writer
	structure *csv.Writer

	resultsHeader bool
	outputHeader  bool
}

func NewCSVResultWriter(logger *zap.Logger, names FileNames, params domain.ParamSet, iterative bool) (*CSVResultWriter, error) {
	w := &CSVResultWriter{logger: logger, params: params, iterative: iterative}
	var err error
	if w.results, err = w.create(names.Results); err != nil {
		return nil, err
	}
	if w.output, err = w.create(names.Output); err != nil {
		return nil, err
	}
	if w.structure, err = w.create(names.Structure); err != nil {
		return nil, err
	}
	logger.Info("result files created",
		zap.String("results", names.Results),
		zap.String("output", names.Output),
		zap.String("structure", names.Structure))
	return w, nil
}

func (w *CSVResultWriter) create(filename string) (*csv.Writer, error) {
	file, err := os.Create(filename)
	if err != nil {
		_ = w.Close()
		return nil, errors.Trace(err)
	}
	w.files = append(w.files, file)
	return csv.NewWriter(file), nil
}

func (w *CSVResultWriter) WriteResult(msg *domain.ResultMessage) error {
	record := &msg.Record
	if !w.resultsHeader {
		if err := w.results.Write(w.resultsHeaderRow(len(record.Score) - 1)); err != nil {
			return errors.Trace(err)
		}
		w.resultsHeader = true
	}
	row := []string{formatTime(record.Time), strconv.Itoa(record.Repeat)}
	row = append(row, record.Params...)
	if w.iterative {
		row = append(row, strconv.Itoa(record.Iterations))
	}
	row = append(row, lo.Map(record.Score, func(v float64, _ int) string {
		return formatFloat(v)
	})...)
	row = append(row, formatFloat(record.Baseline))
	if err := w.results.Write(row); err != nil {
		return errors.Trace(err)
	}

	for _, raw := range msg.Raw {
		if !w.outputHeader {
			if err := w.output.Write(outputHeaderRow(raw.Truth)); err != nil {
				return errors.Trace(err)
			}
			w.outputHeader = true
		}
		row := lo.Map(append(raw.Predicted.Values(), raw.Truth.Values()...), func(v int, _ int) string {
			return strconv.Itoa(v)
		})
		if err := w.output.Write(append(row, strconv.Itoa(raw.Repeat))); err != nil {
			return errors.Trace(err)
		}
	}

	if len(msg.Structure) > 0 {
		row := append([]string{formatTime(record.Time), strconv.Itoa(record.Repeat)}, msg.Structure...)
		if err := w.structure.Write(row); err != nil {
			return errors.Trace(err)
		}
	}
	return w.flush()
}

func (w *CSVResultWriter) resultsHeaderRow(partials int) []string {
	header := []string{"time", "run"}
	header = append(header, w.params.Header()...)
	if w.iterative {
		header = append(header, "num.iterations")
	}
	header = append(header, "all.score")
	for i := range partials {
		header = append(header, fmt.Sprintf("partial.score.%d", i+1))
	}
	return append(header, "random.chance.win")
}

func outputHeaderRow(label domain.Label) []string {
	if label.Kind == domain.LabelScalar {
		return []string{"predicted.class", "real.class", "run"}
	}
	var header []string
	for _, what := range []string{"predicted", "real"} {
		for i := range label.Width() {
			header = append(header, fmt.Sprintf("%s.class.%d", what, i+1))
		}
	}
	return append(header, "run")
}

func (w *CSVResultWriter) flush() error {
	for _, writer := range []*csv.Writer{w.results, w.output, w.structure} {
		if writer == nil {
			continue
		}
		writer.Flush()
		if err := writer.Error(); err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}

// Close flushes and closes every file, reporting the first error.
func (w *CSVResultWriter) Close() error {
	err := w.flush()
	for _, file := range w.files {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = errors.Trace(cerr)
		}
	}
	w.files = nil
	return err
}

// formatTime writes seconds since the epoch with microseconds.
func formatTime(t time.Time) string {
	return fmt.Sprintf("%d.%06d", t.Unix(), t.Nanosecond()/1000)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

type TXTFileWriter struct {
	logger *zap.Logger
}

func NewTXTFileWriter(logger *zap.Logger) *TXTFileWriter {
	return &TXTFileWriter{logger: logger}
}

func (w *TXTFileWriter) WriteHistogram(filename string, hist *domain.Histogram) error {
	file, err := os.Create(filename)
	if err != nil {
		return errors.Trace(err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	fmt.Fprintf(writer, "%s\n", strings.Join([]string{"X", "Y"}, "\t"))
	for i := range hist.Len {
		fmt.Fprintf(writer, "%.2e\t%10d\n", hist.Bins[i], hist.Vals[i])
	}
	if err := writer.Flush(); err != nil {
		return errors.Trace(err)
	}
	w.logger.Info("histogram written", zap.String("file", filename), zap.Int("bins", hist.Len))
	return nil
}
