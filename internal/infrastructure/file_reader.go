package infrastructure

import (
	"bufio"
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/juju/errors"
	"go.uber.org/zap"

	"kautsky-classification/internal/domain"
)

type TSVFileReader struct {
	logger *zap.Logger
}

func NewTSVFileReader(logger *zap.Logger) *TSVFileReader {
	return &TSVFileReader{logger: logger}
}

// ReadDataSets loads every configured data set in configuration order. Ids
// are assigned by registry as each file is read.
func (r *TSVFileReader) ReadDataSets(config *domain.DataSetsConfig, registry *domain.ClassRegistry) ([]*domain.DataSet, error) {
	dataSets := make([]*domain.DataSet, 0, len(config.DataSets))
	for _, entry := range config.DataSets {
		ds, err := r.ReadDataSet(entry.Filename, entry.Class, config.HasHeader, registry)
		if err != nil {
			return nil, errors.Trace(err)
		}
		dataSets = append(dataSets, ds)
	}
	return dataSets, nil
}

func (r *TSVFileReader) ReadDataSet(filename string, class domain.Label, hasHeader bool, registry *domain.ClassRegistry) (*domain.DataSet, error) {
	r.logger.Info("reading data set", zap.String("file", filename), zap.Stringer("class", class))
	file, err := os.Open(filename)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer file.Close()

	ds := &domain.DataSet{Filename: filename, Class: class}
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(text) == "" {
			continue
		}
		fields := strings.Split(text, "\t")
		if hasHeader && ds.Header == nil {
			ds.Header = fields
			continue
		}
		row := make([]float64, len(fields))
		for j, field := range fields {
			value, err := strconv.ParseFloat(strings.Trim(strings.TrimSpace(field), `"`), 64)
			if err != nil {
				return nil, errors.Annotatef(domain.ErrInvalidFileFormat, "%s:%d column %d: %v", filename, line, j+1, err)
			}
			row[j] = value
		}
		if len(ds.Records) > 0 && len(row) != len(ds.Records[0]) {
			return nil, errors.Annotatef(domain.ErrRowWidth, "%s:%d has %d columns, expected %d", filename, line, len(row), len(ds.Records[0]))
		}
		ds.Records = append(ds.Records, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Trace(err)
	}
	if len(ds.Records) == 0 {
		return nil, errors.Annotatef(domain.ErrInvalidFileFormat, "%s has no records", filename)
	}
	ds.ID = registry.Assign()
	r.logger.Debug("data set loaded",
		zap.String("file", filename),
		zap.Int("id", ds.ID),
		zap.Int("records", ds.Len()))
	return ds, nil
}

// ReadRawOutput decodes a raw output file into class pairs. One-hot files
// must carry exactly classes predicted and classes real columns; scalar
// files a predicted.class and a real.class column. A row without a real
// class, or with a class above classes, is rejected.
func (r *TSVFileReader) ReadRawOutput(filename string, classes int) ([]domain.ClassPair, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if err != nil {
		return nil, errors.Annotatef(domain.ErrInvalidFileFormat, "%s: %v", filename, err)
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(name)] = i
	}
	decode, err := pairDecoder(columns, classes)
	if err != nil {
		return nil, errors.Annotate(err, filename)
	}

	var pairs []domain.ClassPair
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Annotatef(domain.ErrInvalidFileFormat, "%s:%d: %v", filename, line, err)
		}
		if len(record) != len(header) {
			return nil, errors.Annotatef(domain.ErrRowWidth, "%s:%d has %d values, expected %d", filename, line, len(record), len(header))
		}
		pair, err := decode(record)
		if err != nil {
			return nil, errors.Annotatef(err, "%s:%d", filename, line)
		}
		pairs = append(pairs, pair)
	}
	r.logger.Debug("raw output loaded", zap.String("file", filename), zap.Int("rows", len(pairs)))
	return pairs, nil
}

func pairDecoder(columns map[string]int, classes int) (func([]string) (domain.ClassPair, error), error) {
	if classes < 1 {
		return nil, errors.NotValidf("%d classes", classes)
	}
	if p, ok := columns["predicted.class"]; ok {
		t, ok := columns["real.class"]
		if !ok {
			return nil, errors.Annotate(domain.ErrInvalidFileFormat, "missing real.class column")
		}
		return func(record []string) (domain.ClassPair, error) {
			predicted, err := parseClass(record[p])
			if err != nil {
				return domain.ClassPair{}, err
			}
			real, err := parseClass(record[t])
			if err != nil {
				return domain.ClassPair{}, err
			}
			if predicted < 0 || predicted > classes || real < 1 || real > classes {
				return domain.ClassPair{}, errors.Annotatef(domain.ErrClassOutOfRange, "predicted %d, real %d", predicted, real)
			}
			return domain.ClassPair{Predicted: predicted, Real: real}, nil
		}, nil
	}

	predicted := make([]int, classes)
	real := make([]int, classes)
	for i := range classes {
		var ok bool
		if predicted[i], ok = columns["predicted.class."+strconv.Itoa(i+1)]; !ok {
			return nil, errors.Annotatef(domain.ErrRowWidth, "expected %d predicted.class columns", classes)
		}
		if real[i], ok = columns["real.class."+strconv.Itoa(i+1)]; !ok {
			return nil, errors.Annotatef(domain.ErrRowWidth, "expected %d real.class columns", classes)
		}
	}
	if _, ok := columns["predicted.class."+strconv.Itoa(classes+1)]; ok {
		return nil, errors.Annotatef(domain.ErrRowWidth, "more than %d predicted.class columns", classes)
	}
	return func(record []string) (domain.ClassPair, error) {
		pair := domain.ClassPair{}
		found := false
		for i := range classes {
			v, err := parseClass(record[real[i]])
			if err != nil {
				return pair, err
			}
			if v == 1 {
				pair.Real = i + 1
				found = true
				break
			}
		}
		if !found {
			return pair, errors.Annotate(domain.ErrClassOutOfRange, "row has no real class")
		}
		for i := range classes {
			v, err := parseClass(record[predicted[i]])
			if err != nil {
				return pair, err
			}
			if v == 1 {
				pair.Predicted = i + 1
				break
			}
		}
		return pair, nil
	}, nil
}

func parseClass(field string) (int, error) {
	v, err := strconv.ParseFloat(strings.Trim(strings.TrimSpace(field), `"`), 64)
	if err != nil {
		return 0, errors.Annotatef(domain.ErrInvalidFileFormat, "%q", field)
	}
	return int(v), nil
}
