package app

import (
	"time"

	"github.com/juju/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"kautsky-classification/internal/domain"
	"kautsky-classification/pkg/learning"
	"kautsky-classification/pkg/rng"
)

// Trial is the outcome of one fit/predict/score run.
type Trial struct {
	Time      time.Time
	Score     []float64
	Baseline  float64
	Predicted []domain.Label
	Truth     []domain.Label
}

// RunClassifier fits clf on train, predicts test and scores the predictions.
// Errors from the classifier are returned, never swallowed.
func RunClassifier(clf domain.Classifier, train, test *domain.LabeledBatch) (*Trial, error) {
	trial := &Trial{Time: time.Now()}
	if err := clf.Fit(train.Xs, train.Ys); err != nil {
		return nil, errors.Annotate(err, "fit")
	}
	predicted, err := clf.Predict(test.Xs)
	if err != nil {
		return nil, errors.Annotate(err, "predict")
	}
	if len(predicted) != test.Len() {
		return nil, errors.Annotatef(domain.ErrLabelShape, "%d predictions for %d test samples", len(predicted), test.Len())
	}
	trial.Predicted = predicted
	trial.Truth = test.Ys

	if trial.Score, err = ComputeScore(predicted, test.Ys); err != nil {
		return nil, errors.Trace(err)
	}
	if trial.Baseline, err = RandomChance(train, test); err != nil {
		return nil, errors.Trace(err)
	}
	return trial, nil
}

// Experiment runs repeats over data sets and parameters loaded once.
type Experiment struct {
	logger   *zap.Logger
	config   domain.ExperimentConfig
	dataSets []*domain.DataSet
	params   domain.ParamSet
	factory  learning.Factory
}

func NewExperiment(logger *zap.Logger, config domain.ExperimentConfig, dataSets []*domain.DataSet, classifiers *domain.ClassifierConfig) (*Experiment, error) {
	if len(dataSets) == 0 {
		return nil, errors.Trace(domain.ErrEmptyBatch)
	}
	params, err := classifiers.Params(config.Kind)
	if err != nil {
		return nil, errors.Trace(err)
	}
	factory, err := learning.NewFactory(config.Kind, classifiers)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return &Experiment{
		logger:   logger,
		config:   config,
		dataSets: dataSets,
		params:   params,
		factory:  factory,
	}, nil
}

// Run executes one repeat. The repeat index alone selects the random stream,
// so a repeat gives the same result whichever worker runs it.
func (e *Experiment) Run(repeat int) (*domain.ResultMessage, error) {
	start := time.Now()
	stream := rng.ForRepeat(e.config.Seed, repeat)

	split, err := SplitTrainTest(e.dataSets, e.config.FractionTest, stream, e.config.LabelMode)
	if err != nil {
		return nil, errors.Trace(err)
	}
	clf, err := e.factory(stream)
	if err != nil {
		return nil, errors.Trace(err)
	}
	e.logger.Debug("running classifier",
		zap.Int("repeat", repeat),
		zap.String("kind", string(e.config.Kind)),
		zap.Int("train", split.Train.Len()),
		zap.Int("test", split.Test.Len()))

	trial, err := RunClassifier(clf, &split.Train, &split.Test)
	if err != nil {
		return nil, errors.Annotatef(err, "repeat %d", repeat)
	}
	TrialSeconds.Observe(time.Since(start).Seconds())

	msg := &domain.ResultMessage{
		Record: domain.ResultRecord{
			Time:     trial.Time,
			Repeat:   repeat,
			Params:   e.params.Values(),
			Score:    trial.Score,
			Baseline: trial.Baseline,
		},
		Raw: lo.Map(trial.Predicted, func(p domain.Label, i int) domain.RawOutputRow {
			return domain.RawOutputRow{Repeat: repeat, Predicted: p, Truth: trial.Truth[i]}
		}),
	}
	if it, ok := clf.(domain.Iterative); ok {
		msg.Record.Iterations = it.Iterations()
	}
	if d, ok := clf.(domain.Describer); ok {
		msg.Structure = d.Describe()
	}
	e.logger.Info("repeat finished",
		zap.Int("repeat", repeat),
		zap.Float64("score", msg.Record.Overall()),
		zap.Float64("random_chance", trial.Baseline))
	return msg, nil
}
