package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"kautsky-classification/internal/domain"
)

func TestCluster_DistinctResults(t *testing.T) {
	experiment, err := newTestExperiment()
	require.NoError(t, err)
	writer := &memoryWriter{}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	cluster := NewCluster(zap.NewNop(), experiment, ClusterConfig{Workers: 2, Repeats: 5})
	summary, err := cluster.Run(ctx, writer)
	require.NoError(t, err)

	assert.ElementsMatch(t, []int{0, 1, 2, 3, 4}, writer.repeats())
	assert.Equal(t, 5, summary.Received)
	assert.Zero(t, summary.Failed)
	assert.Len(t, summary.Scores, 5)
	assert.InDelta(t, 1.0, summary.MeanScore, 1e-12)
	assert.InDelta(t, 0.0, summary.StdScore, 1e-12)
	assert.Greater(t, summary.MeanBaseline, 0.0)

	hist, err := summary.Histogram(11)
	require.NoError(t, err)
	assert.Equal(t, 5, hist.Vals[10])
}

func TestCluster_SameResultsAnyWorkerCount(t *testing.T) {
	experiment, err := newTestExperiment()
	require.NoError(t, err)

	run := func(workers int) map[int]*domain.ResultMessage {
		writer := &memoryWriter{}
		_, err := NewCluster(zap.NewNop(), experiment, ClusterConfig{Workers: workers, Repeats: 4}).
			Run(context.Background(), writer)
		require.NoError(t, err)
		byRepeat := make(map[int]*domain.ResultMessage)
		for _, msg := range writer.messages {
			byRepeat[msg.Record.Repeat] = msg
		}
		return byRepeat
	}
	one, three := run(1), run(3)
	require.Len(t, one, 4)
	for repeat, msg := range one {
		assert.Equal(t, msg.Raw, three[repeat].Raw)
		assert.Equal(t, msg.Record.Baseline, three[repeat].Record.Baseline)
	}
}

func TestCluster_FailedTrials(t *testing.T) {
	experiment, err := newTestExperiment(
		newDataSet(1, domain.ScalarLabel(1), 10),
		newDataSet(2, domain.ScalarLabel(2), 1))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	writer := &memoryWriter{}
	summary, err := NewCluster(zap.NewNop(), experiment, ClusterConfig{Workers: 2, Repeats: 3, KeepGoing: true}).
		Run(ctx, writer)
	assert.ErrorIs(t, err, domain.ErrTrialFailed)
	assert.Equal(t, 3, summary.Failed)
	assert.Empty(t, writer.messages)

	_, err = NewCluster(zap.NewNop(), experiment, ClusterConfig{Workers: 2, Repeats: 3}).
		Run(ctx, &memoryWriter{})
	assert.ErrorIs(t, err, domain.ErrTrialFailed)
}
