package app

import (
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kautsky-classification/internal/domain"
)

func TestPairwiseDataSets(t *testing.T) {
	files := []string{"/data/clean.txt", "/data/dust.txt", "smoke.tsv"}
	generated, err := PairwiseDataSets(files, DataSetsOptions{Prefix: "NN_", OneHot: true})
	require.NoError(t, err)
	require.Len(t, generated, 3)

	names := make([]string, len(generated))
	for i, g := range generated {
		names[i] = g.Name
		require.NoError(t, g.Config.Validate())
		assert.Equal(t, domain.VectorLabel(1, 0), g.Config.DataSets[0].Class)
		assert.Equal(t, domain.VectorLabel(0, 1), g.Config.DataSets[1].Class)
	}
	assert.Equal(t, []string{
		"NN_clean_VS_dust.dataset",
		"NN_clean_VS_smoke.dataset",
		"NN_dust_VS_smoke.dataset",
	}, names)
	assert.Equal(t, "smoke.tsv", generated[2].Config.DataSets[1].Filename)

	_, err = PairwiseDataSets(files[:1], DataSetsOptions{})
	assert.True(t, errors.IsNotValid(err))
}

func TestAllDataSets(t *testing.T) {
	files := []string{"a.txt", "b.txt", "c.txt"}
	all, err := AllDataSets(files, DataSetsOptions{Suffix: "_v2", OneHot: true, HasHeader: true})
	require.NoError(t, err)
	assert.Equal(t, "ALL_v2.dataset", all.Name)
	assert.True(t, all.Config.HasHeader)
	assert.Equal(t, domain.VectorLabel(0, 0, 1), all.Config.DataSets[2].Class)

	all, err = AllDataSets(files, DataSetsOptions{})
	require.NoError(t, err)
	assert.Equal(t, domain.ScalarLabel(2), all.Config.DataSets[1].Class)

	_, err = AllDataSets(nil, DataSetsOptions{})
	assert.True(t, errors.IsNotValid(err))
}
