package report

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"dropoutlens/internal/clustering"
	"dropoutlens/internal/dataset"
	apierrors "dropoutlens/internal/errors"
	"dropoutlens/pkg/contracts/domain"
)

func scenarioRecords() []domain.RegionRecord {
	return []domain.RegionRecord{
		{Region: "A", SD: 100, SMP: 10, SMA: 5, SMK: 2},
		{Region: "B", SD: 102, SMP: 11, SMA: 6, SMK: 3},
		{Region: "C", SD: 5, SMP: 50, SMA: 60, SMK: 40},
		{Region: "D", SD: 4, SMP: 48, SMA: 58, SMK: 41},
		{Region: "E"},
	}
}

func TestAggregate(t *testing.T) {
	records := scenarioRecords()
	labels := []int{2, 2, 1, 1, 3}

	aggs, err := Aggregate(records, labels, 3)
	require.NoError(t, err)
	require.Len(t, aggs, 3)

	assert.Equal(t, 1, aggs[0].Cluster)
	assert.Equal(t, 2, aggs[0].Members)
	assert.Equal(t, domain.FeatureSums{SD: 9, SMP: 98, SMA: 118, SMK: 81}, aggs[0].Sums)
	assert.Equal(t, int64(306), aggs[0].Total)
	assert.InDelta(t, 4.5, aggs[0].Means.SD, 1e-12)

	assert.Equal(t, domain.FeatureSums{SD: 202, SMP: 21, SMA: 11, SMK: 5}, aggs[1].Sums)
	assert.Equal(t, int64(0), aggs[2].Total)
	assert.Equal(t, 1, aggs[2].Members)
}

func TestAggregate_ConservationLaw(t *testing.T) {
	records := scenarioRecords()
	x, err := dataset.FeatureMatrix(records)
	require.NoError(t, err)
	scaled, _, err := clustering.Standardize(x)
	require.NoError(t, err)

	for k := 2; k <= 5; k++ {
		res, err := clustering.Assign(scaled, k, clustering.DefaultOptions())
		require.NoError(t, err)

		aggs, err := Aggregate(records, res.Labels, k)
		require.NoError(t, err)

		var got domain.FeatureSums
		var grand, members int64
		for _, a := range aggs {
			got.SD += a.Sums.SD
			got.SMP += a.Sums.SMP
			got.SMA += a.Sums.SMA
			got.SMK += a.Sums.SMK
			grand += a.Total
			members += int64(a.Members)
		}

		assert.Equal(t, ColumnTotals(records), got, "k=%d", k)
		assert.Equal(t, int64(545), grand, "k=%d", k)
		assert.Equal(t, int64(len(records)), members)
	}
}

func TestAggregate_InvalidInput(t *testing.T) {
	records := scenarioRecords()

	_, err := Aggregate(records, []int{1, 2}, 2)
	assert.Error(t, err)

	_, err = Aggregate(records, []int{1, 2, 3, 1, 2}, 2)
	assert.Error(t, err)
}

func TestAssignments(t *testing.T) {
	got, err := Assignments(scenarioRecords()[:2], []int{2, 1})
	require.NoError(t, err)
	assert.Equal(t, []domain.RegionCluster{{Region: "A", Cluster: 2}, {Region: "B", Cluster: 1}}, got)

	_, err = Assignments(scenarioRecords(), []int{1})
	assert.Error(t, err)
}

func TestSilhouette_Scenario(t *testing.T) {
	x, err := dataset.FeatureMatrix(scenarioRecords())
	require.NoError(t, err)
	scaled, _, err := clustering.Standardize(x)
	require.NoError(t, err)

	res, err := clustering.Assign(scaled, 3, clustering.DefaultOptions())
	require.NoError(t, err)

	score, err := Silhouette(scaled, res.Labels, 3)
	require.NoError(t, err)
	assert.Greater(t, score, 0.5)
	assert.LessOrEqual(t, score, 1.0)
}

func TestSilhouette_Range(t *testing.T) {
	x := mat.NewDense(6, 2, []float64{
		0, 0,
		0, 1,
		5, 5,
		5, 6,
		0, 0.5,
		5, 5.5,
	})

	tests := []struct {
		name   string
		labels []int
	}{
		{"good", []int{1, 1, 2, 2, 1, 2}},
		{"bad", []int{1, 2, 1, 2, 2, 1}},
		{"three clusters", []int{1, 1, 2, 2, 3, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k := 0
			for _, l := range tt.labels {
				k = max(k, l)
			}
			score, err := Silhouette(x, tt.labels, k)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, score, -1.0)
			assert.LessOrEqual(t, score, 1.0)
		})
	}
}

func TestSilhouette_SingletonsScoreZero(t *testing.T) {
	x := mat.NewDense(2, 1, []float64{0, 10})
	score, err := Silhouette(x, []int{1, 2}, 2)
	require.NoError(t, err)
	assert.Equal(t, 0.0, score)
}

func TestSilhouette_Degenerate(t *testing.T) {
	x := mat.NewDense(4, 1, []float64{0, 1, 2, 3})

	tests := []struct {
		name   string
		labels []int
		k      int
	}{
		{"single cluster", []int{1, 1, 1, 1}, 1},
		{"empty cluster", []int{1, 1, 2, 2}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Silhouette(x, tt.labels, tt.k)
			assert.True(t, errors.Is(err, apierrors.ErrDegenerateClustering))
		})
	}
}

func TestSilhouette_AfterSingleClusterFit(t *testing.T) {
	x, err := dataset.FeatureMatrix(scenarioRecords())
	require.NoError(t, err)
	scaled, _, err := clustering.Standardize(x)
	require.NoError(t, err)

	res, err := clustering.Fit(scaled, 1, clustering.DefaultOptions())
	require.NoError(t, err)

	_, err = Silhouette(scaled, res.Labels, res.K)
	assert.True(t, errors.Is(err, apierrors.ErrDegenerateClustering))
}

func TestFormatScore(t *testing.T) {
	assert.Equal(t, "0.712", FormatScore(0.71249))
	assert.Equal(t, "-0.050", FormatScore(-0.05))
}

func TestDescribe(t *testing.T) {
	records := []domain.RegionRecord{
		{Region: "A", SD: 1, SMP: 10},
		{Region: "B", SD: 2, SMP: 10},
		{Region: "C", SD: 3, SMP: 10},
		{Region: "D", SD: 4, SMP: 10},
	}

	summaries, err := Describe(records)
	require.NoError(t, err)
	require.Len(t, summaries, 4)

	sd := summaries[0]
	assert.Equal(t, "SD", sd.Feature)
	assert.Equal(t, 4, sd.Count)
	assert.InDelta(t, 2.5, sd.Mean, 1e-12)
	assert.InDelta(t, 1.2909944487, sd.Std, 1e-9)
	assert.Equal(t, 1.0, sd.Min)
	assert.InDelta(t, 1.75, sd.Q25, 1e-12)
	assert.InDelta(t, 2.5, sd.Median, 1e-12)
	assert.InDelta(t, 3.25, sd.Q75, 1e-12)
	assert.Equal(t, 4.0, sd.Max)

	smp := summaries[1]
	assert.Equal(t, 0.0, smp.Std)
	assert.Equal(t, 10.0, smp.Median)
}

func TestDescribe_SingleRecordAndEmpty(t *testing.T) {
	summaries, err := Describe([]domain.RegionRecord{{Region: "A", SD: 7}})
	require.NoError(t, err)
	assert.Equal(t, 0.0, summaries[0].Std)
	assert.Equal(t, 7.0, summaries[0].Q75)

	_, err = Describe(nil)
	assert.True(t, errors.Is(err, apierrors.ErrEmptyDataset))
}
