package report

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	apierrors "dropoutlens/internal/errors"
	"dropoutlens/pkg/contracts/domain"
)

// Describe summarizes each feature column of records: count, mean,
// sample standard deviation, min, quartiles and max. Quartiles
// interpolate between closest ranks at position (n-1)p. Std is 0 for a
// single record.
func Describe(records []domain.RegionRecord) ([]domain.FeatureSummary, error) {
	if len(records) == 0 {
		return nil, apierrors.NewEmptyDatasetError("cannot describe an empty dataset")
	}

	summaries := make([]domain.FeatureSummary, 0, domain.FeatureCount)
	for _, f := range domain.Features {
		col := make([]float64, len(records))
		for i, r := range records {
			col[i] = float64(r.Counts()[f])
		}
		sort.Float64s(col)

		std := 0.0
		if len(col) > 1 {
			std = stat.StdDev(col, nil)
		}

		summaries = append(summaries, domain.FeatureSummary{
			Feature: f.String(),
			Count:   len(col),
			Mean:    stat.Mean(col, nil),
			Std:     std,
			Min:     floats.Min(col),
			Q25:     quantile(0.25, col),
			Median:  quantile(0.5, col),
			Q75:     quantile(0.75, col),
			Max:     floats.Max(col),
		})
	}

	return summaries, nil
}

// quantile interpolates linearly between the order statistics around
// (n-1)p. sorted must be ascending and non-empty.
func quantile(p float64, sorted []float64) float64 {
	h := float64(len(sorted)-1) * p
	lo := math.Floor(h)
	i := int(lo)
	if i+1 >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	return sorted[i] + (h-lo)*(sorted[i+1]-sorted[i])
}
