package dataset

import (
	"gonum.org/v1/gonum/mat"

	apierrors "dropoutlens/internal/errors"
	"dropoutlens/pkg/contracts/domain"
)

// FeatureMatrix builds the n×4 matrix of raw counts in record order
func FeatureMatrix(records []domain.RegionRecord) (*mat.Dense, error) {
	if len(records) == 0 {
		return nil, apierrors.NewEmptyDatasetError("no region records to build a feature matrix from")
	}

	data := make([]float64, 0, len(records)*domain.FeatureCount)
	for _, r := range records {
		for _, c := range r.Counts() {
			data = append(data, float64(c))
		}
	}
	return mat.NewDense(len(records), domain.FeatureCount, data), nil
}

// Regions returns the region names in record order
func Regions(records []domain.RegionRecord) []string {
	names := make([]string, len(records))
	for i, r := range records {
		names[i] = r.Region
	}
	return names
}
