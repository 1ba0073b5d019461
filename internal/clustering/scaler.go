package clustering

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	apierrors "dropoutlens/internal/errors"
	"dropoutlens/pkg/contracts/domain"
)

// StandardScaler holds per-column statistics learned from a matrix.
// Std uses the population definition; constant columns record 0.
type StandardScaler struct {
	Mean []float64
	Std  []float64
}

// FitScaler learns column means and standard deviations from x
func FitScaler(x *mat.Dense) (*StandardScaler, error) {
	if isEmpty(x) {
		return nil, apierrors.NewEmptyDatasetError("cannot standardize an empty matrix")
	}

	_, c := x.Dims()
	s := &StandardScaler{
		Mean: make([]float64, c),
		Std:  make([]float64, c),
	}

	for j := 0; j < c; j++ {
		col := mat.Col(nil, j, x)
		mean, std := stat.PopMeanStdDev(col, nil)
		s.Mean[j] = mean
		if floats.Max(col) == floats.Min(col) {
			std = 0
		}
		s.Std[j] = std
	}

	return s, nil
}

// Transform returns (x - mean) / std column-wise. Columns with zero std
// map to 0.
func (s *StandardScaler) Transform(x *mat.Dense) (*mat.Dense, error) {
	if isEmpty(x) {
		return nil, apierrors.NewEmptyDatasetError("cannot standardize an empty matrix")
	}

	r, c := x.Dims()
	if c != len(s.Mean) {
		return nil, fmt.Errorf("scaler fitted on %d columns, got %d", len(s.Mean), c)
	}

	out := mat.NewDense(r, c, nil)
	out.Apply(func(i, j int, v float64) float64 {
		if s.Std[j] == 0 {
			return 0
		}
		return (v - s.Mean[j]) / s.Std[j]
	}, x)

	return out, nil
}

// Stats reports the learned statistics per feature column
func (s *StandardScaler) Stats() []domain.ScalerStats {
	stats := make([]domain.ScalerStats, len(s.Mean))
	for j := range s.Mean {
		name := fmt.Sprintf("col%d", j)
		if j < domain.FeatureCount {
			name = domain.Features[j].String()
		}
		stats[j] = domain.ScalerStats{Feature: name, Mean: s.Mean[j], Std: s.Std[j]}
	}
	return stats
}

// Standardize fits a scaler on x and transforms x with it
func Standardize(x *mat.Dense) (*mat.Dense, *StandardScaler, error) {
	s, err := FitScaler(x)
	if err != nil {
		return nil, nil, err
	}
	scaled, err := s.Transform(x)
	if err != nil {
		return nil, nil, err
	}
	return scaled, s, nil
}

func isEmpty(x *mat.Dense) bool {
	return x == nil || x.IsEmpty()
}
