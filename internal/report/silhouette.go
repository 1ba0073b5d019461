package report

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	apierrors "dropoutlens/internal/errors"
)

// Silhouette returns the mean silhouette coefficient of labels over the
// rows of x (the scaled matrix). Points alone in their cluster score 0.
// Requires k >= 2 and every label 1..k to have a member.
func Silhouette(x *mat.Dense, labels []int, k int) (float64, error) {
	if k < 2 {
		return 0, apierrors.NewDegenerateClusteringError(
			fmt.Sprintf("silhouette needs at least 2 clusters, got %d", k)).WithContext("k", k)
	}
	if x == nil || x.IsEmpty() {
		return 0, apierrors.NewEmptyDatasetError("cannot score an empty matrix")
	}

	n, _ := x.Dims()
	if len(labels) != n {
		return 0, fmt.Errorf("got %d labels for %d rows", len(labels), n)
	}

	sizes := make([]int, k)
	for i, l := range labels {
		if l < 1 || l > k {
			return 0, fmt.Errorf("label %d of row %d outside 1..%d", l, i, k)
		}
		sizes[l-1]++
	}
	for c, size := range sizes {
		if size == 0 {
			return 0, apierrors.NewDegenerateClusteringError(
				fmt.Sprintf("cluster %d of %d has no members", c+1, k)).WithContext("k", k)
		}
	}

	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = mat.Row(nil, i, x)
	}

	total := 0.0
	sums := make([]float64, k)
	for i := range rows {
		own := labels[i] - 1
		if sizes[own] == 1 {
			continue
		}

		for c := range sums {
			sums[c] = 0
		}
		for j := range rows {
			if j != i {
				sums[labels[j]-1] += floats.Distance(rows[i], rows[j], 2)
			}
		}

		a := sums[own] / float64(sizes[own]-1)
		b := math.Inf(1)
		for c := range sums {
			if c != own {
				b = math.Min(b, sums[c]/float64(sizes[c]))
			}
		}

		if m := math.Max(a, b); m > 0 {
			total += (b - a) / m
		}
	}

	return total / float64(n), nil
}

// FormatScore renders a silhouette score with 3 decimals
func FormatScore(score float64) string {
	return fmt.Sprintf("%.3f", score)
}
