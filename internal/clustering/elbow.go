package clustering

import (
	"math"

	"gonum.org/v1/gonum/mat"

	apierrors "dropoutlens/internal/errors"
	"dropoutlens/pkg/contracts/domain"
)

// DefaultElbowMaxK is the largest k evaluated by Elbow
const DefaultElbowMaxK = 10

// Elbow computes the WCSS of k = 1..maxK with the same seeded k-means used
// by Assign. The curve stops early at the row count. Each k > 1 also runs
// from the previous best centroids plus the point farthest from them; that
// run starts at or below the previous WCSS and Lloyd never raises it, so
// the curve is non-increasing up to float rounding.
func Elbow(x *mat.Dense, maxK int, opts Options) ([]domain.WCSSPoint, error) {
	if isEmpty(x) {
		return nil, apierrors.NewEmptyDatasetError("cannot compute an elbow curve for an empty matrix")
	}

	if maxK <= 0 {
		maxK = DefaultElbowMaxK
	}
	n, _ := x.Dims()
	maxK = min(maxK, n)

	points := rowsOf(x)
	curve := make([]domain.WCSSPoint, 0, maxK)

	var prev *Result
	for k := 1; k <= maxK; k++ {
		var warm [][]float64
		if prev != nil {
			warm = extendCentroids(points, prev)
		}

		res, err := fit(x, k, opts, warm)
		if err != nil {
			return nil, err
		}

		wcss := res.WCSS
		if prev != nil {
			wcss = absorbRounding(prev.WCSS, wcss)
		}

		curve = append(curve, domain.WCSSPoint{K: k, WCSS: wcss})
		prev = res
	}

	return curve, nil
}

// wcssRoundingTolerance is the relative gap treated as summation noise
const wcssRoundingTolerance = 1e-12

// absorbRounding returns prev when next exceeds it only by rounding noise
// from summing in a different order, and next otherwise
func absorbRounding(prev, next float64) float64 {
	if next > prev && next-prev <= wcssRoundingTolerance*math.Max(prev, 1) {
		return prev
	}
	return next
}

// extendCentroids returns prev's centroids plus the point farthest from
// its assigned centroid
func extendCentroids(points [][]float64, prev *Result) [][]float64 {
	centroids := make([][]float64, 0, prev.K+1)
	for c := 0; c < prev.K; c++ {
		centroids = append(centroids, mat.Row(nil, c, prev.Centroids))
	}

	far, farDist := 0, -1.0
	for i, p := range points {
		if d := sqDist(p, centroids[prev.Labels[i]-1]); d > farDist {
			far, farDist = i, d
		}
	}

	return append(centroids, cloneRow(points[far]))
}
