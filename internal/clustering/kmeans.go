package clustering

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	apierrors "dropoutlens/internal/errors"
)

const (
	// DefaultSeed is the master seed all k-means runs derive from
	DefaultSeed uint64 = 42
	// DefaultNInit is the number of independent k-means++ initializations
	DefaultNInit = 10
	// DefaultMaxIter caps the Lloyd iterations of a single run
	DefaultMaxIter = 300

	// MinK and MaxK bound the user-selectable cluster count
	MinK = 2
	MaxK = 10
)

// Options pins the k-means parameters. The zero value is replaced by the
// defaults.
type Options struct {
	Seed    uint64
	NInit   int
	MaxIter int
}

// DefaultOptions returns seed 42, 10 initializations and 300 iterations
func DefaultOptions() Options {
	return Options{Seed: DefaultSeed, NInit: DefaultNInit, MaxIter: DefaultMaxIter}
}

func (o Options) normalized() Options {
	if o.NInit < DefaultNInit {
		o.NInit = DefaultNInit
	}
	if o.MaxIter <= 0 {
		o.MaxIter = DefaultMaxIter
	}
	return o
}

// Result is the best of the k-means runs
type Result struct {
	K int
	// Labels holds the 1-based cluster of each row
	Labels []int
	// Centroids is the k×d matrix of cluster means, row i is cluster i+1
	Centroids  *mat.Dense
	WCSS       float64
	Iterations int
}

// Sizes returns the member count of clusters 1..k
func (r *Result) Sizes() []int {
	sizes := make([]int, r.K)
	for _, l := range r.Labels {
		sizes[l-1]++
	}
	return sizes
}

// Assign clusters the rows of a scaled matrix into k groups. k must lie
// in [MinK, MaxK] and not exceed the row count.
func Assign(x *mat.Dense, k int, opts Options) (*Result, error) {
	if isEmpty(x) {
		return nil, apierrors.NewEmptyDatasetError("cannot cluster an empty matrix")
	}

	n, _ := x.Dims()
	upper := min(MaxK, n)
	if k < MinK || k > upper {
		return nil, apierrors.NewInvalidClusterCountError(k, MinK, upper).
			WithContext("rows", n)
	}

	return Fit(x, k, opts)
}

// Fit runs k-means for any 1 <= k <= rows. Every run derives its random
// source from opts.Seed, so identical inputs give identical results.
func Fit(x *mat.Dense, k int, opts Options) (*Result, error) {
	return fit(x, k, opts, nil)
}

func fit(x *mat.Dense, k int, opts Options, warm [][]float64) (*Result, error) {
	if isEmpty(x) {
		return nil, apierrors.NewEmptyDatasetError("cannot cluster an empty matrix")
	}

	points := rowsOf(x)
	if k < 1 || k > len(points) {
		return nil, apierrors.NewInvalidClusterCountError(k, 1, len(points))
	}

	opts = opts.normalized()

	var best *run
	for i := 0; i < opts.NInit; i++ {
		rng := rand.New(rand.NewPCG(opts.Seed, uint64(i)))
		r := lloyd(points, initPlusPlus(points, k, rng), opts.MaxIter)
		if best == nil || r.wcss < best.wcss {
			best = r
		}
	}

	if warm != nil {
		if r := lloyd(points, cloneRows(warm), opts.MaxIter); r.wcss < best.wcss {
			best = r
		}
	}

	return best.result(k), nil
}

type run struct {
	labels     []int
	centroids  [][]float64
	wcss       float64
	iterations int
}

func (r *run) result(k int) *Result {
	labels := make([]int, len(r.labels))
	for i, l := range r.labels {
		labels[i] = l + 1
	}

	d := len(r.centroids[0])
	data := make([]float64, 0, k*d)
	for _, c := range r.centroids {
		data = append(data, c...)
	}

	return &Result{
		K:          k,
		Labels:     labels,
		Centroids:  mat.NewDense(k, d, data),
		WCSS:       r.wcss,
		Iterations: r.iterations,
	}
}

// initPlusPlus picks k starting centroids with D² weighting
func initPlusPlus(points [][]float64, k int, rng *rand.Rand) [][]float64 {
	n := len(points)
	centroids := make([][]float64, 0, k)
	centroids = append(centroids, cloneRow(points[rng.IntN(n)]))

	dist := make([]float64, n)
	for i, p := range points {
		dist[i] = sqDist(p, centroids[0])
	}

	for len(centroids) < k {
		total := 0.0
		for _, d := range dist {
			total += d
		}

		next := -1
		if total > 0 {
			target := rng.Float64() * total
			cumulative := 0.0
			for i, d := range dist {
				if d == 0 {
					continue
				}
				cumulative += d
				next = i
				if cumulative > target {
					break
				}
			}
		} else {
			next = rng.IntN(n)
		}

		c := cloneRow(points[next])
		centroids = append(centroids, c)
		for i, p := range points {
			if d := sqDist(p, c); d < dist[i] {
				dist[i] = d
			}
		}
	}

	return centroids
}

// lloyd alternates assignment and mean updates until no label changes
func lloyd(points [][]float64, centroids [][]float64, maxIter int) *run {
	n, k := len(points), len(centroids)
	labels := make([]int, n)
	for i := range labels {
		labels[i] = -1
	}

	iterations := 0
	for iterations < maxIter {
		iterations++

		changed := false
		for i, p := range points {
			if c := nearest(p, centroids); c != labels[i] {
				labels[i] = c
				changed = true
			}
		}
		if !changed {
			break
		}

		centroids = means(points, labels, k)
		repairEmpty(points, labels, centroids)
	}

	centroids = means(points, labels, k)
	return &run{
		labels:     labels,
		centroids:  centroids,
		wcss:       wcss(points, labels, centroids),
		iterations: iterations,
	}
}

// repairEmpty moves, for every empty cluster, the point farthest from its
// own centroid among clusters with more than one member into the empty
// cluster. Requires k <= n.
func repairEmpty(points [][]float64, labels []int, centroids [][]float64) {
	k := len(centroids)
	sizes := make([]int, k)
	for _, l := range labels {
		sizes[l]++
	}

	for c := 0; c < k; c++ {
		if sizes[c] > 0 {
			continue
		}

		far, farDist := -1, -1.0
		for i, p := range points {
			if sizes[labels[i]] < 2 {
				continue
			}
			if d := sqDist(p, centroids[labels[i]]); d > farDist {
				far, farDist = i, d
			}
		}
		if far < 0 {
			return
		}

		donor := labels[far]
		labels[far] = c
		sizes[donor]--
		sizes[c] = 1
		centroids[c] = cloneRow(points[far])
		centroids[donor] = clusterMean(points, labels, donor)
	}
}

func nearest(p []float64, centroids [][]float64) int {
	best, bestDist := 0, math.Inf(1)
	for c, centroid := range centroids {
		if d := sqDist(p, centroid); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

func means(points [][]float64, labels []int, k int) [][]float64 {
	d := len(points[0])
	sums := make([][]float64, k)
	counts := make([]int, k)
	for c := range sums {
		sums[c] = make([]float64, d)
	}

	for i, p := range points {
		c := labels[i]
		counts[c]++
		for j, v := range p {
			sums[c][j] += v
		}
	}

	for c := range sums {
		if counts[c] == 0 {
			continue
		}
		for j := range sums[c] {
			sums[c][j] /= float64(counts[c])
		}
	}
	return sums
}

func clusterMean(points [][]float64, labels []int, c int) []float64 {
	mean := make([]float64, len(points[0]))
	count := 0
	for i, p := range points {
		if labels[i] != c {
			continue
		}
		count++
		for j, v := range p {
			mean[j] += v
		}
	}
	for j := range mean {
		mean[j] /= float64(count)
	}
	return mean
}

func wcss(points [][]float64, labels []int, centroids [][]float64) float64 {
	total := 0.0
	for i, p := range points {
		total += sqDist(p, centroids[labels[i]])
	}
	return total
}

func sqDist(a, b []float64) float64 {
	s := 0.0
	for j := range a {
		d := a[j] - b[j]
		s += d * d
	}
	return s
}

func rowsOf(x *mat.Dense) [][]float64 {
	n, _ := x.Dims()
	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = mat.Row(nil, i, x)
	}
	return rows
}

func cloneRow(r []float64) []float64 {
	return append([]float64(nil), r...)
}

func cloneRows(rows [][]float64) [][]float64 {
	out := make([][]float64, len(rows))
	for i, r := range rows {
		out[i] = cloneRow(r)
	}
	return out
}
