package report

import (
	"fmt"

	"dropoutlens/pkg/contracts/domain"
)

// Assignments joins region names with their cluster labels
func Assignments(records []domain.RegionRecord, labels []int) ([]domain.RegionCluster, error) {
	if len(records) != len(labels) {
		return nil, fmt.Errorf("got %d labels for %d records", len(labels), len(records))
	}

	out := make([]domain.RegionCluster, len(records))
	for i, r := range records {
		out[i] = domain.RegionCluster{Region: r.Region, Cluster: labels[i]}
	}
	return out, nil
}

// Aggregate sums and averages the dropout counts of every cluster.
// Clusters are returned in label order; labels without members are
// omitted. The sums over all clusters equal the column sums of records.
func Aggregate(records []domain.RegionRecord, labels []int, k int) ([]domain.ClusterAggregate, error) {
	if len(records) != len(labels) {
		return nil, fmt.Errorf("got %d labels for %d records", len(labels), len(records))
	}

	buckets := make([]domain.ClusterAggregate, k)
	for i, r := range records {
		l := labels[i]
		if l < 1 || l > k {
			return nil, fmt.Errorf("label %d of region %q outside 1..%d", l, r.Region, k)
		}

		b := &buckets[l-1]
		b.Members++
		b.Sums.SD += r.SD
		b.Sums.SMP += r.SMP
		b.Sums.SMA += r.SMA
		b.Sums.SMK += r.SMK
	}

	out := make([]domain.ClusterAggregate, 0, k)
	for c, b := range buckets {
		if b.Members == 0 {
			continue
		}
		n := float64(b.Members)
		b.Cluster = c + 1
		b.Total = b.Sums.SD + b.Sums.SMP + b.Sums.SMA + b.Sums.SMK
		b.Means = domain.FeatureMeans{
			SD:  float64(b.Sums.SD) / n,
			SMP: float64(b.Sums.SMP) / n,
			SMA: float64(b.Sums.SMA) / n,
			SMK: float64(b.Sums.SMK) / n,
		}
		out = append(out, b)
	}

	return out, nil
}

// ColumnTotals returns the per-feature sums of records
func ColumnTotals(records []domain.RegionRecord) domain.FeatureSums {
	var s domain.FeatureSums
	for _, r := range records {
		s.SD += r.SD
		s.SMP += r.SMP
		s.SMA += r.SMA
		s.SMK += r.SMK
	}
	return s
}
