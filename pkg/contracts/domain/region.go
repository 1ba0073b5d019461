package domain

import (
	"fmt"
	"strings"
)

// Feature identifies one of the four dropout-count columns used for clustering.
type Feature int

const (
	// FeatureSD is the primary school (Sekolah Dasar) dropout count
	FeatureSD Feature = iota
	// FeatureSMP is the lower-secondary dropout count
	FeatureSMP
	// FeatureSMA is the upper-secondary dropout count
	FeatureSMA
	// FeatureSMK is the vocational dropout count
	FeatureSMK
)

// FeatureCount is the fixed column count of every feature matrix.
const FeatureCount = 4

// Features lists the feature columns in matrix order.
var Features = [FeatureCount]Feature{FeatureSD, FeatureSMP, FeatureSMA, FeatureSMK}

// String returns the canonical column name of the feature
func (f Feature) String() string {
	switch f {
	case FeatureSD:
		return "SD"
	case FeatureSMP:
		return "SMP"
	case FeatureSMA:
		return "SMA"
	case FeatureSMK:
		return "SMK"
	default:
		return fmt.Sprintf("Feature(%d)", int(f))
	}
}

// FeatureNames returns the canonical names in matrix order.
func FeatureNames() []string {
	names := make([]string, FeatureCount)
	for i, f := range Features {
		names[i] = f.String()
	}
	return names
}

// RegionRecord is one regency/city row after preprocessing.
//
// Counts are non-negative and Region is unique within a preprocessed table.
type RegionRecord struct {
	// Region is the canonical "Daerah" field
	Region string `json:"daerah"`
	SD     int64  `json:"sd"`
	SMP    int64  `json:"smp"`
	SMA    int64  `json:"sma"`
	SMK    int64  `json:"smk"`
	// Row is the 1-based sheet row the record was read from
	Row int `json:"row,omitempty"`
}

// Counts returns the four dropout counts in matrix order.
func (r RegionRecord) Counts() [FeatureCount]int64 {
	return [FeatureCount]int64{r.SD, r.SMP, r.SMA, r.SMK}
}

// Total returns the sum of the four dropout counts.
func (r RegionRecord) Total() int64 {
	return r.SD + r.SMP + r.SMA + r.SMK
}

// Validate checks the record invariants
func (r RegionRecord) Validate() error {
	if strings.TrimSpace(r.Region) == "" {
		return fmt.Errorf("region name is empty")
	}
	for i, c := range r.Counts() {
		if c < 0 {
			return fmt.Errorf("region %q: %s count is negative (%d)", r.Region, Features[i], c)
		}
	}
	return nil
}

// SetCount assigns the count for a feature column.
func (r *RegionRecord) SetCount(f Feature, v int64) {
	switch f {
	case FeatureSD:
		r.SD = v
	case FeatureSMP:
		r.SMP = v
	case FeatureSMA:
		r.SMA = v
	case FeatureSMK:
		r.SMK = v
	}
}
