package domain

// WCSSPoint is one point of the elbow curve.
type WCSSPoint struct {
	K    int     `json:"k"`
	WCSS float64 `json:"wcss"`
}

// RegionCluster joins a region name with its 1-based cluster label.
type RegionCluster struct {
	Region  string `json:"daerah"`
	Cluster int    `json:"cluster"`
}

// FeatureSums holds per-feature integer sums.
type FeatureSums struct {
	SD  int64 `json:"sd"`
	SMP int64 `json:"smp"`
	SMA int64 `json:"sma"`
	SMK int64 `json:"smk"`
}

// FeatureMeans holds per-feature means.
type FeatureMeans struct {
	SD  float64 `json:"sd"`
	SMP float64 `json:"smp"`
	SMA float64 `json:"sma"`
	SMK float64 `json:"smk"`
}

// ClusterAggregate is the per-cluster row of the totals and means tables.
type ClusterAggregate struct {
	Cluster int          `json:"cluster"`
	Members int          `json:"members"`
	Sums    FeatureSums  `json:"sums"`
	Total   int64        `json:"total"`
	Means   FeatureMeans `json:"means"`
}

// FeatureSummary is one column of the descriptive statistics table.
type FeatureSummary struct {
	Feature string  `json:"feature"`
	Count   int     `json:"count"`
	Mean    float64 `json:"mean"`
	Std     float64 `json:"std"`
	Min     float64 `json:"min"`
	Q25     float64 `json:"q25"`
	Median  float64 `json:"median"`
	Q75     float64 `json:"q75"`
	Max     float64 `json:"max"`
}

// ScalerStats are the per-column statistics learned by standardization.
type ScalerStats struct {
	Feature string  `json:"feature"`
	Mean    float64 `json:"mean"`
	Std     float64 `json:"std"`
}

// ClusterView is the payload of the clustering tab.
type ClusterView struct {
	K           int                `json:"k"`
	Assignments []RegionCluster    `json:"assignments"`
	Totals      []ClusterAggregate `json:"totals"`
	WCSS        float64            `json:"wcss"`
	Iterations  int                `json:"iterations"`
}

// EvaluationView is the payload of the evaluation tab.
type EvaluationView struct {
	K          int                `json:"k"`
	Describe   []FeatureSummary   `json:"describe"`
	Clusters   []ClusterAggregate `json:"clusters"`
	Silhouette float64            `json:"silhouette"`
	// SilhouetteDisplay is the score formatted to 3 decimal places
	SilhouetteDisplay string `json:"silhouette_display"`
}

// DatasetView is the payload of the dataset tab.
type DatasetView struct {
	Version string         `json:"version"`
	Source  string         `json:"source"`
	Total   int            `json:"total"`
	Records []RegionRecord `json:"records"`
	Scaler  []ScalerStats  `json:"scaler"`
}
