// Package report derives the tables shown next to a clustering: cluster
// sums and means, the silhouette score, and descriptive statistics of
// the preprocessed counts.
package report
