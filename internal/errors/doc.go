// Package errors defines the error taxonomy of the dropout clustering
// pipeline and renders errors as RFC 7807 problem documents.
//
// Pipeline stages return *AppError values. Callers match them with the
// standard library:
//
//	if errors.Is(err, apierrors.ErrEmptyDataset) {
//	    // no regency rows survived preprocessing
//	}
//
// ErrorHandler maps each ErrorType to an HTTP status:
//
//	DATA_SOURCE            503
//	SCHEMA                 422
//	EMPTY_DATASET          422
//	INVALID_CLUSTER_COUNT  400
//	DEGENERATE_CLUSTERING  422
//	VALIDATION             400
package errors
