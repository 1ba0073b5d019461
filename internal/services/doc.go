// Package services holds the application services behind the HTTP
// handlers: the analysis service, which keeps one prepared dataset per
// process and recomputes clusterings on demand, and the health service.
package services
