// Package http exposes the dashboard over HTTP. Handlers stay thin: they
// parse query parameters, call the analysis service and render either the
// JSON view or an RFC 7807 problem document through the shared error
// handler.
//
// Routes mounted by the application:
//
//	GET  /api/health            service and dataset status
//	GET  /api/version           build information
//	GET  /api/dataset?limit=n   cleaned region records and scaler statistics
//	POST /api/dataset/reload    re-read the workbook
//	GET  /api/elbow             WCSS curve for k = 1..10
//	GET  /api/clusters?k=n      assignments and per-cluster totals
//	GET  /api/evaluation?k=n    describe table, aggregates and silhouette
//	GET  /charts/elbow          elbow curve as an ECharts page
//	GET  /charts/totals?k=n     stacked per-cluster totals
//	GET  /ws/clusters           live k slider
package http
