// Package charts renders the dashboard charts as standalone go-echarts
// HTML pages.
package charts
