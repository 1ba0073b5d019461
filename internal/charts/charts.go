package charts

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"dropoutlens/pkg/contracts/domain"
)

// AssetsHost serves the echarts javascript referenced by rendered pages
const AssetsHost = "https://go-echarts.github.io/go-echarts-assets/assets/"

// ElbowChart builds the WCSS line chart of the elbow tab
func ElbowChart(curve []domain.WCSSPoint) *charts.Line {
	line := charts.NewLine()

	xAxis := make([]string, 0, len(curve))
	data := make([]opts.LineData, 0, len(curve))
	for _, p := range curve {
		xAxis = append(xAxis, fmt.Sprintf("%d", p.K))
		data = append(data, opts.LineData{
			Value: p.WCSS,
			Name:  fmt.Sprintf("k=%d: WCSS=%.2f", p.K, p.WCSS),
		})
	}

	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle:  "Elbow Method",
			AssetsHost: AssetsHost,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Elbow Method",
			Subtitle: "Within-cluster sum of squares by number of clusters",
		}),
		charts.WithXAxisOpts(opts.XAxis{
			Name: "Number of clusters",
			Type: "category",
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name: "WCSS",
			Type: "value",
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "axis",
		}),
	)

	line.SetXAxis(xAxis).
		AddSeries("WCSS", data).
		SetSeriesOptions(
			charts.WithLineChartOpts(opts.LineChart{
				ShowSymbol: opts.Bool(true),
			}),
			charts.WithLabelOpts(opts.Label{
				Show: opts.Bool(false),
			}),
		)

	return line
}

// TotalsChart builds the stacked per-cluster dropout totals bar chart
func TotalsChart(k int, aggs []domain.ClusterAggregate) *charts.Bar {
	bar := charts.NewBar()

	xAxis := make([]string, 0, len(aggs))
	series := make([][]opts.BarData, domain.FeatureCount)
	for _, a := range aggs {
		xAxis = append(xAxis, fmt.Sprintf("Cluster %d", a.Cluster))
		for f, v := range [domain.FeatureCount]int64{a.Sums.SD, a.Sums.SMP, a.Sums.SMA, a.Sums.SMK} {
			series[f] = append(series[f], opts.BarData{Value: v})
		}
	}

	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle:  "Dropouts per Cluster",
			AssetsHost: AssetsHost,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Total Dropouts per Cluster",
			Subtitle: fmt.Sprintf("k = %d", k),
		}),
		charts.WithLegendOpts(opts.Legend{
			Show: opts.Bool(true),
			Top:  "5%",
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "axis",
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name: "Dropouts",
			Type: "value",
		}),
	)

	bar.SetXAxis(xAxis)
	for f, data := range series {
		bar.AddSeries(domain.Features[f].String(), data,
			charts.WithBarChartOpts(opts.BarChart{Stack: "dropouts"}),
		)
	}

	return bar
}

// RenderElbow writes the elbow chart page to w
func RenderElbow(w io.Writer, curve []domain.WCSSPoint) error {
	return ElbowChart(curve).Render(w)
}

// RenderTotals writes the cluster totals chart page to w
func RenderTotals(w io.Writer, k int, aggs []domain.ClusterAggregate) error {
	return TotalsChart(k, aggs).Render(w)
}
