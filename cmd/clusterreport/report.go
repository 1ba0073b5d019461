package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"dropoutlens/pkg/contracts/domain"
)

// Tab names accepted by -tabs
const (
	tabDataset    = "dataset"
	tabElbow      = "elbow"
	tabClusters   = "clusters"
	tabEvaluation = "evaluation"
)

var tabOrder = []string{tabDataset, tabElbow, tabClusters, tabEvaluation}

func parseTabs(list string) (map[string]bool, error) {
	tabs := make(map[string]bool)
	for _, name := range strings.Split(list, ",") {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		switch name {
		case tabDataset, tabElbow, tabClusters, tabEvaluation:
			tabs[name] = true
		default:
			return nil, fmt.Errorf("unknown tab %q (want one of %s)", name, strings.Join(tabOrder, ", "))
		}
	}
	if len(tabs) == 0 {
		return nil, fmt.Errorf("no tabs selected")
	}
	return tabs, nil
}

func (r *report) write(w io.Writer, tabs map[string]bool) {
	for _, tab := range tabOrder {
		if !tabs[tab] {
			continue
		}
		switch tab {
		case tabDataset:
			writeDataset(w, r.dataset)
		case tabElbow:
			writeElbow(w, r.elbow)
		case tabClusters:
			writeClusters(w, r.clusters)
		case tabEvaluation:
			writeEvaluation(w, r.evaluation)
		}
	}
}

func heading(w io.Writer, format string, args ...interface{}) {
	color.New(color.FgYellow, color.Bold).Fprintf(w, "\n"+format+"\n", args...)
}

func newTable(w io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoFormatHeaders(false)
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	return table
}

func featureHeader(first ...string) []string {
	header := append([]string{}, first...)
	return append(header, domain.FeatureNames()...)
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}

func ftoa(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}

func writeDataset(w io.Writer, view domain.DatasetView) {
	heading(w, "Dataset: %d regions from %s", view.Total, view.Source)

	table := newTable(w, featureHeader("Daerah"))
	for _, rec := range view.Records {
		row := []string{rec.Region}
		for _, c := range rec.Counts() {
			row = append(row, itoa(c))
		}
		table.Append(row)
	}
	if len(view.Records) < view.Total {
		table.SetFooter(append([]string{fmt.Sprintf("%d more", view.Total-len(view.Records))}, make([]string, domain.FeatureCount)...))
	}
	table.Render()

	heading(w, "Standardization")
	scaler := newTable(w, []string{"Feature", "Mean", "Std"})
	for _, s := range view.Scaler {
		scaler.Append([]string{s.Feature, ftoa(s.Mean), ftoa(s.Std)})
	}
	scaler.Render()
}

func writeElbow(w io.Writer, curve []domain.WCSSPoint) {
	heading(w, "Elbow method")

	table := newTable(w, []string{"k", "WCSS", "Reduction"})
	for i, p := range curve {
		reduction := ""
		if i > 0 {
			reduction = ftoa(curve[i-1].WCSS - p.WCSS)
		}
		table.Append([]string{strconv.Itoa(p.K), ftoa(p.WCSS), reduction})
	}
	table.Render()
}

func writeClusters(w io.Writer, view *domain.ClusterView) {
	heading(w, "Clusters (k=%d, WCSS %s, %d iterations)", view.K, ftoa(view.WCSS), view.Iterations)

	assign := newTable(w, []string{"Daerah", "Cluster"})
	for _, a := range view.Assignments {
		assign.Append([]string{a.Region, strconv.Itoa(a.Cluster)})
	}
	assign.Render()

	heading(w, "Dropouts per cluster")
	writeTotals(w, view.Totals)
}

func writeTotals(w io.Writer, aggs []domain.ClusterAggregate) {
	table := newTable(w, append(featureHeader("Cluster", "Regions"), "Total"))
	for _, a := range aggs {
		table.Append([]string{
			strconv.Itoa(a.Cluster), strconv.Itoa(a.Members),
			itoa(a.Sums.SD), itoa(a.Sums.SMP), itoa(a.Sums.SMA), itoa(a.Sums.SMK),
			itoa(a.Total),
		})
	}
	table.Render()
}

func writeEvaluation(w io.Writer, view *domain.EvaluationView) {
	heading(w, "Descriptive statistics")

	describe := newTable(w, []string{"Feature", "count", "mean", "std", "min", "25%", "50%", "75%", "max"})
	for _, s := range view.Describe {
		describe.Append([]string{
			s.Feature, strconv.Itoa(s.Count), ftoa(s.Mean), ftoa(s.Std),
			ftoa(s.Min), ftoa(s.Q25), ftoa(s.Median), ftoa(s.Q75), ftoa(s.Max),
		})
	}
	describe.Render()

	heading(w, "Cluster totals (k=%d)", view.K)
	writeTotals(w, view.Clusters)

	heading(w, "Cluster means")
	means := newTable(w, featureHeader("Cluster"))
	for _, a := range view.Clusters {
		means.Append([]string{
			strconv.Itoa(a.Cluster),
			ftoa(a.Means.SD), ftoa(a.Means.SMP), ftoa(a.Means.SMA), ftoa(a.Means.SMK),
		})
	}
	means.Render()

	heading(w, "Silhouette score: %s", view.SilhouetteDisplay)
}
