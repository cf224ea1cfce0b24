package export

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/Mahrukh-Haseeb/gc-content-analyzer/internal/composition"
)

const (
	chartWidth  = "1000px"
	chartHeight = "500px"
	pieHeight   = "350px"
	// maxPieCharts caps the per-sequence pies so a huge upload does not
	// produce an unreadable page.
	maxPieCharts = 12
)

// WriteChartHTML renders a self-contained HTML page with a GC% bar
// chart across sequences and per-sequence GC-vs-AT pies.
func WriteChartHTML(w io.Writer, t *composition.Table) error {
	page := components.NewPage()
	page.PageTitle = "GC Content Analysis"
	page.AddCharts(buildGCBar(t))
	for i, row := range t.Rows {
		if i >= maxPieCharts {
			break
		}
		page.AddCharts(buildCompositionPie(row))
	}
	return page.Render(w)
}

func buildGCBar(t *composition.Table) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: chartWidth, Height: chartHeight}),
		charts.WithTitleOpts(opts.Title{
			Title:    "GC% per Sequence",
			Subtitle: fmt.Sprintf("mean %.2f  min %.2f  max %.2f", t.Summary.MeanGC, t.Summary.MinGC, t.Summary.MaxGC),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "GC%"}),
	)

	names := make([]string, len(t.Rows))
	data := make([]opts.BarData, len(t.Rows))
	for i, row := range t.Rows {
		names[i] = row.Identifier
		data[i] = opts.BarData{Value: row.GCPercent}
	}
	bar.SetXAxis(names).AddSeries("GC%", data)
	return bar
}

func buildCompositionPie(row composition.Stats) *charts.Pie {
	pie := charts.NewPie()
	pie.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: chartWidth, Height: pieHeight}),
		charts.WithTitleOpts(opts.Title{Title: row.Identifier}),
	)
	other := 100 - row.GCPercent - row.ATPercent
	data := []opts.PieData{
		{Name: "GC%", Value: row.GCPercent},
		{Name: "AT%", Value: row.ATPercent},
	}
	if other > 0 {
		data = append(data, opts.PieData{Name: "ambiguous%", Value: other})
	}
	pie.AddSeries("composition", data).SetSeriesOptions(
		charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Formatter: "{b}: {d}%"}),
	)
	return pie
}
