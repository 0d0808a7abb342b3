package dashboard

import (
	"fmt"
	"io"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"FundSentinel/internal/model"
)

const (
	colorNAV   = "#1f77b4"
	colorBand  = "#999999"
	colorSMA   = "#ff9f43"
	colorRSI   = "#8e44ad"
	chartWidth = "1100px"
)

// RenderChart writes an HTML page with the NAV and Bollinger bands on top and
// RSI with the buy/sell levels below.
func RenderChart(w io.Writer, f model.Fund, frame model.IndicatorFrame, buyRSI, sellRSI float64) error {
	if frame.Len() == 0 {
		return fmt.Errorf("no data for %s", f.Code)
	}
	xAxis := make([]string, frame.Len())
	for i, d := range frame.Dates {
		xAxis[i] = d.Format("2006-01-02")
	}

	price := charts.NewLine()
	price.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: chartWidth, Height: "420px", PageTitle: f.Name}),
		charts.WithTitleOpts(opts.Title{Title: fmt.Sprintf("%s (%s)", f.Name, f.Code), Subtitle: "净值与布林带"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Right: "10%"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", XAxisIndex: []int{0}}),
		charts.WithYAxisOpts(opts.YAxis{Scale: opts.Bool(true)}),
	)
	noSymbol := charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)})
	price.SetXAxis(xAxis).
		AddSeries("净值", toLineData(frame.Values), noSymbol, charts.WithLineStyleOpts(opts.LineStyle{Color: colorNAV, Width: 2})).
		AddSeries("上轨", toLineData(frame.Upper), noSymbol, charts.WithLineStyleOpts(opts.LineStyle{Color: colorBand, Type: "dashed"})).
		AddSeries("中轨", toLineData(frame.SMA), noSymbol, charts.WithLineStyleOpts(opts.LineStyle{Color: colorSMA})).
		AddSeries("下轨", toLineData(frame.Lower), noSymbol, charts.WithLineStyleOpts(opts.LineStyle{Color: colorBand, Type: "dashed"}))

	rsi := charts.NewLine()
	rsi.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: chartWidth, Height: "260px"}),
		charts.WithTitleOpts(opts.Title{Title: "RSI"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithYAxisOpts(opts.YAxis{Min: 0, Max: 100}),
	)
	rsi.SetXAxis(xAxis).AddSeries("RSI", toLineData(frame.RSI),
		noSymbol,
		charts.WithLineStyleOpts(opts.LineStyle{Color: colorRSI, Width: 2}),
		charts.WithMarkLineNameYAxisItemOpts(
			opts.MarkLineNameYAxisItem{Name: "超卖", YAxis: buyRSI},
			opts.MarkLineNameYAxisItem{Name: "超买", YAxis: sellRSI},
		),
	)

	page := components.NewPage()
	page.PageTitle = fmt.Sprintf("FundSentinel %s", f.Code)
	page.AddCharts(price, rsi)
	return page.Render(w)
}

func toLineData(series []float64) []opts.LineData {
	out := make([]opts.LineData, len(series))
	for i, v := range series {
		if math.IsNaN(v) {
			out[i] = opts.LineData{Value: nil}
			continue
		}
		out[i] = opts.LineData{Value: math.Round(v*10000) / 10000}
	}
	return out
}
