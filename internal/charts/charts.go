// Package charts renders dashboard summary charts as PNG images.
package charts

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/freightlens/truck-traffic-dashboard/internal/domain"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// ErrNoData reports that the filtered selection has nothing to plot.
// Callers usually translate it into an empty HTTP response rather than
// an error page.
var ErrNoData = errors.New("no chart data for the current selection")

const (
	barChartWidth  = 900
	barChartHeight = 450
	pieChartWidth  = 520
	pieChartHeight = 450
)

// ClassVolumes renders a bar chart of total volume per vehicle class for
// the matched sites.
func ClassVolumes(s domain.Summary) ([]byte, error) {
	if s.Matched == 0 || s.TotalVolume <= 0 {
		return nil, ErrNoData
	}

	bars := make([]chart.Value, 0, len(s.ClassTotals))
	var maxTotal float64
	for _, ct := range s.ClassTotals {
		if ct.Total > maxTotal {
			maxTotal = ct.Total
		}
		bars = append(bars, chart.Value{
			Label: fmt.Sprintf("C%d", ct.Class),
			Value: ct.Total,
		})
	}
	if maxTotal <= 0 {
		return nil, ErrNoData
	}

	ch := chart.BarChart{
		Title:    fmt.Sprintf("Vehicle Volume by Class (%d sites)", s.Matched),
		Width:    barChartWidth,
		Height:   barChartHeight,
		BarWidth: 60,
		Background: chart.Style{
			Padding: chart.Box{Top: 40},
		},
		YAxis: chart.YAxis{
			Name:  "Vehicles per day",
			Range: &chart.ContinuousRange{Min: 0, Max: maxTotal * 1.1},
		},
		Bars: bars,
	}

	var buf bytes.Buffer
	if err := ch.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render class volume chart: %w", err)
	}
	return buf.Bytes(), nil
}

// TierShare renders a pie chart of how the matched sites split across
// volume tiers. Tiers with no sites are left out so that slice angles
// stay meaningful.
func TierShare(s domain.Summary, colors domain.TierColors) ([]byte, error) {
	if s.Matched == 0 {
		return nil, ErrNoData
	}

	tiers := []domain.VolumeTier{domain.TierLow, domain.TierMedium, domain.TierHigh}
	values := make([]chart.Value, 0, len(tiers))
	for _, tier := range tiers {
		count := s.TierCounts[tier]
		if count == 0 {
			continue
		}
		values = append(values, chart.Value{
			Label: fmt.Sprintf("%s (%d)", tier, count),
			Value: float64(count),
			Style: chart.Style{
				FillColor: drawing.ColorFromHex(strings.TrimPrefix(colors.ColorFor(tier), "#")),
			},
		})
	}
	if len(values) == 0 {
		return nil, ErrNoData
	}

	ch := chart.PieChart{
		Title:  "Sites by Volume Tier",
		Width:  pieChartWidth,
		Height: pieChartHeight,
		Values: values,
	}

	var buf bytes.Buffer
	if err := ch.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render tier share chart: %w", err)
	}
	return buf.Bytes(), nil
}
