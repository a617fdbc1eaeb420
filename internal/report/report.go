// Package report renders a decision for one activity as styled terminal text.
package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"strava-filter/internal/analysis"
)

const (
	chartHeight  = 8
	chartWidth   = 50
	chartSamples = 60
	zoneBarWidth = 30
)

// Input is everything a report shows
type Input struct {
	Activity   *analysis.Activity
	Decision   analysis.Decision
	Thresholds analysis.Thresholds
	Streams    analysis.StreamSet
}

// Render returns the full report
func Render(in Input) string {
	sections := []string{
		titleStyle.Render(in.Decision.Title),
		"",
		renderSummary(in),
	}

	a := in.Decision.Analyses
	if a.HeartRate != nil {
		sections = append(sections, renderZones(a.HeartRate))
	}
	if a.Pace != nil {
		sections = append(sections, renderPace(a.Pace))
	}
	if a.Elevation != nil {
		sections = append(sections, renderElevation(a.Elevation))
	}
	if chart := renderChart("Heart Rate (bpm)", in.Streams.Channel(analysis.ChannelHeartrate)); chart != "" {
		sections = append(sections, chart)
	}
	if chart := renderChart("Altitude (m)", in.Streams.Channel(analysis.ChannelAltitude)); chart != "" {
		sections = append(sections, chart)
	}
	if a.HeartRate == nil && a.Pace == nil && a.Elevation == nil {
		sections = append(sections, mutedStyle.Render("No usable streams, title from metadata only"))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func renderSummary(in Input) string {
	var lines []string
	lines = append(lines, sectionStyle.Render("Summary"))

	act := in.Activity
	if act == nil {
		act = &analysis.Activity{}
	}
	activityType := act.Type
	if activityType == "" {
		activityType = "-"
	}
	lines = append(lines,
		renderMetric("Type", activityType),
		renderMetric("Distance", fmt.Sprintf("%.1f km", act.Distance/1000)),
		renderMetric("Elapsed", formatDuration(act.ElapsedTime)),
	)
	if threshold, ok := in.Thresholds[act.Type]; ok {
		lines = append(lines, renderMetric("Hide below", formatDuration(threshold)))
	} else {
		lines = append(lines, renderMetric("Hide below", "no threshold"))
	}

	verdict := showStyle.Render("SHOW in feed")
	if in.Decision.Hide {
		verdict = hideStyle.Render("HIDE from feed")
	}
	lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Left, labelStyle.Render("Decision"), verdict))
	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

func renderZones(hr *analysis.ZoneAnalysis) string {
	var lines []string
	title := fmt.Sprintf("HR Zones (avg %.0f, max %.0f bpm)", hr.AvgHR, hr.MaxHR)
	lines = append(lines, sectionStyle.Render(title))

	for i, pct := range hr.ZonePercentages {
		zone := i + 1
		barWidth := int(pct / 100 * zoneBarWidth)
		if barWidth < 1 && pct > 0 {
			barWidth = 1
		}
		bar := lipgloss.NewStyle().Foreground(zoneColors[i]).Render(strings.Repeat("█", barWidth))

		marker := " "
		if zone == hr.DominantZone {
			marker = "*"
		}
		label := fmt.Sprintf("%s Z%d %-15s", marker, zone, analysis.ZoneName(zone))
		lines = append(lines, label+bar+fmt.Sprintf(" %5.1f%%", pct))
	}

	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

func renderPace(p *analysis.PaceAnalysis) string {
	intervals := "no"
	if p.IsInterval {
		intervals = "yes"
	}
	lines := []string{
		sectionStyle.Render("Pace"),
		renderMetric("Average", p.PaceDescription),
		renderMetric("Max speed", fmt.Sprintf("%.1f km/h", p.MaxVelocity*3.6)),
		renderMetric("Variability", fmt.Sprintf("σ %.2f, Δ %.2f m/s", p.StdDev, p.AvgChange)),
		renderMetric("Intervals", intervals),
		"",
	}
	return strings.Join(lines, "\n")
}

func renderElevation(e *analysis.ElevationAnalysis) string {
	terrain := "flat"
	switch {
	case e.IsMountain:
		terrain = "mountain"
	case e.IsHilly:
		terrain = "hilly"
	}
	lines := []string{
		sectionStyle.Render("Elevation"),
		renderMetric("Total gain", fmt.Sprintf("%.0f m", e.TotalGain)),
		renderMetric("Biggest climb", fmt.Sprintf("%.0f m", e.BiggestClimb)),
		renderMetric("Climbs", fmt.Sprintf("%d", e.NumSignificantClimbs)),
		renderMetric("Terrain", terrain),
		"",
	}
	return strings.Join(lines, "\n")
}

// renderChart plots a downsampled series, or returns "" when there is too
// little data to draw
func renderChart(title string, data []float64) string {
	if len(data) > chartSamples {
		data = downsample(data, chartSamples)
	}
	if len(data) <= 2 {
		return ""
	}

	chart := asciigraph.Plot(data,
		asciigraph.Height(chartHeight),
		asciigraph.Width(chartWidth),
	)
	return strings.Join([]string{sectionStyle.Render(title), chart, ""}, "\n")
}

// downsample averages data into targetLen buckets
func downsample(data []float64, targetLen int) []float64 {
	if len(data) <= targetLen {
		return data
	}

	result := make([]float64, targetLen)
	ratio := float64(len(data)) / float64(targetLen)

	for i := 0; i < targetLen; i++ {
		start := int(float64(i) * ratio)
		end := int(float64(i+1) * ratio)
		if end > len(data) {
			end = len(data)
		}
		if end <= start {
			end = start + 1
		}

		sum := 0.0
		for j := start; j < end; j++ {
			sum += data[j]
		}
		result[i] = sum / float64(end-start)
	}
	return result
}

func formatDuration(seconds int) string {
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
