package view

import (
	"fmt"
	"strings"

	"github.com/AdityaTeltia/lyzr-agent-craft/clients/go/chatbase"
)

// SentimentView is the sentiment trend shown for the selected agent.
// Every load replaces it in full.
type SentimentView struct {
	AgentID string
	Summary string
	Turns   []chatbase.SentimentTurn
}

// Replace swaps the view for a fresh analysis of agentID.
func (v *SentimentView) Replace(agentID string, a *chatbase.SentimentAnalysis) {
	v.AgentID = agentID
	v.Summary = ""
	v.Turns = nil
	if a == nil {
		return
	}
	v.Summary = a.Summary
	v.Turns = append([]chatbase.SentimentTurn(nil), a.Trend...)
}

// Clear empties the view while keeping the selection.
func (v *SentimentView) Clear(agentID string) {
	v.Replace(agentID, nil)
}

// Empty reports whether there is nothing to chart.
func (v *SentimentView) Empty() bool {
	return len(v.Turns) == 0
}

// ChartPoint is one plotted turn.
type ChartPoint struct {
	X, Y float64
	Turn chatbase.SentimentTurn
}

// Chart is the SVG geometry of a sentiment trend. Scores run from -1 at the
// bottom to 1 at the top.
type Chart struct {
	Width, Height float64
	Padding       float64
	Points        []ChartPoint
}

// NewChart lays out turns inside a width x height box.
func NewChart(turns []chatbase.SentimentTurn, width, height float64) Chart {
	c := Chart{Width: width, Height: height, Padding: 24}
	innerW := width - 2*c.Padding
	innerH := height - 2*c.Padding

	n := len(turns)
	for i, t := range turns {
		x := c.Padding + innerW/2
		if n > 1 {
			x = c.Padding + innerW*float64(i)/float64(n-1)
		}
		score := clamp(t.Score, -1, 1)
		y := c.Padding + innerH*(1-score)/2
		c.Points = append(c.Points, ChartPoint{X: x, Y: y, Turn: t})
	}
	return c
}

// Polyline returns the points attribute of an SVG polyline through the chart.
func (c Chart) Polyline() string {
	parts := make([]string, len(c.Points))
	for i, p := range c.Points {
		parts[i] = fmt.Sprintf("%.1f,%.1f", p.X, p.Y)
	}
	return strings.Join(parts, " ")
}

// ZeroY is the vertical position of a neutral score.
func (c Chart) ZeroY() float64 {
	return c.Height / 2
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
