// Package plot renders an agent's reward history.
package plot

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

var ErrNoRewards = errors.New("no rewards to plot")

// CumulativeReward returns the running sum of rewards.
func CumulativeReward(rewards []float64) []float64 {
	cumulative := make([]float64, len(rewards))
	if len(rewards) == 0 {
		return cumulative
	}

	return floats.CumSum(cumulative, rewards)
}

// SaveCumulativeReward writes a cumulative reward vs episode line chart to path.
// The image format follows the file extension.
func SaveCumulativeReward(path string, rewards []float64, width, height float64) error {
	if len(rewards) == 0 {
		return ErrNoRewards
	}

	cumulative := CumulativeReward(rewards)

	points := make(plotter.XYs, len(cumulative))
	for i, v := range cumulative {
		points[i] = plotter.XY{
			X: float64(i + 1),
			Y: v,
		}
	}

	p := plot.New()
	p.Title.Text = "Agent Cumulative Reward vs. Episode"
	p.X.Label.Text = "Episode"
	p.Y.Label.Text = "Reward"
	p.Add(plotter.NewGrid())

	line, err := plotter.NewLine(points)
	if err != nil {
		return fmt.Errorf("failed to build reward line: %w", err)
	}
	line.Color = plotutil.Color(0)
	p.Add(line)

	if dir := filepath.Dir(path); dir != "" {
		if err = os.MkdirAll(dir, os.ModePerm); err != nil {
			return fmt.Errorf("failed to create plot directory: %w", err)
		}
	}

	if err = p.Save(vg.Length(width)*vg.Inch, vg.Length(height)*vg.Inch, path); err != nil {
		return fmt.Errorf("failed to save plot: %w", err)
	}

	return nil
}
