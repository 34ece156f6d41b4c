package train

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// EpochStats is one row of the training history.
type EpochStats struct {
	Epoch     int
	TrainLoss float64
	TrainAcc  float64
	ValLoss   float64
	ValAcc    float64
	ValTop5   float64
}

// History collects per-epoch metrics and exports them as CSV or a curve
// plot.
type History struct {
	Epochs []EpochStats
}

// NewHistory returns an empty history.
func NewHistory() *History {
	return &History{}
}

// Append adds one epoch's stats.
func (h *History) Append(stats EpochStats) {
	h.Epochs = append(h.Epochs, stats)
}

// Last returns the most recent epoch stats.
func (h *History) Last() EpochStats {
	if len(h.Epochs) == 0 {
		panic("history: no epochs recorded")
	}
	return h.Epochs[len(h.Epochs)-1]
}

// WriteCSV emits the history with a header row.
func (h *History) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"epoch", "train_loss", "train_acc", "val_loss", "val_acc", "val_top5"}); err != nil {
		return fmt.Errorf("history: write header: %w", err)
	}
	for _, e := range h.Epochs {
		row := []string{
			strconv.Itoa(e.Epoch),
			formatFloat(e.TrainLoss),
			formatFloat(e.TrainAcc),
			formatFloat(e.ValLoss),
			formatFloat(e.ValAcc),
			formatFloat(e.ValTop5),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("history: write epoch %d: %w", e.Epoch, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

// SavePlot renders loss and accuracy curves to an image file. The format
// follows the file extension (png, svg, pdf).
func (h *History) SavePlot(path string) error {
	if len(h.Epochs) == 0 {
		return fmt.Errorf("history: nothing to plot")
	}

	p := plot.New()
	p.Title.Text = "Training history"
	p.X.Label.Text = "epoch"
	p.Y.Label.Text = "value"
	p.Legend.Top = true

	series := []struct {
		name   string
		values func(EpochStats) float64
	}{
		{"train loss", func(e EpochStats) float64 { return e.TrainLoss }},
		{"val loss", func(e EpochStats) float64 { return e.ValLoss }},
		{"train acc", func(e EpochStats) float64 { return e.TrainAcc }},
		{"val acc", func(e EpochStats) float64 { return e.ValAcc }},
	}

	for i, s := range series {
		pts := make(plotter.XYs, len(h.Epochs))
		for j, e := range h.Epochs {
			pts[j].X = float64(e.Epoch)
			pts[j].Y = s.values(e)
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("history: build %s series: %w", s.name, err)
		}
		line.Color = plotutil.Color(i)
		p.Add(line)
		p.Legend.Add(s.name, line)
	}

	if err := p.Save(8*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("history: save plot: %w", err)
	}
	return nil
}
