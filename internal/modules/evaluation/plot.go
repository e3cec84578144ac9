package evaluation

import (
	"fmt"
	"image/color"
	"strconv"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/brewer"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// cmGrid presents a confusion matrix to the heat map with true class 0 in
// the top row.
type cmGrid struct {
	m *mat.Dense
}

func (g cmGrid) Dims() (c, r int) {
	rows, cols := g.m.Dims()
	return cols, rows
}

func (g cmGrid) Z(c, r int) float64 {
	rows, _ := g.m.Dims()
	return g.m.At(rows-1-r, c)
}

func (g cmGrid) X(c int) float64 { return float64(c) }
func (g cmGrid) Y(r int) float64 { return float64(r) }

// ConfusionMatrixPlot builds a heat map of cm with the count written in each
// cell. labels name the classes in matrix order.
func ConfusionMatrixPlot(cm *mat.Dense, labels []string) (*plot.Plot, error) {
	rows, cols := cm.Dims()
	if rows != cols || rows != len(labels) {
		return nil, fmt.Errorf("confusion matrix is %dx%d with %d labels", rows, cols, len(labels))
	}

	pal, err := brewer.GetPalette(brewer.TypeSequential, "Blues", 9)
	if err != nil {
		return nil, fmt.Errorf("palette: %w", err)
	}
	grid := cmGrid{m: cm}
	heat := plotter.NewHeatMap(grid, pal)
	if heat.Max <= heat.Min {
		heat.Max = heat.Min + 1
	}

	var xys plotter.XYs
	var text []string
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			xys = append(xys, plotter.XY{X: float64(c), Y: float64(rows - 1 - r)})
			text = append(text, strconv.FormatFloat(cm.At(r, c), 'f', -1, 64))
		}
	}
	counts, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: text})
	if err != nil {
		return nil, fmt.Errorf("labels: %w", err)
	}
	threshold := heat.Min + (heat.Max-heat.Min)/2
	for i := range counts.TextStyle {
		counts.TextStyle[i].XAlign = draw.XCenter
		counts.TextStyle[i].YAlign = draw.YCenter
		r, c := i/cols, i%cols
		if cm.At(r, c) > threshold {
			counts.TextStyle[i].Color = color.White
		}
	}

	p := plot.New()
	p.Title.Text = "Confusion matrix"
	p.X.Label.Text = "Predicted label"
	p.Y.Label.Text = "True label"
	p.Add(heat, counts)

	reversed := make([]string, len(labels))
	for i, l := range labels {
		reversed[len(labels)-1-i] = l
	}
	p.NominalX(labels...)
	p.NominalY(reversed...)
	return p, nil
}

// PlotConfusionMatrix renders cm to path. The format follows the file
// extension (png, svg, pdf).
func PlotConfusionMatrix(cm *mat.Dense, labels []string, path string) error {
	p, err := ConfusionMatrixPlot(cm, labels)
	if err != nil {
		return err
	}
	rows, _ := cm.Dims()
	side := vg.Length(2+rows) * vg.Centimeter
	if err := p.Save(side, side, path); err != nil {
		return fmt.Errorf("save confusion matrix: %w", err)
	}
	return nil
}
