package dmd

import (
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// SaveSpectrum writes a scatter plot of the eigenvalues in the complex
// plane together with the unit circle as a quick stability check: modes
// inside the circle decay, modes on it persist, modes outside grow.
func (d *Decomposition) SaveSpectrum(path string) error {
	p := plot.New()
	p.Title.Text = "DMD spectrum"
	p.X.Label.Text = "Re λ"
	p.Y.Label.Text = "Im λ"

	const samples = 256
	circle := make(plotter.XYs, samples+1)
	for i := range circle {
		theta := 2 * math.Pi * float64(i) / samples
		circle[i].X = math.Cos(theta)
		circle[i].Y = math.Sin(theta)
	}
	modes := make(plotter.XYs, len(d.Eigenvalues))
	for i, ev := range d.Eigenvalues {
		modes[i].X = real(ev)
		modes[i].Y = imag(ev)
	}

	if err := plotutil.AddLines(p, "unit circle", circle); err != nil {
		return err
	}
	if err := plotutil.AddScatters(p, "eigenvalues", modes); err != nil {
		return err
	}
	return p.Save(4*vg.Inch, 4*vg.Inch, path)
}
