package report

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/cranial-data/landmark.report/internal/align"
	"github.com/cranial-data/landmark.report/internal/units"
)

// projection selects two coordinates of a landmark for a 2D plane plot.
type projection struct {
	name   string
	xLabel string
	yLabel string
	coords func(p align.Point3) (x, y float64)
}

// The three anatomical planes. Axial looks down the Z axis, coronal down Y,
// sagittal down X.
var projections = []projection{
	{"axial", "X", "Y", func(p align.Point3) (float64, float64) { return p.X, p.Y }},
	{"coronal", "X", "Z", func(p align.Point3) (float64, float64) { return p.X, p.Z }},
	{"sagittal", "Y", "Z", func(p align.Point3) (float64, float64) { return p.Y, p.Z }},
}

// WriteProjections saves one PNG scatter plot per anatomical plane for the
// given landmarks. Points are in millimetres and are converted to unit for
// display. Labels annotate each point; entries beyond the label list are
// numbered. Files are named <prefix>_<plane>.png under outputDir, which is
// created if needed. It returns the paths of the files written.
func WriteProjections(outputDir, prefix, unit string, labels []string, points []align.Point3) ([]string, error) {
	if len(points) == 0 {
		return nil, fmt.Errorf("no points to plot")
	}
	if !units.IsValid(unit) {
		return nil, fmt.Errorf("invalid units %q, must be one of: %s", unit, units.GetValidUnitsString())
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}

	files := make([]string, 0, len(projections))
	for _, proj := range projections {
		xys := make(plotter.XYs, len(points))
		names := make([]string, len(points))
		for i, pt := range points {
			x, y := proj.coords(pt)
			xys[i] = plotter.XY{X: units.ConvertLength(x, unit), Y: units.ConvertLength(y, unit)}
			if i < len(labels) && labels[i] != "" {
				names[i] = labels[i]
			} else {
				names[i] = fmt.Sprintf("#%d", i)
			}
		}

		p := plot.New()
		p.Title.Text = fmt.Sprintf("%s - %s view", prefix, proj.name)
		p.X.Label.Text = fmt.Sprintf("%s (%s)", proj.xLabel, unit)
		p.Y.Label.Text = fmt.Sprintf("%s (%s)", proj.yLabel, unit)

		scatter, err := plotter.NewScatter(xys)
		if err != nil {
			return files, fmt.Errorf("%s scatter: %w", proj.name, err)
		}
		scatter.GlyphStyle.Color = color.RGBA{R: 31, G: 158, B: 137, A: 255}
		scatter.GlyphStyle.Radius = vg.Points(3)
		p.Add(scatter)

		annotations, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: names})
		if err != nil {
			return files, fmt.Errorf("%s labels: %w", proj.name, err)
		}
		p.Add(annotations)

		file := filepath.Join(outputDir, fmt.Sprintf("%s_%s.png", prefix, proj.name))
		if err := p.Save(8*vg.Inch, 8*vg.Inch, file); err != nil {
			return files, fmt.Errorf("save %s plot: %w", proj.name, err)
		}
		files = append(files, file)
	}

	return files, nil
}
