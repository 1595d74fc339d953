// Package report renders visual summaries of a study's landmarks: browser
// debug charts via go-echarts and PNG plane projections via gonum/plot.
package report

import (
	"bytes"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"net/http"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/cranial-data/landmark.report/internal/align"
	"github.com/cranial-data/landmark.report/internal/db"
	"github.com/cranial-data/landmark.report/internal/landmark"
)

const echartsAssetsPrefix = "https://go-echarts.github.io/go-echarts-assets/assets/"

// ChartHandler renders a scatter chart (HTML) of a study's digitized
// landmarks using go-echarts. This is a debugging-only endpoint (no auth) to
// eyeball landmark placement without a frontend.
// Query params:
//   - study_id (required)
//   - kind (optional; e.g. "frankfort-left") to overlay the aligned positions
//
// Points are projected onto the X/Y plane (superior view).
func ChartHandler(database *db.DB, names landmark.NameList) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		studyID := r.URL.Query().Get("study_id")
		if studyID == "" {
			http.Error(w, "missing study_id", http.StatusBadRequest)
			return
		}
		if _, err := database.GetStudy(studyID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				http.Error(w, "study not found", http.StatusNotFound)
			} else {
				http.Error(w, fmt.Sprintf("failed to load study: %v", err), http.StatusInternalServerError)
			}
			return
		}

		fids, err := database.Fiducials(studyID)
		if err != nil {
			http.Error(w, fmt.Sprintf("failed to load fiducials: %v", err), http.StatusInternalServerError)
			return
		}
		if len(fids) == 0 {
			http.Error(w, "no fiducials placed", http.StatusNotFound)
			return
		}

		points := make([]align.Point3, len(fids))
		for i, f := range fids {
			points[i] = align.Point3{X: f.X, Y: f.Y, Z: f.Z}
		}

		raw := make([]opts.ScatterData, 0, len(points))
		maxAbs := 0.0
		for i, p := range points {
			label := fmt.Sprintf("#%d", i)
			if i < len(fids) && fids[i].Name != "" {
				label = fids[i].Name
			}
			raw = append(raw, opts.ScatterData{Name: label, Value: []interface{}{p.X, p.Y}})
			maxAbs = math.Max(maxAbs, math.Max(math.Abs(p.X), math.Abs(p.Y)))
		}

		// Overlay the aligned positions when a kind is requested and its
		// landmarks are all placed.
		var aligned []opts.ScatterData
		subtitle := fmt.Sprintf("study=%s points=%d", studyID, len(points))
		if kindParam := r.URL.Query().Get("kind"); kindParam != "" {
			kind := landmark.Kind(kindParam)
			if _, err := kind.Required(); err != nil {
				http.Error(w, fmt.Sprintf("unknown alignment kind %q", kindParam), http.StatusBadRequest)
				return
			}
			m, err := landmark.Compute(kind, names, landmark.Points(db.PlacedPoints(fids)))
			if err != nil {
				subtitle += fmt.Sprintf(" (%s unavailable: %v)", kind, err)
			} else {
				aligned = make([]opts.ScatterData, 0, len(points))
				for i := 0; i < len(points); i++ {
					p := m.Apply(points[i])
					aligned = append(aligned, opts.ScatterData{Name: raw[i].Name, Value: []interface{}{p.X, p.Y}})
					maxAbs = math.Max(maxAbs, math.Max(math.Abs(p.X), math.Abs(p.Y)))
				}
				subtitle += fmt.Sprintf(" kind=%s", kind)
			}
		}

		// Small padding so points at the edges are visible, with symmetric
		// axis ranges to keep the plot square.
		pad := maxAbs * 1.05
		if pad == 0 {
			pad = 1.0
		}

		scatter := charts.NewScatter()
		scatter.SetGlobalOptions(
			charts.WithInitializationOpts(opts.Initialization{PageTitle: "Landmarks (Superior View)", Theme: "dark", Width: "900px", Height: "900px", AssetsHost: echartsAssetsPrefix}),
			charts.WithTitleOpts(opts.Title{Title: "Digitized Landmarks", Subtitle: subtitle}),
			charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
			charts.WithXAxisOpts(opts.XAxis{Min: -pad, Max: pad, Name: "X", NameLocation: "middle", NameGap: 25}),
			charts.WithYAxisOpts(opts.YAxis{Min: -pad, Max: pad, Name: "Y", NameLocation: "middle", NameGap: 30}),
		)

		scatter.AddSeries("digitized", raw, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 8}))
		if aligned != nil {
			scatter.AddSeries("aligned", aligned, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 8}))
		}

		var buf bytes.Buffer
		if err := scatter.Render(&buf); err != nil {
			http.Error(w, fmt.Sprintf("failed to render chart: %v", err), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(buf.Bytes())
	}
}
