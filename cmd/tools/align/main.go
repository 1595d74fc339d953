// Command align computes an anatomical alignment matrix from a file of
// digitized landmark points without running the server.
//
// The points file holds one reading per line, either "x,y,z" (placed in file
// order) or "name,x,y,z" (placed at the name's index in the name list).
// Blank lines and '#' comments are ignored.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/cranial-data/landmark.report/internal/align"
	"github.com/cranial-data/landmark.report/internal/config"
	"github.com/cranial-data/landmark.report/internal/digitizer"
	"github.com/cranial-data/landmark.report/internal/landmark"
	"github.com/cranial-data/landmark.report/internal/report"
	"github.com/cranial-data/landmark.report/internal/units"
)

func main() {
	var pointsPath string
	var namesPath string
	var kindName string
	var asJSON bool
	var plotsDir string
	var plotUnits string

	flag.StringVar(&pointsPath, "points", "", "path to landmark points file (required)")
	flag.StringVar(&namesPath, "names", "", "path to landmark name list (defaults to built-in list)")
	flag.StringVar(&kindName, "kind", string(landmark.FrankfortLeft), "alignment kind")
	flag.BoolVar(&asJSON, "json", false, "emit the result as JSON")
	flag.StringVar(&plotsDir, "plots", "", "write PNG projections of the aligned points to this directory")
	flag.StringVar(&plotUnits, "units", units.MM, "axis units for projection plots: "+units.GetValidUnitsString())
	flag.Parse()

	if pointsPath == "" {
		flag.Usage()
		log.Fatal("missing -points")
	}

	names := landmark.DefaultNames
	if namesPath != "" {
		loaded, err := config.LoadNames(namesPath)
		if err != nil {
			log.Fatalf("load names: %v", err)
		}
		names = loaded
	}

	points, err := readPoints(pointsPath, names)
	if err != nil {
		log.Fatalf("read points: %v", err)
	}

	kind := landmark.Kind(kindName)
	matrix, assessment, err := landmark.ComputeAssessed(kind, names, points)
	if err != nil {
		log.Fatalf("alignment failed: %v", err)
	}

	if asJSON {
		out := struct {
			Kind       landmark.Kind    `json:"kind"`
			Matrix     align.Matrix4    `json:"matrix"`
			Assessment align.Assessment `json:"assessment"`
		}{kind, matrix, assessment}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			log.Fatalf("encode result: %v", err)
		}
	} else {
		fmt.Printf("%s alignment (%d points)\n\n", kind, points.Count())
		for row := 0; row < 4; row++ {
			fmt.Printf("  [ %9.6f %9.6f %9.6f %9.6f ]\n",
				matrix[row*4], matrix[row*4+1], matrix[row*4+2], matrix[row*4+3])
		}
		fmt.Printf("\nquality: %s (residual tilt %.4f deg)\n", assessment.Quality, assessment.ResidualTiltDeg)
	}

	if plotsDir != "" {
		aligned := make([]align.Point3, points.Count())
		for i := range aligned {
			aligned[i] = matrix.Apply(points.PositionAt(i))
		}
		files, err := report.WriteProjections(plotsDir, "raw", plotUnits, names, points)
		if err != nil {
			log.Fatalf("write projections: %v", err)
		}
		alignedFiles, err := report.WriteProjections(plotsDir, string(kind), plotUnits, names, aligned)
		if err != nil {
			log.Fatalf("write projections: %v", err)
		}
		for _, f := range append(files, alignedFiles...) {
			fmt.Printf("wrote %s\n", f)
		}
	}
}

// readPoints parses a landmark points file. Bare readings append in order;
// labelled readings land at the label's index in the name list.
func readPoints(path string, names landmark.NameList) (landmark.Points, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	placed := make(map[int]align.Point3)
	next := 0
	for lineNo, line := range strings.Split(string(data), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		r, err := digitizer.ParseLine(trimmed)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo+1, err)
		}

		idx := next
		if r.Name != "" {
			i, ok := names.Index(r.Name)
			if !ok {
				return nil, fmt.Errorf("line %d: label %q: %w", lineNo+1, r.Name, landmark.ErrMissing)
			}
			idx = i
		}

		placed[idx] = align.Point3{X: r.X, Y: r.Y, Z: r.Z}
		if idx >= next {
			next = idx + 1
		}
	}

	if len(placed) == 0 {
		return nil, fmt.Errorf("no points in %s", path)
	}

	points := make(landmark.Points, len(placed))
	for i := range points {
		p, ok := placed[i]
		if !ok {
			name := fmt.Sprintf("index %d", i)
			if i < len(names) {
				name = names[i]
			}
			return nil, fmt.Errorf("landmark %s not placed (indexes must be contiguous from 0)", name)
		}
		points[i] = p
	}
	return points, nil
}
