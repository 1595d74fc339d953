package main

import (
	"fmt"
	"log"
	"os"

	"github.com/cranial-data/landmark.report/internal/db"
	"github.com/cranial-data/landmark.report/internal/digitizer"
	"github.com/cranial-data/landmark.report/internal/landmark"
)

const fixturesFile = "fixtures.txt"

func mustReadFixtures() []byte {
	data, err := os.ReadFile(fixturesFile)
	if err != nil {
		log.Fatalf("failed to open fixtures file: %v", err)
	}
	return data
}

// activeStudy finds the named study, creating it if absent. An empty name
// selects (or creates) the study "default".
func activeStudy(database *db.DB, name string) (*db.Study, error) {
	if name == "" {
		name = "default"
	}

	studies, err := database.ListStudies()
	if err != nil {
		return nil, fmt.Errorf("failed to list studies: %w", err)
	}
	for i := range studies {
		if studies[i].Name == name {
			return &studies[i], nil
		}
	}

	return database.CreateStudy(name, "")
}

// intake records digitized probe readings as study fiducials. Labelled
// readings land at the label's index in the name list; bare readings append
// after the highest index placed so far.
type intake struct {
	db      *db.DB
	studyID string
	names   landmark.NameList
	next    int
}

func newIntake(database *db.DB, studyID string, names landmark.NameList) *intake {
	next := 0
	if fids, err := database.Fiducials(studyID); err == nil {
		for _, f := range fids {
			if f.Index >= next {
				next = f.Index + 1
			}
		}
	}
	return &intake{db: database, studyID: studyID, names: names, next: next}
}

func (in *intake) Record(r digitizer.Reading) error {
	idx := in.next
	if r.Name != "" {
		i, ok := in.names.Index(r.Name)
		if !ok {
			return fmt.Errorf("probe label %q: %w", r.Name, landmark.ErrMissing)
		}
		idx = i
	}

	f := db.Fiducial{StudyID: in.studyID, Index: idx, X: r.X, Y: r.Y, Z: r.Z}
	if idx < len(in.names) {
		f.Name = in.names[idx]
	}
	if err := in.db.UpsertFiducial(f); err != nil {
		return fmt.Errorf("failed to record fiducial %d: %w", idx, err)
	}
	log.Printf("recorded fiducial %d (%s) at (%.2f, %.2f, %.2f)", idx, f.Name, r.X, r.Y, r.Z)

	if idx >= in.next {
		in.next = idx + 1
	}
	return nil
}
