// Package db persists studies, placed fiducials and computed alignment
// history in sqlite. The alignment matrix itself stays a return value of
// the core math; rows here are an audit trail, not a scene object.
package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/tailscale/tailsql/server/tailsql"
	_ "modernc.org/sqlite"
	"tailscale.com/tsweb"

	"github.com/cranial-data/landmark.report/internal/align"
)

type DB struct {
	*sql.DB
}

// OpenDB opens the sqlite database without touching the schema. Use this
// from the migrate CLI where migrations manage the schema.
func OpenDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	return &DB{db}, nil
}

// NewDB opens the sqlite database and ensures the baseline schema exists.
func NewDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS studies (
			study_id          TEXT PRIMARY KEY,
			name              TEXT NOT NULL,
			names_file        TEXT,
			created_at        TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
		CREATE TABLE IF NOT EXISTS fiducials (
			study_id          TEXT NOT NULL,
			idx               INTEGER NOT NULL,
			name              TEXT,
			x                 DOUBLE NOT NULL,
			y                 DOUBLE NOT NULL,
			z                 DOUBLE NOT NULL,
			placed_at         TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (study_id, idx),
			FOREIGN KEY(study_id) REFERENCES studies(study_id)
		);
		CREATE TABLE IF NOT EXISTS alignments (
			alignment_id      INTEGER PRIMARY KEY AUTOINCREMENT,
			study_id          TEXT NOT NULL,
			kind              TEXT NOT NULL,
			matrix            TEXT NOT NULL,
			residual_tilt_deg DOUBLE,
			quality           TEXT,
			created_at        TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY(study_id) REFERENCES studies(study_id)
		);
	`)
	if err != nil {
		return nil, err
	}

	return &DB{db}, nil
}

// Study is one digitization session: a specimen plus the name list it was
// digitized against.
type Study struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	NamesFile string    `json:"names_file,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Fiducial is one placed point. Index is the point's position in the
// study's ordered landmark name list.
type Fiducial struct {
	StudyID string  `json:"study_id"`
	Index   int     `json:"index"`
	Name    string  `json:"name,omitempty"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Z       float64 `json:"z"`
}

// AlignmentRecord is one computed alignment kept for audit.
type AlignmentRecord struct {
	ID              int64         `json:"id"`
	StudyID         string        `json:"study_id"`
	Kind            string        `json:"kind"`
	Matrix          align.Matrix4 `json:"matrix"`
	ResidualTiltDeg float64       `json:"residual_tilt_deg"`
	Quality         string        `json:"quality"`
	CreatedAt       time.Time     `json:"created_at"`
}

// CreateStudy inserts a new study and returns it with a fresh uuid.
func (db *DB) CreateStudy(name, namesFile string) (*Study, error) {
	study := &Study{
		ID:        uuid.NewString(),
		Name:      name,
		NamesFile: namesFile,
		CreatedAt: time.Now().UTC(),
	}
	_, err := db.Exec(
		`INSERT INTO studies (study_id, name, names_file, created_at) VALUES (?, ?, ?, ?)`,
		study.ID, study.Name, study.NamesFile, study.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create study: %w", err)
	}
	return study, nil
}

// GetStudy fetches one study by id. Returns sql.ErrNoRows when absent.
func (db *DB) GetStudy(id string) (*Study, error) {
	var s Study
	err := db.QueryRow(
		`SELECT study_id, name, names_file, created_at FROM studies WHERE study_id = ?`, id,
	).Scan(&s.ID, &s.Name, &s.NamesFile, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ListStudies returns studies newest first.
func (db *DB) ListStudies() ([]Study, error) {
	rows, err := db.Query(
		`SELECT study_id, name, names_file, created_at FROM studies ORDER BY created_at DESC LIMIT 100`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var studies []Study
	for rows.Next() {
		var s Study
		if err := rows.Scan(&s.ID, &s.Name, &s.NamesFile, &s.CreatedAt); err != nil {
			return nil, err
		}
		studies = append(studies, s)
	}
	return studies, rows.Err()
}

// UpsertFiducial records a placed point, replacing any earlier placement
// at the same index (re-digitizing a landmark overwrites it).
func (db *DB) UpsertFiducial(f Fiducial) error {
	_, err := db.Exec(
		`INSERT INTO fiducials (study_id, idx, name, x, y, z) VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(study_id, idx) DO UPDATE SET
		   name = excluded.name, x = excluded.x, y = excluded.y, z = excluded.z,
		   placed_at = CURRENT_TIMESTAMP`,
		f.StudyID, f.Index, f.Name, f.X, f.Y, f.Z,
	)
	if err != nil {
		return fmt.Errorf("failed to record fiducial %d for study %s: %w", f.Index, f.StudyID, err)
	}
	return nil
}

// Fiducials returns the study's placed points ordered by index.
func (db *DB) Fiducials(studyID string) ([]Fiducial, error) {
	rows, err := db.Query(
		`SELECT study_id, idx, name, x, y, z FROM fiducials WHERE study_id = ? ORDER BY idx`, studyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fids []Fiducial
	for rows.Next() {
		var f Fiducial
		if err := rows.Scan(&f.StudyID, &f.Index, &f.Name, &f.X, &f.Y, &f.Z); err != nil {
			return nil, err
		}
		fids = append(fids, f)
	}
	return fids, rows.Err()
}

// PlacedPoints returns the coordinates of the contiguous run of fiducials
// starting at index 0. A landmark only counts as placed once everything
// before it in the name list is placed too, so a gap in the indices ends
// the run.
func PlacedPoints(fids []Fiducial) []align.Point3 {
	points := make([]align.Point3, 0, len(fids))
	for i, f := range fids {
		if f.Index != i {
			break
		}
		points = append(points, align.Point3{X: f.X, Y: f.Y, Z: f.Z})
	}
	return points
}

// RecordAlignment appends one computed alignment to the audit trail. The
// matrix is stored as a JSON array of 16 row-major values.
func (db *DB) RecordAlignment(studyID, kind string, m align.Matrix4, a align.Assessment) (int64, error) {
	matrixJSON, err := json.Marshal(m)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal matrix: %w", err)
	}

	res, err := db.Exec(
		`INSERT INTO alignments (study_id, kind, matrix, residual_tilt_deg, quality)
		 VALUES (?, ?, ?, ?, ?)`,
		studyID, kind, string(matrixJSON), a.ResidualTiltDeg, string(a.Quality),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to record alignment: %w", err)
	}
	return res.LastInsertId()
}

// Alignments returns the study's alignment history, newest first.
func (db *DB) Alignments(studyID string) ([]AlignmentRecord, error) {
	rows, err := db.Query(
		`SELECT alignment_id, study_id, kind, matrix, residual_tilt_deg, quality, created_at
		 FROM alignments WHERE study_id = ? ORDER BY created_at DESC, alignment_id DESC LIMIT 100`,
		studyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []AlignmentRecord
	for rows.Next() {
		var r AlignmentRecord
		var matrixJSON string
		if err := rows.Scan(&r.ID, &r.StudyID, &r.Kind, &matrixJSON, &r.ResidualTiltDeg, &r.Quality, &r.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(matrixJSON), &r.Matrix); err != nil {
			return nil, fmt.Errorf("corrupt matrix for alignment %d: %w", r.ID, err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// AttachAdminRoutes mounts tsweb debug pages, tailSQL live querying and a
// vacuum-backup download on the mux.
func (db *DB) AttachAdminRoutes(mux *http.ServeMux) {
	debug := tsweb.Debugger(mux)

	// create a tailSQL instance and point it to our DB
	tsql, err := tailsql.NewServer(tailsql.Options{
		RoutePrefix: "/debug/tailsql/",
	})
	if err != nil {
		log.Fatalf("failed to create tailsql server: %v", err)
	}
	tsql.SetDB("sqlite://landmark.db", db.DB, &tailsql.DBOptions{
		Label: "Landmark DB",
	})
	debug.Handle("tailsql/", "SQL live debugging", tsql.NewMux())

	debug.Handle("backup", "Create and download a backup of the database now", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		unixTime := time.Now().Unix()
		backupPath := fmt.Sprintf("backup-%d.db", unixTime)
		if _, err := db.DB.Exec("VACUUM INTO ?", backupPath); err != nil {
			http.Error(w, fmt.Sprintf("Failed to create backup: %v", err), http.StatusInternalServerError)
			return
		}
		defer func() {
			if err := os.Remove(backupPath); err != nil {
				log.Printf("Failed to remove backup file: %v", err)
			}
		}()

		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", backupPath))
		w.Header().Set("Content-Type", "application/octet-stream")
		http.ServeFile(w, r, backupPath)
	}))
}
