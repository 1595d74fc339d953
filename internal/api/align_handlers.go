package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/cranial-data/landmark.report/internal/align"
	"github.com/cranial-data/landmark.report/internal/db"
	"github.com/cranial-data/landmark.report/internal/landmark"
)

// AlignResponse is the wire form of one computed alignment: the 4x4
// row-major rotation plus its quality grade. The caller installs the
// matrix on its own transform node; nothing here touches scene state.
type AlignResponse struct {
	StudyID    string           `json:"study_id"`
	Kind       landmark.Kind    `json:"kind"`
	Matrix     align.Matrix4    `json:"matrix"`
	Assessment align.Assessment `json:"assessment"`
}

func (s *Server) alignHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodPost {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	studyID := r.PathValue("id")
	if _, err := s.db.GetStudy(studyID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.writeJSONError(w, http.StatusNotFound, "Study not found")
		} else {
			s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load study: %v", err))
		}
		return
	}

	kind := landmark.Kind(r.URL.Query().Get("kind"))
	if _, err := kind.Required(); err != nil {
		s.writeJSONError(w, http.StatusBadRequest,
			fmt.Sprintf("Unknown alignment kind %q (want one of %v)", kind, landmark.Kinds()))
		return
	}

	fids, err := s.db.Fiducials(studyID)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load fiducials: %v", err))
		return
	}
	points := landmark.Points(db.PlacedPoints(fids))

	matrix, assessment, err := landmark.ComputeAssessed(kind, s.names, points)
	if err != nil {
		if errors.Is(err, landmark.ErrMissing) || errors.Is(err, landmark.ErrInsufficientPoints) {
			s.writeJSONError(w, http.StatusUnprocessableEntity,
				fmt.Sprintf("All necessary landmarks not marked yet: %v", err))
			return
		}
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("Alignment failed: %v", err))
		return
	}

	if _, err := s.db.RecordAlignment(studyID, string(kind), matrix, assessment); err != nil {
		// The matrix is still good; losing the audit row is logged, not fatal.
		log.Printf("failed to record %s alignment for study %s: %v", kind, studyID, err)
	}

	resp := AlignResponse{
		StudyID:    studyID,
		Kind:       kind,
		Matrix:     matrix,
		Assessment: assessment,
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write alignment")
	}
}

func (s *Server) listAlignments(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	studyID := r.PathValue("id")
	records, err := s.db.Alignments(studyID)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to list alignments: %v", err))
		return
	}
	if records == nil {
		records = []db.AlignmentRecord{}
	}
	if err := json.NewEncoder(w).Encode(records); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write alignments")
	}
}
