package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/cranial-data/landmark.report/internal/db"
	"github.com/cranial-data/landmark.report/internal/landmark"
)

// ANSI escape codes for cyan and reset
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

type Server struct {
	db    *db.DB
	names landmark.NameList
	units string
}

func NewServer(database *db.DB, names landmark.NameList, units string) *Server {
	return &Server{
		db:    database,
		names: names,
		units: units,
	}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, query, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		log.Printf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/studies", s.handleStudies)
	mux.HandleFunc("/api/studies/{id}/fiducials", s.handleFiducials)
	mux.HandleFunc("/api/studies/{id}/align", s.alignHandler)
	mux.HandleFunc("/api/studies/{id}/alignments", s.listAlignments)
	mux.HandleFunc("/api/config", s.showConfig)
	return mux
}

func (s *Server) writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func (s *Server) handleStudies(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	switch r.Method {
	case http.MethodGet:
		studies, err := s.db.ListStudies()
		if err != nil {
			s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to list studies: %v", err))
			return
		}
		if studies == nil {
			studies = []db.Study{}
		}
		if err := json.NewEncoder(w).Encode(studies); err != nil {
			s.writeJSONError(w, http.StatusInternalServerError, "Failed to write studies")
		}

	case http.MethodPost:
		var req struct {
			Name      string `json:"name"`
			NamesFile string `json:"names_file"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeJSONError(w, http.StatusBadRequest, "Invalid JSON body")
			return
		}
		if req.Name == "" {
			s.writeJSONError(w, http.StatusBadRequest, "Study name is required")
			return
		}

		study, err := s.db.CreateStudy(req.Name, req.NamesFile)
		if err != nil {
			s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to create study: %v", err))
			return
		}
		w.WriteHeader(http.StatusCreated)
		if err := json.NewEncoder(w).Encode(study); err != nil {
			log.Printf("failed to write study response: %v", err)
		}

	default:
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (s *Server) handleFiducials(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	studyID := r.PathValue("id")

	if _, err := s.db.GetStudy(studyID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.writeJSONError(w, http.StatusNotFound, "Study not found")
		} else {
			s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load study: %v", err))
		}
		return
	}

	switch r.Method {
	case http.MethodGet:
		fids, err := s.db.Fiducials(studyID)
		if err != nil {
			s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to list fiducials: %v", err))
			return
		}
		if fids == nil {
			fids = []db.Fiducial{}
		}
		if err := json.NewEncoder(w).Encode(fids); err != nil {
			s.writeJSONError(w, http.StatusInternalServerError, "Failed to write fiducials")
		}

	case http.MethodPost:
		var req struct {
			Index *int    `json:"index,omitempty"`
			X     float64 `json:"x"`
			Y     float64 `json:"y"`
			Z     float64 `json:"z"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeJSONError(w, http.StatusBadRequest, "Invalid JSON body")
			return
		}

		f := db.Fiducial{StudyID: studyID, X: req.X, Y: req.Y, Z: req.Z}
		if req.Index != nil {
			f.Index = *req.Index
		} else {
			// No index given: append after the last placed point.
			existing, err := s.db.Fiducials(studyID)
			if err != nil {
				s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to count fiducials: %v", err))
				return
			}
			f.Index = len(existing)
		}
		if f.Index < 0 {
			s.writeJSONError(w, http.StatusBadRequest, "Fiducial index must not be negative")
			return
		}
		// Points beyond the configured name list stay unlabelled.
		if f.Index < len(s.names) {
			f.Name = s.names[f.Index]
		}

		if err := s.db.UpsertFiducial(f); err != nil {
			s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to record fiducial: %v", err))
			return
		}
		w.WriteHeader(http.StatusCreated)
		if err := json.NewEncoder(w).Encode(f); err != nil {
			log.Printf("failed to write fiducial response: %v", err)
		}

	default:
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (s *Server) showConfig(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	config := map[string]interface{}{
		"units":          s.units,
		"landmark_names": s.names,
		"alignments":     landmark.Kinds(),
	}

	if err := json.NewEncoder(w).Encode(config); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write config")
	}
}
