package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/jaimenoain/ceeq/internal/model"
	"github.com/jaimenoain/ceeq/internal/sourcing"
	"github.com/jaimenoain/ceeq/internal/store"
)

const maxImportBytes = 32 << 20

func (s *Server) handleUniverse(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	q := r.URL.Query()

	filter := store.TargetFilter{
		Search:   q.Get("search"),
		Industry: q.Get("industry"),
		Status:   model.SourcingStatus(q.Get("status")),
	}
	if filter.Status != "" && !filter.Status.Valid() {
		writeValidationError(w, "unknown status filter", map[string]string{"status": string(filter.Status)})
		return
	}
	filter.Page, _ = strconv.Atoi(q.Get("page"))
	filter.Limit, _ = strconv.Atoi(q.Get("limit"))

	page, err := s.sourcing.ListUniverse(r.Context(), sess.WorkspaceID, filter)
	if err != nil {
		s.serviceError(w, err, "list universe")
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// handleImport accepts a multipart upload: a "file" part with the CSV
// and a "mapping" part with the column mapping JSON.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())

	if err := r.ParseMultipartForm(maxImportBytes); err != nil {
		writeValidationError(w, "expected multipart form upload", nil)
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		writeValidationError(w, "file part is required", nil)
		return
	}
	defer file.Close()

	var mapping sourcing.Mapping
	if err := json.Unmarshal([]byte(r.FormValue("mapping")), &mapping); err != nil {
		writeValidationError(w, "mapping must be valid JSON", nil)
		return
	}

	result, err := s.sourcing.ImportCSV(r.Context(), sess.WorkspaceID, file, mapping)
	if err != nil {
		switch {
		case errors.Is(err, sourcing.ErrMappingInvalid):
			writeValidationError(w, "mapping must name name and domain columns", nil)
		case errors.Is(err, sourcing.ErrMissingColumn):
			writeValidationError(w, "mapping references a column not present in the file", nil)
		default:
			s.serviceError(w, err, "import csv")
		}
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleBulkStatus(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())

	var in struct {
		TargetIDs []string             `json:"target_ids"`
		Status    model.SourcingStatus `json:"status"`
	}
	if err := decodeBody(r, &in); err != nil {
		writeValidationError(w, "invalid JSON body", nil)
		return
	}

	updated, err := s.sourcing.BulkStatus(r.Context(), sess.WorkspaceID, in.TargetIDs, in.Status)
	if err != nil {
		if errors.Is(err, sourcing.ErrInvalidStatus) {
			writeValidationError(w, "unknown status", map[string]string{"status": string(in.Status)})
			return
		}
		s.serviceError(w, err, "bulk status")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"updated": updated})
}
