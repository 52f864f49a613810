package httpapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/google/uuid"
)

func (r *Router) downloadReport(w http.ResponseWriter, req *http.Request) {
	rec, ok := r.loadRecord(w, req)
	if !ok {
		return
	}
	out, err := r.deps.Reports.Render(rec, r.deps.Fields.Snapshot())
	if err != nil {
		r.respondErr(w, req, err)
		return
	}
	name := fmt.Sprintf("reporte_%s_%s.pdf", rec.ID, stamp(out.GeneratedAt))
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Length", strconv.Itoa(len(out.PDF)))
	w.Header().Set("X-Security-Code", out.SecurityCode)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out.PDF)
}

type batchRequest struct {
	IDs []string `json:"ids"`
}

// batchReport builds a workbook over the listed ids; no ids means every document.
func (r *Router) batchReport(w http.ResponseWriter, req *http.Request) {
	var body batchRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil && err != io.EOF {
		respondError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	ids := make([]uuid.UUID, 0, len(body.IDs))
	for _, s := range body.IDs {
		id, err := uuid.Parse(s)
		if err != nil {
			respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid id %q", s))
			return
		}
		ids = append(ids, id)
	}
	key, _, err := r.deps.Processor.BatchReport(req.Context(), ids, r.deps.Fields.Snapshot())
	if err != nil {
		r.respondErr(w, req, err)
		return
	}
	r.serveArtifact(w, req, key, key)
}
