package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/joseph-ayodele/ticket-ingest/internal/extract"
	"github.com/joseph-ayodele/ticket-ingest/internal/fields"
)

type fieldUpdate struct {
	Extract  *bool   `json:"extract"`
	Display  *string `json:"display"`
	Required *bool   `json:"required"`
}

func (r *Router) listFields(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, r.deps.Fields.Snapshot())
}

// updateField merges the body into the current spec of key and persists it.
func (r *Router) updateField(w http.ResponseWriter, req *http.Request) {
	key := mux.Vars(req)["key"]
	if _, ok := extract.Known(key); !ok {
		respondError(w, http.StatusBadRequest, "unknown field "+key)
		return
	}
	var body fieldUpdate
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	spec, ok := r.deps.Fields.Snapshot().Lookup(key)
	if !ok {
		spec = fields.Spec{Key: key, Extract: true, Display: key}
	}
	if body.Extract != nil {
		spec.Extract = *body.Extract
	}
	if body.Display != nil {
		if *body.Display == "" || len([]rune(*body.Display)) > 64 {
			respondError(w, http.StatusBadRequest, "display must be 1-64 characters")
			return
		}
		spec.Display = *body.Display
	}
	if body.Required != nil {
		spec.Required = *body.Required
	}

	cfg, err := r.deps.Fields.Put(spec)
	if err != nil {
		r.respondErr(w, req, err)
		return
	}
	respondJSON(w, http.StatusOK, cfg)
}
