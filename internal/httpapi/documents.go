package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/joseph-ayodele/ticket-ingest/internal/common"
	"github.com/joseph-ayodele/ticket-ingest/internal/entity"
	"github.com/joseph-ayodele/ticket-ingest/internal/extract"
	"github.com/joseph-ayodele/ticket-ingest/internal/pipeline"
	"github.com/joseph-ayodele/ticket-ingest/internal/records"
	"github.com/joseph-ayodele/ticket-ingest/internal/repository"
)

// multipart overhead allowed on top of the file size cap
const formOverhead = 1 << 20

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type documentView struct {
	*entity.DocumentRecord
	Fields extract.Fields `json:"fields"`
}

func newDocumentView(rec *entity.DocumentRecord) documentView {
	return documentView{DocumentRecord: rec, Fields: records.Fields(rec)}
}

type uploadResponse struct {
	ID             uuid.UUID       `json:"id"`
	State          pipeline.State  `json:"state"`
	Message        string          `json:"message"`
	Mode           extract.Mode    `json:"mode"`
	OCRMethod      string          `json:"ocr_method"`
	Pages          int             `json:"pages"`
	FallbackFields []extract.Field `json:"fallback_fields"`
	SkippedFields  []extract.Field `json:"skipped_fields,omitempty"`
	Recovered      bool            `json:"recovered"`
	Fields         extract.Fields  `json:"fields"`
	ExcelFile      string          `json:"excel_file"`
}

type rejectionResponse struct {
	Error  string         `json:"error"`
	Code   string         `json:"code"`
	Stage  pipeline.State `json:"stage"`
	Reason string         `json:"reason"`
}

func parseID(req *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(mux.Vars(req)["id"])
	if err != nil {
		return uuid.Nil, common.NewAppError("INVALID_ID", "invalid document id", common.ErrInvalidInput)
	}
	return id, nil
}

func (r *Router) uploadDocument(w http.ResponseWriter, req *http.Request) {
	mode, err := extract.ParseMode(req.URL.Query().Get("mode"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	req.Body = http.MaxBytesReader(w, req.Body, r.deps.MaxUploadBytes+formOverhead)
	file, header, err := req.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			respondJSON(w, http.StatusRequestEntityTooLarge, rejectionResponse{
				Error:  "El archivo supera el tamaño máximo permitido.",
				Code:   pipeline.CodeFileSize,
				Stage:  pipeline.StateReceived,
				Reason: "request body too large",
			})
			return
		}
		respondError(w, http.StatusBadRequest, "multipart field 'file' is required")
		return
	}
	defer file.Close()

	up := pipeline.Upload{
		FileName: header.Filename,
		Size:     header.Size,
		Body:     file,
		Mode:     mode,
		Fields:   r.deps.Fields.Snapshot(),
	}
	if uid, ok := common.UserIDFromContext(req.Context()); ok {
		up.UploadedBy = &uid
	}

	out, err := r.deps.Processor.Process(req.Context(), up)
	if err != nil {
		var rej *pipeline.RejectionError
		if errors.As(err, &rej) {
			status := http.StatusUnprocessableEntity
			switch rej.Code {
			case pipeline.CodeFileType:
				status = http.StatusUnsupportedMediaType
			case pipeline.CodeFileSize:
				status = http.StatusRequestEntityTooLarge
			case pipeline.CodeStorage, pipeline.CodeArtifact:
				status = http.StatusInternalServerError
			}
			respondJSON(w, status, rejectionResponse{Error: out.Message, Code: rej.Code, Stage: rej.Stage, Reason: rej.Reason})
			return
		}
		r.respondErr(w, req, err)
		return
	}

	fallbacks := out.Fallbacks
	if fallbacks == nil {
		fallbacks = []extract.Field{}
	}
	msg := "Documento procesado correctamente."
	if len(fallbacks) > 0 {
		msg = "Documento procesado con campos sintetizados."
	}
	respondJSON(w, http.StatusCreated, uploadResponse{
		ID:             out.Record.ID,
		State:          out.State,
		Message:        msg,
		Mode:           out.Result.Mode,
		OCRMethod:      out.OCRMethod,
		Pages:          out.Pages,
		FallbackFields: fallbacks,
		SkippedFields:  out.Skipped,
		Recovered:      out.Result.Recovered,
		Fields:         records.Fields(out.Record),
		ExcelFile:      out.Record.ExcelFile,
	})
}

func (r *Router) listDocuments(w http.ResponseWriter, req *http.Request) {
	q := req.URL.Query()
	filter := repository.ListFilter{}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 || n > 500 {
			respondError(w, http.StatusBadRequest, "limit must be between 0 and 500")
			return
		}
		filter.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			respondError(w, http.StatusBadRequest, "offset must be a non-negative integer")
			return
		}
		filter.Offset = n
	}
	if q.Get("mine") == "true" {
		if uid, ok := common.UserIDFromContext(req.Context()); ok {
			filter.UploadedBy = &uid
		}
	}

	recs, err := r.deps.Records.List(req.Context(), filter)
	if err != nil {
		r.respondErr(w, req, err)
		return
	}
	total, err := r.deps.Records.Count(req.Context())
	if err != nil {
		r.respondErr(w, req, err)
		return
	}
	views := make([]documentView, len(recs))
	for i, rec := range recs {
		views[i] = newDocumentView(rec)
	}
	respondJSON(w, http.StatusOK, map[string]any{"documents": views, "total": total})
}

func (r *Router) getDocument(w http.ResponseWriter, req *http.Request) {
	rec, ok := r.loadRecord(w, req)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, newDocumentView(rec))
}

func (r *Router) deleteDocument(w http.ResponseWriter, req *http.Request) {
	id, err := parseID(req)
	if err != nil {
		r.respondErr(w, req, err)
		return
	}
	if err := r.deps.Processor.Delete(req.Context(), id); err != nil {
		r.respondErr(w, req, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (r *Router) downloadExcel(w http.ResponseWriter, req *http.Request) {
	rec, ok := r.loadRecord(w, req)
	if !ok {
		return
	}
	r.serveArtifact(w, req, rec.ExcelFile, downloadName(rec.OriginalFile, ".xlsx"))
}

func (r *Router) loadRecord(w http.ResponseWriter, req *http.Request) (*entity.DocumentRecord, bool) {
	id, err := parseID(req)
	if err != nil {
		r.respondErr(w, req, err)
		return nil, false
	}
	rec, err := r.deps.Records.GetByID(req.Context(), id)
	if err != nil {
		r.respondErr(w, req, err)
		return nil, false
	}
	return rec, true
}

func (r *Router) serveArtifact(w http.ResponseWriter, req *http.Request, key, name string) {
	path, err := r.deps.Artifacts.Path(key)
	if err != nil {
		respondError(w, http.StatusNotFound, "artifact not found")
		return
	}
	f, err := os.Open(path)
	if err != nil {
		respondError(w, http.StatusNotFound, "artifact not found")
		return
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		r.respondErr(w, req, err)
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	http.ServeContent(w, req, name, st.ModTime(), f)
}

// downloadName swaps the extension of the stored original for ext.
func downloadName(original, ext string) string {
	base := filepath.Base(original)
	if len(base) > 37 && base[36] == '_' {
		base = base[37:]
	}
	return base[:len(base)-len(filepath.Ext(base))] + ext
}

func stamp(t time.Time) string { return t.UTC().Format("20060102_150405") }
