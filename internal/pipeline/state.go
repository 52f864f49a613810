package pipeline

import (
	"fmt"

	"github.com/joseph-ayodele/ticket-ingest/internal/common"
)

// State is a step of the upload state machine.
type State string

const (
	StateReceived          State = "received"
	StateTextExtracted     State = "text_extracted"
	StateFieldsExtracted   State = "fields_extracted"
	StateValidated         State = "validated"
	StatePersisted         State = "persisted"
	StateArtifactGenerated State = "artifact_generated"
	StateRejected          State = "rejected"
)

// Rejection codes.
const (
	CodeFileType     = "file_type"
	CodeFileSize     = "file_size"
	CodeOCREmpty     = "ocr_empty"
	CodeMissingField = "missing_field"
	CodeStorage      = "storage"
	CodeArtifact     = "artifact"
)

var userMessages = map[string]string{
	CodeFileType:     "Tipo de archivo no permitido.",
	CodeFileSize:     "El archivo supera el tamaño máximo permitido.",
	CodeOCREmpty:     "No se pudo leer texto del documento.",
	CodeMissingField: "Faltan campos obligatorios en el documento.",
	CodeStorage:      "No se pudo guardar el documento.",
	CodeArtifact:     "No se pudo generar el archivo Excel.",
}

// RejectionError ends an upload. Stage is the state that could not be reached.
type RejectionError struct {
	Stage  State
	Code   string
	Reason string
	Err    error
}

func (e *RejectionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("upload rejected at %s (%s): %s: %v", e.Stage, e.Code, e.Reason, e.Err)
	}
	return fmt.Sprintf("upload rejected at %s (%s): %s", e.Stage, e.Code, e.Reason)
}

func (e *RejectionError) Unwrap() error { return e.Err }

// Is makes every rejection match common.ErrRejected.
func (e *RejectionError) Is(target error) bool { return target == common.ErrRejected }

// UserMessage is the caller-facing text for the rejection.
func (e *RejectionError) UserMessage() string {
	if m, ok := userMessages[e.Code]; ok {
		return m
	}
	return "No se pudo procesar el documento."
}

func reject(stage State, code, reason string, err error) *RejectionError {
	return &RejectionError{Stage: stage, Code: code, Reason: reason, Err: err}
}
