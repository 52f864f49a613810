package constants

// RecordStatus is stored on document_records.status.
type RecordStatus string

const (
	RecordStatusProcessed RecordStatus = "processed"
)

// UploadState is a step of the upload state machine.
type UploadState string

// Stable values, also reported back to API callers.
const (
	StateReceived          UploadState = "RECEIVED"
	StateTextExtracted     UploadState = "TEXT_EXTRACTED"
	StateFieldsExtracted   UploadState = "FIELDS_EXTRACTED"
	StateValidated         UploadState = "VALIDATED"
	StatePersisted         UploadState = "PERSISTED"
	StateArtifactGenerated UploadState = "ARTIFACT_GENERATED"
	StateRejected          UploadState = "REJECTED" // terminal failure
)

// RejectCode classifies why an upload ended in StateRejected.
type RejectCode string

const (
	RejectFileType     RejectCode = "file_type"
	RejectFileSize     RejectCode = "file_size"
	RejectOCREmpty     RejectCode = "ocr_empty"
	RejectMissingField RejectCode = "missing_field"
	RejectStorage      RejectCode = "storage"
	RejectArtifact     RejectCode = "artifact"
)
