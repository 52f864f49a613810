package constants

import "strings"

// Source formats understood by the OCR layer.
const (
	PDF   = "PDF"
	IMAGE = "IMAGE"
)

// MaxUploadBytes is the default cap for a single uploaded ticket.
const MaxUploadBytes int64 = 16 << 20

// MinOCRTextLen is the shortest trimmed OCR text accepted for extraction.
const MinOCRTextLen = 10

// AllowedExtensions holds the file extensions accepted for ticket ingestion.
var AllowedExtensions = map[string]struct{}{
	"pdf":  {},
	"png":  {},
	"jpg":  {},
	"jpeg": {},
	"bmp":  {},
	"tiff": {},
	"tif":  {},
}

// DocumentTypes lists the paper documents a ticket bundle may contain.
var DocumentTypes = []string{"ticket_pesaje", "guia_remision", "declaracion_carga"}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// IsAllowedExt reports whether ext (with or without dot) is accepted.
func IsAllowedExt(ext string) bool {
	_, ok := AllowedExtensions[NormalizeExt(ext)]
	return ok
}

// MapExtToFormat returns PDF or IMAGE for an allowed extension, "" otherwise.
func MapExtToFormat(ext string) string {
	ext = NormalizeExt(ext)
	if !IsAllowedExt(ext) {
		return ""
	}
	if ext == "pdf" {
		return PDF
	}
	return IMAGE
}

// SortedExtensions returns the allowed extensions in a stable order.
func SortedExtensions() []string {
	return []string{"pdf", "png", "jpg", "jpeg", "bmp", "tiff", "tif"}
}
