package ocr

import (
	"regexp"
	"strings"
)

var (
	reTicketDate   = regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{4}\b|\b[a-z]{3}\s+\d{1,2}\s+\d{4}\b`)
	reWeightLabel  = regexp.MustCompile(`\b(tara|bruto|neto)\b`)
	reWeightAmount = regexp.MustCompile(`\b\d{1,3}(,\d{3})+(\.\d+)?\b|\b\d{4,6}\b`)
	rePlate        = regexp.MustCompile(`\b[a-z0-9]{3}-[a-z0-9]{3}\b`)
)

// heuristicConfidence scores decoded text by the ticket artifacts it contains.
func heuristicConfidence(txt string) float32 {
	txtL := strings.ToLower(txt)
	score := float32(0.2)
	if reTicketDate.MatchString(txtL) {
		score += 0.2
	}
	if reWeightLabel.MatchString(txtL) {
		score += 0.2
	}
	if reWeightAmount.MatchString(txtL) {
		score += 0.15
	}
	if rePlate.MatchString(txtL) {
		score += 0.1
	}
	if len(txt) > 120 {
		score += 0.1
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}
