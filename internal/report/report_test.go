package report

import (
	"bytes"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/ticket-ingest/internal/entity"
	"github.com/joseph-ayodele/ticket-ingest/internal/fields"
)

var reCode = regexp.MustCompile(`^SEC-[0-9a-f-]{36}-\d{14}$`)

func TestSecurityCode(t *testing.T) {
	id := uuid.MustParse("7c9e6679-7425-40de-944b-e07fc1f90ae7")
	at := time.Date(2026, 1, 14, 17, 37, 5, 0, time.FixedZone("PET", -5*3600))
	code := SecurityCode(id, at)
	assert.Equal(t, "SEC-7c9e6679-7425-40de-944b-e07fc1f90ae7-20260114223705", code)
	assert.Regexp(t, reCode, code)
}

func TestRenderProducesPDF(t *testing.T) {
	now := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	net := 27820.0
	proc := "4521"
	origin := "AV. INDUSTRIAL 123 LIMA - LIMA"
	rec := &entity.DocumentRecord{
		ID:             uuid.New(),
		ProcessNumber:  &proc,
		NetWeight:      &net,
		OriginAddress:  &origin,
		WeighDate:      now,
		OriginalFile:   "ticket.pdf",
		Status:         "processed",
		FallbackFields: []string{"net_weight"},
		CreatedAt:      now,
	}

	out, err := NewGenerator(nil, func() time.Time { return now }).Render(rec, fields.Default())
	require.NoError(t, err)
	assert.Equal(t, SecurityCode(rec.ID, now), out.SecurityCode)
	assert.True(t, bytes.HasPrefix(out.PDF, []byte("%PDF-")))

	r, err := pdf.NewReader(bytes.NewReader(out.PDF), int64(len(out.PDF)))
	require.NoError(t, err)
	assert.Equal(t, 1, r.NumPage())
}
