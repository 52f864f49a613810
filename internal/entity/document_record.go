package entity

import (
	"time"

	"github.com/google/uuid"
)

// DocumentRecord represents a persisted weighing ticket for data transfer between layers.
// Optional columns are pointers; nil means the field was not extracted.
type DocumentRecord struct {
	ID uuid.UUID `json:"id"`

	ProcessNumber *string `json:"process_number,omitempty"`
	WeighNumber   *string `json:"weigh_number,omitempty"`
	CardNumber    *string `json:"card_number,omitempty"`
	Operation     *string `json:"operation,omitempty"`

	WeighDate time.Time  `json:"weigh_date"`
	TareDate  *time.Time `json:"tare_date,omitempty"`
	GrossDate *time.Time `json:"gross_date,omitempty"`
	NetDate   *time.Time `json:"net_date,omitempty"`

	TareWeight  *float64 `json:"tare_weight,omitempty"`
	GrossWeight *float64 `json:"gross_weight,omitempty"`
	NetWeight   *float64 `json:"net_weight,omitempty"`

	PlateTractor       *string `json:"plate_tractor,omitempty"`
	PlateTrailer       *string `json:"plate_trailer,omitempty"`
	Driver             *string `json:"driver,omitempty"`
	Provider           *string `json:"provider,omitempty"`
	RecipientRUC       *string `json:"recipient_ruc,omitempty"`
	Product            *string `json:"product,omitempty"`
	Concentration      *string `json:"concentration,omitempty"`
	VerificationCode   *string `json:"verification_code,omitempty"`
	GuideNumber        *string `json:"guide_number,omitempty"`
	OriginAddress      *string `json:"origin_address,omitempty"`
	DestinationAddress *string `json:"destination_address,omitempty"`
	Observations       *string `json:"observations,omitempty"`

	OriginalFile   string     `json:"original_file"`
	ExcelFile      string     `json:"excel_file"`
	UploadedBy     *uuid.UUID `json:"uploaded_by,omitempty"`
	Status         string     `json:"status"`
	FileSize       int64      `json:"file_size"`
	FallbackFields []string   `json:"fallback_fields"`
	CreatedAt      time.Time  `json:"created_at"`
}
