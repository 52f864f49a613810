package records

import (
	"time"

	"github.com/joseph-ayodele/ticket-ingest/internal/entity"
	"github.com/joseph-ayodele/ticket-ingest/internal/extract"
)

type column struct {
	set func(*entity.DocumentRecord, extract.Value)
	get func(*entity.DocumentRecord) (extract.Value, bool)
}

func stringColumn(ref func(*entity.DocumentRecord) **string) column {
	return column{
		set: func(r *entity.DocumentRecord, v extract.Value) {
			s := v.Str
			*ref(r) = &s
		},
		get: func(r *entity.DocumentRecord) (extract.Value, bool) {
			p := *ref(r)
			if p == nil {
				return extract.Value{}, false
			}
			return extract.StringValue(*p), true
		},
	}
}

func floatColumn(ref func(*entity.DocumentRecord) **float64) column {
	return column{
		set: func(r *entity.DocumentRecord, v extract.Value) {
			n := v.Num
			*ref(r) = &n
		},
		get: func(r *entity.DocumentRecord) (extract.Value, bool) {
			p := *ref(r)
			if p == nil {
				return extract.Value{}, false
			}
			return extract.NumberValue(*p), true
		},
	}
}

func timeColumn(ref func(*entity.DocumentRecord) **time.Time) column {
	return column{
		set: func(r *entity.DocumentRecord, v extract.Value) {
			t := v.Time
			*ref(r) = &t
		},
		get: func(r *entity.DocumentRecord) (extract.Value, bool) {
			p := *ref(r)
			if p == nil {
				return extract.Value{}, false
			}
			return extract.TimeValue(*p), true
		},
	}
}

// columns is the field -> column table. Fields missing here have no column:
// driver_license, carrier, transfer_reason, declaration_number,
// cargo_quantity, declared_weight and packages.
var columns = map[extract.Field]column{
	extract.ProcessNumber: stringColumn(func(r *entity.DocumentRecord) **string { return &r.ProcessNumber }),
	extract.WeighNumber:   stringColumn(func(r *entity.DocumentRecord) **string { return &r.WeighNumber }),
	extract.CardNumber:    stringColumn(func(r *entity.DocumentRecord) **string { return &r.CardNumber }),
	extract.Operation:     stringColumn(func(r *entity.DocumentRecord) **string { return &r.Operation }),

	extract.WeighDate: {
		set: func(r *entity.DocumentRecord, v extract.Value) { r.WeighDate = v.Time },
		get: func(r *entity.DocumentRecord) (extract.Value, bool) {
			return extract.TimeValue(r.WeighDate), !r.WeighDate.IsZero()
		},
	},
	extract.TareDate:  timeColumn(func(r *entity.DocumentRecord) **time.Time { return &r.TareDate }),
	extract.GrossDate: timeColumn(func(r *entity.DocumentRecord) **time.Time { return &r.GrossDate }),
	extract.NetDate:   timeColumn(func(r *entity.DocumentRecord) **time.Time { return &r.NetDate }),

	extract.TareWeight:  floatColumn(func(r *entity.DocumentRecord) **float64 { return &r.TareWeight }),
	extract.GrossWeight: floatColumn(func(r *entity.DocumentRecord) **float64 { return &r.GrossWeight }),
	extract.NetWeight:   floatColumn(func(r *entity.DocumentRecord) **float64 { return &r.NetWeight }),

	extract.PlateTractor:       stringColumn(func(r *entity.DocumentRecord) **string { return &r.PlateTractor }),
	extract.PlateTrailer:       stringColumn(func(r *entity.DocumentRecord) **string { return &r.PlateTrailer }),
	extract.Driver:             stringColumn(func(r *entity.DocumentRecord) **string { return &r.Driver }),
	extract.Provider:           stringColumn(func(r *entity.DocumentRecord) **string { return &r.Provider }),
	extract.RecipientRUC:       stringColumn(func(r *entity.DocumentRecord) **string { return &r.RecipientRUC }),
	extract.Product:            stringColumn(func(r *entity.DocumentRecord) **string { return &r.Product }),
	extract.Concentration:      stringColumn(func(r *entity.DocumentRecord) **string { return &r.Concentration }),
	extract.VerificationCode:   stringColumn(func(r *entity.DocumentRecord) **string { return &r.VerificationCode }),
	extract.GuideNumber:        stringColumn(func(r *entity.DocumentRecord) **string { return &r.GuideNumber }),
	extract.OriginAddress:      stringColumn(func(r *entity.DocumentRecord) **string { return &r.OriginAddress }),
	extract.DestinationAddress: stringColumn(func(r *entity.DocumentRecord) **string { return &r.DestinationAddress }),
	extract.Observations:       stringColumn(func(r *entity.DocumentRecord) **string { return &r.Observations }),
}
