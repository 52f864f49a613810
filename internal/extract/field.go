package extract

// Field names one extractable ticket attribute.
type Field string

const (
	ProcessNumber Field = "process_number"
	WeighNumber   Field = "weigh_number"
	CardNumber    Field = "card_number"
	Operation     Field = "operation"

	WeighDate Field = "weigh_date"
	TareDate  Field = "tare_date"
	GrossDate Field = "gross_date"
	NetDate   Field = "net_date"

	TareWeight  Field = "tare_weight"
	GrossWeight Field = "gross_weight"
	NetWeight   Field = "net_weight"

	PlateTractor  Field = "plate_tractor"
	PlateTrailer  Field = "plate_trailer"
	Driver        Field = "driver"
	DriverLicense Field = "driver_license"

	Provider     Field = "provider"
	Carrier      Field = "carrier"
	RecipientRUC Field = "recipient_ruc"

	Product        Field = "product"
	Concentration  Field = "concentration"
	CargoQuantity  Field = "cargo_quantity"
	DeclaredWeight Field = "declared_weight"
	Packages       Field = "packages"

	VerificationCode  Field = "verification_code"
	GuideNumber       Field = "guide_number"
	DeclarationNumber Field = "declaration_number"

	OriginAddress      Field = "origin_address"
	DestinationAddress Field = "destination_address"

	TransferReason Field = "transfer_reason"
	Observations   Field = "observations"
)

var allFields = []Field{
	ProcessNumber, WeighNumber, CardNumber, Operation,
	WeighDate, TareDate, GrossDate, NetDate,
	TareWeight, GrossWeight, NetWeight,
	PlateTractor, PlateTrailer, Driver, DriverLicense,
	Provider, Carrier, RecipientRUC,
	Product, Concentration, CargoQuantity, DeclaredWeight, Packages,
	VerificationCode, GuideNumber, DeclarationNumber,
	OriginAddress, DestinationAddress,
	TransferReason, Observations,
}

var fieldKinds = map[Field]Kind{
	WeighDate:      KindTime,
	TareDate:       KindTime,
	GrossDate:      KindTime,
	NetDate:        KindTime,
	TareWeight:     KindNumber,
	GrossWeight:    KindNumber,
	NetWeight:      KindNumber,
	CargoQuantity:  KindNumber,
	DeclaredWeight: KindNumber,
	Packages:       KindNumber,
}

// All returns every field in canonical order.
func All() []Field {
	return append([]Field(nil), allFields...)
}

// Known reports whether s names a field.
func Known(s string) (Field, bool) {
	for _, f := range allFields {
		if string(f) == s {
			return f, true
		}
	}
	return "", false
}

// Kind is the value type a field carries.
func (f Field) Kind() Kind {
	if k, ok := fieldKinds[f]; ok {
		return k
	}
	return KindString
}
