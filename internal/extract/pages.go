package extract

import "regexp"

const (
	numberPattern = `(\d[\d,]*(?:\.\d+)?)`
	stampPattern  = `([A-Z]{3}\s+\d{1,2}\s+\d{4}\s+\d{1,2}:\d{2}\s*[AP]M)`
	dmyPattern    = `(\d{1,2}/\d{1,2}/\d{4}(?:\s+\d{1,2}:\d{2})?)`
	datePrefix    = `FECHA(?:\s+(?:DE\s+)?(?:IMPRESI[OÓ]N|EMISI[OÓ]N))?\s*:\s*`
	platePattern  = `([A-Z0-9-]+)`
)

var dateLayouts = []string{LayoutTicketStamp, LayoutDayFirstHM, LayoutDayFirst}

// reading matches one "(TARA|BRUTO|NETO) <weight> [KG] [<stamp>]" occurrence.
var reReading = regexp.MustCompile(`(?i)\b(TARA|BRUTO|NETO)\s*:?\s*` + numberPattern + `\s*(?:KGS?\.?\s*)?` + stampPattern + `?`)

var readingTargets = map[string][2]Field{
	"TARA":  {TareWeight, TareDate},
	"BRUTO": {GrossWeight, GrossDate},
	"NETO":  {NetWeight, NetDate},
}

var (
	weighDateRule = timeRule(WeighDate, dateLayouts,
		datePrefix+stampPattern,
		datePrefix+dmyPattern,
	)
	netFallbackRule = numberRule(NetWeight, `PESO\s+NETO\s*:?\s*`+numberPattern)
	plateRule       = textRule(PlateTractor, `PLACA(?:\s+(?:DEL\s+)?TRACTO(?:R)?)?\s*:\s*`+platePattern)
	driverRule      = textRule(Driver, `CONDUCTOR\s*:\s*([^\n]+)`)
	observationRule = spanRule(Observations, `OBSERVACI[OÓ]N(?:ES)?\s*:?(.+?)(?:FIRMA|\*\*|$)`)
)

// scaleTicketRules read page 1, the weighing-scale ticket.
var scaleTicketRules = []Rule{
	textRule(ProcessNumber, `PROCESO\s*:?\s*(\d+)`),
	textRule(WeighNumber, `NRO\.?\s*(?:DE\s+)?PESAJE\s*:?\s*(\d+)`),
	textRule(CardNumber, `TARJETA\s*:?\s*([A-Z0-9-]+)`),
	textRule(Operation, `OPERACI[OÓ]N\s*:\s*([^\n]+)`),
	weighDateRule,
	plateRule,
	textRule(PlateTrailer, `PLACA\s+(?:DE\s+(?:LA\s+)?)?CARRETA\s*:\s*`+platePattern, `CARRETA\s*:\s*`+platePattern),
	driverRule,
	textRule(Provider, `PROVEEDOR\s*:\s*([^:\n]+)`),
	textRule(Product, `PRODUCTO\s*:\s*([^\n]+)`, `MATERIAL\s*:\s*([^\n]+)`, `(OXIDO\s+DE\s+CALCIO)`),
	textRule(Concentration, `CONCENTRACI[OÓ]N\s*:?\s*(\d[\d.,]*\s*%?)`),
	textRule(VerificationCode, `C[OÓ]DIGO\s+DE\s+VERIFICACI[OÓ]N\s*:?\s*([A-Z0-9-]+)`),
	netFallbackRule,
	observationRule,
}

// manifestRules read page 2, the transport manifest (guía de remisión).
var manifestRules = []Rule{
	textRule(GuideNumber, `GU[IÍ]A\s+DE\s+REMISI[OÓ]N[^\n]{0,40}?([A-Z0-9]{4}-\d{3,})`, `\b([A-Z0-9]{4}-\d{6,8})\b`),
	spanRule(OriginAddress, `PUNTO\s+DE\s+PARTIDA\s*:?(.+?)(?:DIRECCI[OÓ]N|MOTIVO|\*\*|$)`),
	spanRule(DestinationAddress, `PUNTO\s+DE\s+LLEGADA\s*:?(.+?)(?:RUTA|DATOS|\*\*|$)`),
	textRule(RecipientRUC, `RUC\s*:?\s*(\d{11}[A-Z]?)`),
	textRule(TransferReason, `MOTIVO\s+DE(?:L)?\s+TRASLADO\s*:?\s*([^\n]+)`),
	textRule(Carrier, `TRANSPORTISTA\s*:\s*([^\n]+)`),
	textRule(DriverLicense, `LICENCIA(?:\s+DE\s+CONDUCIR)?\s*:?\s*(?:N[°º]\.?\s*)?([A-Z0-9-]{6,})`),
	driverRule,
	plateRule,
	weighDateRule,
}

// declarationRules read page 3, the cargo declaration.
var declarationRules = []Rule{
	textRule(DeclarationNumber, `DECLARACI[OÓ]N\s+(?:JURADA\s+)?(?:N[°ºO]\.?\s*)?:?\s*([A-Z0-9][A-Z0-9-]{3,})`),
	textRule(Product, `DESCRIPCI[OÓ]N(?:\s+DE\s+(?:LA\s+)?MERCANC[IÍ]A)?\s*:\s*([^\n]+)`),
	numberRule(CargoQuantity, `CANTIDAD\s*:?\s*`+numberPattern),
	numberRule(DeclaredWeight, `PESO\s+DECLARADO\s*:?\s*`+numberPattern),
	numberRule(Packages, `BULTOS\s*:?\s*(\d+)`),
	netFallbackRule,
	observationRule,
}

// legacyRules is the flat single-text rule set.
var legacyRules = []Rule{
	textRule(ProcessNumber, `PROCESO\s*:?\s*(\d+)`),
	textRule(WeighNumber, `NRO\.?\s*PESAJE\s*:?\s*(\d+)`),
	timeRule(WeighDate, dateLayouts, datePrefix+stampPattern, datePrefix+dmyPattern, dmyPattern),
	textRule(PlateTractor, `PLACA\s*:\s*`+platePattern),
	textRule(Driver, `CONDUCTOR\s*:\s*([A-ZÁÉÍÓÚÑ][A-ZÁÉÍÓÚÑ ]+)`),
	textRule(Provider, `PROVEEDOR\s*:\s*([^:\n]+)`),
	numberRule(TareWeight, `TARA\s*:?\s*`+numberPattern),
	numberRule(GrossWeight, `BRUTO\s*:?\s*`+numberPattern),
	numberRule(NetWeight, `\bNETO\s*:?\s*`+numberPattern),
	textRule(Product, `MATERIAL\s*:\s*([^\n]+)`, `PRODUCTO\s*:\s*([^\n]+)`, `(OXIDO\s+DE\s+CALCIO)`),
	spanRule(OriginAddress, `PUNTO\s+DE\s+PARTIDA\s*:?(.+?)(?:DIRECCI[OÓ]N|MOTIVO|\*\*|$)`),
	spanRule(DestinationAddress, `PUNTO\s+DE\s+LLEGADA\s*:?(.+?)(?:RUTA|DATOS|\*\*|$)`),
	textRule(RecipientRUC, `RUC\s*:?\s*(\d{11}[A-Z]?)`),
}
