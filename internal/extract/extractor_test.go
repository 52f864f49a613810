package extract

import (
	"crypto/sha256"
	"regexp"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/ticket-ingest/internal/fields"
)

const scaleTicket = `BALANZA ELECTRONICA
PROCESO : 4521
NRO. PESAJE: 00098
FECHA IMPRESION: Jan 14 2026 6:02PM
TARJETA: TK-778
OPERACIÓN: INGRESO MATERIAL
PLACA TRACTO: F4R-874
PLACA CARRETA: T3K-991
CONDUCTOR: JUAN PEREZ QUISPE
PROVEEDOR: MINERA ANDINA SAC
PRODUCTO: OXIDO DE CALCIO
CONCENTRACIÓN: 92.5 %
TARA 16910 Jan 14 2026 5:37PM
BRUTO 44,730 KG Jan 14 2026 5:58PM
NETO 27,820 KG Jan 14 2026 5:58PM
OBSERVACIONES: CARGA
 "SIN NOVEDAD"
FIRMA`

const manifest = `GUIA DE REMISION REMITENTE EG07-000123
DIRECCION DEL PUNTO DE PARTIDA: AV. INDUSTRIAL 123
LIMA - LIMA
DIRECCION DEL PUNTO DE LLEGADA: CARRETERA CENTRAL KM 45
JUNIN
DATOS DEL TRANSPORTE
MOTIVO DE TRASLADO: VENTA
TRANSPORTISTA: TRANSPORTES ANDINOS SRL
RUC: 20512345678
CONDUCTOR: PEDRO GOMEZ
LICENCIA DE CONDUCIR: Q12345678`

const declaration = `DECLARACION N° 2024-00451
DESCRIPCION DE LA MERCANCIA: CAL VIVA EN BOLSAS
CANTIDAD: 1,200
PESO DECLARADO: 27,500.50
BULTOS: 40`

const legacyTicket = `PROCESO: 4521
NRO PESAJE: 98
FECHA IMPRESION: Jan 14 2026 6:02PM
PLACA: F4R-874
CONDUCTOR: JUAN PEREZ
PROVEEDOR: MINERA ANDINA SAC
TARA 16910
BRUTO 44730
Peso Neto: 25,300.00 kg
OXIDO DE CALCIO
DIRECCION DEL PUNTO DE PARTIDA: AV. INDUSTRIAL 123 **
DIRECCION DEL PUNTO DE LLEGADA: KM 45 DATOS
RUC 20512345678`

var fixedNow = time.Date(2026, 2, 1, 9, 30, 0, 0, time.UTC)

func newTestExtractor(opts ...Option) *Extractor {
	return New(append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)...)
}

// allFieldsConfig extracts every field.
func allFieldsConfig() fields.Config { return fields.Config{} }

func mustString(t *testing.T, fs Fields, f Field) string {
	t.Helper()
	s, ok := fs.String(f)
	require.True(t, ok, "field %s absent", f)
	return s
}

func mustFloat(t *testing.T, fs Fields, f Field) float64 {
	t.Helper()
	n, ok := fs.Float(f)
	require.True(t, ok, "field %s absent", f)
	return n
}

func TestMultiPageScaleTicket(t *testing.T) {
	res := newTestExtractor().Extract([]string{scaleTicket}, ModeMultiPage, allFieldsConfig())
	fs := res.Fields

	assert.Equal(t, ModeMultiPage, res.Mode)
	assert.False(t, res.Recovered)
	assert.Equal(t, "4521", mustString(t, fs, ProcessNumber))
	assert.Equal(t, "00098", mustString(t, fs, WeighNumber))
	assert.Equal(t, "TK-778", mustString(t, fs, CardNumber))
	assert.Equal(t, "INGRESO MATERIAL", mustString(t, fs, Operation))
	assert.Equal(t, "F4R-874", mustString(t, fs, PlateTractor))
	assert.Equal(t, "T3K-991", mustString(t, fs, PlateTrailer))
	assert.Equal(t, "JUAN PEREZ QUISPE", mustString(t, fs, Driver))
	assert.Equal(t, "MINERA ANDINA SAC", mustString(t, fs, Provider))
	assert.Equal(t, "OXIDO DE CALCIO", mustString(t, fs, Product))
	assert.Equal(t, "92.5 %", mustString(t, fs, Concentration))
	assert.Equal(t, "CARGA SIN NOVEDAD", mustString(t, fs, Observations))

	wd, ok := fs.Time(WeighDate)
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 1, 14, 18, 2, 0, 0, time.UTC), wd)

	assert.Equal(t, 16910.0, mustFloat(t, fs, TareWeight))
	assert.Equal(t, 44730.0, mustFloat(t, fs, GrossWeight))
	assert.Equal(t, 27820.0, mustFloat(t, fs, NetWeight))
	assert.Equal(t, Matched, fs[NetWeight].Status)
	assert.Empty(t, res.Fallbacks())
}

func TestWeightReadingWithTimestamp(t *testing.T) {
	res := newTestExtractor().Extract([]string{"TARA 16910 Jan 14 2026 5:37PM"}, ModeMultiPage, allFieldsConfig())

	assert.Equal(t, 16910.0, mustFloat(t, res.Fields, TareWeight))
	td, ok := res.Fields.Time(TareDate)
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 1, 14, 17, 37, 0, 0, time.UTC), td)
}

func TestFirstReadingPerLabelWins(t *testing.T) {
	text := "TARA 1000 KG\nTARA 2000 KG\nBRUTO 5000 KG"
	res := newTestExtractor().Extract([]string{text}, ModeMultiPage, allFieldsConfig())
	assert.Equal(t, 1000.0, mustFloat(t, res.Fields, TareWeight))
}

func TestPesoNetoWithSeparators(t *testing.T) {
	for _, mode := range []Mode{ModeMultiPage, ModeLegacy} {
		res := newTestExtractor().Extract([]string{"Peso Neto: 25,300.00 kg"}, mode, allFieldsConfig())
		assert.Equal(t, 25300.0, mustFloat(t, res.Fields, NetWeight), "mode %s", mode)
		assert.Equal(t, Matched, res.Fields[NetWeight].Status)
	}
}

func TestProcessNumberTrimmed(t *testing.T) {
	res := newTestExtractor().Extract([]string{"PROCESO :   12345   \nOTRO"}, ModeMultiPage, allFieldsConfig())
	assert.Equal(t, "12345", mustString(t, res.Fields, ProcessNumber))
}

func TestDerivedNetWeight(t *testing.T) {
	res := newTestExtractor().Extract([]string{"TARA 1,000\nBRUTO 3,500.5"}, ModeMultiPage, allFieldsConfig())
	assert.Equal(t, 2500.5, mustFloat(t, res.Fields, NetWeight))
	assert.Equal(t, Derived, res.Fields[NetWeight].Status)
	assert.Empty(t, res.Fallbacks())
}

func TestDateMismatchLeavesFieldAbsent(t *testing.T) {
	res := newTestExtractor().Extract([]string{"FECHA: Foo 14 2026 5:37PM\nPROCESO: 1"}, ModeMultiPage, allFieldsConfig())
	_, ok := res.Fields.Time(WeighDate)
	assert.False(t, ok)
	assert.Equal(t, "1", mustString(t, res.Fields, ProcessNumber))
}

func TestDayFirstDate(t *testing.T) {
	res := newTestExtractor().Extract([]string{"FECHA DE EMISION: 03/02/2026"}, ModeMultiPage, allFieldsConfig())
	wd, ok := res.Fields.Time(WeighDate)
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC), wd)
}

func TestMultiPageAllPages(t *testing.T) {
	res := newTestExtractor().Extract([]string{scaleTicket, manifest, declaration}, ModeMultiPage, allFieldsConfig())
	fs := res.Fields

	assert.Equal(t, "EG07-000123", mustString(t, fs, GuideNumber))
	assert.Equal(t, "AV. INDUSTRIAL 123 LIMA - LIMA", mustString(t, fs, OriginAddress))
	assert.Equal(t, "CARRETERA CENTRAL KM 45 JUNIN", mustString(t, fs, DestinationAddress))
	assert.Equal(t, "20512345678", mustString(t, fs, RecipientRUC))
	assert.Equal(t, "VENTA", mustString(t, fs, TransferReason))
	assert.Equal(t, "TRANSPORTES ANDINOS SRL", mustString(t, fs, Carrier))
	assert.Equal(t, "Q12345678", mustString(t, fs, DriverLicense))
	assert.Equal(t, "2024-00451", mustString(t, fs, DeclarationNumber))
	assert.Equal(t, 1200.0, mustFloat(t, fs, CargoQuantity))
	assert.Equal(t, 27500.5, mustFloat(t, fs, DeclaredWeight))
	assert.Equal(t, 40.0, mustFloat(t, fs, Packages))

	// earlier pages take precedence
	assert.Equal(t, "JUAN PEREZ QUISPE", mustString(t, fs, Driver))
	assert.Equal(t, "OXIDO DE CALCIO", mustString(t, fs, Product))
}

func TestLaterPageFillsAbsentField(t *testing.T) {
	res := newTestExtractor().Extract([]string{"PROCESO: 77", "", declaration}, ModeMultiPage, allFieldsConfig())
	assert.Equal(t, "CAL VIVA EN BOLSAS", mustString(t, res.Fields, Product))
}

func TestPagesBeyondRuleSetsIgnored(t *testing.T) {
	res := newTestExtractor().Extract([]string{"", "", "", "PROCESO: 55"}, ModeMultiPage, allFieldsConfig())
	_, ok := res.Fields.Get(ProcessNumber)
	assert.False(t, ok)
}

func TestMultiPageNeverSynthesizes(t *testing.T) {
	res := newTestExtractor().Extract([]string{"texto sin datos utiles"}, ModeMultiPage, allFieldsConfig())
	assert.Empty(t, res.Fields)
	assert.Empty(t, res.Fallbacks())
}

func TestLegacyMode(t *testing.T) {
	res := newTestExtractor().Extract([]string{legacyTicket}, ModeLegacy, allFieldsConfig())
	fs := res.Fields

	assert.Equal(t, ModeLegacy, res.Mode)
	assert.Equal(t, "4521", mustString(t, fs, ProcessNumber))
	assert.Equal(t, "98", mustString(t, fs, WeighNumber))
	assert.Equal(t, "F4R-874", mustString(t, fs, PlateTractor))
	assert.Equal(t, "JUAN PEREZ", mustString(t, fs, Driver))
	assert.Equal(t, "MINERA ANDINA SAC", mustString(t, fs, Provider))
	assert.Equal(t, 16910.0, mustFloat(t, fs, TareWeight))
	assert.Equal(t, 44730.0, mustFloat(t, fs, GrossWeight))
	assert.Equal(t, 25300.0, mustFloat(t, fs, NetWeight))
	assert.Equal(t, "OXIDO DE CALCIO", mustString(t, fs, Product))
	assert.Equal(t, "AV. INDUSTRIAL 123", mustString(t, fs, OriginAddress))
	assert.Equal(t, "KM 45", mustString(t, fs, DestinationAddress))
	assert.Equal(t, "20512345678", mustString(t, fs, RecipientRUC))
	assert.Empty(t, res.Fallbacks())
}

func TestLegacyFallbackIsDeterministic(t *testing.T) {
	text := "documento ilegible sin marcas"
	e := newTestExtractor()
	a := e.Extract([]string{text}, ModeLegacy, allFieldsConfig())
	b := e.Extract([]string{text}, ModeLegacy, allFieldsConfig())

	assert.Equal(t, a.Fields, b.Fields)
	assert.Equal(t, []Field{ProcessNumber, NetWeight, PlateTractor, Driver, Provider}, a.Fallbacks())

	pn := mustString(t, a.Fields, ProcessNumber)
	assert.Len(t, pn, 6)
	assert.Equal(t, FallbackUsed, a.Fields[ProcessNumber].Status)

	net := mustFloat(t, a.Fields, NetWeight)
	assert.GreaterOrEqual(t, net, 20000.0)
	assert.Less(t, net, 30000.0)
	assert.Regexp(t, `^[A-Z]{3}-\d{3}$`, mustString(t, a.Fields, PlateTractor))
	assert.Contains(t, placeholderProviders, mustString(t, a.Fields, Provider))
	assert.Contains(t, placeholderDrivers, mustString(t, a.Fields, Driver))

	other := e.Extract([]string{text + " otra"}, ModeLegacy, allFieldsConfig())
	assert.NotEqual(t, a.Fields[ProcessNumber], other.Fields[ProcessNumber])
}

func TestLegacyFallbackCoversConfiguredRequiredFields(t *testing.T) {
	res := newTestExtractor().Extract([]string{"documento ilegible sin marcas"}, ModeLegacy, fields.Default())

	assert.Equal(t, []Field{
		ProcessNumber, WeighNumber, TareWeight, GrossWeight, NetWeight, PlateTractor, Driver, Provider,
	}, res.Fallbacks())
	assert.Equal(t, "862274", mustString(t, res.Fields, ProcessNumber))
	assert.Equal(t, "507834", mustString(t, res.Fields, WeighNumber))
	assert.Equal(t, 19131.0, mustFloat(t, res.Fields, TareWeight))
	assert.Equal(t, 24264.0, mustFloat(t, res.Fields, NetWeight))
	assert.Equal(t, 19131.0+24264.0, mustFloat(t, res.Fields, GrossWeight))
}

func TestFallbackValuesUseDistinctDigestWords(t *testing.T) {
	d := digest(sha256.Sum256([]byte("documento ilegible sin marcas")))
	pn, _ := synthesize(ProcessNumber, d, Fields{}, fixedNow)
	net, _ := synthesize(NetWeight, d, Fields{}, fixedNow)
	assert.NotEqual(t, pn.Str[2:], strconv.Itoa(int(net.Num))[1:])

	wd, ok := synthesize(TareDate, d, Fields{}, fixedNow)
	require.True(t, ok)
	assert.Equal(t, fixedNow, wd.Time)
	other, _ := synthesize(Operation, d, Fields{}, fixedNow)
	assert.Equal(t, unidentified, other.Str)
}

func TestLegacyFallbackOnlyFillsMissing(t *testing.T) {
	res := newTestExtractor().Extract([]string{"PROCESO: 321\nTARA 100\nBRUTO 400"}, ModeLegacy, allFieldsConfig())
	assert.Equal(t, "321", mustString(t, res.Fields, ProcessNumber))
	assert.Equal(t, Derived, res.Fields[NetWeight].Status)
	assert.ElementsMatch(t, []Field{PlateTractor, Driver, Provider}, res.Fallbacks())
}

func panickingRule() Rule {
	return Rule{
		Field:    ProcessNumber,
		Patterns: []*regexp.Regexp{regexp.MustCompile(`(\w+)`)},
		Convert:  func(string) (Value, error) { panic("converter exploded") },
	}
}

func TestCatchAllRecoversPanic(t *testing.T) {
	e := newTestExtractor(WithLegacyRules([]Rule{panickingRule()}))

	var res Result
	require.NotPanics(t, func() {
		res = e.Extract([]string{"cualquier texto"}, ModeLegacy, allFieldsConfig())
	})

	assert.True(t, res.Recovered)
	assert.True(t, strings.HasPrefix(mustString(t, res.Fields, ProcessNumber), "ERR-"))
	assert.Equal(t, 0.0, mustFloat(t, res.Fields, NetWeight))
	assert.Equal(t, placeholderPlate, mustString(t, res.Fields, PlateTractor))
	wd, ok := res.Fields.Time(WeighDate)
	require.True(t, ok)
	assert.Equal(t, fixedNow, wd)
	for f, r := range res.Fields {
		assert.Equal(t, FallbackUsed, r.Status, "field %s", f)
	}

	again := e.Extract([]string{"otro texto"}, ModeLegacy, allFieldsConfig())
	assert.Equal(t, res.Fields[ProcessNumber], again.Fields[ProcessNumber])
}

func TestCatchAllInMultiPageMode(t *testing.T) {
	e := newTestExtractor(WithPageRules(1, []Rule{panickingRule()}))
	res := e.Extract([]string{"texto"}, ModeMultiPage, allFieldsConfig())
	assert.True(t, res.Recovered)
	assert.Equal(t, ModeMultiPage, res.Mode)
}

func TestDisabledFieldsDropped(t *testing.T) {
	cfg := fields.Config{Fields: []fields.Spec{
		{Key: "provider", Extract: false, Display: "PROVEEDOR"},
		{Key: "driver", Extract: true, Display: "CONDUCTOR"},
	}}
	res := newTestExtractor().Extract([]string{scaleTicket}, ModeMultiPage, cfg)
	_, ok := res.Fields.Get(Provider)
	assert.False(t, ok)
	assert.Equal(t, "JUAN PEREZ QUISPE", mustString(t, res.Fields, Driver))

	legacy := newTestExtractor().Extract([]string{"nada"}, ModeLegacy, cfg)
	assert.NotContains(t, legacy.Fallbacks(), Provider)
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeMultiPage, m)
	m, err = ParseMode("legacy")
	require.NoError(t, err)
	assert.Equal(t, ModeLegacy, m)
	_, err = ParseMode("fancy")
	assert.Error(t, err)
}

func TestValueString(t *testing.T) {
	assert.Equal(t, "25300", NumberValue(25300).String())
	assert.Equal(t, "27500.5", NumberValue(27500.5).String())
	assert.Equal(t, "2026-01-14 17:37", TimeValue(time.Date(2026, 1, 14, 17, 37, 0, 0, time.UTC)).String())
	assert.Equal(t, "x", StringValue("x").String())
}

func TestKnownFields(t *testing.T) {
	f, ok := Known("net_weight")
	require.True(t, ok)
	assert.Equal(t, NetWeight, f)
	assert.Equal(t, KindNumber, f.Kind())
	assert.Equal(t, KindTime, TareDate.Kind())
	assert.Equal(t, KindString, Driver.Kind())
	_, ok = Known("color")
	assert.False(t, ok)
	assert.Len(t, All(), 30)
}
