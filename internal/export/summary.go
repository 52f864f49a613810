package export

import (
	"time"

	"github.com/joseph-ayodele/ticket-ingest/internal/extract"
)

type summary struct {
	documents   int
	tare        float64
	gross       float64
	net         float64
	providers   int
	drivers     int
	products    int
	synthesized int
	generatedAt time.Time
}

func summarize(rows []DocumentRow, now time.Time) summary {
	s := summary{documents: len(rows), generatedAt: now}
	providers := map[string]struct{}{}
	drivers := map[string]struct{}{}
	products := map[string]struct{}{}
	for _, r := range rows {
		if v, ok := r.Fields.Float(extract.TareWeight); ok {
			s.tare += v
		}
		if v, ok := r.Fields.Float(extract.GrossWeight); ok {
			s.gross += v
		}
		if v, ok := r.Fields.Float(extract.NetWeight); ok {
			s.net += v
		}
		distinct(r.Fields, extract.Provider, providers)
		distinct(r.Fields, extract.Driver, drivers)
		distinct(r.Fields, extract.Product, products)
		for _, fr := range r.Fields {
			if fr.Status == extract.FallbackUsed {
				s.synthesized++
				break
			}
		}
	}
	s.providers, s.drivers, s.products = len(providers), len(drivers), len(products)
	return s
}

func distinct(fs extract.Fields, f extract.Field, seen map[string]struct{}) {
	if v, ok := fs.String(f); ok && v != "" {
		seen[v] = struct{}{}
	}
}

func (s summary) grid() [][]any {
	return [][]any{
		{"RESUMEN", ""},
		{"Total documentos", s.documents},
		{"Total tara (kg)", s.tare},
		{"Total bruto (kg)", s.gross},
		{"Total neto (kg)", s.net},
		{"Proveedores distintos", s.providers},
		{"Conductores distintos", s.drivers},
		{"Productos distintos", s.products},
		{"Documentos con campos sintetizados", s.synthesized},
		{"Generado", s.generatedAt.Format(stampLayout)},
	}
}
