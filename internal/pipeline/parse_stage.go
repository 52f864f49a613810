package pipeline

import (
	"strings"

	"github.com/joseph-ayodele/ticket-ingest/internal/extract"
	"github.com/joseph-ayodele/ticket-ingest/internal/fields"
)

// missingRequired lists the required and extracted fields absent from fs.
// A synthesized value counts as present.
func (p *Processor) missingRequired(fs extract.Fields, cfg fields.Config) []string {
	var missing []string
	for _, key := range cfg.RequiredKeys() {
		f, ok := extract.Known(key)
		if !ok {
			p.logger.Warn("pipeline.validate.unknown_field", "key", key)
			continue
		}
		if _, ok := fs.Get(f); !ok {
			missing = append(missing, key)
		}
	}
	return missing
}

func (p *Processor) validate(res extract.Result, cfg fields.Config) error {
	missing := p.missingRequired(res.Fields, cfg)
	if len(missing) == 0 {
		return nil
	}
	p.logger.Warn("pipeline.validate.failed", "missing", missing)
	return reject(StateValidated, CodeMissingField, "missing required fields: "+strings.Join(missing, ", "), nil)
}
