// Package fields holds the per-field extraction and display configuration.
package fields

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schema.json
var schemaJSON []byte

// Spec configures one field.
type Spec struct {
	Key      string `json:"key"`
	Extract  bool   `json:"extract"`
	Display  string `json:"display"`
	Required bool   `json:"required"`
}

// Config is an ordered list of field specs. Order drives report columns.
type Config struct {
	Fields []Spec `json:"fields"`
}

// Default mirrors the scale-ticket columns shown in reports.
func Default() Config {
	return Config{Fields: []Spec{
		{Key: "process_number", Extract: true, Display: "PROCESO", Required: true},
		{Key: "weigh_number", Extract: true, Display: "NRO. PESAJE", Required: true},
		{Key: "weigh_date", Extract: true, Display: "FECHA"},
		{Key: "plate_tractor", Extract: true, Display: "PLACA", Required: true},
		{Key: "driver", Extract: true, Display: "CONDUCTOR", Required: true},
		{Key: "provider", Extract: true, Display: "PROVEEDOR"},
		{Key: "tare_weight", Extract: true, Display: "TARA (KG)", Required: true},
		{Key: "gross_weight", Extract: true, Display: "BRUTO (KG)", Required: true},
		{Key: "net_weight", Extract: true, Display: "NETO (KG)", Required: true},
		{Key: "product", Extract: true, Display: "MATERIAL"},
		{Key: "origin_address", Extract: true, Display: "ORIGEN"},
		{Key: "destination_address", Extract: true, Display: "DESTINO"},
		{Key: "recipient_ruc", Extract: true, Display: "RUC"},
	}}
}

// Lookup returns the spec for key.
func (c Config) Lookup(key string) (Spec, bool) {
	for _, s := range c.Fields {
		if s.Key == key {
			return s, true
		}
	}
	return Spec{}, false
}

// Enabled reports whether key should be extracted. Keys missing from the
// config are extracted.
func (c Config) Enabled(key string) bool {
	s, ok := c.Lookup(key)
	return !ok || s.Extract
}

// Display returns the configured header for key, or key itself.
func (c Config) Display(key string) string {
	if s, ok := c.Lookup(key); ok && s.Display != "" {
		return s.Display
	}
	return key
}

// Columns returns the extracted specs in configured order.
func (c Config) Columns() []Spec {
	out := make([]Spec, 0, len(c.Fields))
	for _, s := range c.Fields {
		if s.Extract {
			out = append(out, s)
		}
	}
	return out
}

// RequiredKeys lists keys that are both required and extracted.
func (c Config) RequiredKeys() []string {
	var out []string
	for _, s := range c.Fields {
		if s.Required && s.Extract {
			out = append(out, s.Key)
		}
	}
	return out
}

func (c Config) clone() Config {
	return Config{Fields: append([]Spec(nil), c.Fields...)}
}

// with upserts s, keeping the position of an existing key.
func (c Config) with(s Spec) Config {
	out := c.clone()
	for i := range out.Fields {
		if out.Fields[i].Key == s.Key {
			out.Fields[i] = s
			return out
		}
	}
	out.Fields = append(out.Fields, s)
	return out
}

// Load reads and validates the config file. A missing file yields Default().
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read field config: %w", err)
	}
	return Parse(data)
}

// Parse validates data against the embedded schema and decodes it.
func Parse(data []byte) (Config, error) {
	if err := validate(data); err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode field config: %w", err)
	}
	seen := make(map[string]struct{}, len(cfg.Fields))
	for _, s := range cfg.Fields {
		if _, dup := seen[s.Key]; dup {
			return Config{}, fmt.Errorf("duplicate field %q", s.Key)
		}
		seen[s.Key] = struct{}{}
	}
	return cfg, nil
}

// Save rewrites path with cfg.
func Save(path string, cfg Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encode field config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write field config: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace field config: %w", err)
	}
	return nil
}

func validate(data []byte) error {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(schemaJSON)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal field config: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("field config does not match schema: %w", err)
	}
	return nil
}
