package repository

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"

	defs "github.com/joseph-ayodele/ticket-ingest/db/ent/schema"
)

// tableDef is a table derived from an ent schema definition, plus the
// string validators declared on its fields.
type tableDef struct {
	table      *schema.Table
	validators map[string][]func(string) error
}

var (
	recordTable = mustTable(defs.DocumentRecord{})
	userTable   = mustTable(defs.User{})
)

// Tables returns the migration tables in creation order.
func Tables() []*schema.Table {
	return []*schema.Table{recordTable.table, userTable.table}
}

// Migrate creates or upgrades the schema.
func Migrate(ctx context.Context, d *DB, logger *slog.Logger) error {
	m, err := schema.NewMigrate(d.drv)
	if err != nil {
		return fmt.Errorf("init migrate: %w", err)
	}
	if err := m.Create(ctx, Tables()...); err != nil {
		logger.Error("schema migration failed", "error", err)
		return fmt.Errorf("migrate: %w", err)
	}
	logger.Info("schema migrated", "tables", len(Tables()))
	return nil
}

func mustTable(s ent.Interface) tableDef {
	td, err := buildTable(s)
	if err != nil {
		panic(err)
	}
	return td
}

func buildTable(s ent.Interface) (tableDef, error) {
	name := tableName(s)
	if name == "" {
		return tableDef{}, fmt.Errorf("schema %T has no table annotation", s)
	}
	t := &schema.Table{Name: name}
	td := tableDef{table: t, validators: map[string][]func(string) error{}}

	for _, f := range s.Fields() {
		d := f.Descriptor()
		if d.Err != nil {
			return tableDef{}, fmt.Errorf("field %s.%s: %w", name, d.Name, d.Err)
		}
		col := &schema.Column{
			Name:       columnName(d),
			Type:       d.Info.Type,
			Size:       int64(d.Size),
			Unique:     d.Unique,
			Nullable:   d.Optional || d.Nillable,
			SchemaType: d.SchemaType,
		}
		if d.Default != nil && reflect.TypeOf(d.Default).Kind() != reflect.Func {
			col.Default = d.Default
		}
		if col.Name == "id" {
			t.PrimaryKey = []*schema.Column{col}
		}
		t.Columns = append(t.Columns, col)

		for _, v := range d.Validators {
			if fn, ok := v.(func(string) error); ok && d.Info.Type == field.TypeString {
				td.validators[col.Name] = append(td.validators[col.Name], fn)
			}
		}
	}

	for _, idx := range s.Indexes() {
		d := idx.Descriptor()
		cols := make([]*schema.Column, 0, len(d.Fields))
		for _, fname := range d.Fields {
			c, ok := findColumn(t, fname)
			if !ok {
				return tableDef{}, fmt.Errorf("index on unknown column %s.%s", name, fname)
			}
			cols = append(cols, c)
		}
		idxName := d.StorageKey
		if idxName == "" {
			idxName = name + "_" + strings.Join(d.Fields, "_")
		}
		t.Indexes = append(t.Indexes, &schema.Index{Name: idxName, Unique: d.Unique, Columns: cols})
	}
	return td, nil
}

func tableName(s ent.Interface) string {
	for _, a := range s.Annotations() {
		switch ant := a.(type) {
		case entsql.Annotation:
			return ant.Table
		case *entsql.Annotation:
			return ant.Table
		}
	}
	return ""
}

func columnName(d *field.Descriptor) string {
	if d.StorageKey != "" {
		return d.StorageKey
	}
	return d.Name
}

func findColumn(t *schema.Table, name string) (*schema.Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// validate runs the schema validators against the string values about to be written.
func (td tableDef) validate(cols []string, vals []any) error {
	for i, c := range cols {
		fns := td.validators[c]
		if len(fns) == 0 {
			continue
		}
		s, ok := vals[i].(string)
		if !ok {
			continue
		}
		for _, fn := range fns {
			if err := fn(s); err != nil {
				return fmt.Errorf("%s.%s: %w", td.table.Name, c, err)
			}
		}
	}
	return nil
}
