package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/ticket-ingest/constants"
	"github.com/joseph-ayodele/ticket-ingest/db/ent/schema/utils"
)

var weightType = map[string]string{dialect.Postgres: "numeric(12,2)"}

type DocumentRecord struct{ ent.Schema }

func (DocumentRecord) Annotations() []schema.Annotation {
	return []schema.Annotation{
		entsql.Annotation{Table: "document_records"},
	}
}

func (DocumentRecord) Fields() []ent.Field {
	return []ent.Field{
		field.UUID("id", uuid.UUID{}).
			Default(uuid.New).
			Immutable().
			StorageKey("id"),

		field.String("process_number").MaxLen(64).Optional().Nillable(),
		field.String("weigh_number").MaxLen(64).Optional().Nillable(),
		field.String("card_number").MaxLen(64).Optional().Nillable(),
		field.String("operation").MaxLen(128).Optional().Nillable(),

		// never null: the record builder falls back to the processing time
		field.Time("weigh_date").Immutable(),
		field.Time("tare_date").Optional().Nillable(),
		field.Time("gross_date").Optional().Nillable(),
		field.Time("net_date").Optional().Nillable(),

		field.Float("tare_weight").Optional().Nillable().SchemaType(weightType),
		field.Float("gross_weight").Optional().Nillable().SchemaType(weightType),
		field.Float("net_weight").Optional().Nillable().SchemaType(weightType),

		field.String("plate_tractor").MaxLen(32).Optional().Nillable(),
		field.String("plate_trailer").MaxLen(32).Optional().Nillable(),
		field.String("driver").MaxLen(255).Optional().Nillable(),
		field.String("provider").MaxLen(255).Optional().Nillable(),
		field.String("recipient_ruc").MaxLen(16).Optional().Nillable(),
		field.String("product").MaxLen(255).Optional().Nillable(),
		field.String("concentration").MaxLen(64).Optional().Nillable(),
		field.String("verification_code").MaxLen(128).Optional().Nillable(),
		field.String("guide_number").MaxLen(64).Optional().Nillable(),
		field.Text("origin_address").Optional().Nillable(),
		field.Text("destination_address").Optional().Nillable(),
		field.Text("observations").Optional().Nillable(),

		field.String("original_file").NotEmpty(),
		field.String("excel_file").Default(""),
		// weak reference to users.id
		field.UUID("uploaded_by", uuid.UUID{}).Optional().Nillable(),
		field.String("status").
			Default(string(constants.RecordStatusProcessed)).
			Validate(utils.EnumValidator(string(constants.RecordStatusProcessed))),
		field.Int64("file_size").Default(0),
		// comma separated field keys whose value was synthesized
		field.String("fallback_fields").Default(""),
		field.Time("created_at").Default(time.Now).Immutable(),
	}
}

func (DocumentRecord) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("created_at"),
		index.Fields("process_number"),
	}
}
