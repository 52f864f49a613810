package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema"
	"entgo.io/ent/schema/field"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/ticket-ingest/constants"
	"github.com/joseph-ayodele/ticket-ingest/db/ent/schema/utils"
)

type User struct{ ent.Schema }

func (User) Annotations() []schema.Annotation {
	return []schema.Annotation{
		entsql.Annotation{Table: "users"},
	}
}

func (User) Fields() []ent.Field {
	return []ent.Field{
		field.UUID("id", uuid.UUID{}).Default(uuid.New).Immutable(),
		field.String("username").NotEmpty().MaxLen(64).Unique(),
		field.String("password_hash").NotEmpty().Sensitive(),
		field.String("role").
			Default(string(constants.RoleApprentice)).
			Validate(utils.EnumValidator(constants.RolesAsStringSlice()...)),
		field.String("full_name").Default(""),
		field.Time("created_at").Default(time.Now).Immutable(),
	}
}
