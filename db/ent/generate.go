// Command generate writes the typed ent client for the ticket schema into
// gen/ent. Run it from the module root with `go run ./db/ent`.
//
// The service itself migrates and queries through the schema definitions
// (see internal/repository), so the generated client is optional tooling.
package main

import (
	"log"

	"entgo.io/ent/entc"
	"entgo.io/ent/entc/gen"
)

func main() {
	err := entc.Generate(
		"./db/ent/schema",
		&gen.Config{
			Target:  "gen/ent",
			Package: "github.com/joseph-ayodele/ticket-ingest/gen/ent",
			Schema:  "github.com/joseph-ayodele/ticket-ingest/db/ent/schema",
		},
	)
	if err != nil {
		log.Fatalf("ent codegen: %v", err)
	}
}
