package models

import "github.com/google/uuid"

// ensureID assigns a random UUID when the row does not carry one yet. IDs are
// generated in the application so SQLite and Postgres share the same schema.
func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
