package errors

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

// DBFault is the driver level failure found somewhere in an error chain.
type DBFault struct {
	Driver     string `json:"driver"`
	Code       string `json:"code"`
	Constraint string `json:"constraint,omitempty"`
	Table      string `json:"table,omitempty"`
	Detail     string `json:"detail,omitempty"`
}

// Trace is the loggable shape of an error: its message, taxonomy code,
// every wrapped layer and the database fault if one is present.
type Trace struct {
	Message string   `json:"message"`
	Code    Code     `json:"code,omitempty"`
	Layers  []string `json:"layers,omitempty"`
	DB      *DBFault `json:"db,omitempty"`
}

func TraceOf(err error) Trace {
	if err == nil {
		return Trace{}
	}
	t := Trace{Message: err.Error(), DB: dbFault(err)}
	if typed := As(err); typed != nil {
		t.Code = typed.Code()
	}
	for layer := err; layer != nil; layer = errors.Unwrap(layer) {
		t.Layers = append(t.Layers, fmt.Sprintf("%T", layer))
	}
	return t
}

// Fields flattens the trace for structured logging.
func (t Trace) Fields() map[string]any {
	fields := map[string]any{"error": t.Message}
	if t.Code != "" {
		fields["error_code"] = string(t.Code)
	}
	if len(t.Layers) > 0 {
		fields["error_layers"] = t.Layers
	}
	if t.DB != nil {
		fields["db_driver"] = t.DB.Driver
		fields["db_code"] = t.DB.Code
		if t.DB.Constraint != "" {
			fields["db_constraint"] = t.DB.Constraint
		}
		if t.DB.Table != "" {
			fields["db_table"] = t.DB.Table
		}
		if t.DB.Detail != "" {
			fields["db_detail"] = t.DB.Detail
		}
	}
	return fields
}

func dbFault(err error) *DBFault {
	if pgErr := (*pgconn.PgError)(nil); errors.As(err, &pgErr) {
		return &DBFault{Driver: "pgx", Code: pgErr.Code, Constraint: pgErr.ConstraintName, Table: pgErr.TableName, Detail: pgErr.Detail}
	}
	if pqErr := (*pq.Error)(nil); errors.As(err, &pqErr) {
		return &DBFault{Driver: "pq", Code: string(pqErr.Code), Constraint: pqErr.Constraint, Table: pqErr.Table, Detail: pqErr.Detail}
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return &DBFault{Driver: "sqlite3", Code: strconv.Itoa(int(liteErr.ExtendedCode)), Detail: liteErr.Error()}
	}
	return nil
}
