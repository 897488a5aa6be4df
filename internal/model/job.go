package model

import (
	"database/sql"
	"time"
)

type JobStatus string

const (
	StatusPending    JobStatus = "pending"
	StatusProcessing JobStatus = "processing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
)

type QueryType string

const (
	TypeFactual QueryType = "factual"
	TypeDispute QueryType = "dispute"
	TypeMedia   QueryType = "media"
)

// Job is one oracle request through its whole lifecycle. Result holds the
// signed consensus document as JSON once the round completes. The payment
// fields are caller-supplied attribution, stored opaque.
type Job struct {
	ID           string         `db:"id" json:"id"`
	QueryType    QueryType      `db:"query_type" json:"query_type"`
	Query        string         `db:"query" json:"query"`
	Contract     sql.NullString `db:"contract" json:"-"`
	Status       JobStatus      `db:"status" json:"status"`
	Attempts     int            `db:"attempts" json:"attempts"`
	Result       sql.NullString `db:"result" json:"-"`
	LastError    sql.NullString `db:"last_error" json:"-"`
	PayerAddress sql.NullString `db:"payer_address" json:"-"`
	TxHash       sql.NullString `db:"tx_hash" json:"-"`
	Network      sql.NullString `db:"network" json:"-"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updated_at"`
	CompletedAt  sql.NullTime   `db:"completed_at" json:"-"`
}
