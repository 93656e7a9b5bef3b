package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ExportStatus captures background export lifecycle states.
type ExportStatus string

const (
	ExportStatusQueued     ExportStatus = "queued"
	ExportStatusProcessing ExportStatus = "processing"
	ExportStatusFinished   ExportStatus = "finished"
	ExportStatusFailed     ExportStatus = "failed"
)

// ExportJob persists an asynchronous attendance export.
type ExportJob struct {
	ID         string       `db:"id" json:"id"`
	Format     string       `db:"format" json:"format"`
	Params     ExportParams `db:"params" json:"params"`
	Status     ExportStatus `db:"status" json:"status"`
	Progress   int          `db:"progress" json:"progress"`
	StorageKey *string      `db:"storage_key" json:"-"`
	Error      *string      `db:"error" json:"error,omitempty"`
	CreatedBy  *string      `db:"created_by" json:"created_by,omitempty"`
	CreatedAt  time.Time    `db:"created_at" json:"created_at"`
	FinishedAt *time.Time   `db:"finished_at" json:"finished_at,omitempty"`
}

// ExportParams are the export options persisted as JSONB.
type ExportParams struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Class     string `json:"class,omitempty"`
}

// Value marshals params to JSON for persistence.
func (p ExportParams) Value() (driver.Value, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal export params: %w", err)
	}
	return data, nil
}

// Scan unmarshals JSON payloads into the params struct.
func (p *ExportParams) Scan(value interface{}) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		*p = ExportParams{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for ExportParams", value)
	}
	if len(data) == 0 {
		*p = ExportParams{}
		return nil
	}
	if err := json.Unmarshal(data, p); err != nil {
		return fmt.Errorf("unmarshal export params: %w", err)
	}
	return nil
}
