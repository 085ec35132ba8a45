// internal/model/customer.go
package model

import (
	"time"

	"github.com/google/uuid"
)

type CustomerSource string

const (
	SourceManual CustomerSource = "manual"
	SourceCSV    CustomerSource = "csv"
	SourceAPI    CustomerSource = "api"
	SourceQR     CustomerSource = "qr"
)

type Customer struct {
	ID         uuid.UUID      `db:"id" json:"id"`
	BusinessID uuid.UUID      `db:"business_id" json:"business_id"`
	Name       string         `db:"name" json:"name"`
	Phone      string         `db:"phone" json:"phone,omitempty"`
	Email      string         `db:"email" json:"email,omitempty"`
	VisitDate  time.Time      `db:"visit_date" json:"visit_date"`
	Source     CustomerSource `db:"source" json:"source"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
}
