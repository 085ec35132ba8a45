// internal/model/qr_code.go
package model

import (
	"time"

	"github.com/google/uuid"
)

type QRCode struct {
	ID         uuid.UUID `db:"id" json:"id"`
	BusinessID uuid.UUID `db:"business_id" json:"business_id"`
	Name       string    `db:"name" json:"name"`
	ShortCode  string    `db:"short_code" json:"short_code"`
	ScanCount  int       `db:"scan_count" json:"scan_count"`
	IsActive   bool      `db:"is_active" json:"is_active"`
	Color      string    `db:"color" json:"color"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
