package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/grupoeventa/comprobantes/constants"
)

// Document is the parsed record extracted from a scan. Columns double the
// fields the reports query on; Result holds the full serialized parse.
type Document struct {
	ID            uuid.UUID
	ScanID        uuid.UUID
	Kind          constants.DocumentKind
	Confidence    int
	NeedsReview   bool
	Establishment string // issuer name for invoices
	TaxID         string
	IssuedOn      string // as printed on the document, not normalized
	Total         *float64
	Subtotal      *float64
	IVA           *float64
	PaymentMethod string
	Result        []byte // serialized parse result, stored as jsonb
	CreatedAt     time.Time
}
