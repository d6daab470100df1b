package docparse

import "github.com/grupoeventa/comprobantes/constants"

// RawOCRResult is the engine's sole input: text recognized by one of the
// upstream OCR engines plus that engine's self-reported confidence, 0..100.
type RawOCRResult struct {
	Text       string
	Confidence int
}

// LineItem is a single product/service entry on a ticket.
type LineItem struct {
	Name       string  `json:"name"`
	TotalPrice float64 `json:"total_price"`
}

// Ticket is the structured record for a retail purchase receipt.
//
// Absent fields stay empty/nil and are omitted when serialized; downstream
// consumers read key absence as "not detected". Date is the one exception:
// when no date pattern matches it is filled with the processing date and
// DateDefaulted is set.
type Ticket struct {
	Establishment string     `json:"establishment,omitempty"`
	Address       string     `json:"address,omitempty"`
	Phone         string     `json:"phone,omitempty"`
	TaxID         string     `json:"tax_id,omitempty"`
	Date          string     `json:"date,omitempty"`
	DateDefaulted bool       `json:"date_defaulted,omitempty"`
	Time          string     `json:"time,omitempty"`
	Total         *float64   `json:"total,omitempty"`
	Subtotal      *float64   `json:"subtotal,omitempty"`
	IVA           *float64   `json:"iva,omitempty"`
	PaymentMethod string     `json:"payment_method,omitempty"`
	LineItems     []LineItem `json:"line_items,omitempty"`
}

// Invoice is the structured record for a CFDI tax invoice.
type Invoice struct {
	UUID          string   `json:"uuid,omitempty"`
	IssuerTaxID   string   `json:"issuer_tax_id,omitempty"`
	ReceiverTaxID string   `json:"receiver_tax_id,omitempty"`
	Series        string   `json:"series,omitempty"`
	Folio         string   `json:"folio,omitempty"`
	IssueDate     string   `json:"issue_date,omitempty"`
	IssuerName    string   `json:"issuer_name,omitempty"`
	Total         *float64 `json:"total,omitempty"`
	Subtotal      *float64 `json:"subtotal,omitempty"`
	IVA           *float64 `json:"iva,omitempty"`
}

// Result is the engine's output envelope. Exactly one of Ticket/Invoice is
// populated, chosen by Kind; for KindUnknown neither is.
type Result struct {
	FullText   string                 `json:"full_text"`
	Kind       constants.DocumentKind `json:"kind"`
	Confidence int                    `json:"confidence"`
	Ticket     *Ticket                `json:"ticket,omitempty"`
	Invoice    *Invoice               `json:"invoice,omitempty"`
}
