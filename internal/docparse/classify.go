package docparse

import (
	"strings"

	"github.com/grupoeventa/comprobantes/constants"
)

// invoiceMarkers are checked before ticketMarkers: a CFDI invoice almost
// always contains "total" too, which would otherwise misclassify it.
var invoiceMarkers = []string{
	"uuid",
	"rfc",
	"cfdi",
	"factura electronica",
	"factura electrónica",
}

var ticketMarkers = []string{
	"ticket",
	"comprobante",
	"total",
	"subtotal",
	"gracias por su compra",
	"gracias por su preferencia",
	"recibo",
}

// Classify assigns a document kind from raw OCR text. Case-insensitive,
// pure, deterministic.
func Classify(text string) constants.DocumentKind {
	lower := strings.ToLower(text)

	for _, m := range invoiceMarkers {
		if strings.Contains(lower, m) {
			return constants.KindInvoice
		}
	}
	for _, m := range ticketMarkers {
		if strings.Contains(lower, m) {
			return constants.KindTicket
		}
	}
	return constants.KindUnknown
}
