package constants

// DocumentKind is the classifier's verdict for a piece of OCR text.
type DocumentKind string

const (
	KindTicket  DocumentKind = "TICKET"  // retail purchase receipt
	KindInvoice DocumentKind = "FACTURA" // CFDI tax invoice
	KindUnknown DocumentKind = "UNKNOWN" // neither; no structured fields
)

// PaymentMethods holds the canonical payment-method labels, in the wording
// the finance module displays.
var PaymentMethods = []string{
	"Efectivo",
	"Tarjeta",
	"Transferencia",
	"Cheque",
	"Vales de despensa",
}
