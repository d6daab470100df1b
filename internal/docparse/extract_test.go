package docparse

import (
	"strings"
	"testing"
)

const sampleTicket = `OXXO TIENDA 1234
Direccion: Av. Insurgentes Sur 1234 Col. Centro
RFC: OXX970814HS9
12/05/2026 14:33
Refresco Cola $18.50
Pan Blanco $32.00
SUBTOTAL $43.53
IVA $6.97
TOTAL $50.50
Pago: EFECTIVO
Tel: 5512345678`

func TestExtractTicketFullReceipt(t *testing.T) {
	tk := extractTicket(sampleTicket, "2026-08-31")

	if !strings.Contains(tk.Establishment, "OXXO") {
		t.Fatalf("expected establishment to contain OXXO, got %q", tk.Establishment)
	}
	if !strings.Contains(tk.Address, "Insurgentes") {
		t.Fatalf("expected address to contain street, got %q", tk.Address)
	}
	if tk.Phone != "5512345678" {
		t.Fatalf("unexpected phone: %q", tk.Phone)
	}
	if tk.TaxID != "OXX970814HS9" {
		t.Fatalf("unexpected tax id: %q", tk.TaxID)
	}
	if tk.Date != "12/05/2026" || tk.DateDefaulted {
		t.Fatalf("expected matched date 12/05/2026, got %q (defaulted=%t)", tk.Date, tk.DateDefaulted)
	}
	if tk.Time != "14:33" {
		t.Fatalf("unexpected time: %q", tk.Time)
	}
	if tk.Total == nil || *tk.Total != 50.50 {
		t.Fatalf("expected total 50.50, got %v", tk.Total)
	}
	if tk.Subtotal == nil || *tk.Subtotal != 43.53 {
		t.Fatalf("expected subtotal 43.53, got %v", tk.Subtotal)
	}
	if tk.IVA == nil || *tk.IVA != 6.97 {
		t.Fatalf("expected iva 6.97, got %v", tk.IVA)
	}
	if tk.PaymentMethod != "Efectivo" {
		t.Fatalf("unexpected payment method: %q", tk.PaymentMethod)
	}
	if len(tk.LineItems) != 2 {
		t.Fatalf("expected 2 line items, got %v", tk.LineItems)
	}
	if tk.LineItems[0].Name != "Refresco Cola" || tk.LineItems[0].TotalPrice != 18.5 {
		t.Fatalf("unexpected first item: %+v", tk.LineItems[0])
	}
}

// The total label must not fire inside "subtotal" even when the total line
// is missing entirely.
func TestExtractTicketSubtotalDoesNotLeakIntoTotal(t *testing.T) {
	tk := extractTicket("SUBTOTAL $43.53", "2026-08-31")
	if tk.Subtotal == nil || *tk.Subtotal != 43.53 {
		t.Fatalf("expected subtotal 43.53, got %v", tk.Subtotal)
	}
	// positional fallback still nominates the only amount as the total
	if tk.Total == nil || *tk.Total != 43.53 {
		t.Fatalf("expected fallback total 43.53, got %v", tk.Total)
	}
}

func TestExtractTicketDateDefaultsToProcessingDate(t *testing.T) {
	tk := extractTicket("gracias por su compra", "2026-08-31")
	if tk.Date != "2026-08-31" {
		t.Fatalf("expected processing-date default, got %q", tk.Date)
	}
	if !tk.DateDefaulted {
		t.Fatal("expected DateDefaulted to be set")
	}
	if tk.Total != nil || tk.Subtotal != nil || tk.IVA != nil {
		t.Fatalf("expected no amounts, got %v %v %v", tk.Total, tk.Subtotal, tk.IVA)
	}
}

func TestDetectPaymentMethod(t *testing.T) {
	cases := map[string]string{
		"pago en EFECTIVO":           "Efectivo",
		"TARJETA VISA ****1234":      "Tarjeta",
		"transferencia SPEI":         "Transferencia",
		"pago con cheque":            "Cheque",
		"vales de despensa Edenred":  "Vales de despensa",
		"sin forma de pago impresa":  "",
	}
	for text, want := range cases {
		if got := detectPaymentMethod(text); got != want {
			t.Fatalf("detectPaymentMethod(%q) = %q, want %q", text, got, want)
		}
	}
}

const sampleInvoice = `FACTURA ELECTRONICA CFDI
Razón Social: Eventos del Valle SA de CV
RFC Emisor: EVA123456AB1
RFC Receptor: XAXX010101000
UUID: A1B2C3D4-E5F6-A7B8-C9D0-E1F2A3B4C5D6
Serie: A Folio: 12345
Fecha de Emisión: 01/02/2026
IVA: $160.00
Importe Total: $1,160.00`

func TestExtractInvoiceFields(t *testing.T) {
	f := extractInvoice(sampleInvoice)

	if f.UUID != "A1B2C3D4-E5F6-A7B8-C9D0-E1F2A3B4C5D6" {
		t.Fatalf("unexpected uuid: %q", f.UUID)
	}
	if f.IssuerTaxID != "EVA123456AB1" {
		t.Fatalf("unexpected issuer rfc: %q", f.IssuerTaxID)
	}
	if f.ReceiverTaxID != "XAXX010101000" {
		t.Fatalf("unexpected receiver rfc: %q", f.ReceiverTaxID)
	}
	if f.Series != "A" {
		t.Fatalf("unexpected series: %q", f.Series)
	}
	if f.Folio != "12345" {
		t.Fatalf("unexpected folio: %q", f.Folio)
	}
	if f.IssueDate != "01/02/2026" {
		t.Fatalf("unexpected issue date: %q", f.IssueDate)
	}
	if !strings.Contains(f.IssuerName, "Eventos del Valle") {
		t.Fatalf("expected issuer name, got %q", f.IssuerName)
	}
	if f.Total == nil || *f.Total != 1160 {
		t.Fatalf("expected total 1160, got %v", f.Total)
	}
	if f.IVA == nil || *f.IVA != 160 {
		t.Fatalf("expected iva 160, got %v", f.IVA)
	}
	// only two $-amounts in the text, so the positional fallback cannot
	// nominate a subtotal
	if f.Subtotal != nil {
		t.Fatalf("expected subtotal absent, got %v", f.Subtotal)
	}
}

func TestExtractInvoiceEmptyText(t *testing.T) {
	f := extractInvoice("")
	if f != (Invoice{}) {
		t.Fatalf("expected zero invoice for empty text, got %+v", f)
	}
}
