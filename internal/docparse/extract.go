package docparse

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// firstMatch tries each pattern in order and returns the first non-empty
// trimmed capture, or "".
func firstMatch(text string, patterns []*regexp.Regexp) string {
	for _, re := range patterns {
		m := re.FindStringSubmatch(text)
		if len(m) < 2 {
			continue
		}
		if v := strings.TrimSpace(m[1]); v != "" {
			return v
		}
	}
	return ""
}

// firstAmount is firstMatch for monetary fields: the capture goes through
// parseAmount, and non-parsing or non-positive values count as no match.
func firstAmount(text string, patterns []*regexp.Regexp) *float64 {
	for _, re := range patterns {
		m := re.FindStringSubmatch(text)
		if len(m) < 2 {
			continue
		}
		if v, ok := parseAmount(m[1]); ok {
			return &v
		}
	}
	return nil
}

// parseAmount strips thousands separators (commas and spaces) and parses.
// NaN and anything not strictly greater than zero are rejected.
func parseAmount(s string) (float64, bool) {
	clean := strings.NewReplacer(",", "", " ", "").Replace(strings.TrimSpace(s))
	v, err := strconv.ParseFloat(clean, 64)
	if err != nil || math.IsNaN(v) || v <= 0 {
		return 0, false
	}
	return v, true
}

func detectPaymentMethod(text string) string {
	lower := strings.ToLower(text)
	for _, r := range paymentMethodRules {
		if r.re.MatchString(lower) {
			return r.Method
		}
	}
	return ""
}

// extractTicket runs the ticket pattern tables over the text. today is the
// processing date (YYYY-MM-DD) used when no date pattern matches.
func extractTicket(text, today string) Ticket {
	t := Ticket{
		Establishment: firstMatch(text, establishmentPatterns),
		Address:       firstMatch(text, addressPatterns),
		Phone:         firstMatch(text, phonePatterns),
		TaxID:         firstMatch(text, rfcPatterns),
		Date:          firstMatch(text, datePatterns),
		Time:          firstMatch(text, timePatterns),
		Total:         firstAmount(text, ticketTotalPatterns),
		Subtotal:      firstAmount(text, ticketSubtotalPatterns),
		IVA:           firstAmount(text, ticketIVAPatterns),
		PaymentMethod: detectPaymentMethod(text),
		LineItems:     mineLineItems(text),
	}
	t.Total, t.Subtotal, t.IVA = resolveAmounts(text, t.Total, t.Subtotal, t.IVA)
	if t.Date == "" {
		t.Date = today
		t.DateDefaulted = true
	}
	t.normalize()
	return t
}

func extractInvoice(text string) Invoice {
	f := Invoice{
		UUID:          firstMatch(text, invoiceUUIDPatterns),
		IssuerTaxID:   firstMatch(text, invoiceIssuerRFCPatterns),
		ReceiverTaxID: firstMatch(text, invoiceReceiverRFCPatterns),
		Series:        firstMatch(text, invoiceSeriesPatterns),
		Folio:         firstMatch(text, invoiceFolioPatterns),
		IssueDate:     firstMatch(text, invoiceIssueDatePatterns),
		IssuerName:    firstMatch(text, invoiceIssuerNamePatterns),
		Total:         firstAmount(text, invoiceTotalPatterns),
		Subtotal:      firstAmount(text, invoiceSubtotalPatterns),
		IVA:           firstAmount(text, invoiceIVAPatterns),
	}
	f.Total, f.Subtotal, f.IVA = resolveAmounts(text, f.Total, f.Subtotal, f.IVA)
	f.normalize()
	return f
}

// normalize is the single omit-if-empty pass: blank strings stay blank (and
// are omitted by serialization), amounts that are somehow non-positive are
// dropped, and empty line items are removed.
func (t *Ticket) normalize() {
	t.Establishment = strings.TrimSpace(t.Establishment)
	t.Address = strings.TrimSpace(t.Address)
	t.Phone = strings.TrimSpace(t.Phone)
	t.TaxID = strings.TrimSpace(t.TaxID)
	t.Total = dropNonPositive(t.Total)
	t.Subtotal = dropNonPositive(t.Subtotal)
	t.IVA = dropNonPositive(t.IVA)

	items := t.LineItems[:0]
	for _, it := range t.LineItems {
		it.Name = strings.TrimSpace(it.Name)
		if it.Name == "" || it.TotalPrice <= 0 {
			continue
		}
		items = append(items, it)
	}
	if len(items) == 0 {
		items = nil
	}
	t.LineItems = items
}

func (f *Invoice) normalize() {
	f.UUID = strings.TrimSpace(f.UUID)
	f.IssuerTaxID = strings.TrimSpace(f.IssuerTaxID)
	f.ReceiverTaxID = strings.TrimSpace(f.ReceiverTaxID)
	f.Series = strings.TrimSpace(f.Series)
	f.Folio = strings.TrimSpace(f.Folio)
	f.IssuerName = strings.TrimSpace(f.IssuerName)
	f.Total = dropNonPositive(f.Total)
	f.Subtotal = dropNonPositive(f.Subtotal)
	f.IVA = dropNonPositive(f.IVA)
}

func dropNonPositive(v *float64) *float64 {
	if v == nil || *v <= 0 || math.IsNaN(*v) {
		return nil
	}
	return v
}
