package docparse

import "regexp"

// reDollarAmount matches a $-prefixed amount with optional thousands
// separators. The sweep requires the currency sign: without it every folio
// number and date fragment becomes a candidate amount.
var reDollarAmount = regexp.MustCompile(`\$\s*([0-9]{1,3}(?:[,\s]?[0-9]{3})*(?:[.,][0-9]{1,2})?)`)

// sweepAmounts collects every dollar amount in document order.
func sweepAmounts(text string) []float64 {
	var out []float64
	for _, m := range reDollarAmount.FindAllStringSubmatch(text, -1) {
		if v, ok := parseAmount(m[1]); ok {
			out = append(out, v)
		}
	}
	return out
}

// resolveAmounts fills the monetary fields the labeled patterns missed,
// using receipt-layout position: totals print last, and when at least three
// amounts appear the closing lines conventionally read subtotal, iva,
// total. Fields already found by label are never overwritten.
func resolveAmounts(text string, total, subtotal, iva *float64) (*float64, *float64, *float64) {
	if total != nil && subtotal != nil && iva != nil {
		return total, subtotal, iva
	}
	vals := sweepAmounts(text)
	if len(vals) == 0 {
		return total, subtotal, iva
	}
	if total == nil {
		total = &vals[len(vals)-1]
	}
	if len(vals) >= 3 {
		if subtotal == nil {
			subtotal = &vals[len(vals)-3]
		}
		if iva == nil {
			iva = &vals[len(vals)-2]
		}
	}
	return total, subtotal, iva
}
