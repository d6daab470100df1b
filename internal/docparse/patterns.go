package docparse

import "regexp"

// Pattern tables. Each field lists its patterns most-specific first; the
// extractor stops at the first non-empty capture. Keep new patterns at the
// position their reliability earns, not at the end.

// --- ticket fields ---

// The money labels carry a leading \b so "total" never fires inside
// "subtotal" (the leftmost match would otherwise be the wrong line).
var ticketTotalPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(?:total|importe|son|suma|pagar|a\s*pagar|t\s*o\s*t\s*a\s*l|tot\s*a\s*l)[:\s=]*\$?\s*([0-9]{1,3}(?:[,\s]?[0-9]{3})*[.,]?[0-9]{0,2})`),
	regexp.MustCompile(`(?i)\$\s*([0-9]{1,3}[.,][0-9]{2}).*\b(?:total|pagar)`), // amount before the label
	regexp.MustCompile(`(?i)\b(?:total|pagar)\b.*\$\s*([0-9]{1,3}[.,][0-9]{2})`), // amount after the label
}

var ticketSubtotalPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(?:subtotal|sub-total|sub\s*total|base)[:\s=]*\$?\s*([0-9]{1,3}(?:[,\s]?[0-9]{3})*[.,]?[0-9]{0,2})`),
	regexp.MustCompile(`(?i)\$\s*([0-9]{1,3}[.,][0-9]{2}).*subtotal`),
}

var ticketIVAPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(?:iva|i\.?v\.?a\.?|impuesto|tax)[:\s=]*\$?\s*([0-9]{1,3}(?:[,\s]?[0-9]{3})*[.,]?[0-9]{0,2})`),
	regexp.MustCompile(`(?i)\$\s*([0-9]{1,3}[.,][0-9]{2}).*\biva\b`),
}

var datePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(\d{1,2}[-/.]\d{1,2}[-/.]\d{2,4})`),
	regexp.MustCompile(`(?i)(\d{1,2}\s+(?:ene|feb|mar|abr|may|jun|jul|ago|sep|oct|nov|dic)[a-z]*\s*\d{2,4})`),
	regexp.MustCompile(`(\d{4}[-/.]\d{1,2}[-/.]\d{1,2})`),
}

var timePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(\d{1,2}[:.]\d{2}(?:[:.]\d{2})?(?:\s*[ap]m)?)`),
}

// Establishment: first-line heuristics, then known Mexican retail chains
// anywhere in the text.
var establishmentPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?m)^([A-ZÁÉÍÓÚÑÜ][A-Za-záéíóúñü &.,-]{2,60})`),
	regexp.MustCompile(`(?im)^(?:tienda|super|farmacia)?[ \t]*([A-ZÁÉÍÓÚÑÜ][A-Za-záéíóúñü &.,-]{2,60})`),
	regexp.MustCompile(`(?i)(OXXO|WALMART|SORIANA|CHEDRAUI|COSTCO|SAM'?S|7-ELEVEN|BODEGA\s*AURRERA|LIVERPOOL|PALACIO|SANBORNS|HOME\s*DEPOT)`),
}

var phonePatterns = []*regexp.Regexp{
	regexp.MustCompile(`([0-9]{10})`),
	regexp.MustCompile(`([0-9]{2,3}[\s-]?[0-9]{3,4}[\s-]?[0-9]{4})`),
}

var addressPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:direcci[oó]n|address|sucursal|domicilio)[:\s]*([^\n\r]{10,100})`),
	regexp.MustCompile(`([A-Z][a-záéíóúñü\s]+[0-9]+[^\n\r]{5,80})`), // street + number shape
}

var rfcPatterns = []*regexp.Regexp{
	regexp.MustCompile(`([A-ZÑ&]{3,4}[0-9]{6}[A-Z0-9]{3})`),
}

// --- invoice fields ---

var invoiceUUIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:uuid|folio\s+fiscal|timbre)[:\s]*([A-F0-9]{8}-[A-F0-9]{4}-[A-F0-9]{4}-[A-F0-9]{4}-[A-F0-9]{12})`),
}

var invoiceIssuerRFCPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:rfc\s+emisor|rfc\s+del\s+emisor|emisor\s+rfc)[:\s]*([A-ZÑ&]{3,4}[0-9]{6}[A-Z0-9]{3})`),
}

var invoiceReceiverRFCPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:rfc\s+receptor|receptor\s+rfc|rfc\s+cliente)[:\s]*([A-ZÑ&]{3,4}[0-9]{6}[A-Z0-9]{3})`),
}

var invoiceSeriesPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:serie|ser\.)[:\s]*([A-Z0-9]{1,25})`),
}

var invoiceFolioPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:folio|fol\.?)[:\s]*([0-9]{1,40})`),
}

var invoiceTotalPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(?:total|importe\s+total|monto\s+total)[:\s]*\$?\s*([0-9]{1,3}(?:[,\s]?[0-9]{3})*\.?[0-9]{0,2})`),
}

var invoiceSubtotalPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(?:subtotal|sub\s*total|importe\s+antes)[:\s]*\$?\s*([0-9]{1,3}(?:[,\s]?[0-9]{3})*\.?[0-9]{0,2})`),
}

var invoiceIVAPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(?:iva|i\.?v\.?a\.?|impuesto\s+trasladado)[:\s]*\$?\s*([0-9]{1,3}(?:[,\s]?[0-9]{3})*\.?[0-9]{0,2})`),
}

var invoiceIssueDatePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:fecha\s+(?:de\s+)?(?:emisi[oó]n|expedici[oó]n)|fech[a.]?\s+emis)[:\s]*(\d{1,2}[-/.]\d{1,2}[-/.]\d{2,4}|\d{4}-\d{2}-\d{2})`),
}

var invoiceIssuerNamePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:raz[oó]n\s+social|nombre\s+comercial|denominaci[oó]n|emisor)[:\s]*([A-ZÁÉÍÓÚÑÜ][A-Za-záéíóúñü\s&.,-]{5,100})`),
}

// --- payment methods ---

var paymentMethodRules = []struct {
	Method string
	re     *regexp.Regexp
}{
	{"Efectivo", regexp.MustCompile(`efectivo|cash|dinero\s+en\s+efectivo`)},
	{"Tarjeta", regexp.MustCompile(`tarjeta|card|visa|mastercard|american\s+express`)},
	{"Transferencia", regexp.MustCompile(`transferencia|spei|transfer|deposito|depósito`)},
	{"Cheque", regexp.MustCompile(`cheque|chq`)},
	{"Vales de despensa", regexp.MustCompile(`vales?\s+de\s+despensa|sodexo|edenred`)},
}
