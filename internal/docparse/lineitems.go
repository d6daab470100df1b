package docparse

import (
	"regexp"
	"strings"
)

var (
	reSeparatorRun = regexp.MustCompile(`[=\-_|]{3,}`)
	reSpaceRun     = regexp.MustCompile(`\s+`)
	reOnlyNumeric  = regexp.MustCompile(`^[0-9\s.,]+$`)

	// Lines starting with these are receipt plumbing, not products.
	reExcludedLine = regexp.MustCompile(`(?i)^(total|subtotal|iva|fecha|hora|folio|ticket|cambio|recibido|gracias|atendio|atendió|cajero|vendedor|sucursal|cliente|nombre|direccion|dirección|rfc|tel|tarjeta|efectivo|credito|crédito|debito|débito)`)
)

// productLineShapes are tried in order against each surviving line; the
// first match wins and the line contributes at most one item. PriceFirst
// marks the shapes where group 1 is the price rather than the name.
var productLineShapes = []struct {
	re         *regexp.Regexp
	priceFirst bool
}{
	// "Producto $123.45"
	{regexp.MustCompile(`^(.+?)\s+\$\s*([0-9]{1,3}(?:[,.]?[0-9]{3})*[.,]?[0-9]{0,2})$`), false},
	// "$ 123.45 Producto"
	{regexp.MustCompile(`^\$\s*([0-9]{1,3}(?:[,.]?[0-9]{3})*[.,]?[0-9]{0,2})\s+(.+)$`), true},
	// "Producto    123.45" (column layout, no $)
	{regexp.MustCompile(`^(.+?)\s{2,}([0-9]{1,3}[.,][0-9]{2})$`), false},
	// "123.45 Producto"
	{regexp.MustCompile(`^([0-9]{1,3}[.,][0-9]{2})\s+(.+)$`), true},
	// "Producto 123.45" (single space, letters-only name)
	{regexp.MustCompile(`^([A-Za-záéíóúñüÁÉÍÓÚÑÜ\s]{3,30})\s+([0-9]{1,3}[.,][0-9]{2})$`), false},
}

// maxPlausiblePrice rejects OCR noise being misread as a huge amount.
const maxPlausiblePrice = 50000

// mineLineItems scans text lines for description+price shapes.
func mineLineItems(text string) []LineItem {
	var items []LineItem
	for _, line := range strings.Split(text, "\n") {
		// Keep interior runs of spaces: the column-layout shape needs
		// them. The collapsed form is only for the skip checks.
		clean := strings.TrimSpace(reSeparatorRun.ReplaceAllString(strings.TrimSpace(line), " "))
		collapsed := strings.TrimSpace(reSpaceRun.ReplaceAllString(clean, " "))
		if len(collapsed) < 3 || reExcludedLine.MatchString(collapsed) {
			continue
		}

		for _, shape := range productLineShapes {
			m := shape.re.FindStringSubmatch(clean)
			if m == nil {
				continue
			}
			name, priceStr := m[1], m[2]
			if shape.priceFirst {
				name, priceStr = m[2], m[1]
			}
			name = strings.TrimSpace(reSpaceRun.ReplaceAllString(name, " "))

			price, ok := parseAmount(priceStr)
			if !ok || price >= maxPlausiblePrice {
				continue
			}
			if len(name) < 2 || reExcludedLine.MatchString(name) || reOnlyNumeric.MatchString(name) {
				continue
			}

			items = append(items, LineItem{Name: name, TotalPrice: price})
			break // one product per line
		}
	}
	return items
}
