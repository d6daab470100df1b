package docparse

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// Score bounds: never absolute certainty, never near-zero.
	minScore = 10
	maxScore = 98

	productBonusCap = 15
	productBonusPer = 3
)

var (
	scoreAmount  = regexp.MustCompile(`\$\s*\d+(?:[.,]\d{1,2})?`)
	scoreDate    = regexp.MustCompile(`\d{1,2}[-/]\d{1,2}[-/]\d{2,4}`)
	scoreFiscal  = regexp.MustCompile(`total|subtotal|iva|impuesto`)
	scoreRFC     = regexp.MustCompile(`[A-Z&Ñ]{3,4}\d{6}[A-Z\d]{3}`)
	scoreUUID    = regexp.MustCompile(`[A-F0-9]{8}-[A-F0-9]{4}-[A-F0-9]{4}-[A-F0-9]{4}-[A-F0-9]{12}`)
	scoreChain   = regexp.MustCompile(`oxxo|walmart|soriana|chedraui|costco|liverpool|sanborns|bodega aurrera`)
	scoreBrand   = regexp.MustCompile(`coca cola|pepsi|bimbo|lala|nestlé|sabritas|gamesa|barcel`)
	scoreProduct = regexp.MustCompile(`[\w\s]{3,}\s+\$\s*\d+`)

	scoreShortButDense = regexp.MustCompile(`total|subtotal|\$`)
	scoreStrangeChar   = regexp.MustCompile(`[^\w\s$.,áéíóúñü\-:()\[\]{}%#&]`)
)

// scoreRules is the additive signal table. Predicates that test shapes with
// uppercase character classes (RFC, CFDI UUID) run against the original
// text; keyword predicates run against the lowercased text.
var scoreRules = []struct {
	name   string
	points int
	hit    func(text, lower string) bool
}{
	{"amounts", 15, func(_, l string) bool { return scoreAmount.MatchString(l) }},
	{"dates", 10, func(_, l string) bool { return scoreDate.MatchString(l) }},
	{"fiscal_terms", 12, func(_, l string) bool { return scoreFiscal.MatchString(l) }},
	{"rfc", 20, func(t, _ string) bool { return scoreRFC.MatchString(t) }},
	{"cfdi_uuid", 25, func(t, _ string) bool { return scoreUUID.MatchString(t) }},
	{"known_chain", 8, func(_, l string) bool { return scoreChain.MatchString(l) }},
	{"known_brand", 5, func(_, l string) bool { return scoreBrand.MatchString(l) }},
}

// Score adjusts the OCR engine's raw confidence by the content signals
// found in the text. All bonuses and penalties are summed first and the
// result clamped once; intermediate clamping would change combined totals.
func Score(text string, engineConfidence int) int {
	lower := strings.ToLower(text)
	boost := 0

	for _, r := range scoreRules {
		if r.hit(text, lower) {
			boost += r.points
		}
	}

	if n := len(scoreProduct.FindAllString(text, -1)); n > 0 {
		boost += min(productBonusCap, productBonusPer*n)
	}

	// Short text is suspect, but a short text that still carries totals or
	// amounts is a minimal ticket, not garbled OCR.
	if utf8.RuneCountInString(text) < 50 {
		if scoreShortButDense.MatchString(lower) {
			boost -= 5
		} else {
			boost -= 10
		}
	}

	if runes := utf8.RuneCountInString(text); runes > 0 {
		strange := len(scoreStrangeChar.FindAllString(text, -1))
		if float64(strange) > 0.2*float64(runes) {
			boost -= 15
		}
	}

	score := engineConfidence + boost
	if score < minScore {
		return minScore
	}
	if score > maxScore {
		return maxScore
	}
	return score
}
