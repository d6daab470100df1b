package ocr

import (
	"regexp"
	"strings"
)

var (
	reDateish   = regexp.MustCompile(`\b\d{1,2}[-/.]\d{1,2}[-/.]\d{2,4}\b`)
	reCurrency  = regexp.MustCompile(`[$]|\bmxn\b|\bpesos\b`)
	reAmountish = regexp.MustCompile(`\b\d{1,3}(,\d{3})*\.\d{2}\b|\b\d+\.\d{2}\b`)
)

// heuristicConfidence estimates recognition quality from receipt-shaped
// artifacts in the text, 0..100. Used when tesseract's own word
// confidences are unavailable.
func heuristicConfidence(txt string) int {
	txtL := strings.ToLower(txt)
	score := 20 // base
	if reDateish.MatchString(txtL) {
		score += 20
	}
	if reCurrency.MatchString(txtL) {
		score += 15
	}
	if reAmountish.MatchString(txtL) {
		score += 15
	}
	if len(txt) > 120 {
		score += 10
	}
	if score > 100 {
		score = 100
	}
	return score
}
