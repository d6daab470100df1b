package docparse

import "testing"

func fp(v float64) *float64 { return &v }

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"45.00", 45, true},
		{"1,234.56", 1234.56, true},
		{"1 234.56", 1234.56, true},
		{"0", 0, false},
		{"0.00", 0, false},
		{"-12.00", 0, false},
		{"abc", 0, false},
		{"", 0, false},
	}
	for _, c := range cases {
		got, ok := parseAmount(c.in)
		if ok != c.ok || (ok && got != c.want) {
			t.Fatalf("parseAmount(%q) = %v, %v; want %v, %v", c.in, got, ok, c.want, c.ok)
		}
	}
}

func TestSweepAmountsDocumentOrder(t *testing.T) {
	text := "ART 1 $10.00\nIVA $1.60\nTOTAL $11.60"
	got := sweepAmounts(text)
	want := []float64{10, 1.6, 11.6}
	if len(got) != len(want) {
		t.Fatalf("expected %d amounts, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("amount %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func TestSweepAmountsRequiresCurrencySign(t *testing.T) {
	if got := sweepAmounts("folio 123456 tel 5512345678"); got != nil {
		t.Fatalf("expected no amounts from bare digit runs, got %v", got)
	}
}

func TestResolveAmountsLastThree(t *testing.T) {
	text := "$10.00\n$1.60\n$11.60"
	total, subtotal, iva := resolveAmounts(text, nil, nil, nil)
	if total == nil || *total != 11.60 {
		t.Fatalf("expected total 11.60, got %v", total)
	}
	if subtotal == nil || *subtotal != 10.00 {
		t.Fatalf("expected subtotal 10.00, got %v", subtotal)
	}
	if iva == nil || *iva != 1.60 {
		t.Fatalf("expected iva 1.60, got %v", iva)
	}
}

func TestResolveAmountsSingleAmountIsTotalOnly(t *testing.T) {
	total, subtotal, iva := resolveAmounts("TOTAL $45.00", nil, nil, nil)
	if total == nil || *total != 45 {
		t.Fatalf("expected total 45, got %v", total)
	}
	if subtotal != nil || iva != nil {
		t.Fatalf("expected subtotal/iva unset with fewer than 3 amounts, got %v / %v", subtotal, iva)
	}
}

func TestResolveAmountsNeverOverwritesLabeledValues(t *testing.T) {
	text := "$10.00\n$1.60\n$11.60"
	total, subtotal, iva := resolveAmounts(text, fp(99.99), nil, nil)
	if *total != 99.99 {
		t.Fatalf("labeled total overwritten: got %v", *total)
	}
	if subtotal == nil || *subtotal != 10 || iva == nil || *iva != 1.6 {
		t.Fatalf("expected positional subtotal/iva fill, got %v / %v", subtotal, iva)
	}
}

func TestResolveAmountsEmptyText(t *testing.T) {
	total, subtotal, iva := resolveAmounts("", nil, nil, nil)
	if total != nil || subtotal != nil || iva != nil {
		t.Fatalf("expected all nil for empty text, got %v %v %v", total, subtotal, iva)
	}
}
