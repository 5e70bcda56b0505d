package service

import (
	"math"
	"strings"
	"testing"

	"text-stock-tracker/internal/domain"
)

func TestReplyComposer_WithWelcome(t *testing.T) {
	var c ReplyComposer
	if got := c.WithWelcome(false, "body"); got != "body" {
		t.Fatalf("expected body untouched, got %q", got)
	}
	if got := c.WithWelcome(true, "body"); got != "Welcome to Text Stock Tracker!\nbody" {
		t.Fatalf("unexpected welcome reply %q", got)
	}
}

func TestReplyComposer_MoreInfoFull(t *testing.T) {
	var c ReplyComposer
	q := domain.Quote{
		Symbol:    "AAPL",
		Name:      "Apple Inc",
		LastPrice: ptr(150),
		Change:    ptr(-2.5),
		MarketCap: ptr(2.4e12),
		Open:      ptr(151),
		High:      ptr(152.3),
		Low:       ptr(149.75),
	}
	got := c.MoreInfo(q, "AAPL")
	lines := strings.Split(got, "\n")
	if len(lines) != 3 {
		t.Fatalf("expected three lines, got %q", got)
	}
	checks := map[int][]string{
		0: {"150.00", "-2.50"},
		1: {"$2.40T", "151.00"},
		2: {"152.30", "149.75"},
	}
	for i, wants := range checks {
		for _, w := range wants {
			if !strings.Contains(lines[i], w) {
				t.Fatalf("line %d: expected %q in %q", i, w, lines[i])
			}
		}
	}
	if strings.Contains(got, unavailable) {
		t.Fatalf("expected every field present, got %q", got)
	}
}

func TestReplyComposer_MoreInfoDegradesPerField(t *testing.T) {
	var c ReplyComposer
	q := domain.Quote{Symbol: "", LastPrice: ptr(10), High: ptr(math.NaN())}
	got := c.MoreInfo(q, "XYZ")
	if !strings.Contains(got, "XYZ") {
		t.Fatalf("expected fallback symbol, got %q", got)
	}
	if strings.Count(got, unavailable) != 6 {
		t.Fatalf("expected six unavailable fields, got %q", got)
	}
	if !strings.Contains(got, "10.00") {
		t.Fatalf("expected present price kept, got %q", got)
	}
}

func TestReplyComposer_MarketCapFormat(t *testing.T) {
	cases := map[float64]string{
		2.4e12: "$2.40T",
		8.5e9:  "$8.50B",
		3.2e6:  "$3.20M",
		950000: "$950000",
	}
	for in, want := range cases {
		v := in
		if got := formatMarketCap(&v); got != want {
			t.Fatalf("formatMarketCap(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestReplyComposer_Sentences(t *testing.T) {
	var c ReplyComposer
	if got := c.NameMatch(domain.CompanyMatch{Name: "Walmart Inc", Exchange: "NYSE", Symbol: "WMT"}); got != "You're probably looking for Walmart Inc, which is listed on NYSE as 'WMT'." {
		t.Fatalf("unexpected name match %q", got)
	}
	if got := c.SymbolQuote(domain.Quote{Symbol: "AAPL", Name: "Apple Inc", LastPrice: ptr(150)}); got != "AAPL (Apple Inc) is currently trading at 150.00." {
		t.Fatalf("unexpected quote %q", got)
	}
	if got := c.SymbolQuote(domain.Quote{Symbol: "AAPL"}); !strings.Contains(got, "(unavailable)") {
		t.Fatalf("expected missing name to degrade, got %q", got)
	}
	if got := c.Help(); len(strings.Split(got, "\n")) != 4 {
		t.Fatalf("expected header plus three instructions, got %q", got)
	}
}
