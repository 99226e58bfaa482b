package card

import (
	"encoding/json"
	"testing"
)

func TestParseAndString_Roundtrip(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"As", "As"},
		{"as", "As"},
		{"10h", "Th"},
		{"Td", "Td"},
		{"2c", "2c"},
		{"kD", "Kd"},
	}
	for _, tc := range cases {
		c, err := Parse(tc.in)
		if err != nil {
			t.Fatalf("Parse(%q) err: %v", tc.in, err)
		}
		if got := c.String(); got != tc.want {
			t.Fatalf("Parse(%q).String() = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestParse_Invalid(t *testing.T) {
	for _, in := range []string{"", "A", "1s", "Ax", "11h"} {
		if _, err := Parse(in); err == nil {
			t.Fatalf("Parse(%q) expected error", in)
		}
	}
}

func TestFullDeck_52Distinct(t *testing.T) {
	deck := FullDeck()
	if len(deck) != 52 {
		t.Fatalf("expected 52 cards, got %d", len(deck))
	}
	seen := make(map[Card]bool, 52)
	for _, c := range deck {
		if !c.Valid() {
			t.Fatalf("invalid card in full deck: %v", c)
		}
		if seen[c] {
			t.Fatalf("duplicate card in full deck: %v", c)
		}
		seen[c] = true
	}
}

func TestJSON_CompactNotation(t *testing.T) {
	c, err := Parse("Qh")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	data, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(data) != `"Qh"` {
		t.Fatalf("Marshal = %s, want %q", data, `"Qh"`)
	}
	var back Card
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if back != c {
		t.Fatalf("roundtrip changed card: %v != %v", back, c)
	}
	if err := json.Unmarshal([]byte(`"Zz"`), &back); err == nil {
		t.Fatalf("expected error for bad notation")
	}
}

func TestRankOrdering_AceHigh(t *testing.T) {
	if Ace.Value() <= King.Value() {
		t.Fatalf("ace must outrank king")
	}
	if Two.Value() != 2 || Ace.Value() != 14 {
		t.Fatalf("unexpected rank values: two=%d ace=%d", Two.Value(), Ace.Value())
	}
}
