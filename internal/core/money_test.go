package core

import (
	"testing"

	"github.com/goccy/go-json"
)

func TestParseMoney(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{"1.004", 100, true},
		{" 2.50 ", 250, true},
		{"0", 0, true},
		{"-1", 0, false},
		{"+1", 0, false},
		{"1e3", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseMoney(tc.in)
		if tc.ok {
			if err != nil || got.Cents != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got.Cents, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestParsePositiveMoney(t *testing.T) {
	if _, err := ParsePositiveMoney("0"); err == nil {
		t.Fatal("expected error for zero")
	}
	m, err := ParsePositiveMoney("10.5")
	if err != nil || m.Cents != 1050 {
		t.Fatalf("got %d, %v", m.Cents, err)
	}
}

func TestMoneyString(t *testing.T) {
	cases := map[int64]string{0: "0.00", 5: "0.05", 1234: "12.34", -250: "-2.50"}
	for cents, want := range cases {
		if got := (Money{Cents: cents}).String(); got != want {
			t.Fatalf("%d: got %q, want %q", cents, got, want)
		}
	}
}

func TestMoneyJSON(t *testing.T) {
	type wrapper struct {
		Amount Money `json:"amount"`
	}
	b, err := json.Marshal(wrapper{Amount: Money{Cents: 1999}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"amount":19.99}` {
		t.Fatalf("unexpected json %s", b)
	}

	for _, in := range []string{`{"amount":19.99}`, `{"amount":"19,99"}`} {
		var w wrapper
		if err := json.Unmarshal([]byte(in), &w); err != nil {
			t.Fatalf("unmarshal %s: %v", in, err)
		}
		if w.Amount.Cents != 1999 {
			t.Fatalf("%s: got %d cents", in, w.Amount.Cents)
		}
	}

	var w wrapper
	if err := json.Unmarshal([]byte(`{"amount":-3.5}`), &w); err != nil || w.Amount.Cents != -350 {
		t.Fatalf("negative: got %d, %v", w.Amount.Cents, err)
	}
	if err := json.Unmarshal([]byte(`{"amount":"abc"}`), &w); err == nil {
		t.Fatal("expected error for non-numeric amount")
	}
}
