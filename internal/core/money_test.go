package core

import (
	"math"
	"testing"
)

func TestParseDecimalToCents(t *testing.T) {
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
		{" 2.50 ", 250, true},
		{"$45", 4500, true},
		{"$ 45.5", 4550, true},
		{".5", 50, true},
		{"-1", 0, false},
		{"0", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"$", 0, false},
		{".", 0, false},
		{"", 0, false},
		{"1.٣", 0, false}, // Arabic-Indic digits
		{"12,٥٠", 0, false},
		{"١٢", 0, false},
		{"１", 0, false}, // fullwidth one
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestFromUnits(t *testing.T) {
	m, err := FromUnits(12.346)
	if err != nil || m.Cents != 1235 {
		t.Fatalf("got %d, %v", m.Cents, err)
	}
	for _, bad := range []float64{0, -3, math.NaN(), math.Inf(1), 0.001} {
		if _, err := FromUnits(bad); err == nil {
			t.Fatalf("%v expected error", bad)
		}
	}
}

func TestMoneyUnitsAndString(t *testing.T) {
	m := Money{Cents: 123450}
	if m.Units() != 1234.5 {
		t.Fatalf("units = %v", m.Units())
	}
	if m.String() != "1234.50" {
		t.Fatalf("string = %q", m.String())
	}
	if (Money{Cents: -5}).String() != "-0.05" {
		t.Fatalf("negative string = %q", Money{Cents: -5}.String())
	}
}
