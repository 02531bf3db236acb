package helpers

import "testing"

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		amount   uint64
		decimals uint8
		want     string
	}{
		{0, 2, "0"},
		{100, 2, "1"},
		{150, 2, "1.5"},
		{105, 2, "1.05"},
		{1, 2, "0.01"},
		{42, 0, "42"},
		{123456789, 8, "1.23456789"},
	}

	for _, tt := range tests {
		if got := FormatAmount(tt.amount, tt.decimals); got != tt.want {
			t.Errorf("FormatAmount(%d, %d) = %q, want %q", tt.amount, tt.decimals, got, tt.want)
		}
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		input    string
		decimals uint8
		want     uint64
		wantErr  bool
	}{
		{"1.5", 2, 150, false},
		{"0.01", 2, 1, false},
		{"42", 0, 42, false},
		{"0", 2, 0, false},
		{"1.234", 2, 0, true},
		{"", 2, 0, true},
		{"abc", 2, 0, true},
	}

	for _, tt := range tests {
		got, err := ParseAmount(tt.input, tt.decimals)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseAmount(%q, %d) error = %v, wantErr %v", tt.input, tt.decimals, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseAmount(%q, %d) = %d, want %d", tt.input, tt.decimals, got, tt.want)
		}
	}
}

func TestFormatParseRoundTrip(t *testing.T) {
	for _, amount := range []uint64{0, 1, 99, 100, 12345} {
		s := FormatAmount(amount, 2)
		back, err := ParseAmount(s, 2)
		if err != nil {
			t.Fatalf("ParseAmount(%q) error = %v", s, err)
		}
		if back != amount {
			t.Errorf("round trip %d -> %q -> %d", amount, s, back)
		}
	}
}
