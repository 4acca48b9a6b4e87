package econ

import (
	"errors"
	"testing"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		raw     string
		balance int64
		want    int64
	}{
		{"1500", 2000, 1500},
		{"0", 2000, 0},
		{"50%", 200, 100},
		{"33%", 100, 33},
		{"150%", 100, 150},
		{"all", 37, 37},
		{"ALL", 37, 37},
		{"!10", 50, 40},
		{"!0", 50, 50},
		{" 25 ", 100, 25},
	}
	for _, tc := range tests {
		got, err := ParseAmount(tc.raw, tc.balance)
		if err != nil {
			t.Fatalf("ParseAmount(%q, %d) unexpected error: %v", tc.raw, tc.balance, err)
		}
		if got != tc.want {
			t.Fatalf("ParseAmount(%q, %d) = %d, want %d", tc.raw, tc.balance, got, tc.want)
		}
	}
}

func TestParseAmountInvalid(t *testing.T) {
	invalid := []struct {
		raw     string
		balance int64
	}{
		{"-5", 50},
		{"", 50},
		{"ducks", 50},
		{"-10%", 50},
		{"%", 50},
		{"!60", 50}, // cannot leave more behind than held
		{"!-1", 50},
		{"1.5", 50},
	}
	for _, tc := range invalid {
		_, err := ParseAmount(tc.raw, tc.balance)
		if !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("ParseAmount(%q, %d): want ErrInvalidAmount, got %v", tc.raw, tc.balance, err)
		}
	}
}

func TestParseAmountNeverNegative(t *testing.T) {
	for _, raw := range []string{"0%", "all", "!50", "0"} {
		got, err := ParseAmount(raw, 50)
		if err != nil {
			t.Fatalf("ParseAmount(%q): %v", raw, err)
		}
		if got < 0 {
			t.Fatalf("ParseAmount(%q) = %d, negative result", raw, got)
		}
	}
}
