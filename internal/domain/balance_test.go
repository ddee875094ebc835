package domain

import (
	"testing"
)

func TestFormatBalance(t *testing.T) {
	tests := []struct {
		name       string
		rawBalance string
		decimals   int32
		want       float64
	}{
		{"two ether", "2000000000000000000", 18, 2.0},
		{"truncates to eight digits", "1234567890123456789", 18, 1.23456789},
		{"truncates not rounds", "1999999999", 9, 1.99999999},
		{"below display precision", "1", 18, 0},
		{"fewer decimals than cap", "12345", 2, 123.45},
		{"zero decimals", "42", 0, 42},
		{"zero balance", "0", 18, 0},
		{"empty string", "", 18, 0},
		{"garbage", "not-a-number", 18, 0},
		{"usdc style six decimals", "1500000", 6, 1.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatBalance(tt.rawBalance, tt.decimals); got != tt.want {
				t.Errorf("FormatBalance(%q, %d) = %v, want %v", tt.rawBalance, tt.decimals, got, tt.want)
			}
		})
	}
}

func TestFormatBalanceNeverNegative(t *testing.T) {
	raws := []string{"0", "1", "999", "123456789012345678901234567890"}
	for _, raw := range raws {
		for _, decimals := range []int32{0, 6, 8, 18, 24} {
			if got := FormatBalance(raw, decimals); got < 0 {
				t.Errorf("FormatBalance(%q, %d) = %v, want >= 0", raw, decimals, got)
			}
		}
	}
}

func TestValidateAddress(t *testing.T) {
	valid := []string{
		"0x0000000000000000000000000000000000000000",
		"0xd8dA6BF26964aF9D7eEd9e03E53415D37aA96045",
	}
	for _, addr := range valid {
		if err := ValidateAddress(addr); err != nil {
			t.Errorf("ValidateAddress(%q) = %v, want nil", addr, err)
		}
	}

	invalid := []string{
		"",
		"0x123",
		"d8dA6BF26964aF9D7eEd9e03E53415D37aA96045",
		"0xZZdA6BF26964aF9D7eEd9e03E53415D37aA96045",
		"0xd8dA6BF26964aF9D7eEd9e03E53415D37aA960455",
	}
	for _, addr := range invalid {
		if err := ValidateAddress(addr); err == nil {
			t.Errorf("ValidateAddress(%q) = nil, want error", addr)
		}
	}
}
