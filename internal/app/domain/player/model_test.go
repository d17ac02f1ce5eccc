package player

import (
	"testing"

	"github.com/NeoReef/game-backend/internal/app/errs"
)

func TestValidateAddress(t *testing.T) {
	valid := []string{
		"0x00112233445566778899aabbccddeeff00112233",
		"0xFFEEDDCCBBAA99887766554433221100FFEEDDCC",
	}
	for _, addr := range valid {
		if err := ValidateAddress(addr); err != nil {
			t.Errorf("ValidateAddress(%q) = %v, want nil", addr, err)
		}
	}

	invalid := []string{
		"",
		"alice",
		"00112233445566778899aabbccddeeff00112233",   // missing prefix
		"0x112233445566778899aabbccddeeff001122",      // too short
		"0x00112233445566778899aabbccddeeff001122334", // too long
		"0xgg112233445566778899aabbccddeeff00112233",  // non-hex
	}
	for _, addr := range invalid {
		err := ValidateAddress(addr)
		if err == nil {
			t.Errorf("ValidateAddress(%q) = nil, want error", addr)
			continue
		}
		if !errs.IsValidation(err) {
			t.Errorf("ValidateAddress(%q) = %v, want validation error", addr, err)
		}
	}
}
