package orders

import (
	"strings"
	"testing"
)

func TestGenerateCodeShape(t *testing.T) {
	for i := 0; i < 100; i++ {
		code, err := GenerateCode()
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		if !ValidCode(code) {
			t.Fatalf("generated code %q fails its own pattern", code)
		}
		if !strings.HasPrefix(code, "AT-") {
			t.Fatalf("code %q missing prefix", code)
		}
		if len(code) != len("AT-")+8 {
			t.Fatalf("code %q has wrong length", code)
		}
	}
}

func TestValidCode(t *testing.T) {
	valid := []string{"AT-00000000", "AT-DEADBEEF", "AT-A1B2C3D4"}
	for _, code := range valid {
		if !ValidCode(code) {
			t.Fatalf("expected %q to be valid", code)
		}
	}

	invalid := []string{
		"",
		"AT-",
		"AT-1234567",   // too short
		"AT-123456789", // too long
		"at-deadbeef",  // lowercase
		"XX-DEADBEEF",
		"AT-DEADBEE!",
		" AT-DEADBEEF",
	}
	for _, code := range invalid {
		if ValidCode(code) {
			t.Fatalf("expected %q to be rejected", code)
		}
	}
}
