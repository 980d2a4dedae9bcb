package core

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// =============================================================================
// IPv4
// =============================================================================

func TestValidateIPv4(t *testing.T) {
	tests := []struct {
		value   string
		wantErr string
	}{
		{"", ""},
		{"192.168.1.10", ""},
		{" 10.0.0.1 ", ""},
		{"255.255.255.255", ""},
		{"192.168.1", "Expected 4 octets separated by dots, got 3"},
		{"192.168.1.abc", "Octet 4 ('abc') is not a valid number"},
		{"192.168.300.1", "Octet 3 (300) is out of range (0-255)"},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			err := ValidateIPv4(tt.value)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("ValidateIPv4(%q) unexpected error: %v", tt.value, err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("ValidateIPv4(%q) = %v, want error containing %q", tt.value, err, tt.wantErr)
			}
		})
	}
}

// =============================================================================
// MAC addresses
// =============================================================================

func TestNormalizeMAC(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"aa:bb:cc:dd:ee:ff", "AA:BB:CC:DD:EE:FF"},
		{"aa-bb-cc-dd-ee-ff", "AA:BB:CC:DD:EE:FF"},
		{"aabbccddeeff", "AA:BB:CC:DD:EE:FF"},
		{"LAN: 00:11:22:33:44:55", "00:11:22:33:44:55"},
		{"not a mac", "not a mac"},
	}
	for _, tt := range tests {
		if got := NormalizeMAC(tt.in); got != tt.want {
			t.Errorf("NormalizeMAC(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestValidateMAC(t *testing.T) {
	if err := ValidateMAC("AA:BB:CC:DD:EE:FF"); err != nil {
		t.Errorf("valid MAC rejected: %v", err)
	}
	if err := ValidateMAC(""); err != nil {
		t.Errorf("empty MAC rejected: %v", err)
	}

	err := ValidateMAC("AABBCC")
	if err == nil || !strings.Contains(err.Error(), "Expected 12 hexadecimal characters, got 6") {
		t.Errorf("short MAC error = %v", err)
	}

	err = ValidateMAC("GGHHCCDDEEFF")
	if err == nil || !strings.Contains(err.Error(), "invalid characters: G, H") {
		t.Errorf("bad hex error = %v", err)
	}
}

func TestSplitMACs(t *testing.T) {
	tests := []struct {
		name      string
		in        string
		lan, wlan string
	}{
		{"single", "aa:bb:cc:dd:ee:ff", "AA:BB:CC:DD:EE:FF", ""},
		{"two unlabelled", "00:11:22:33:44:55, 66:77:88:99:AA:BB", "00:11:22:33:44:55", "66:77:88:99:AA:BB"},
		{"labelled wlan first", "WLAN: 66:77:88:99:AA:BB\nLAN: 00:11:22:33:44:55", "00:11:22:33:44:55", "66:77:88:99:AA:BB"},
		{"wifi label", "WiFi 66-77-88-99-aa-bb", "", "66:77:88:99:AA:BB"},
		{"none", "n/a", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lan, wlan := SplitMACs(tt.in)
			if lan != tt.lan || wlan != tt.wlan {
				t.Errorf("SplitMACs(%q) = (%q, %q), want (%q, %q)", tt.in, lan, wlan, tt.lan, tt.wlan)
			}
		})
	}
}

func TestJoinMACs_RoundTrip(t *testing.T) {
	joined := JoinMACs("00:11:22:33:44:55", "66:77:88:99:AA:BB")
	lan, wlan := SplitMACs(joined)
	if lan != "00:11:22:33:44:55" || wlan != "66:77:88:99:AA:BB" {
		t.Errorf("SplitMACs(JoinMACs()) = (%q, %q)", lan, wlan)
	}
	if got := JoinMACs("", "66:77:88:99:AA:BB"); got != "WLAN: 66:77:88:99:AA:BB" {
		t.Errorf("JoinMACs wlan only = %q", got)
	}
	if got := JoinMACs("00:11:22:33:44:55", ""); got != "00:11:22:33:44:55" {
		t.Errorf("JoinMACs lan only = %q", got)
	}
}

// =============================================================================
// Equipment IDs
// =============================================================================

func TestValidateEquipmentID(t *testing.T) {
	tests := []struct {
		value   string
		wantErr string
	}{
		{"PC-0001", ""},
		{"mon-0042", ""},
		{"", ""},
		{"PC0001", "Expected format: PC-0001"},
		{"PC-00-01", "exactly one hyphen"},
		{"LAP-0001", "Expected one of: PC, MON, SCN, PRN. Got: LAP"},
		{"PC-12", "Expected 4 digits (e.g., 0001). Got: 12"},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			err := ValidateEquipmentID(tt.value)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("ValidateEquipmentID(%q) = %v, want %q", tt.value, err, tt.wantErr)
			}
		})
	}
}

func TestEquipmentPrefix(t *testing.T) {
	for typ, want := range map[string]string{"PC": "PC", "monitor": "MON", "Scanner": "SCN", "PRINTER": "PRN"} {
		got, ok := EquipmentPrefix(typ)
		if !ok || got != want {
			t.Errorf("EquipmentPrefix(%q) = %q, %v; want %q", typ, got, ok, want)
		}
	}
	if _, ok := EquipmentPrefix("Laptop"); ok {
		t.Error("EquipmentPrefix(Laptop) should not be known")
	}
}

func TestFormatPublicID(t *testing.T) {
	if got := FormatPublicID("PC", 7); got != "PC-0007" {
		t.Errorf("FormatPublicID = %q", got)
	}
	if got := FormatPublicID("SUB", 12345); got != "SUB-12345" {
		t.Errorf("FormatPublicID wide = %q", got)
	}
}

// =============================================================================
// CPU speed and title case
// =============================================================================

func TestNormalizeCPUSpeed(t *testing.T) {
	tests := map[string]string{
		"2.5":       "2.5 GHz",
		"2.5ghz":    "2.5 GHz",
		"3.20 GHz":  "3.20 GHz",
		"800mhz":    "800 MHz",
		"very fast": "very fast",
	}
	for in, want := range tests {
		if got := NormalizeCPUSpeed(in); got != want {
			t.Errorf("NormalizeCPUSpeed(%q) = %q, want %q", in, got, want)
		}
	}
	if err := ValidateCPUSpeed("very fast"); err == nil {
		t.Error("ValidateCPUSpeed should reject text")
	}
}

func TestTitleCase(t *testing.T) {
	tests := map[string]string{
		"ceo  laptop":    "CEO Laptop",
		"sff desktop":    "SFF Desktop",
		"IN USE":         "In Use",
		"o'neil":         "O'Neil",
		"it admin":       "IT Admin",
		"  remote work ": "Remote Work",
	}
	got := make(map[string]string, len(tests))
	for in := range tests {
		got[in] = TitleCase(in)
	}
	if diff := cmp.Diff(tests, got); diff != "" {
		t.Errorf("TitleCase mismatch (-want +got):\n%s", diff)
	}
}
