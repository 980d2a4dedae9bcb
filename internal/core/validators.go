package core

// validators.go holds the field-level validators and normalizers for
// equipment data. Validators return nil for empty input since every checked
// field is nullable; normalizers return their input unchanged when it is not
// in a recognized form so the validator can report it.

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

var (
	ipv4Pattern        = regexp.MustCompile(`^(?:(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)\.){3}(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)$`)
	macPattern         = regexp.MustCompile(`([0-9A-Fa-f]{2}[:\-]){5}[0-9A-Fa-f]{2}|[0-9A-Fa-f]{12}`)
	equipmentIDPattern = regexp.MustCompile(`(?i)^(PC|MON|SCN|PRN)-\d{4}$`)
	cpuSpeedPattern    = regexp.MustCompile(`(?i)^([\d.]+)\s*(GHz|MHz)?$`)
)

// equipmentPrefixes maps equipment types to their public ID prefix.
var equipmentPrefixes = map[string]string{
	"PC":      "PC",
	"Monitor": "MON",
	"Scanner": "SCN",
	"Printer": "PRN",
}

// EquipmentTypes lists the valid equipment types in display order.
var EquipmentTypes = []string{"PC", "Monitor", "Scanner", "Printer"}

// EquipmentPrefix returns the ID prefix for an equipment type.
func EquipmentPrefix(equipmentType string) (string, bool) {
	for t, p := range equipmentPrefixes {
		if strings.EqualFold(t, equipmentType) {
			return p, true
		}
	}
	return "", false
}

// FormatPublicID renders a public ID such as PC-0007 or SUB-0012.
func FormatPublicID(prefix string, n int32) string {
	return fmt.Sprintf("%s-%04d", prefix, n)
}

// ValidateIPv4 checks dotted-quad notation and explains which octet is wrong.
func ValidateIPv4(value string) error {
	value = strings.TrimSpace(value)
	if value == "" || ipv4Pattern.MatchString(value) {
		return nil
	}

	parts := strings.Split(value, ".")
	if len(parts) != 4 {
		return fmt.Errorf("Invalid IPv4 address format. Expected 4 octets separated by dots, got %d.", len(parts))
	}
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			return fmt.Errorf("Invalid IPv4 address format. Octet %d ('%s') is not a valid number.", i+1, part)
		}
		if n < 0 || n > 255 {
			return fmt.Errorf("Invalid IPv4 address format. Octet %d (%d) is out of range (0-255).", i+1, n)
		}
	}
	return fmt.Errorf("Invalid IPv4 address format. Expected format: xxx.xxx.xxx.xxx where each octet is 0-255.")
}

func isHex(s string) bool {
	for _, c := range s {
		if !strings.ContainsRune("0123456789ABCDEF", c) {
			return false
		}
	}
	return true
}

func colonMAC(clean string) string {
	parts := make([]string, 0, 6)
	for i := 0; i < 12; i += 2 {
		parts = append(parts, clean[i:i+2])
	}
	return strings.Join(parts, ":")
}

// FindMACs extracts every MAC address in value, normalized to upper case
// with colons. Labels such as "LAN:" or "WLAN:" around them are ignored.
func FindMACs(value string) []string {
	var out []string
	for _, m := range macPattern.FindAllString(value, -1) {
		clean := strings.NewReplacer(":", "", "-", "").Replace(strings.ToUpper(m))
		if len(clean) == 12 && isHex(clean) {
			out = append(out, colonMAC(clean))
		}
	}
	return out
}

// NormalizeMAC returns the first MAC address in value as AA:BB:CC:DD:EE:FF.
// Input without a recognizable address is returned trimmed.
func NormalizeMAC(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	if macs := FindMACs(value); len(macs) > 0 {
		return macs[0]
	}

	clean := strings.NewReplacer(":", "", "-", "", " ", "").Replace(strings.ToUpper(value))
	for _, prefix := range []string{"WLAN", "LAN", "WIFI", "ETHERNET", "ETH"} {
		clean = strings.ReplaceAll(clean, prefix, "")
	}
	if len(clean) == 12 && isHex(clean) {
		return colonMAC(clean)
	}
	return value
}

// ValidateMAC accepts colon, dash or bare forms, optionally labelled.
func ValidateMAC(value string) error {
	value = strings.TrimSpace(value)
	if value == "" || len(FindMACs(value)) > 0 {
		return nil
	}

	clean := strings.NewReplacer(":", "", "-", "").Replace(strings.ToUpper(value))
	if len(clean) != 12 {
		return fmt.Errorf("Invalid MAC address format. Expected 12 hexadecimal characters, got %d.", len(clean))
	}

	seen := make(map[rune]bool)
	var invalid []string
	for _, c := range clean {
		if !strings.ContainsRune("0123456789ABCDEF", c) && !seen[c] {
			seen[c] = true
			invalid = append(invalid, string(c))
		}
	}
	return fmt.Errorf("Invalid MAC address format. Contains invalid characters: %s.", strings.Join(invalid, ", "))
}

// SplitMACs assigns the addresses found in a combined "MAC Address" cell to
// the LAN and WLAN columns. An address on a line labelled WLAN or WIFI goes
// to WLAN; otherwise the first address is LAN and the second WLAN.
func SplitMACs(value string) (lan, wlan string) {
	var unlabelled []string
	for _, line := range strings.FieldsFunc(value, func(r rune) bool { return r == '\n' || r == ',' || r == ';' }) {
		macs := FindMACs(line)
		if len(macs) == 0 {
			continue
		}
		upper := strings.ToUpper(line)
		if wlan == "" && (strings.Contains(upper, "WLAN") || strings.Contains(upper, "WIFI")) {
			wlan = macs[0]
			unlabelled = append(unlabelled, macs[1:]...)
			continue
		}
		unlabelled = append(unlabelled, macs...)
	}
	for _, m := range unlabelled {
		switch {
		case lan == "":
			lan = m
		case wlan == "":
			wlan = m
		}
	}
	return lan, wlan
}

// JoinMACs is the inverse of SplitMACs for export.
func JoinMACs(lan, wlan string) string {
	switch {
	case lan != "" && wlan != "":
		return "LAN: " + lan + "\nWLAN: " + wlan
	case wlan != "":
		return "WLAN: " + wlan
	default:
		return lan
	}
}

// NormalizeEquipmentID upper-cases an equipment ID.
func NormalizeEquipmentID(value string) string {
	return strings.ToUpper(strings.TrimSpace(value))
}

// ValidateEquipmentID checks the {TYPE}-NNNN form.
func ValidateEquipmentID(value string) error {
	value = NormalizeEquipmentID(value)
	if value == "" || equipmentIDPattern.MatchString(value) {
		return nil
	}

	if !strings.Contains(value, "-") {
		return fmt.Errorf("Invalid Equipment ID format. Expected format: PC-0001, MON-0001, SCN-0001, or PRN-0001.")
	}
	parts := strings.Split(value, "-")
	if len(parts) != 2 {
		return fmt.Errorf("Invalid Equipment ID format. Expected exactly one hyphen separating type and number.")
	}

	typePart, numPart := parts[0], parts[1]
	valid := []string{"PC", "MON", "SCN", "PRN"}
	known := false
	for _, v := range valid {
		known = known || v == typePart
	}
	if !known {
		return fmt.Errorf("Invalid Equipment ID prefix. Expected one of: %s. Got: %s.", strings.Join(valid, ", "), typePart)
	}
	return fmt.Errorf("Invalid Equipment ID number. Expected 4 digits (e.g., 0001). Got: %s.", numPart)
}

// NormalizeCPUSpeed renders "2.5ghz" and "2.5" as "2.5 GHz".
func NormalizeCPUSpeed(value string) string {
	value = strings.TrimSpace(value)
	m := cpuSpeedPattern.FindStringSubmatch(value)
	if m == nil {
		return value
	}
	unit := "GHz"
	if strings.EqualFold(m[2], "MHz") {
		unit = "MHz"
	}
	return m[1] + " " + unit
}

// ValidateCPUSpeed accepts a number with an optional GHz or MHz unit.
func ValidateCPUSpeed(value string) error {
	value = strings.TrimSpace(value)
	if value == "" || cpuSpeedPattern.MatchString(value) {
		return nil
	}
	return fmt.Errorf("Invalid CPU speed format. Expected format: X.XX GHz or X.XX MHz (e.g., 2.5 GHz, 3.20 GHz).")
}

// preserveUpper lists abbreviations TitleCase keeps in capitals.
var preserveUpper = map[string]bool{
	"CEO": true, "SFF": true, "PC": true, "IT": true, "HR": true, "CFO": true,
	"CTO": true, "VP": true, "COO": true, "CMO": true, "CIO": true, "CSO": true,
}

// TitleCase capitalizes each word and collapses whitespace, keeping known
// abbreviations upper-case: "ceo  laptop" becomes "CEO Laptop".
func TitleCase(value string) string {
	words := strings.Fields(value)
	for i, w := range words {
		if preserveUpper[strings.ToUpper(w)] {
			words[i] = strings.ToUpper(w)
			continue
		}
		words[i] = titleWord(w)
	}
	return strings.Join(words, " ")
}

// titleWord upper-cases the first letter of every letter run and lowers the
// rest, so "o'neil" becomes "O'Neil".
func titleWord(w string) string {
	var b strings.Builder
	prevLetter := false
	for _, r := range w {
		if unicode.IsLetter(r) {
			if prevLetter {
				b.WriteRune(unicode.ToLower(r))
			} else {
				b.WriteRune(unicode.ToUpper(r))
			}
			prevLetter = true
			continue
		}
		b.WriteRune(r)
		prevLetter = false
	}
	return b.String()
}
