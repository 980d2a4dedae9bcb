package core

// password.go obfuscates stored subscription passwords. XOR plus base64 is
// not encryption; it keeps credentials out of plain sight in dumps and logs.

import (
	"encoding/base64"
	"fmt"
	"strings"
	"unicode/utf8"
)

const passwordXORKey = 0x42

// ObfuscatePassword returns the stored form of a plaintext password, or ""
// for an empty one.
func ObfuscatePassword(plain string) string {
	if plain == "" {
		return ""
	}
	b := []byte(plain)
	for i := range b {
		b[i] ^= passwordXORKey
	}
	return base64.StdEncoding.EncodeToString(b)
}

// RevealPassword reverses ObfuscatePassword.
func RevealPassword(stored string) (string, error) {
	if stored == "" {
		return "", nil
	}
	b, err := base64.StdEncoding.DecodeString(stored)
	if err != nil {
		return "", fmt.Errorf("decode stored password: %w", err)
	}
	for i := range b {
		b[i] ^= passwordXORKey
	}
	if !utf8.Valid(b) {
		return "", fmt.Errorf("decode stored password: invalid utf-8")
	}
	return string(b), nil
}

// MaskPassword hides a password behind one asterisk per character, leaving
// the first visible characters readable when visible is positive and shorter
// than the password.
func MaskPassword(plain string, visible int) string {
	n := utf8.RuneCountInString(plain)
	if n == 0 {
		return ""
	}
	if visible <= 0 || visible >= n {
		return strings.Repeat("*", n)
	}
	runes := []rune(plain)
	return string(runes[:visible]) + strings.Repeat("*", n-visible)
}
