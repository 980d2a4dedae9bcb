package core

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseCategorySeed(t *testing.T) {
	const seed = `
categories:
  - name: Software Tools
    order: 1
    subcategories: [Design, Engineering]
  - name: Marketing
    subcategories:
      - Social
`
	got, err := ParseCategorySeed(strings.NewReader(seed))
	if err != nil {
		t.Fatalf("ParseCategorySeed: %v", err)
	}

	one := int32(1)
	want := CategorySeed{Categories: []SeedCategory{
		{Name: "Software Tools", Order: &one, Subcategories: []string{"Design", "Engineering"}},
		{Name: "Marketing", Subcategories: []string{"Social"}},
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("seed (-want +got):\n%s", diff)
	}
}

func TestParseCategorySeed_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"unknown key", "categories:\n  - name: A\n    colour: red\n", "colour"},
		{"missing name", "categories:\n  - subcategories: [X]\n", "category 1 has no name"},
		{"duplicate name", "categories:\n  - name: Tools\n  - name: tools\n", `duplicate category "tools"`},
		{"not yaml", "categories: [\n", "parse category seed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCategorySeed(strings.NewReader(tt.yaml))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("ParseCategorySeed error = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestCleanCategoryName(t *testing.T) {
	str := func(s string) *string { return &s }

	if got, err := cleanCategoryName(str("  Design  ")); err != nil || got != "Design" {
		t.Errorf("cleanCategoryName = %q, %v", got, err)
	}

	for name, in := range map[string]*string{
		"nil":      nil,
		"blank":    str("   "),
		"too long": str(strings.Repeat("x", maxCategoryName+1)),
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := cleanCategoryName(in); !errors.Is(err, ErrInvalidInput) {
				t.Errorf("error = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestForceReason(t *testing.T) {
	if forceReason(false) != "" {
		t.Error("forceReason(false) should be empty")
	}
	if forceReason(true) == "" {
		t.Error("forceReason(true) should explain the override")
	}
}
