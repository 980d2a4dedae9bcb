package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestOptions_WithDefaults(t *testing.T) {
	got := Options{}.withDefaults()
	want := Options{
		MaxConcurrentImports: DefaultMaxConcurrentImports,
		ImportWait:           DefaultImportWait,
		ImportTimeout:        DefaultImportTimeout,
		MaxImportRows:        DefaultMaxImportRows,
		HeaderSearchRows:     DefaultHeaderSearchRows,
		Renewal:              DefaultRenewalThresholds,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("withDefaults (-want +got):\n%s", diff)
	}

	custom := Options{MaxImportRows: 10, Renewal: RenewalThresholds{WarningDays: 60, UrgentDays: 14}}.withDefaults()
	if custom.MaxImportRows != 10 || custom.Renewal.WarningDays != 60 {
		t.Errorf("custom options overwritten: %+v", custom)
	}
}

func TestService_Today(t *testing.T) {
	s := NewService(nil, Options{})
	s.now = func() time.Time {
		return time.Date(2025, 3, 9, 23, 59, 0, 0, time.UTC)
	}
	if got := s.today(); !got.Equal(time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("today = %v", got)
	}
}

func TestArchiveConfig_WithDefaults(t *testing.T) {
	got := ArchiveConfig{}.withDefaults()
	want := ArchiveConfig{HotRetentionDays: 90, ArchiveRetentionYears: 7, BatchSize: 5000, CheckInterval: 24 * time.Hour}
	if got != want {
		t.Errorf("withDefaults = %+v, want %+v", got, want)
	}

	kept := ArchiveConfig{HotRetentionDays: 30, BatchSize: 10}.withDefaults()
	if kept.HotRetentionDays != 30 || kept.BatchSize != 10 {
		t.Errorf("explicit values overwritten: %+v", kept)
	}
}

func TestEvery_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	runs := make(chan struct{}, 1)

	done := make(chan struct{})
	go func() {
		every(ctx, time.Millisecond, func(context.Context) {
			select {
			case runs <- struct{}{}:
			default:
			}
		})
		close(done)
	}()

	<-runs // first run is immediate
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("every did not return after cancel")
	}
}

func TestPurgeDeleted_NegativeAge(t *testing.T) {
	s := NewService(nil, Options{})
	if _, err := s.PurgeDeleted(context.Background(), -time.Hour); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("PurgeDeleted(-1h) = %v, want ErrInvalidInput", err)
	}
}

// =============================================================================
// Registry
// =============================================================================

func TestRegistry(t *testing.T) {
	Clear()
	t.Cleanup(Clear)

	def := *gadgetDefinition()
	def.Info.DefaultSort = ""
	Register(def)

	got, err := Lookup("gadgets")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if got.Info.DefaultSort != "gadget_id" {
		t.Errorf("DefaultSort = %q, want the ID column", got.Info.DefaultSort)
	}

	if _, err := Lookup("boats"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Lookup(boats) = %v, want ErrNotFound", err)
	}

	other := *gadgetDefinition()
	other.Info.Key = "apples"
	Register(other)
	if all := All(); len(all) != 2 || all[0].Info.Key != "apples" {
		t.Errorf("All() not sorted by key: %d entries", len(all))
	}

	defer func() {
		if recover() == nil {
			t.Error("duplicate Register should panic")
		}
	}()
	Register(def)
}

// =============================================================================
// Definitions
// =============================================================================

func TestResourceDefinition_Helpers(t *testing.T) {
	def := gadgetDefinition()

	if diff := cmp.Diff([]string{"gadget_id", "name", "owner_name"}, def.SearchColumns()); diff != "" {
		t.Errorf("SearchColumns (-want +got):\n%s", diff)
	}

	var exported []string
	for _, f := range def.ExportFields() {
		exported = append(exported, f.Name)
	}
	if diff := cmp.Diff([]string{"gadget_id", "name", "kind", "bought", "price", "rating", "loaned"}, exported); diff != "" {
		t.Errorf("ExportFields (-want +got):\n%s", diff)
	}

	owner, _ := def.Field("owner")
	if owner.Column() != "owner_name" || owner.Header() != "Owner" {
		t.Errorf("owner column/header = %q/%q", owner.Column(), owner.Header())
	}
	if (FieldSpec{Name: "x"}).Header() != "x" {
		t.Error("Header should fall back to the field name")
	}
}

func TestResourceDefinition_ViewGroups(t *testing.T) {
	got := gadgetDefinition().ViewGroups()
	want := Views{
		Resource: "gadgets",
		Always:   []string{"gadget_id", "name"},
		Groups: []ViewGroup{
			{Key: "specs", Label: "Specs", Fields: []string{"kind", "bought", "price", "owner"}},
			{Key: "empty", Label: "Empty", Fields: []string{}},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ViewGroups (-want +got):\n%s", diff)
	}
}
