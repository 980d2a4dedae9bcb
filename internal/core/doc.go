// Package core provides the business logic of the inventory service.
//
// The package is independent of any transport. The HTTP server, the admin
// CLI and tests all drive it through [Service].
//
// # Resource Registry
//
// Equipment, software and subscriptions are described by a
// [ResourceDefinition] registered at init (see package tables). A
// definition carries the field specs that drive validation, list filters,
// sorting, search, view groups, CSV header matching and export columns:
//
//	core.Register(core.ResourceDefinition{
//	    Info: core.ResourceInfo{Key: "software", Path: "software", IDPrefix: "SW"},
//	    FieldSpecs: []core.FieldSpec{
//	        {Name: "name", Type: core.FieldText, Required: true, MaxLen: 200},
//	        {Name: "cost", Type: core.FieldNumeric, NonNegative: true},
//	    },
//	})
//
// # Writes
//
// Every write path (JSON create and update, CSV preview, CSV import) funnels
// through [NormalizeValue], so a value accepted by one is accepted by all.
// Writes run in a transaction; public IDs are allocated under an advisory
// lock so concurrent creators never mint the same ID. Deletes are soft.
//
// # Imports
//
// Equipment uses a two-phase import: [Service.PreviewEquipmentImport]
// classifies rows as validated, problematic or duplicate without writing,
// and [Service.ConfirmEquipmentImport] applies the chosen rows. Every
// import runs one transaction with a savepoint per row, so a bad row is
// reported and skipped while the rest commit. [ImportLimiter] bounds how
// many imports run at once.
//
// # Error Handling
//
// Domain failures are sentinel errors ([ErrNotFound], [ErrConflict],
// [ErrNotDeleted], [ErrInvalidInput], [ErrInUse], [ErrTooManyImports]) and
// [ValidationErrors]. [MapError] turns technical errors into user-facing
// messages with a support code:
//
//   - DB001-DB007: Database errors (duplicates, constraints, connections)
//   - VAL001-VAL008: Validation errors (formats, missing columns)
//   - FILE001-FILE005: File errors (size, encoding, format)
//   - IMP001-IMP005: Import errors (busy, timeout, empty selection)
//   - INV001-INV004: Inventory rules (not found, conflicts, restores)
//
// # Audit Logging
//
// Every change is recorded after it commits, with a severity per action:
//
//   - Low: creates
//   - Medium: updates and restores
//   - High: deletes and imports
//   - Critical: retention purges
//
// Old audit entries are archived to cold storage by
// [Service.StartArchiveScheduler].
package core
