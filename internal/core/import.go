package core

// import.go holds the one-shot CSV imports for software and subscriptions
// and the plumbing every import shares: the concurrency limiter, the
// per-import timeout, upload parsing, and the savepoint-per-row
// transaction.

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	db "github.com/JonMunkholm/inventory/internal/database"
)

// runImport holds an import slot and bounds the work by the import timeout.
func (s *Service) runImport(ctx context.Context, fn func(context.Context) error) error {
	return s.limiter.Do(ctx, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, s.opts.ImportTimeout)
		defer cancel()
		return fn(ctx)
	})
}

// parseUpload checks the file name and parses the upload for def. Every
// failure is a client error.
func (s *Service) parseUpload(def *ResourceDefinition, fileName string, data []byte) (*CSVFile, error) {
	if err := CheckCSVName(fileName); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	file, err := def.ParseCSV(data, s.opts.HeaderSearchRows, s.opts.MaxImportRows)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return file, nil
}

// eachRow applies rows inside one transaction. Each row runs under its own
// savepoint: when apply fails the row is rolled back alone and reported to
// fail, and the import carries on.
func (s *Service) eachRow(ctx context.Context, rows []numberedRow, apply func(q *db.Queries, r numberedRow) error, fail func(r numberedRow, err error)) error {
	return s.withTx(ctx, func(q *db.Queries, tx pgx.Tx) error {
		for i, r := range rows {
			savepoint := fmt.Sprintf("sp_%d", i)
			if _, err := tx.Exec(ctx, "SAVEPOINT "+savepoint); err != nil {
				return fmt.Errorf("create savepoint at row %d: %w", r.Line, err)
			}

			if err := apply(q, r); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				if _, rbErr := tx.Exec(ctx, "ROLLBACK TO SAVEPOINT "+savepoint); rbErr != nil {
					return fmt.Errorf("rollback savepoint at row %d: %w", r.Line, rbErr)
				}
				fail(r, err)
				continue
			}

			if _, err := tx.Exec(ctx, "RELEASE SAVEPOINT "+savepoint); err != nil {
				return fmt.Errorf("release savepoint at row %d: %w", r.Line, err)
			}
		}
		return nil
	})
}

// auditImport records one entry summarizing a finished import.
func (s *Service) auditImport(ctx context.Context, resource, importID string, summary any) {
	s.logAudit(ctx, AuditParams{
		Action:   ActionImport,
		Resource: resource,
		ImportID: importID,
		RowData:  summary,
	})
	slog.Info("import finished", "resource", resource, "import_id", importID)
}

func fileRows(file *CSVFile) []numberedRow {
	rows := make([]numberedRow, len(file.Rows))
	for i, r := range file.Rows {
		rows[i] = numberedRow{Line: r.Line, Data: file.Record(r)}
	}
	return rows
}

// rowErrorMessage renders a row failure for the client. Validation and
// conflict messages are shown as they are; anything else is mapped.
func rowErrorMessage(err error) string {
	if errors.Is(err, ErrInvalidInput) || errors.Is(err, ErrConflict) {
		return err.Error()
	}
	return FormatUserError(err)
}

// ============================================================================
// Software
// ============================================================================

// SoftwareImportError reports a failed software row. Field is null when the
// failure is not tied to a column.
type SoftwareImportError struct {
	Row     int     `json:"row"`
	Field   *string `json:"field"`
	Message string  `json:"message"`
}

// SoftwareImportResult summarizes a software import.
type SoftwareImportResult struct {
	SuccessCount int                   `json:"success_count"`
	ErrorCount   int                   `json:"error_count"`
	Errors       []SoftwareImportError `json:"errors"`
}

// applySoftwareRow updates (restoring if deleted) the record named by the
// row's software ID, or creates one.
func applySoftwareRow(ctx context.Context, q *db.Queries, data map[string]string) error {
	def := mustDef(ResourceSoftware)
	norm, verrs := def.NormalizeRow(data)
	if err := verrs.Err(); err != nil {
		return verrs[:1]
	}

	if id := strings.ToUpper(norm["software_id"]); id != "" {
		current, err := q.GetSoftwareBySoftwareID(ctx, id)
		switch {
		case err == nil:
			if current.IsDeleted {
				if current, err = q.SetSoftwareDeleted(ctx, current.ID, false); err != nil {
					return fmt.Errorf("restore software: %w", err)
				}
			}
			values := def.RowValues(norm, WriteUpdate)
			if len(values) == 0 {
				return nil
			}
			if _, err := q.UpdateSoftware(ctx, current.ID, values); err != nil {
				return fmt.Errorf("update software: %w", err)
			}
			return nil
		case !errors.Is(err, pgx.ErrNoRows):
			return fmt.Errorf("get software %s: %w", id, err)
		}
	}

	_, err := insertSoftware(ctx, q, def.RowValues(norm, WriteCreate))
	return err
}

// ImportSoftwareCSV imports license records. Rows naming a known software
// ID update it; all others create new records.
func (s *Service) ImportSoftwareCSV(ctx context.Context, fileName string, data []byte) (*SoftwareImportResult, error) {
	result := &SoftwareImportResult{Errors: []SoftwareImportError{}}
	err := s.runImport(ctx, func(ctx context.Context) error {
		file, err := s.parseUpload(mustDef(ResourceSoftware), fileName, data)
		if err != nil {
			return err
		}
		return s.eachRow(ctx, fileRows(file),
			func(q *db.Queries, r numberedRow) error {
				if err := applySoftwareRow(ctx, q, r.Data); err != nil {
					return err
				}
				result.SuccessCount++
				return nil
			},
			func(r numberedRow, err error) {
				ie := SoftwareImportError{Row: r.Line, Message: rowErrorMessage(err)}
				var verrs ValidationErrors
				if errors.As(err, &verrs) && len(verrs) > 0 {
					field := verrs[0].Field
					ie.Field, ie.Message = &field, verrs[0].Message
				}
				result.Errors = append(result.Errors, ie)
			})
	})
	if err != nil {
		return nil, err
	}
	result.ErrorCount = len(result.Errors)

	s.auditImport(ctx, ResourceSoftware, uuid.NewString(), result)
	return result, nil
}

// ============================================================================
// Subscriptions
// ============================================================================

// SubscriptionImportError reports a failed subscription row.
type SubscriptionImportError struct {
	Row      int    `json:"row"`
	Provider string `json:"provider"`
	Error    string `json:"error"`
}

// SubscriptionImportResult summarizes a subscription import.
type SubscriptionImportResult struct {
	TotalRows         int                       `json:"total_rows"`
	Created           int                       `json:"created"`
	Updated           int                       `json:"updated"`
	Restored          int                       `json:"restored"`
	Failed            int                       `json:"failed"`
	CategoriesCreated int                       `json:"categories_created"`
	Errors            []SubscriptionImportError `json:"errors"`
}

// NormalizePaymentFrequency maps spreadsheet wording onto the stored values:
// monthly stays Monthly; yearly, annual and annually become Annual; any
// other non-empty value is Other.
func NormalizePaymentFrequency(value string) string {
	switch v := strings.ToLower(strings.TrimSpace(value)); v {
	case "":
		return ""
	case "monthly":
		return "Monthly"
	case "yearly", "annual", "annually":
		return "Annual"
	default:
		return "Other"
	}
}

// NormalizeValueLevel keeps H, M and L and drops placeholders such as "-".
func NormalizeValueLevel(value string) string {
	switch v := strings.ToUpper(strings.TrimSpace(value)); v {
	case "H", "M", "L":
		return v
	default:
		return ""
	}
}

// CleanAmount keeps only the digits and decimal point of a currency cell.
func CleanAmount(value string) string {
	var b strings.Builder
	for _, r := range value {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// lenientSubscriptionCells rewrites spreadsheet cells into values the
// subscription fields accept. Unparseable dates and unrecognized booleans
// become empty rather than failing the row; a missing or unknown status
// becomes Active.
func lenientSubscriptionCells(data map[string]string) {
	if v, ok := data["payment_frequency"]; ok {
		data["payment_frequency"] = NormalizePaymentFrequency(v)
	}
	if v, ok := data["value_level"]; ok {
		data["value_level"] = NormalizeValueLevel(v)
	}
	if v, ok := data["annual_cost"]; ok {
		data["annual_cost"] = CleanAmount(v)
	}
	for _, col := range []string{"renewal_date", "last_confirmed_alive"} {
		if v, ok := data[col]; ok {
			if t, parsed := ParseDate(v); parsed {
				data[col] = t.Format(DateLayout)
			} else {
				data[col] = ""
			}
		}
	}
	if v, ok := data["in_lastpass"]; ok && !ToPgBool(v).Valid {
		data["in_lastpass"] = ""
	}

	status := "Active"
	if strings.EqualFold(strings.TrimSpace(data["status"]), "Inactive") {
		status = "Inactive"
	}
	data["status"] = status
}

// applySubscriptionRow writes one row and reports what happened to it.
func applySubscriptionRow(ctx context.Context, q *db.Queries, data map[string]string, result *SubscriptionImportResult) (rowOutcome, error) {
	def := mustDef(ResourceSubscriptions)
	lenientSubscriptionCells(data)
	norm, verrs := def.NormalizeRow(data)
	if err := verrs.Err(); err != nil {
		return 0, err
	}

	if _, ok := data["category_name"]; ok {
		catID, subID, created, err := ensureCategoryPath(ctx, q, data["category_name"], data["subcategory_name"])
		if err != nil {
			return 0, err
		}
		result.CategoriesCreated += created
		norm["category_id"], norm["subcategory_id"] = "", ""
		if catID > 0 {
			norm["category_id"] = strconv.FormatInt(catID, 10)
		}
		if subID > 0 {
			norm["subcategory_id"] = strconv.FormatInt(subID, 10)
		}
	}

	if id := strings.ToUpper(norm["subscription_id"]); id != "" {
		current, err := q.GetSubscriptionBySubscriptionID(ctx, id)
		switch {
		case err == nil:
			// An empty password cell keeps the stored one.
			if norm["password"] == "" {
				delete(norm, "password")
			}
			outcome := outcomeUpdated
			if current.IsDeleted {
				if current, err = q.SetSubscriptionDeleted(ctx, current.ID, false); err != nil {
					return 0, fmt.Errorf("restore subscription: %w", err)
				}
				outcome = outcomeRestored
			}
			if _, err := updateSubscription(ctx, q, current, def.RowValues(norm, WriteUpdate)); err != nil {
				return 0, err
			}
			return outcome, nil
		case !errors.Is(err, pgx.ErrNoRows):
			return 0, fmt.Errorf("get subscription %s: %w", id, err)
		}
	}

	if _, err := insertSubscription(ctx, q, def.RowValues(norm, WriteCreate)); err != nil {
		return 0, err
	}
	return outcomeCreated, nil
}

// ImportSubscriptionsCSV imports subscriptions from the application's own
// export or from the legacy tracking spreadsheet. Categories and
// subcategories named in the file are created when missing.
func (s *Service) ImportSubscriptionsCSV(ctx context.Context, fileName string, data []byte) (*SubscriptionImportResult, error) {
	result := &SubscriptionImportResult{Errors: []SubscriptionImportError{}}
	err := s.runImport(ctx, func(ctx context.Context) error {
		file, err := s.parseUpload(mustDef(ResourceSubscriptions), fileName, data)
		if err != nil {
			return err
		}
		rows := fileRows(file)
		result.TotalRows = len(rows)

		return s.eachRow(ctx, rows,
			func(q *db.Queries, r numberedRow) error {
				// Categories created by a failed row roll back with it.
				before := result.CategoriesCreated
				outcome, err := applySubscriptionRow(ctx, q, r.Data, result)
				if err != nil {
					result.CategoriesCreated = before
					return err
				}
				switch outcome {
				case outcomeCreated:
					result.Created++
				case outcomeUpdated:
					result.Updated++
				case outcomeRestored:
					result.Restored++
				}
				return nil
			},
			func(r numberedRow, err error) {
				result.Failed++
				result.Errors = append(result.Errors, SubscriptionImportError{
					Row:      r.Line,
					Provider: r.Data["provider"],
					Error:    rowErrorMessage(err),
				})
			})
	})
	if err != nil {
		return nil, err
	}

	s.auditImport(ctx, ResourceSubscriptions, uuid.NewString(), result)
	return result, nil
}
