package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/inventory/internal/admin"
	"github.com/JonMunkholm/inventory/internal/console"
	"github.com/JonMunkholm/inventory/internal/core"
)

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tasks, err := a.tasks(cmd.Context())
			if err != nil {
				return err
			}
			applied, err := tasks.Migrate(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "applied %d migrations\n", len(applied))
			return nil
		},
	}
}

type importOptions struct {
	preview bool
}

func newImportCmd(a *app) *cobra.Command {
	var opts importOptions

	cmd := &cobra.Command{
		Use:   "import <resource> <file.csv>",
		Short: "Import records from a CSV file",
		Args: cobra.MatchAll(cobra.ExactArgs(2), resourceArg, func(cmd *cobra.Command, args []string) error {
			if err := core.CheckCSVName(args[1]); err != nil {
				return fmt.Errorf("%s: %w", args[1], err)
			}
			if opts.preview && args[0] != "equipment" {
				return errors.New("--preview is only supported for equipment")
			}
			return nil
		}),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[1])
			if err != nil {
				return err
			}
			service, err := a.open(cmd.Context())
			if err != nil {
				return err
			}

			name := filepath.Base(args[1])
			var result any
			switch {
			case opts.preview:
				result, err = service.PreviewEquipmentImport(cmd.Context(), name, data)
			case args[0] == "equipment":
				result, err = service.ImportEquipmentCSV(cmd.Context(), name, data)
			case args[0] == "software":
				result, err = service.ImportSoftwareCSV(cmd.Context(), name, data)
			default:
				result, err = service.ImportSubscriptionsCSV(cmd.Context(), name, data)
			}
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}

	cmd.Flags().BoolVar(&opts.preview, "preview", false, "Classify rows without writing (equipment only)")
	return cmd
}

type exportOptions struct {
	out            string
	includeDeleted bool
}

func newExportCmd(a *app) *cobra.Command {
	var opts exportOptions

	cmd := &cobra.Command{
		Use:   "export <resource>",
		Short: "Export records as CSV",
		Args:  cobra.MatchAll(cobra.ExactArgs(1), resourceArg),
		RunE: func(cmd *cobra.Command, args []string) error {
			service, err := a.open(cmd.Context())
			if err != nil {
				return err
			}

			path := opts.out
			if path == "" {
				path = core.ExportFileName(args[0], time.Now())
			}

			write := func(w io.Writer) (int, error) {
				return service.Export(cmd.Context(), args[0], opts.includeDeleted, w)
			}
			if path == "-" {
				_, err := write(cmd.OutOrStdout())
				return err
			}

			n, err := writeExportFile(path, write)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d rows to %s\n", n, path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.out, "out", "o", "", `Output file, "-" for stdout (default: <resource>_export_<date>.csv)`)
	cmd.Flags().BoolVar(&opts.includeDeleted, "include-deleted", false, "Include soft-deleted records")
	return cmd
}

// writeExportFile creates path and fills it with write. The close error is
// returned when write itself succeeded.
func writeExportFile(path string, write func(io.Writer) (int, error)) (n int, err error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()
	return write(f)
}

func newPurgeCmd(a *app) *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Permanently delete records soft-deleted longer than a threshold",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if olderThan == 0 {
				olderThan = a.cfg.Retention.PurgeAfter
			}
			if olderThan < 0 {
				return fmt.Errorf("--older-than must be positive, got %s", olderThan)
			}
			tasks, err := a.tasks(cmd.Context())
			if err != nil {
				return err
			}
			counts, err := tasks.Purge(cmd.Context(), olderThan)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), admin.PurgeSummary(counts))
			return nil
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 0, "Age threshold (default: RETENTION_PURGE_AFTER)")
	return cmd
}

func newSeedCmd(a *app) *cobra.Command {
	seed := &cobra.Command{
		Use:   "seed",
		Short: "Load reference data",
	}

	var file string
	categories := &cobra.Command{
		Use:   "categories",
		Short: "Seed subscription categories from a YAML file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				return errors.New("--file is required")
			}
			f, err := os.Open(file)
			if err != nil {
				return err
			}
			defer f.Close()

			parsed, err := core.ParseCategorySeed(f)
			if err != nil {
				return err
			}
			service, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			result, err := service.SeedCategories(cmd.Context(), parsed)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %d categories and %d subcategories\n", result.Categories, result.Subcategories)
			return nil
		},
	}
	categories.Flags().StringVarP(&file, "file", "f", "", "YAML seed file")

	seed.AddCommand(categories)
	return seed
}

func newConsoleCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "console",
		Short: "Start the interactive maintenance console",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tasks, err := a.tasks(cmd.Context())
			if err != nil {
				return err
			}

			model := console.New(cmd.Context(), tasks, a.cfg.Retention.PurgeAfter)
			p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
			if _, err := p.Run(); err != nil {
				return fmt.Errorf("console: %w", err)
			}
			return nil
		},
	}
}
