package models

import (
	"fmt"
	"io"
	"sort"
	"sync"

	"gorm.io/gen"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

/*
Column Mismatch Report Usage:

Lists database columns that no model field maps to. Run with

	projectverse report

or as part of `projectverse generate`. Example output:

	=== COLUMN MISMATCH REPORT ===
	--- Table: projects ---
	Found 1 columns not accounted for in model:
	  - legacy_slug
	=== SUMMARY ===
	Total mismatched columns across all tables: 1
*/

// All returns every persisted model, parents first.
func All() []interface{} {
	return []interface{}{
		&Project{},
		&ProjectTag{},
		&ProjectContributor{},
		&ProjectLike{},
		&ProjectView{},
	}
}

// GenerateModels migrates the schema and writes gorm/gen query helpers to outPath.
func GenerateModels(db *gorm.DB, outPath string, out io.Writer) error {
	if err := db.Exec("SELECT 1").Error; err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	g := gen.NewGenerator(gen.Config{
		OutPath:           outPath,
		Mode:              gen.WithDefaultQuery | gen.WithQueryInterface,
		FieldNullable:     true,
		FieldCoverable:    true,
		FieldWithIndexTag: true,
		FieldWithTypeTag:  true,
	})
	g.UseDB(db)
	g.ApplyBasic(All()...)

	fmt.Fprintln(out, "Migrating models...")
	migrateDB := db.Session(&gorm.Session{SkipDefaultTransaction: true, PrepareStmt: false})
	if err := migrateDB.AutoMigrate(All()...); err != nil {
		return fmt.Errorf("migrate models: %w", err)
	}

	reports, err := ColumnMismatches(db)
	if err != nil {
		return err
	}
	WriteColumnReport(out, reports)

	g.Execute()
	fmt.Fprintln(out, "Model generation complete!")
	return nil
}

// TableReport lists the columns of one table that no model field maps to.
type TableReport struct {
	Table    string
	Missing  bool
	Unmapped []string
}

// ColumnMismatches compares live table columns against the model schemas.
func ColumnMismatches(db *gorm.DB) ([]TableReport, error) {
	var reports []TableReport
	for _, model := range All() {
		s, err := schema.Parse(model, &sync.Map{}, db.NamingStrategy)
		if err != nil {
			return nil, fmt.Errorf("parse schema for %T: %w", model, err)
		}

		report := TableReport{Table: s.Table}
		if !db.Migrator().HasTable(model) {
			report.Missing = true
			reports = append(reports, report)
			continue
		}

		columns, err := db.Migrator().ColumnTypes(model)
		if err != nil {
			return nil, fmt.Errorf("read columns of %s: %w", s.Table, err)
		}
		known := make(map[string]bool, len(s.DBNames))
		for _, name := range s.DBNames {
			known[name] = true
		}
		for _, col := range columns {
			if !known[col.Name()] {
				report.Unmapped = append(report.Unmapped, col.Name())
			}
		}
		sort.Strings(report.Unmapped)
		reports = append(reports, report)
	}
	return reports, nil
}

// WriteColumnReport prints reports in the human-readable report format.
func WriteColumnReport(out io.Writer, reports []TableReport) {
	fmt.Fprintln(out, "=== COLUMN MISMATCH REPORT ===")
	total := 0
	for _, r := range reports {
		fmt.Fprintf(out, "--- Table: %s ---\n", r.Table)
		switch {
		case r.Missing:
			fmt.Fprintln(out, "Table does not exist yet (will be created during migration)")
		case len(r.Unmapped) == 0:
			fmt.Fprintln(out, "All columns are accounted for in the model.")
		default:
			fmt.Fprintf(out, "Found %d columns not accounted for in model:\n", len(r.Unmapped))
			for _, col := range r.Unmapped {
				fmt.Fprintf(out, "  - %s\n", col)
			}
			total += len(r.Unmapped)
		}
	}
	fmt.Fprintln(out, "=== SUMMARY ===")
	fmt.Fprintf(out, "Total mismatched columns across all tables: %d\n", total)
}
