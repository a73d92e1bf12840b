package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/franz/music-catalog/internal/dataset"
	"github.com/franz/music-catalog/internal/store"
	"github.com/franz/music-catalog/internal/util"
	"github.com/spf13/cobra"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run diagnostic checks on the store and configuration",
	Long: `Run diagnostic checks to ensure mca can operate correctly.

This command checks:
- Store configuration and connectivity (SQLite file or MySQL server)
- Store integrity and engine version
- Schema readiness and catalog row counts
- Artifacts directory permissions
- A dataset file's columns and unparseable cells (with --dataset)

Use this command to troubleshoot issues before loading or querying.`,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)

	doctorCmd.Flags().String("dataset", "", "Dataset CSV to validate (optional)")
}

type checkResult struct {
	name    string
	message string
	error   bool
	warning bool
}

func runDoctor(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	util.InfoLog("=== MCA Doctor - Diagnostics ===")
	util.InfoLog("")

	results := []checkResult{}

	cfg, err := storeConfig()
	if err != nil {
		results = append(results, checkResult{name: "Store config", error: true, message: err.Error()})
	} else {
		cfg = cfg.WithDefaults()
		if cfg.Driver == store.DriverSQLite {
			results = append(results, checkDatabaseFile(cfg.Path))
		}
		results = append(results, checkStore(ctx, cfg)...)
	}

	results = append(results, checkArtifactsDirectory(util.GetArtifactsDir()))

	if path, _ := cmd.Flags().GetString("dataset"); path != "" {
		opts, err := datasetOptions()
		if err != nil {
			results = append(results, checkResult{name: "Coercion policy", error: true, message: err.Error()})
		} else {
			results = append(results, checkDataset(path, opts))
		}
	}

	util.InfoLog("")
	util.InfoLog("=== Diagnostic Results ===")
	util.InfoLog("")

	hasErrors := false
	hasWarnings := false

	for _, r := range results {
		symbol := "✓"
		if r.error {
			symbol = "✗"
			hasErrors = true
		} else if r.warning {
			symbol = "⚠"
			hasWarnings = true
		}

		line := fmt.Sprintf("[%s] %s", symbol, r.name)
		if r.message != "" {
			line += fmt.Sprintf(": %s", r.message)
		}

		if r.error {
			util.ErrorLog("%s", line)
		} else if r.warning {
			util.WarnLog("%s", line)
		} else {
			util.SuccessLog("%s", line)
		}
	}

	util.InfoLog("")
	if hasErrors {
		util.ErrorLog("❌ Some critical checks failed. Please resolve errors before running mca.")
		return fmt.Errorf("diagnostics failed")
	} else if hasWarnings {
		util.WarnLog("⚠️  Some checks produced warnings. Review them before proceeding.")
	} else {
		util.SuccessLog("✅ All checks passed!")
	}

	return nil
}

// checkDatabaseFile verifies a SQLite file is accessible without creating it
func checkDatabaseFile(dbPath string) checkResult {
	if dbPath == "" {
		return checkResult{
			name:    "Database file",
			warning: true,
			message: "no database path specified (use --db flag or config)",
		}
	}

	info, err := os.Stat(dbPath)
	if err != nil {
		if os.IsNotExist(err) {
			return checkResult{
				name:    "Database file",
				message: fmt.Sprintf("%s (will be created on first run)", dbPath),
			}
		}
		return checkResult{
			name:    "Database file",
			error:   true,
			message: fmt.Sprintf("cannot access %s: %v", dbPath, err),
		}
	}

	if !info.Mode().IsRegular() {
		return checkResult{
			name:    "Database file",
			error:   true,
			message: fmt.Sprintf("%s is not a regular file", dbPath),
		}
	}

	return checkResult{
		name:    "Database file",
		message: fmt.Sprintf("%s (%s)", dbPath, humanize.IBytes(uint64(info.Size()))),
	}
}

// checkStore connects to the store and reports integrity, schema and counts.
// A SQLite file that does not exist yet is not created.
func checkStore(ctx context.Context, cfg store.Config) []checkResult {
	cfg = cfg.WithDefaults()
	if cfg.Driver == store.DriverSQLite {
		if _, err := os.Stat(cfg.Path); os.IsNotExist(err) {
			return nil
		}
	}

	s, err := store.Open(ctx, cfg)
	if err != nil {
		return []checkResult{{
			name:    "Store",
			error:   true,
			message: fmt.Sprintf("cannot connect to %s: %v", cfg, err),
		}}
	}
	defer s.Close()

	results := []checkResult{}

	version, err := s.ServerVersion(ctx)
	if err != nil {
		results = append(results, checkResult{name: "Store", warning: true, message: err.Error()})
	} else {
		results = append(results, checkResult{name: "Store", message: fmt.Sprintf("%s (%s %s)", cfg, s.Driver(), version)})
	}

	if err := s.CheckIntegrity(ctx); err != nil {
		results = append(results, checkResult{
			name:    "Integrity",
			error:   true,
			message: err.Error(),
		})
		return results
	}
	results = append(results, checkResult{name: "Integrity", message: "ok"})

	ready, err := s.SchemaReady(ctx)
	if err != nil {
		return append(results, checkResult{name: "Schema", error: true, message: err.Error()})
	}
	if !ready {
		return append(results, checkResult{
			name:    "Schema",
			warning: true,
			message: "not created yet (run 'mca load <dataset.csv>')",
		})
	}

	counts, err := s.Counts(ctx)
	if err != nil {
		return append(results, checkResult{name: "Catalog", error: true, message: err.Error()})
	}
	if counts.Tracks == 0 {
		return append(results, checkResult{
			name:    "Catalog",
			warning: true,
			message: "empty (run 'mca load <dataset.csv>')",
		})
	}
	return append(results, checkResult{
		name: "Catalog",
		message: fmt.Sprintf("%s tracks, %s artists, %s metrics",
			util.FormatCount(counts.Tracks), util.FormatCount(counts.Artists), util.FormatCount(counts.Metrics)),
	})
}

// checkArtifactsDirectory verifies the artifacts directory is writable
func checkArtifactsDirectory(path string) checkResult {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			if err := os.MkdirAll(path, 0755); err != nil {
				return checkResult{
					name:    "Artifacts directory",
					error:   true,
					message: fmt.Sprintf("cannot create %s: %v", path, err),
				}
			}
			return checkResult{
				name:    "Artifacts directory",
				message: fmt.Sprintf("%s (created)", path),
			}
		}
		return checkResult{
			name:    "Artifacts directory",
			error:   true,
			message: fmt.Sprintf("cannot access %s: %v", path, err),
		}
	}

	if !info.IsDir() {
		return checkResult{
			name:    "Artifacts directory",
			error:   true,
			message: fmt.Sprintf("%s is not a directory", path),
		}
	}

	// Check write permission by creating a temp file
	testFile := filepath.Join(path, ".mca_write_test")
	f, err := os.Create(testFile)
	if err != nil {
		return checkResult{
			name:    "Artifacts directory",
			error:   true,
			message: fmt.Sprintf("cannot write to %s: %v", path, err),
		}
	}
	f.Close()
	os.Remove(testFile)

	return checkResult{
		name:    "Artifacts directory",
		message: fmt.Sprintf("%s (writable)", path),
	}
}

// checkDataset parses a dataset without loading it
func checkDataset(path string, opts dataset.Options) checkResult {
	ds, err := dataset.Read(path, opts)
	if err != nil {
		return checkResult{
			name:    "Dataset",
			error:   true,
			message: err.Error(),
		}
	}

	msg := fmt.Sprintf("%s (%s, %s rows, %s artists)", path, ds.Encoding,
		util.FormatCount(int64(len(ds.Records))), util.FormatCount(int64(len(ds.ArtistNames()))))
	if len(ds.Warnings) > 0 {
		return checkResult{
			name:    "Dataset",
			warning: true,
			message: fmt.Sprintf("%s, %d cells will be coerced", msg, len(ds.Warnings)),
		}
	}
	return checkResult{name: "Dataset", message: msg}
}
