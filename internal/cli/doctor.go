package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/example/bpbot/internal/config"
	"github.com/example/bpbot/internal/db"
	"github.com/example/bpbot/internal/version"
)

// Check statuses
const (
	statusOK   = "✓"
	statusWarn = "⚠"
	statusFail = "✗"
)

// CheckResult represents the outcome of a single check
type CheckResult struct {
	Name    string
	Status  string // "✓", "⚠", "✗"
	Details string // Only shown if Status != "✓"
}

// DoctorCmd returns the doctor command for environment validation
func DoctorCmd() *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Validate bot configuration and database",
		Long: `Health check for a bot deployment.

Validates:
- Configuration loads and is complete enough to serve
- Database file exists and opens
- Schema is at the version this build expects
- Backup directory

Examples:
  bpbot doctor              # Run full health check
  bpbot doctor --quiet      # Exit code only (0=healthy, 1=issues)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(ConfigPath)
			results := runChecks(cmd.Context(), cfg, err)

			out := io.Discard
			if !quiet {
				out = cmd.OutOrStdout()
			}
			if !printResults(out, results) {
				return fmt.Errorf("environment validation failed")
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Quiet mode - exit code only")

	return cmd
}

func runChecks(ctx context.Context, cfg *config.Config, loadErr error) []CheckResult {
	results := []CheckResult{checkConfig(cfg, loadErr)}
	if loadErr != nil {
		return results
	}
	results = append(results, checkDatabase(ctx, cfg.Database.Path)...)
	results = append(results, checkBackupDir(cfg.Backup.Dir))
	return results
}

// printResults renders the compact table and reports whether every check
// passed without errors.
func printResults(out io.Writer, results []CheckResult) bool {
	healthy := true
	for _, r := range results {
		if r.Status == statusFail {
			healthy = false
			break
		}
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Check              Status")
	fmt.Fprintln(out, "─────────────────────────")
	for _, r := range results {
		fmt.Fprintf(out, "%-18s %s\n", r.Name, colorStatus(r.Status))
	}
	fmt.Fprintln(out)

	hasDetails := false
	for _, r := range results {
		if r.Status != statusOK && r.Details != "" {
			if !hasDetails {
				fmt.Fprintln(out, "Details:")
				hasDetails = true
			}
			fmt.Fprintf(out, "\n%s:\n%s\n", r.Name, r.Details)
		}
	}

	fmt.Fprintf(out, "\n%s\n", version.String())
	if healthy {
		fmt.Fprintln(out, "All checks passed.")
	} else {
		fmt.Fprintln(out, "\n⚠ Issues found.")
	}
	return healthy
}

func colorStatus(status string) string {
	switch status {
	case statusOK:
		return color.New(color.FgGreen).Sprint(status)
	case statusWarn:
		return color.New(color.FgYellow).Sprint(status)
	default:
		return color.New(color.FgRed).Sprint(status)
	}
}

// checkConfig validates that the configuration loads and can serve traffic
func checkConfig(cfg *config.Config, loadErr error) CheckResult {
	if loadErr != nil {
		return CheckResult{Name: "Config", Status: statusFail, Details: "  " + loadErr.Error()}
	}
	if err := cfg.Validate(); err != nil {
		return CheckResult{Name: "Config", Status: statusWarn, Details: "  serve will refuse to start:\n  " + err.Error()}
	}
	return CheckResult{Name: "Config", Status: statusOK}
}

// checkDatabase opens an existing database and compares its schema version
func checkDatabase(ctx context.Context, path string) []CheckResult {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return []CheckResult{{
			Name:    "Database",
			Status:  statusWarn,
			Details: fmt.Sprintf("  %s not found\n  Run: bpbot migrate", path),
		}}
	}

	database, err := db.Open(path, zap.NewNop())
	if err != nil {
		return []CheckResult{{Name: "Database", Status: statusFail, Details: "  " + err.Error()}}
	}
	defer database.Close()

	results := []CheckResult{{Name: "Database", Status: statusOK}}

	current, err := db.NewRunner(database, zap.NewNop()).CurrentVersion(ctx)
	switch latest := db.LatestVersion(); {
	case err != nil:
		results = append(results, CheckResult{Name: "Schema", Status: statusFail, Details: "  " + err.Error()})
	case current < latest:
		results = append(results, CheckResult{
			Name:    "Schema",
			Status:  statusWarn,
			Details: fmt.Sprintf("  at version %d, this build expects %d\n  Run: bpbot migrate", current, latest),
		})
	case current > latest:
		results = append(results, CheckResult{
			Name:    "Schema",
			Status:  statusFail,
			Details: fmt.Sprintf("  at version %d, newer than this build (%d)", current, latest),
		})
	default:
		results = append(results, CheckResult{Name: "Schema", Status: statusOK})
	}

	if v, err := db.SQLiteVersion(database); err != nil {
		results = append(results, CheckResult{Name: "SQLite", Status: statusWarn, Details: "  " + err.Error()})
	} else {
		results = append(results, CheckResult{Name: "SQLite " + v, Status: statusOK})
	}

	return results
}

// checkBackupDir reports whether snapshots have a place to go
func checkBackupDir(dir string) CheckResult {
	info, err := os.Stat(dir)
	switch {
	case os.IsNotExist(err):
		return CheckResult{Name: "Backups", Status: statusWarn, Details: fmt.Sprintf("  %s does not exist yet; created on first backup", dir)}
	case err != nil:
		return CheckResult{Name: "Backups", Status: statusFail, Details: "  " + err.Error()}
	case !info.IsDir():
		return CheckResult{Name: "Backups", Status: statusFail, Details: fmt.Sprintf("  %s is not a directory", dir)}
	}
	return CheckResult{Name: "Backups", Status: statusOK}
}
