package cmd

import (
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/donaldgifford/puppetenv/internal/apply"
	"github.com/donaldgifford/puppetenv/internal/backup"
	"github.com/donaldgifford/puppetenv/internal/ui"
)

var (
	applyRoot          string
	applyDryRun        bool
	applyBackup        string
	applyNoChown       bool
	applyShowUnchanged bool
)

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Create and update environment directories and files",
	Long: `Converge the filesystem onto the plan. Directories are created with mode 0755,
environment.conf and puppet.conf are rewritten only when their content differs,
and the result is recorded in the state file for later drift checks.`,
	RunE: runApply,
}

func init() {
	applyCmd.Flags().StringVar(&applyRoot, "root", "", "prefix every managed path with this directory")
	applyCmd.Flags().BoolVar(&applyDryRun, "dry-run", false, "print what would change without writing")
	applyCmd.Flags().StringVar(&applyBackup, "backup", "", "backup strategy for replaced files (none, plain, zstd, xz)")
	applyCmd.Flags().BoolVar(&applyNoChown, "no-chown", false, "leave file ownership untouched")
	applyCmd.Flags().BoolVar(&applyShowUnchanged, "show-unchanged", false, "also list paths that are already up to date")
	rootCmd.AddCommand(applyCmd)
}

func runApply(cmd *cobra.Command, _ []string) error {
	logger := slog.Default()
	w := ui.NewWriter(noColor)

	cfg, plan, err := loadPlan(cmd.Context(), logger)
	if err != nil {
		return err
	}

	strategyName := cfg.Apply.Backup
	if cmd.Flags().Changed("backup") {
		strategyName = applyBackup
	}

	strategy, err := backup.ParseStrategy(strategyName)
	if err != nil {
		return err
	}

	result, err := apply.Run(cmd.Context(), &apply.Opts{
		Plan:      plan,
		Root:      applyRoot,
		DryRun:    applyDryRun,
		Backup:    strategy,
		NoChown:   applyNoChown,
		StateFile: filepath.Join(applyRoot, cfg.StateFile()),
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	for _, p := range result.Created {
		w.Change(ui.ActionCreate, p)
	}

	for _, p := range result.Updated {
		w.Change(ui.ActionUpdate, p)
	}

	if applyShowUnchanged {
		for _, p := range result.Unchanged {
			w.Change(ui.ActionUnchanged, p)
		}
	}

	switch {
	case !result.Changed():
		w.Success("Everything up to date.")
	case applyDryRun:
		w.Infof("dry run: %d to create, %d to update", len(result.Created), len(result.Updated))
	default:
		w.Successf("%d created, %d updated, %d unchanged", len(result.Created), len(result.Updated), len(result.Unchanged))
	}

	return nil
}
