package cmd

import (
	"errors"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/donaldgifford/puppetenv/internal/check"
	"github.com/donaldgifford/puppetenv/internal/state"
	"github.com/donaldgifford/puppetenv/internal/ui"
)

var errDrift = errors.New("managed paths have drifted")

var (
	checkOutputFormat string
	checkRoot         string
	checkExitCode     bool
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check managed paths for drift",
	Long: `Compare the managed paths on disk against the plan and the state recorded by
the last apply, telling local edits apart from config changes.`,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().StringVarP(&checkOutputFormat, "output", "o", "text", "output format (text, json)")
	checkCmd.Flags().StringVar(&checkRoot, "root", "", "prefix every managed path with this directory")
	checkCmd.Flags().BoolVar(&checkExitCode, "exit-code", false, "exit non-zero when drift is found")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, _ []string) error {
	logger := slog.Default()

	cfg, plan, err := loadPlan(cmd.Context(), logger)
	if err != nil {
		return err
	}

	applied, err := state.Read(filepath.Join(checkRoot, cfg.StateFile()))
	if err != nil {
		return err
	}

	result, err := check.Run(&check.Opts{
		Plan:         plan,
		Root:         checkRoot,
		State:        applied,
		OutputFormat: checkOutputFormat,
		Writer:       cmd.OutOrStdout(),
	})
	if err != nil {
		return err
	}

	if !result.Drifted() {
		return nil
	}

	drifted := 0

	for i := range result.Paths {
		if result.Paths[i].Status != check.StatusUpToDate {
			drifted++
		}
	}

	ui.NewWriter(noColor).Warningf("%d of %d managed paths drifted", drifted, len(result.Paths))

	if checkExitCode {
		return errDrift
	}

	return nil
}
