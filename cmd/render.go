package cmd

import (
	"fmt"
	"log/slog"
	"path"

	"github.com/spf13/cobra"

	"github.com/donaldgifford/puppetenv/internal/concat"
	"github.com/donaldgifford/puppetenv/internal/config"
	"github.com/donaldgifford/puppetenv/internal/env"
	"github.com/donaldgifford/puppetenv/internal/resource"
	"github.com/donaldgifford/puppetenv/internal/site"
	"github.com/donaldgifford/puppetenv/internal/ui"
)

var renderCmd = &cobra.Command{
	Use:   "render [environment]",
	Short: "Print generated configuration",
	Long: `Print the environment.conf or puppet.conf section generated for one
environment. Without an argument, print the fully assembled puppet.conf.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	logger := slog.Default()

	cfg, plan, err := loadPlan(cmd.Context(), logger)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	if len(args) == 0 {
		for _, target := range plan.Resources.Targets() {
			if _, err := fmt.Fprintf(out, "# %s\n%s", target, concat.Target(plan.Resources, target)); err != nil {
				return err
			}
		}

		return nil
	}

	r, err := environmentOutput(cfg, plan, args[0])
	if err != nil {
		return err
	}

	if r == nil {
		ui.NewWriter(noColor).Infof("environment %s has no settings; environment.conf is not managed", args[0])

		return nil
	}

	_, err = fmt.Fprint(out, r.Content)

	return err
}

// environmentOutput returns the file or fragment holding an environment's
// settings. It is nil for a directory environment without settings.
func environmentOutput(cfg *config.Config, plan *site.Plan, name string) (*resource.Resource, error) {
	found := false

	for i := range cfg.Environments {
		if cfg.Environments[i].Name == name {
			found = true

			break
		}
	}

	if !found {
		return nil, fmt.Errorf("environment %q is not configured", name)
	}

	if plan.Context.DirectoryEnvironments {
		return plan.Resources.Get(path.Join(env.Dir(plan.Profile.CodeDir, name), env.EnvironmentConfFile)), nil
	}

	target := path.Join(plan.Profile.ConfDir, env.PuppetConfFile)

	return plan.Resources.Get(resource.FragmentID(target, env.FragmentOrder, name)), nil
}
