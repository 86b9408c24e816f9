package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/donaldgifford/puppetenv/internal/platform"
)

var platformsCmd = &cobra.Command{
	Use:   "platforms [profile]",
	Short: "List the supported platform profiles",
	Long: `List the Puppet directory layouts puppetenv knows, or show the paths of a
single profile.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPlatforms,
}

func init() {
	rootCmd.AddCommand(platformsCmd)
}

func runPlatforms(cmd *cobra.Command, args []string) error {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)

	if len(args) == 1 {
		p, err := platform.Lookup(args[0])
		if err != nil {
			return err
		}

		for _, row := range [][2]string{
			{"codedir", p.CodeDir},
			{"confdir", p.ConfDir},
			{"logdir", p.LogDir},
			{"rundir", p.RunDir},
			{"ssldir", p.SSLDir},
			{"vardir", p.VarDir},
			{"sharedir", p.ShareDir},
		} {
			if _, err := fmt.Fprintf(tw, "%s\t%s\n", row[0], row[1]); err != nil {
				return err
			}
		}

		return tw.Flush()
	}

	if _, err := fmt.Fprintln(tw, "PROFILE\tCODEDIR\tCONFDIR"); err != nil {
		return err
	}

	for _, p := range platform.Profiles() {
		if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\n", p.Name, p.CodeDir, p.ConfDir); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintf(tw, "\nOS families: %s\n", strings.Join(platform.Families(), ", ")); err != nil {
		return err
	}

	return tw.Flush()
}
