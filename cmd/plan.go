package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/donaldgifford/puppetenv/internal/resource"
)

var planOutputFormat string

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show the resources computed for every environment",
	Long: `Resolve the platform profile and list the directories, files and puppet.conf
fragments the configured environments produce. Nothing is written.`,
	RunE: runPlan,
}

func init() {
	planCmd.Flags().StringVarP(&planOutputFormat, "output", "o", "text", "output format (text, yaml, json)")
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, _ []string) error {
	logger := slog.Default()

	_, plan, err := loadPlan(cmd.Context(), logger)
	if err != nil {
		return err
	}

	return writeResources(cmd.OutOrStdout(), planOutputFormat, plan.Profile.Name, plan.Resources.Entries())
}

// planDocument is the yaml/json shape of the plan output.
type planDocument struct {
	Profile   string               `yaml:"profile" json:"profile"`
	Resources []*resource.Resource `yaml:"resources" json:"resources"`
}

func writeResources(w io.Writer, format, profile string, resources []*resource.Resource) error {
	doc := planDocument{Profile: profile, Resources: resources}

	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)

		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encoding plan: %w", err)
		}

		return enc.Close()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		return enc.Encode(doc)
	case "text":
		return writeResourceTable(w, profile, resources)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func writeResourceTable(w io.Writer, profile string, resources []*resource.Resource) error {
	if _, err := fmt.Fprintf(w, "profile: %s\n\n", profile); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	if _, err := fmt.Fprintln(tw, "KIND\tID\tMODE\tOWNER"); err != nil {
		return err
	}

	for _, r := range resources {
		owner := r.Owner
		if owner == "" {
			owner = "-"
		}

		mode := r.ModeString()
		if mode == "" {
			mode = "-"
		}

		if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Kind, r.ID, mode, owner); err != nil {
			return err
		}
	}

	return tw.Flush()
}
