// Package cmd defines the CLI commands for puppetenv.
package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/donaldgifford/puppetenv/internal/ui"
)

var (
	verbose       bool
	noColor       bool
	cfgFile       string
	cfgRef        string
	cfgRefresh    bool
	osFamily      string
	puppetVersion string
)

// rootCmd is the base command for the puppetenv CLI.
var rootCmd = &cobra.Command{
	Use:   "puppetenv",
	Short: "Manage Puppet server environments",
	Long: `puppetenv computes the directories, environment.conf files and puppet.conf
sections of a Puppet server's environments from a declarative config file and
converges the filesystem onto them.

The config file may be local or any go-getter location (git, https, s3).`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		initLogger()
	},
}

// Execute runs the root command.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		ui.NewWriter(noColor).Error(err.Error())
	}

	return err
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file path or remote location: a URL, a forced getter (git::, s3::, gcs::), "+
			"a github.com/gitlab.com/bitbucket.org/git@ shorthand or an amazonaws.com/googleapis.com "+
			"object path (default is $PUPPETENV_CONFIG or ./puppetenv.yaml)")
	rootCmd.PersistentFlags().StringVar(&cfgRef, "ref", "", "git ref of a remote config file")
	rootCmd.PersistentFlags().BoolVar(&cfgRefresh, "refresh", false, "fetch a remote config again instead of using the cache")
	rootCmd.PersistentFlags().StringVar(&osFamily, "os-family", "", "override the detected OS family")
	rootCmd.PersistentFlags().StringVar(&puppetVersion, "puppet-version", "", "override the configured Puppet version")
}

func initLogger() {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
}
