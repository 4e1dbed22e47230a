package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

// NewConfigCommand creates the config command.
func NewConfigCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MatchOptions{}

	cmd := &cobra.Command{
		Use:   "config [manifest]",
		Short: "Print the effective configuration",
		Long: `Print the configuration a prune would run with: defaults, overlaid with
the config file, overlaid with flags.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfig(rootOpts, opts, args, cmd)
		},
	}

	addMatchFlags(cmd, opts)
	addJournalFlag(cmd, opts)
	return cmd
}

func runConfig(rootOpts *RootOptions, opts *MatchOptions, args []string, cmd *cobra.Command) error {
	formatter := newFormatter(rootOpts, cmd)

	cfg, err := opts.resolve(cmd, args)
	if err != nil {
		return configError(formatter, err)
	}

	if formatter.Format == "json" {
		return formatter.Success(cfg)
	}

	out, err := cfg.YAML()
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "cannot render configuration", err)
	}
	return formatter.Success(strings.TrimRight(string(out), "\n"))
}
