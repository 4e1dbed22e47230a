package cli

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/pbxprune/internal/config"
	"github.com/roach88/pbxprune/internal/manifest"
	"github.com/roach88/pbxprune/internal/pbxproj"
	"github.com/roach88/pbxprune/internal/prune"
)

// MatchOptions are the flags that select the manifest and the target.
// Set flags override the config file, which overrides the defaults.
type MatchOptions struct {
	ConfigPath string
	Mode       string
	IDs        []string
	Keywords   []string
	Journal    string
}

func addMatchFlags(cmd *cobra.Command, opts *MatchOptions) {
	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "configuration file (YAML)")
	cmd.Flags().StringVar(&opts.Mode, "mode", "", "matching mode (identifier|keyword|both)")
	cmd.Flags().StringArrayVar(&opts.IDs, "id", nil, "target object identifier (repeatable)")
	cmd.Flags().StringArrayVar(&opts.Keywords, "keyword", nil, "target keyword (repeatable)")
}

func addJournalFlag(cmd *cobra.Command, opts *MatchOptions) {
	cmd.Flags().StringVar(&opts.Journal, "journal", "", "SQLite journal path")
}

// resolve builds the effective configuration for a command.
func (o *MatchOptions) resolve(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.Default()
	if o.ConfigPath != "" {
		loaded, err := config.Read(o.ConfigPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("mode") {
		cfg.Mode = o.Mode
	}
	if flags.Changed("id") {
		cfg.Identifiers = o.IDs
	}
	if flags.Changed("keyword") {
		cfg.Keywords = o.Keywords
	}
	if flags.Lookup("journal") != nil && flags.Changed("journal") {
		cfg.Journal = o.Journal
	}
	if len(args) > 0 {
		cfg.Path = args[0]
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// configError reports an unusable configuration.
func configError(formatter *OutputFormatter, err error) error {
	_ = formatter.Error(ErrCodeConfig, err.Error(), nil)
	return WrapExitError(ExitCommandError, "invalid configuration", err)
}

// readManifest loads the manifest, reporting failures as command errors.
func readManifest(formatter *OutputFormatter, path string) (*manifest.Document, error) {
	doc, err := manifest.Read(path)
	if err != nil {
		code := ErrCodeReadFailed
		if errors.Is(err, os.ErrNotExist) {
			code = ErrCodeNotFound
		}
		_ = formatter.Error(code, err.Error(), nil)
		return nil, WrapExitError(ExitCommandError, "cannot read manifest", err)
	}
	return doc, nil
}

// structuralError reports a removal that was refused.
func structuralError(formatter *OutputFormatter, err error) error {
	var details interface{}
	var se *prune.StructuralError
	if errors.As(err, &se) {
		details = map[string]interface{}{"code": se.Code, "line": se.Line}
	}
	_ = formatter.Error(ErrCodeStructural, err.Error(), details)
	return WrapExitError(ExitCommandError, "manifest left unchanged", err)
}

// parseQuietly parses lines for attribution. Manifests that do not parse
// are still processed line by line, just without object context.
func parseQuietly(path string, lines []string) *pbxproj.Project {
	proj, err := pbxproj.Parse(path, manifest.Join(lines))
	if err != nil {
		return nil
	}
	return proj
}
