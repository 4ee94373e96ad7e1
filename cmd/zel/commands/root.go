// Package commands implements the CLI commands for zel.
package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.trai.ch/zel/internal/app"
	"go.trai.ch/zel/internal/build"
	"go.trai.ch/zel/internal/core/domain"
)

// CLI represents the command line interface for zel.
type CLI struct {
	app     Application
	rootCmd *cobra.Command
}

// Application represents the application logic interface.
type Application interface {
	Fetch(ctx context.Context, opts app.FetchOptions) ([]domain.MaterializedFile, error)
	Validate(ctx context.Context, opts app.ValidateOptions) (*domain.Resolution, error)
	CleanCache(ctx context.Context, repos []string) error
	ConfigureLogging(format, level string) error
	EnableProgress(w io.Writer)
}

// New creates a new CLI instance with the given app.
func New(a Application) *CLI {
	c := &CLI{app: a}

	var (
		fetch    app.FetchOptions
		logLevel string
		logFmt   string
		progress bool
	)

	rootCmd := &cobra.Command{
		Use:           "zel [repo]",
		Short:         "Fetch shared project files declared in .zel manifests",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
		Long: "Resolves the .zel manifest of a repository, or the dependencies of the local\n" +
			".zel file, together with every repository they depend on, and downloads the\n" +
			"declared files into the target directory.",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.app.ConfigureLogging(logFmt, logLevel); err != nil {
				return err
			}
			if progress {
				c.app.EnableProgress(cmd.ErrOrStderr())
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := fetch
			if len(args) == 1 {
				opts.Repo = args[0]
			}
			_, err := c.app.Fetch(cmd.Context(), opts)
			return err
		},
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"{{.Name}} version {{.Version}} (commit: %s, date: %s)\n",
		build.Commit,
		build.Date,
	))
	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	rootCmd.Flags().StringVarP(&fetch.TargetDir, "target", "t", "", "Directory to write files into (default: current directory)")
	addSourceFlags(rootCmd, &fetch.SourceOptions)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	pf.StringVar(&logFmt, "log-format", string(domain.LogFormatText), "Log format (text, json)")
	pf.BoolVar(&progress, "progress", false, "Print each completed fetch and download")

	c.rootCmd = rootCmd

	rootCmd.AddCommand(c.newValidateCmd())
	rootCmd.AddCommand(c.newCacheCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// addSourceFlags binds the flags that select and authenticate the manifest source.
func addSourceFlags(cmd *cobra.Command, opts *app.SourceOptions) {
	f := cmd.Flags()
	f.Var(newTokenValue(&opts.Token), "token", "API token, cached for later runs")
	f.BoolVar(&opts.Refresh, "refresh", false, "Ignore cached manifests and fetch them again")
	f.Var(newSourceValue(&opts.Source), "source", "Manifest source (github, dir, gitlab, bitbucket)")
	f.StringVar(&opts.SourceDir, "source-dir", "", "Read manifests from <dir>/<owner>/<name>/.zel")
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput sets the output and error streams for the root command. Used for testing.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}
