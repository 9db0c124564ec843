package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/quantmind-br/adenotifier-go/internal/app"
	"github.com/quantmind-br/adenotifier-go/internal/config"
	"github.com/quantmind-br/adenotifier-go/internal/manifest"
	"github.com/quantmind-br/adenotifier-go/pkg/version"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// ErrSourceRequired is returned when a command needs --source
var ErrSourceRequired = errors.New("--source is required")

// cliOptions holds the persistent flags
type cliOptions struct {
	cfgFile  string
	envFiles []string
	sourceID string
	verbose  bool
	v        *viper.Viper
}

// Dependencies for testing
var newApp = app.New

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &cliOptions{v: viper.New()}

	rootCmd := &cobra.Command{
		Use:   "adenotifier",
		Short: "Add files to ADE manifests and notify them",
		Long: `adenotifier adds source files to manifests of the Agile Data Engine
Notify API and notifies the manifests for loading.

Datasources are read from a YAML or JSON file; each names the ADE source
system and entity, the manifest format and how file paths are rewritten
and batched.`,
		Version:       version.Short(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.cfgFile, "config", "", "config file (default is ~/.adenotifier/config.yaml)")
	flags.StringSliceVar(&opts.envFiles, "env-file", nil, "dotenv files to load (default is ./.env)")
	flags.StringVarP(&opts.sourceID, "source", "s", "", "Datasource id")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose output")
	flags.String("sources-file", config.DefaultSourcesFile, "Datasource file (YAML or JSON)")
	flags.String("base-url", "", "Notify API base URL")
	flags.Bool("ledger", false, "Record submitted files in the local ledger")
	flags.String("log-format", config.DefaultLogFormat, "Log format (pretty or json)")

	// Bind flags to viper
	_ = opts.v.BindPFlag("sources_file", flags.Lookup("sources-file"))
	_ = opts.v.BindPFlag("api.base_url", flags.Lookup("base-url"))
	_ = opts.v.BindPFlag("ledger.enabled", flags.Lookup("ledger"))
	_ = opts.v.BindPFlag("logging.format", flags.Lookup("log-format"))

	rootCmd.AddCommand(
		newAddCmd(opts),
		newAddEntriesCmd(opts),
		newNotifyCmd(opts),
		newSourcesCmd(opts),
		newSubmissionsCmd(opts),
		newVersionCmd(),
	)
	return rootCmd
}

// loadApp loads the configuration and builds the application
func (o *cliOptions) loadApp(cmd *cobra.Command) (*app.App, error) {
	if err := config.LoadDotEnv(o.envFiles...); err != nil {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}
	cfg, err := config.LoadWithViper(o.v, o.cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	a, err := newApp(app.Options{
		Config:    cfg,
		Verbose:   o.verbose,
		LogOutput: cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize: %w", err)
	}
	return a, nil
}

func (o *cliOptions) requireSource() error {
	if o.sourceID == "" {
		return ErrSourceRequired
	}
	return nil
}

// signalContext returns a context cancelled on SIGINT or SIGTERM
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}

func newAddCmd(opts *cliOptions) *cobra.Command {
	var (
		addOpts  app.AddOptions
		progress bool
	)

	cmd := &cobra.Command{
		Use:   "add <file-url>...",
		Short: "Add files to the open manifest of a datasource",
		Long: `Adds each file to the newest OPEN manifest of the datasource, creating a
manifest when there is none or the newest one is full. Single-file
datasources get one notified manifest per file.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.requireSource(); err != nil {
				return err
			}
			a, err := opts.loadApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			if progress {
				addOpts.Progress = cmd.ErrOrStderr()
			}
			results, runErr := a.AddFiles(ctx, opts.sourceID, args, addOpts)

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			for _, r := range results {
				status := "added"
				switch {
				case r.Skipped:
					status = "skipped"
				case r.Err != nil:
					status = "failed"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", r.FileURL, status, r.ManifestID)
			}
			_ = w.Flush()
			return runErr
		},
	}

	cmd.Flags().BoolVar(&addOpts.SkipSubmitted, "skip-submitted", false, "Skip files already recorded in the ledger")
	cmd.Flags().BoolVar(&addOpts.ContinueOnError, "continue-on-error", false, "Keep adding files after a failure")
	cmd.Flags().BoolVar(&progress, "progress", false, "Show a progress bar on stderr")
	return cmd
}

func newAddEntriesCmd(opts *cliOptions) *cobra.Command {
	var (
		entriesFile string
		batch       int
	)

	cmd := &cobra.Command{
		Use:   "add-entries",
		Short: "Create one manifest with all entries of a file and notify it",
		Long: `Reads entries from a JSON or YAML list of {sourceFile, batch,
contentLength} objects, or from a text file with one path per line, writes
them to a new manifest in one call and notifies it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.requireSource(); err != nil {
				return err
			}
			a, err := opts.loadApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			var manifestBatch *int
			if cmd.Flags().Changed("batch") {
				manifestBatch = &batch
			}

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			m, err := a.AddEntriesFromFile(ctx, opts.sourceID, entriesFile, manifestBatch)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%d entries\n", m.ID, m.State, len(m.Entries()))
			return nil
		},
	}

	cmd.Flags().StringVarP(&entriesFile, "entries", "e", "", "Entries file")
	cmd.Flags().IntVar(&batch, "batch", 0, "Manifest batch number")
	_ = cmd.MarkFlagRequired("entries")
	return cmd
}

func newNotifyCmd(opts *cliOptions) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Notify the open manifests of a datasource",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !all {
				if err := opts.requireSource(); err != nil {
					return err
				}
			}
			a, err := opts.loadApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			var notified []*manifest.Manifest
			if all {
				notified, err = a.NotifyAll(ctx)
			} else {
				notified, err = a.Notify(ctx, opts.sourceID)
			}
			printManifests(cmd.OutOrStdout(), notified)
			return err
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Notify every datasource")
	return cmd
}

func newSourcesCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "List the configured datasources",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.loadApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSOURCE\tFORMAT\tSINGLE FILE\tMAX FILES")
			for _, src := range a.Sources() {
				maxFiles := "-"
				if n, ok := src.MaxFiles(); ok {
					maxFiles = fmt.Sprint(n)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%s\n",
					src.ID, src.Key(), src.ManifestParameters.Format, src.SingleFile(), maxFiles)
			}
			return w.Flush()
		},
	}
}

func newSubmissionsCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "submissions",
		Short: "List files recorded in the ledger for a datasource",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.requireSource(); err != nil {
				return err
			}
			a, err := opts.loadApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			subs, err := a.Submissions(cmd.Context(), opts.sourceID)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			for _, s := range subs {
				fmt.Fprintf(w, "%s\t%s\t%s\n", s.FileURL, s.ManifestID, s.SubmittedAt.Format("2006-01-02T15:04:05Z07:00"))
			}
			return w.Flush()
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.Full())
		},
	}
}

func printManifests(out io.Writer, manifests []*manifest.Manifest) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, m := range manifests {
		fmt.Fprintf(w, "%s\t%s\t%s\n", m.ID, m.Key(), m.State)
	}
	_ = w.Flush()
}
