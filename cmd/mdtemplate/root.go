package main

import (
	"errors"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/nickwells/mdtemplate.mod/book"
	"github.com/nickwells/mdtemplate.mod/config"
	"github.com/nickwells/mdtemplate.mod/logging"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// Set at build time
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// errUnsupported is returned by the supports command for a renderer this
// preprocessor does not handle. mdbook only looks at the exit status.
var errUnsupported = errors.New("renderer not supported")

// NewRootCmd creates the root command. Pages and templates are read from
// fs.
func NewRootCmd(fs afero.Fs) *cobra.Command {
	var (
		verbosity int
		root      string
	)

	rootCmd := &cobra.Command{
		Use:     "mdtemplate",
		Short:   MsgRootShort,
		Long:    MsgRootLong,
		Version: version,
		Args:    cobra.NoArgs,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetupLogger(verbosity, cmd.ErrOrStderr(), !isTerminal(cmd.ErrOrStderr()))
			log.Debug().Str("command", cmd.Name()).Msg("Command started")
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.GetLogger("preprocessor")
			defer logging.LogOperationStart(logger, "preprocess")()

			return book.RunPreprocessor(cmd.Context(), fs,
				cmd.InOrStdin(), cmd.OutOrStdout(), logger)
		},
		SilenceUsage:      true,
		SilenceErrors:     true,
		DisableAutoGenTag: true,
	}

	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", MsgFlagVerbose)
	rootCmd.PersistentFlags().StringVar(&root, "root", ".", MsgFlagRoot)

	loadConfig := func() (*config.Config, error) {
		return config.Load(config.LoadOptions{Root: root, FS: fs})
	}

	rootCmd.AddCommand(
		newSupportsCmd(loadConfig),
		newExpandCmd(fs, &root, loadConfig),
		newRenderCmd(fs, loadConfig),
		newConfigCmd(loadConfig),
		newVersionCmd(),
	)

	return rootCmd
}

// isTerminal reports whether w is a terminal
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
