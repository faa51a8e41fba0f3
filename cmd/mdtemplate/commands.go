package main

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/glamour"
	"github.com/nickwells/mdtemplate.mod/book"
	"github.com/nickwells/mdtemplate.mod/config"
	"github.com/nickwells/mdtemplate.mod/logging"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

type configLoader func() (*config.Config, error)

func newSupportsCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "supports RENDERER",
		Short: MsgSupportsShort,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if !cfg.Supports(args[0]) {
				return errUnsupported
			}
			return nil
		},
	}
}

func newExpandCmd(fs afero.Fs, root *string, load configLoader) *cobra.Command {
	var (
		src, out string
		check    bool
		jobs     int
	)

	cmd := &cobra.Command{
		Use:   "expand",
		Short: MsgExpandShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if check == (out != "") {
				return errors.New("exactly one of --out and --check must be given")
			}

			cfg, err := load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("jobs") {
				cfg.Jobs = jobs
			}
			if src == "" {
				if src, err = cfg.SrcDir(fs, *root); err != nil {
					return err
				}
			}

			logger := logging.GetLogger("expand")
			defer logging.LogOperationStart(logger, "expand")()

			p, err := book.NewProcessor(fs, cfg, logger)
			if err != nil {
				return err
			}
			sum, err := p.ExpandTree(cmd.Context(), src, out)
			if err != nil {
				return err
			}

			msg := MsgExpandSummary
			if check {
				msg = MsgCheckSummary
			}
			fmt.Fprintf(cmd.OutOrStdout(), msg, sum.Pages, sum.Changed)
			return nil
		},
	}

	cmd.Flags().StringVar(&src, "src", "", MsgFlagSrc)
	cmd.Flags().StringVar(&out, "out", "", MsgFlagOut)
	cmd.Flags().BoolVar(&check, "check", false, MsgFlagCheck)
	cmd.Flags().IntVarP(&jobs, "jobs", "j", 0, MsgFlagJobs)

	return cmd
}

func newRenderCmd(fs afero.Fs, load configLoader) *cobra.Command {
	var pretty bool

	cmd := &cobra.Command{
		Use:   "render PAGE",
		Short: MsgRenderShort,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}

			page := args[0]
			text, err := afero.ReadFile(fs, page)
			if err != nil {
				return fmt.Errorf("failed to read page %s: %w", page, err)
			}

			p, err := book.NewProcessor(fs, cfg, logging.GetLogger("render"))
			if err != nil {
				return err
			}
			s, err := p.ExpandPage(cmd.Context(), page, string(text))
			if err != nil {
				return err
			}

			if pretty && isTerminal(cmd.OutOrStdout()) {
				s = renderForTerminal(s)
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), s)
			return err
		},
	}

	cmd.Flags().BoolVar(&pretty, "pretty", false, MsgFlagPretty)

	return cmd
}

// renderForTerminal formats markdown for display, returning it unchanged
// if it cannot be rendered
func renderForTerminal(s string) string {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle())
	if err != nil {
		return s
	}
	out, err := r.Render(s)
	if err != nil {
		return s
	}
	return out
}

func newConfigCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: MsgConfigShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			s, err := cfg.Dump()
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), s)
			return err
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: MsgVersionShort,
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "mdtemplate version %s\n", version)
			fmt.Fprintf(w, "  commit: %s\n", commit)
			fmt.Fprintf(w, "  built:  %s\n", date)
		},
	}
}
