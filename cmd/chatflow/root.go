package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/chatflow"
	"github.com/aretw0/chatflow/internal/config"
	"github.com/aretw0/chatflow/internal/logging"
)

// state is shared by every subcommand once the root pre-run has loaded it.
type state struct {
	configPath string
	logLevel   string
	logFormat  string

	cfg    *config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	st := &state{}
	root := &cobra.Command{
		Use:     "chatflow",
		Short:   "chatflow runs WhatsApp conversation flows authored as graphs",
		Long:    `chatflow stores conversation graphs, routes inbound messages to them by trigger keyword and walks each conversation through its flow.`,
		Version: chatflow.Version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return st.load()
		},
		SilenceUsage: true,
	}
	root.SetVersionTemplate(`{{printf "chatflow version %s\n" .Version}}`)

	flags := root.PersistentFlags()
	flags.StringVarP(&st.configPath, "config", "c", "", "config file (default is ./chatflow.yaml)")
	flags.StringVar(&st.logLevel, "log-level", "", "log level: debug, info, warn, error (overrides log.level)")
	flags.StringVar(&st.logFormat, "log-format", "", "log format: text or json (overrides log.format)")

	root.AddCommand(
		newServeCmd(st),
		newValidateCmd(st),
		newGraphCmd(st),
		newDescribeCmd(st),
		newSimulateCmd(st),
		newVersionCmd(),
	)
	return root
}

func (st *state) load() error {
	cfg, err := config.Load(st.configPath)
	if err != nil {
		return err
	}
	if st.logLevel != "" {
		cfg.Log.Level = st.logLevel
	}
	if st.logFormat != "" {
		cfg.Log.Format = st.logFormat
	}

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	format, err := logging.ParseFormat(cfg.Log.Format)
	if err != nil {
		return err
	}
	st.cfg = cfg
	st.logger = logging.New(level, format)
	return nil
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
