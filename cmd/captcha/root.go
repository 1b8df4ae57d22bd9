package main

import (
	"github.com/spf13/cobra"

	"github.com/leeforge/multicaptcha/logging"
)

// app 由 PersistentPreRunE 填充，子命令共享
type app struct {
	configDir string
	verbose   bool

	cfg    AppConfig
	logger logging.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "captcha",
		Short:         "Generate and serve distorted text and arithmetic captchas",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
			return logging.CloseAllWriters()
		},
	}

	root.PersistentFlags().StringVarP(&a.configDir, "config", "c", "", "config directory (default $CONFIG_PATH or ./config)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newRenderCmd(a))
	root.AddCommand(newServeCmd(a))
	return root
}

func (a *app) init() error {
	cfg, err := loadConfig(a.configDir)
	if err != nil {
		return err
	}
	if a.verbose {
		cfg.Logging.Level = "debug"
	}

	a.cfg = cfg
	a.logger = logging.Init(cfg.Logging)
	return nil
}
