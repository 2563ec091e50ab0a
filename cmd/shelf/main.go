package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	flag "github.com/spf13/pflag"

	"github.com/five82/shelf/internal/app"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "shelf: %v\n", err)
		return 1
	}
	return 0
}

// globalFlags are shared by the TUI and every subcommand.
type globalFlags struct {
	configPath string
	prefsPath  string
	logLevel   string
}

func (g *globalFlags) flagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("global", flag.ContinueOnError)
	fs.StringVar(&g.configPath, "config", "", "override config path (default ~/.config/shelf/config.toml)")
	fs.StringVar(&g.prefsPath, "prefs", "", "override prefs path (default ~/.config/shelf/prefs.toml)")
	fs.StringVar(&g.logLevel, "log-level", "", "log level: debug, info, warn, error")
	return fs
}

func (g *globalFlags) options() app.Options {
	return app.Options{ConfigPath: g.configPath, PrefsPath: g.prefsPath, LogLevel: g.logLevel}
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:           "shelf",
		Short:         "Terminal console for the inventory API",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.Run(cmd.Context(), g.options())
		},
	}
	root.PersistentFlags().AddFlagSet(g.flagSet())

	root.AddCommand(
		newLoginCmd(g),
		newRegisterCmd(g),
		newLogoutCmd(g),
		newWhoamiCmd(g),
		newListCmd(g),
	)
	return root
}
