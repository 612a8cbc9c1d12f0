package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/mobilenet/amaribridge/internal/cliconfig"
	"github.com/mobilenet/amaribridge/pkg/bridge"
	"github.com/mobilenet/amaribridge/pkg/enb"
	"github.com/mobilenet/amaribridge/pkg/log"
)

const helpDescription = `
Drive an Amari LTE/5G stack from the command line.

Every request is sent through the remote-API script (ws.js) of the Amari
installation. Answers are printed as JSON or YAML; PDSCH logs are decoded
into per-timestamp records.

Configuration is read from $HOME/.amaribridge/config.toml, then AMARIBRIDGE_*
environment variables, then flags.
`

var exampleUsage = strings.TrimSpace(`
  amaribridge enb stats
  amaribridge enb set-gain --gain -10 --cell-id 1
  amaribridge pdsch --discard-si -o yaml
  amaribridge call enb '{"message":"config_get"}'
  amaribridge collect --interval 30s --entities enb,mme
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

// app carries resolved configuration and shared dependencies to subcommands.
type app struct {
	cfg     cliconfig.Config
	cfgPath string
	changed map[string]bool
	zl      zerolog.Logger
	logger  log.Logger
	out     io.Writer
}

func (a *app) bridge() *bridge.Bridge {
	return bridge.New(bridge.Config{
		WorkDir: a.cfg.AmariPath,
		Script:  a.cfg.Script,
		Timeout: a.cfg.CommandTimeout,
	}, nil, a.logger)
}

func (a *app) client() *enb.Client {
	return enb.NewClient(a.bridge(), a.logger)
}

// configFile returns the config file in effect, or "" when there is none.
func (a *app) configFile() string {
	p := a.cfgPath
	if p == "" {
		p = cliconfig.DefaultConfigPath()
	}
	if p == "" || !cliconfig.FileExists(p) {
		return ""
	}
	return p
}

// signalContext is canceled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		defer signal.Stop(sigCh)
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "amaribridge",
		Short:         "Command bridge and log extractor for Amari base stations",
		Long:          strings.TrimSpace(helpDescription),
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Build set of changed flags
			a.changed = map[string]bool{}
			cmd.Flags().Visit(func(f *pflag.Flag) { a.changed[f.Name] = true })

			if err := cliconfig.Load(&a.cfg, a.configFile(), a.changed); err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			a.zl = cliconfig.Logger(a.cfg.LogLevel)
			a.logger = log.NewZerologAdapter(a.zl)
			a.zl.Debug().Interface("config", a.cfg).Msg("configuration")
			return nil
		},
	}

	f := root.PersistentFlags()
	f.StringVar(&a.cfgPath, "config", "", "path to config file (default: $HOME/.amaribridge/config.toml)")
	f.StringVar(&a.cfg.AmariPath, "amari-path", a.cfg.AmariPath, "Amari installation directory holding the remote-API script")
	f.StringVar(&a.cfg.Script, "script", a.cfg.Script, "remote-API script, relative to amari-path")
	f.DurationVar(&a.cfg.CommandTimeout, "command-timeout", a.cfg.CommandTimeout, "kill the script after this long")
	f.StringSliceVar(&a.cfg.ServiceCommand, "service-command", a.cfg.ServiceCommand, "command controlling the LTE service; the action is appended")
	f.StringVar(&a.cfg.ManagementHost, "host", a.cfg.ManagementHost, "management host address")
	f.IntVar(&a.cfg.ManagementPort, "port", a.cfg.ManagementPort, "management host port")
	f.DurationVar(&a.cfg.HTTPTimeout, "http-timeout", a.cfg.HTTPTimeout, "HTTP timeout for the management host")
	f.StringVar(&a.cfg.DataDir, "data-dir", a.cfg.DataDir, "directory for stats snapshots")
	f.DurationVar(&a.cfg.CollectInterval, "interval", a.cfg.CollectInterval, "collection interval")
	f.StringSliceVar(&a.cfg.Entities, "entities", a.cfg.Entities, "entities to collect stats from")
	f.IntVar(&a.cfg.Limit, "limit", a.cfg.Limit, "maximum concurrent script invocations")
	f.StringVarP(&a.cfg.Output, "output", "o", a.cfg.Output, "output format: json or yaml")
	f.StringVar(&a.cfg.LogLevel, "log-level", a.cfg.LogLevel, "log level: debug, info, warn, error")

	root.AddCommand(
		newCallCommand(a),
		newENBCommand(a),
		newPDSCHCommand(a),
		newServiceCommand(a),
		newPingCommand(a),
		newCollectCommand(a),
	)
	return root
}

func main() {
	a := &app{cfg: cliconfig.DefaultConfig(), out: os.Stdout}
	a.zl = cliconfig.Logger(a.cfg.LogLevel)
	a.logger = log.NewZerologAdapter(a.zl)

	if err := newRootCommand(a).Execute(); err != nil {
		a.zl.Error().Err(err).Msg("amaribridge")
		os.Exit(1)
	}
}
