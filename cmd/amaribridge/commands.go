package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mobilenet/amaribridge/internal/cliconfig"
	"github.com/mobilenet/amaribridge/internal/collector"
	"github.com/mobilenet/amaribridge/pkg/bridge"
	"github.com/mobilenet/amaribridge/pkg/decode"
	"github.com/mobilenet/amaribridge/pkg/enb"
	"github.com/mobilenet/amaribridge/pkg/extract"
	"github.com/mobilenet/amaribridge/pkg/log"
	"github.com/mobilenet/amaribridge/pkg/probe"
)

// intArg reads operator input such as "0x1A", "-10dB" or ">=3".
func intArg(name, s string) (int, error) {
	n, ok := decode.ParseInt(s)
	if !ok {
		return 0, fmt.Errorf("%s: %q is not a number", name, s)
	}
	return int(n), nil
}

// printResult prints res and turns a failed call into a non-zero exit.
func (a *app) printResult(res bridge.Result) error {
	if err := a.print(res); err != nil {
		return err
	}
	return res.Err()
}

func (a *app) printRequest(res bridge.Result, err error) error {
	if err != nil {
		return err
	}
	return a.printResult(res)
}

func newCallCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "call <entity> <json-message>",
		Short: "Send an arbitrary JSON message to an entity",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var msg map[string]any
			if err := json.Unmarshal([]byte(args[1]), &msg); err != nil {
				return fmt.Errorf("message must be a JSON object: %w", err)
			}
			ctx, cancel := signalContext()
			defer cancel()
			return a.printResult(a.client().Send(ctx, args[0], msg))
		},
	}
}

func newENBCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "enb",
		Short: "eNB/gNB operations",
	}

	run := func(fn func(ctx context.Context, c *enb.Client) error) func(*cobra.Command, []string) error {
		return func(*cobra.Command, []string) error {
			ctx, cancel := signalContext()
			defer cancel()
			return fn(ctx, a.client())
		}
	}

	getConfig := &cobra.Command{
		Use:   "get-config",
		Short: "Print the running configuration",
		Args:  cobra.NoArgs,
		RunE: run(func(ctx context.Context, c *enb.Client) error {
			return a.printResult(c.GetConfig(ctx))
		}),
	}

	var gain, cellID string
	setGain := &cobra.Command{
		Use:   "set-gain",
		Short: "Set the TX gain of a cell (dB, >= -30)",
		Args:  cobra.NoArgs,
		RunE: run(func(ctx context.Context, c *enb.Client) error {
			g, err := intArg("gain", gain)
			if err != nil {
				return err
			}
			req := enb.NewCellGain(g)
			if req.CellID, err = intArg("cell-id", cellID); err != nil {
				return err
			}
			return a.printRequest(c.SetGain(ctx, req))
		}),
	}
	setGain.Flags().StringVar(&gain, "gain", "0", "gain in dB")
	setGain.Flags().StringVar(&cellID, "cell-id", "1", "cell identifier")

	var noise float64
	var channel string
	setNoise := &cobra.Command{
		Use:   "set-noise",
		Short: "Set the simulated noise level (channel simulator only)",
		Args:  cobra.NoArgs,
		RunE: run(func(ctx context.Context, c *enb.Client) error {
			req := enb.NewNoiseLevel(noise)
			if channel != "" {
				ch, err := intArg("channel", channel)
				if err != nil {
					return err
				}
				req.Channel = &ch
			}
			return a.printRequest(c.SetNoiseLevel(ctx, req))
		}),
	}
	setNoise.Flags().Float64Var(&noise, "level", 0, "noise level in dB")
	setNoise.Flags().StringVar(&channel, "channel", "", "channel index")

	var cell string
	cellFlag := func(c *cobra.Command) {
		c.Flags().StringVar(&cell, "cell", "1", "cell identifier")
	}
	cellNumber := func() (int, error) { return intArg("cell", cell) }

	var timer int
	setTimer := &cobra.Command{
		Use:   "set-inactivity-timer",
		Short: "Set the inactivity timer of a cell (ms)",
		Args:  cobra.NoArgs,
		RunE: run(func(ctx context.Context, c *enb.Client) error {
			id, err := cellNumber()
			if err != nil {
				return err
			}
			return a.printRequest(c.SetInactivityTimer(ctx, map[int]enb.Timer{id: {InactivityTimer: timer}}))
		}),
	}
	cellFlag(setTimer)
	setTimer.Flags().IntVar(&timer, "timer", 10000, "inactivity timer in ms")

	prb := enb.DefaultPRB()
	setPRB := &cobra.Command{
		Use:   "set-dl-prb",
		Short: "Fix the downlink PRB allocation of a cell",
		Args:  cobra.NoArgs,
		RunE: run(func(ctx context.Context, c *enb.Client) error {
			id, err := cellNumber()
			if err != nil {
				return err
			}
			return a.printRequest(c.SetDLPRB(ctx, map[int]enb.PRB{id: prb}))
		}),
	}
	cellFlag(setPRB)
	setPRB.Flags().IntVar(&prb.LCRB, "l-crb", prb.LCRB, "number of PRBs (1..106)")
	setPRB.Flags().IntVar(&prb.RBStart, "rb-start", prb.RBStart, "first PRB")
	setPRB.Flags().BoolVar(&prb.Fixed, "fixed", prb.Fixed, "use a fixed allocation")

	var mcs int
	setDLMCS := &cobra.Command{
		Use:   "set-dl-mcs",
		Short: "Fix the downlink MCS of a cell (0..28)",
		Args:  cobra.NoArgs,
		RunE: run(func(ctx context.Context, c *enb.Client) error {
			id, err := cellNumber()
			if err != nil {
				return err
			}
			return a.printRequest(c.SetDLMCS(ctx, map[int]enb.DLMCS{id: {PDSCHMCS: mcs}}))
		}),
	}
	cellFlag(setDLMCS)
	setDLMCS.Flags().IntVar(&mcs, "mcs", 0, "MCS index")

	setULMCS := &cobra.Command{
		Use:   "set-ul-mcs",
		Short: "Fix the uplink MCS of a cell (0..28)",
		Args:  cobra.NoArgs,
		RunE: run(func(ctx context.Context, c *enb.Client) error {
			id, err := cellNumber()
			if err != nil {
				return err
			}
			return a.printRequest(c.SetULMCS(ctx, map[int]enb.ULMCS{id: {PUSCHMCS: mcs}}))
		}),
	}
	cellFlag(setULMCS)
	setULMCS.Flags().IntVar(&mcs, "mcs", 0, "MCS index")

	statsReq := enb.NewStats()
	stats := &cobra.Command{
		Use:   "stats",
		Short: "Print cell statistics",
		Args:  cobra.NoArgs,
		RunE: run(func(ctx context.Context, c *enb.Client) error {
			return a.printRequest(c.Stats(ctx, statsReq))
		}),
	}
	stats.Flags().BoolVar(&statsReq.Samples, "samples", statsReq.Samples, "include sample statistics")
	stats.Flags().BoolVar(&statsReq.RF, "rf", statsReq.RF, "include RF statistics")
	stats.Flags().Float64Var(&statsReq.InitialDelay, "initial-delay", statsReq.InitialDelay, "delay before the first sample (s)")

	var ueID string
	var ueStatsFlag bool
	ueStats := &cobra.Command{
		Use:   "ue-stats",
		Short: "Print connected UEs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signalContext()
			defer cancel()
			req := enb.NewUEStats()
			if ueID != "" {
				id, err := intArg("ue-id", ueID)
				if err != nil {
					return err
				}
				req.UEID = &id
			}
			if cmd.Flags().Changed("stats") {
				req.Stats = &ueStatsFlag
			}
			return a.printRequest(a.client().UEStats(ctx, req))
		},
	}
	ueStats.Flags().StringVar(&ueID, "ue-id", "", "only this UE (decimal or hex)")
	ueStats.Flags().BoolVar(&ueStatsFlag, "stats", false, "include per-UE statistics")

	cmd.AddCommand(getConfig, setGain, setNoise, setTimer, setPRB, setDLMCS, setULMCS, stats, ueStats)
	return cmd
}

func newPDSCHCommand(a *app) *cobra.Command {
	var (
		discardSI  bool
		allowEmpty bool
		channels   []string
		minLogs    int
		maxLogs    int
		timeout    float64
	)
	cmd := &cobra.Command{
		Use:   "pdsch",
		Short: "Fetch buffered logs and decode PDSCH allocations per timestamp",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := enb.NewPDSCHLog(discardSI)
			if cmd.Flags().Changed("min") {
				req.Min = &minLogs
			}
			if cmd.Flags().Changed("max") {
				req.Max = &maxLogs
			}
			if cmd.Flags().Changed("timeout") {
				req.Timeout = &timeout
			}
			if cmd.Flags().Changed("allow-empty") {
				req.AllowEmpty = &allowEmpty
			}

			ctx, cancel := signalContext()
			defer cancel()
			res, err := a.client().ChannelStats(ctx, req, channels...)
			if err != nil {
				return err
			}
			return a.print(res)
		},
	}
	cmd.Flags().BoolVar(&discardSI, "discard-si", false, "drop system-information broadcasts")
	cmd.Flags().StringSliceVar(&channels, "channel", []string{extract.ChannelPDSCH}, "log channels to decode")
	cmd.Flags().IntVar(&minLogs, "min", 0, "minimum number of log entries to wait for")
	cmd.Flags().IntVar(&maxLogs, "max", 0, "maximum number of log entries")
	cmd.Flags().Float64Var(&timeout, "timeout", 0, "server-side wait in seconds")
	cmd.Flags().BoolVar(&allowEmpty, "allow-empty", false, "return even when no entries are buffered")
	return cmd
}

func newServiceCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:       "service <start|stop|restart|status>",
		Short:     "Control the LTE service",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{bridge.ActionStart, bridge.ActionStop, bridge.ActionRestart, bridge.ActionStatus},
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := bridge.NewServiceControl(a.cfg.ServiceCommand, a.cfg.AmariPath,
				bridge.ExecRunner{Timeout: a.cfg.CommandTimeout}, a.logger)
			if err != nil {
				return err
			}
			ctx, cancel := signalContext()
			defer cancel()
			res, err := sc.Run(ctx, args[0])
			if err != nil {
				return err
			}
			if err := a.print(res); err != nil {
				return err
			}
			if !res.OK() {
				return fmt.Errorf("service %s failed", args[0])
			}
			return nil
		},
	}
}

func newPingCommand(a *app) *cobra.Command {
	var (
		method string
		data   string
	)
	cmd := &cobra.Command{
		Use:   "ping [resource]",
		Short: "Send a request to the management host",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t := probe.Target{
				Host:    a.cfg.ManagementHost,
				Port:    a.cfg.ManagementPort,
				Method:  strings.ToUpper(method),
				Timeout: a.cfg.HTTPTimeout,
			}
			if len(args) == 1 {
				t.Resource = args[0]
			}
			if data != "" {
				var body any
				if err := json.Unmarshal([]byte(data), &body); err != nil {
					return fmt.Errorf("data must be JSON: %w", err)
				}
				t.Body = body
			}

			ctx, cancel := signalContext()
			defer cancel()
			p := probe.New(&http.Client{Timeout: a.cfg.HTTPTimeout}, a.logger)
			resp, err := p.Do(ctx, t)
			if err != nil {
				return err
			}
			if err := a.print(resp); err != nil {
				return err
			}
			if !resp.OK() {
				return fmt.Errorf("%s: %d %s", t.URL(), resp.Status, resp.Reason)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&method, "method", http.MethodGet, "GET or POST")
	cmd.Flags().StringVar(&data, "data", "", "JSON body for POST")
	return cmd
}

func newCollectCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Collect stats from every entity into snapshot files",
		Long: `Collect sends a stats request to every configured entity on an interval and
writes each round to <data-dir>/<YYYY-MM-DD>/Stats_<unix>.json. The config
file is watched and the interval and entity list are reloaded on change.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.collect()
		},
	}
	cmd.Flags().BoolVar(&a.cfg.Once, "once", a.cfg.Once, "collect one round and exit")
	cmd.Flags().Int64Var(&a.cfg.MaxDataBytes, "max-data-bytes", a.cfg.MaxDataBytes, "prune the oldest snapshots above this size (0 disables)")
	return cmd
}

func (a *app) collect() error {
	store := collector.NewSnapshotStore(a.cfg.DataDir)
	c := collector.New(collector.Config{
		Interval:  a.cfg.CollectInterval,
		Entities:  a.cfg.Entities,
		Limit:     a.cfg.Limit,
		Retention: collector.NewRetention(a.cfg.MaxDataBytes),
	}, a.bridge(), store, a.logger)

	ctx, cancel := signalContext()
	defer cancel()

	if a.cfg.Once {
		path, err := c.Collect(ctx)
		if path != "" {
			if perr := a.print(map[string]string{"snapshot": path}); perr != nil {
				return perr
			}
		}
		return err
	}

	if err := c.Start(ctx); err != nil {
		return fmt.Errorf("start collector: %w", err)
	}

	watchDone := make(chan struct{})
	if path := a.configFile(); path != "" {
		w := collector.NewWatcher(path, 0, func() { a.reload(c, path) }, a.logger)
		go func() {
			defer close(watchDone)
			if err := w.Run(ctx); err != nil {
				a.logger.Warn("config watcher stopped", log.Err(err))
			}
		}()
	} else {
		close(watchDone)
	}

	<-ctx.Done()
	a.logger.Info("received signal, stopping...")
	<-watchDone

	stopCtx, stopCancel := context.WithTimeout(context.Background(), collector.ShutdownTimeout)
	defer stopCancel()
	if err := c.Stop(stopCtx); err != nil {
		return fmt.Errorf("stop collector: %w", err)
	}
	return a.print(c.Status())
}

// reload re-reads the config file; explicitly set flags keep their values.
func (a *app) reload(c *collector.Collector, path string) {
	next := a.cfg
	if err := cliconfig.Load(&next, path, a.changed); err != nil {
		a.logger.Error("reload config failed", log.String("path", path), log.Err(err))
		return
	}
	c.Reload(next.CollectInterval, next.Entities)
}
