// Package collector periodically gathers stats from the base-station
// entities and keeps them as snapshot files.
package collector

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mobilenet/amaribridge/pkg/bridge"
	"github.com/mobilenet/amaribridge/pkg/dispatch"
	"github.com/mobilenet/amaribridge/pkg/enb"
	"github.com/mobilenet/amaribridge/pkg/log"
)

// DefaultInterval is used when Config.Interval is not set.
const DefaultInterval = time.Minute

// Config controls a Collector.
type Config struct {
	Interval       time.Duration
	Entities       []string
	Limit          int
	Request        enb.Stats
	BackoffInitial time.Duration
	BackoffMax     time.Duration
	Retention      Retention
	Listener       StateListener
}

// Status is a point-in-time view of a Collector.
type Status struct {
	State     State         `json:"-"`
	StateName string        `json:"state"`
	Interval  time.Duration `json:"interval"`
	Entities  []string      `json:"entities"`
	Rounds    int           `json:"rounds"`
	Failures  int           `json:"consecutive_failures"`
	LastPath  string        `json:"last_snapshot,omitempty"`
	LastError string        `json:"last_error,omitempty"`
	LastRound time.Time     `json:"last_round,omitzero"`
}

// Collector fans a stats request out to its entities on an interval and
// writes each round to a SnapshotStore.
type Collector struct {
	caller dispatch.Caller
	store  *SnapshotStore
	logger log.Logger
	lc     *lifecycle
	now    func() time.Time

	mu       sync.Mutex
	interval time.Duration
	entities []string
	limit    int
	request  enb.Stats
	boInit   time.Duration
	boMax    time.Duration
	keep     Retention
	rounds   int
	failures int
	lastPath string
	lastErr  error
	lastAt   time.Time
	reload   chan struct{}
}

// New creates a stopped Collector.
func New(cfg Config, caller dispatch.Caller, store *SnapshotStore, logger log.Logger) *Collector {
	logger = log.OrNoop(logger)
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Request.Message == "" {
		cfg.Request = enb.NewStats()
	}
	if cfg.BackoffInitial <= 0 {
		cfg.BackoffInitial = DefaultBackoffInitial
	}
	if cfg.BackoffMax <= 0 {
		cfg.BackoffMax = DefaultBackoffMax
	}
	return &Collector{
		caller:   caller,
		store:    store,
		logger:   logger,
		lc:       newLifecycle(logger, cfg.Listener),
		now:      time.Now,
		interval: cfg.Interval,
		entities: append([]string(nil), cfg.Entities...),
		limit:    cfg.Limit,
		request:  cfg.Request,
		boInit:   cfg.BackoffInitial,
		boMax:    cfg.BackoffMax,
		keep:     cfg.Retention,
		reload:   make(chan struct{}, 1),
	}
}

// Collect runs one round: the stats request goes to every entity and the
// results are saved as one snapshot, failures included. It returns the
// snapshot path. The error wraps ErrAllFailed when no entity answered
// successfully.
func (c *Collector) Collect(ctx context.Context) (string, error) {
	c.mu.Lock()
	entities := append([]string(nil), c.entities...)
	req, limit := c.request, c.limit
	c.mu.Unlock()

	if len(entities) == 0 {
		return "", ErrNoEntities
	}
	if err := req.Validate(); err != nil {
		return "", err
	}

	at, round := c.now(), uuid.NewString()
	c.logger.Debug("collection round started", log.String("round", round), log.Strings("entities", entities))
	results := dispatch.Broadcast(ctx, c.caller, entities, req, limit)
	if prev := c.store.PathFor(at); fileExists(prev) {
		c.logger.Warn("replacing snapshot from the same second", log.String("path", prev))
	}
	path, err := c.store.Save(ctx, Snapshot{Round: round, CapturedAt: at, Entities: results})
	if err != nil {
		c.record(at, "", err)
		return "", err
	}

	if _, perr := c.store.Prune(ctx, c.keep, at, c.logger); perr != nil {
		c.logger.Warn("snapshot cleanup failed", log.Err(perr))
	}

	err = roundError(results)
	c.record(at, path, err)
	if err != nil {
		c.logger.Warn("collection round failed", log.String("round", round), log.String("path", path), log.Err(err))
	} else {
		c.logger.Info("collection round saved", log.String("round", round), log.String("path", path), log.Int("entities", len(entities)))
	}
	return path, err
}

func roundError(results map[string]bridge.Result) error {
	var first error
	for _, res := range results {
		if res.Succeeded() {
			return nil
		}
		if first == nil {
			first = res.Err()
		}
	}
	if first == nil {
		return ErrAllFailed
	}
	return fmt.Errorf("%w: %w", ErrAllFailed, first)
}

func (c *Collector) record(at time.Time, path string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rounds++
	c.lastAt = at
	c.lastErr = err
	if path != "" {
		c.lastPath = path
	}
	if err != nil {
		c.failures++
	} else {
		c.failures = 0
	}
}

// Start launches the collection loop. The first round runs immediately.
func (c *Collector) Start(ctx context.Context) error {
	if err := c.lc.transitionTo(StateStarting, "start requested"); err != nil {
		return err
	}

	loopCtx, cancel := context.WithCancel(ctx)
	c.lc.setCancel(cancel)

	c.lc.wg.Add(1)
	go c.loop(loopCtx)

	return c.lc.transitionTo(StateRunning, "collection loop started")
}

// Stop cancels the loop and waits for it to exit.
func (c *Collector) Stop(ctx context.Context) error {
	if err := c.lc.transitionTo(StateStopping, "stop requested"); err != nil {
		return ErrNotRunning
	}
	c.lc.doCancel()

	timeout := ShutdownTimeout
	if dl, ok := ctx.Deadline(); ok {
		timeout = time.Until(dl)
	}
	if err := c.lc.waitWithTimeout(timeout); err != nil {
		_ = c.lc.transitionTo(StateCrashed, err.Error())
		return err
	}
	return c.lc.transitionTo(StateStopped, "collection loop exited")
}

// Reload replaces the interval and entity list. A running loop picks the
// new values up at its next wait.
func (c *Collector) Reload(interval time.Duration, entities []string) {
	c.mu.Lock()
	if interval > 0 {
		c.interval = interval
	}
	if entities != nil {
		c.entities = append([]string(nil), entities...)
	}
	c.mu.Unlock()

	c.logger.Info("collector reloaded", log.Duration("interval", interval), log.Strings("entities", entities))
	select {
	case c.reload <- struct{}{}:
	default:
	}
}

// Status reports the current state and counters.
func (c *Collector) Status() Status {
	st := c.lc.State()
	c.mu.Lock()
	defer c.mu.Unlock()
	s := Status{
		State:     st,
		StateName: st.String(),
		Interval:  c.interval,
		Entities:  append([]string(nil), c.entities...),
		Rounds:    c.rounds,
		Failures:  c.failures,
		LastPath:  c.lastPath,
		LastRound: c.lastAt,
	}
	if c.lastErr != nil {
		s.LastError = c.lastErr.Error()
	}
	return s
}

func (c *Collector) loop(ctx context.Context) {
	defer c.lc.wg.Done()

	c.mu.Lock()
	bo := newBackoff(c.boInit, c.boMax)
	c.mu.Unlock()

	for {
		_, err := c.Collect(ctx)
		if ctx.Err() != nil {
			return
		}

		c.mu.Lock()
		wait := c.interval
		c.mu.Unlock()
		if err != nil {
			wait += bo.Next()
		} else {
			bo.Reset()
		}

		if !c.wait(ctx, wait) {
			return
		}
	}
}

// wait blocks for d, restarting with the current interval whenever a reload
// arrives. It returns false when ctx is done.
func (c *Collector) wait(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return false
		case <-timer.C:
			return true
		case <-c.reload:
			c.mu.Lock()
			d = c.interval
			c.mu.Unlock()
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(d)
		}
	}
}
