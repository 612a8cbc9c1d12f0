package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mobilenet/amaribridge/pkg/envelope"
	"github.com/mobilenet/amaribridge/pkg/log"
)

// DefaultScript is the Amari websocket client, relative to the working dir.
const DefaultScript = "./ws.js"

// Config locates the bridge script.
type Config struct {
	// WorkDir is the Amari installation the script runs in.
	WorkDir string
	// Script is the executable invoked as "<Script> <entity> <message>".
	Script string
	// Timeout bounds each call. Zero defers to the Runner.
	Timeout time.Duration
}

// Bridge sends JSON messages to Amari entities through the websocket client.
type Bridge struct {
	cfg    Config
	runner Runner
	logger log.Logger
}

// New creates a Bridge. A nil runner uses ExecRunner; a nil logger discards.
func New(cfg Config, runner Runner, logger log.Logger) *Bridge {
	if cfg.Script == "" {
		cfg.Script = DefaultScript
	}
	if runner == nil {
		runner = ExecRunner{Timeout: cfg.Timeout}
	}
	return &Bridge{
		cfg:    cfg,
		runner: runner,
		logger: log.OrNoop(logger),
	}
}

// Result is the outcome of one bridge call.
type Result struct {
	Entity string
	// Envelope is set when the process exited 0.
	Envelope envelope.Envelope
	// Process is set when the process failed; the envelope is then unused.
	Process *ProcessError
}

// Succeeded reports a zero exit with a well-formed, error-free payload.
func (r Result) Succeeded() bool {
	return r.Process == nil && r.Envelope.Succeeded()
}

// Response is the decoded payload, or nil after a process failure.
func (r Result) Response() map[string]any {
	if r.Process != nil {
		return nil
	}
	return r.Envelope.Payload
}

// Err classifies a failed call: *ProcessError, *DomainError, or an error
// wrapping envelope.ErrMalformed. It is nil on success.
func (r Result) Err() error {
	switch {
	case r.Process != nil:
		return r.Process
	case r.Envelope.Status == envelope.StatusDomainError:
		return &DomainError{Entity: r.Entity, Message: r.Envelope.DomainError()}
	case r.Envelope.Status == envelope.StatusMalformed:
		return fmt.Errorf("%w: %s", envelope.ErrMalformed, r.Envelope.DomainError())
	default:
		return nil
	}
}

// MarshalJSON renders {"status": <bool>, "response": <payload>} for a call
// that ran, and {"status": 500, "response": null, "error": <stderr>} for a
// process failure.
func (r Result) MarshalJSON() ([]byte, error) {
	if r.Process != nil {
		return json.Marshal(struct {
			Status   int    `json:"status"`
			Response any    `json:"response"`
			Error    string `json:"error"`
		}{http.StatusInternalServerError, nil, processDescription(r.Process)})
	}
	return json.Marshal(struct {
		Status   bool           `json:"status"`
		Response map[string]any `json:"response"`
	}{r.Envelope.Succeeded(), r.Envelope.Payload})
}

// Call sends message to entity and waits for the script to exit. It never
// returns an error; failures are classified in the Result.
func (b *Bridge) Call(ctx context.Context, entity string, message any) Result {
	res := Result{Entity: entity}

	payload, err := json.Marshal(message)
	if err != nil {
		res.Process = &ProcessError{ExitCode: -1, Cause: fmt.Errorf("encode message: %w", err)}
		b.logger.Error("encode message failed", log.Entity(entity), log.Err(err))
		return res
	}

	cmd := Command{
		Binary:  b.cfg.Script,
		Args:    []string{entity, string(payload)},
		Dir:     b.cfg.WorkDir,
		Timeout: b.cfg.Timeout,
	}
	b.logger.Info("executing command", log.Entity(entity), log.String("command", cmd.String()))

	out, err := b.runner.Run(ctx, cmd)
	if err != nil || out.ExitCode != 0 {
		res.Process = &ProcessError{
			ExitCode: out.ExitCode,
			Stderr:   out.Stderr,
			Killed:   out.Killed,
			Cause:    err,
		}
		b.logger.Warn("command failed",
			log.Entity(entity),
			log.Int("exit_code", out.ExitCode),
			log.Bool("killed", out.Killed),
			log.Err(res.Process))
		return res
	}

	env, err := envelope.Parse(out.Stdout)
	if err != nil {
		b.logger.Error("parse response failed", log.Entity(entity), log.Err(err))
	} else if !env.Succeeded() {
		b.logger.Warn("entity reported an error", log.Entity(entity), log.String("error", env.DomainError()))
	} else {
		b.logger.Debug("command succeeded", log.Entity(entity), log.Duration("took", out.Duration))
	}
	res.Envelope = env
	return res
}

// processDescription prefers captured stderr and falls back to the cause.
func processDescription(p *ProcessError) string {
	if s := strings.TrimSpace(p.Stderr); s != "" {
		return p.Stderr
	}
	return p.Error()
}
