package enb

import (
	"context"
	"fmt"

	"github.com/mobilenet/amaribridge/pkg/bridge"
	"github.com/mobilenet/amaribridge/pkg/extract"
	"github.com/mobilenet/amaribridge/pkg/log"
)

// Caller sends one message to one entity. *bridge.Bridge satisfies it.
type Caller interface {
	Call(ctx context.Context, entity string, message any) bridge.Result
}

// Client issues typed eNB requests.
type Client struct {
	caller Caller
	logger log.Logger
}

// NewClient creates a Client. A nil logger discards.
func NewClient(caller Caller, logger log.Logger) *Client {
	return &Client{caller: caller, logger: log.OrNoop(logger)}
}

// Send passes an arbitrary message to entity unchanged.
func (c *Client) Send(ctx context.Context, entity string, message map[string]any) bridge.Result {
	return c.caller.Call(ctx, entity, message)
}

// GetConfig returns the running eNB configuration.
func (c *Client) GetConfig(ctx context.Context) bridge.Result {
	return c.caller.Call(ctx, EntityENB, map[string]string{"message": MessageConfigGet})
}

// SetGain changes the TX gain of a cell.
func (c *Client) SetGain(ctx context.Context, r CellGain) (bridge.Result, error) {
	r.Message = MessageCellGain
	return c.send(ctx, r)
}

// SetNoiseLevel changes the simulated noise level.
func (c *Client) SetNoiseLevel(ctx context.Context, r NoiseLevel) (bridge.Result, error) {
	r.Message = MessageNoiseLevel
	return c.send(ctx, r)
}

// SetInactivityTimer changes the per-cell inactivity timer.
func (c *Client) SetInactivityTimer(ctx context.Context, cells map[int]Timer) (bridge.Result, error) {
	return c.send(ctx, newCellConfig(cells))
}

// SetDLPRB changes the fixed downlink PRB allocation per cell.
func (c *Client) SetDLPRB(ctx context.Context, cells map[int]PRB) (bridge.Result, error) {
	return c.send(ctx, newCellConfig(cells))
}

// SetDLMCS fixes the downlink MCS per cell.
func (c *Client) SetDLMCS(ctx context.Context, cells map[int]DLMCS) (bridge.Result, error) {
	return c.send(ctx, newCellConfig(cells))
}

// SetULMCS fixes the uplink MCS per cell.
func (c *Client) SetULMCS(ctx context.Context, cells map[int]ULMCS) (bridge.Result, error) {
	return c.send(ctx, newCellConfig(cells))
}

// Stats fetches cell statistics.
func (c *Client) Stats(ctx context.Context, r Stats) (bridge.Result, error) {
	r.Message = MessageStats
	return c.send(ctx, r)
}

// UEStats fetches UE statistics.
func (c *Client) UEStats(ctx context.Context, r UEStats) (bridge.Result, error) {
	r.Message = MessageUEGet
	return c.send(ctx, r)
}

// PDSCHStats fetches buffered logs and decodes the PDSCH allocations.
func (c *Client) PDSCHStats(ctx context.Context, r PDSCHLog) (extract.Result, error) {
	return c.ChannelStats(ctx, r, extract.ChannelPDSCH)
}

// ChannelStats fetches buffered logs and decodes the entries of the given
// channels into one result.
func (c *Client) ChannelStats(ctx context.Context, r PDSCHLog, channels ...string) (extract.Result, error) {
	r.Message = MessageLogGet
	res, err := c.send(ctx, r)
	if err != nil {
		return nil, err
	}
	if err := res.Err(); err != nil {
		return nil, fmt.Errorf("log_get: %w", err)
	}
	out, err := extract.ExtractChannels(res.Envelope, channels, r.DiscardSI)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("log entries extracted",
		log.Strings("channels", channels),
		log.Bool("discard_si", r.DiscardSI),
		log.Int("records", len(out)))
	return out, nil
}

func (c *Client) send(ctx context.Context, r Request) (bridge.Result, error) {
	if err := r.Validate(); err != nil {
		return bridge.Result{}, err
	}
	return c.caller.Call(ctx, EntityENB, r), nil
}
