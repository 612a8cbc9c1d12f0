// Package enb exposes the eNB/gNB operations of the Amari remote API as typed,
// validated requests sent through a bridge.
package enb

import (
	"errors"
	"fmt"
)

// Message discriminators understood by the Amari remote API.
const (
	MessageConfigGet  = "config_get"
	MessageConfigSet  = "config_set"
	MessageStats      = "stats"
	MessageLogGet     = "log_get"
	MessageCellGain   = "cell_gain"
	MessageNoiseLevel = "noise_level"
	MessageUEGet      = "ue_get"
)

// EntityENB is the base-station entity addressed by every request here.
const EntityENB = "enb"

// ErrInvalidRequest is wrapped by every validation failure.
var ErrInvalidRequest = errors.New("enb: invalid request")

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, fmt.Sprintf(format, args...))
}

// Request is a message that can validate itself before it is sent.
type Request interface {
	Validate() error
}

// CellGain sets the TX gain of one cell.
type CellGain struct {
	Message string `json:"message"`
	Gain    int    `json:"gain"`
	CellID  int    `json:"cell_id"`
}

// NewCellGain returns a CellGain for cell 1.
func NewCellGain(gain int) CellGain {
	return CellGain{Message: MessageCellGain, Gain: gain, CellID: 1}
}

func (r CellGain) Validate() error {
	if r.Gain < -30 {
		return invalid("gain %d below -30", r.Gain)
	}
	if r.CellID < 1 {
		return invalid("cell_id %d below 1", r.CellID)
	}
	return nil
}

// NoiseLevel sets the simulated noise level. It only takes effect when the
// channel simulator is enabled.
type NoiseLevel struct {
	Message    string  `json:"message"`
	NoiseLevel float64 `json:"noise_level"`
	Channel    *int    `json:"channel,omitempty"`
}

// NewNoiseLevel returns a NoiseLevel for all channels.
func NewNoiseLevel(level float64) NoiseLevel {
	return NoiseLevel{Message: MessageNoiseLevel, NoiseLevel: level}
}

func (r NoiseLevel) Validate() error {
	if r.Channel != nil && *r.Channel < 0 {
		return invalid("channel %d is negative", *r.Channel)
	}
	return nil
}

// CellConfig is a config_set request carrying per-cell settings keyed by
// cell ID.
type CellConfig[T Request] struct {
	Message string    `json:"message"`
	Cells   map[int]T `json:"cells"`
}

func newCellConfig[T Request](cells map[int]T) CellConfig[T] {
	return CellConfig[T]{Message: MessageConfigSet, Cells: cells}
}

func (r CellConfig[T]) Validate() error {
	if len(r.Cells) == 0 {
		return invalid("no cells given")
	}
	for id, c := range r.Cells {
		if id < 1 {
			return invalid("cell id %d below 1", id)
		}
		if err := c.Validate(); err != nil {
			return fmt.Errorf("cell %d: %w", id, err)
		}
	}
	return nil
}

// Timer is the per-cell inactivity timer in milliseconds.
type Timer struct {
	InactivityTimer int `json:"inactivity_timer"`
}

func (t Timer) Validate() error {
	if t.InactivityTimer < 0 {
		return invalid("inactivity_timer %d is negative", t.InactivityTimer)
	}
	return nil
}

// PRB is the fixed downlink resource-block allocation of a cell.
type PRB struct {
	LCRB    int  `json:"pdsch_fixed_l_crb"`
	Fixed   bool `json:"pdsch_fixed_rb_alloc"`
	RBStart int  `json:"pdsch_fixed_rb_start"`
}

// DefaultPRB returns a fixed 20-RB allocation starting at RB 0.
func DefaultPRB() PRB {
	return PRB{LCRB: 20, Fixed: true, RBStart: 0}
}

func (p PRB) Validate() error {
	if p.LCRB < 1 || p.LCRB > 106 {
		return invalid("pdsch_fixed_l_crb %d outside 1..106", p.LCRB)
	}
	if p.RBStart < 0 {
		return invalid("pdsch_fixed_rb_start %d is negative", p.RBStart)
	}
	return nil
}

// DLMCS is the fixed downlink MCS of a cell.
type DLMCS struct {
	PDSCHMCS int `json:"pdsch_mcs"`
}

func (m DLMCS) Validate() error {
	return checkMCS("pdsch_mcs", m.PDSCHMCS)
}

// ULMCS is the fixed uplink MCS of a cell.
type ULMCS struct {
	PUSCHMCS int `json:"pusch_mcs"`
}

func (m ULMCS) Validate() error {
	return checkMCS("pusch_mcs", m.PUSCHMCS)
}

func checkMCS(name string, v int) error {
	if v < 0 || v > 28 {
		return invalid("%s %d outside 0..28", name, v)
	}
	return nil
}

// Stats requests cell and RF statistics.
type Stats struct {
	Message      string  `json:"message"`
	Samples      bool    `json:"samples"`
	RF           bool    `json:"rf"`
	InitialDelay float64 `json:"Initial_delay"`
}

// NewStats returns the default stats request.
func NewStats() Stats {
	return Stats{Message: MessageStats, Samples: true, RF: true, InitialDelay: 0.7}
}

func (r Stats) Validate() error {
	if r.InitialDelay < 0 {
		return invalid("Initial_delay %g is negative", r.InitialDelay)
	}
	return nil
}

// UEStats requests the state of connected UEs, optionally one UE only.
type UEStats struct {
	Message string `json:"message"`
	UEID    *int   `json:"ue_id,omitempty"`
	Stats   *bool  `json:"stats,omitempty"`
}

// NewUEStats returns a request for every connected UE.
func NewUEStats() UEStats {
	return UEStats{Message: MessageUEGet}
}

func (r UEStats) Validate() error {
	if r.UEID != nil && *r.UEID < 0 {
		return invalid("ue_id %d is negative", *r.UEID)
	}
	return nil
}

// PDSCHLog fetches buffered log lines for PDSCH extraction. DiscardSI is
// applied locally and never sent.
type PDSCHLog struct {
	Message    string            `json:"message"`
	Min        *int              `json:"min,omitempty"`
	Max        *int              `json:"max,omitempty"`
	Timeout    *float64          `json:"timeout,omitempty"`
	AllowEmpty *bool             `json:"allow_empty,omitempty"`
	Layers     map[string]string `json:"layers,omitempty"`
	DiscardSI  bool              `json:"-"`
}

// NewPDSCHLog returns a log_get request with no bounds.
func NewPDSCHLog(discardSI bool) PDSCHLog {
	return PDSCHLog{Message: MessageLogGet, DiscardSI: discardSI}
}

func (r PDSCHLog) Validate() error {
	if r.Min != nil && *r.Min < 0 {
		return invalid("min %d is negative", *r.Min)
	}
	if r.Max != nil && *r.Max < 0 {
		return invalid("max %d is negative", *r.Max)
	}
	if r.Min != nil && r.Max != nil && *r.Min > *r.Max {
		return invalid("min %d above max %d", *r.Min, *r.Max)
	}
	if r.Timeout != nil && *r.Timeout < 0 {
		return invalid("timeout %g is negative", *r.Timeout)
	}
	return nil
}
