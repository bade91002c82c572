package gateway

import (
	"testing"
	"time"

	"github.com/fieldmesh/muster/src/common"
	"github.com/fieldmesh/muster/src/roster"
	"github.com/sirupsen/logrus"
)

// Config holds the session protocol parameters.
type Config struct {
	// AssignDuration bounds the admission phase of each cycle.
	AssignDuration time.Duration `mapstructure:"assign-duration"`

	// PollDuration bounds the data-collection phase of each cycle.
	PollDuration time.Duration `mapstructure:"poll-duration"`

	// CyclePeriod is the fixed period between cycle starts. CycleWait sleeps
	// to the next period boundary measured from a fixed reference, so drift
	// does not accumulate.
	CyclePeriod time.Duration `mapstructure:"cycle-period"`

	// BroadcastInterval is the listen window after each join-invitation
	// broadcast.
	BroadcastInterval time.Duration `mapstructure:"broadcast-interval"`

	// DataReplyTimeout is how long the poll phase waits for a node's
	// telemetry reply.
	DataReplyTimeout time.Duration `mapstructure:"data-reply-timeout"`

	// AckWindow is the per-attempt reply window of reliable sends.
	AckWindow time.Duration `mapstructure:"ack-window"`

	// MaxRetries is the number of retransmissions after the first attempt of
	// a reliable send.
	MaxRetries int `mapstructure:"max-retries"`

	// PollQuantum is the cooperative yield between receive polls inside
	// listening windows.
	PollQuantum time.Duration `mapstructure:"poll-quantum"`

	// Capacity bounds the roster's current generation.
	Capacity int `mapstructure:"capacity"`

	// TempMin, TempMax, HumidMin and HumidMax are the environmental bounds
	// sent to nodes in the settings frame.
	TempMin  float64 `mapstructure:"temp-min"`
	TempMax  float64 `mapstructure:"temp-max"`
	HumidMin float64 `mapstructure:"humid-min"`
	HumidMax float64 `mapstructure:"humid-max"`

	Logger *logrus.Logger `mapstructure:"-"`
}

// DefaultConfig returns the default session parameters.
func DefaultConfig() *Config {
	logger := logrus.New()
	logger.Level = logrus.DebugLevel

	return &Config{
		AssignDuration:    6000 * time.Millisecond,
		PollDuration:      6000 * time.Millisecond,
		CyclePeriod:       30000 * time.Millisecond,
		BroadcastInterval: 100 * time.Millisecond,
		DataReplyTimeout:  1000 * time.Millisecond,
		AckWindow:         1000 * time.Millisecond,
		MaxRetries:        3,
		PollQuantum:       1 * time.Millisecond,
		Capacity:          roster.DefaultCapacity,
		TempMin:           15.0,
		TempMax:           30.0,
		HumidMin:          40.0,
		HumidMax:          60.0,
		Logger:            logger,
	}
}

// TestConfig returns a config with a logger that writes through the test, and
// timings short enough for simulated clocks.
func TestConfig(t testing.TB) *Config {
	config := DefaultConfig()
	config.Logger = common.NewTestLogger(t)
	config.AssignDuration = 300 * time.Millisecond
	config.PollDuration = 300 * time.Millisecond
	config.CyclePeriod = 1000 * time.Millisecond
	config.BroadcastInterval = 50 * time.Millisecond
	config.DataReplyTimeout = 50 * time.Millisecond
	config.AckWindow = 50 * time.Millisecond
	return config
}
