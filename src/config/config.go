package config

import (
	"os"
	"os/user"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/fieldmesh/muster/src/common"
	"github.com/fieldmesh/muster/src/gateway"
	"github.com/fieldmesh/muster/src/radio"
	"github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
)

// Default filenames.
const (
	// DefaultBadgerFile is the default name of the folder containing the
	// Badger database.
	DefaultBadgerFile = "badger_db"
)

// Default configuration values.
const (
	DefaultLogLevel      = "debug"
	DefaultServiceAddr   = "127.0.0.1:8000"
	DefaultBindAddr      = "127.0.0.1:1680"
	DefaultForwarderAddr = "127.0.0.1:1681"
	DefaultStore         = false
	DefaultWindowSize    = 100
	DefaultInmemNodes    = 3
)

// Config contains all the configuration properties of a muster gateway.
type Config struct {
	// DataDir is the top-level directory containing muster configuration and
	// data.
	DataDir string `mapstructure:"datadir"`

	// LogLevel determines the chattiness of the log output.
	LogLevel string `mapstructure:"log"`

	// NoService disables the HTTP API service.
	NoService bool `mapstructure:"no-service"`

	// ServiceAddr is the address:port of the HTTP API service.
	ServiceAddr string `mapstructure:"service-listen"`

	// Store activates persistent storage of telemetry readings.
	Store bool `mapstructure:"store"`

	// DatabaseDir is the directory containing database files.
	DatabaseDir string `mapstructure:"db"`

	// WindowSize is the number of readings retained per node by the
	// in-memory telemetry window.
	WindowSize int `mapstructure:"window-size"`

	// Inmem runs the gateway against an in-memory radio channel shared with
	// InmemNodes simulated nodes, instead of a radio front-end. Used for
	// demos and development.
	Inmem bool `mapstructure:"inmem"`

	// InmemNodes is the number of simulated nodes started in Inmem mode.
	InmemNodes int `mapstructure:"inmem-nodes"`

	// BindAddr is the local address:port of the UDP link to the radio
	// front-end. Ignored in Inmem mode.
	BindAddr string `mapstructure:"listen"`

	// ForwarderAddr is the address:port of the radio front-end. Ignored in
	// Inmem mode.
	ForwarderAddr string `mapstructure:"forwarder"`

	// AssignDuration bounds the admission phase of each cycle.
	AssignDuration time.Duration `mapstructure:"assign-duration"`

	// PollDuration bounds the data-collection phase of each cycle.
	PollDuration time.Duration `mapstructure:"poll-duration"`

	// CyclePeriod is the fixed period between cycle starts.
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

	// Capacity bounds the roster's current generation.
	Capacity int `mapstructure:"capacity"`

	// Radio holds the physical-layer parameters applied to the transceiver
	// at startup.
	Radio radio.Params `mapstructure:"radio"`

	logger *logrus.Logger
}

// NewDefaultConfig returns a config object with default values.
func NewDefaultConfig() *Config {
	g := gateway.DefaultConfig()

	return &Config{
		DataDir:           DefaultDataDir(),
		LogLevel:          DefaultLogLevel,
		ServiceAddr:       DefaultServiceAddr,
		Store:             DefaultStore,
		DatabaseDir:       DefaultDatabaseDir(),
		WindowSize:        DefaultWindowSize,
		InmemNodes:        DefaultInmemNodes,
		BindAddr:          DefaultBindAddr,
		ForwarderAddr:     DefaultForwarderAddr,
		AssignDuration:    g.AssignDuration,
		PollDuration:      g.PollDuration,
		CyclePeriod:       g.CyclePeriod,
		BroadcastInterval: g.BroadcastInterval,
		DataReplyTimeout:  g.DataReplyTimeout,
		AckWindow:         g.AckWindow,
		MaxRetries:        g.MaxRetries,
		Capacity:          g.Capacity,
		Radio:             radio.DefaultParams(),
	}
}

// NewTestConfig returns a config object with default values and a logger
// that writes through the test.
func NewTestConfig(t testing.TB) *Config {
	config := NewDefaultConfig()
	config.logger = common.NewTestLogger(t)
	return config
}

// GatewayConfig builds the session protocol configuration from the top-level
// config.
func (c *Config) GatewayConfig() *gateway.Config {
	g := gateway.DefaultConfig()

	g.AssignDuration = c.AssignDuration
	g.PollDuration = c.PollDuration
	g.CyclePeriod = c.CyclePeriod
	g.BroadcastInterval = c.BroadcastInterval
	g.DataReplyTimeout = c.DataReplyTimeout
	g.AckWindow = c.AckWindow
	g.MaxRetries = c.MaxRetries
	g.Capacity = c.Capacity
	g.Logger = c.rawLogger()

	return g
}

// SetDataDir sets the top-level muster directory, and updates the database
// directory if it is currently set to the default value. If the database
// directory is not currently the default, it means the user has explicitly
// set it to something else, so avoid changing it again here.
func (c *Config) SetDataDir(dataDir string) {
	c.DataDir = dataDir
	if c.DatabaseDir == DefaultDatabaseDir() {
		c.DatabaseDir = filepath.Join(dataDir, DefaultBadgerFile)
	}
}

// Logger returns a formatted logrus Entry, with prefix set to "muster".
func (c *Config) Logger() *logrus.Entry {
	return c.rawLogger().WithField("prefix", "muster")
}

func (c *Config) rawLogger() *logrus.Logger {
	if c.logger == nil {
		c.logger = logrus.New()
		c.logger.Level = LogLevel(c.LogLevel)
		c.logger.Formatter = new(prefixed.TextFormatter)
	}
	return c.logger
}

// DefaultDatabaseDir returns the default path for the badger database files.
func DefaultDatabaseDir() string {
	return filepath.Join(DefaultDataDir(), DefaultBadgerFile)
}

// DefaultDataDir returns the default directory name for top-level muster
// config based on the underlying OS, attempting to respect conventions.
func DefaultDataDir() string {
	// Try to place the data folder in the user's home dir
	home := HomeDir()
	if home != "" {
		if runtime.GOOS == "darwin" {
			return filepath.Join(home, ".Muster")
		} else if runtime.GOOS == "windows" {
			return filepath.Join(home, "AppData", "Roaming", "Muster")
		} else {
			return filepath.Join(home, ".muster")
		}
	}
	// As we cannot guess a stable location, return empty and handle later
	return ""
}

// HomeDir returns the user's home directory.
func HomeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	if usr, err := user.Current(); err == nil {
		return usr.HomeDir
	}
	return ""
}

// LogLevel parses a string into a Logrus log level.
func LogLevel(l string) logrus.Level {
	switch l {
	case "debug":
		return logrus.DebugLevel
	case "info":
		return logrus.InfoLevel
	case "warn":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	case "fatal":
		return logrus.FatalLevel
	case "panic":
		return logrus.PanicLevel
	default:
		return logrus.DebugLevel
	}
}
