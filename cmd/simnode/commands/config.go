package commands

import (
	"github.com/fieldmesh/muster/src/simnode"
)

//CLIConfig contains configuration for the simnode command
type CLIConfig struct {
	SimNode       simnode.Config `mapstructure:",squash"`
	BindAddr      string         `mapstructure:"listen"`
	ForwarderAddr string         `mapstructure:"forwarder"`
	LogLevel      string         `mapstructure:"log"`
}

//NewDefaultCLIConfig creates a CLIConfig with default values
func NewDefaultCLIConfig() *CLIConfig {
	return &CLIConfig{
		SimNode: simnode.Config{
			ID:          1,
			Latitude:    10.0,
			Longitude:   20.0,
			Temperature: 21.5,
			Humidity:    48.0,
		},
		BindAddr:      "127.0.0.1:1682",
		ForwarderAddr: "127.0.0.1:1681",
		LogLevel:      "debug",
	}
}
