package commands

import (
	"github.com/fieldmesh/muster/src/clock"
	"github.com/fieldmesh/muster/src/radio"
	"github.com/fieldmesh/muster/src/simnode"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	config = NewDefaultCLIConfig()
	logger *logrus.Logger
)

func init() {
	RootCmd.Flags().Uint8("id", config.SimNode.ID, "Node identifier (1-255)")
	RootCmd.Flags().Float64("lat", config.SimNode.Latitude, "Reported latitude")
	RootCmd.Flags().Float64("lon", config.SimNode.Longitude, "Reported longitude")
	RootCmd.Flags().Float64("temp", config.SimNode.Temperature, "Reported temperature")
	RootCmd.Flags().Float64("humid", config.SimNode.Humidity, "Reported humidity")
	RootCmd.Flags().StringP("listen", "l", config.BindAddr, "Listen IP:Port of the UDP link to the radio front-end")
	RootCmd.Flags().StringP("forwarder", "f", config.ForwarderAddr, "IP:Port of the radio front-end")
	RootCmd.Flags().String("log", config.LogLevel, "debug, info, warn, error, fatal, panic")
}

//RootCmd is the root command for a simulated sensor node
var RootCmd = &cobra.Command{
	Use:     "simnode",
	Short:   "Simulated sensor node",
	PreRunE: loadConfig,
	RunE:    runSimNode,
}

/*******************************************************************************
* RUN
*******************************************************************************/

func runSimNode(cmd *cobra.Command, args []string) error {

	trans, err := radio.NewUDPTransceiver(
		config.BindAddr,
		config.ForwarderAddr,
		logger.WithField("prefix", "simnode"))
	if err != nil {
		return err
	}

	if err := trans.Configure(radio.DefaultParams()); err != nil {
		return err
	}

	node := simnode.NewSimNode(config.SimNode, trans, clock.NewSystemClock(), logger)

	node.Run()

	return nil
}

/*******************************************************************************
* CONFIG
*******************************************************************************/

func loadConfig(cmd *cobra.Command, args []string) error {

	err := viper.BindPFlags(cmd.Flags())
	if err != nil {
		return err
	}

	config, err = parseConfig()
	if err != nil {
		return err
	}

	logger = logrus.New()
	logger.Level = logLevel(config.LogLevel)

	logger.WithFields(logrus.Fields{
		"id":        config.SimNode.ID,
		"lat":       config.SimNode.Latitude,
		"lon":       config.SimNode.Longitude,
		"temp":      config.SimNode.Temperature,
		"humid":     config.SimNode.Humidity,
		"listen":    config.BindAddr,
		"forwarder": config.ForwarderAddr,
		"log":       config.LogLevel,
	}).Debug("RUN")

	return nil
}

//Retrieve the default environment configuration.
func parseConfig() (*CLIConfig, error) {
	conf := NewDefaultCLIConfig()
	err := viper.Unmarshal(conf)
	if err != nil {
		return nil, err
	}
	return conf, err
}

func logLevel(l string) logrus.Level {
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
