package commands

import (
	"os"

	"github.com/fieldmesh/muster/src/muster"
	"github.com/rifflock/lfshook"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

//NewRunCmd returns the command that starts a muster gateway
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "run",
		Short:   "Run gateway",
		PreRunE: loadConfig,
		RunE:    runMuster,
	}
	AddRunFlags(cmd)
	return cmd
}

/*******************************************************************************
* RUN
*******************************************************************************/

func runMuster(cmd *cobra.Command, args []string) error {
	engine := muster.NewMuster(_config)

	if err := engine.Init(); err != nil {
		_config.Logger().Error("Cannot initialize engine:", err)
		return err
	}

	engine.Run()

	return nil
}

/*******************************************************************************
* CONFIG
*******************************************************************************/

//AddRunFlags adds flags to the Run command
func AddRunFlags(cmd *cobra.Command) {

	cmd.Flags().String("datadir", _config.DataDir, "Top-level directory for configuration and data")
	cmd.Flags().String("log", _config.LogLevel, "debug, info, warn, error, fatal, panic")

	// Radio link
	cmd.Flags().Bool("inmem", _config.Inmem, "Use an in-memory radio channel with simulated nodes")
	cmd.Flags().Int("inmem-nodes", _config.InmemNodes, "Number of simulated nodes in inmem mode")
	cmd.Flags().StringP("listen", "l", _config.BindAddr, "Listen IP:Port of the UDP link to the radio front-end")
	cmd.Flags().StringP("forwarder", "f", _config.ForwarderAddr, "IP:Port of the radio front-end")

	// Service
	cmd.Flags().Bool("no-service", _config.NoService, "Do not serve the HTTP API")
	cmd.Flags().StringP("service-listen", "s", _config.ServiceAddr, "Listen IP:Port for HTTP service")

	// Store
	cmd.Flags().Bool("store", _config.Store, "Use badgerDB instead of in-mem store")
	cmd.Flags().String("db", _config.DatabaseDir, "Database directory")
	cmd.Flags().Int("window-size", _config.WindowSize, "Number of readings retained per node")

	// Session configuration
	cmd.Flags().Duration("assign-duration", _config.AssignDuration, "Length of the admission phase")
	cmd.Flags().Duration("poll-duration", _config.PollDuration, "Length of the data-collection phase")
	cmd.Flags().Duration("cycle-period", _config.CyclePeriod, "Period between cycle starts")
	cmd.Flags().Duration("broadcast-interval", _config.BroadcastInterval, "Listen window after each join-invitation broadcast")
	cmd.Flags().Duration("data-reply-timeout", _config.DataReplyTimeout, "Wait for a node's telemetry reply")
	cmd.Flags().Duration("ack-window", _config.AckWindow, "Per-attempt reply window of reliable sends")
	cmd.Flags().Int("max-retries", _config.MaxRetries, "Retransmissions after the first attempt of a reliable send")
	cmd.Flags().Int("capacity", _config.Capacity, "Max number of nodes admitted per cycle")
}

func loadConfig(cmd *cobra.Command, args []string) error {

	err := bindFlagsLoadViper(cmd)
	if err != nil {
		return err
	}

	// If --datadir was explicitely set, but not --db, this will update the
	// default database dir to be inside the new datadir
	_config.SetDataDir(_config.DataDir)

	hookLogFiles(_config.Logger().Logger)

	logFields := logrus.Fields{
		"DataDir":           _config.DataDir,
		"LogLevel":          _config.LogLevel,
		"Inmem":             _config.Inmem,
		"BindAddr":          _config.BindAddr,
		"ForwarderAddr":     _config.ForwarderAddr,
		"ServiceAddr":       _config.ServiceAddr,
		"Store":             _config.Store,
		"WindowSize":        _config.WindowSize,
		"AssignDuration":    _config.AssignDuration,
		"PollDuration":      _config.PollDuration,
		"CyclePeriod":       _config.CyclePeriod,
		"BroadcastInterval": _config.BroadcastInterval,
		"DataReplyTimeout":  _config.DataReplyTimeout,
		"AckWindow":         _config.AckWindow,
		"MaxRetries":        _config.MaxRetries,
		"Capacity":          _config.Capacity,
	}

	if _config.Inmem {
		logFields["InmemNodes"] = _config.InmemNodes
	}

	if _config.Store {
		logFields["DatabaseDir"] = _config.DatabaseDir
	}

	_config.Logger().WithFields(logFields).Debug("RUN")

	return nil
}

// Bind all flags and read the config into viper
func bindFlagsLoadViper(cmd *cobra.Command) error {
	// Register flags with viper. Include flags from this command and all other
	// persistent flags from the parent
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// first unmarshal to read from CLI flags
	if err := viper.Unmarshal(_config); err != nil {
		return err
	}

	// look for config file in [datadir]/muster.toml (.json, .yaml also work)
	viper.SetConfigName("muster")        // name of config file (without extension)
	viper.AddConfigPath(_config.DataDir) // search root directory

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		_config.Logger().Debugf("Using config file: %s", viper.ConfigFileUsed())
	} else if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		_config.Logger().Debugf("No config file found in: %s", _config.DataDir)
	} else {
		return err
	}

	// second unmarshal to read from config file
	return viper.Unmarshal(_config)
}

// hookLogFiles duplicates info and debug output to log files in the working
// directory.
func hookLogFiles(logger *logrus.Logger) {
	pathMap := lfshook.PathMap{}

	_, err := os.OpenFile("muster_info.log", os.O_CREATE|os.O_WRONLY, 0666)
	if err != nil {
		logger.Info("Failed to open muster_info.log file, using default stderr")
	} else {
		pathMap[logrus.InfoLevel] = "muster_info.log"
	}

	_, err = os.OpenFile("muster_debug.log", os.O_CREATE|os.O_WRONLY, 0666)
	if err != nil {
		logger.Info("Failed to open muster_debug.log file, using default stderr")
	} else {
		pathMap[logrus.DebugLevel] = "muster_debug.log"
	}

	logger.Hooks.Add(lfshook.NewHook(
		pathMap,
		&logrus.TextFormatter{},
	))
}
