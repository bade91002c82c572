// Package config defines the configuration for a muster gateway.
//
// Regardless of how the gateway is started, directly from Go code or as a
// standalone process from the command line, it uses the Config object defined
// in this package to store and forward configuration options. On top of these
// options, the gateway relies on a data directory, defined by Config.DataDir,
// where it looks for an optional muster.toml configuration file (.json and
// .yaml also work) and, when persistent storage is enabled, keeps the Badger
// database of telemetry readings.
package config
