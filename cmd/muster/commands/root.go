package commands

import (
	"github.com/fieldmesh/muster/src/config"
	"github.com/spf13/cobra"
)

var (
	_config = config.NewDefaultConfig()
)

//RootCmd is the root command for Muster
var RootCmd = &cobra.Command{
	Use:              "muster",
	Short:            "LoRa sensor gateway",
	TraverseChildren: true,
}
