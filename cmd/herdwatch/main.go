// herdwatch is the livestock monitoring gateway: it keeps the connection to
// the enclosure peripherals alive, records alerts, and serves them locally.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	if err := rootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "herdwatch",
		Short:         "Livestock monitoring gateway",
		Long:          "herdwatch connects to the enclosure radar and camera peripherals, records alerts locally, and serves history and telemetry over HTTP and MQTT.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(serveCommand())
	return root
}
