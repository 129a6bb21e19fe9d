package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/justyntemme/scour/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the active configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfgMgr.ParseError(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: config file is invalid, using defaults: %v\n", err)
		}

		path := cfgFile
		if path == "" {
			path = config.ConfigPath()
		}
		fmt.Printf("config file: %s\n", path)

		data, err := json.MarshalIndent(cfgMgr.Get(), "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	},
}

var configDebounceCmd = &cobra.Command{
	Use:   "debounce <milliseconds>",
	Short: "Set the search-as-you-type debounce interval",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var ms int
		if _, err := fmt.Sscanf(args[0], "%d", &ms); err != nil || ms < 0 {
			return fmt.Errorf("invalid interval %q", args[0])
		}
		cfgMgr.SetDebounce(ms)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configDebounceCmd)
}
