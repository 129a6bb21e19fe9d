package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent search queries",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := cfgMgr.Get()
		hist, err := openHistory(cfg)
		if err != nil {
			return err
		}
		if hist == nil {
			fmt.Println("history is disabled")
			return nil
		}
		defer hist.Close()

		n, _ := cmd.Flags().GetInt("limit")
		recent, err := hist.Recent(n)
		if err != nil {
			return err
		}
		for _, q := range recent {
			fmt.Println(q)
		}
		return nil
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all recorded search queries",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := cfgMgr.Get()
		hist, err := openHistory(cfg)
		if err != nil {
			return err
		}
		if hist == nil {
			return nil
		}
		defer hist.Close()
		return hist.Clear()
	},
}

func init() {
	historyCmd.Flags().IntP("limit", "n", 20, "maximum number of queries to show")
	historyCmd.AddCommand(historyClearCmd)
}
