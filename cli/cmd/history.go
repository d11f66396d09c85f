/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/ponyo877/roomwatch/server/app"
	"github.com/ponyo877/roomwatch/server/repository"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history [pattern]",
	Short: "Prints the operator journal, newest first.",
	Long: `Prints assignments, help requests, hints and evictions from the journal.
With a pattern, only entries whose text matches the regular expression are
printed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kiosk, _ := cmd.Flags().GetString("kiosk")
		limit, _ := cmd.Flags().GetInt("limit")

		db, err := repository.Open(viper.GetString(app.DBPathKey))
		if err != nil {
			return err
		}
		defer db.Close()
		rp := repository.NewRepository(db)

		var pattern string
		if len(args) == 1 {
			pattern = args[0]
		}
		entries, err := rp.ListEntries(kiosk, limit)
		if pattern != "" {
			entries, err = rp.SearchEntries(pattern, limit)
		}
		if err != nil {
			return err
		}
		for _, e := range entries {
			if kiosk != "" && e.Kiosk != kiosk {
				continue
			}
			fmt.Fprintln(cmd.OutOrStdout(), e)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().StringP("kiosk", "k", "", "Only entries for this kiosk")
	historyCmd.Flags().IntP("limit", "n", 50, "Number of entries")
}
