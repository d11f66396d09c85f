/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ponyo877/roomwatch/cli/console"
	"github.com/ponyo877/roomwatch/server/app"
	"github.com/ponyo877/roomwatch/video"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// consoleCmd represents the console command
var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Starts the operator console in a tview-based interface",
	Long: `Starts the operator server and a terminal console on top of it.
Select a kiosk to see its stats and camera, assign it to a room, or send
its room a hint. Tab moves between the kiosk list, the room chooser and the
hint box; 'd' removes the selected kiosk; Ctrl+C quits.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := serverConfig()
		if err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
		a, err := app.New(cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		client := video.NewClient(videoConfig())
		c := console.New(a.Fleet, a.Coordinator, client, viper.GetInt(videoPortKey))
		if err := a.Hub.Attach("console", c); err != nil {
			return err
		}
		defer a.Hub.Unsubscribe("console")

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		// keep the server logs out of the terminal the UI draws on
		log.SetOutput(c.LogWriter())
		defer log.SetOutput(os.Stderr)

		serverErr := make(chan error, 1)
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()
		go func() {
			serverErr <- a.Run(ctx)
			cancel()
		}()

		if err := c.Run(ctx); err != nil {
			return fmt.Errorf("console UI error: %w", err)
		}
		cancel()
		return <-serverErr
	},
}

func init() {
	rootCmd.AddCommand(consoleCmd)
}
