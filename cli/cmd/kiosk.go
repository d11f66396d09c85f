/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/c-bata/go-prompt"
	"github.com/mattn/go-shellwords"
	"github.com/ponyo877/roomwatch/cli/kiosk"
	pb "github.com/ponyo877/roomwatch/grpc"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const (
	kioskServerKey   = "kiosk.server"
	kioskNameKey     = "kiosk.name"
	kioskIntervalKey = "kiosk.interval"
)

var kioskSuggestions = []prompt.Suggest{
	{Text: "help", Description: "Ask the operator for a hint"},
	{Text: "status", Description: "Show room, hints and time in room"},
	{Text: "reset", Description: "Start a new game"},
	{Text: "exit", Description: "Shut the kiosk down"},
}

// kioskCmd represents the kiosk command
var kioskCmd = &cobra.Command{
	Use:   "kiosk",
	Short: "Simulates a kiosk computer.",
	Long: `Connects to the operator server as a kiosk: sends a heartbeat every
interval, prints the assignments and hints it receives, and reads commands
from an interactive prompt. With --camera it also streams a test pattern
on the camera port so the console has something to show.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		name := viper.GetString(kioskNameKey)
		if name == "" {
			hostname, err := os.Hostname()
			if err != nil {
				return fmt.Errorf("no kiosk name: %w", err)
			}
			name = hostname
		}

		conn, err := grpc.NewClient(viper.GetString(kioskServerKey), grpc.WithTransportCredentials(insecure.NewCredentials()))
		if err != nil {
			return fmt.Errorf("did not connect to gRPC server: %w", err)
		}
		defer conn.Close()

		sim := kiosk.NewSimulator(pb.NewKioskServiceClient(conn), name)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		go sim.Run(ctx, viper.GetDuration(kioskIntervalKey))
		go func() {
			if err := sim.Listen(ctx, func(n *pb.Notification) {
				fmt.Println(kiosk.FormatNotification(n))
			}); err != nil {
				fmt.Fprintln(os.Stderr, "Error:", err)
			}
		}()
		if withCamera, _ := cmd.Flags().GetBool("camera"); withCamera {
			go func() {
				if err := serveCamera(ctx, cmd); err != nil {
					fmt.Fprintln(os.Stderr, "Camera error:", err)
				}
			}()
		}

		fmt.Printf("kiosk %s reporting to %s, type 'exit' to quit\n", name, viper.GetString(kioskServerKey))
		p := prompt.New(
			func(line string) { runKioskCommand(ctx, sim, line) },
			func(d prompt.Document) []prompt.Suggest {
				return prompt.FilterHasPrefix(kioskSuggestions, d.GetWordBeforeCursor(), true)
			},
			prompt.OptionPrefix(name+" ❯❯ "),
			prompt.OptionSetExitCheckerOnInput(func(in string, breakline bool) bool {
				return breakline && strings.TrimSpace(in) == "exit"
			}),
		)
		p.Run()
		return nil
	},
}

func runKioskCommand(ctx context.Context, sim *kiosk.Simulator, line string) {
	args, err := shellwords.Parse(line)
	if err != nil || len(args) == 0 {
		return
	}
	switch args[0] {
	case "help":
		if err := sim.RequestHelp(ctx); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			return
		}
		fmt.Println("help requested")
	case "status":
		fmt.Println(sim.Status())
	case "reset":
		sim.Reset()
		fmt.Println("new game started")
	case "exit":
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", args[0])
	}
}

func init() {
	rootCmd.AddCommand(kioskCmd)
	kioskCmd.Flags().String("server", "localhost:50051", "Address of the operator's kiosk service")
	kioskCmd.Flags().String("name", "", "Computer name to report (defaults to the hostname)")
	kioskCmd.Flags().Duration("interval", kiosk.DefaultInterval, "Heartbeat interval")
	kioskCmd.Flags().Bool("camera", false, "Also stream a test pattern on the camera port")
	addCameraFlags(kioskCmd)

	viper.BindPFlag(kioskServerKey, kioskCmd.Flags().Lookup("server"))
	viper.BindPFlag(kioskNameKey, kioskCmd.Flags().Lookup("name"))
	viper.BindPFlag(kioskIntervalKey, kioskCmd.Flags().Lookup("interval"))
}
