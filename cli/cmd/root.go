/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/c-bata/go-prompt"
	"github.com/mattn/go-shellwords"
	"github.com/ponyo877/roomwatch/server/app"
	"github.com/ponyo877/roomwatch/video"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

const (
	videoPortKey           = "video.port"
	videoConnectTimeoutKey = "video.connect_timeout"
	videoMaxPayloadKey     = "video.max_payload"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "roomwatch",
	Short: "Operator console for an escape room kiosk fleet",
	Long: `roomwatch tracks the kiosk computers in an escape room venue.
Kiosks report their state over gRPC; the operator assigns them to rooms,
answers hint requests and watches each kiosk's camera.

Run "roomwatch console" for the terminal UI, "roomwatch serve" for a
headless server, or "roomwatch kiosk" to simulate a kiosk.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	// one‑shot
	if len(os.Args) > 1 {
		if err := rootCmd.Execute(); err != nil {
			os.Exit(1)
		}
		return
	}

	// REPL
	fmt.Println("entering interactive mode, type 'exit' to quit")
	p := prompt.New(
		func(line string) {
			line = strings.TrimSpace(line)
			if line == "" || line == "exit" || line == "quit" {
				return
			}
			args, err := shellwords.Parse(line)
			if err != nil {
				fmt.Fprintln(os.Stderr, "Error parsing command:", err)
				return
			}
			rootCmd.SetArgs(args)
			rootCmd.Execute()
		},
		commandCompleter(rootCmd),
		prompt.OptionPrefix("❯❯❯ "),
		prompt.OptionTitle("roomwatch"),
		prompt.OptionSetExitCheckerOnInput(func(in string, breakline bool) bool {
			in = strings.TrimSpace(in)
			return breakline && (in == "exit" || in == "quit")
		}),
	)
	p.Run()
}

// commandCompleter suggests the subcommands of cmd for the first word.
func commandCompleter(cmd *cobra.Command) prompt.Completer {
	var suggests []prompt.Suggest
	for _, c := range cmd.Commands() {
		if c.Hidden {
			continue
		}
		suggests = append(suggests, prompt.Suggest{Text: c.Name(), Description: c.Short})
	}
	suggests = append(suggests, prompt.Suggest{Text: "exit", Description: "Leave interactive mode"})
	return func(d prompt.Document) []prompt.Suggest {
		if strings.Contains(d.TextBeforeCursor(), " ") {
			return nil
		}
		return prompt.FilterHasPrefix(suggests, d.GetWordBeforeCursor(), true)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.roomwatch.yaml)")
	flags.String("grpc-listen", ":50051", "Address the kiosk gRPC service listens on")
	flags.String("http-listen", ":8080", "Address the HTTP API listens on (empty disables it)")
	flags.String("db", "./roomwatch.db", "Path of the sqlite journal")
	flags.String("rooms", app.DefaultRooms, "Rooms as id=name pairs separated by commas")
	flags.String("mqtt-broker", "", "MQTT broker URL to mirror notifications to (e.g., tcp://localhost:1883)")
	flags.String("mqtt-topic-prefix", "roomwatch", "Topic prefix for MQTT notifications")
	flags.Int("video-port", video.DefaultPort, "Port the kiosk cameras stream on")
	flags.Duration("video-connect-timeout", video.DefaultConnectTimeout, "Camera connect timeout")
	flags.Uint64("video-max-payload", video.DefaultMaxPayload, "Largest accepted camera frame in bytes (0 = unlimited)")

	app.SetDefaults(viper.GetViper())
	viper.BindPFlag(app.GRPCListenKey, flags.Lookup("grpc-listen"))
	viper.BindPFlag(app.HTTPListenKey, flags.Lookup("http-listen"))
	viper.BindPFlag(app.DBPathKey, flags.Lookup("db"))
	viper.BindPFlag(app.RoomsKey, flags.Lookup("rooms"))
	viper.BindPFlag(app.MQTTBrokerKey, flags.Lookup("mqtt-broker"))
	viper.BindPFlag(app.MQTTTopicPrefixKey, flags.Lookup("mqtt-topic-prefix"))
	viper.BindPFlag(videoPortKey, flags.Lookup("video-port"))
	viper.BindPFlag(videoConnectTimeoutKey, flags.Lookup("video-connect-timeout"))
	viper.BindPFlag(videoMaxPayloadKey, flags.Lookup("video-max-payload"))
	viper.SetDefault(videoPortKey, video.DefaultPort)
	viper.SetDefault(videoConnectTimeoutKey, video.DefaultConnectTimeout)
	viper.SetDefault(videoMaxPayloadKey, video.DefaultMaxPayload)
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".roomwatch") // This will look for .roomwatch.yaml
	}

	// ROOMWATCH_VIDEO_PORT and friends
	viper.SetEnvPrefix("roomwatch")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Config file was found but another error was produced
			fmt.Fprintln(os.Stderr, "Error reading config file:", err)
		}
	}
}

func serverConfig() (app.Config, error) {
	return app.ConfigFromViper(viper.GetViper())
}

func videoConfig() video.Config {
	return video.Config{
		ConnectTimeout: viper.GetDuration(videoConnectTimeoutKey),
		MaxPayload:     viper.GetUint64(videoMaxPayloadKey),
	}
}
