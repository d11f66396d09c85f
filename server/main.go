package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ponyo877/roomwatch/server/app"
	"github.com/spf13/viper"
)

// The headless operator server. It reads the same keys as the CLI from
// ROOMWATCH_* environment variables and an optional ./roomwatch.yaml.
func main() {
	v := viper.New()
	app.SetDefaults(v)
	v.SetEnvPrefix("roomwatch")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetConfigName("roomwatch")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Fatalf("failed to read config: %v", err)
		}
	}

	cfg, err := app.ConfigFromViper(v)
	if err != nil {
		log.Fatalf("invalid config: %v", err)
	}
	a, err := app.New(cfg)
	if err != nil {
		log.Fatalf("failed to start: %v", err)
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := a.Run(ctx); err != nil {
		log.Printf("server stopped: %v", err)
		return
	}
	log.Printf("server stopped")
}
