/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ponyo877/roomwatch/video"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// cameraCmd represents the camera command
var cameraCmd = &cobra.Command{
	Use:   "camera",
	Short: "Streams a test pattern the way a kiosk camera does.",
	Long: `Listens on the camera port and streams a moving test pattern to every
viewer in the kiosk camera wire format: an 8-byte little-endian length
followed by a JPEG image.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serveCamera(ctx, cmd)
	},
}

func serveCamera(ctx context.Context, cmd *cobra.Command) error {
	width, _ := cmd.Flags().GetInt("width")
	height, _ := cmd.Flags().GetInt("height")
	fps, _ := cmd.Flags().GetInt("fps")
	if fps <= 0 {
		fps = 10
	}

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", viper.GetInt(videoPortKey)))
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	srv := &video.CameraServer{
		Source:   &video.TestPattern{Width: width, Height: height},
		Interval: time.Second / time.Duration(fps),
	}
	log.Printf("Camera is streaming on %s", lis.Addr())
	return srv.Serve(ctx, lis)
}

func init() {
	rootCmd.AddCommand(cameraCmd)
	addCameraFlags(cameraCmd)
}

func addCameraFlags(cmd *cobra.Command) {
	cmd.Flags().Int("width", 320, "Test pattern width")
	cmd.Flags().Int("height", 240, "Test pattern height")
	cmd.Flags().Int("fps", 10, "Frames per second")
}
