//go:build !tinygo

package main

import (
	"fmt"
	"os"
	"time"

	"watch/internal/buildinfo"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	var cfgFile string
	cmd := &cobra.Command{
		Use:     "otapush [flags] firmware.bin",
		Short:   "otapush sends a firmware image to a watch",
		Version: buildinfo.String(),
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadConfig(cmd, cfgFile)
			if err != nil {
				return err
			}
			image, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			fs, err := frames(image, c.Chunk)
			if err != nil {
				return err
			}
			s, err := dial(c)
			if err != nil {
				return err
			}
			defer s.Close()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "pushing %s (%d bytes, %d frames) via %s\n", args[0], len(image), len(fs), c.Via)
			err = push(s, fs, c.Pace, func(sent, total int) {
				fmt.Fprintf(out, "\r%d/%d", sent, total)
			})
			fmt.Fprintln(out)
			return err
		},
	}
	cmd.SilenceUsage = true

	f := cmd.Flags()
	f.StringVarP(&cfgFile, "config", "c", "", "YAML config file")
	f.String("via", "mqtt", "transport: mqtt or ws")
	f.String("broker", "tcp://127.0.0.1:1883", "MQTT broker URL")
	f.String("topic", "watch/ota", "MQTT topic the device subscribes to")
	f.String("client-id", "otapush", "MQTT client ID")
	f.String("url", "ws://127.0.0.1:8080/ota", "device WebSocket endpoint")
	f.String("user", "", "broker or HTTP basic auth user")
	f.String("password", "", "broker or HTTP basic auth password")
	f.Int("chunk", 1024, "chunk size in bytes (max 4096)")
	f.Duration("timeout", 10*time.Second, "connect and publish timeout")
	f.Duration("pace", 0, "pause between frames")
	return cmd
}
