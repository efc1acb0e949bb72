// Package cmd implements the amplimix command-line tool: a thin cobra
// front end over internal/engine for manual and integration-testing use
// of the mixing core (spec §5's "amplimix devices"/"amplimix play"/
// "amplimix bench" control surface).
package cmd

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/amplimix/amplimix/internal/assets"
	"github.com/amplimix/amplimix/internal/config"
	"github.com/amplimix/amplimix/internal/engine"
	"github.com/amplimix/amplimix/internal/layer"
	"github.com/amplimix/amplimix/internal/logging"
	"github.com/amplimix/amplimix/internal/pkgfile"
)

var configPath string

// RootCommand builds the amplimix command tree.
func RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "amplimix",
		Short: "Real-time 3D audio mixing and spatialization engine",
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to an engine YAML config file")

	root.AddCommand(devicesCommand())
	root.AddCommand(playCommand())
	root.AddCommand(benchCommand())
	return root
}

func loadSettings() (*config.Settings, error) {
	settings, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logging.Init()
	return settings, nil
}

func devicesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List playback devices visible to the audio driver",
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := engine.ListDevices()
			if err != nil {
				return err
			}
			for _, name := range names {
				fmt.Println(name)
			}
			return nil
		},
	}
}

// codecNameFor picks a codec.Open name from a package item's file
// extension; every item this CLI can play is either a wav or aac body
// (spec §6.3's asset-format scope).
func codecNameFor(name string) string {
	if strings.HasSuffix(strings.ToLower(name), ".aac") {
		return "aac"
	}
	return "wav"
}

func playCommand() *cobra.Command {
	var itemName string
	cmd := &cobra.Command{
		Use:   "play <package>",
		Short: "Open an AMPK package and play one of its sound items",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			settings, err := loadSettings()
			if err != nil {
				return err
			}

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			pkg, err := pkgfile.Open(f)
			if err != nil {
				return err
			}

			name := itemName
			if name == "" {
				items := pkg.Items()
				if len(items) == 0 {
					return fmt.Errorf("package %s has no items", args[0])
				}
				name = items[0].Name
			}

			eng, err := engine.New(settings)
			if err != nil {
				return err
			}

			opener := assets.NewCodecOpener(codecNameFor(name), func() (io.ReadSeeker, error) {
				r, ok := pkg.Open(name)
				if !ok {
					return nil, fmt.Errorf("item %q not found in package %s", name, args[0])
				}
				return r, nil
			})

			source, err := opener()
			if err != nil {
				return err
			}

			if err := eng.Run(); err != nil {
				return err
			}
			defer eng.Close()

			if _, err := eng.Mixer.Pool().Play(layer.PlayRequest{
				Source: source,
				BusID:  1,
				Gain:   1,
				Pitch:  1,
			}); err != nil {
				return err
			}

			fmt.Printf("playing %q from %s — press Ctrl+C to stop\n", name, args[0])

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
			<-sig
			return nil
		},
	}
	cmd.Flags().StringVar(&itemName, "item", "", "name of the package item to play (defaults to the first item)")
	return cmd
}

func benchCommand() *cobra.Command {
	var layerCount, blocks int
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Run a headless mixing benchmark and report average block time",
		RunE: func(c *cobra.Command, args []string) error {
			settings, err := loadSettings()
			if err != nil {
				return err
			}
			settings.Mixer.LayerPoolSize = layerCount

			eng, err := engine.New(settings)
			if err != nil {
				return err
			}

			output := make([][]float32, settings.Device.Channels)
			for i := range output {
				output[i] = make([]float32, settings.Device.BufferFrames)
			}

			start := time.Now()
			for i := 0; i < blocks; i++ {
				eng.Mixer.Mix(output, settings.Device.BufferFrames)
			}
			elapsed := time.Since(start)

			fmt.Printf("%d blocks of %d frames in %s (avg %s/block)\n",
				blocks, settings.Device.BufferFrames, elapsed, elapsed/time.Duration(blocks))
			return nil
		},
	}
	cmd.Flags().IntVar(&layerCount, "layers", 256, "layer pool size to benchmark")
	cmd.Flags().IntVar(&blocks, "blocks", 1000, "number of blocks to mix")
	return cmd
}
