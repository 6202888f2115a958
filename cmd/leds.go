package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/smazurov/ledbuttons/internal/led"
	"github.com/smazurov/ledbuttons/internal/logging"
)

// CreateLEDsCmd creates the leds command with its test subcommand.
func CreateLEDsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "leds",
		Short: "LED utilities",
	}
	cmd.AddCommand(createLEDTestCmd())
	return cmd
}

func createLEDTestCmd() *cobra.Command {
	var cfg led.Config
	var fps int
	var duration time.Duration

	cmd := &cobra.Command{
		Use:   "test",
		Short: "Play every animation once on the configured LEDs",
		Long: `Plays the loading sweep, the fade-in and the acknowledgment blink in turn, ` +
			`then holds every LED at full brightness. Use it to check LED wiring without an MPD server.`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			logging.Initialize(logging.Config{Level: "info", Format: "text"})
			logger := logging.GetLogger("led")

			controller, err := led.New(cfg, logger)
			if err != nil {
				return fmt.Errorf("open LEDs: %w", err)
			}
			return runLEDTest(controller, fps, duration, func(name string) {
				fmt.Fprintf(c.OutOrStdout(), "playing %s\n", name)
			})
		},
	}

	cmd.Flags().StringVar(&cfg.Driver, "driver", led.DriverAuto, "LED driver (auto, rpio, sysfs, noop)")
	cmd.Flags().IntSliceVar(&cfg.Pins, "pins", []int{26, 16, 12, 5, 7}, "BCM pin numbers for the rpio driver")
	cmd.Flags().StringSliceVar(&cfg.Names, "names", nil, "LED class names for the sysfs driver")
	cmd.Flags().IntVar(&fps, "fps", led.DefaultFPS, "Animation frame rate")
	cmd.Flags().DurationVar(&duration, "duration", 1500*time.Millisecond, "Duration of each animation")
	return cmd
}

// runLEDTest plays the test sequence and turns the LEDs off. The engine
// closes controller.
func runLEDTest(controller led.Controller, fps int, duration time.Duration, announce func(string)) error {
	var failed error
	engine := led.NewEngine(controller, led.EngineOptions{
		FPS:     fps,
		OnError: func(err error) { failed = err },
	})

	n := engine.Len()
	sequence := []struct {
		anim led.Animation
		hold time.Duration
	}{
		{anim: led.Swish(n, engine.FPS(), duration, 0.3)},
		{anim: led.FadeIn(n, engine.FPS(), duration)},
		{anim: led.BlinkOff(n, engine.FPS(), duration/4)},
		{anim: led.Solid(n, 1), hold: duration},
	}
	for _, step := range sequence {
		announce(step.anim.Name)
		engine.Play(step.anim, 1)
		engine.Wait()
		if failed != nil {
			break
		}
		time.Sleep(step.hold)
	}

	if err := engine.Close(); err != nil && failed == nil {
		failed = err
	}
	return failed
}
