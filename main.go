package main

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"

	"github.com/smazurov/ledbuttons/cmd"
	"github.com/smazurov/ledbuttons/internal/button"
	"github.com/smazurov/ledbuttons/internal/config"
	"github.com/smazurov/ledbuttons/internal/daemon"
	"github.com/smazurov/ledbuttons/internal/events"
	"github.com/smazurov/ledbuttons/internal/led"
	"github.com/smazurov/ledbuttons/internal/logging"
	"github.com/smazurov/ledbuttons/internal/metrics"
	"github.com/smazurov/ledbuttons/internal/metrics/exporters"
	"github.com/smazurov/ledbuttons/internal/mpd"
	"github.com/smazurov/ledbuttons/internal/systemd"
)

// Options for the CLI - flat structure with toml mapping.
type Options struct {
	Config  string `help:"Path to configuration file" short:"c" default:"config.toml"`
	EnvFile string `help:"Env file with LEDBUTTONS_* variables" default:"" toml:"env_file" env:"ENV_FILE"`

	// MPD settings
	MPDNetwork         string `help:"MPD network (unix, tcp)" default:"unix" toml:"mpd.network" env:"MPD_NETWORK"`
	MPDAddress         string `help:"MPD socket path or host:port" default:"/var/run/mpd/socket" toml:"mpd.address" env:"MPD_ADDRESS"`
	MPDPassword        string `help:"MPD password" default:"" toml:"mpd.password" env:"MPD_PASSWORD"`
	MPDRetryInterval   string `help:"Delay between connection attempts" default:"500ms" toml:"mpd.retry_interval" env:"MPD_RETRY_INTERVAL"`
	MPDRefreshInterval string `help:"Status refresh interval, 0 disables" default:"30s" toml:"mpd.refresh_interval" env:"MPD_REFRESH_INTERVAL"`

	// LED settings
	LEDDriver string `help:"LED driver (auto, rpio, sysfs, noop)" default:"auto" toml:"leds.driver" env:"LEDS_DRIVER"`
	LEDPins   string `help:"LED BCM pins, comma separated" default:"26,16,12,5,7" toml:"leds.pins" env:"LEDS_PINS"`
	LEDNames  string `help:"LED class names for the sysfs driver, comma separated" default:"" toml:"leds.names" env:"LEDS_NAMES"`
	LEDFPS    int    `help:"Animation frame rate" default:"25" toml:"leds.fps" env:"LEDS_FPS"`

	// Button settings
	ButtonsDriver         string `help:"Button driver (auto, rpio, noop)" default:"auto" toml:"buttons.driver" env:"BUTTONS_DRIVER"`
	ButtonsPins           string `help:"Button BCM pins: play, next, volume down, volume up" default:"20,13,6,25" toml:"buttons.pins" env:"BUTTONS_PINS"`
	ButtonsHoldTime       string `help:"Hold time before volume repeat starts" default:"500ms" toml:"buttons.hold_time" env:"BUTTONS_HOLD_TIME"`
	ButtonsRepeatInterval string `help:"Volume repeat interval while held" default:"250ms" toml:"buttons.repeat_interval" env:"BUTTONS_REPEAT_INTERVAL"`
	ButtonsDebounce       string `help:"Edge debounce window" default:"20ms" toml:"buttons.debounce" env:"BUTTONS_DEBOUNCE"`
	ButtonsPollInterval   string `help:"Button sampling interval" default:"5ms" toml:"buttons.poll_interval" env:"BUTTONS_POLL_INTERVAL"`

	VolumeStep    int    `help:"Volume change per press" default:"5" toml:"volume.step" env:"VOLUME_STEP"`
	MetricsListen string `help:"Prometheus listen address, empty disables" default:"" toml:"metrics.listen" env:"METRICS_LISTEN"`

	// Logging settings
	LoggingLevel   string `help:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat  string `help:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOGGING_FORMAT"`
	LoggingMain    string `help:"Main logging level" default:"info" toml:"logging.main" env:"LOGGING_MAIN"`
	LoggingLED     string `help:"LED logging level" default:"info" toml:"logging.led" env:"LOGGING_LED"`
	LoggingButtons string `help:"Buttons logging level" default:"info" toml:"logging.buttons" env:"LOGGING_BUTTONS"`
	LoggingMPD     string `help:"MPD logging level" default:"info" toml:"logging.mpd" env:"LOGGING_MPD"`
	LoggingDaemon  string `help:"Daemon logging level" default:"info" toml:"logging.daemon" env:"LOGGING_DAEMON"`
	LoggingConfig  string `help:"Config logging level" default:"info" toml:"logging.config" env:"LOGGING_CONFIG"`
	LoggingMetrics string `help:"Metrics logging level" default:"info" toml:"logging.metrics" env:"LOGGING_METRICS"`
}

func (o *Options) loggingConfig() logging.Config {
	return logging.Config{
		Level:  o.LoggingLevel,
		Format: o.LoggingFormat,
		Modules: map[string]string{
			"main":    o.LoggingMain,
			"led":     o.LoggingLED,
			"buttons": o.LoggingButtons,
			"mpd":     o.LoggingMPD,
			"daemon":  o.LoggingDaemon,
			"config":  o.LoggingConfig,
			"metrics": o.LoggingMetrics,
		},
	}
}

func main() {
	var cli humacli.CLI
	cli = humacli.New(func(hooks humacli.Hooks, opts *Options) {
		if loadErr := config.LoadConfig(opts, cli.Root()); loadErr != nil {
			slog.Warn("Failed to load config", "error", loadErr)
		}
		// Variables from the env file take part in a second overlay pass
		if opts.EnvFile != "" {
			if err := config.LoadEnvFile(opts.EnvFile); err != nil {
				slog.Warn("Failed to load env file", "path", opts.EnvFile, "error", err)
			} else if loadErr := config.LoadConfig(opts, cli.Root()); loadErr != nil {
				slog.Warn("Failed to load config", "error", loadErr)
			}
		}

		logging.Initialize(opts.loggingConfig())
		logger := logging.GetLogger("main")

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})

		hooks.OnStart(func() {
			defer close(done)
			if err := run(ctx, opts, logger); err != nil {
				logger.Error("Daemon failed", "error", err)
				os.Exit(1)
			}
		})

		hooks.OnStop(func() {
			logger.Info("Shutting down")
			cancel()
			select {
			case <-done:
			case <-time.After(5 * time.Second):
				logger.Warn("Shutdown timed out")
			}
		})
	})

	cli.Root().Use = "ledbuttons"
	cli.Root().Short = "Front panel LEDs and buttons for MPD"
	cli.Root().AddCommand(cmd.CreateLEDsCmd())
	cli.Root().AddCommand(cmd.CreateVersionCmd())

	cli.Run()
}

// run builds every component from opts and runs the daemon until ctx is done.
func run(ctx context.Context, opts *Options, logger *slog.Logger) error {
	bus := events.New()
	defer metrics.Subscribe(bus)()

	ledPins, err := config.ParseInts(opts.LEDPins)
	if err != nil {
		return err
	}
	buttonPins, err := config.ParseInts(opts.ButtonsPins)
	if err != nil {
		return err
	}

	ledLogger := logging.GetLogger("led")
	controller, err := led.New(led.Config{
		Driver: opts.LEDDriver,
		Pins:   ledPins,
		Names:  splitList(opts.LEDNames),
	}, ledLogger)
	if err != nil {
		return err
	}

	// The engine reports failures to the daemon, which is created later
	var d *daemon.Daemon
	engine := led.NewEngine(controller, led.EngineOptions{
		FPS: opts.LEDFPS,
		OnError: func(err error) {
			if d != nil {
				d.Fail("led", err)
			}
		},
		OnFrame: metrics.RecordAnimationFrame,
		Logger:  ledLogger,
	})
	leds := led.NewManager(engine, bus, led.DefaultManagerOptions(), ledLogger)
	leds.Start()

	buttonLogger := logging.GetLogger("buttons")
	input, err := button.NewInput(button.InputConfig{Driver: opts.ButtonsDriver, Pins: buttonPins}, buttonLogger)
	if err != nil {
		leds.Close()
		return err
	}
	board, err := button.NewBoard(input, buttonConfigs(opts), config.ParseDuration(opts.ButtonsPollInterval, button.DefaultPollInterval), buttonLogger)
	if err != nil {
		input.Close()
		leds.Close()
		return err
	}

	conn := mpd.NewManager(mpd.NewClient(), mpd.Options{
		Endpoint: mpd.Endpoint{
			Network:  opts.MPDNetwork,
			Address:  opts.MPDAddress,
			Password: opts.MPDPassword,
		},
		RetryInterval: config.ParseDuration(opts.MPDRetryInterval, mpd.DefaultRetryInterval),
		OnStateChange: daemon.ConnectionEvents(bus),
		OnStatus:      daemon.PlaybackEvents(bus),
		Logger:        logging.GetLogger("mpd"),
	})

	daemonOpts := daemon.DefaultOptions()
	daemonOpts.VolumeStep = opts.VolumeStep
	daemonOpts.RefreshInterval = config.ParseDuration(opts.MPDRefreshInterval, daemon.DefaultRefreshInterval)

	d, err = daemon.New(leds, conn, board, systemd.NewNotifier(logger), bus, daemonOpts, logging.GetLogger("daemon"))
	if err != nil {
		board.Close()
		conn.Close()
		leds.Close()
		return err
	}

	if opts.MetricsListen != "" {
		metricsLogger := logging.GetLogger("metrics")
		go func() {
			if err := exporters.Serve(ctx, opts.MetricsListen, metricsLogger); err != nil {
				metricsLogger.Warn("Metrics server stopped", "error", err)
			}
		}()
	}

	watchConfig(ctx, opts.Config, d)

	logger.Info("Starting ledbuttons",
		"mpd", opts.MPDNetwork+":"+opts.MPDAddress,
		"leds", engine.Len(),
		"buttons", board.Len())
	return d.Run(ctx)
}

// watchConfig applies logging levels and the volume step when the config
// file changes.
func watchConfig(ctx context.Context, path string, d *daemon.Daemon) {
	if path == "" {
		return
	}
	if _, err := os.Stat(path); err != nil {
		return
	}

	logger := logging.GetLogger("config")
	watcher := config.NewWatcher(path, config.LoadRuntime, logger)
	watcher.OnReload(func(rt config.Runtime) {
		logging.SetLevels(rt.Logging)
		d.SetVolumeStep(rt.VolumeStep)
	})
	go func() {
		if err := watcher.Run(ctx); err != nil {
			logger.Warn("Config watcher unavailable", "error", err)
		}
	}()
}

func buttonConfigs(opts *Options) []button.Config {
	debounce := config.ParseDuration(opts.ButtonsDebounce, 20*time.Millisecond)
	volume := func(name string) button.Config {
		return button.Config{
			Name:           name,
			HoldTime:       config.ParseDuration(opts.ButtonsHoldTime, 500*time.Millisecond),
			HoldRepeat:     true,
			RepeatInterval: config.ParseDuration(opts.ButtonsRepeatInterval, 250*time.Millisecond),
			Debounce:       debounce,
		}
	}
	return []button.Config{
		daemon.ButtonPlay:       {Name: "play", Debounce: debounce},
		daemon.ButtonNext:       {Name: "next", Debounce: debounce},
		daemon.ButtonVolumeDown: volume("volume_down"),
		daemon.ButtonVolumeUp:   volume("volume_up"),
	}
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
