package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/chaz8081/voxprompt/internal/app"
	"github.com/chaz8081/voxprompt/internal/audio"
	"github.com/chaz8081/voxprompt/internal/config"
	"github.com/chaz8081/voxprompt/internal/hotkey"
	"github.com/chaz8081/voxprompt/internal/inject"
	"github.com/chaz8081/voxprompt/internal/llm"
	"github.com/chaz8081/voxprompt/internal/log"
	"github.com/chaz8081/voxprompt/internal/models"
	"github.com/chaz8081/voxprompt/internal/transcribe"
	"github.com/chaz8081/voxprompt/internal/ui/tui"
)

var version = "dev"

func main() {
	// CLI flags
	configPath := flag.String("config", "", "path to config file (default: ~/.config/voxprompt/config.yaml)")
	envFile := flag.String("env", ".env", "dotenv file with environment overrides (ignored if missing)")
	uiMode := flag.String("ui", defaultUI, "user interface: gui or tui")
	logPath := flag.String("logpath", "", "log directory (default: OS log dir, or $VOXPROMPT_LOG_PATH)")
	size := flag.String("size", "", "whisper model size for this run (overrides config)")
	downloadModel := flag.String("download-model", "", "download the whisper model of the given size and exit")
	transcribeFile := flag.String("transcribe", "", "transcribe a 16 kHz WAV file, print the text and exit")
	reference := flag.String("reference", "", "with -transcribe: reference transcript to score WER against")
	listDevices := flag.Bool("list-devices", false, "list capture devices and exit")
	initConfig := flag.Bool("init-config", false, "write the default config file and exit")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("voxprompt", version)
		return
	}

	if *initConfig {
		path, err := config.WriteDefault()
		if err != nil {
			fatalf("config: %v", err)
		}
		if path == "" {
			fmt.Println("Config already exists at", config.DefaultConfigPath())
			return
		}
		fmt.Println("Wrote default config to", path)
		return
	}

	// Load configuration
	cfg, note, err := loadConfig(*configPath)
	if err != nil {
		fatalf("config: %v", err)
	}
	if err := cfg.LoadEnv(*envFile); err != nil {
		fatalf("config: %v", err)
	}
	if *size != "" {
		cfg.Transcribe.ModelSize = *size
	}
	if err := cfg.Validate(); err != nil {
		fatalf("config validation: %v", err)
	}

	offline := *listDevices || *downloadModel != "" || *transcribeFile != ""
	if err := initLog(cfg, *logPath, offline); err != nil {
		fatalf("log: %v", err)
	}
	defer log.Close()
	log.Info(note)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch {
	case *listDevices:
		err = runListDevices(cfg)
	case *downloadModel != "":
		err = runDownload(ctx, cfg, *downloadModel)
	case *transcribeFile != "":
		err = runTranscribe(ctx, cfg, *transcribeFile, *reference)
	default:
		err = run(ctx, cfg, *uiMode)
	}
	if err != nil {
		log.Errorf("%v", err)
		log.Close()
		fatalf("%v", err)
	}
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "voxprompt: "+format+"\n", args...)
	os.Exit(1)
}

// loadConfig loads the config from the specified path, or falls back to
// the default config path, or uses built-in defaults. The returned note says
// which one was used.
func loadConfig(path string) (*config.Config, string, error) {
	if path != "" {
		cfg, err := config.Load(path)
		if err != nil {
			return nil, "", err
		}
		return cfg, "Config loaded from " + path, nil
	}

	// Try default config path
	defaultPath := config.DefaultConfigPath()
	if _, err := os.Stat(defaultPath); err == nil {
		cfg, err := config.Load(defaultPath)
		if err != nil {
			return nil, "", fmt.Errorf("loading %s: %w", defaultPath, err)
		}
		return cfg, "Config loaded from " + defaultPath, nil
	}

	// No config file, use defaults
	return config.Default(), "No config file found, using defaults", nil
}

// initLog opens the log files. One-shot commands also echo diagnostics to
// stderr; the interactive shells own the terminal so they only log to files.
func initLog(cfg *config.Config, flagPath string, echo bool) error {
	if flagPath == "" {
		flagPath = cfg.LogDir
	}
	dir, err := log.ResolveDir(flagPath)
	if err != nil {
		return err
	}
	log.SetDir(dir)

	var w io.Writer
	if echo {
		w = os.Stderr
	}
	return log.Init(config.ParseLogLevel(cfg.LogLevel), w)
}

// run starts the interactive client and blocks until the user quits.
func run(ctx context.Context, cfg *config.Config, mode string) error {
	client := llm.NewClient(cfg.LLM.Host, cfg.LLM.Model, cfg.LLM.Timeout)
	engine := transcribe.NewEngine(cfg.Transcribe, nil)

	// A missing microphone only disables recording.
	var capture app.Capture
	recorder, err := audio.NewRecorder(cfg.Audio.SampleRate, cfg.Audio.Channels, cfg.Audio.Device)
	if err != nil {
		log.Warnf("audio capture unavailable, recording disabled: %v", err)
	} else {
		defer recorder.Close()
		capture = recorder
	}

	ctrl := app.New(cfg, client, capture, engine)

	log.SessionStart(cfg.LLM.Model, cfg.Transcribe.ModelSize, mode)
	defer func() { log.SessionEnd(ctrl.Prompts()) }()

	// Extra sinks ride along with the UI's own.
	var extra app.Sinks
	if cfg.Hotkey.Enabled && capture != nil {
		inj, err := startHotkey(ctx, cfg.Hotkey, ctrl)
		if err != nil {
			log.Warnf("hotkey disabled: %v", err)
		} else if inj != nil {
			extra = append(extra, inj)
		}
	}

	switch mode {
	case "gui":
		printBanner(cfg)
		return runGUI(ctx, ctrl, cfg, extra)
	case "tui":
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			return errors.New("the terminal UI needs an interactive terminal (try -ui gui)")
		}
		ui := tui.New(ctx, ctrl)
		ctrl.SetSink(append(app.Sinks{ui}, extra...))
		return ui.Run()
	default:
		return fmt.Errorf("unknown -ui %q (want gui or tui)", mode)
	}
}

// startHotkey lets the global hotkey start and stop recordings. When
// hc.Inject is set, the returned injector must be attached as a sink so
// answers to hotkey recordings reach the focused application. The listener
// is never stopped explicitly: the process exits instead, which avoids
// gohook's C cleanup crash.
func startHotkey(ctx context.Context, hc config.HotkeyConfig, ctrl *app.Controller) (*inject.Injector, error) {
	listener, err := hotkey.NewListener(hc.Keys, hc.Mode)
	if err != nil {
		return nil, err
	}

	var inj *inject.Injector
	var rec hotkey.Recorder = ctrl
	if hc.Inject != "" {
		inj, err = inject.New(hc.Inject)
		if err != nil {
			return nil, err
		}
		rec = armingRecorder{Controller: ctrl, inj: inj}
	}

	go listener.Start()
	go hotkey.Drive(ctx, listener.Events(), rec, func(err error) {
		log.Warnf("hotkey: %v", err)
	})
	log.Infof("Hotkey listener ready (%s, mode: %s)", strings.Join(hc.Keys, "+"), hc.Mode)
	return inj, nil
}

// armingRecorder arms the injector whenever the hotkey starts a recording.
type armingRecorder struct {
	*app.Controller
	inj *inject.Injector
}

func (r armingRecorder) StartRecording() error {
	if err := r.Controller.StartRecording(); err != nil {
		return err
	}
	r.inj.Arm()
	return nil
}

func runListDevices(cfg *config.Config) error {
	recorder, err := audio.NewRecorder(cfg.Audio.SampleRate, cfg.Audio.Channels, "")
	if err != nil {
		return fmt.Errorf("initializing audio: %w", err)
	}
	defer recorder.Close()

	devices, err := recorder.Devices()
	if err != nil {
		return err
	}
	for _, d := range devices {
		marker := " "
		if d.IsDefault {
			marker = "*"
		}
		fmt.Printf("%s %s\n", marker, d.Name)
	}
	return nil
}

func runDownload(ctx context.Context, cfg *config.Config, size string) error {
	path, err := models.Download(ctx, cfg.Transcribe.ModelsDir, size, os.Stdout)
	if err != nil {
		return err
	}
	fmt.Println("Model ready:", path)
	return nil
}

func runTranscribe(ctx context.Context, cfg *config.Config, wavPath, reference string) error {
	engine := transcribe.NewEngine(cfg.Transcribe, os.Stderr)

	start := time.Now()
	text, err := engine.TranscribeFile(ctx, cfg.Transcribe.ModelSize, wavPath)
	if err != nil {
		return err
	}
	log.Infof("Transcribed %s with whisper %s in %s", wavPath, cfg.Transcribe.ModelSize, time.Since(start).Round(time.Millisecond))

	fmt.Println(text)
	if reference != "" {
		fmt.Fprintln(os.Stderr, transcribe.ComputeWER(reference, text))
	}
	return nil
}

// printBanner displays the startup configuration summary.
func printBanner(cfg *config.Config) {
	fmt.Println("=== voxprompt ===")
	fmt.Printf("  LLM:     %s (%s)\n", cfg.LLM.Model, cfg.LLM.Host)
	fmt.Printf("  Whisper: %s (%s)\n", cfg.Transcribe.ModelSize, cfg.Transcribe.ModelsDir)
	fmt.Printf("  Audio:   %dHz, %dch\n", cfg.Audio.SampleRate, cfg.Audio.Channels)
	if cfg.Hotkey.Enabled {
		fmt.Printf("  Hotkey:  %s (%s mode)\n", strings.Join(cfg.Hotkey.Keys, "+"), cfg.Hotkey.Mode)
	}
	fmt.Printf("  Log:     %s (%s)\n", log.Dir(), cfg.LogLevel)
	fmt.Println("=================")
}
