package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"pulseviz/cmd"
	"pulseviz/internal/analysis"
	"pulseviz/internal/audio"
	"pulseviz/internal/buffer"
	"pulseviz/internal/config"
	applog "pulseviz/internal/log"
	"pulseviz/internal/pipeline"
	"pulseviz/internal/render"
	"pulseviz/internal/transport"
	"pulseviz/internal/transport/udp"
	"pulseviz/internal/tui"
	"pulseviz/pkg/build"
)

// numBars is the spectrum bar count presented by the terminal view.
const numBars = 48

// main is the entry point for the visualizer. The program flow is
// divided into three phases:
//
// 1. Startup (cold path):
//   - Initialize build information
//   - Initialize PortAudio
//   - Parse command line arguments into the layered configuration
//   - Execute one-off commands (device listing) if requested
//
// 2. Concurrent (hot path):
//   - Open the capture stream and start the pipeline
//   - Run the terminal UI on the main goroutine
//
// 3. Shutdown (cold path):
//   - Cancel on signal or UI quit
//   - Unwind capture, ring, analysis and render stages in order
//   - Flush the recording and close transports
func main() {
	// ==================== STARTUP PHASE ====================

	if err := build.Initialize(); err != nil {
		applog.Fatalf("Main: %v", err)
	}

	// One thread for the capture callback, one for analysis and UI.
	runtime.GOMAXPROCS(2)

	cfg, err := cmd.ParseArgs()
	if err != nil {
		applog.Fatalf("Main: %v", err)
	}
	if cfg == nil {
		return // help or version already printed
	}

	if cfg.Verbose {
		applog.SetLevel(applog.LevelDebug)
	} else if level, ok := applog.ParseLevel(cfg.LogLevel); ok {
		applog.SetLevel(level)
	}

	if err := audio.Initialize(); err != nil {
		applog.Fatalf("Main: %v", err)
	}
	defer audio.Terminate()

	if cfg.Command == "list" {
		if err := tui.StartDeviceList(); err != nil {
			// No usable terminal; fall back to a plain listing.
			if err := audio.ListDevices(); err != nil {
				applog.Fatalf("Main: %v", err)
			}
		}
		return
	}

	// ==================== CONCURRENT PHASE ====================

	pipe, prog, publisher := assemble(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if publisher != nil {
		publisher.Start()
	}

	// The pipeline runs the render loop on its own goroutine; bubbletea
	// owns the main goroutine and the terminal.
	runErr := make(chan error, 1)
	go func() {
		runErr <- pipe.Run(ctx)
		prog.Quit()
	}()

	if _, err := prog.Run(); err != nil {
		applog.Errorf("Main: terminal UI failed: %v", err)
	}

	// ==================== SHUTDOWN PHASE ====================

	// Quitting the UI cancels the pipeline; a signal quits the UI via
	// the goroutine above. Either way the pipeline unwinds fully before
	// Run returns.
	stop()
	err = <-runErr

	if publisher != nil {
		if stopErr := publisher.Stop(); stopErr != nil {
			applog.Errorf("Main: stopping UDP publisher: %v", stopErr)
		}
	}

	if err != nil {
		applog.Errorf("Main: pipeline failed: %v", err)
		os.Exit(1)
	}

	if cfg.Recording.Enabled {
		fmt.Printf("Recording saved to: %s\n", cfg.Recording.OutputFile)
	}
}

// assemble wires the configured pipeline stages together. Construction
// failures are fatal: every error here is a configuration or device
// problem the user must fix before the pipeline can run.
func assemble(cfg *config.Config) (*pipeline.Pipeline, *tea.Program, *udp.Publisher) {
	pool := audio.NewFramePool(cfg.RingFrames()+2, cfg.Audio.FramesPerBuffer, cfg.Audio.SampleRate)
	ring := buffer.NewRing(cfg.RingFrames())

	source, err := audio.NewSource(cfg, pool, ring)
	if err != nil {
		applog.Fatalf("Main: %v", err)
	}
	if err := source.Open(); err != nil {
		applog.Fatalf("Main: %v", err)
	}

	windowFunc, err := analysis.ParseWindowFunc(cfg.Analysis.WindowFunc)
	if err != nil {
		applog.Fatalf("Main: %v", err)
	}

	bus := analysis.NewBus()
	analyzer, err := analysis.NewAnalyzer(analysis.Config{
		WindowSize: cfg.Analysis.WindowSize,
		HopSize:    cfg.Analysis.HopSize,
		SampleRate: cfg.Audio.SampleRate,
		Window:     windowFunc,
		Gate:       cfg.Analysis.Gate,
	}, bus)
	if err != nil {
		applog.Fatalf("Main: %v", err)
	}

	var recorder *audio.Recorder
	if cfg.Recording.Enabled {
		recorder, err = audio.NewRecorder(cfg.Recording.OutputFile,
			cfg.Audio.SampleRate, cfg.Audio.FramesPerBuffer, cfg.Recording.BitDepth)
		if err != nil {
			applog.Fatalf("Main: %v", err)
		}
	}

	var transports []transport.Transport
	if cfg.Transport.WSEnabled {
		transports = append(transports, transport.NewWebSocketTransport(cfg.Transport.WSPort))
	}
	if cfg.Debug {
		transports = append(transports, transport.NewLoggingTransport())
	}

	var publisher *udp.Publisher
	if cfg.Transport.UDPEnabled {
		sender, err := udp.NewSender(cfg.Transport.UDPTargetAddress)
		if err != nil {
			applog.Fatalf("Main: %v", err)
		}
		interval := time.Duration(cfg.Transport.UDPSendMillis) * time.Millisecond
		publisher, err = udp.NewPublisher(interval, sender, bus)
		if err != nil {
			applog.Fatalf("Main: %v", err)
		}
	}

	model := tui.NewModel(analyzer.Onsets().Reset)
	prog := tea.NewProgram(model, tea.WithAltScreen())
	screen := tui.NewScreen(prog)

	smoother := render.NewSmoother(numBars, analyzer.Bins())
	loop, err := render.NewLoop(bus, smoother, screen, cfg.Render.TargetFPS)
	if err != nil {
		applog.Fatalf("Main: %v", err)
	}

	return pipeline.New(source, ring, analyzer, loop, recorder, transports), prog, publisher
}
