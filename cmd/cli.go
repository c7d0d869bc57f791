package cmd

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"pulseviz/internal/config"
	"pulseviz/pkg/build"
)

// ParseArgs builds the configuration from the config file layer plus
// command line flags. Flags only override values the user actually set,
// so file and environment settings survive unflagged runs. Returns
// (nil, nil) when cobra already handled the invocation (help, version).
func ParseArgs() (*config.Config, error) {
	buildInfo := build.GetBuildFlags()

	var (
		cfg        *config.Config
		configPath string

		deviceID        int
		channels        int
		sampleRate      float64
		framesPerBuffer int
		lowLatency      bool
		windowSize      int
		hopSize         int
		windowFunc      string
		targetFPS       int
		record          bool
		outputFile      string
		wsEnabled       bool
		udpTarget       string
		verbose         bool
	)

	rootCmd := &cobra.Command{
		Use:           buildInfo.Name,
		Short:         "Real-time audio spectrum visualizer",
		Version:       build.VersionString(),
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load(configPath)
			if err != nil {
				return err
			}
			cfg = loaded

			flags := cmd.Flags()
			if flags.Changed("device") {
				cfg.Audio.DeviceID = deviceID
			}
			if flags.Changed("channels") {
				cfg.Audio.Channels = channels
			}
			if flags.Changed("sample-rate") {
				cfg.Audio.SampleRate = sampleRate
			}
			if flags.Changed("frames-per-buffer") {
				cfg.Audio.FramesPerBuffer = framesPerBuffer
			}
			if flags.Changed("low-latency") {
				cfg.Audio.LowLatency = lowLatency
			}
			if flags.Changed("window-size") {
				cfg.Analysis.WindowSize = windowSize
			}
			if flags.Changed("hop") {
				cfg.Analysis.HopSize = hopSize
			}
			if flags.Changed("window-func") {
				cfg.Analysis.WindowFunc = windowFunc
			}
			if flags.Changed("fps") {
				cfg.Render.TargetFPS = targetFPS
			}
			if flags.Changed("record") {
				cfg.Recording.Enabled = record
			}
			if flags.Changed("output") {
				cfg.Recording.OutputFile = outputFile
			}
			if flags.Changed("ws") {
				cfg.Transport.WSEnabled = wsEnabled
			}
			if flags.Changed("udp-target") {
				cfg.Transport.UDPTargetAddress = udpTarget
				cfg.Transport.UDPEnabled = true
			}
			cfg.Verbose = verbose

			// Flag overrides re-validate since they bypass Load.
			if err := cfg.Validate(); err != nil {
				return err
			}

			if cfg.Recording.Enabled && cfg.Recording.OutputFile == "" {
				cfg.Recording.OutputFile = "recording-" +
					time.Now().UTC().Format("02-01-2006-150405") + ".wav"
			}
			return nil
		},
	}

	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List available audio devices",
		RunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load(configPath)
			if err != nil {
				return err
			}
			cfg = loaded
			cfg.Command = "list"
			return nil
		},
	}
	rootCmd.AddCommand(listCmd)

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Path to YAML configuration file")

	// Audio device configuration.
	rootCmd.PersistentFlags().IntVarP(&deviceID, "device", "d", config.DefaultDeviceID,
		"Input device ID. Use 'list' to see available devices")
	rootCmd.PersistentFlags().IntVarP(&channels, "channels", "c", config.DefaultChannels,
		"Number of input channels (1=mono, 2=stereo)")
	rootCmd.PersistentFlags().Float64VarP(&sampleRate, "sample-rate", "s", config.DefaultSampleRate,
		"Sample rate in Hertz (Hz)")
	rootCmd.PersistentFlags().IntVarP(&framesPerBuffer, "frames-per-buffer", "b", config.DefaultFramesPerBuffer,
		"Frames per capture buffer (affects latency)")
	rootCmd.PersistentFlags().BoolVarP(&lowLatency, "low-latency", "l", config.DefaultLowLatency,
		"Request low latency mode from the device")

	// Analysis configuration.
	rootCmd.PersistentFlags().IntVarP(&windowSize, "window-size", "w", config.DefaultWindowSize,
		"FFT window size in samples (power of 2)")
	rootCmd.PersistentFlags().IntVar(&hopSize, "hop", config.DefaultHopSize,
		"Hop size in samples between analysis windows")
	rootCmd.PersistentFlags().StringVar(&windowFunc, "window-func", config.DefaultWindowFunc,
		"Window function (hann, hamming, blackman, ...)")

	// Render configuration.
	rootCmd.PersistentFlags().IntVar(&targetFPS, "fps", config.DefaultTargetFPS,
		"Render loop target frames per second")

	// Recording configuration.
	rootCmd.PersistentFlags().BoolVarP(&record, "record", "r", config.DefaultRecordEnabled,
		"Record captured audio to a WAV file while visualizing")
	rootCmd.PersistentFlags().StringVarP(&outputFile, "output", "o", config.DefaultOutputFile,
		"Recording output file. Default is recording-DD-MM-YYYY-HHMMSS.wav")

	// Transport configuration.
	rootCmd.PersistentFlags().BoolVar(&wsEnabled, "ws", false,
		"Serve feature vectors over WebSocket")
	rootCmd.PersistentFlags().StringVar(&udpTarget, "udp-target", "",
		"Send binary feature packets to this UDP host:port")

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Show verbose output")

	rootCmd.SetArgs(os.Args[1:])
	if err := rootCmd.Execute(); err != nil {
		return nil, err
	}

	return cfg, nil
}
