package config

// Core configuration constants that define the boundaries and defaults
// for the capture and analysis pipeline.
const (
	// Default values for the audio capture configuration.
	DefaultChannels        = 1           // Mono capture
	DefaultDeviceID        = MinDeviceID // System default input device
	DefaultFramesPerBuffer = 512         // Balanced latency/performance
	DefaultLowLatency      = false       // Standard latency mode
	DefaultSampleRate      = 44100       // CD-quality audio

	// Default values for spectral analysis.
	DefaultWindowSize = 1024   // FFT window length (power of 2)
	DefaultHopSize    = 512    // Samples advanced between windows
	DefaultWindowFunc = "hann" // Window function name
	DefaultGate       = 0.001  // Amplitude gate threshold (0 disables)

	// Default values for rendering and buffering.
	DefaultTargetFPS  = 60  // Render loop rate
	DefaultRingMillis = 200 // Ring buffer depth in milliseconds of audio

	// Defaults for recording.
	DefaultRecordEnabled = false
	DefaultOutputFile    = "" // Auto-generated filename when empty

	// Hardware and processing limits.
	MinDeviceID     = -1     // -1 selects the system default device
	MinSampleRate   = 8000   // Minimum usable sample rate (Hz)
	MaxSampleRate   = 192000 // Maximum supported sample rate (Hz)
	MaxBufferFrames = 8192   // Maximum frames per buffer
	MaxWindowSize   = 16384  // Maximum FFT window length
	MinTargetFPS    = 1
	MaxTargetFPS    = 240
)

// Config holds all runtime configuration for the pipeline. It is built
// from defaults, then an optional YAML file, then environment overrides,
// then command line flags. No runtime reconfiguration: the pipeline
// reads it once at startup.
type Config struct {
	Debug    bool   `yaml:"debug"`
	LogLevel string `yaml:"log_level"`

	Audio     AudioConfig     `yaml:"audio"`
	Analysis  AnalysisConfig  `yaml:"analysis"`
	Render    RenderConfig    `yaml:"render"`
	Recording RecordingConfig `yaml:"recording"`
	Transport TransportConfig `yaml:"transport"`

	// Set by the CLI, never from file.
	Command string `yaml:"-"` // One-off command ("list") instead of running the pipeline
	Verbose bool   `yaml:"-"`
}

// AudioConfig holds capture settings.
type AudioConfig struct {
	DeviceID        int     `yaml:"device"`            // PortAudio input device index (-1 for default)
	Channels        int     `yaml:"channels"`          // Input channels to capture (1=mono, 2=stereo)
	SampleRate      float64 `yaml:"sample_rate"`       // Sample rate in Hz
	FramesPerBuffer int     `yaml:"frames_per_buffer"` // Frames delivered per capture callback
	LowLatency      bool    `yaml:"low_latency"`       // Request low latency from the device
	RingMillis      int     `yaml:"ring_millis"`       // Frame ring depth in milliseconds of audio
}

// AnalysisConfig holds spectral analysis settings.
type AnalysisConfig struct {
	WindowSize int     `yaml:"window_size"` // FFT window length, power of 2, > HopSize
	HopSize    int     `yaml:"hop_size"`    // Samples advanced between successive windows
	WindowFunc string  `yaml:"window_func"` // Window function name (hann, hamming, ...)
	Gate       float64 `yaml:"gate"`        // Amplitude gate threshold 0.0-1.0, 0 disables
}

// RenderConfig holds render loop settings.
type RenderConfig struct {
	TargetFPS int `yaml:"target_fps"` // Render loop tick rate
}

// RecordingConfig holds WAV recording settings.
type RecordingConfig struct {
	Enabled    bool   `yaml:"enabled"`
	OutputFile string `yaml:"output_file"` // Auto-generated when empty
	BitDepth   int    `yaml:"bit_depth"`   // Bit depth written to the WAV header
}

// TransportConfig holds settings for publishing feature data.
type TransportConfig struct {
	WSEnabled        bool   `yaml:"ws_enabled"`         // Serve feature vectors over WebSocket
	WSPort           string `yaml:"ws_port"`            // WebSocket listen port
	UDPEnabled       bool   `yaml:"udp_enabled"`        // Send binary feature packets over UDP
	UDPTargetAddress string `yaml:"udp_target_address"` // host:port for UDP packets
	UDPSendMillis    int    `yaml:"udp_send_millis"`    // Interval between UDP packets
}

// New returns a Config populated with defaults. This is the base before
// file, environment and flag layers are applied.
func New() *Config {
	return &Config{
		Debug:    false,
		LogLevel: "info",
		Audio: AudioConfig{
			DeviceID:        DefaultDeviceID,
			Channels:        DefaultChannels,
			SampleRate:      DefaultSampleRate,
			FramesPerBuffer: DefaultFramesPerBuffer,
			LowLatency:      DefaultLowLatency,
			RingMillis:      DefaultRingMillis,
		},
		Analysis: AnalysisConfig{
			WindowSize: DefaultWindowSize,
			HopSize:    DefaultHopSize,
			WindowFunc: DefaultWindowFunc,
			Gate:       DefaultGate,
		},
		Render: RenderConfig{
			TargetFPS: DefaultTargetFPS,
		},
		Recording: RecordingConfig{
			Enabled:    DefaultRecordEnabled,
			OutputFile: DefaultOutputFile,
			BitDepth:   32,
		},
		Transport: TransportConfig{
			WSEnabled:        false,
			WSPort:           "8080",
			UDPEnabled:       false,
			UDPTargetAddress: "127.0.0.1:9090",
			UDPSendMillis:    16, // ~60Hz
		},
	}
}

// RingFrames returns the frame ring capacity implied by RingMillis,
// always at least 2 frames.
func (c *Config) RingFrames() int {
	samples := int(c.Audio.SampleRate) * c.Audio.RingMillis / 1000
	frames := samples / c.Audio.FramesPerBuffer
	if frames < 2 {
		frames = 2
	}
	return frames
}
