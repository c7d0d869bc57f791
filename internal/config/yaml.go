// SPDX-License-Identifier: MIT
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"pulseviz/pkg/bitint"
)

// Load builds the configuration: defaults, then the YAML file at path
// (or "config.yaml" in the working directory if path is empty and the
// file exists), then environment variable overrides. The result is
// validated before it is returned.
func Load(path string) (*Config, error) {
	cfg := New()

	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks ranges and the analysis window geometry. Geometry
// violations are configuration bugs, not runtime conditions, so callers
// treat them as fatal.
func (c *Config) Validate() error {
	if c.Audio.Channels < 1 || c.Audio.Channels > 2 {
		return fmt.Errorf("audio.channels must be 1 or 2, got %d", c.Audio.Channels)
	}
	if c.Audio.SampleRate < MinSampleRate || c.Audio.SampleRate > MaxSampleRate {
		return fmt.Errorf("audio.sample_rate must be in [%d, %d], got %g",
			MinSampleRate, MaxSampleRate, c.Audio.SampleRate)
	}
	if c.Audio.FramesPerBuffer < 1 || c.Audio.FramesPerBuffer > MaxBufferFrames {
		return fmt.Errorf("audio.frames_per_buffer must be in [1, %d], got %d",
			MaxBufferFrames, c.Audio.FramesPerBuffer)
	}
	if c.Audio.RingMillis < 1 {
		return fmt.Errorf("audio.ring_millis must be positive, got %d", c.Audio.RingMillis)
	}
	if !bitint.IsPowerOfTwo(c.Analysis.WindowSize) || c.Analysis.WindowSize > MaxWindowSize {
		return fmt.Errorf("analysis.window_size must be a power of 2 <= %d, got %d",
			MaxWindowSize, c.Analysis.WindowSize)
	}
	if c.Analysis.HopSize < 1 || c.Analysis.HopSize >= c.Analysis.WindowSize {
		return fmt.Errorf("analysis.hop_size must be in [1, window_size), got %d",
			c.Analysis.HopSize)
	}
	if c.Analysis.Gate < 0 || c.Analysis.Gate > 1 {
		return fmt.Errorf("analysis.gate must be in [0, 1], got %g", c.Analysis.Gate)
	}
	if c.Render.TargetFPS < MinTargetFPS || c.Render.TargetFPS > MaxTargetFPS {
		return fmt.Errorf("render.target_fps must be in [%d, %d], got %d",
			MinTargetFPS, MaxTargetFPS, c.Render.TargetFPS)
	}
	if c.Transport.UDPEnabled {
		if c.Transport.UDPTargetAddress == "" {
			return fmt.Errorf("transport.udp_target_address must be set when UDP is enabled")
		}
		if c.Transport.UDPSendMillis <= 0 {
			return fmt.Errorf("transport.udp_send_millis must be positive when UDP is enabled")
		}
	}
	return nil
}

// applyEnvOverrides applies PULSEVIZ_* environment variables on top of
// whatever the file layer produced.
func (c *Config) applyEnvOverrides() {
	if val, ok := os.LookupEnv("PULSEVIZ_DEBUG"); ok {
		if b, err := strconv.ParseBool(val); err == nil {
			c.Debug = b
		}
	}
	if val, ok := os.LookupEnv("PULSEVIZ_LOG_LEVEL"); ok {
		c.LogLevel = val
	}
	if val, ok := os.LookupEnv("PULSEVIZ_DEVICE"); ok {
		if n, err := strconv.Atoi(val); err == nil {
			c.Audio.DeviceID = n
		}
	}
	if val, ok := os.LookupEnv("PULSEVIZ_SAMPLE_RATE"); ok {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			c.Audio.SampleRate = f
		}
	}
	if val, ok := os.LookupEnv("PULSEVIZ_WS_ENABLED"); ok {
		if b, err := strconv.ParseBool(val); err == nil {
			c.Transport.WSEnabled = b
		}
	}
	if val, ok := os.LookupEnv("PULSEVIZ_UDP_ENABLED"); ok {
		if b, err := strconv.ParseBool(val); err == nil {
			c.Transport.UDPEnabled = b
		}
	}
	if val, ok := os.LookupEnv("PULSEVIZ_UDP_TARGET_ADDRESS"); ok {
		c.Transport.UDPTargetAddress = val
	}
}
