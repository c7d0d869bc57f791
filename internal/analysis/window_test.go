// SPDX-License-Identifier: MIT
package analysis

import (
	"math"
	"testing"
)

func TestParseWindowFunc(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    WindowFunc
		wantErr bool
	}{
		{"Hann", "hann", Hann, false},
		{"Hanning Alias", "hanning", Hann, false},
		{"Case Insensitive", "HAMMING", Hamming, false},
		{"Blackman", "blackman", Blackman, false},
		{"BlackmanNuttall", "blackmannuttall", BlackmanNuttall, false},
		{"BartlettHann", "bartletthann", BartlettHann, false},
		{"Lanczos", "lanczos", Lanczos, false},
		{"Nuttall", "nuttall", Nuttall, false},
		{"Unknown", "kaiser", Hann, true},
		{"Empty", "", Hann, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseWindowFunc(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseWindowFunc(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseWindowFunc(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestWindowFuncStringRoundTrip(t *testing.T) {
	funcs := []WindowFunc{BartlettHann, Blackman, BlackmanNuttall, Hann, Hamming, Lanczos, Nuttall}
	for _, w := range funcs {
		parsed, err := ParseWindowFunc(w.String())
		if err != nil {
			t.Errorf("ParseWindowFunc(%q) failed: %v", w.String(), err)
			continue
		}
		if parsed != w {
			t.Errorf("round trip %v -> %q -> %v", w, w.String(), parsed)
		}
	}
}

func TestWindowCoefficients(t *testing.T) {
	const size = 1024

	coeffs := windowCoefficients(size, Hann)
	if len(coeffs) != size {
		t.Fatalf("len(coeffs) = %d, want %d", len(coeffs), size)
	}

	// Hann tapers to zero at the edges and peaks mid-window.
	if coeffs[0] > 1e-9 {
		t.Errorf("coeffs[0] = %f, want ~0", coeffs[0])
	}
	if math.Abs(coeffs[size/2]-1.0) > 0.01 {
		t.Errorf("coeffs[mid] = %f, want ~1", coeffs[size/2])
	}
	for i, c := range coeffs {
		if c < 0 || c > 1 {
			t.Fatalf("coeffs[%d] = %f outside [0, 1]", i, c)
		}
	}
}
