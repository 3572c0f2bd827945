// Package audio renders the short cue played when a high priority alert is
// created.
package audio

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/t77yq/floorwatch/internal/model"
)

const (
	DefaultSampleRate = 44100

	cueDuration  = 300 * time.Millisecond
	cueStartGain = 0.1
	cueEndGain   = 0.01
	defaultFreq  = 500
)

var cueFrequencies = map[model.AlertType]float64{
	model.AlertTypeOrderLate:  800,
	model.AlertTypeStockOut:   600,
	model.AlertTypeOrderReady: 400,
}

// ErrInvalidTone is returned when a tone cannot be rendered
var ErrInvalidTone = errors.New("invalid tone")

// Tone describes a sine cue with an exponential gain decay
type Tone struct {
	Frequency float64
	Duration  time.Duration
	StartGain float64
	EndGain   float64
}

// ToneFor returns the cue for an alert type
func ToneFor(t model.AlertType) Tone {
	freq, ok := cueFrequencies[t]
	if !ok {
		freq = defaultFreq
	}
	return Tone{
		Frequency: freq,
		Duration:  cueDuration,
		StartGain: cueStartGain,
		EndGain:   cueEndGain,
	}
}

// Render synthesizes the tone as mono samples in [-1, 1]
func (t Tone) Render(sampleRate int) ([]float64, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: sample rate %d", ErrInvalidTone, sampleRate)
	}
	if t.Frequency <= 0 || t.Duration <= 0 {
		return nil, fmt.Errorf("%w: frequency %.1f, duration %s", ErrInvalidTone, t.Frequency, t.Duration)
	}
	if t.StartGain <= 0 || t.EndGain <= 0 {
		return nil, fmt.Errorf("%w: gains must be positive for an exponential ramp", ErrInvalidTone)
	}

	n := int(t.Duration.Seconds() * float64(sampleRate))
	samples := make([]float64, n)
	ratio := t.EndGain / t.StartGain
	for i := range samples {
		progress := float64(i) / float64(n)
		gain := t.StartGain * math.Pow(ratio, progress)
		phase := 2 * math.Pi * t.Frequency * float64(i) / float64(sampleRate)
		samples[i] = gain * math.Sin(phase)
	}
	return samples, nil
}

// Player plays a rendered tone
type Player interface {
	Play(ctx context.Context, tone Tone) error
}

// NopPlayer discards every tone
type NopPlayer struct{}

func (NopPlayer) Play(context.Context, Tone) error { return nil }
