package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os/exec"
)

// EncodeWAV encodes mono samples as a 16-bit PCM WAV file
func EncodeWAV(samples []float64, sampleRate int) []byte {
	const (
		channels      = 1
		bitsPerSample = 16
	)
	dataLen := len(samples) * bitsPerSample / 8
	blockAlign := channels * bitsPerSample / 8

	buf := bytes.NewBuffer(make([]byte, 0, 44+dataLen))
	buf.WriteString("RIFF")
	binary.Write(buf, binary.LittleEndian, uint32(36+dataLen))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(buf, binary.LittleEndian, uint32(16))
	binary.Write(buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(buf, binary.LittleEndian, uint16(channels))
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate*blockAlign))
	binary.Write(buf, binary.LittleEndian, uint16(blockAlign))
	binary.Write(buf, binary.LittleEndian, uint16(bitsPerSample))

	buf.WriteString("data")
	binary.Write(buf, binary.LittleEndian, uint32(dataLen))
	for _, s := range samples {
		s = math.Max(-1, math.Min(1, s))
		binary.Write(buf, binary.LittleEndian, int16(s*math.MaxInt16))
	}
	return buf.Bytes()
}

// CommandPlayer pipes each cue as a WAV stream into an external player such
// as "aplay -q" or "paplay".
type CommandPlayer struct {
	Command    []string
	SampleRate int
}

// NewCommandPlayer creates a player running command for every cue
func NewCommandPlayer(command []string, sampleRate int) *CommandPlayer {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	return &CommandPlayer{Command: command, SampleRate: sampleRate}
}

func (p *CommandPlayer) Play(ctx context.Context, tone Tone) error {
	if len(p.Command) == 0 {
		return errors.New("no audio command configured")
	}
	samples, err := tone.Render(p.SampleRate)
	if err != nil {
		return fmt.Errorf("failed to render tone: %w", err)
	}

	cmd := exec.CommandContext(ctx, p.Command[0], p.Command[1:]...)
	cmd.Stdin = bytes.NewReader(EncodeWAV(samples, p.SampleRate))
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("failed to run %s: %w: %s", p.Command[0], err, bytes.TrimSpace(out))
	}
	return nil
}
