// Package archive keeps an optional local FLAC copy of each finalized
// recording. The upload artifact itself is untouched; this is purely a
// convenience for users who want to retain their meeting audio.
package archive

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mewkiz/flac"
	"github.com/mewkiz/flac/frame"
	"github.com/mewkiz/flac/meta"

	"github.com/rayavijit26/AI-MEETING-SUMMARIZER/audio"
)

const blockSize = 4096

type Writer struct {
	dir string
}

func New(dir string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating archive directory: %w", err)
	}
	return &Writer{dir: dir}, nil
}

// Save encodes PCM16LE mono audio to <dir>/meeting-<id>.flac and
// returns the written path.
func (w *Writer) Save(id string, pcm []byte) (string, error) {
	path := filepath.Join(w.dir, "meeting-"+id+".flac")

	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	info := &meta.StreamInfo{
		BlockSizeMin:  blockSize,
		BlockSizeMax:  blockSize,
		SampleRate:    audio.SampleRate,
		NChannels:     audio.Channels,
		BitsPerSample: audio.BitsPerSample,
		NSamples:      0,
	}
	enc, err := flac.NewEncoder(f, info)
	if err != nil {
		return "", fmt.Errorf("creating flac encoder: %w", err)
	}
	enc.EnablePredictionAnalysis(true)

	samples := make([]int16, len(pcm)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(pcm[i*2:]))
	}

	for i := 0; i < len(samples); i += blockSize {
		end := min(i+blockSize, len(samples))
		if err := encodeBlock(enc, samples[i:end]); err != nil {
			enc.Close()
			return "", err
		}
	}

	if err := enc.Close(); err != nil {
		return "", err
	}
	return path, nil
}

func encodeBlock(enc *flac.Encoder, block []int16) error {
	samples32 := make([]int32, len(block))
	for i, s := range block {
		samples32[i] = int32(s)
	}

	subframe := &frame.Subframe{
		SubHeader: frame.SubHeader{
			Pred: frame.PredVerbatim,
		},
		Samples:  samples32,
		NSamples: len(block),
	}

	f := &frame.Frame{
		Header: frame.Header{
			BlockSize:     uint16(len(block)),
			SampleRate:    audio.SampleRate,
			Channels:      frame.ChannelsMono,
			BitsPerSample: audio.BitsPerSample,
		},
		Subframes: []*frame.Subframe{subframe},
	}

	if err := enc.WriteFrame(f); err != nil {
		return fmt.Errorf("writing flac frame: %w", err)
	}
	return nil
}
