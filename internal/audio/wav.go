// Package audio inspects WAV files before they are shipped to a remote
// recognizer: format details for provider content-type headers and a
// loudness gate that skips network calls for near-silent chunks.
package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"time"
)

var (
	ErrUnsupportedWAV = errors.New("unsupported wav format")
	ErrInvalidWAV     = errors.New("invalid wav file")
)

// Info describes the decoded fmt chunk plus loudness metrics over the
// data chunk.
type Info struct {
	SampleRate    int
	Channels      int
	BitsPerSample int
	Duration      time.Duration
	RMSdBFS       float64
	PeakdBFS      float64
	Samples       int64
}

// IsSilent reports whether the audio never rises meaningfully above the
// threshold. The peak gets 6 dB of headroom over the RMS threshold so a
// single click does not count as speech.
func (i Info) IsSilent(thresholdDBFS float64) bool {
	if i.Samples == 0 {
		return true
	}
	if math.IsInf(i.RMSdBFS, -1) && math.IsInf(i.PeakdBFS, -1) {
		return true
	}
	return i.RMSdBFS <= thresholdDBFS && i.PeakdBFS <= thresholdDBFS+6
}

// Inspect parses the WAV file at path. PCM (8/16/24/32 bit) and IEEE
// float (32/64 bit) data are supported.
func Inspect(path string) (Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return Info{}, fmt.Errorf("open wav: %w", err)
	}
	defer f.Close()

	info, _, err := inspect(f)
	return info, err
}

// InspectBytes parses in-memory WAV data, e.g. a web upload.
func InspectBytes(data []byte) (Info, error) {
	info, _, err := inspect(bytes.NewReader(data))
	return info, err
}

// ExtractPCM returns the raw sample data alongside the format info. The
// free Google endpoint wants headerless audio/l16 bodies.
func ExtractPCM(data []byte) ([]byte, Info, error) {
	info, pcm, err := inspect(bytes.NewReader(data))
	if err != nil {
		return nil, Info{}, err
	}
	return pcm, info, nil
}

type wavFormat struct {
	audioFormat   uint16
	channels      uint16
	sampleRate    uint32
	bitsPerSample uint16
}

func inspect(r io.ReadSeeker) (Info, []byte, error) {
	header := make([]byte, 12)
	if _, err := io.ReadFull(r, header); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return Info{}, nil, fmt.Errorf("%w: %v", ErrInvalidWAV, err)
		}
		return Info{}, nil, fmt.Errorf("read wav header: %w", err)
	}

	if string(header[:4]) != "RIFF" || string(header[8:12]) != "WAVE" {
		return Info{}, nil, ErrInvalidWAV
	}

	var (
		format     wavFormat
		dataOffset int64
		dataSize   uint32
		hasFmt     bool
		hasData    bool
	)

	for {
		chunkHeader := make([]byte, 8)
		if _, err := io.ReadFull(r, chunkHeader); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				break
			}
			return Info{}, nil, fmt.Errorf("read wav chunk header: %w", err)
		}

		chunkID := string(chunkHeader[:4])
		chunkSize := binary.LittleEndian.Uint32(chunkHeader[4:8])

		chunkStart, err := r.Seek(0, io.SeekCurrent)
		if err != nil {
			return Info{}, nil, fmt.Errorf("seek wav chunk start: %w", err)
		}

		skip := int64(chunkSize)
		if chunkSize%2 != 0 {
			skip++
		}

		switch chunkID {
		case "fmt ":
			// real fmt chunks are 16, 18, or 40 bytes
			if chunkSize < 16 || chunkSize > 4096 {
				return Info{}, nil, ErrInvalidWAV
			}

			buf := make([]byte, chunkSize)
			if _, err := io.ReadFull(r, buf); err != nil {
				return Info{}, nil, fmt.Errorf("read wav fmt chunk: %w", err)
			}

			format = wavFormat{
				audioFormat:   binary.LittleEndian.Uint16(buf[0:2]),
				channels:      binary.LittleEndian.Uint16(buf[2:4]),
				sampleRate:    binary.LittleEndian.Uint32(buf[4:8]),
				bitsPerSample: binary.LittleEndian.Uint16(buf[14:16]),
			}
			hasFmt = true

			if chunkSize%2 != 0 {
				if _, err := r.Seek(1, io.SeekCurrent); err != nil {
					return Info{}, nil, fmt.Errorf("seek wav fmt padding: %w", err)
				}
			}
		case "data":
			dataOffset = chunkStart
			dataSize = chunkSize
			hasData = true
			if _, err := r.Seek(skip, io.SeekCurrent); err != nil {
				return Info{}, nil, fmt.Errorf("seek wav data chunk: %w", err)
			}
		default:
			if _, err := r.Seek(skip, io.SeekCurrent); err != nil {
				return Info{}, nil, fmt.Errorf("seek wav chunk %s: %w", chunkID, err)
			}
		}
	}

	if !hasFmt || !hasData {
		return Info{}, nil, ErrInvalidWAV
	}

	if err := validateFormat(format.audioFormat, format.bitsPerSample); err != nil {
		return Info{}, nil, err
	}
	if format.channels == 0 || format.sampleRate == 0 {
		return Info{}, nil, ErrInvalidWAV
	}

	// The declared chunk size is untrusted input; cap it against what the
	// file actually holds before allocating.
	end, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return Info{}, nil, fmt.Errorf("seek wav end: %w", err)
	}
	if int64(dataSize) > end-dataOffset {
		return Info{}, nil, fmt.Errorf("%w: data chunk size %d exceeds file size", ErrInvalidWAV, dataSize)
	}

	if _, err := r.Seek(dataOffset, io.SeekStart); err != nil {
		return Info{}, nil, fmt.Errorf("seek wav data offset: %w", err)
	}

	data := make([]byte, dataSize)
	if _, err := io.ReadFull(r, data); err != nil {
		return Info{}, nil, fmt.Errorf("read wav data: %w", err)
	}

	peak, sumSquares, samples, err := measureSamples(data, format.audioFormat, format.bitsPerSample)
	if err != nil {
		return Info{}, nil, err
	}

	info := Info{
		SampleRate:    int(format.sampleRate),
		Channels:      int(format.channels),
		BitsPerSample: int(format.bitsPerSample),
		Samples:       samples,
	}

	frames := samples / int64(format.channels)
	info.Duration = time.Duration(float64(frames) / float64(format.sampleRate) * float64(time.Second))

	if samples == 0 {
		info.RMSdBFS = math.Inf(-1)
		info.PeakdBFS = math.Inf(-1)
		return info, data, nil
	}

	rms := math.Sqrt(sumSquares / float64(samples))
	info.RMSdBFS = amplitudeToDBFS(rms)
	info.PeakdBFS = amplitudeToDBFS(peak)
	return info, data, nil
}

func validateFormat(audioFormat, bitsPerSample uint16) error {
	switch audioFormat {
	case 1:
		switch bitsPerSample {
		case 8, 16, 24, 32:
			return nil
		}
	case 3:
		switch bitsPerSample {
		case 32, 64:
			return nil
		}
	}
	return ErrUnsupportedWAV
}

func measureSamples(data []byte, audioFormat, bitsPerSample uint16) (float64, float64, int64, error) {
	bytesPerSample := int(bitsPerSample / 8)
	if bytesPerSample <= 0 {
		return 0, 0, 0, ErrUnsupportedWAV
	}

	var peak float64
	var sumSquares float64
	var samples int64

	for i := 0; i+bytesPerSample <= len(data); i += bytesPerSample {
		value, err := decodeSample(data[i:i+bytesPerSample], audioFormat, bitsPerSample)
		if err != nil {
			return 0, 0, 0, err
		}

		abs := math.Abs(value)
		if abs > peak {
			peak = abs
		}
		sumSquares += value * value
		samples++
	}

	return peak, sumSquares, samples, nil
}

func decodeSample(sample []byte, audioFormat, bitsPerSample uint16) (float64, error) {
	if audioFormat == 3 {
		switch bitsPerSample {
		case 32:
			bits := binary.LittleEndian.Uint32(sample)
			return float64(math.Float32frombits(bits)), nil
		case 64:
			bits := binary.LittleEndian.Uint64(sample)
			return math.Float64frombits(bits), nil
		default:
			return 0, ErrUnsupportedWAV
		}
	}

	switch bitsPerSample {
	case 8:
		u := float64(sample[0])
		return (u - 128.0) / 128.0, nil
	case 16:
		v := int16(binary.LittleEndian.Uint16(sample))
		return float64(v) / 32768.0, nil
	case 24:
		v := int32(sample[0]) | int32(sample[1])<<8 | int32(sample[2])<<16
		if v&0x800000 != 0 {
			v |= ^0xFFFFFF
		}
		return float64(v) / 8388608.0, nil
	case 32:
		v := int32(binary.LittleEndian.Uint32(sample))
		return float64(v) / 2147483648.0, nil
	default:
		return 0, ErrUnsupportedWAV
	}
}

func amplitudeToDBFS(amplitude float64) float64 {
	if amplitude <= 0 {
		return math.Inf(-1)
	}
	return 20.0 * math.Log10(amplitude)
}
