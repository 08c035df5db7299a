package transcode

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/RyanBlaney/sonido-scope/logging"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

var (
	// ErrEmptyInput is returned when there is nothing to decode
	ErrEmptyInput = errors.New("empty audio data")

	// ErrInvalidWAV is returned when the input is not a RIFF/WAVE stream
	ErrInvalidWAV = errors.New("invalid WAV file format")

	// ErrUnsupportedFormat covers WAV encodings the decoder cannot read
	// (compressed payloads, odd bit depths, too many channels)
	ErrUnsupportedFormat = errors.New("unsupported WAV encoding")

	// ErrNoSamples is returned for a well-formed file without audio frames
	ErrNoSamples = errors.New("no audio samples decoded")
)

// AudioData represents a decoded single-channel buffer
type AudioData struct {
	PCM        []float64     `json:"-"` // Samples scaled to [-1, 1] for integer input
	SampleRate int           `json:"sample_rate"`
	Channels   int           `json:"channels"`  // Channels in the source file
	Channel    int           `json:"channel"`   // Channel that was extracted
	BitDepth   int           `json:"bit_depth"` // Source bit depth
	Duration   time.Duration `json:"duration"`
	Truncated  bool          `json:"truncated"` // MaxDuration cut the input short
}

// DecoderConfig holds decoder configuration
type DecoderConfig struct {
	Channel     int           `json:"channel"`      // Channel to extract from multi-channel files
	MaxDuration time.Duration `json:"max_duration"` // 0 means no limit
	ChunkFrames int           `json:"chunk_frames"` // Frames read per decoder call
}

// DefaultDecoderConfig returns default decoder configuration: first channel,
// no duration limit, 4096-frame reads.
func DefaultDecoderConfig() *DecoderConfig {
	return &DecoderConfig{
		Channel:     0,
		MaxDuration: 0,
		ChunkFrames: 4096,
	}
}

// Validate checks the decoder configuration
func (c *DecoderConfig) Validate() error {
	if c.Channel < 0 {
		return fmt.Errorf("channel must be non-negative: %d", c.Channel)
	}
	if c.MaxDuration < 0 {
		return fmt.Errorf("max duration must be non-negative: %v", c.MaxDuration)
	}
	if c.ChunkFrames <= 0 {
		return fmt.Errorf("chunk frames must be positive: %d", c.ChunkFrames)
	}
	return nil
}

// Decoder turns WAV streams into mono float64 buffers
type Decoder struct {
	config *DecoderConfig
}

// NewDecoder creates a new audio decoder
func NewDecoder(config *DecoderConfig) *Decoder {
	if config == nil {
		config = DefaultDecoderConfig()
	}
	return &Decoder{config: config}
}

// Config returns the decoder configuration
func (d *Decoder) Config() DecoderConfig {
	return *d.config
}

// DecodeFile decodes a WAV file from disk
func (d *Decoder) DecodeFile(ctx context.Context, filename string) (*AudioData, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio file: %w", err)
	}
	defer f.Close()

	return d.DecodeReader(ctx, f)
}

// DecodeBytes decodes a WAV file held in memory
func (d *Decoder) DecodeBytes(ctx context.Context, data []byte) (*AudioData, error) {
	if len(data) == 0 {
		return nil, ErrEmptyInput
	}
	return d.DecodeReader(ctx, bytes.NewReader(data))
}

// DecodeReader decodes a WAV stream. The WAV container needs random access, so
// readers that cannot seek are buffered in memory first.
//
// Integer PCM (8, 16, 24 and 32 bit) and IEEE float (32 and 64 bit) payloads
// are accepted, either with a plain or an extensible header.
func (d *Decoder) DecodeReader(ctx context.Context, reader io.Reader) (*AudioData, error) {
	logger := logging.WithContext(ctx).WithFields(logging.Fields{
		"component": "audio_decoder",
		"function":  "DecodeReader",
	})

	if err := d.config.Validate(); err != nil {
		return nil, err
	}

	rs, ok := reader.(io.ReadSeeker)
	if !ok {
		data, err := io.ReadAll(reader)
		if err != nil {
			logger.Error(err, "Failed to read data from reader")
			return nil, fmt.Errorf("failed to read audio data: %w", err)
		}
		if len(data) == 0 {
			return nil, ErrEmptyInput
		}
		rs = bytes.NewReader(data)
	}

	format, data, err := scanWave(rs)
	if err != nil {
		return nil, err
	}

	logger.Debug("WAV header parsed", logging.Fields{
		"input_sample_rate": format.sampleRate,
		"input_channels":    format.channels,
		"input_bit_depth":   format.bitDepth,
		"input_format":      format.tag,
		"input_encoding":    format.encoding,
		"data_bytes":        format.dataSize,
	})

	if err := d.checkFormat(format); err != nil {
		return nil, err
	}

	frames := format.frames()
	if frames == 0 {
		return nil, ErrNoSamples
	}
	// Sized from the declared data, capped by the configured chunk
	chunkSamples := min(d.config.ChunkFrames, frames) * format.channels

	var source sampleReader
	switch format.encoding {
	case wavFormatFloat:
		source = newFloatReader(io.LimitReader(data, int64(format.dataSize)), format, chunkSamples)
	default:
		if _, err := rs.Seek(0, io.SeekStart); err != nil {
			return nil, fmt.Errorf("failed to rewind audio data: %w", err)
		}
		source, err = newPCMReader(rs, format, frames, chunkSamples)
		if err != nil {
			return nil, err
		}
	}

	maxFrames := -1
	if d.config.MaxDuration > 0 {
		maxFrames = int(d.config.MaxDuration.Seconds() * float64(format.sampleRate))
	}

	pcm, truncated, err := d.collect(ctx, source, format.channels, chunkSamples, maxFrames)
	if err != nil {
		if ctx.Err() == nil {
			logger.Error(err, "WAV decode failed")
		}
		return nil, err
	}
	if len(pcm) == 0 {
		return nil, ErrNoSamples
	}

	result := &AudioData{
		PCM:        pcm,
		SampleRate: format.sampleRate,
		Channels:   format.channels,
		Channel:    d.config.Channel,
		BitDepth:   format.bitDepth,
		Duration:   time.Duration(float64(len(pcm)) / float64(format.sampleRate) * float64(time.Second)),
		Truncated:  truncated,
	}

	logger.Debug("WAV decode completed", logging.Fields{
		"samples":   len(pcm),
		"duration":  result.Duration.Seconds(),
		"truncated": truncated,
	})

	return result, nil
}

// checkFormat rejects headers the decoder cannot or will not read
func (d *Decoder) checkFormat(format waveFormat) error {
	if format.channels < 1 || format.sampleRate < 1 {
		return ErrInvalidWAV
	}
	if format.channels > maxChannels {
		return fmt.Errorf("%w: %d channels, at most %d supported", ErrUnsupportedFormat, format.channels, maxChannels)
	}

	switch format.encoding {
	case wavFormatPCM:
		if _, err := sampleDivisor(format.bitDepth); err != nil {
			return err
		}
	case wavFormatFloat:
		if format.bitDepth != 32 && format.bitDepth != 64 {
			return fmt.Errorf("%w: float bit depth %d", ErrUnsupportedFormat, format.bitDepth)
		}
	default:
		return fmt.Errorf("%w: format tag %#04x, encoding %#04x", ErrUnsupportedFormat, format.tag, format.encoding)
	}

	if d.config.Channel >= format.channels {
		return fmt.Errorf("%w: channel %d requested, file has %d", ErrUnsupportedFormat, d.config.Channel, format.channels)
	}
	return nil
}

// collect reads interleaved samples until the data ends or maxFrames frames
// of the selected channel are gathered. maxFrames < 0 means no limit.
func (d *Decoder) collect(ctx context.Context, source sampleReader, channels, chunkSamples, maxFrames int) ([]float64, bool, error) {
	buf := make([]float64, chunkSamples)

	var pcm []float64
	for {
		if err := ctx.Err(); err != nil {
			return nil, false, err
		}

		n, err := source.read(buf)
		if err != nil {
			return nil, false, err
		}
		frames := n / channels
		if frames == 0 {
			return pcm, false, nil
		}

		for i := range frames {
			if maxFrames >= 0 && len(pcm) == maxFrames {
				return pcm, true, nil
			}
			pcm = append(pcm, buf[i*channels+d.config.Channel])
		}

		if n < len(buf) {
			return pcm, false, nil
		}
	}
}

// sampleReader yields interleaved samples scaled to [-1, 1]. A short read
// means the data is exhausted.
type sampleReader interface {
	read(dst []float64) (int, error)
}

// pcmReader decodes integer PCM through go-audio. remaining stops it at the
// end of the declared data chunk.
type pcmReader struct {
	dec       *wav.Decoder
	buf       *audio.IntBuffer
	divisor   float64
	offset    int
	remaining int
}

func newPCMReader(rs io.ReadSeeker, format waveFormat, frames, samples int) (*pcmReader, error) {
	dec := wav.NewDecoder(rs)
	dec.ReadInfo()
	if !dec.IsValidFile() {
		return nil, ErrInvalidWAV
	}

	divisor, err := sampleDivisor(format.bitDepth)
	if err != nil {
		return nil, err
	}
	offset := 0
	if format.bitDepth == 8 {
		// 8-bit WAV is unsigned with a 128 midpoint
		offset = 128
	}

	return &pcmReader{
		dec: dec,
		buf: &audio.IntBuffer{
			Data:           make([]int, samples),
			Format:         &audio.Format{SampleRate: format.sampleRate, NumChannels: format.channels},
			SourceBitDepth: format.bitDepth,
		},
		divisor:   divisor,
		offset:    offset,
		remaining: frames * format.channels,
	}, nil
}

func (r *pcmReader) read(dst []float64) (int, error) {
	n, err := r.dec.PCMBuffer(r.buf)
	if err != nil && !errors.Is(err, io.EOF) {
		return 0, fmt.Errorf("error reading WAV data: %w", err)
	}
	n = min(n, len(dst), r.remaining)
	r.remaining -= n
	for i := range n {
		dst[i] = float64(r.buf.Data[i]-r.offset) / r.divisor
	}
	return n, nil
}

// floatReader decodes little-endian IEEE float samples straight from the data
// chunk; go-audio only handles integer PCM.
type floatReader struct {
	r     io.Reader
	width int
	raw   []byte
}

func newFloatReader(data io.Reader, format waveFormat, samples int) *floatReader {
	width := format.bytesPerSample()
	return &floatReader{
		r:     data,
		width: width,
		raw:   make([]byte, samples*width),
	}
}

func (r *floatReader) read(dst []float64) (int, error) {
	raw := r.raw[:min(len(r.raw), len(dst)*r.width)]
	n, err := io.ReadFull(r.r, raw)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return 0, fmt.Errorf("error reading WAV data: %w", err)
	}

	le := binary.LittleEndian
	samples := n / r.width
	for i := range samples {
		b := raw[i*r.width:]
		if r.width == 4 {
			dst[i] = float64(math.Float32frombits(le.Uint32(b)))
		} else {
			dst[i] = math.Float64frombits(le.Uint64(b))
		}
	}
	return samples, nil
}

// sampleDivisor returns the full-scale value for a PCM bit depth
func sampleDivisor(bitDepth int) (float64, error) {
	switch bitDepth {
	case 8:
		return 128.0, nil
	case 16:
		return 32768.0, nil
	case 24:
		return 8388608.0, nil
	case 32:
		return 2147483648.0, nil
	default:
		return 0, fmt.Errorf("%w: %d-bit PCM", ErrUnsupportedFormat, bitDepth)
	}
}

// GetSupportedFormats returns the container formats the decoder reads
func (d *Decoder) GetSupportedFormats() []string {
	return []string{"wav"}
}

// DecodeWAV decodes the first channel of a WAV stream with default settings
func DecodeWAV(ctx context.Context, reader io.Reader) (*AudioData, error) {
	return NewDecoder(nil).DecodeReader(ctx, reader)
}
