package transcode

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/go-audio/riff"
)

// WAV format tags
const (
	wavFormatPCM        = 0x0001
	wavFormatFloat      = 0x0003
	wavFormatExtensible = 0xFFFE
)

// maxChannels bounds the channel count accepted from a header
const maxChannels = 8

const (
	fmtChunkSize           = 16
	fmtChunkExtensibleSize = 40
)

// waveFormat is the subset of the fmt chunk the decoder needs
type waveFormat struct {
	tag        uint16 // Format tag as written in the fmt chunk
	encoding   uint16 // Tag, or the SubFormat code of an extensible header
	channels   int
	sampleRate int
	bitDepth   int
	dataSize   int // Declared size of the data chunk in bytes
}

func (f waveFormat) bytesPerSample() int {
	return f.bitDepth / 8
}

// frames returns the number of whole frames the data chunk declares
func (f waveFormat) frames() int {
	frameBytes := f.channels * f.bytesPerSample()
	if frameBytes <= 0 {
		return 0
	}
	return f.dataSize / frameBytes
}

// scanWave walks the RIFF chunks up to the data chunk. The returned chunk is
// positioned at the first sample.
func scanWave(r io.Reader) (waveFormat, *riff.Chunk, error) {
	p := riff.New(r)
	if err := p.ParseHeaders(); err != nil {
		if errors.Is(err, io.EOF) {
			return waveFormat{}, nil, ErrEmptyInput
		}
		return waveFormat{}, nil, fmt.Errorf("%w: %v", ErrInvalidWAV, err)
	}
	if p.ID != riff.RiffID || p.Format != riff.WavFormatID {
		return waveFormat{}, nil, ErrInvalidWAV
	}

	var format waveFormat
	haveFormat := false
	for {
		chunk, err := p.NextChunk()
		if err != nil {
			return waveFormat{}, nil, fmt.Errorf("%w: no data chunk: %v", ErrInvalidWAV, err)
		}

		switch chunk.ID {
		case riff.FmtID:
			if format, err = parseFmtChunk(chunk); err != nil {
				return waveFormat{}, nil, err
			}
			haveFormat = true
		case riff.DataFormatID:
			if !haveFormat {
				return waveFormat{}, nil, fmt.Errorf("%w: data chunk before fmt chunk", ErrInvalidWAV)
			}
			format.dataSize = chunk.Size
			return format, chunk, nil
		}
		chunk.Drain()
	}
}

// parseFmtChunk decodes a PCM, float or extensible fmt chunk. For extensible
// headers the encoding comes from the first two bytes of the SubFormat GUID.
func parseFmtChunk(chunk *riff.Chunk) (waveFormat, error) {
	if chunk.Size < fmtChunkSize {
		return waveFormat{}, fmt.Errorf("%w: fmt chunk of %d bytes", ErrInvalidWAV, chunk.Size)
	}

	buf := make([]byte, min(chunk.Size, fmtChunkExtensibleSize))
	if _, err := io.ReadFull(chunk, buf); err != nil {
		return waveFormat{}, fmt.Errorf("%w: %v", ErrInvalidWAV, err)
	}

	le := binary.LittleEndian
	f := waveFormat{
		tag:        le.Uint16(buf[0:]),
		channels:   int(le.Uint16(buf[2:])),
		sampleRate: int(le.Uint32(buf[4:])),
		bitDepth:   int(le.Uint16(buf[14:])),
	}
	f.encoding = f.tag

	if f.tag == wavFormatExtensible {
		if len(buf) < fmtChunkExtensibleSize {
			return waveFormat{}, fmt.Errorf("%w: truncated extensible fmt chunk", ErrInvalidWAV)
		}
		f.encoding = le.Uint16(buf[24:])
	}
	return f, nil
}
