package transcode

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/RyanBlaney/sonido-genre/errs"
	"github.com/RyanBlaney/sonido-genre/logging"
)

const (
	// Magic is ".snd" read as a big-endian word
	Magic uint32 = 0x2e736e64

	// HeaderSize is the fixed part of the header: six 32-bit words
	HeaderSize = 24

	// UnknownDataSize marks a payload that runs to end of file
	UnknownDataSize uint32 = 0xffffffff

	// maxPrealloc bounds the sample buffer reserved from an untrusted header
	maxPrealloc = 1 << 20

	// Extension is the only file extension DecodeFile accepts in strict mode
	Extension = ".au"
)

// Header is the fixed big-endian preamble of an .au file
type Header struct {
	Magic      uint32   `json:"magic"`
	DataOffset uint32   `json:"data_offset"`
	DataSize   uint32   `json:"data_size"`
	Encoding   Encoding `json:"encoding"`
	SampleRate uint32   `json:"sample_rate"`
	Channels   uint32   `json:"channels"`
}

func (h Header) String() string {
	size := "unknown"
	if h.DataSize != UnknownDataSize {
		size = humanSize(h.DataSize)
	}
	return fmt.Sprintf("magic=%#08x offset=%d size=%s encoding=%s rate=%dHz channels=%d",
		h.Magic, h.DataOffset, size, h.Encoding, h.SampleRate, h.Channels)
}

func humanSize(n uint32) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.2fMB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.2fKB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%dB", n)
	}
}

// AudioData represents decoded audio data
type AudioData struct {
	PCM        []float64     `json:"-"` // raw int16 sample values
	SampleRate int           `json:"sample_rate"`
	Channels   int           `json:"channels"`
	Duration   time.Duration `json:"duration"`
	Header     Header        `json:"header"`
	Path       string        `json:"path,omitempty"`
}

// DecoderConfig holds decoder configuration
type DecoderConfig struct {
	// StrictExtension rejects files whose name does not end in .au
	StrictExtension bool `json:"strict_extension" yaml:"strict_extension"`
	// MaxSamples caps the number of samples read; zero means no cap
	MaxSamples int `json:"max_samples" yaml:"max_samples"`
}

// DefaultDecoderConfig returns default decoder configuration
func DefaultDecoderConfig() *DecoderConfig {
	return &DecoderConfig{
		StrictExtension: true,
		MaxSamples:      0,
	}
}

// Decoder reads Sun .au containers holding 16-bit linear PCM
type Decoder struct {
	config *DecoderConfig
	logger logging.Logger
}

// NewDecoder creates a new audio decoder
func NewDecoder(config *DecoderConfig, logger logging.Logger) *Decoder {
	if config == nil {
		config = DefaultDecoderConfig()
	}
	return &Decoder{
		config: config,
		logger: logging.OrGlobal(logger).WithFields(logging.Fields{"component": "au_decoder"}),
	}
}

// DecodeFile opens and decodes an .au file
func (d *Decoder) DecodeFile(filename string) (*AudioData, error) {
	logger := d.logger.WithFields(logging.Fields{
		"function": "DecodeFile",
		"filename": filename,
	})

	if d.config.StrictExtension && !strings.EqualFold(filepath.Ext(filename), Extension) {
		return nil, fmt.Errorf("%w: %s is not an %s file", errs.ErrFormat, filename, Extension)
	}

	f, err := os.Open(filename)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", errs.ErrNotFound, filename)
		}
		return nil, fmt.Errorf("%w: cannot open %s: %v", errs.ErrFormat, filename, err)
	}
	defer f.Close()

	audio, err := d.DecodeReader(bufio.NewReader(f))
	if err != nil {
		logger.Debug("Decode failed", logging.Fields{"error": err.Error()})
		return nil, fmt.Errorf("decode %s: %w", filename, err)
	}
	audio.Path = filename

	logger.Debug("Decoded audio file", logging.Fields{
		"samples":     len(audio.PCM),
		"sample_rate": audio.SampleRate,
		"channels":    audio.Channels,
	})
	return audio, nil
}

// ReadHeader parses and validates the six header words
func ReadHeader(r io.Reader) (Header, error) {
	var words [6]uint32
	if err := binary.Read(r, binary.BigEndian, &words); err != nil {
		return Header{}, fmt.Errorf("%w: short header: %v", errs.ErrFormat, err)
	}

	h := Header{
		Magic:      words[0],
		DataOffset: words[1],
		DataSize:   words[2],
		Encoding:   Encoding(words[3]),
		SampleRate: words[4],
		Channels:   words[5],
	}

	if h.Magic != Magic {
		return h, fmt.Errorf("%w: bad magic %#08x", errs.ErrFormat, h.Magic)
	}
	if h.DataOffset < HeaderSize {
		return h, fmt.Errorf("%w: data offset %d inside header", errs.ErrFormat, h.DataOffset)
	}
	if h.Encoding != EncodingLinear16 {
		return h, fmt.Errorf("%w: encoding %d (%s)", errs.ErrUnsupported, uint32(h.Encoding), h.Encoding)
	}
	return h, nil
}

// DecodeReader decodes an .au stream positioned at its first byte
func (d *Decoder) DecodeReader(r io.Reader) (*AudioData, error) {
	h, err := ReadHeader(r)
	if err != nil {
		return nil, err
	}

	// annotation field between header and samples
	if skip := int64(h.DataOffset) - HeaderSize; skip > 0 {
		if _, err := io.CopyN(io.Discard, r, skip); err != nil {
			return nil, fmt.Errorf("%w: header annotation truncated: %v", errs.ErrFormat, err)
		}
	}

	payload := r
	capacity := 0
	if h.DataSize != UnknownDataSize {
		payload = io.LimitReader(r, int64(h.DataSize))
		capacity = int(h.DataSize / 2)
	}
	if d.config.MaxSamples > 0 {
		payload = io.LimitReader(payload, int64(d.config.MaxSamples)*2)
		if capacity == 0 || capacity > d.config.MaxSamples {
			capacity = d.config.MaxSamples
		}
	}

	pcm, err := readSamples(payload, min(capacity, maxPrealloc))
	if err != nil {
		return nil, err
	}

	audio := &AudioData{
		PCM:        pcm,
		SampleRate: int(h.SampleRate),
		Channels:   int(h.Channels),
		Header:     h,
	}
	if h.SampleRate > 0 && h.Channels > 0 {
		frames := float64(len(pcm)) / float64(h.Channels)
		audio.Duration = time.Duration(frames / float64(h.SampleRate) * float64(time.Second))
	}
	return audio, nil
}

// readSamples converts big-endian int16 words to float64 until EOF.
// A trailing odd byte is dropped.
func readSamples(r io.Reader, capacity int) ([]float64, error) {
	pcm := make([]float64, 0, capacity)
	buf := make([]byte, 4096)
	carry := 0

	for {
		n, err := r.Read(buf[carry:])
		n += carry
		even := n &^ 1
		for i := 0; i < even; i += 2 {
			pcm = append(pcm, float64(int16(binary.BigEndian.Uint16(buf[i:]))))
		}
		carry = n - even
		if carry > 0 {
			buf[0] = buf[even]
		}

		if errors.Is(err, io.EOF) {
			return pcm, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read samples: %w", err)
		}
	}
}

// GetSupportedFormats returns the encodings this decoder accepts
func (d *Decoder) GetSupportedFormats() []Encoding {
	return []Encoding{EncodingLinear16}
}
