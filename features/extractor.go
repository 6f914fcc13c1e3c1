package features

import (
	"fmt"

	"github.com/RyanBlaney/sonido-genre/algorithms/common"
	"github.com/RyanBlaney/sonido-genre/algorithms/spectral"
	"github.com/RyanBlaney/sonido-genre/algorithms/stats"
	"github.com/RyanBlaney/sonido-genre/algorithms/windowing"
	"github.com/RyanBlaney/sonido-genre/errs"
	"github.com/RyanBlaney/sonido-genre/logging"
	"github.com/RyanBlaney/sonido-genre/transcode"
)

// Extractor reduces decoded audio to one feature vector. All state is fixed
// at construction, so one Extractor may serve many goroutines.
type Extractor struct {
	config     Config
	window     *windowing.Window
	fft        *spectral.FFT
	mfcc       *spectral.MFCC
	normalizer *common.Normalizer
	decoder    *transcode.Decoder
	logger     logging.Logger
}

// NewExtractor validates config and precomputes the window, FFT and filterbank.
// A nil config uses DefaultConfig; a nil decoder uses the default decoder.
func NewExtractor(config *Config, decoder *transcode.Decoder, logger logging.Logger) (*Extractor, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid extractor config: %w", err)
	}

	logger = logging.OrGlobal(logger).WithFields(logging.Fields{
		"component": "feature_extractor",
		"algorithm": config.Algorithm,
	})
	if decoder == nil {
		decoder = transcode.NewDecoder(nil, logger)
	}

	fft, err := spectral.NewFFT(config.FrameSize)
	if err != nil {
		return nil, err
	}

	window, err := windowing.New(config.Window, config.FrameSize, true)
	if err != nil {
		return nil, err
	}

	e := &Extractor{
		config:     *config,
		window:     window,
		fft:        fft,
		normalizer: common.NewNormalizer(common.NoNormalization),
		decoder:    decoder,
		logger:     logger,
	}
	if config.Normalize {
		e.normalizer = common.NewNormalizer(common.GlobalZScore)
	}

	if config.Algorithm == AlgorithmMFCC {
		e.mfcc, err = spectral.NewMFCC(config.FrameSize, config.MFCC)
		if err != nil {
			return nil, err
		}
	}

	return e, nil
}

// Config returns a copy of the extractor configuration
func (e *Extractor) Config() Config {
	return e.config
}

// Algorithm returns the configured algorithm
func (e *Extractor) Algorithm() Algorithm {
	return e.config.Algorithm
}

// Dimension returns the output vector length
func (e *Extractor) Dimension() int {
	return e.config.Dimension()
}

// Header returns the feature table column names
func (e *Extractor) Header() []string {
	return e.config.Header()
}

// ExtractFile decodes path and extracts its vector, labelled from the file name
func (e *Extractor) ExtractFile(path string) (*Vector, error) {
	audio, err := e.decoder.DecodeFile(path)
	if err != nil {
		return nil, err
	}

	values, err := e.Extract(audio)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", path, err)
	}

	return &Vector{
		Label:     LabelFromPath(path),
		Path:      path,
		Algorithm: e.config.Algorithm,
		Values:    values,
	}, nil
}

// Extract returns per-slot means followed by per-slot standard deviations
// over all frames of audio, normalized when configured.
//
// Frame k covers samples [kN, kN+N); its companion covers [kN+N/2, kN+3N/2)
// and is skipped when it would run past the signal. Every frame is a separate
// observation of one running accumulator.
func (e *Extractor) Extract(audio *transcode.AudioData) ([]float64, error) {
	pcm := audio.PCM
	n := e.config.FrameSize
	if len(pcm) < n {
		return nil, fmt.Errorf("%w: %d samples is shorter than one %d-sample frame", errs.ErrFormat, len(pcm), n)
	}

	half := n / 2
	acc := stats.NewWelford(e.config.BlockSize())
	s := e.newScratch()

	for start := 0; start+n <= len(pcm); start += n {
		for _, off := range [2]int{start, start + half} {
			if off+n > len(pcm) {
				continue
			}
			if err := e.frameValues(s, pcm[off:off+n]); err != nil {
				return nil, err
			}
			if err := acc.Add(s.block); err != nil {
				return nil, err
			}
		}
	}

	e.logger.Debug("Accumulated frames", logging.Fields{
		"function": "Extract",
		"frames":   acc.Count(),
		"samples":  len(pcm),
	})

	values := append(acc.Mean(), acc.StdDev()...)
	e.normalizer.NormalizeInPlace(values)
	return values, nil
}

type scratch struct {
	frame    []float64
	spectrum []complex128
	mags     []float64
	block    []float64
}

func (e *Extractor) newScratch() *scratch {
	n := e.config.FrameSize
	return &scratch{
		frame:    make([]float64, n),
		spectrum: make([]complex128, n),
		mags:     make([]float64, n/2),
		block:    make([]float64, e.config.BlockSize()),
	}
}

// frameValues fills s.block with the per-frame values of one frame
func (e *Extractor) frameValues(s *scratch, samples []float64) error {
	copy(s.frame, samples)
	if err := e.window.ApplyInPlace(s.frame); err != nil {
		return err
	}

	for i, v := range s.frame {
		s.spectrum[i] = complex(v, 0)
	}
	if err := e.fft.Transform(s.spectrum); err != nil {
		return err
	}
	spectral.HalfMagnitude(s.mags, s.spectrum)

	if e.mfcc == nil {
		copy(s.block, s.mags)
		return nil
	}

	s.block[0] = spectral.LogEnergy(s.frame)
	return e.mfcc.Compute(s.block[1:], s.mags)
}
