package transcode

import "fmt"

// Encoding is the Sun/NeXT audio encoding code stored in an .au header
type Encoding uint32

const (
	EncodingMuLaw8              Encoding = 1  // 8-bit G.711 µ-law
	EncodingLinear8             Encoding = 2  // 8-bit linear PCM
	EncodingLinear16            Encoding = 3  // 16-bit linear PCM
	EncodingLinear24            Encoding = 4  // 24-bit linear PCM
	EncodingLinear32            Encoding = 5  // 32-bit linear PCM
	EncodingFloat32             Encoding = 6  // 32-bit IEEE floating point
	EncodingFloat64             Encoding = 7  // 64-bit IEEE floating point
	EncodingFragmented          Encoding = 8  // fragmented sample data
	EncodingDSPProgram          Encoding = 9  // DSP program
	EncodingFixed8              Encoding = 10 // 8-bit fixed point
	EncodingFixed16             Encoding = 11 // 16-bit fixed point
	EncodingFixed24             Encoding = 12 // 24-bit fixed point
	EncodingFixed32             Encoding = 13 // 32-bit fixed point
	EncodingLinearEmphasis16    Encoding = 18 // 16-bit linear with emphasis
	EncodingLinearCompressed16  Encoding = 19 // 16-bit linear compressed
	EncodingLinearEmphComp16    Encoding = 20 // 16-bit linear with emphasis and compression
	EncodingMusicKitDSPCommands Encoding = 21 // Music Kit DSP commands
	EncodingG721ADPCM           Encoding = 23 // 4-bit ITU-T G.721 ADPCM
	EncodingG722ADPCM           Encoding = 24 // ITU-T G.722 SB-ADPCM
	EncodingG723ADPCM3          Encoding = 25 // ITU-T G.723 3-bit ADPCM
	EncodingG723ADPCM5          Encoding = 26 // ITU-T G.723 5-bit ADPCM
	EncodingALaw8               Encoding = 27 // 8-bit G.711 A-law
)

var encodingNames = map[Encoding]string{
	EncodingMuLaw8:              "8-bit G.711 mu-law",
	EncodingLinear8:             "8-bit linear PCM",
	EncodingLinear16:            "16-bit linear PCM",
	EncodingLinear24:            "24-bit linear PCM",
	EncodingLinear32:            "32-bit linear PCM",
	EncodingFloat32:             "32-bit IEEE float",
	EncodingFloat64:             "64-bit IEEE float",
	EncodingFragmented:          "fragmented sample data",
	EncodingDSPProgram:          "DSP program",
	EncodingFixed8:              "8-bit fixed point",
	EncodingFixed16:             "16-bit fixed point",
	EncodingFixed24:             "24-bit fixed point",
	EncodingFixed32:             "32-bit fixed point",
	EncodingLinearEmphasis16:    "16-bit linear with emphasis",
	EncodingLinearCompressed16:  "16-bit linear compressed",
	EncodingLinearEmphComp16:    "16-bit linear with emphasis and compression",
	EncodingMusicKitDSPCommands: "Music Kit DSP commands",
	EncodingG721ADPCM:           "G.721 4-bit ADPCM",
	EncodingG722ADPCM:           "G.722 SB-ADPCM",
	EncodingG723ADPCM3:          "G.723 3-bit ADPCM",
	EncodingG723ADPCM5:          "G.723 5-bit ADPCM",
	EncodingALaw8:               "8-bit G.711 A-law",
}

func (e Encoding) String() string {
	if name, ok := encodingNames[e]; ok {
		return name
	}
	return fmt.Sprintf("encoding(%d)", uint32(e))
}

// Known reports whether e is a defined Sun/NeXT encoding code
func (e Encoding) Known() bool {
	_, ok := encodingNames[e]
	return ok
}
