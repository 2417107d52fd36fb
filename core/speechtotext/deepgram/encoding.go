package deepgram

import (
	"fmt"
	"net/url"
	"slices"
	"strconv"

	"github.com/koscakluka/ema-relay/core/audio"
)

var supportedSampleRates = []int{8000, 16000, 24000, 32000, 48000}

// rawEncoding is the description Deepgram needs to decode headerless audio.
type rawEncoding struct {
	name       string
	sampleRate int
	channels   int
}

func (e rawEncoding) apply(query url.Values) {
	query.Set("encoding", e.name)
	query.Set("sample_rate", strconv.Itoa(e.sampleRate))
	query.Set("channels", strconv.Itoa(e.channels))
}

func toRawEncoding(info audio.EncodingInfo) (*rawEncoding, error) {
	if !slices.Contains(supportedSampleRates, info.SampleRate) {
		return nil, fmt.Errorf("unsupported sample rate %d", info.SampleRate)
	}

	switch info.Format {
	case audio.EncodingLinear16:
	case audio.EncodingALaw, audio.EncodingMulaw:
		// Companded formats are only accepted at telephony rate.
		if info.SampleRate != 8000 {
			return nil, fmt.Errorf("unsupported sample rate %d for %s encoding", info.SampleRate, info.Format.Name())
		}
	default:
		return nil, fmt.Errorf("unsupported encoding %q", info.Format.Name())
	}

	return &rawEncoding{
		name:       info.Format.Name(),
		sampleRate: info.SampleRate,
		channels:   info.ChannelCount(),
	}, nil
}
