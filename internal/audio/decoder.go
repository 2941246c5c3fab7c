package audio

import (
	"bytes"
	"mime"
	"path"
	"strings"

	"github.com/faiface/beep"
	"github.com/faiface/beep/flac"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/wav"
	playerrors "github.com/jscyril/sonicstream/pkg/errors"
	"github.com/pkg/errors"
)

// Format is a decodable container format
type Format string

const (
	FormatMP3  Format = "mp3"
	FormatWAV  Format = "wav"
	FormatFLAC Format = "flac"
)

// DetectFormat picks the decoder for a stream: the Content-Type wins, then
// the extension of the track name, then the leading magic bytes. Anything
// unrecognised is treated as MP3, the backend's native format.
func DetectFormat(contentType, name string, head []byte) Format {
	if f := formatFromContentType(contentType); f != "" {
		return f
	}
	if f := formatFromExt(name); f != "" {
		return f
	}
	switch {
	case len(head) >= 12 && bytes.Equal(head[:4], []byte("RIFF")) && bytes.Equal(head[8:12], []byte("WAVE")):
		return FormatWAV
	case bytes.HasPrefix(head, []byte("fLaC")):
		return FormatFLAC
	default:
		return FormatMP3
	}
}

func formatFromContentType(contentType string) Format {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	switch mediaType {
	case "audio/mpeg", "audio/mp3", "audio/mpeg3", "audio/x-mpeg-3":
		return FormatMP3
	case "audio/wav", "audio/x-wav", "audio/wave", "audio/vnd.wave":
		return FormatWAV
	case "audio/flac", "audio/x-flac":
		return FormatFLAC
	default:
		return ""
	}
}

func formatFromExt(name string) Format {
	switch strings.ToLower(path.Ext(name)) {
	case ".mp3":
		return FormatMP3
	case ".wav":
		return FormatWAV
	case ".flac":
		return FormatFLAC
	default:
		return ""
	}
}

// memSource is an in-memory stream body; decoders need Seek for seeking
// and Close to satisfy io.ReadCloser.
type memSource struct {
	*bytes.Reader
}

func (memSource) Close() error { return nil }

// DecodeAudio decodes a buffered stream in the given format
func DecodeAudio(data []byte, format Format) (beep.StreamSeekCloser, beep.Format, error) {
	src := memSource{bytes.NewReader(data)}

	var (
		streamer beep.StreamSeekCloser
		f        beep.Format
		err      error
	)
	switch format {
	case FormatMP3:
		streamer, f, err = mp3.Decode(src)
	case FormatWAV:
		streamer, f, err = wav.Decode(src)
	case FormatFLAC:
		streamer, f, err = flac.Decode(src)
	default:
		return nil, beep.Format{}, errors.Wrapf(playerrors.ErrUnsupportedFormat, "format %q", format)
	}
	if err != nil {
		return nil, beep.Format{}, errors.Wrapf(err, "decode %s", format)
	}
	return streamer, f, nil
}
