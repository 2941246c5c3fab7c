package audio

import (
	"bytes"

	"github.com/dhowden/tag"
	"github.com/jscyril/sonicstream/api"
)

// ReadInfo extracts display tags from a buffered stream. Streams without
// tags yield an empty TrackInfo; callers fall back to the track identifier.
func ReadInfo(data []byte) api.TrackInfo {
	metadata, err := tag.ReadFrom(bytes.NewReader(data))
	if err != nil {
		return api.TrackInfo{}
	}
	return api.TrackInfo{
		Title:  metadata.Title(),
		Artist: metadata.Artist(),
		Album:  metadata.Album(),
	}
}
