package media

import (
	"context"
	"errors"
)

// ErrUnavailable reports that an enrichment step has no backing tool or
// endpoint configured. Callers skip the step instead of failing the clip.
var ErrUnavailable = errors.New("media step not available")

// Merger combines an uploaded clip pair into the publishable container format
type Merger interface {
	// Merge muxes the video and audio uploads and returns the output path.
	// audioPath may be empty when the upload carried no separate track.
	Merge(ctx context.Context, videoPath, audioPath string) (string, error)
}

// Publisher uploads a merged clip to the video host
type Publisher interface {
	// Publish uploads the file at outputPath and returns the host's video id
	Publish(ctx context.Context, outputPath string, title string) (string, error)
}
