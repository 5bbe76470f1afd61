package media

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestOutputName(t *testing.T) {
	at := time.Date(2026, time.March, 14, 9, 30, 0, 0, time.UTC)

	tests := []struct {
		name      string
		videoPath string
		want      string
	}{
		{"plain upload", "/uploads/answer.webm", "answer-20260314.flv"},
		{"no extension", "/uploads/answer", "answer-20260314.flv"},
		{"dotted name", "/uploads/clip.v2.mp4", "clip.v2-20260314.flv"},
		{"relative path", "answer.webm", "answer-20260314.flv"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := OutputName(tt.videoPath, at); got != tt.want {
				t.Errorf("OutputName(%q) = %q, want %q", tt.videoPath, got, tt.want)
			}
		})
	}
}

func TestMockMergerDefaults(t *testing.T) {
	merger := NewMockMerger()

	got, err := merger.Merge(context.Background(), "/uploads/a.webm", "/uploads/a.wav")
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	if got != "/uploads/a.webm.flv" {
		t.Errorf("Merge() = %q, want video path with .flv suffix", got)
	}

	merger.Err = ErrUnavailable
	if _, err := merger.Merge(context.Background(), "/uploads/a.webm", "/uploads/a.wav"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Merge() error = %v, want ErrUnavailable", err)
	}
	if len(merger.Calls) != 2 {
		t.Errorf("Calls = %v, want both attempts recorded", merger.Calls)
	}
}
