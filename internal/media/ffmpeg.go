package media

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// DefaultMergeTimeout bounds a single transcode run
const DefaultMergeTimeout = 5 * time.Minute

// FFmpegMerger shells out to ffmpeg to repackage uploaded clips into the
// flash container the player serves.
type FFmpegMerger struct {
	binary    string
	outputDir string
	timeout   time.Duration
	logger    *slog.Logger
}

var _ Merger = (*FFmpegMerger)(nil)

// NewFFmpegMerger creates a merger writing transcoded files into outputDir.
// An empty binary falls back to "ffmpeg" on PATH.
func NewFFmpegMerger(binary, outputDir string, logger *slog.Logger) *FFmpegMerger {
	if binary == "" {
		binary = "ffmpeg"
	}
	return &FFmpegMerger{
		binary:    binary,
		outputDir: outputDir,
		timeout:   DefaultMergeTimeout,
		logger:    logger,
	}
}

// Merge muxes the uploaded video and audio pair into the output directory.
// The output name is the video basename with the current date appended, so
// reprocessing a clip on a later day never clobbers the previous result.
func (m *FFmpegMerger) Merge(ctx context.Context, videoPath, audioPath string) (string, error) {
	if _, err := exec.LookPath(m.binary); err != nil {
		return "", fmt.Errorf("%s: %w", m.binary, ErrUnavailable)
	}

	outputPath := filepath.Join(m.outputDir, OutputName(videoPath, time.Now()))

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	args := []string{"-y", "-i", videoPath}
	if audioPath != "" {
		args = append(args, "-i", audioPath)
	}
	args = append(args, "-c:v", "flv", "-c:a", "libmp3lame", outputPath)

	cmd := exec.CommandContext(ctx, m.binary, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		m.logger.Error("ffmpeg merge failed", "video", videoPath, "audio", audioPath, "output", strings.TrimSpace(string(output)), "error", err)
		return "", fmt.Errorf("ffmpeg merge of %s failed: %w", videoPath, err)
	}

	m.logger.Info("Clip merged", "video", videoPath, "audio", audioPath, "output", outputPath)

	return outputPath, nil
}

// OutputName derives the merged file name from the video basename and the
// processing date, in the form name-20060102.flv.
func OutputName(videoPath string, at time.Time) string {
	base := filepath.Base(videoPath)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return fmt.Sprintf("%s-%s.flv", base, at.Format("20060102"))
}
