package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// DefaultPublishTimeout bounds a single upload
const DefaultPublishTimeout = 10 * time.Minute

// HostPublisher uploads merged clips to the video host's upload endpoint and
// records the id the host assigns.
type HostPublisher struct {
	endpoint string
	apiKey   string
	client   *http.Client
	logger   *slog.Logger
}

var _ Publisher = (*HostPublisher)(nil)

// NewHostPublisher creates a publisher for the given upload endpoint. An empty
// endpoint makes every publish report ErrUnavailable.
func NewHostPublisher(endpoint, apiKey string, logger *slog.Logger) *HostPublisher {
	return &HostPublisher{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: DefaultPublishTimeout},
		logger:   logger,
	}
}

func (p *HostPublisher) Publish(ctx context.Context, outputPath string, title string) (string, error) {
	if p.endpoint == "" {
		return "", fmt.Errorf("publish endpoint: %w", ErrUnavailable)
	}

	file, err := os.Open(outputPath)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", outputPath, err)
	}
	defer file.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if err := writer.WriteField("title", title); err != nil {
		return "", fmt.Errorf("failed to build upload request: %w", err)
	}
	part, err := writer.CreateFormFile("file", filepath.Base(outputPath))
	if err != nil {
		return "", fmt.Errorf("failed to build upload request: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", fmt.Errorf("failed to read %s: %w", outputPath, err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to build upload request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, &body)
	if err != nil {
		return "", fmt.Errorf("failed to build upload request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload of %s failed: %w", outputPath, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("upload of %s rejected with status %d: %s", outputPath, resp.StatusCode, string(payload))
	}

	var result struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode upload response: %w", err)
	}
	if result.ID == "" {
		return "", fmt.Errorf("upload response carried no video id")
	}

	p.logger.Info("Clip published", "output", outputPath, "video_id", result.ID)

	return result.ID, nil
}
