package media

import (
	"context"
	"sync"
)

// MockMerger is a test double recording merge calls
type MockMerger struct {
	mu      sync.Mutex
	Err     error
	Outputs map[string]string // video path to output path
	Calls   []string
}

var _ Merger = (*MockMerger)(nil)

func NewMockMerger() *MockMerger {
	return &MockMerger{Outputs: make(map[string]string)}
}

func (m *MockMerger) Merge(ctx context.Context, videoPath, audioPath string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, videoPath)
	if m.Err != nil {
		return "", m.Err
	}
	if out, ok := m.Outputs[videoPath]; ok {
		return out, nil
	}
	return videoPath + ".flv", nil
}

// MockPublisher is a test double recording publish calls
type MockPublisher struct {
	mu    sync.Mutex
	Err   error
	IDs   map[string]string // output path to assigned id
	Calls []string
}

var _ Publisher = (*MockPublisher)(nil)

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{IDs: make(map[string]string)}
}

func (m *MockPublisher) Publish(ctx context.Context, outputPath string, title string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, outputPath)
	if m.Err != nil {
		return "", m.Err
	}
	if id, ok := m.IDs[outputPath]; ok {
		return id, nil
	}
	return "vid-" + outputPath, nil
}
