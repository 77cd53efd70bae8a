package memory

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// MediaHost keeps uploaded bytes in memory and hands out URLs under baseURL.
type MediaHost struct {
	mu      sync.Mutex
	baseURL string
	objects map[string][]byte
}

func NewMediaHost(baseURL string) *MediaHost {
	return &MediaHost{baseURL: strings.TrimRight(baseURL, "/"), objects: make(map[string][]byte)}
}

func (h *MediaHost) Upload(ctx context.Context, fileName, _ string, data io.Reader, _ int64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	b, err := io.ReadAll(data)
	if err != nil {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}
	key := "photos/" + uuid.NewString() + strings.ToLower(filepath.Ext(fileName))
	h.mu.Lock()
	h.objects[key] = b
	h.mu.Unlock()
	return h.baseURL + "/" + key, nil
}

func (h *MediaHost) Remove(_ context.Context, url string) error {
	key := strings.TrimPrefix(url, h.baseURL+"/")
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.objects[key]; !ok {
		return fmt.Errorf("object %q not found", url)
	}
	delete(h.objects, key)
	return nil
}

func (h *MediaHost) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.objects)
}
