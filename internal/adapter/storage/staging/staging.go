// Package staging keeps wizard photos on local disk until the listing is
// submitted. Each file is stored as <id> next to an <id>.json metadata file.
package staging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Abdurahmanit/GroupProject/bookmarket/internal/listing/domain"
	"github.com/google/uuid"
)

const defaultMaxFileBytes = 5 << 20

type DiskStaging struct {
	dir        string
	previewURL string
	maxBytes   int64
}

// NewDiskStaging creates dir if needed. Preview URLs are built as
// publicBaseURL + "/media/staging/" + id.
func NewDiskStaging(dir, publicBaseURL string, maxBytes int64) (*DiskStaging, error) {
	if maxBytes <= 0 {
		maxBytes = defaultMaxFileBytes
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create staging dir %s: %w", dir, err)
	}
	return &DiskStaging{
		dir:        dir,
		previewURL: strings.TrimRight(publicBaseURL, "/") + "/media/staging/",
		maxBytes:   maxBytes,
	}, nil
}

func (s *DiskStaging) Stage(ctx context.Context, fileName, contentType string, data io.Reader) (domain.MediaRef, error) {
	if err := ctx.Err(); err != nil {
		return domain.MediaRef{}, err
	}
	id := uuid.New().String()
	path := s.path(id)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o640)
	if err != nil {
		return domain.MediaRef{}, fmt.Errorf("failed to create staged file: %w", err)
	}
	n, err := io.Copy(f, io.LimitReader(data, s.maxBytes+1))
	closeErr := f.Close()
	switch {
	case err != nil:
		_ = os.Remove(path)
		return domain.MediaRef{}, fmt.Errorf("failed to write staged file: %w", err)
	case closeErr != nil:
		_ = os.Remove(path)
		return domain.MediaRef{}, fmt.Errorf("failed to write staged file: %w", closeErr)
	case n > s.maxBytes:
		_ = os.Remove(path)
		return domain.MediaRef{}, domain.ErrMediaTooLarge
	}

	ref := domain.MediaRef{
		ID:          id,
		FileName:    filepath.Base(fileName),
		ContentType: contentType,
		Size:        n,
		PreviewURL:  s.previewURL + id,
	}
	meta, _ := json.Marshal(ref)
	if err := os.WriteFile(path+".json", meta, 0o640); err != nil {
		_ = os.Remove(path)
		return domain.MediaRef{}, fmt.Errorf("failed to write staged metadata: %w", err)
	}
	return ref, nil
}

func (s *DiskStaging) Open(_ context.Context, id string) (io.ReadCloser, domain.MediaRef, error) {
	if !validID(id) {
		return nil, domain.MediaRef{}, domain.ErrMediaNotFound
	}
	raw, err := os.ReadFile(s.path(id) + ".json")
	if errors.Is(err, os.ErrNotExist) {
		return nil, domain.MediaRef{}, domain.ErrMediaNotFound
	}
	if err != nil {
		return nil, domain.MediaRef{}, fmt.Errorf("failed to read staged metadata: %w", err)
	}
	var ref domain.MediaRef
	if err := json.Unmarshal(raw, &ref); err != nil {
		return nil, domain.MediaRef{}, fmt.Errorf("failed to decode staged metadata: %w", err)
	}
	f, err := os.Open(s.path(id))
	if errors.Is(err, os.ErrNotExist) {
		return nil, domain.MediaRef{}, domain.ErrMediaNotFound
	}
	if err != nil {
		return nil, domain.MediaRef{}, fmt.Errorf("failed to open staged file: %w", err)
	}
	return f, ref, nil
}

// Remove is a no-op for unknown ids.
func (s *DiskStaging) Remove(_ context.Context, id string) error {
	if !validID(id) {
		return nil
	}
	for _, p := range []string{s.path(id), s.path(id) + ".json"} {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to remove staged file: %w", err)
		}
	}
	return nil
}

func (s *DiskStaging) path(id string) string {
	return filepath.Join(s.dir, id)
}

// ids are generated here, so anything that is not a uuid never named a file
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil && !strings.ContainsAny(id, `/\.`)
}
