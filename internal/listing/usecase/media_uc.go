package usecase

import (
	"context"
	"fmt"

	"github.com/Abdurahmanit/GroupProject/bookmarket/internal/listing/domain"
	"github.com/Abdurahmanit/GroupProject/bookmarket/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/bookmarket/internal/platform/metrics"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const defaultUploadConcurrency = 4

type UploadResult struct {
	Ref domain.MediaRef
	URL string
	Err error
}

// UploadReport has one result per input reference, in input order.
type UploadReport struct {
	Results   []UploadResult
	Succeeded int
	Failed    int
}

// URLs returns the hosted URLs of successful uploads, in input order.
func (r UploadReport) URLs() []string {
	out := make([]string, 0, r.Succeeded)
	for _, res := range r.Results {
		if res.Err == nil && res.URL != "" {
			out = append(out, res.URL)
		}
	}
	return out
}

// PreviewURLs returns the staged preview URLs of every reference.
func (r UploadReport) PreviewURLs() []string {
	out := make([]string, 0, len(r.Results))
	for _, res := range r.Results {
		if res.Ref.PreviewURL != "" {
			out = append(out, res.Ref.PreviewURL)
		}
	}
	return out
}

// MediaUploader moves staged files to the media host. Files are uploaded
// independently with a bounded number in flight; one failure never cancels
// the others.
type MediaUploader struct {
	staging domain.MediaStaging
	host    domain.MediaHost
	limit   int
	logger  *logger.Logger
	metrics *metrics.MetricsManager
}

func NewMediaUploader(staging domain.MediaStaging, host domain.MediaHost, maxConcurrent int, log *logger.Logger, m *metrics.MetricsManager) *MediaUploader {
	if maxConcurrent <= 0 {
		maxConcurrent = defaultUploadConcurrency
	}
	return &MediaUploader{
		staging: staging,
		host:    host,
		limit:   maxConcurrent,
		logger:  log.Named("media"),
		metrics: m,
	}
}

func (u *MediaUploader) Upload(ctx context.Context, refs []domain.MediaRef) UploadReport {
	results := make([]UploadResult, len(refs))

	var g errgroup.Group
	g.SetLimit(u.limit)
	for i, ref := range refs {
		g.Go(func() error {
			url, err := u.uploadOne(ctx, ref)
			results[i] = UploadResult{Ref: ref, URL: url, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	report := UploadReport{Results: results}
	for _, r := range results {
		if r.Err != nil {
			report.Failed++
			u.logger.Warn("MediaUploader.Upload: file failed", zap.String("media_id", r.Ref.ID), zap.Error(r.Err))
			u.count("failed")
			continue
		}
		report.Succeeded++
		u.count("succeeded")
	}
	return report
}

func (u *MediaUploader) uploadOne(ctx context.Context, ref domain.MediaRef) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	rc, meta, err := u.staging.Open(ctx, ref.ID)
	if err != nil {
		return "", fmt.Errorf("could not open staged file: %w", err)
	}
	defer rc.Close()

	url, err := u.host.Upload(ctx, meta.FileName, meta.ContentType, rc, meta.Size)
	if err != nil {
		return "", fmt.Errorf("could not upload %q: %w", meta.FileName, err)
	}
	return url, nil
}

// Discard removes hosted files of a submission that was not persisted.
// Failures are logged and otherwise ignored.
func (u *MediaUploader) Discard(ctx context.Context, urls []string) {
	for _, url := range urls {
		if err := u.host.Remove(ctx, url); err != nil {
			u.logger.Warn("MediaUploader.Discard: could not remove hosted file", zap.String("url", url), zap.Error(err))
			continue
		}
		u.count("discarded")
	}
}

func (u *MediaUploader) count(outcome string) {
	if u.metrics != nil {
		u.metrics.MediaUploadsTotal.WithLabelValues(outcome).Inc()
	}
}
