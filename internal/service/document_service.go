package service

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/arturoeanton/blaize-bazaar/internal/port"
)

var documentTypes = map[string]string{
	".pdf": "application/pdf",
	".csv": "text/csv",
}

// SupportedDocument reports whether name has an accepted extension.
func SupportedDocument(name string) bool {
	_, ok := documentTypes[strings.ToLower(filepath.Ext(name))]
	return ok
}

// DocumentService manages the knowledge base source documents.
type DocumentService struct {
	sink   port.DocumentSink
	sync   port.SyncTrigger
	now    func() time.Time
	logger *zap.Logger
}

// NewDocumentService creates a document service.
func NewDocumentService(sink port.DocumentSink, sync port.SyncTrigger, logger *zap.Logger) *DocumentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentService{sink: sink, sync: sync, now: time.Now, logger: logger.Named("documents")}
}

// Upload stores a PDF or CSV under a timestamped key and returns the key.
// An empty contentType is inferred from the extension.
func (s *DocumentService) Upload(ctx context.Context, name, contentType string, body io.Reader) (string, error) {
	base := filepath.Base(strings.TrimSpace(name))
	ext := filepath.Ext(base)
	if _, ok := documentTypes[strings.ToLower(ext)]; !ok || base == ext {
		return "", fmt.Errorf("%w: %q", port.ErrUnsupportedDocument, name)
	}
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = documentTypes[strings.ToLower(ext)]
	}
	if _, _, err := mime.ParseMediaType(contentType); err != nil {
		contentType = documentTypes[strings.ToLower(ext)]
	}

	key := TimestampedKey(base, s.now())
	if err := s.sink.Put(ctx, key, contentType, body); err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	s.logger.Info("document uploaded", zap.String("key", key), zap.String("content_type", contentType))
	return key, nil
}

// DeleteAll empties the knowledge base bucket and starts a re-sync. A sync
// failure is logged; the documents are already gone.
func (s *DocumentService) DeleteAll(ctx context.Context) (int, error) {
	n, err := s.sink.DeleteAll(ctx)
	if err != nil {
		return n, fmt.Errorf("delete documents: %w", err)
	}
	if err := s.sync.TriggerSync(ctx); err != nil {
		s.logger.Error("knowledge base sync trigger failed", zap.Error(err))
	}
	s.logger.Info("documents deleted", zap.Int("count", n))
	return n, nil
}

// TimestampedKey renames report.pdf to report_20240102_150405.pdf.
func TimestampedKey(name string, t time.Time) string {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	return fmt.Sprintf("%s_%s%s", stem, t.Format("20060102_150405"), ext)
}
