package object

import (
	"context"
	"io"
	"strings"
)

// ObjectStore is the gateway to the service hosting file bytes. Save returns
// a durable retrieval URL; any non-success is fatal for the calling
// operation, which must not leave a partial record behind.
type ObjectStore interface {
	Save(ctx context.Context, ownerID string, fileName string, r io.Reader) (fileURL string, sizeBytes int64, mimeType string, err error)
	DownloadURL(ctx context.Context, fileURL string) (string, error)
}

// AttachmentURL rewrites a delivery URL into its forced-download form for
// hosts using the /upload/ path convention. URLs without that segment are
// returned unchanged.
func AttachmentURL(fileURL string) string {
	if strings.Contains(fileURL, "/upload/") && !strings.Contains(fileURL, "/upload/fl_attachment/") {
		return strings.Replace(fileURL, "/upload/", "/upload/fl_attachment/", 1)
	}
	return fileURL
}
