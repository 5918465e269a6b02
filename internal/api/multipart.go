package api

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
)

// multipartBody builds an in-memory multipart request body. fill writes the
// fields and file parts; the writer is closed before the body is returned so
// the terminating boundary is present.
func multipartBody(fill func(w *multipart.Writer) error) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if err := fill(w); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}

	return &buf, w.FormDataContentType(), nil
}
