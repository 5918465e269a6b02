package api

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"

	"github.com/luongnguyenminhan/enterviu-go/internal/models"
)

// FileUpload is one file handed to UploadFiles.
type FileUpload struct {
	Name   string
	Reader io.Reader
}

// FailedFile reports a file the backend rejected during a batch upload.
type FailedFile struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// UploadResult is the outcome of a batch upload. Partial success is normal:
// accepted files land in UploadedFiles, rejected ones in FailedFiles.
type UploadResult struct {
	UploadedFiles []models.UploadedFile `json:"uploaded_files"`
	FailedFiles   []FailedFile          `json:"failed_files"`
}

// UploadFiles uploads one or more files, optionally associating them with a
// conversation. The multipart field name is "files".
func (c *Client) UploadFiles(ctx context.Context, files []FileUpload, conversationID string) (UploadResult, error) {
	if len(files) == 0 {
		return UploadResult{}, fmt.Errorf("no files to upload")
	}

	data, err := c.send(ctx, c.uploadClient, "files.upload", http.MethodPost, "/files/upload", nil, func() (io.Reader, string, error) {
		return multipartBody(func(w *multipart.Writer) error {
			if conversationID != "" {
				if err := w.WriteField("conversation_id", conversationID); err != nil {
					return fmt.Errorf("write conversation_id field: %w", err)
				}
			}
			for _, f := range files {
				part, err := w.CreateFormFile("files", f.Name)
				if err != nil {
					return fmt.Errorf("create form file %s: %w", f.Name, err)
				}
				if _, err := io.Copy(part, f.Reader); err != nil {
					return fmt.Errorf("copy file %s: %w", f.Name, err)
				}
			}
			return nil
		})
	})
	if err != nil {
		return UploadResult{}, err
	}

	return decodeData[UploadResult](data)
}

// ListFilesOptions configures file listing.
type ListFilesOptions struct {
	Page     int
	PageSize int
	Type     string
}

// GetFiles returns the caller's uploaded files.
func (c *Client) GetFiles(ctx context.Context, opts ListFilesOptions) (Page[models.UploadedFile], error) {
	query := url.Values{}
	if opts.Page > 0 {
		query.Set("page", strconv.Itoa(opts.Page))
	}
	if opts.PageSize > 0 {
		query.Set("page_size", strconv.Itoa(opts.PageSize))
	}
	if opts.Type != "" {
		query.Set("type", opts.Type)
	}
	return call[Page[models.UploadedFile]](ctx, c, "files.list", http.MethodGet, "/files/", query, nil)
}

// GetConversationFiles returns the files attached to one conversation.
func (c *Client) GetConversationFiles(ctx context.Context, conversationID string) (Page[models.UploadedFile], error) {
	return call[Page[models.UploadedFile]](ctx, c, "files.list_conversation", http.MethodGet, "/files/conversation/"+url.PathEscape(conversationID), nil, nil)
}

// DeleteFile deletes an uploaded file by id.
func (c *Client) DeleteFile(ctx context.Context, id string) error {
	_, err := c.do(ctx, "files.delete", http.MethodDelete, "/files/"+url.PathEscape(id), nil, nil)
	return err
}

// DownloadLink is a pre-signed, expiring download URL for a stored file.
type DownloadLink struct {
	DownloadURL string `json:"download_url"`
	ExpiresIn   int64  `json:"expires_in"`
}

// GetFileDownloadURL issues a download link valid for expires seconds.
func (c *Client) GetFileDownloadURL(ctx context.Context, id string, expires int) (DownloadLink, error) {
	query := url.Values{}
	if expires > 0 {
		query.Set("expires", strconv.Itoa(expires))
	}
	return call[DownloadLink](ctx, c, "files.download_url", http.MethodGet, "/files/"+url.PathEscape(id)+"/download", query, nil)
}
