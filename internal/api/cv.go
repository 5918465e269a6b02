package api

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/luongnguyenminhan/enterviu-go/internal/metrics"
	"github.com/luongnguyenminhan/enterviu-go/internal/models"
)

// UploadCV uploads a CV for structured extraction. The multipart field name
// is "file". The call runs on the long-timeout upload client: analysis can
// take minutes for large documents.
//
// The result shape is normalized so every field is present even when the
// extraction finds nothing.
func (c *Client) UploadCV(ctx context.Context, name string, r io.Reader, conversationID string) (models.CVAnalysisResult, error) {
	data, err := c.send(ctx, c.uploadClient, metrics.OpCVUpload, http.MethodPost, "/chat/upload-cv", nil, func() (io.Reader, string, error) {
		return multipartBody(func(w *multipart.Writer) error {
			if conversationID != "" {
				if err := w.WriteField("conversation_id", conversationID); err != nil {
					return fmt.Errorf("write conversation_id field: %w", err)
				}
			}
			part, err := w.CreateFormFile("file", name)
			if err != nil {
				return fmt.Errorf("create form file: %w", err)
			}
			if _, err := io.Copy(part, r); err != nil {
				return fmt.Errorf("copy file: %w", err)
			}
			return nil
		})
	})
	if err != nil {
		return models.CVAnalysisResult{}, err
	}

	result, err := decodeData[models.CVAnalysisResult](data)
	if err != nil {
		return models.CVAnalysisResult{}, err
	}
	result.Normalize()

	if c.stats != nil {
		c.stats.RecordTokenUsage(metrics.OpCVUpload,
			result.TokenUsage.InputTokens, result.TokenUsage.OutputTokens)
	}

	return result, nil
}

// CVMetadata summarizes the CV most recently analyzed within a conversation.
type CVMetadata struct {
	FileID      string `json:"file_id"`
	FileName    string `json:"file_name"`
	UploadedAt  string `json:"uploaded_at"`
	SkillsCount int    `json:"skills_count"`
	CVSummary   string `json:"cv_summary"`
}

// GetCVMetadata returns the CV metadata attached to a conversation, or nil
// when no CV has been uploaded there.
func (c *Client) GetCVMetadata(ctx context.Context, conversationID string) (*CVMetadata, error) {
	return call[*CVMetadata](ctx, c, "chat.cv_metadata", http.MethodGet, "/chat/conversation/"+url.PathEscape(conversationID)+"/cv-metadata", nil, nil)
}
