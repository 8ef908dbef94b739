package httpapi

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/logger"
)

// uploadField is the multipart form field carrying the file.
const uploadField = "file"

type handlers struct {
	documents driving.DocumentService
	query     driving.QueryService
	version   string
}

type healthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
}

type uploadResponse struct {
	Success bool                 `json:"success"`
	DocID   string               `json:"doc_id"`
	Stats   domain.DocumentStats `json:"stats"`
}

type queryRequest struct {
	DocID       string            `json:"doc_id"`
	Question    string            `json:"question"`
	ChatHistory []domain.ChatTurn `json:"chat_history"`
	TopK        int               `json:"top_k,omitempty"`
}

type summarizeRequest struct {
	DocID  string `json:"doc_id"`
	Length string `json:"length"`
}

type documentSummary struct {
	DocID      string          `json:"doc_id"`
	Filename   string          `json:"filename"`
	FileType   domain.FileType `json:"file_type"`
	UploadTime time.Time       `json:"upload_time"`
}

type documentsResponse struct {
	Documents []documentSummary `json:"documents"`
}

type deleteResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (h *handlers) health(c echo.Context) error {
	return c.JSON(http.StatusOK, healthResponse{
		Status:  "healthy",
		Service: ServiceName,
		Version: h.version,
	})
}

func (h *handlers) upload(c echo.Context) error {
	header, err := c.FormFile(uploadField)
	if err != nil {
		return fmt.Errorf("%w: multipart field %q with a file is required", domain.ErrInvalidInput, uploadField)
	}
	f, err := header.Open()
	if err != nil {
		return fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	stats, err := h.documents.Upload(c.Request().Context(), driving.UploadRequest{
		Filename:    header.Filename,
		ContentType: header.Header.Get(echo.HeaderContentType),
		Body:        f,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, uploadResponse{Success: true, DocID: stats.DocID, Stats: *stats})
}

func (h *handlers) ask(c echo.Context) error {
	req, err := bindQuery(c)
	if err != nil {
		return err
	}
	answer, err := h.query.Ask(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, answer)
}

// askStream writes answer fragments as plain text, flushing each one.
// Failures before the first byte are regular error responses; later
// failures are appended to the body since the status is already sent.
func (h *handlers) askStream(c echo.Context) error {
	req, err := bindQuery(c)
	if err != nil {
		return err
	}
	seq, err := h.query.AskStream(c.Request().Context(), req)
	if err != nil {
		return err
	}

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, echo.MIMETextPlainCharsetUTF8)
	res.Header().Set("X-Accel-Buffering", "no")
	res.WriteHeader(http.StatusOK)

	for part, err := range seq {
		if err != nil {
			logger.Warn("stream for %s failed: %v", req.DocID, err)
			_, _ = fmt.Fprintf(res, "\n\n[Error: %v]", err)
			res.Flush()
			return nil
		}
		if _, err := io.WriteString(res, part); err != nil {
			logger.Debug("client left stream for %s: %v", req.DocID, err)
			return nil
		}
		res.Flush()
	}
	return nil
}

func (h *handlers) summarize(c echo.Context) error {
	var req summarizeRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if strings.TrimSpace(req.DocID) == "" {
		return fmt.Errorf("%w: doc_id is required", domain.ErrInvalidInput)
	}

	summary, err := h.query.Summarise(c.Request().Context(), req.DocID, req.Length)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, summary)
}

func (h *handlers) documentStats(c echo.Context) error {
	stats, err := h.documents.Stats(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}

func (h *handlers) listDocuments(c echo.Context) error {
	stats, err := h.documents.List(c.Request().Context())
	if err != nil {
		return err
	}

	resp := documentsResponse{Documents: make([]documentSummary, len(stats))}
	for i, s := range stats {
		resp.Documents[i] = documentSummary{
			DocID:      s.DocID,
			Filename:   s.Filename,
			FileType:   s.FileType,
			UploadTime: s.UploadTime,
		}
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *handlers) deleteDocument(c echo.Context) error {
	if err := h.documents.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, deleteResponse{Success: true, Message: "Document deleted successfully"})
}

func bindQuery(c echo.Context) (driving.AskRequest, error) {
	var req queryRequest
	if err := c.Bind(&req); err != nil {
		return driving.AskRequest{}, err
	}
	if strings.TrimSpace(req.DocID) == "" {
		return driving.AskRequest{}, fmt.Errorf("%w: doc_id is required", domain.ErrInvalidInput)
	}
	return driving.AskRequest{
		DocID:    req.DocID,
		Question: req.Question,
		History:  req.ChatHistory,
		TopK:     req.TopK,
	}, nil
}
