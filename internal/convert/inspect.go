package convert

import (
	"errors"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	pdfapi "github.com/pdfcpu/pdfcpu/pkg/api"
)

// InspectResult はアップロードされたドキュメントの基本メタデータです。
type InspectResult struct {
	Name     string `json:"name"`
	Size     int64  `json:"size"`
	Mimetype string `json:"mimetype"`
	Pages    int    `json:"pages,omitempty"`
}

// Inspect は単一ファイルを受け取り、種別とメタデータを返します。
// PDFの場合はページ数も数えます。
func (s *Service) Inspect(file *multipart.FileHeader) (*InspectResult, error) {
	if file == nil {
		return nil, newError("INVALID_INPUT", "no file uploaded", nil)
	}
	if s.maxFileSize > 0 && file.Size > s.maxFileSize {
		return nil, newError("LIMIT_EXCEEDED", "uploaded file exceeds the size limit", nil)
	}

	dir, err := os.MkdirTemp("", "nf-inspect-*")
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = os.RemoveAll(dir)
	}()

	path := filepath.Join(dir, "upload")
	if err := saveUpload(file, path); err != nil {
		return nil, err
	}

	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return nil, newError("UNSUPPORTED_FORMAT", "failed to detect the document type", err)
	}

	result := &InspectResult{
		Name:     file.Filename,
		Size:     file.Size,
		Mimetype: mtype.String(),
	}

	if mtype.Is("application/pdf") {
		pages, err := pdfapi.PageCountFile(path)
		if err != nil {
			return nil, newError("UNSUPPORTED_PDF", "failed to read the PDF structure", err)
		}
		result.Pages = pages
	}

	return result, nil
}

// InspectHandler は POST /api/convert/inspect のハンドラーを返します。
func InspectHandler(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		file, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"code":    "INVALID_INPUT",
				"message": "send a document as multipart/form-data under the field name \"file\"",
			})
			return
		}

		result, err := svc.Inspect(file)
		if err != nil {
			respondWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

func respondWithError(c *gin.Context, err error) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		status := http.StatusBadRequest
		if apiErr.Code == "LIMIT_EXCEEDED" {
			status = http.StatusRequestEntityTooLarge
		}
		c.JSON(status, gin.H{
			"code":    apiErr.Code,
			"message": apiErr.Message,
		})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{
		"code":    "INTERNAL_ERROR",
		"message": "internal server error",
	})
}

func saveUpload(file *multipart.FileHeader, dst string) error {
	src, err := file.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := out.ReadFrom(src); err != nil {
		return err
	}
	return out.Close()
}
