package convert

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// FormatInfo はエクスポート形式1件のメタデータです。
type FormatInfo struct {
	OutputMimetype string `json:"output_mimetype"`
}

// exporterMap は利用可能なエクスポート形式の一覧です。
var exporterMap = map[string]FormatInfo{
	"html":     {OutputMimetype: "text/html"},
	"latex":    {OutputMimetype: "text/latex"},
	"markdown": {OutputMimetype: "text/markdown"},
	"notebook": {OutputMimetype: "application/json"},
	"pdf":      {OutputMimetype: "application/pdf"},
	"script":   {OutputMimetype: "text/plain"},
}

// Formats は登録済みのエクスポート形式を返します。
func (s *Service) Formats() map[string]FormatInfo {
	formats := make(map[string]FormatInfo, len(exporterMap))
	for name, info := range exporterMap {
		formats[name] = info
	}
	return formats
}

// FormatsHandler は GET /api/convert/formats のハンドラーを返します。
func FormatsHandler(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"formats": svc.Formats(),
			"engine":  "pdfcpu " + model.VersionStr,
		})
	}
}
