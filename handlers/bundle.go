// File: handlers/bundle.go
package handlers

import (
	"github.com/gin-gonic/gin"
)

// HandlerBundle groups all endpoint handlers into one struct.
type HandlerBundle struct {
	// Chat endpoints
	ChatHandler        gin.HandlerFunc
	ChatHistoryHandler gin.HandlerFunc
	ClearChatHandler   gin.HandlerFunc
	ChatSocketHandler  gin.HandlerFunc
	VoiceChatHandler   gin.HandlerFunc

	// Document endpoints
	UploadDocumentHandler gin.HandlerFunc
	ClearDocumentsHandler gin.HandlerFunc
	DocumentStatsHandler  gin.HandlerFunc

	HealthHandler gin.HandlerFunc
}
