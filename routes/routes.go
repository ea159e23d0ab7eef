package routes

import (
	"net/http"
	"time"

	"ragdesk/handlers"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterChatRoutes registers conversation endpoints.
func RegisterChatRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/chat")
	{
		api.POST("", hb.ChatHandler)
		api.GET("/ws", hb.ChatSocketHandler)
		api.POST("/voice", hb.VoiceChatHandler)
		api.GET("/:sessionID/history", hb.ChatHistoryHandler)
		api.DELETE("/:sessionID", hb.ClearChatHandler)
	}
}

// RegisterDocumentRoutes registers ingestion endpoints.
func RegisterDocumentRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/documents")
	{
		api.POST("", hb.UploadDocumentHandler)
		api.DELETE("", hb.ClearDocumentsHandler)
		api.GET("/stats", hb.DocumentStatsHandler)
	}
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.GET("/health", hb.HealthHandler)
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
// Optional features left nil (voice) answer 503.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	fillMissing(hb)
	RegisterChatRoutes(r, hb)
	RegisterDocumentRoutes(r, hb)
	RegisterHealthRoute(r, hb)
}

func fillMissing(hb *handlers.HandlerBundle) {
	for _, h := range []*gin.HandlerFunc{
		&hb.ChatHandler, &hb.ChatHistoryHandler, &hb.ClearChatHandler, &hb.ChatSocketHandler, &hb.VoiceChatHandler,
		&hb.UploadDocumentHandler, &hb.ClearDocumentsHandler, &hb.DocumentStatsHandler,
	} {
		if *h == nil {
			*h = notAvailable
		}
	}
	if hb.HealthHandler == nil {
		hb.HealthHandler = handlers.Health
	}
}

func notAvailable(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"message": "This feature is not configured on this server"})
}
