package handlers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"ragdesk/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const AllowedAudioExtension = ".wav"

// Transcriber converts recorded speech into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, language string) (string, error)
}

type VoiceHandler struct {
	transcriber Transcriber
	chat        ChatService
}

func NewVoiceHandler(transcriber Transcriber, chat ChatService) *VoiceHandler {
	return &VoiceHandler{transcriber: transcriber, chat: chat}
}

// VoiceChat handles POST /api/chat/voice: transcribe, then answer like /api/chat.
func (h *VoiceHandler) VoiceChat(c *gin.Context) {
	language := c.DefaultPostForm("language", "en-US")
	sessionID := c.PostForm("session_id")

	file, header, err := c.Request.FormFile("audio")
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "audio file is required", err.Error())
		return
	}
	defer file.Close()

	if ext := strings.ToLower(filepath.Ext(header.Filename)); ext != AllowedAudioExtension {
		utils.JSONError(c, http.StatusBadRequest, "invalid file type", fmt.Sprintf("expected %s, got %s", AllowedAudioExtension, ext))
		return
	}
	audio, err := io.ReadAll(io.LimitReader(file, utils.MaxUploadBytes))
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "failed to read audio file", err.Error())
		return
	}

	ctx := c.Request.Context()
	transcript, err := h.transcriber.Transcribe(ctx, audio, language)
	if err != nil {
		getLogger(c).Error("voice: transcription failed", zap.Error(err))
		utils.JSONError(c, http.StatusBadGateway, "speech recognition failed", "")
		return
	}
	if strings.TrimSpace(transcript) == "" {
		utils.JSONError(c, http.StatusUnprocessableEntity, "no speech detected", "")
		return
	}

	reply, err := h.chat.HandleMessage(ctx, sessionID, transcript, nil)
	if err != nil {
		respondChatError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transcription": transcript, "reply": reply})
}
