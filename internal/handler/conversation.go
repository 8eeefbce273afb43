package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"codechat/internal/dto"
	"codechat/internal/errs"
	"codechat/internal/model"
	"codechat/internal/service"
	"codechat/pkg/logger"
	"codechat/pkg/response"
)

// ConversationHandler serves the conversation and messaging API.
type ConversationHandler struct {
	chatService      service.ChatService
	contextService   service.ContextService
	assistantService service.AssistantService
	logger           logger.Logger
}

// NewConversationHandler creates a conversation handler.
func NewConversationHandler(
	chatService service.ChatService,
	contextService service.ContextService,
	assistantService service.AssistantService,
	logger logger.Logger,
) *ConversationHandler {
	return &ConversationHandler{
		chatService:      chatService,
		contextService:   contextService,
		assistantService: assistantService,
		logger:           logger,
	}
}

// CreateConversation starts a new conversation
// @Summary Create conversation
// @Accept json
// @Produce json
// @Router /api/v1/conversations [post]
func (h *ConversationHandler) CreateConversation(c *gin.Context) {
	var req dto.CreateConversationReq
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("invalid request format: %v", err)
		response.Error(c, http.StatusBadRequest, err)
		return
	}

	conversation, err := h.chatService.CreateConversation(c, req.Title, req.Topic, req.Context, req.Metadata)
	if err != nil {
		h.logger.Error("create conversation err: %v", err)
		response.Error(c, http.StatusInternalServerError, err)
		return
	}

	response.OkJson(c, conversation)
}

// ListConversations lists conversations, newest activity first
// @Summary List conversations
// @Produce json
// @Router /api/v1/conversations [get]
func (h *ConversationHandler) ListConversations(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	conversations, err := h.chatService.ListConversations(c, limit, offset)
	if err != nil {
		h.logger.Error("list conversations err: %v", err)
		response.Error(c, http.StatusInternalServerError, err)
		return
	}
	if conversations == nil {
		conversations = []*model.Conversation{}
	}

	response.OkJson(c, conversations)
}

// GetMessages returns a conversation's history and current context
// @Summary Get conversation messages
// @Produce json
// @Router /api/v1/conversations/{id}/messages [get]
func (h *ConversationHandler) GetMessages(c *gin.Context) {
	conversationID, err := parseID(c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, err)
		return
	}

	messages, context, err := h.chatService.GetConversationMessages(c, conversationID)
	if err != nil {
		if errs.IsNotFound(err) {
			response.Error(c, http.StatusNotFound, err)
			return
		}
		h.logger.Error("get messages err: %v", err)
		response.Error(c, http.StatusInternalServerError, err)
		return
	}
	if messages == nil {
		messages = []*model.Message{}
	}

	response.OkJson(c, dto.ConversationMessagesResp{
		ConversationID: conversationID,
		Messages:       messages,
		Context:        context,
	})
}

// SendMessage posts a user message and streams the assistant response
// as server-sent events
// @Summary Send message (SSE response)
// @Accept json
// @Produce text/event-stream
// @Router /api/v1/conversations/{id}/messages [post]
func (h *ConversationHandler) SendMessage(c *gin.Context) {
	conversationID, err := parseID(c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, err)
		return
	}

	var req dto.SendMessageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("invalid request format: %v", err)
		response.Error(c, http.StatusBadRequest, err)
		return
	}

	// Apply the optional context patch before the turn begins so the
	// prompt is built against it.
	if req.Context != nil {
		if _, err := h.contextService.UpdateContext(c, conversationID, *req.Context); err != nil {
			if errs.IsNotFound(err) {
				response.Error(c, http.StatusNotFound, err)
				return
			}
			h.logger.Error("context update err: %v", err)
			response.Error(c, http.StatusInternalServerError, err)
			return
		}
	}

	stream, err := h.assistantService.ProcessMessage(c.Request.Context(), conversationID, req.Content)
	if err != nil {
		if errs.IsNotFound(err) {
			response.Error(c, http.StatusNotFound, err)
			return
		}
		h.logger.Error("process message err: %v", err)
		response.Error(c, http.StatusBadGateway, errs.ErrUpstreamModel)
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.WriteHeader(http.StatusOK)
	c.Writer.Flush()

	for chunk := range stream.Chunks() {
		writeSSE(c, sseTextFrame(chunk))
	}

	if streamErr := stream.Err(); streamErr != nil {
		h.logger.Error("stream ended with error for conversation %d: %v", conversationID, streamErr)
		writeSSE(c, sseErrorFrame(streamErr))
	}

	writeSSE(c, "[DONE]")
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errs.NewInvalidParamErr("id", raw)
	}
	return id, nil
}

func writeSSE(c *gin.Context, payload string) {
	c.Writer.WriteString("data: " + payload + "\n\n")
	c.Writer.Flush()
}

func sseTextFrame(text string) string {
	frame, _ := json.Marshal(map[string]string{"text": text})
	return string(frame)
}

func sseErrorFrame(err error) string {
	frame, _ := json.Marshal(map[string]string{"error": err.Error()})
	return string(frame)
}
