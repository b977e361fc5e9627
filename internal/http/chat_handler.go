package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"orga/internal/service"
)

// ChatHandler expone el proxy al chatbot y el CRUD de conversaciones del usuario.
type ChatHandler struct {
	chatServ *service.ChatService
}

func NewChatHandler(chatServ *service.ChatService) *ChatHandler {
	return &ChatHandler{chatServ: chatServ}
}

// Ask maneja POST /chat/ask.
func (h *ChatHandler) Ask(c *gin.Context) {
	var req struct {
		Message        string `json:"message" binding:"required"`
		ConversationID string `json:"conversationId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, "ask", err)
		return
	}

	p, _ := GetPrincipal(c)
	res, err := h.chatServ.Ask(c.Request.Context(), p, service.AskInput{
		Message:        req.Message,
		ConversationID: req.ConversationID,
	})
	if err != nil {
		var upstream *service.UpstreamError
		if errors.As(err, &upstream) {
			c.JSON(http.StatusBadGateway, gin.H{
				"error":          upstream.Message,
				"conversationId": upstream.ConversationID,
			})
			return
		}
		writeServiceError(c, "ask", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// CreateConversation maneja POST /chat/conversations.
func (h *ChatHandler) CreateConversation(c *gin.Context) {
	p, _ := GetPrincipal(c)
	conv, err := h.chatServ.CreateConversation(c.Request.Context(), p)
	if err != nil {
		writeServiceError(c, "create conversation", err)
		return
	}
	c.JSON(http.StatusCreated, conv)
}

func (h *ChatHandler) ListConversations(c *gin.Context) {
	p, _ := GetPrincipal(c)
	list, err := h.chatServ.ListConversations(c.Request.Context(), p)
	if err != nil {
		writeServiceError(c, "list conversations", err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *ChatHandler) GetConversation(c *gin.Context) {
	p, _ := GetPrincipal(c)
	detail, err := h.chatServ.GetConversation(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		writeServiceError(c, "get conversation", err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *ChatHandler) DeleteConversation(c *gin.Context) {
	p, _ := GetPrincipal(c)
	if err := h.chatServ.DeleteConversation(c.Request.Context(), p, c.Param("id")); err != nil {
		writeServiceError(c, "delete conversation", err)
		return
	}
	c.Status(http.StatusNoContent)
}
