package chat

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"chatx-backend/internal/service/chat"
	"chatx-backend/pkg/logger"
	"chatx-backend/pkg/response"
)

// ContactLister returns the usernames a user has messaged with
type ContactLister interface {
	GetContacts(ctx context.Context, username string) ([]string, error)
}

// Handler handles HTTP requests for chat history
type Handler struct {
	chatService *chat.Service
	contacts    ContactLister // nil: contacts endpoint returns empty lists
}

// NewHandler creates a new chat handler
func NewHandler(chatService *chat.Service, contacts ContactLister) *Handler {
	return &Handler{
		chatService: chatService,
		contacts:    contacts,
	}
}

// History returns recent messages between two users in chronological order
// GET /history?user=alice&peer=bob&limit=100
func (h *Handler) History(c *gin.Context) {
	user := c.Query("user")
	peer := c.Query("peer")
	if user == "" || peer == "" {
		response.ValidationError(c, "user and peer query parameters are required")
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	messages, err := h.chatService.History(c.Request.Context(), user, peer, limit)
	if err != nil {
		logger.Error("failed to load chat history",
			zap.String("user", user),
			zap.String("peer", peer),
			zap.Error(err))
		response.InternalError(c, "Failed to load history")
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"messages": messages,
		"count":    len(messages),
	})
}

// Contacts returns the usernames a user has exchanged messages with
// GET /contacts?user=alice
func (h *Handler) Contacts(c *gin.Context) {
	user := c.Query("user")
	if user == "" {
		response.ValidationError(c, "user query parameter is required")
		return
	}

	var (
		contacts []string
		err      error
	)
	if h.contacts != nil {
		contacts, err = h.contacts.GetContacts(c.Request.Context(), user)
		if err != nil {
			logger.Error("failed to load contacts",
				zap.String("user", user),
				zap.Error(err))
			response.InternalError(c, "Failed to load contacts")
			return
		}
	}
	if contacts == nil {
		contacts = []string{}
	}

	response.Success(c, http.StatusOK, gin.H{
		"contacts": contacts,
	})
}
