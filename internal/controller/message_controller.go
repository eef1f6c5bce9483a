package controller

import (
	"TaskChatAPI/internal/helper"
	"TaskChatAPI/internal/middleware"
	"TaskChatAPI/internal/model"
	"TaskChatAPI/internal/service"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

type MessageController struct {
	messageService *service.MessageService
}

func NewMessageController(messageService *service.MessageService) *MessageController {
	return &MessageController{
		messageService: messageService,
	}
}

// GetMessages godoc
// @Summary      Get Messages
// @Description  Page through a conversation's history. Page 1 is the most recent block; each page is ordered oldest first.
// @Tags         message
// @Produce      json
// @Param        id     path   string  true   "Conversation ID"
// @Param        page   query  int     false  "Page number (default 1)"
// @Param        limit  query  int     false  "Page size (default 20, max 50)"
// @Success      200  {object}  model.MessagePageResponse
// @Failure      400  {object}  helper.ResponseError
// @Failure      401  {object}  helper.ResponseError
// @Failure      403  {object}  helper.ResponseError
// @Failure      404  {object}  helper.ResponseError
// @Failure      500  {object}  helper.ResponseError
// @Security     BearerAuth
// @Router       /conversation/{id}/message [get]
func (c *MessageController) GetMessages(w http.ResponseWriter, r *http.Request) {
	userContext, ok := r.Context().Value(middleware.UserContextKey).(*model.Identity)
	if !ok {
		helper.WriteError(w, helper.NewUnauthorizedError(""))
		return
	}

	req := model.GetMessagesRequest{
		ConversationID: chi.URLParam(r, "id"),
	}

	var err error
	if req.Page, err = queryInt(r, "page"); err != nil {
		slog.Warn("Invalid page parameter", "error", err)
		helper.WriteError(w, helper.NewBadRequestError("Invalid page"))
		return
	}
	if req.Limit, err = queryInt(r, "limit"); err != nil {
		slog.Warn("Invalid limit parameter", "error", err)
		helper.WriteError(w, helper.NewBadRequestError("Invalid limit"))
		return
	}

	resp, err := c.messageService.PageMessages(r.Context(), userContext.ID, req)
	if err != nil {
		helper.WriteError(w, err)
		return
	}

	helper.WriteJSON(w, http.StatusOK, resp)
}

// queryInt returns 0 when the parameter is absent so the service default applies.
func queryInt(r *http.Request, key string) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
