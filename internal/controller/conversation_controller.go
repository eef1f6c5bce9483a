package controller

import (
	"TaskChatAPI/internal/helper"
	"TaskChatAPI/internal/middleware"
	"TaskChatAPI/internal/model"
	"TaskChatAPI/internal/service"
	"encoding/json"
	"net/http"
)

type ConversationController struct {
	conversationService *service.ConversationService
}

func NewConversationController(conversationService *service.ConversationService) *ConversationController {
	return &ConversationController{
		conversationService: conversationService,
	}
}

// FindOrCreate godoc
// @Summary      Find or Create Conversation
// @Description  Return the one-to-one conversation between the caller and receiverId, creating it on first contact.
// @Tags         conversation
// @Accept       json
// @Produce      json
// @Param        request body model.CreateConversationRequest true "Create Conversation Request"
// @Success      200  {object}  model.CreateConversationResponse
// @Failure      400  {object}  helper.ResponseError
// @Failure      401  {object}  helper.ResponseError
// @Failure      429  {object}  helper.ResponseError
// @Failure      500  {object}  helper.ResponseError
// @Security     BearerAuth
// @Router       /conversation [post]
func (c *ConversationController) FindOrCreate(w http.ResponseWriter, r *http.Request) {
	userContext, ok := r.Context().Value(middleware.UserContextKey).(*model.Identity)
	if !ok {
		helper.WriteError(w, helper.NewUnauthorizedError(""))
		return
	}

	var req model.CreateConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		helper.WriteError(w, helper.NewBadRequestError("Invalid request body"))
		return
	}

	resp, err := c.conversationService.FindOrCreate(r.Context(), userContext.ID, req)
	if err != nil {
		helper.WriteError(w, err)
		return
	}

	helper.WriteJSON(w, http.StatusOK, resp)
}

// List godoc
// @Summary      List Conversations
// @Description  List the caller's conversations, most recently active first, with the caller's unread count.
// @Tags         conversation
// @Produce      json
// @Success      200  {object}  model.ConversationListResponse
// @Failure      401  {object}  helper.ResponseError
// @Failure      500  {object}  helper.ResponseError
// @Security     BearerAuth
// @Router       /conversation [get]
func (c *ConversationController) List(w http.ResponseWriter, r *http.Request) {
	userContext, ok := r.Context().Value(middleware.UserContextKey).(*model.Identity)
	if !ok {
		helper.WriteError(w, helper.NewUnauthorizedError(""))
		return
	}

	resp, err := c.conversationService.List(r.Context(), userContext.ID)
	if err != nil {
		helper.WriteError(w, err)
		return
	}

	helper.WriteJSON(w, http.StatusOK, resp)
}
