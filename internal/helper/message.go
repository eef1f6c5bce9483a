package helper

import (
	"TaskChatAPI/internal/entity"
	"TaskChatAPI/internal/model"
)

func ToMessageResponse(msg *entity.Message) *model.MessageResponse {
	if msg == nil {
		return nil
	}

	return &model.MessageResponse{
		ID:             msg.ID,
		ConversationID: msg.ConversationID,
		SenderID:       msg.SenderID,
		ReceiverID:     msg.ReceiverID,
		Content:        msg.Content,
		Type:           msg.Type,
		Seen:           msg.Seen,
		SeenAt:         msg.SeenAt,
		CreatedAt:      msg.CreatedAt,
	}
}

func ToMessageResponses(msgs []entity.Message) []model.MessageResponse {
	response := make([]model.MessageResponse, 0, len(msgs))
	for i := range msgs {
		response = append(response, *ToMessageResponse(&msgs[i]))
	}
	return response
}
