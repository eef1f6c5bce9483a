package service

import (
	"TaskChatAPI/internal/model"
	"context"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newConversation(t *testing.T, s *services, a, b string) string {
	t.Helper()
	resp, err := s.conversation.FindOrCreate(context.Background(), a, model.CreateConversationRequest{ReceiverID: b})
	require.NoError(t, err)
	return resp.ConversationID
}

func TestMessageService_AppendMessage(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	conversationID := newConversation(t, s, "u1", "u2")

	msg, err := s.message.AppendMessage(ctx, "u1", model.SendMessageRequest{
		ConversationID: conversationID,
		Content:        "  hello  ",
		ClientID:       "c-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "hello", msg.Content)
	assert.Equal(t, "u2", msg.ReceiverID)
	assert.Equal(t, "text", msg.Type)
	assert.Equal(t, "c-1", msg.ClientID)
	assert.False(t, msg.Seen)
	assert.NotEmpty(t, msg.ID)

	c, err := s.repo.Conversation.GetByID(ctx, conversationID)
	require.NoError(t, err)
	assert.Equal(t, 1, c.UnreadFor("u2"))
	assert.Equal(t, 0, c.UnreadFor("u1"))
	require.NotNil(t, c.LastMessageContent)
	assert.Equal(t, "hello", *c.LastMessageContent)
	assert.Equal(t, "u1", *c.LastMessageSenderID)
}

func TestMessageService_AppendMessageRejects(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	conversationID := newConversation(t, s, "u1", "u2")

	_, err := s.message.AppendMessage(ctx, "u1", model.SendMessageRequest{ConversationID: conversationID, Content: "   "})
	assertStatus(t, err, http.StatusBadRequest)

	_, err = s.message.AppendMessage(ctx, "u1", model.SendMessageRequest{ConversationID: conversationID, Content: strings.Repeat("é", 4001)})
	assertStatus(t, err, http.StatusBadRequest)

	_, err = s.message.AppendMessage(ctx, "u3", model.SendMessageRequest{ConversationID: conversationID, Content: "hi"})
	assertStatus(t, err, http.StatusForbidden)

	c, err := s.repo.Conversation.GetByID(ctx, conversationID)
	require.NoError(t, err)
	assert.Nil(t, c.LastMessageContent, "rejected sends leave no trace")

	total, err := s.repo.Message.CountByConversation(ctx, conversationID)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestMessageService_PageMessages(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	conversationID := newConversation(t, s, "u1", "u2")

	for i := 0; i < 5; i++ {
		_, err := s.message.AppendMessage(ctx, "u1", model.SendMessageRequest{
			ConversationID: conversationID,
			Content:        fmt.Sprintf("m%d", i),
		})
		require.NoError(t, err)
	}

	page1, err := s.message.PageMessages(ctx, "u2", model.GetMessagesRequest{ConversationID: conversationID, Page: 1, Limit: 2})
	require.NoError(t, err)
	page2, err := s.message.PageMessages(ctx, "u2", model.GetMessagesRequest{ConversationID: conversationID, Page: 2, Limit: 2})
	require.NoError(t, err)
	page3, err := s.message.PageMessages(ctx, "u2", model.GetMessagesRequest{ConversationID: conversationID, Page: 3, Limit: 2})
	require.NoError(t, err)

	assert.Equal(t, int64(5), page1.Pagination.TotalMessages)
	assert.Equal(t, 3, page1.Pagination.TotalPages)
	assert.True(t, page1.Pagination.HasMore())
	assert.True(t, page2.Pagination.HasMore())
	assert.False(t, page3.Pagination.HasMore())

	var all []string
	for _, page := range []*model.MessagePageResponse{page3, page2, page1} {
		for _, m := range page.Messages {
			all = append(all, m.Content)
		}
	}
	assert.Equal(t, []string{"m0", "m1", "m2", "m3", "m4"}, all)

	beyond, err := s.message.PageMessages(ctx, "u2", model.GetMessagesRequest{ConversationID: conversationID, Page: 9, Limit: 2})
	require.NoError(t, err)
	assert.Empty(t, beyond.Messages)
	assert.False(t, beyond.Pagination.HasMore())

	defaults, err := s.message.PageMessages(ctx, "u1", model.GetMessagesRequest{ConversationID: conversationID})
	require.NoError(t, err)
	assert.Equal(t, 1, defaults.Pagination.Page)
	assert.Equal(t, DefaultPageLimit, defaults.Pagination.Limit)
	assert.Len(t, defaults.Messages, 5)
}

func TestMessageService_PageMessagesRejects(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	conversationID := newConversation(t, s, "u1", "u2")

	_, err := s.message.PageMessages(ctx, "u3", model.GetMessagesRequest{ConversationID: conversationID})
	assertStatus(t, err, http.StatusForbidden)

	_, err = s.message.PageMessages(ctx, "u1", model.GetMessagesRequest{ConversationID: "0190a1b2-0000-7000-8000-000000000000"})
	assertStatus(t, err, http.StatusNotFound)

	_, err = s.message.PageMessages(ctx, "u1", model.GetMessagesRequest{ConversationID: "nope"})
	assertStatus(t, err, http.StatusBadRequest)

	_, err = s.message.PageMessages(ctx, "u1", model.GetMessagesRequest{ConversationID: conversationID, Limit: MaxPageLimit + 1})
	assertStatus(t, err, http.StatusBadRequest)

	_, err = s.message.PageMessages(ctx, "u1", model.GetMessagesRequest{ConversationID: conversationID, Page: -1})
	assertStatus(t, err, http.StatusBadRequest)
}

func TestMessageService_MarkSeen(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	conversationID := newConversation(t, s, "u1", "u2")

	for _, sender := range []string{"u1", "u1", "u2"} {
		_, err := s.message.AppendMessage(ctx, sender, model.SendMessageRequest{ConversationID: conversationID, Content: "x"})
		require.NoError(t, err)
	}

	affected, err := s.message.MarkSeen(ctx, conversationID, "u2")
	require.NoError(t, err)
	assert.Equal(t, int64(2), affected)

	affected, err = s.message.MarkSeen(ctx, conversationID, "u2")
	require.NoError(t, err)
	assert.Zero(t, affected)

	c, err := s.repo.Conversation.GetByID(ctx, conversationID)
	require.NoError(t, err)
	assert.Equal(t, 0, c.UnreadFor("u2"))
	assert.Equal(t, 1, c.UnreadFor("u1"), "the other side's counter is untouched")

	page, err := s.message.PageMessages(ctx, "u2", model.GetMessagesRequest{ConversationID: conversationID})
	require.NoError(t, err)
	for _, m := range page.Messages {
		if m.ReceiverID == "u2" {
			assert.True(t, m.Seen)
			assert.NotNil(t, m.SeenAt)
		} else {
			assert.False(t, m.Seen)
		}
	}

	_, err = s.message.MarkSeen(ctx, conversationID, "u3")
	assertStatus(t, err, http.StatusForbidden)
}
