package service

import (
	"TaskChatAPI/internal/entity"
	"TaskChatAPI/internal/model"
	"context"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConversationService_FindOrCreateSymmetric(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()

	first, err := s.conversation.FindOrCreate(ctx, "u1", model.CreateConversationRequest{ReceiverID: "u2"})
	require.NoError(t, err)

	second, err := s.conversation.FindOrCreate(ctx, "u2", model.CreateConversationRequest{ReceiverID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, first.ConversationID, second.ConversationID)

	c, err := s.repo.Conversation.GetByID(ctx, first.ConversationID)
	require.NoError(t, err)
	assert.Equal(t, []string{"u1", "u2"}, c.Participants())
	assert.Equal(t, map[string]int{"u1": 0, "u2": 0}, c.UnreadCounts())
	assert.Nil(t, c.LastMessageContent)
}

func TestConversationService_FindOrCreateRejects(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()

	_, err := s.conversation.FindOrCreate(ctx, "u1", model.CreateConversationRequest{ReceiverID: "u1"})
	assertStatus(t, err, http.StatusBadRequest)

	_, err = s.conversation.FindOrCreate(ctx, "u1", model.CreateConversationRequest{ReceiverID: ""})
	assertStatus(t, err, http.StatusBadRequest)

	_, err = s.conversation.FindOrCreate(ctx, "u1", model.CreateConversationRequest{ReceiverID: "bad id"})
	assertStatus(t, err, http.StatusBadRequest)
}

func TestConversationService_ConcurrentFirstContact(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()

	const workers = 8
	ids := make([]string, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			self, other := "u1", "u2"
			if i%2 == 1 {
				self, other = other, self
			}
			resp, err := s.conversation.FindOrCreate(ctx, self, model.CreateConversationRequest{ReceiverID: other})
			errs[i] = err
			if resp != nil {
				ids[i] = resp.ConversationID
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i])
	}

	list, err := s.repo.Conversation.ListByParticipant(ctx, "u1", 10)
	require.NoError(t, err)
	assert.Len(t, list, 1, "a pair never produces two threads")
}

func TestConversationService_ReactivatesIdle(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()

	created, err := s.conversation.FindOrCreate(ctx, "u1", model.CreateConversationRequest{ReceiverID: "u2"})
	require.NoError(t, err)

	_, err = s.repo.Conversation.DeactivateIdle(ctx, entity.NowUTC().AddDate(1, 0, 0))
	require.NoError(t, err)

	again, err := s.conversation.FindOrCreate(ctx, "u2", model.CreateConversationRequest{ReceiverID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, created.ConversationID, again.ConversationID)

	c, err := s.repo.Conversation.GetByID(ctx, created.ConversationID)
	require.NoError(t, err)
	assert.True(t, c.IsActive)
}

func TestConversationService_ListAndAuthorize(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()

	created, err := s.conversation.FindOrCreate(ctx, "u1", model.CreateConversationRequest{ReceiverID: "u2"})
	require.NoError(t, err)

	list, err := s.conversation.List(ctx, "u2")
	require.NoError(t, err)
	require.Len(t, list.Conversations, 1)
	assert.Equal(t, "u1", list.Conversations[0].OtherUserID)

	list, err = s.conversation.List(ctx, "u3")
	require.NoError(t, err)
	assert.Empty(t, list.Conversations)

	_, err = s.conversation.Authorize(ctx, created.ConversationID, "u1")
	assert.NoError(t, err)
	_, err = s.conversation.Authorize(ctx, created.ConversationID, "u3")
	assertStatus(t, err, http.StatusForbidden)
	_, err = s.conversation.Authorize(ctx, entity.NewID(), "u1")
	assertStatus(t, err, http.StatusNotFound)
	_, err = s.conversation.Authorize(ctx, "not-a-uuid", "u1")
	assertStatus(t, err, http.StatusBadRequest)
}
