package service

import (
	"TaskChatAPI/internal/config"
	"TaskChatAPI/internal/helper"
	"TaskChatAPI/internal/repository"
	"TaskChatAPI/internal/testutil"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type services struct {
	repo         *repository.Repository
	conversation *ConversationService
	message      *MessageService
}

func newServices(t *testing.T) *services {
	t.Helper()
	cfg := testutil.NewTestConfig()
	repo := repository.NewRepository(testutil.NewTestDB(t), nil, cfg)
	v := config.NewValidator()
	return &services{
		repo:         repo,
		conversation: NewConversationService(repo, cfg, v),
		message:      NewMessageService(repo, cfg, v),
	}
}

func assertStatus(t *testing.T, err error, status int) {
	t.Helper()
	require.Error(t, err)
	var appErr *helper.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, status, appErr.Code)
}
