package chatclient_test

import (
	"TaskChatAPI/internal/bootstrap"
	"TaskChatAPI/internal/chatclient"
	"TaskChatAPI/internal/config"
	"TaskChatAPI/internal/helper"
	"TaskChatAPI/internal/testutil"
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type user struct {
	session *chatclient.SessionChannel
	history *chatclient.HistoryClient
}

func startServer(t *testing.T) (*config.AppConfig, *bootstrap.App, *httptest.Server) {
	t.Helper()
	cfg := testutil.NewTestConfig()
	chiMux := config.NewChi(cfg)
	app := bootstrap.Init(cfg, testutil.NewTestDB(t), nil, config.NewValidator(), chiMux)
	srv := httptest.NewServer(chiMux)
	t.Cleanup(func() {
		srv.Close()
		app.RateLimiter.Stop()
	})
	return cfg, app, srv
}

func signIn(t *testing.T, cfg *config.AppConfig, srv *httptest.Server, userID string) *user {
	t.Helper()
	token, err := helper.GenerateJWT(cfg.JWTSecret, cfg.JWTIssuer, 1, userID)
	require.NoError(t, err)

	session, err := chatclient.Dial(context.Background(), token, chatclient.SessionOptions{
		URL: "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws",
	})
	require.NoError(t, err)
	t.Cleanup(session.Close)

	return &user{
		session: session,
		history: chatclient.NewHistoryClient(srv.URL, token, srv.Client()),
	}
}

func TestChatScreensAgainstServer(t *testing.T) {
	cfg, app, srv := startServer(t)
	ctx := context.Background()

	alice := signIn(t, cfg, srv, "u1")
	bob := signIn(t, cfg, srv, "u2")

	conversationID, err := alice.history.FindOrCreate(ctx, "u2")
	require.NoError(t, err)
	again, err := bob.history.FindOrCreate(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, conversationID, again)

	aliceScreen := chatclient.NewChatScreen(alice.session, alice.history, chatclient.ScreenOptions{
		ConversationID: conversationID,
		SelfID:         "u1",
	})
	bobScreen := chatclient.NewChatScreen(bob.session, bob.history, chatclient.ScreenOptions{
		ConversationID: conversationID,
		SelfID:         "u2",
	})
	require.NoError(t, aliceScreen.Open(ctx))
	require.NoError(t, bobScreen.Open(ctx))
	defer aliceScreen.Close()
	defer bobScreen.Close()

	// Joins are fire-and-forget.
	require.Eventually(t, func() bool {
		return app.Hub.RoomSize(conversationID) == 2
	}, 2*time.Second, 10*time.Millisecond)

	aliceScreen.Keystroke()
	require.Eventually(t, bobScreen.PeerTyping, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, aliceScreen.Send("hello bob"))

	require.Eventually(t, func() bool {
		entries := aliceScreen.Messages()
		return len(entries) == 1 && !entries[0].Pending
	}, 2*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool {
		entries := bobScreen.Messages()
		return len(entries) == 1 && entries[0].Content == "hello bob"
	}, 2*time.Second, 10*time.Millisecond)

	assert.False(t, bobScreen.PeerTyping())
	assert.Equal(t, aliceScreen.Messages()[0].ID, bobScreen.Messages()[0].ID)

	// Bob's open screen acknowledges the message, so his counter drains.
	require.Eventually(t, func() bool {
		list, err := bob.history.List(ctx)
		if err != nil || len(list.Conversations) != 1 {
			return false
		}
		return list.Conversations[0].UnreadCount == 0
	}, 2*time.Second, 20*time.Millisecond)

	page, err := alice.history.Page(ctx, conversationID, 1, 20)
	require.NoError(t, err)
	require.Len(t, page.Messages, 1)
	assert.True(t, page.Messages[0].Seen)
}

func TestStrangerCannotReadThread(t *testing.T) {
	cfg, _, srv := startServer(t)
	ctx := context.Background()

	alice := signIn(t, cfg, srv, "u1")
	mallory := signIn(t, cfg, srv, "u3")

	conversationID, err := alice.history.FindOrCreate(ctx, "u2")
	require.NoError(t, err)

	screen := chatclient.NewChatScreen(mallory.session, mallory.history, chatclient.ScreenOptions{
		ConversationID: conversationID,
		SelfID:         "u3",
	})
	err = screen.Open(ctx)

	var httpErr *chatclient.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, 403, httpErr.Status)
	assert.ErrorIs(t, err, chatclient.ErrUnauthorized)
	assert.Equal(t, chatclient.StateClosed, screen.State())
}

func TestDialRejectsBadToken(t *testing.T) {
	_, _, srv := startServer(t)

	_, err := chatclient.Dial(context.Background(), "garbage", chatclient.SessionOptions{
		URL: "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws",
	})
	assert.ErrorIs(t, err, chatclient.ErrUnauthorized)
}
