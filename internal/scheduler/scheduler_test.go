package scheduler

import (
	"TaskChatAPI/internal/testutil"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSchedulerRegistersIdleJob(t *testing.T) {
	cfg := testutil.NewTestConfig()
	s := New(cfg, testutil.NewTestDB(t))

	s.Start()
	defer s.Stop()

	entries := s.cron.Entries()
	assert.Len(t, entries, 1)
	assert.False(t, entries[0].Next.IsZero())
}

func TestSchedulerSkipsInvalidSchedule(t *testing.T) {
	cfg := testutil.NewTestConfig()
	cfg.ConversationIdleCron = "not a cron"
	s := New(cfg, testutil.NewTestDB(t))

	s.Start()
	defer s.Stop()

	assert.Empty(t, s.cron.Entries())
}
