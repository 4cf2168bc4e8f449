package bot

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vkarpenko/telelink/internal/models"
	"github.com/vkarpenko/telelink/internal/repository"
)

func startNotifier(t *testing.T, repo *repository.MemoryRepository, sender *fakeSender) (context.CancelFunc, <-chan struct{}) {
	t.Helper()

	notifier := NewNotifier(repo, sender, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = notifier.Run(ctx)
	}()

	// Give the notifier's subscription time to register before toggling.
	time.Sleep(50 * time.Millisecond)

	return cancel, done
}

func TestNotifierSendsPremiumMessages(t *testing.T) {
	repo := repository.NewMemoryRepository()
	sender := &fakeSender{}

	cancel, done := startNotifier(t, repo, sender)
	defer cancel()

	ctx := context.Background()
	_, err := repo.Upsert(ctx, &models.BotUser{TelegramID: "42"})
	require.NoError(t, err)

	_, err = repo.SetPremium(ctx, "42", true)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return len(sender.all()) == 1
	}, time.Second, 10*time.Millisecond)

	msg := sender.last(t)
	assert.EqualValues(t, 42, msg.chatID)
	assert.Contains(t, msg.text, "upgraded to premium")

	_, err = repo.SetPremium(ctx, "42", false)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return len(sender.all()) == 2
	}, time.Second, 10*time.Millisecond)

	assert.Contains(t, sender.last(t).text, "premium status has been removed")

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("notifier did not stop on context cancellation")
	}
}

func TestNotifierSkipsNonNumericIDs(t *testing.T) {
	repo := repository.NewMemoryRepository()
	sender := &fakeSender{}

	cancel, _ := startNotifier(t, repo, sender)
	defer cancel()

	ctx := context.Background()
	_, err := repo.Upsert(ctx, &models.BotUser{TelegramID: "not-a-number"})
	require.NoError(t, err)
	_, err = repo.SetPremium(ctx, "not-a-number", true)
	require.NoError(t, err)

	time.Sleep(100 * time.Millisecond)
	assert.Empty(t, sender.all())
}
