package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Freeeeeet/tutoring_toolbox/internal/model"
	"github.com/Freeeeeet/tutoring_toolbox/internal/repository/memory"
)

type fakeSender struct {
	sent []*bot.SendMessageParams
	err  error
}

func (f *fakeSender) SendMessage(_ context.Context, params *bot.SendMessageParams) (*models.Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.sent = append(f.sent, params)
	return &models.Message{}, nil
}

func TestTelegramNotifierSendsToLinkedChat(t *testing.T) {
	store := memory.NewStore()
	chat := int64(555)
	store.AddUser(model.User{ID: 1, Role: model.RoleStudent, TelegramID: &chat})

	sender := &fakeSender{}
	n := NewTelegramNotifier(sender, store.Users(), zap.NewNop())

	require.NoError(t, n.Notify(context.Background(), NewEvent(KindRequestAssigned, 1, "hello")))
	require.Len(t, sender.sent, 1)
	assert.Equal(t, int64(555), sender.sent[0].ChatID)
	assert.Equal(t, "hello", sender.sent[0].Text)
}

func TestTelegramNotifierSkipsUnlinkedUser(t *testing.T) {
	store := memory.NewStore()
	store.AddUser(model.User{ID: 1, Role: model.RoleStudent})

	sender := &fakeSender{}
	n := NewTelegramNotifier(sender, store.Users(), zap.NewNop())

	require.NoError(t, n.Notify(context.Background(), NewEvent(KindRequestDenied, 1, "x")))
	require.NoError(t, n.Notify(context.Background(), NewEvent(KindRequestDenied, 99, "x")))
	assert.Empty(t, sender.sent)
}

func TestTelegramNotifierWrapsSendError(t *testing.T) {
	store := memory.NewStore()
	chat := int64(1)
	store.AddUser(model.User{ID: 1, TelegramID: &chat})

	boom := errors.New("boom")
	n := NewTelegramNotifier(&fakeSender{err: boom}, store.Users(), zap.NewNop())

	err := n.Notify(context.Background(), NewEvent(KindSessionScheduled, 1, "x"))
	assert.ErrorIs(t, err, boom)
}

func TestFanoutDeliversToAll(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	store := memory.NewStore()
	boom := errors.New("boom")
	chat := int64(1)
	store.AddUser(model.User{ID: 1, TelegramID: &chat})

	f := Fanout{
		NewTelegramNotifier(&fakeSender{err: boom}, store.Users(), zap.NewNop()),
		NewLogNotifier(zap.New(core)),
	}

	ev := NewEvent(KindRequestAccepted, 1, "accepted")
	ev.RequestID = 3
	err := f.Notify(context.Background(), ev)
	assert.ErrorIs(t, err, boom)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, int64(3), logs.All()[0].ContextMap()["request_id"])
}

func TestLogNotifierLogsCorrelationKey(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	n := NewLogNotifier(zap.New(core))

	first := NewEvent(KindRequestDenied, 2, "denied")
	second := NewEvent(KindRequestDenied, 2, "denied")
	require.NotEqual(t, first.Key, second.Key)

	require.NoError(t, n.Notify(context.Background(), first))

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, first.Key.String(), entries[0].ContextMap()["key"])
}
