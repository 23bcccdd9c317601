// Package notify доставляет уведомления об изменениях заявок и занятий.
// Доставка после коммита; ошибка доставки не откатывает переход.
package notify

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Kind string

const (
	KindRequestAssigned  Kind = "request_assigned"
	KindRequestAccepted  Kind = "request_accepted"
	KindRequestDeclined  Kind = "request_declined"
	KindRequestDenied    Kind = "request_denied"
	KindSessionScheduled Kind = "session_scheduled"
)

// Event одно сообщение одному получателю. Key только связывает строки лога
// одной доставки: повторов и дедупликации по нему нет.
type Event struct {
	Key         uuid.UUID
	Kind        Kind
	RecipientID int64
	RequestID   int64
	SessionID   int64
	Text        string
}

func NewEvent(kind Kind, recipientID int64, text string) Event {
	return Event{
		Key:         uuid.New(),
		Kind:        kind,
		RecipientID: recipientID,
		Text:        text,
	}
}

type Notifier interface {
	Notify(ctx context.Context, ev Event) error
}

// LogNotifier только пишет событие в лог.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(_ context.Context, ev Event) error {
	n.logger.Info("Notification",
		zap.Stringer("key", ev.Key),
		zap.String("kind", string(ev.Kind)),
		zap.Int64("recipient_id", ev.RecipientID),
		zap.Int64("request_id", ev.RequestID),
		zap.Int64("session_id", ev.SessionID),
		zap.String("text", ev.Text),
	)
	return nil
}

// Fanout доставляет через все нотификаторы и возвращает первую ошибку.
type Fanout []Notifier

func (f Fanout) Notify(ctx context.Context, ev Event) error {
	var first error
	for _, n := range f {
		if err := n.Notify(ctx, ev); err != nil && first == nil {
			first = err
		}
	}
	return first
}
