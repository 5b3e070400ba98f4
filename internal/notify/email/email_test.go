package email

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fernwood/fernwood/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	mu   sync.Mutex
	sent []Message
	err  error
}

func (f *fakeSender) Send(msg Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeSender) messages() []Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Message(nil), f.sent...)
}

func enabledConfig() *config.EmailConfig {
	return &config.EmailConfig{Enabled: true, FromEmail: "noreply@fernwood.example"}
}

func TestMailerDeliversQueuedMessages(t *testing.T) {
	sender := &fakeSender{}
	m := NewWithSender(enabledConfig(), &config.MailerConfig{Workers: 2, QueueSize: 8}, sender)
	m.Start(context.Background())

	require.NoError(t, m.Enqueue(Message{Subject: "hello", Recipients: []string{"alice@example.com"}}))
	require.NoError(t, m.Enqueue(Message{Subject: "again", Recipients: []string{"bob@example.com"}}))
	require.NoError(t, m.Close())

	msgs := sender.messages()
	require.Len(t, msgs, 2)
	for _, msg := range msgs {
		assert.NotEmpty(t, msg.ID)
	}

	stats := m.Stats()
	assert.EqualValues(t, 2, stats.Enqueued)
	assert.EqualValues(t, 2, stats.Sent)
	assert.Zero(t, stats.Failed)
	assert.Zero(t, stats.Dropped)
}

func TestMailerQueueFull(t *testing.T) {
	sender := &fakeSender{}
	m := NewWithSender(enabledConfig(), &config.MailerConfig{Workers: 1, QueueSize: 1}, sender)
	// Workers not started: the queue fills up immediately.

	require.NoError(t, m.Enqueue(Message{Subject: "first", Recipients: []string{"a@example.com"}}))
	err := m.Enqueue(Message{Subject: "second", Recipients: []string{"b@example.com"}})
	assert.ErrorIs(t, err, ErrQueueFull)
	assert.EqualValues(t, 1, m.Stats().Dropped)

	m.Start(context.Background())
	require.NoError(t, m.Close())
	assert.Len(t, sender.messages(), 1)
}

func TestMailerCountsFailures(t *testing.T) {
	sender := &fakeSender{err: errors.New("smtp down")}
	m := NewWithSender(enabledConfig(), nil, sender)
	m.Start(context.Background())

	require.NoError(t, m.Enqueue(Message{Subject: "doomed", Recipients: []string{"a@example.com"}}))
	require.NoError(t, m.Close())

	stats := m.Stats()
	assert.EqualValues(t, 1, stats.Failed)
	assert.Zero(t, stats.Sent)
}

func TestMailerClosedRejectsMessages(t *testing.T) {
	m := NewWithSender(enabledConfig(), nil, &fakeSender{})
	m.Start(context.Background())
	require.NoError(t, m.Close())

	err := m.Enqueue(Message{Subject: "late", Recipients: []string{"a@example.com"}})
	assert.ErrorIs(t, err, ErrClosed)
}

func TestMailerDisabledIsNoOp(t *testing.T) {
	sender := &fakeSender{}
	m := NewWithSender(&config.EmailConfig{Enabled: false}, nil, sender)

	require.NoError(t, m.Enqueue(Message{Subject: "ignored", Recipients: []string{"a@example.com"}}))
	assert.Zero(t, m.Stats().Enqueued)
	assert.Empty(t, sender.messages())
}

func TestMailerStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	m := NewWithSender(enabledConfig(), nil, &fakeSender{})
	m.Start(ctx)
	cancel()

	done := make(chan struct{})
	go func() {
		_ = m.g.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("workers did not stop after context cancellation")
	}
}
