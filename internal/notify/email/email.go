// Package email dispatches user-facing mail through a bounded queue of
// delivery workers. Delivery is best effort: failures are logged and
// counted, never retried, and never propagated back to the enqueuing
// request.
package email

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fernwood/fernwood/internal/config"
	"github.com/google/uuid"
	mail "github.com/xhit/go-simple-mail/v2"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrQueueFull is returned when the outgoing queue is at capacity.
	ErrQueueFull = errors.New("mail queue is full")
	// ErrClosed is returned when enqueueing after shutdown.
	ErrClosed = errors.New("mailer is closed")
)

// Message is a single outgoing email.
type Message struct {
	ID         string
	Subject    string
	Recipients []string
	Body       string
	HTML       bool
}

// Sender performs the actual delivery of a message.
type Sender interface {
	Send(msg Message) error
}

// Stats reports the delivery counters of a Mailer.
type Stats struct {
	Enqueued uint64
	Sent     uint64
	Failed   uint64
	Dropped  uint64
}

// Mailer queues messages and delivers them on a fixed pool of workers.
type Mailer struct {
	cfg     *config.EmailConfig
	sender  Sender
	queue   chan Message
	workers int
	g       *errgroup.Group

	mu     sync.RWMutex
	closed bool

	enqueued atomic.Uint64
	sent     atomic.Uint64
	failed   atomic.Uint64
	dropped  atomic.Uint64
}

// New creates a mailer delivering through an SMTP sender built from cfg.
func New(cfg *config.EmailConfig, mailerCfg *config.MailerConfig) *Mailer {
	return NewWithSender(cfg, mailerCfg, &SMTPSender{cfg: cfg})
}

// NewWithSender creates a mailer with a custom sender.
func NewWithSender(cfg *config.EmailConfig, mailerCfg *config.MailerConfig, sender Sender) *Mailer {
	workers := 2
	queueSize := 128
	if mailerCfg != nil {
		if mailerCfg.Workers > 0 {
			workers = mailerCfg.Workers
		}
		if mailerCfg.QueueSize > 0 {
			queueSize = mailerCfg.QueueSize
		}
	}

	return &Mailer{
		cfg:     cfg,
		sender:  sender,
		queue:   make(chan Message, queueSize),
		workers: workers,
		g:       &errgroup.Group{},
	}
}

// Start launches the delivery workers. Workers drain the queue until Close
// is called or the context is cancelled.
func (m *Mailer) Start(ctx context.Context) {
	for i := 0; i < m.workers; i++ {
		m.g.Go(func() error {
			for {
				select {
				case msg, ok := <-m.queue:
					if !ok {
						return nil
					}
					m.deliver(msg)
				case <-ctx.Done():
					return nil
				}
			}
		})
	}
}

// Enqueue submits a message for delivery without blocking. A full queue is
// an observable failure, not silent loss.
func (m *Mailer) Enqueue(msg Message) error {
	if m.cfg == nil || !m.cfg.Enabled {
		log.Debug("Email is disabled, dropping message", "subject", msg.Subject)
		return nil
	}
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if len(msg.Recipients) == 0 {
		return errors.New("message has no recipients")
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return ErrClosed
	}

	select {
	case m.queue <- msg:
		m.enqueued.Add(1)
		log.Debug("Queued email", "id", msg.ID, "subject", msg.Subject, "recipients", len(msg.Recipients))
		return nil
	default:
		m.dropped.Add(1)
		log.Warn("Mail queue full, dropping message", "id", msg.ID, "subject", msg.Subject)
		return ErrQueueFull
	}
}

// Close stops accepting new messages, drains the queue and waits for the
// workers to finish.
func (m *Mailer) Close() error {
	m.mu.Lock()
	if !m.closed {
		m.closed = true
		close(m.queue)
	}
	m.mu.Unlock()
	return m.g.Wait()
}

// Stats returns a snapshot of the delivery counters.
func (m *Mailer) Stats() Stats {
	return Stats{
		Enqueued: m.enqueued.Load(),
		Sent:     m.sent.Load(),
		Failed:   m.failed.Load(),
		Dropped:  m.dropped.Load(),
	}
}

func (m *Mailer) deliver(msg Message) {
	if err := m.sender.Send(msg); err != nil {
		m.failed.Add(1)
		log.Error("failed to send email", "id", msg.ID, "subject", msg.Subject, "error", err)
		return
	}
	m.sent.Add(1)
	log.Info("Email sent", "id", msg.ID, "subject", msg.Subject, "recipients", len(msg.Recipients))
}

// SMTPSender delivers messages using the go-simple-mail library.
type SMTPSender struct {
	cfg *config.EmailConfig
}

// Send connects to the configured SMTP server and delivers the message.
func (s *SMTPSender) Send(msg Message) error {
	server := mail.NewSMTPClient()
	server.Host = s.cfg.SMTPHost
	server.Port = s.cfg.SMTPPort
	server.Username = s.cfg.Username
	server.Password = s.cfg.Password

	if s.cfg.UseSSL {
		server.Encryption = mail.EncryptionSSLTLS
	} else if s.cfg.UseTLS {
		server.Encryption = mail.EncryptionSTARTTLS
	} else {
		server.Encryption = mail.EncryptionNone
	}

	if s.cfg.InsecureSkipVerify {
		server.TLSConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
	}

	server.KeepAlive = false
	server.ConnectTimeout = 10 * time.Second
	server.SendTimeout = 10 * time.Second

	smtpClient, err := server.Connect()
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer func() {
		if closeErr := smtpClient.Close(); closeErr != nil {
			log.Warn("Failed to close SMTP client", "error", closeErr)
		}
	}()

	email := mail.NewMSG()

	fromName := s.cfg.FromName
	if fromName == "" {
		fromName = "Fernwood"
	}
	email.SetFrom(fmt.Sprintf("%s <%s>", fromName, s.cfg.FromEmail))

	for _, to := range msg.Recipients {
		email.AddTo(to)
	}

	email.SetSubject(msg.Subject)

	if msg.HTML {
		email.SetBody(mail.TextHTML, msg.Body)
	} else {
		email.SetBody(mail.TextPlain, msg.Body)
	}

	if err := email.Send(smtpClient); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
