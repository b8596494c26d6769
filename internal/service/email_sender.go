package service

import (
	"context"
	"strings"
	"sync"

	"github.com/wneessen/go-mail"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/docshare-app/docshare/internal/config"
	appErr "github.com/docshare-app/docshare/internal/pkg/errors"
)

type EmailSender interface {
	Send(to, subject, body string) error
}

type smtpSender struct {
	cfg config.MailConfig
}

func NewEmailSender(cfg config.MailConfig) EmailSender {
	return &smtpSender{cfg: cfg}
}

func (s *smtpSender) Send(to, subject, body string) error {
	from := strings.TrimSpace(s.cfg.From)
	if s.cfg.Host == "" || s.cfg.Port == 0 || from == "" {
		return appErr.ErrInvalid
	}
	msg := mail.NewMsg()
	if err := msg.From(from); err != nil {
		return err
	}
	if err := msg.To(to); err != nil {
		return err
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	opts := []mail.Option{mail.WithPort(s.cfg.Port)}
	if s.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.Username),
			mail.WithPassword(s.cfg.Password),
		)
	}
	client, err := mail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		return err
	}
	return client.DialAndSend(msg)
}

type mailTask struct {
	to      string
	subject string
	body    string
}

// AsyncMailer decouples mail delivery from the request lifetime: Enqueue
// never blocks the caller's response, delivery failures are logged soft
// failures, and a full queue drops the message rather than stalling a
// request.
type AsyncMailer struct {
	sender EmailSender
	queue  chan mailTask
	wg     sync.WaitGroup
	once   sync.Once
}

func NewAsyncMailer(sender EmailSender, queueSize int) *AsyncMailer {
	if queueSize <= 0 {
		queueSize = 64
	}
	m := &AsyncMailer{
		sender: sender,
		queue:  make(chan mailTask, queueSize),
	}
	m.wg.Add(1)
	go m.run()
	return m
}

func (m *AsyncMailer) Enqueue(to, subject, body string) {
	task := mailTask{to: to, subject: subject, body: body}
	select {
	case m.queue <- task:
	default:
		logutil.GetLogger(context.Background()).Warn("mail queue full, message dropped",
			zap.String("to", to), zap.String("subject", subject))
	}
}

// Stop drains the queue and waits for the worker to exit.
func (m *AsyncMailer) Stop() {
	m.once.Do(func() {
		close(m.queue)
	})
	m.wg.Wait()
}

func (m *AsyncMailer) run() {
	defer m.wg.Done()
	for task := range m.queue {
		if err := m.sender.Send(task.to, task.subject, task.body); err != nil {
			logutil.GetLogger(context.Background()).Error("mail delivery failed",
				zap.String("to", task.to), zap.String("subject", task.subject), zap.Error(err))
			continue
		}
		logutil.GetLogger(context.Background()).Info("mail sent",
			zap.String("to", task.to), zap.String("subject", task.subject))
	}
}
