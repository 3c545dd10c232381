package mail

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"strings"
	"sync"

	"bikeshop/internal/config"
	applog "bikeshop/internal/log"

	html "github.com/gofiber/template/html/v2"
	gomail "github.com/wneessen/go-mail"
)

//go:embed templates/*.html
var templateFS embed.FS

// Message is a rendered HTML email.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Sender delivers a Message. Implementations must be safe for concurrent use.
type Sender interface {
	Send(ctx context.Context, m Message) error
}

// NewSender picks SMTP when a host is configured, otherwise logs messages.
func NewSender(cfg config.Mail) Sender {
	if cfg.Host == "" {
		log.Printf("[mail] no SMTP_HOST set, emails will be logged only")
		return LogSender{}
	}
	return &SMTPSender{cfg: cfg}
}

// SMTPSender delivers through go-mail. Each Send dials a fresh connection
// bounded by both ctx and the configured timeout.
type SMTPSender struct {
	cfg config.Mail
}

func (s *SMTPSender) options() []gomail.Option {
	opts := []gomail.Option{
		gomail.WithPort(s.cfg.Port),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
	}
	if s.cfg.Timeout > 0 {
		opts = append(opts, gomail.WithTimeout(s.cfg.Timeout))
	}
	if s.cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(s.cfg.Username),
			gomail.WithPassword(s.cfg.Password),
		)
	}
	return opts
}

// message builds the MIME message: Date and Message-ID are set and the
// subject is RFC 2047 encoded when it leaves ASCII.
func (s *SMTPSender) message(m Message) (*gomail.Msg, error) {
	msg := gomail.NewMsg()
	if err := msg.From(s.cfg.From); err != nil {
		return nil, fmt.Errorf("from %q: %w", s.cfg.From, err)
	}
	if err := msg.To(m.To); err != nil {
		return nil, fmt.Errorf("to %q: %w", m.To, err)
	}
	msg.Subject(strings.NewReplacer("\r", " ", "\n", " ").Replace(m.Subject))
	msg.SetDate()
	msg.SetMessageID()
	msg.SetBodyString(gomail.TypeTextHTML, m.HTML)
	return msg, nil
}

func (s *SMTPSender) Send(ctx context.Context, m Message) error {
	msg, err := s.message(m)
	if err != nil {
		return err
	}
	client, err := gomail.NewClient(s.cfg.Host, s.options()...)
	if err != nil {
		return err
	}
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}
	// A server that accepts and then goes silent can hold a command past the
	// dial deadline; ctx still wins the race.
	done := make(chan error, 1)
	go func() { done <- client.DialAndSendWithContext(ctx, msg) }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LogSender records the recipient and subject as a log event instead of sending.
type LogSender struct{}

func (LogSender) Send(_ context.Context, m Message) error {
	applog.Event(applog.LevelInfo, "mail.logged", nil, map[string]any{
		"to": m.To, "subject": m.Subject, "bytes": len(m.HTML),
	})
	return nil
}

// Renderer renders the embedded email templates.
type Renderer struct {
	once   sync.Once
	engine *html.Engine
	err    error
}

func (r *Renderer) load() {
	sub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		r.err = err
		return
	}
	r.engine = html.NewFileSystem(http.FS(sub), ".html")
	r.err = r.engine.Load()
}

// Render executes the named template (without extension) with data.
func (r *Renderer) Render(name string, data any) (string, error) {
	r.once.Do(r.load)
	if r.err != nil {
		return "", r.err
	}
	var buf bytes.Buffer
	if err := r.engine.Render(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// ResetData feeds templates/reset_password.html.
type ResetData struct {
	Name      string
	Email     string
	ResetURL  string
	ExpiresIn string
}

func (r *Renderer) ResetPassword(to string, d ResetData) (Message, error) {
	body, err := r.Render("reset_password", d)
	if err != nil {
		return Message{}, err
	}
	return Message{To: to, Subject: "Password Reset Request - BikeShop", HTML: body}, nil
}
