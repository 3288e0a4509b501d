package mailer

import (
	"fmt"
	"time"

	"github.com/janiskrasemann/albumfeed/internal/renderer"
	"github.com/resend/resend-go/v3"
	"go.uber.org/zap"
)

type Mailer struct {
	from        string
	to          string
	client      *resend.Client
	headerImage []byte
	logger      *zap.Logger
}

func New(from, to, apiKey string, headerImage []byte, logger *zap.Logger) *Mailer {
	return NewWithClient(from, to, resend.NewClient(apiKey), headerImage, logger)
}

// NewWithClient sends through an already configured resend client, e.g. one
// with a custom HTTP client or base URL.
func NewWithClient(from, to string, client *resend.Client, headerImage []byte, logger *zap.Logger) *Mailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Mailer{
		from:        from,
		to:          to,
		client:      client,
		headerImage: headerImage,
		logger:      logger,
	}
}

// Subject is the digest's subject line for the given edition and day.
func Subject(edition int, day time.Time) string {
	return fmt.Sprintf("Album Chart #%d: %s", edition, day.Format("Jan 2, 2006"))
}

func (m *Mailer) Send(email *renderer.RenderedEmail, edition int) error {
	params := &resend.SendEmailRequest{
		From:    m.from,
		To:      []string{m.to},
		Subject: Subject(edition, time.Now()),
		Html:    email.HTML,
		Text:    email.Text,
	}

	if len(m.headerImage) > 0 {
		params.Attachments = []*resend.Attachment{
			{
				Content:   m.headerImage,
				Filename:  "header.jpg",
				ContentId: "header-image",
			},
		}
	}

	sent, err := m.client.Emails.Send(params)
	if err != nil {
		return fmt.Errorf("sending email via resend: %w", err)
	}

	m.logger.Info("email sent", zap.String("id", sent.Id), zap.String("to", m.to), zap.Int("edition", edition))
	return nil
}
