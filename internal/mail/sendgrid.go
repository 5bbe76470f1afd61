package mail

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

var (
	sendgridHost     = "https://api.sendgrid.com"
	sendgridEndpoint = "/v3/mail/send"
)

// SendgridService delivers messages through the SendGrid API
type SendgridService struct {
	key        string
	from       *sgmail.Email
	subjPrefix string
	logger     *slog.Logger
}

var _ EmailService = (*SendgridService)(nil)

// NewSendgridService creates a SendGrid-backed email service
func NewSendgridService(apiKey, fromName, fromAddress string, logger *slog.Logger) *SendgridService {
	return &SendgridService{
		key:        apiKey,
		from:       sgmail.NewEmail(fromName, fromAddress),
		subjPrefix: "[Careers From Here] ",
		logger:     logger,
	}
}

// SendMessages fires each message off on its own goroutine. Failures are
// logged, never returned.
func (svc *SendgridService) SendMessages(ctx context.Context, messages ...*Message) {
	for _, msg := range messages {
		msg := msg
		go func() {
			if msg.To == "" || msg.Body == "" {
				return
			}
			svc.send(context.WithoutCancel(ctx), msg)
		}()
	}
}

func (svc *SendgridService) prepare(msg *Message) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = svc.subjPrefix + msg.Subject
	p.AddTos(sgmail.NewEmail(msg.ToName, msg.To))

	m := sgmail.NewV3Mail()
	m.SetFrom(svc.from)
	m.AddPersonalizations(p)
	m.AddContent(sgmail.NewContent("text/plain", msg.Body))

	return m
}

func (svc *SendgridService) send(ctx context.Context, msg *Message) {
	req := sendgrid.GetRequest(svc.key, sendgridEndpoint, sendgridHost)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(svc.prepare(msg))

	res, err := sendgrid.API(req)
	if err != nil {
		svc.logger.ErrorContext(ctx, "Failed to send email", "to", msg.To, "error", err)
	} else if res.StatusCode >= http.StatusBadRequest {
		svc.logger.ErrorContext(ctx, "Email rejected by provider",
			"to", msg.To,
			"status", res.StatusCode,
			"body", res.Body)
	}
}
