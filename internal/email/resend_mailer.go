package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"github.com/hypernova-labs/sifen-service/internal/config"
	"github.com/hypernova-labs/sifen-service/internal/documents"
	"github.com/hypernova-labs/sifen-service/internal/invoicing"
	"github.com/hypernova-labs/sifen-service/internal/models"
	"github.com/resend/resend-go/v2"
	"github.com/sirupsen/logrus"
)

// Sender es la parte de la API de Resend que usa el mailer
type Sender interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

var invoiceTemplate = template.Must(template.New("invoice").Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Factura Electrónica {{.Number}}</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background-color: #f8f9fa; padding: 20px; text-align: center; border-radius: 8px; }
        .total { font-size: 18px; font-weight: bold; color: #2980b9; }
        .footer { margin-top: 30px; font-size: 13px; color: #666; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>Factura Electrónica</h1>
            <p>Nº {{.Number}} del {{.IssueDate}}</p>
        </div>
        <p>Hola {{.BuyerName}},</p>
        <p>Adjuntamos el KuDE de la factura emitida por <strong>{{.IssuerName}}</strong> (RUC {{.IssuerRUC}}).</p>
        <ul>
            <li><strong>Total:</strong> <span class="total">{{.Currency}} {{.Total}}</span></li>
            {{- if .AuthorizationCode}}
            <li><strong>Código de autorización:</strong> {{.AuthorizationCode}}</li>
            {{- end}}
        </ul>
        <div class="footer">
            <p>Este es un email automático del sistema de facturación electrónica.</p>
        </div>
    </div>
</body>
</html>`))

type invoiceView struct {
	Number            string
	IssueDate         string
	BuyerName         string
	IssuerName        string
	IssuerRUC         string
	Currency          string
	Total             string
	AuthorizationCode string
}

// ResendMailer envía el KuDE al receptor usando la API de Resend
type ResendMailer struct {
	sender    Sender
	fromEmail string
	logger    *logrus.Logger
}

// NewResendMailer crea una nueva instancia con el cliente de Resend
func NewResendMailer(cfg config.EmailConfig, logger *logrus.Logger) *ResendMailer {
	return NewResendMailerWithSender(resend.NewClient(cfg.ResendAPIKey).Emails, cfg.From, logger)
}

// NewResendMailerWithSender crea el mailer sobre un Sender ya construido
func NewResendMailerWithSender(sender Sender, from string, logger *logrus.Logger) *ResendMailer {
	return &ResendMailer{
		sender:    sender,
		fromEmail: from,
		logger:    logger,
	}
}

// SendInvoice envía el email con el KuDE adjunto y retorna el ID asignado por Resend
func (s *ResendMailer) SendInvoice(ctx context.Context, mail models.InvoiceMail) (string, error) {
	var body bytes.Buffer
	err := invoiceTemplate.Execute(&body, invoiceView{
		Number:            mail.Number,
		IssueDate:         mail.IssueDate,
		BuyerName:         mail.BuyerName,
		IssuerName:        mail.IssuerName,
		IssuerRUC:         mail.IssuerRUC,
		Currency:          mail.Currency,
		Total:             documents.FormatAmount(invoicing.Currency(mail.Currency), mail.Total),
		AuthorizationCode: mail.AuthorizationCode,
	})
	if err != nil {
		return "", fmt.Errorf("error rendering email body: %w", err)
	}

	subject := fmt.Sprintf("Factura %s - %s", mail.Number, mail.IssuerName)
	request := &resend.SendEmailRequest{
		From:    s.fromEmail,
		To:      []string{mail.To},
		Subject: subject,
		Html:    body.String(),
		Attachments: []*resend.Attachment{
			{Filename: mail.Attachment.Filename, Content: mail.Attachment.Content},
		},
	}

	result, err := s.sender.SendWithContext(ctx, request)
	if err != nil {
		return "", fmt.Errorf("error sending email via Resend: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"email_id": result.Id,
		"to":       mail.To,
		"subject":  subject,
	}).Info("Invoice email sent")

	return result.Id, nil
}
