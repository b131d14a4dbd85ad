package sifen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/hypernova-labs/sifen-service/internal/config"
	"github.com/hypernova-labs/sifen-service/internal/invoicing"
	"github.com/sirupsen/logrus"
)

var (
	// ErrDocumentNotFound indica que el gateway no conoce el identificador consultado
	ErrDocumentNotFound = errors.New("document not found at SIFEN gateway")
	// ErrInvalidResponse indica una respuesta que no respeta el contrato del gateway
	ErrInvalidResponse = errors.New("invalid SIFEN gateway response")
)

// GatewayError representa una respuesta no exitosa del gateway
type GatewayError struct {
	StatusCode int
	Message    string
}

// Error implementa la interfaz error
func (e *GatewayError) Error() string {
	return fmt.Sprintf("SIFEN gateway returned %d: %s", e.StatusCode, e.Message)
}

// HTTPClient permite sustituir el cliente HTTP en pruebas
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client implementa los canales de envío y consulta de estado sobre el gateway SIFEN
type Client struct {
	baseURL    string
	apiKey     string
	httpClient HTTPClient
	breaker    *CircuitBreaker
	logger     *logrus.Logger
}

// NewClient crea un cliente del gateway. Si httpClient es nil se usa uno con el timeout configurado.
func NewClient(cfg config.AuthorityConfig, httpClient HTTPClient, logger *logrus.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: httpClient,
		breaker:    NewCircuitBreaker(cfg.BreakerMaxFailures, cfg.BreakerCooldown),
		logger:     logger,
	}
}

type submitResponse struct {
	DocumentID string `json:"document_id"`
}

type statusResponse struct {
	Status            string `json:"status"`
	AuthorizationCode string `json:"authorization_code,omitempty"`
	Reason            string `json:"reason,omitempty"`
}

type errorBody struct {
	Message string `json:"message"`
}

// Submit envía el documento y retorna el identificador asignado por el gateway.
// Cualquier error deja la factura sin enviar.
func (c *Client) Submit(ctx context.Context, doc *Document) (string, error) {
	body, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("error encoding document: %w", err)
	}

	var parsed submitResponse
	err = c.breaker.Execute(ctx, func(ctx context.Context) error {
		return c.do(ctx, http.MethodPost, c.baseURL+"/documents", body, &parsed)
	}, countsAsGatewayFailure)
	if err != nil {
		c.logger.WithError(err).WithFields(logrus.Fields{
			"invoice_id": doc.InvoiceID,
			"number":     doc.Number,
		}).Warn("SIFEN submission failed")
		return "", err
	}

	documentID := strings.TrimSpace(parsed.DocumentID)
	if documentID == "" {
		return "", fmt.Errorf("%w: empty document_id", ErrInvalidResponse)
	}

	c.logger.WithFields(logrus.Fields{
		"invoice_id":  doc.InvoiceID,
		"document_id": documentID,
	}).Info("Document accepted for processing by SIFEN")
	return documentID, nil
}

// Status consulta el veredicto de un documento enviado. Timeouts, errores 5xx y el
// circuito abierto se informan como PendingVerdict para reintentar más tarde.
func (c *Client) Status(ctx context.Context, documentID string) (invoicing.Verdict, error) {
	var parsed statusResponse
	err := c.breaker.Execute(ctx, func(ctx context.Context) error {
		return c.do(ctx, http.MethodGet, c.baseURL+"/documents/"+url.PathEscape(documentID), nil, &parsed)
	}, countsAsGatewayFailure)
	if err != nil {
		if isTransient(err) {
			c.logger.WithError(err).WithField("document_id", documentID).Warn("SIFEN status unavailable, treating as pending")
			return invoicing.PendingVerdict{}, nil
		}
		var gwErr *GatewayError
		if errors.As(err, &gwErr) && gwErr.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, documentID)
		}
		return nil, err
	}

	return parsed.verdict()
}

func (r statusResponse) verdict() (invoicing.Verdict, error) {
	switch strings.ToLower(strings.TrimSpace(r.Status)) {
	case "pending":
		return invoicing.PendingVerdict{}, nil
	case "accepted":
		if strings.TrimSpace(r.AuthorizationCode) == "" {
			return nil, fmt.Errorf("%w: accepted without authorization_code", ErrInvalidResponse)
		}
		return invoicing.AcceptedVerdict{AuthorizationCode: r.AuthorizationCode}, nil
	case "rejected":
		return invoicing.RejectedVerdict{Reason: r.Reason}, nil
	default:
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidResponse, r.Status)
	}
}

func (c *Client) do(ctx context.Context, method, endpoint string, body []byte, out interface{}) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("error calling SIFEN gateway: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("error reading SIFEN response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var parsed errorBody
		message := strings.TrimSpace(string(payload))
		if json.Unmarshal(payload, &parsed) == nil && parsed.Message != "" {
			message = parsed.Message
		}
		return &GatewayError{StatusCode: resp.StatusCode, Message: message}
	}

	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return nil
}

// countsAsGatewayFailure excluye los 4xx: son problemas del pedido, no del gateway
func countsAsGatewayFailure(err error) bool {
	var gwErr *GatewayError
	if errors.As(err, &gwErr) {
		return gwErr.StatusCode >= 500
	}
	return !errors.Is(err, ErrInvalidResponse) && !errors.Is(err, context.Canceled)
}

func isTransient(err error) bool {
	if errors.Is(err, ErrCircuitOpen) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var gwErr *GatewayError
	return errors.As(err, &gwErr) && gwErr.StatusCode >= 500
}
