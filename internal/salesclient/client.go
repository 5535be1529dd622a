package salesclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ventapos/terminal/internal/domain"
)

// genericRejection is surfaced when the Sales API rejects a sale without a
// readable error body.
const genericRejection = "sale was rejected by the sales service"

// Client submits finished sales to the external Sales API. One call, no
// retries: a failed submission is terminal and the caller keeps its draft.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

func New(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

func (c *Client) Create(ctx context.Context, sale domain.SaleRequest) (*domain.SaleConfirmation, error) {
	payload, err := json.Marshal(sale)
	if err != nil {
		return nil, fmt.Errorf("encode sale: %w", err)
	}

	requestID := uuid.NewString()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/sales", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("submit sale: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		msg := readErrorMessage(resp.Body)
		c.logger.Warn("sales API rejected sale",
			zap.String("request_id", requestID),
			zap.Int("status", resp.StatusCode),
			zap.String("message", msg),
		)
		return nil, errors.New(msg)
	}

	var confirmation domain.SaleConfirmation
	if err := json.NewDecoder(resp.Body).Decode(&confirmation); err != nil {
		// The sale is already committed upstream; an unreadable success body
		// only costs us the remote id.
		c.logger.Warn("sales API success body not parseable", zap.String("request_id", requestID), zap.Error(err))
		return &domain.SaleConfirmation{}, nil
	}
	return &confirmation, nil
}

// readErrorMessage extracts a human-readable message from an error payload
// shaped {"error": ...} or {"message": ...}, falling back to a generic one.
func readErrorMessage(r io.Reader) string {
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(io.LimitReader(r, 64<<10)).Decode(&body); err == nil {
		if strings.TrimSpace(body.Error) != "" {
			return body.Error
		}
		if strings.TrimSpace(body.Message) != "" {
			return body.Message
		}
	}
	return genericRejection
}
