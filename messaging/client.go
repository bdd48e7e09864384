// Package messaging es el cliente saliente hacia la API del proveedor de
// mensajería. Cada llamada recibe la API key del tenant; el cliente en sí no
// guarda credenciales.
package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	pkgError "github.com/AzielCF/az-crm/pkg/error"
	"github.com/sirupsen/logrus"
)

const defaultTimeout = 15 * time.Second

// SendMessageRequest is the provider's outbound message payload.
type SendMessageRequest struct {
	ChatID       string `json:"chatId"`
	ChannelID    string `json:"channelId"`
	ChatType     string `json:"chatType,omitempty"`
	Text         string `json:"text,omitempty"`
	ContentURI   string `json:"contentUri,omitempty"`
	CrmUserID    string `json:"crmUserId,omitempty"`
	CrmMessageID string `json:"crmMessageId,omitempty"`
}

type SendMessageResponse struct {
	MessageID string `json:"messageId"`
	Status    string `json:"status"`
}

// Client talks to the provider REST API using per-tenant bearer keys.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// SendMessage entrega un mensaje saliente por el canal indicado.
func (c *Client) SendMessage(ctx context.Context, apiKey string, req *SendMessageRequest) (*SendMessageResponse, error) {
	if req.ChatID == "" || req.ChannelID == "" {
		return nil, pkgError.ValidationError("chatId and channelId are required")
	}

	var resp SendMessageResponse
	if err := c.jsonRequest(ctx, http.MethodPost, "/messages", apiKey, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// jsonRequest unifica la creación, ejecución y decodificación de peticiones
// hacia el proveedor.
func (c *Client) jsonRequest(ctx context.Context, method, path, apiKey string, body any, dest any) error {
	var bodyReader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		bodyReader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logrus.WithError(err).WithField("path", path).Error("[MESSAGING] provider request failed")
		return pkgError.ExternalCallError(fmt.Sprintf("provider request failed: %v", err))
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(io.LimitReader(resp.Body, 8192))
	if resp.StatusCode >= 400 {
		logrus.WithFields(logrus.Fields{
			"path":   path,
			"status": resp.StatusCode,
		}).Error("[MESSAGING] provider rejected request")
		return pkgError.ExternalCallError(fmt.Sprintf("provider status %d: %s", resp.StatusCode, string(data)))
	}

	if dest != nil && len(data) > 0 {
		return json.Unmarshal(data, dest)
	}
	return nil
}
