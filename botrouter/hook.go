package botrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	pkgError "github.com/AzielCF/az-crm/pkg/error"
)

const defaultHookTimeout = 30 * time.Second

// HookRequest is the payload delivered to a bot's callback endpoint.
// Identifiers travel as canonical UUID strings.
type HookRequest struct {
	Message string `json:"message"`
	Client  string `json:"client"`
	Company string `json:"company"`
}

// HookResponse is what the bot answers. Status "success" means the bot
// handled the message and Message carries the reply text.
type HookResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func (r *HookResponse) Handled() bool {
	return r.Status == "success"
}

// HookClient entrega mensajes entrantes al endpoint del bot.
type HookClient struct {
	httpClient *http.Client
}

func NewHookClient(timeout time.Duration) *HookClient {
	if timeout <= 0 {
		timeout = defaultHookTimeout
	}
	return &HookClient{httpClient: &http.Client{Timeout: timeout}}
}

// Send hace POST al hook URL y decodifica la respuesta del bot. Cualquier
// fallo de red, timeout o estado no exitoso se reporta como error externo.
func (c *HookClient) Send(ctx context.Context, hookURL string, request *HookRequest) (*HookResponse, error) {
	raw, err := json.Marshal(request)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, hookURL, bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, pkgError.ExternalCallError(fmt.Sprintf("bot hook request failed: %v", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, pkgError.ExternalCallError(fmt.Sprintf("bot hook returned status %d", resp.StatusCode))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return nil, pkgError.ExternalCallError(fmt.Sprintf("reading bot response: %v", err))
	}

	var hookResp HookResponse
	if err := json.Unmarshal(data, &hookResp); err != nil {
		return nil, pkgError.ExternalCallError(fmt.Sprintf("decoding bot response: %v", err))
	}
	return &hookResp, nil
}
