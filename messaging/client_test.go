package messaging

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgError "github.com/AzielCF/az-crm/pkg/error"
)

func TestSendMessage(t *testing.T) {
	var gotAuth string
	var gotBody SendMessageRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/messages", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		json.NewEncoder(w).Encode(SendMessageResponse{MessageID: "msg-1", Status: "sent"})
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	resp, err := client.SendMessage(context.Background(), "tenant-key", &SendMessageRequest{
		ChatID:    "chat-1",
		ChannelID: "channel-1",
		ChatType:  "whatsapp",
		Text:      "hola",
		CrmUserID: "user-1",
	})
	require.NoError(t, err)

	assert.Equal(t, "Bearer tenant-key", gotAuth)
	assert.Equal(t, "hola", gotBody.Text)
	assert.Equal(t, "msg-1", resp.MessageID)
	assert.Equal(t, "sent", resp.Status)
}

func TestSendMessageRejectsIncompleteRequest(t *testing.T) {
	client := NewClient("http://127.0.0.1:0", time.Second)

	_, err := client.SendMessage(context.Background(), "key", &SendMessageRequest{Text: "hola"})
	require.Error(t, err)

	var verr pkgError.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestSendMessagePropagatesProviderFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"bad channel"}`, http.StatusBadRequest)
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	_, err := client.SendMessage(context.Background(), "key", &SendMessageRequest{
		ChatID:    "chat-1",
		ChannelID: "channel-1",
	})
	require.Error(t, err)

	var eerr pkgError.ExternalCallError
	assert.ErrorAs(t, err, &eerr)
}
