package chatbot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// EmptyReply es el texto que se guarda cuando el chatbot responde sin cuerpo.
const EmptyReply = "Chatbot returned empty response"

// HistoryEntry es un turno previo tal como lo espera el chatbot ("user" o "assistant").
type HistoryEntry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client define la interfaz para consultar al chatbot externo.
type Client interface {
	Ask(ctx context.Context, question string, history []HistoryEntry) (string, error)
}

// HTTPClient implementa Client contra POST {base}/chat.
type HTTPClient struct {
	baseURL string
	client  *http.Client
	log     *zap.Logger
}

// NewHTTPClient arma el cliente con timeouts separados de conexion y de respuesta. Sin reintentos.
func NewHTTPClient(baseURL string, connectTimeout, responseTimeout time.Duration, log *zap.Logger) *HTTPClient {
	if baseURL == "" {
		baseURL = "http://127.0.0.1:8000"
	}
	if connectTimeout <= 0 {
		connectTimeout = 10 * time.Second
	}
	if responseTimeout <= 0 {
		responseTimeout = 60 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: connectTimeout}).DialContext,
		TLSHandshakeTimeout:   connectTimeout,
		ResponseHeaderTimeout: responseTimeout,
		MaxIdleConns:          20,
		IdleConnTimeout:       90 * time.Second,
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Transport: transport,
			Timeout:   connectTimeout + responseTimeout,
		},
		log: log,
	}
}

type askRequest struct {
	Question            string         `json:"question"`
	ConversationHistory []HistoryEntry `json:"conversation_history,omitempty"`
}

func (c *HTTPClient) Ask(ctx context.Context, question string, history []HistoryEntry) (string, error) {
	bodyBytes, err := json.Marshal(askRequest{Question: question, ConversationHistory: history})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := c.baseURL + "/chat"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.log.Debug("calling chatbot", zap.String("url", url), zap.Int("history", len(history)))
	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		c.log.Warn("chatbot error status", zap.Int("status", resp.StatusCode), zap.ByteString("body", respBody))
		return "", fmt.Errorf("chatbot http error: status=%d", resp.StatusCode)
	}

	return ExtractReply(respBody), nil
}

// ExtractReply toma el campo "reply"; si falta o es null devuelve el cuerpo crudo,
// y si el cuerpo esta vacio devuelve EmptyReply.
func ExtractReply(body []byte) string {
	raw := strings.TrimSpace(string(body))
	if raw == "" || raw == "null" {
		return EmptyReply
	}
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return raw
	}
	reply, ok := payload["reply"]
	if !ok || string(reply) == "null" {
		return raw
	}
	var text string
	if err := json.Unmarshal(reply, &text); err == nil {
		return text
	}
	return string(reply)
}
