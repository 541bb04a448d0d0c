package gateway

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter() *gin.Engine {
	return NewServer(NewStore()).Router()
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

type capturedListResponse struct {
	Count    int               `json:"count"`
	Messages []CapturedMessage `json:"messages"`
}

func decodeCaptured(t *testing.T, w *httptest.ResponseRecorder) capturedListResponse {
	t.Helper()
	var resp capturedListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestSendTextIsCaptured(t *testing.T) {
	router := newTestRouter()

	w := doJSON(t, router, http.MethodPost, "/send/text",
		map[string]any{"number": "34692747052", "text": "Hola"})
	require.Equal(t, http.StatusOK, w.Code)

	var sendResp struct {
		Success   bool   `json:"success"`
		MessageID string `json:"messageId"`
		Status    string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sendResp))
	assert.True(t, sendResp.Success)
	assert.NotEmpty(t, sendResp.MessageID)
	assert.Equal(t, "sent", sendResp.Status)

	resp := decodeCaptured(t, doJSON(t, router, http.MethodGet, "/captured", nil))
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "text", resp.Messages[0].Type)
	assert.Equal(t, "34692747052", resp.Messages[0].Phone)
	assert.Equal(t, "Hola", resp.Messages[0].Text)
	assert.NotEmpty(t, resp.Messages[0].Timestamp)
}

func TestSendTextRequiresNumber(t *testing.T) {
	router := newTestRouter()
	w := doJSON(t, router, http.MethodPost, "/send/text", map[string]any{"text": "sin número"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSendMenuCapturesSubtype(t *testing.T) {
	router := newTestRouter()

	w := doJSON(t, router, http.MethodPost, "/send/menu", map[string]any{
		"number":     "34692747052",
		"text":       "*Confirmación de Reserva*",
		"type":       "button",
		"choices":    []string{"Confirmar", "Cancelar"},
		"buttonText": "Elige",
	})
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeCaptured(t, doJSON(t, router, http.MethodGet, "/captured", nil))
	require.Equal(t, 1, resp.Count)
	msg := resp.Messages[0]
	assert.Equal(t, "menu_button", msg.Type)
	assert.Equal(t, "button", msg.MenuType)
	assert.Equal(t, []string{"Confirmar", "Cancelar"}, msg.Choices)
	assert.Equal(t, "Elige", msg.ButtonText)
}

func TestSendMenuDefaultsUnknownType(t *testing.T) {
	router := newTestRouter()
	doJSON(t, router, http.MethodPost, "/send/menu",
		map[string]any{"number": "34692747052", "text": "menú"})

	resp := decodeCaptured(t, doJSON(t, router, http.MethodGet, "/captured", nil))
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "menu_unknown", resp.Messages[0].Type)
}

func TestLatestCaptured(t *testing.T) {
	router := newTestRouter()
	for _, text := range []string{"uno", "dos", "tres"} {
		doJSON(t, router, http.MethodPost, "/send/text",
			map[string]any{"number": "34692747052", "text": text})
	}

	resp := decodeCaptured(t, doJSON(t, router, http.MethodGet, "/captured/latest?count=2", nil))
	require.Equal(t, 2, resp.Count)
	assert.Equal(t, "dos", resp.Messages[0].Text)
	assert.Equal(t, "tres", resp.Messages[1].Text)

	// Default is the single most recent message.
	resp = decodeCaptured(t, doJSON(t, router, http.MethodGet, "/captured/latest", nil))
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "tres", resp.Messages[0].Text)

	w := doJSON(t, router, http.MethodGet, "/captured/latest?count=abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCapturedForPhoneFilters(t *testing.T) {
	router := newTestRouter()
	doJSON(t, router, http.MethodPost, "/send/text",
		map[string]any{"number": "34692747052", "text": "para el cliente"})
	doJSON(t, router, http.MethodPost, "/send/text",
		map[string]any{"number": "34600000000", "text": "para el operador"})

	resp := decodeCaptured(t, doJSON(t, router, http.MethodGet, "/captured/phone/34692747052", nil))
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "para el cliente", resp.Messages[0].Text)
}

func TestFindMessagesServesMirroredHistory(t *testing.T) {
	router := newTestRouter()
	doJSON(t, router, http.MethodPost, "/send/text",
		map[string]any{"number": "34692747052", "text": "respuesta del agente"})

	w := doJSON(t, router, http.MethodPost, "/message/find",
		map[string]any{"chatid": "34692747052@s.whatsapp.net"})
	require.Equal(t, http.StatusOK, w.Code)

	var history []HistoryMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &history))
	require.Len(t, history, 1)
	assert.True(t, history[0].FromMe)
	assert.Equal(t, "respuesta del agente", history[0].Text)
	assert.Equal(t, "34692747052@s.whatsapp.net", history[0].ChatID)
}

func TestInjectHistoryAndLimit(t *testing.T) {
	router := newTestRouter()

	messages := []map[string]any{
		{"text": "hola", "fromMe": false},
		{"text": "buenas", "fromMe": true},
		{"text": "quiero reservar", "fromMe": false},
	}
	w := doJSON(t, router, http.MethodPost, "/history/inject",
		map[string]any{"phone": "34692747052", "messages": messages})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodPost, "/message/find",
		map[string]any{"chatid": "34692747052@s.whatsapp.net", "limit": 2})
	var history []HistoryMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &history))
	require.Len(t, history, 2)
	assert.Equal(t, "buenas", history[0].Text)
	assert.Equal(t, "quiero reservar", history[1].Text)
	assert.Less(t, history[0].Timestamp, history[1].Timestamp)
}

func TestClearEndpoints(t *testing.T) {
	router := newTestRouter()
	doJSON(t, router, http.MethodPost, "/send/text",
		map[string]any{"number": "34692747052", "text": "algo"})

	w := doJSON(t, router, http.MethodDelete, "/captured", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeCaptured(t, doJSON(t, router, http.MethodGet, "/captured", nil))
	assert.Equal(t, 0, resp.Count)

	// History survives a captured-only clear.
	w = doJSON(t, router, http.MethodPost, "/message/find",
		map[string]any{"chatid": "34692747052@s.whatsapp.net"})
	var history []HistoryMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &history))
	assert.Len(t, history, 1)

	w = doJSON(t, router, http.MethodDelete, "/all", nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = doJSON(t, router, http.MethodPost, "/message/find",
		map[string]any{"chatid": "34692747052@s.whatsapp.net"})
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &history))
	assert.Empty(t, history)
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestRouter()
	w := doJSON(t, router, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp["status"])
}
