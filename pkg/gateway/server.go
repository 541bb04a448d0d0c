package gateway

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// Server exposes the gateway mock over HTTP: the send endpoints the agent
// calls, the history lookup it reads, and the test-control endpoints the
// tester uses to inspect and reset captured state.
type Server struct {
	store *Store
}

// NewServer creates a server over the given store.
func NewServer(store *Store) *Server {
	return &Server{store: store}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	// Endpoints the agent under test calls.
	r.POST("/send/text", s.sendText)
	r.POST("/send/menu", s.sendMenu)
	r.POST("/message/find", s.findMessages)

	// Test-control endpoints.
	r.GET("/captured", s.getCaptured)
	r.GET("/captured/latest", s.getLatestCaptured)
	r.GET("/captured/phone/:phone", s.getCapturedForPhone)
	r.DELETE("/captured", s.clearCaptured)
	r.DELETE("/history", s.clearHistory)
	r.DELETE("/all", s.clearAll)
	r.POST("/history/inject", s.injectHistory)
	r.GET("/health", s.health)

	return r
}

type sendTextRequest struct {
	Number string `json:"number" binding:"required"`
	Text   string `json:"text"`
}

func (s *Server) sendText(c *gin.Context) {
	var req sendTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg := s.store.Capture(CapturedMessage{
		Type:  "text",
		Phone: req.Number,
		Text:  req.Text,
	})
	slog.Debug("captured text send", "phone", req.Number, "text", truncate(req.Text, 80))

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"messageId": msg.ID,
		"status":    "sent",
	})
}

type sendMenuRequest struct {
	Number     string           `json:"number" binding:"required"`
	Text       string           `json:"text"`
	Type       string           `json:"type"`
	Choices    []string         `json:"choices"`
	Sections   []map[string]any `json:"sections"`
	ButtonText string           `json:"buttonText"`
	FooterText string           `json:"footerText"`
}

func (s *Server) sendMenu(c *gin.Context) {
	var req sendMenuRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	menuType := req.Type
	if menuType == "" {
		menuType = "unknown"
	}
	msg := s.store.Capture(CapturedMessage{
		Type:       "menu_" + menuType,
		Phone:      req.Number,
		Text:       req.Text,
		MenuType:   menuType,
		Choices:    req.Choices,
		Sections:   req.Sections,
		ButtonText: req.ButtonText,
		FooterText: req.FooterText,
	})
	slog.Debug("captured menu send", "phone", req.Number, "menu_type", menuType)

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"messageId": msg.ID,
		"status":    "sent",
	})
}

type findMessagesRequest struct {
	ChatID string `json:"chatid"`
	Limit  int    `json:"limit"`
}

func (s *Server) findMessages(c *gin.Context) {
	var req findMessagesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Limit == 0 {
		req.Limit = 20
	}
	phone := strings.TrimSuffix(req.ChatID, "@s.whatsapp.net")
	c.JSON(http.StatusOK, s.store.History(phone, req.Limit))
}

func (s *Server) getCaptured(c *gin.Context) {
	msgs := s.store.All()
	c.JSON(http.StatusOK, gin.H{"count": len(msgs), "messages": msgs})
}

func (s *Server) getLatestCaptured(c *gin.Context) {
	count := 1
	if raw := c.Query("count"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "count must be an integer"})
			return
		}
		count = n
	}
	msgs := s.store.Latest(count)
	c.JSON(http.StatusOK, gin.H{"count": len(msgs), "messages": msgs})
}

func (s *Server) getCapturedForPhone(c *gin.Context) {
	msgs := s.store.ForPhone(c.Param("phone"))
	c.JSON(http.StatusOK, gin.H{"count": len(msgs), "messages": msgs})
}

func (s *Server) clearCaptured(c *gin.Context) {
	s.store.ClearCaptured()
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "captured messages cleared"})
}

func (s *Server) clearHistory(c *gin.Context) {
	s.store.ClearHistory()
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "history cleared"})
}

func (s *Server) clearAll(c *gin.Context) {
	s.store.ClearAll()
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "all data cleared"})
}

type injectHistoryRequest struct {
	Phone    string `json:"phone" binding:"required"`
	Messages []struct {
		Text   string `json:"text"`
		FromMe bool   `json:"fromMe"`
		Type   string `json:"type"`
	} `json:"messages"`
}

func (s *Server) injectHistory(c *gin.Context) {
	var req injectHistoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	entries := make([]HistoryMessage, len(req.Messages))
	for i, m := range req.Messages {
		entries[i] = HistoryMessage{Text: m.Text, FromMe: m.FromMe, Type: m.Type}
	}
	n := s.store.InjectHistory(req.Phone, entries)
	c.JSON(http.StatusOK, gin.H{"success": true, "injected_count": n})
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":              "healthy",
		"timestamp":           time.Now().Format(time.RFC3339Nano),
		"captured_count":      s.store.Count(),
		"phones_with_history": s.store.PhonesWithHistory(),
	})
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
