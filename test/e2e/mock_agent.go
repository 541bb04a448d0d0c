package e2e

import (
	"bytes"
	stdsql "database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
)

// AgentScriptEntry defines how the scripted agent reacts to one inbound
// customer message. Entries are consumed strictly in order.
type AgentScriptEntry struct {
	// Text is the plain-text reply sent back through the gateway.
	Text string
	// Menu, when set, replaces Text with a menu send.
	Menu *MenuReply
	// AdminText, when set, is additionally sent as plain text to the
	// operator phone (booking notifications).
	AdminText string
	// Booking, when set, is inserted into the bookings table before replying.
	Booking *BookingSeed
	// NoReply consumes the message without sending anything, simulating a
	// silent agent.
	NoReply bool
}

// MenuReply is a scripted menu send.
type MenuReply struct {
	Text       string
	Type       string // "button" or "list"
	Choices    []string
	Sections   []map[string]any
	ButtonText string
}

// BookingSeed is a row the scripted agent persists, mimicking the real
// agent's insert on booking completion.
type BookingSeed struct {
	CustomerName string
	Phone        string // stored as-is; pass the last nine digits
	Date         string // yyyy-mm-dd
	Time         string // HH:MM
	PartySize    int
	RiceType     string // empty → NULL
	RiceServings int    // 0 → NULL
}

// operatorPhone is where the scripted agent addresses booking notifications.
const operatorPhone = "34600000000"

// ScriptedAgent stands in for the booking agent: it accepts webhook posts,
// consumes its script one entry per message, and replies by calling the
// gateway's send endpoints like the real agent would.
type ScriptedAgent struct {
	mu         sync.Mutex
	entries    []AgentScriptEntry
	index      int
	defaultTxt string
	received   []string
	clearCalls []string

	db         *stdsql.DB
	gatewayURL string
	http       *http.Client
}

// NewScriptedAgent creates a scripted agent that inserts bookings into db and
// replies via the gateway at gatewayURL.
func NewScriptedAgent(db *stdsql.DB, gatewayURL string) *ScriptedAgent {
	return &ScriptedAgent{
		db:         db,
		gatewayURL: gatewayURL,
		http:       &http.Client{},
	}
}

// Add appends one script entry.
func (a *ScriptedAgent) Add(entry AgentScriptEntry) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, entry)
}

// AddText appends a plain-text reply entry.
func (a *ScriptedAgent) AddText(text string) {
	a.Add(AgentScriptEntry{Text: text})
}

// SetDefaultReply sets the text sent when the script is exhausted. Without
// it, exhausted scripts go silent.
func (a *ScriptedAgent) SetDefaultReply(text string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.defaultTxt = text
}

// Received returns every customer message text seen so far, in order.
func (a *ScriptedAgent) Received() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.received...)
}

// ClearCalls returns the phones passed to the clear-state endpoint.
func (a *ScriptedAgent) ClearCalls() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.clearCalls...)
}

// Router builds the agent's HTTP surface: the inbound webhook, the
// test-control clear-state endpoint, and the health probe.
func (a *ScriptedAgent) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.POST("/api/webhook/whatsapp-webhook", a.handleWebhook)
	r.POST("/api/webhook/test/clear-state", a.handleClearState)
	r.GET("/api/webhook/health", a.handleHealth)
	return r
}

type inboundWebhook struct {
	Message struct {
		ChatID string `json:"chatid"`
		Text   string `json:"text"`
	} `json:"message"`
}

func (a *ScriptedAgent) handleWebhook(c *gin.Context) {
	var payload inboundWebhook
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	phone := strings.TrimSuffix(payload.Message.ChatID, "@s.whatsapp.net")

	a.mu.Lock()
	a.received = append(a.received, payload.Message.Text)
	var entry AgentScriptEntry
	switch {
	case a.index < len(a.entries):
		entry = a.entries[a.index]
		a.index++
	case a.defaultTxt != "":
		entry = AgentScriptEntry{Text: a.defaultTxt}
	default:
		entry = AgentScriptEntry{NoReply: true}
	}
	a.mu.Unlock()

	if entry.Booking != nil {
		if err := a.insertBooking(entry.Booking); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
	}
	if !entry.NoReply {
		if entry.Menu != nil {
			if err := a.sendMenu(phone, entry.Menu); err != nil {
				c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
				return
			}
		} else {
			if err := a.sendText(phone, entry.Text); err != nil {
				c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
				return
			}
		}
	}
	if entry.AdminText != "" {
		if err := a.sendText(operatorPhone, entry.AdminText); err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "processed"})
}

func (a *ScriptedAgent) handleClearState(c *gin.Context) {
	a.mu.Lock()
	a.clearCalls = append(a.clearCalls, c.Query("phone"))
	a.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (a *ScriptedAgent) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func (a *ScriptedAgent) insertBooking(b *BookingSeed) error {
	name := b.CustomerName
	if name == "" {
		name = "Cliente"
	}
	var riceType, riceServings any
	if b.RiceType != "" {
		raw, err := json.Marshal([]string{b.RiceType})
		if err != nil {
			return err
		}
		riceType = string(raw)
	}
	if b.RiceServings > 0 {
		raw, err := json.Marshal([]int{b.RiceServings})
		if err != nil {
			return err
		}
		riceServings = string(raw)
	}
	_, err := a.db.Exec(`
INSERT INTO bookings
  (customer_name, contact_phone, reservation_date, reservation_time, party_size, arroz_type, arroz_servings, status)
VALUES ($1, $2, $3::date, $4::time, $5, $6::jsonb, $7::jsonb, 'pending')`,
		name, b.Phone, b.Date, b.Time, b.PartySize, riceType, riceServings)
	if err != nil {
		return fmt.Errorf("failed to insert scripted booking: %w", err)
	}
	return nil
}

func (a *ScriptedAgent) sendText(phone, text string) error {
	return a.post("/send/text", map[string]any{"number": phone, "text": text})
}

func (a *ScriptedAgent) sendMenu(phone string, menu *MenuReply) error {
	return a.post("/send/menu", map[string]any{
		"number":     phone,
		"text":       menu.Text,
		"type":       menu.Type,
		"choices":    menu.Choices,
		"sections":   menu.Sections,
		"buttonText": menu.ButtonText,
	})
}

func (a *ScriptedAgent) post(path string, payload map[string]any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	resp, err := a.http.Post(a.gatewayURL+path, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("gateway send failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("gateway send failed: status %d", resp.StatusCode)
	}
	return nil
}
