// Package e2e provides end-to-end test infrastructure for the booking tester:
// a real gateway mock over HTTP, a scripted stand-in for the booking agent,
// and an isolated bookings database.
package e2e

import (
	"fmt"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/villacarmen/bookprobe/pkg/gateway"
	"github.com/villacarmen/bookprobe/pkg/storage"
	"github.com/villacarmen/bookprobe/pkg/transport"
	"github.com/villacarmen/bookprobe/pkg/verify"
	"github.com/villacarmen/bookprobe/test/util"
)

// testPhone is the simulated customer used by all e2e scenarios.
const testPhone = "34692747052"

// testPhoneLast9 is how the agent persists the contact number.
const testPhoneLast9 = "692747052"

// TestHarness boots the full loop for one test: gateway mock, scripted
// agent, bookings database, transport client, and verifier.
type TestHarness struct {
	Agent    *ScriptedAgent
	Gateway  *gateway.Store
	Client   *transport.Client
	Store    *storage.Store
	Verifier *verify.Verifier

	GatewayURL string
	AgentURL   string
	Phone      string
	PhoneLast9 string

	t *testing.T
}

// harnessConfig holds options accumulated before creating the harness.
type harnessConfig struct {
	responseTimeout time.Duration
	pollInterval    time.Duration
}

// HarnessOption configures the test harness.
type HarnessOption func(*harnessConfig)

// WithResponseTimeout overrides how long each send waits for a reply.
func WithResponseTimeout(d time.Duration) HarnessOption {
	return func(c *harnessConfig) { c.responseTimeout = d }
}

// WithPollInterval overrides the capture poll interval.
func WithPollInterval(d time.Duration) HarnessOption {
	return func(c *harnessConfig) { c.pollInterval = d }
}

// NewTestHarness starts everything on random loopback ports. Shutdown is
// registered via t.Cleanup automatically.
func NewTestHarness(t *testing.T, opts ...HarnessOption) *TestHarness {
	t.Helper()

	hc := &harnessConfig{
		responseTimeout: 10 * time.Second,
		pollInterval:    25 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(hc)
	}

	db := util.SetupTestDatabase(t)

	// Gateway mock on a random port.
	gwStore := gateway.NewStore()
	gatewayURL := serveHTTP(t, gateway.NewServer(gwStore).Router())

	// Scripted agent on a random port, replying through the gateway.
	agent := NewScriptedAgent(db, gatewayURL)
	agentURL := serveHTTP(t, agent.Router())

	store := storage.NewStore(db)
	client := transport.NewClient(transport.Config{
		WebhookURL:      agentURL + "/api/webhook/whatsapp-webhook",
		AgentBaseURL:    agentURL,
		GatewayURL:      gatewayURL,
		DefaultPhone:    testPhone,
		ResponseTimeout: hc.responseTimeout,
		PollInterval:    hc.pollInterval,
	})

	return &TestHarness{
		Agent:      agent,
		Gateway:    gwStore,
		Client:     client,
		Store:      store,
		Verifier:   verify.New(store),
		GatewayURL: gatewayURL,
		AgentURL:   agentURL,
		Phone:      testPhone,
		PhoneLast9: testPhoneLast9,
		t:          t,
	}
}

// serveHTTP runs the handler on a random loopback port and returns its base
// URL. The server is shut down via t.Cleanup.
func serveHTTP(t *testing.T, handler http.Handler) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := &http.Server{Handler: handler}
	go func() { _ = srv.Serve(ln) }()
	t.Cleanup(func() { _ = srv.Close() })

	return fmt.Sprintf("http://%s", ln.Addr().String())
}
