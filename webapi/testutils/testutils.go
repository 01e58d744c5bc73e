// Package testutils builds an in-memory gateway for handler tests.
package testutils

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/amirasaad/ledger/infra/eventbus"
	infralock "github.com/amirasaad/ledger/infra/lock"
	"github.com/amirasaad/ledger/infra/repository/memory"
	"github.com/amirasaad/ledger/pkg/app"
	"github.com/amirasaad/ledger/pkg/config"
	"github.com/amirasaad/ledger/pkg/domain/account"
	"github.com/amirasaad/ledger/webapi"
	"github.com/amirasaad/ledger/webapi/common"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/stretchr/testify/require"
)

// TestApp bundles the gateway with the in-memory services behind it.
type TestApp struct {
	Fiber  *fiber.App
	App    *app.App
	Locker *infralock.MemoryLocker
	Bus    *eventbus.MemoryEventBus
}

// Envelope is the decoded success response.
type Envelope[T any] struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

// SetupTestApp builds a gateway over a fresh memory store. Lock waits
// give up after 50ms so contention tests stay fast.
func SetupTestApp(t *testing.T) *TestApp {
	t.Helper()
	log.SetOutput(io.Discard)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	locker := infralock.NewMemoryLocker(50 * time.Millisecond)
	bus := eventbus.NewWithMemory(logger)
	cfg := &config.App{
		Env:       "test",
		RateLimit: &config.RateLimit{MaxRequests: 1000, Window: time.Minute},
		Lock:      &config.Lock{KeyPrefix: "lock:account:", UserPrefix: "lock:user:"},
		Cache:     &config.Cache{TTL: time.Minute},
		Ledger:    &config.Ledger{MaxAccountsPerUser: 10, AllocatorAttempts: 20},
	}
	a := app.New(&app.Deps{
		Uow:      memory.NewUoW(memory.NewStore()),
		Locker:   locker,
		EventBus: bus,
		Logger:   logger,
	}, cfg)
	return &TestApp{Fiber: webapi.SetupApp(a), App: a, Locker: locker, Bus: bus}
}

// SeedAccount creates a user and one checking account holding balance.
func (ta *TestApp) SeedAccount(t *testing.T, balance int64) (userID int64, accountNumber string) {
	t.Helper()
	ctx := context.Background()
	u, err := ta.App.UserService.CreateUser(ctx, "alice")
	require.NoError(t, err)
	acc, err := ta.App.AccountService.CreateAccount(ctx, u.ID, balance, account.Checking)
	require.NoError(t, err)
	return u.ID, acc.AccountNumber
}

// MakeRequest sends a JSON request through the fiber app.
func MakeRequest(app *fiber.App, method, path, body string) *http.Response {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, _ := app.Test(req, 1000000)
	return resp
}

// Decode reads a success envelope.
func Decode[T any](t *testing.T, resp *http.Response) Envelope[T] {
	t.Helper()
	defer resp.Body.Close() //nolint:errcheck
	var env Envelope[T]
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return env
}

// DecodeProblem reads a problem details body.
func DecodeProblem(t *testing.T, resp *http.Response) common.ProblemDetails {
	t.Helper()
	defer resp.Body.Close() //nolint:errcheck
	var pd common.ProblemDetails
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&pd))
	return pd
}
