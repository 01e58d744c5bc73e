package account_test

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/amirasaad/ledger/webapi/account"
	"github.com/amirasaad/ledger/webapi/testutils"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAccount(t *testing.T) {
	ta := testutils.SetupTestApp(t)
	u, err := ta.App.UserService.CreateUser(context.Background(), "alice")
	require.NoError(t, err)

	resp := testutils.MakeRequest(ta.Fiber, http.MethodPost, "/account",
		fmt.Sprintf(`{"userId":%d,"initialBalance":5000}`, u.ID))
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	env := testutils.Decode[account.CreateAccountResponse](t, resp)
	assert.Equal(t, "Account created", env.Message)
	assert.Equal(t, u.ID, env.Data.UserID)
	assert.Len(t, env.Data.AccountNumber, 10)
	assert.Equal(t, "CHECKING", env.Data.AccountType)
	assert.False(t, env.Data.RegisteredAt.IsZero())
}

func TestCreateAccount_Rejections(t *testing.T) {
	ta := testutils.SetupTestApp(t)
	u, err := ta.App.UserService.CreateUser(context.Background(), "alice")
	require.NoError(t, err)

	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"malformed body", `{"userId":`, fiber.StatusBadRequest, "INVALID_REQUEST"},
		{"missing user", `{"initialBalance":10}`, fiber.StatusBadRequest, "INVALID_REQUEST"},
		{"negative balance", fmt.Sprintf(`{"userId":%d,"initialBalance":-1}`, u.ID), fiber.StatusBadRequest, "INVALID_REQUEST"},
		{"unknown type", fmt.Sprintf(`{"userId":%d,"accountType":"GOLD"}`, u.ID), fiber.StatusBadRequest, "INVALID_REQUEST"},
		{"unknown user", `{"userId":999}`, fiber.StatusNotFound, "USER_NOT_FOUND"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp := testutils.MakeRequest(ta.Fiber, http.MethodPost, "/account", tc.body)
			assert.Equal(t, tc.status, resp.StatusCode)
			assert.Equal(t, "application/problem+json", resp.Header.Get("Content-Type"))
			pd := testutils.DecodeProblem(t, resp)
			assert.Equal(t, tc.code, pd.ErrorCode)
			assert.Equal(t, tc.status, pd.Status)
		})
	}
}

func TestCreateAccount_LimitPerUser(t *testing.T) {
	ta := testutils.SetupTestApp(t)
	u, err := ta.App.UserService.CreateUser(context.Background(), "alice")
	require.NoError(t, err)
	body := fmt.Sprintf(`{"userId":%d,"accountType":"SAVING"}`, u.ID)

	for i := 0; i < 10; i++ {
		resp := testutils.MakeRequest(ta.Fiber, http.MethodPost, "/account", body)
		require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	}
	resp := testutils.MakeRequest(ta.Fiber, http.MethodPost, "/account", body)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	assert.Equal(t, "MAX_ACCOUNT_PER_USER_10", testutils.DecodeProblem(t, resp).ErrorCode)
}

func TestDeleteAccount(t *testing.T) {
	ta := testutils.SetupTestApp(t)
	userID, number := ta.SeedAccount(t, 0)
	body := fmt.Sprintf(`{"userId":%d,"accountNumber":%q}`, userID, number)

	resp := testutils.MakeRequest(ta.Fiber, http.MethodDelete, "/account", body)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	env := testutils.Decode[account.DeleteAccountResponse](t, resp)
	assert.Equal(t, number, env.Data.AccountNumber)
	require.NotNil(t, env.Data.UnregisteredAt)

	resp = testutils.MakeRequest(ta.Fiber, http.MethodDelete, "/account", body)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	assert.Equal(t, "ACCOUNT_ALREADY_UNREGISTERED", testutils.DecodeProblem(t, resp).ErrorCode)
}

func TestDeleteAccount_Rejections(t *testing.T) {
	ta := testutils.SetupTestApp(t)
	userID, number := ta.SeedAccount(t, 500)
	other, err := ta.App.UserService.CreateUser(context.Background(), "bob")
	require.NoError(t, err)

	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"short number", fmt.Sprintf(`{"userId":%d,"accountNumber":"123"}`, userID), fiber.StatusBadRequest, "INVALID_REQUEST"},
		{"non numeric", fmt.Sprintf(`{"userId":%d,"accountNumber":"12345abcde"}`, userID), fiber.StatusBadRequest, "INVALID_REQUEST"},
		{"unknown account", fmt.Sprintf(`{"userId":%d,"accountNumber":"9999999999"}`, userID), fiber.StatusNotFound, "ACCOUNT_NOT_FOUND"},
		{"other owner", fmt.Sprintf(`{"userId":%d,"accountNumber":%q}`, other.ID, number), fiber.StatusForbidden, "USER_ACCOUNT_UNMATCHED"},
		{"balance left", fmt.Sprintf(`{"userId":%d,"accountNumber":%q}`, userID, number), fiber.StatusConflict, "BALANCE_NOT_EMPTY"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp := testutils.MakeRequest(ta.Fiber, http.MethodDelete, "/account", tc.body)
			assert.Equal(t, tc.status, resp.StatusCode)
			assert.Equal(t, tc.code, testutils.DecodeProblem(t, resp).ErrorCode)
		})
	}
}

func TestDeleteAccount_Busy(t *testing.T) {
	ta := testutils.SetupTestApp(t)
	userID, number := ta.SeedAccount(t, 0)
	ctx := context.Background()
	token, err := ta.Locker.Acquire(ctx, "lock:account:"+number)
	require.NoError(t, err)
	defer ta.Locker.Release(ctx, "lock:account:"+number, token) //nolint:errcheck

	resp := testutils.MakeRequest(ta.Fiber, http.MethodDelete, "/account",
		fmt.Sprintf(`{"userId":%d,"accountNumber":%q}`, userID, number))
	assert.Equal(t, fiber.StatusLocked, resp.StatusCode)
	assert.Equal(t, "1", resp.Header.Get("Retry-After"))
	assert.Equal(t, "ACCOUNT_TRANSACTION_LOCK", testutils.DecodeProblem(t, resp).ErrorCode)
}

func TestListAccounts(t *testing.T) {
	ta := testutils.SetupTestApp(t)
	userID, number := ta.SeedAccount(t, 700)

	resp := testutils.MakeRequest(ta.Fiber, http.MethodGet, fmt.Sprintf("/account?user_id=%d", userID), "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	env := testutils.Decode[[]account.AccountSummary](t, resp)
	require.Len(t, env.Data, 1)
	assert.Equal(t, number, env.Data[0].AccountNumber)
	assert.Equal(t, int64(700), env.Data[0].Balance)
	assert.Equal(t, "IN_USE", env.Data[0].Status)

	resp = testutils.MakeRequest(ta.Fiber, http.MethodGet, "/account?user_id=abc", "")
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = testutils.MakeRequest(ta.Fiber, http.MethodGet, "/account?user_id=404", "")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "USER_NOT_FOUND", testutils.DecodeProblem(t, resp).ErrorCode)
}
