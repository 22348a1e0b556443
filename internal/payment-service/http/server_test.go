package httpapi_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radieske/payments-ledger/internal/payment-service/engine"
	httpapi "github.com/radieske/payments-ledger/internal/payment-service/http"
	"github.com/radieske/payments-ledger/internal/payment-service/ledgertest"
)

const secret = "test-secret"

type harness struct {
	t      *testing.T
	store  *ledgertest.Store
	router http.Handler
}

func newHarness(t *testing.T, policy engine.ApprovalPolicy) *harness {
	t.Helper()
	store := ledgertest.New()
	eng := engine.New(store, engine.Options{Policy: policy})
	srv := httpapi.NewServer(nil, eng, httpapi.Company{
		IBAN:          "TR330006100519786457841326",
		BankName:      "Example Bank",
		AccountHolder: "Garbet",
	}, secret)
	return &harness{t: t, store: store, router: srv.Router()}
}

func token(t *testing.T, claims jwt.MapClaims, key string) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
	require.NoError(t, err)
	return s
}

func userToken(t *testing.T, id string) string {
	return token(t, jwt.MapClaims{"sub": id}, secret)
}

func adminToken(t *testing.T) string {
	return token(t, jwt.MapClaims{"sub": "admin-1", "role": "admin"}, secret)
}

// do executa a chamada e decodifica o corpo JSON em um map
func (h *harness) do(method, path, tok string, body any) (int, map[string]any) {
	h.t.Helper()
	var rdr *bytes.Reader
	switch b := body.(type) {
	case nil:
		rdr = bytes.NewReader(nil)
	case string:
		rdr = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(h.t, err)
		rdr = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rdr)
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)

	out := map[string]any{}
	if rec.Body.Len() > 0 {
		require.NoError(h.t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec.Code, out
}

func TestAuthentication(t *testing.T) {
	h := newHarness(t, engine.ManualApproval{})

	code, body := h.do(http.MethodGet, "/deposit-requests", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "authorization header required", body["message"])

	code, _ = h.do(http.MethodGet, "/deposit-requests", token(t, jwt.MapClaims{"sub": "u1"}, "other"), nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = h.do(http.MethodGet, "/deposit-requests", token(t, jwt.MapClaims{"user_id": "u1"}, secret), nil)
	assert.Equal(t, http.StatusOK, code)

	code, body = h.do(http.MethodGet, "/admin/ibans", userToken(t, "u1"), nil)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "admin access required", body["message"])

	code, _ = h.do(http.MethodGet, "/admin/ibans", adminToken(t), nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestWithdrawalRequestAndCancel(t *testing.T) {
	h := newHarness(t, engine.ManualApproval{})
	h.store.AddUser("u1", "1000.00")
	tok := userToken(t, "u1")

	code, body := h.do(http.MethodPost, "/withdrawal/request", tok, map[string]any{"amount": 300})
	require.Equal(t, http.StatusCreated, code, body)
	assert.Equal(t, "700.00", body["newBalance"])
	wr := body["withdrawalRequest"].(map[string]any)
	assert.Equal(t, "pending", wr["status"])
	assert.Equal(t, "300.00", wr["amount"])
	assert.Equal(t, "TR330006100519786457841326", wr["iban"])
	tx := body["transaction"].(map[string]any)
	assert.Equal(t, "pending", tx["status"])
	assert.Equal(t, wr["id"], tx["metadata"].(map[string]any)["withdrawalRequestId"])

	code, body = h.do(http.MethodGet, "/withdrawal-requests?status=PENDING", tok, nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 1, body["total"])
	assert.EqualValues(t, 1, body["totalPages"])
	assert.EqualValues(t, 1, body["currentPage"])
	assert.Len(t, body["withdrawalRequests"], 1)

	id := wr["id"].(string)
	code, body = h.do(http.MethodPost, "/withdrawal/"+id+"/cancel", tok, nil)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "1000.00", body["newBalance"])
	assert.Equal(t, "cancelled", body["withdrawalRequest"].(map[string]any)["status"])

	code, body = h.do(http.MethodPost, "/withdrawal/"+id+"/cancel", tok, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "withdrawal request is already cancelled", body["message"])
}

func TestWithdrawalErrorsMapToStatus(t *testing.T) {
	h := newHarness(t, engine.ManualApproval{})
	h.store.AddUser("u1", "150.00")
	tok := userToken(t, "u1")

	code, body := h.do(http.MethodPost, "/withdrawal/request", tok, map[string]any{"amount": "200.00"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "insufficient balance", body["message"])

	code, body = h.do(http.MethodPost, "/withdrawal/request", tok, map[string]any{"amount": 99.99})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "minimum withdrawal amount is 100.00", body["message"])

	code, body = h.do(http.MethodPost, "/withdrawal/request", tok, `{"amount":`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "invalid JSON body", body["message"])

	code, _ = h.do(http.MethodPost, "/withdrawal/5b0f6a52-4d61-4c1c-9d35-1a7f3f0b9e11/cancel", tok, nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = h.do(http.MethodPost, "/withdrawal/request", userToken(t, "ghost"), map[string]any{"amount": 100})
	assert.Equal(t, http.StatusNotFound, code)

	h.store.Fail["InsertWithdrawal"] = errors.New("connection reset by peer")
	code, body = h.do(http.MethodPost, "/withdrawal/request", tok, map[string]any{"amount": 100})
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "internal error", body["message"])
	assert.Equal(t, "150.00", h.store.User("u1").Balance.StringFixed(2))
}

func TestAutoApprovedDeposit(t *testing.T) {
	h := newHarness(t, engine.AutoApproval{})
	h.store.AddUser("u1", "1000.00")

	code, body := h.do(http.MethodPost, "/iban-deposit", userToken(t, "u1"),
		map[string]any{"amount": "100", "transactionId": "EFT-1", "screenshotUrl": "https://cdn/slip.png"})
	require.Equal(t, http.StatusCreated, code, body)
	assert.Equal(t, "Deposit approved and added to balance (development mode)", body["message"])
	assert.Equal(t, "1100.00", body["newBalance"])
	dep := body["depositRequest"].(map[string]any)
	assert.Equal(t, "approved", dep["status"])
	assert.Equal(t, "EFT-1", dep["transactionReference"])
	assert.Equal(t, "https://cdn/slip.png", dep["slipImage"])
	assert.Equal(t, "completed", body["transaction"].(map[string]any)["status"])
}

func TestManualDepositAdminReview(t *testing.T) {
	h := newHarness(t, engine.ManualApproval{})
	h.store.AddUser("u1", "0.00")

	code, body := h.do(http.MethodPost, "/iban-deposit", userToken(t, "u1"), map[string]any{"amount": 500})
	require.Equal(t, http.StatusCreated, code, body)
	assert.NotContains(t, body, "newBalance")
	assert.NotContains(t, body, "transaction")
	id := body["depositRequest"].(map[string]any)["id"].(string)

	code, _ = h.do(http.MethodPost, "/admin/deposits/"+id+"/approve", userToken(t, "u1"), nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, body = h.do(http.MethodPost, "/admin/deposits/"+id+"/approve", adminToken(t), map[string]any{"notes": "checked slip"})
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "500.00", body["newBalance"])
	assert.Equal(t, "admin-1", body["depositRequest"].(map[string]any)["reviewedBy"])

	code, body = h.do(http.MethodPost, "/admin/deposits/"+id+"/reject", adminToken(t), nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "deposit request is already approved", body["message"])

	code, body = h.do(http.MethodGet, "/deposit-requests", userToken(t, "u1"), nil)
	require.Equal(t, http.StatusOK, code)
	items := body["depositRequests"].([]any)
	require.Len(t, items, 1)
	assert.NotContains(t, items[0], "adminNotes")
}

func TestAdminWithdrawalReview(t *testing.T) {
	h := newHarness(t, engine.ManualApproval{})
	h.store.AddUser("u1", "1000.00")

	_, body := h.do(http.MethodPost, "/withdrawal/request", userToken(t, "u1"), map[string]any{"amount": 400})
	id := body["withdrawalRequest"].(map[string]any)["id"].(string)

	code, body := h.do(http.MethodPost, "/admin/withdrawals/"+id+"/reject", adminToken(t), map[string]any{})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "reason is required", body["message"])

	code, body = h.do(http.MethodPost, "/admin/withdrawals/"+id+"/approve", adminToken(t), nil)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "approved", body["withdrawalRequest"].(map[string]any)["status"])

	code, body = h.do(http.MethodPost, "/admin/withdrawals/"+id+"/paid", adminToken(t), nil)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "paid", body["withdrawalRequest"].(map[string]any)["status"])
	assert.Equal(t, "completed", body["transaction"].(map[string]any)["status"])
	assert.Equal(t, "600.00", h.store.User("u1").Balance.StringFixed(2))

	_, body = h.do(http.MethodPost, "/withdrawal/request", userToken(t, "u1"), map[string]any{"amount": 100})
	id = body["withdrawalRequest"].(map[string]any)["id"].(string)
	code, body = h.do(http.MethodPost, "/admin/withdrawals/"+id+"/reject", adminToken(t), map[string]any{"reason": "IBAN mismatch"})
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "600.00", body["newBalance"])
	assert.Equal(t, "failed", body["transaction"].(map[string]any)["status"])
}

func TestProfileUpdate(t *testing.T) {
	h := newHarness(t, engine.ManualApproval{})
	h.store.AddUser("u1", "0.00")
	tok := userToken(t, "u1")

	code, body := h.do(http.MethodPut, "/profile", tok, map[string]any{"iban": "XX12"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "invalid IBAN format", body["message"])

	code, body = h.do(http.MethodPut, "/profile", tok, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "no profile fields provided", body["message"])

	code, body = h.do(http.MethodPut, "/profile", tok, map[string]any{"iban": "DE89 3704 0044 0532 0130 00", "firstName": "Ayşe"})
	require.Equal(t, http.StatusOK, code, body)
	user := body["user"].(map[string]any)
	assert.Equal(t, "DE89370400440532013000", user["iban"])
	assert.Equal(t, "Ayşe", user["firstName"])
	assert.Equal(t, "Test User", user["ibanHolderName"])
}

func TestIbanInfoAndRegistry(t *testing.T) {
	h := newHarness(t, engine.ManualApproval{})
	admin := adminToken(t)

	code, body := h.do(http.MethodPost, "/admin/ibans", admin,
		map[string]any{"bankName": "Ziraat", "accountHolder": "Garbet Ltd", "ibanNumber": "TR12 0001 0012 3456 7890 1234 56"})
	require.Equal(t, http.StatusCreated, code, body)
	iban := body["iban"].(map[string]any)
	assert.Equal(t, "TR120001001234567890123456", iban["ibanNumber"])

	code, body = h.do(http.MethodPost, "/admin/ibans", admin,
		map[string]any{"bankName": "Ziraat", "accountHolder": "Garbet Ltd", "ibanNumber": "TR120001001234567890123456"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "iban already registered", body["message"])

	code, body = h.do(http.MethodGet, "/iban-info", userToken(t, "u1"), nil)
	require.Equal(t, http.StatusOK, code)
	info := body["ibanInfo"].(map[string]any)
	assert.Equal(t, "TR330006100519786457841326", info["iban"])
	assert.Nil(t, info["branchCode"])
	assert.EqualValues(t, 100, info["minAmount"])
	assert.EqualValues(t, 50000, info["maxAmount"])
	assert.Len(t, info["instructions"], 3)
	assert.Len(t, body["ibans"], 1)

	code, body = h.do(http.MethodPatch, "/admin/ibans/"+iban["id"].(string), admin, map[string]any{"isActive": false})
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, false, body["iban"].(map[string]any)["isActive"])

	_, body = h.do(http.MethodGet, "/iban-info", userToken(t, "u1"), nil)
	assert.Len(t, body["ibans"], 0)
}

func TestDepositMethods(t *testing.T) {
	h := newHarness(t, engine.ManualApproval{})

	code, body := h.do(http.MethodGet, "/deposit-methods", userToken(t, "u1"), nil)
	require.Equal(t, http.StatusOK, code)
	methods := body["methods"].([]any)
	require.Len(t, methods, 3)
	first := methods[0].(map[string]any)
	assert.Equal(t, "iban", first["id"])
	assert.EqualValues(t, 100, first["min"])
	assert.Equal(t, "credit_card", methods[2].(map[string]any)["id"])
}
