package http_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/ticket-desk/internal/api/http"
	"github.com/spec-kit/ticket-desk/internal/api/http/handlers"
	"github.com/spec-kit/ticket-desk/internal/auth"
	"github.com/spec-kit/ticket-desk/internal/config"
	"github.com/spec-kit/ticket-desk/internal/events"
	"github.com/spec-kit/ticket-desk/internal/observability"
	"github.com/spec-kit/ticket-desk/internal/persistence"
	"github.com/spec-kit/ticket-desk/internal/service"
	"github.com/spec-kit/ticket-desk/internal/testutil"
)

func newTestApp(t *testing.T, authCfg config.AuthConfig) (*fiber.App, *testutil.MemStore) {
	t.Helper()
	store := testutil.NewMemStore()
	logger := zap.NewNop()
	metrics := observability.NewMetrics()

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, 0)

	ticketService := service.NewTicketService(store, events.NewInMemoryDispatcher(), logger)
	referenceService := service.NewReferenceService(store, logger)

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:     handlers.NewHealthHandler("ticket-desk-test", "test", &persistence.Postgres{}, &persistence.Redis{}),
		Metrics:    handlers.NewMetricsHandler(metrics),
		Tickets:    handlers.NewTicketsHandler(ticketService),
		MasterData: handlers.NewMasterDataHandler(referenceService),
		APIKey:     auth.NewAPIKeyMiddleware(authCfg, logger),
	})
	return app, store
}

func doJSON(t *testing.T, app *fiber.App, method, target string, payload any, headers map[string]string) (*http.Response, map[string]any) {
	t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, val := range headers {
		req.Header.Set(key, val)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	decoded := map[string]any{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	}
	return resp, decoded
}

func createPayload() map[string]any {
	return map[string]any{
		"requestorId":      "u1",
		"accountId":        "a1",
		"categoryId":       "c1",
		"categoryDetailId": "cd1",
		"requestChannelId": "rc1",
		"personInChargeId": "u2",
		"statusId":         "stat1",
		"summary":          "printer jam",
		"description":      "tray two keeps jamming",
	}
}

func disabledAuth() config.AuthConfig {
	return config.AuthConfig{Mode: config.AuthModeDisabled}
}

func TestHealthEndpoint(t *testing.T) {
	app, _ := newTestApp(t, config.AuthConfig{Mode: config.AuthModeEnforce, APIKey: "secret"})

	// health is reachable without any api key
	resp, body := doJSON(t, app, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, body["timestamp"])
}

func TestAPIKeyGate(t *testing.T) {
	t.Run("EnforceRejectsMissingAndWrongKey", func(t *testing.T) {
		app, _ := newTestApp(t, config.AuthConfig{Mode: config.AuthModeEnforce, APIKey: "secret"})

		resp, body := doJSON(t, app, http.MethodGet, "/tickets", nil, nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		errObj := body["error"].(map[string]any)
		assert.Equal(t, "UNAUTHORIZED", errObj["code"])

		resp, _ = doJSON(t, app, http.MethodGet, "/tickets", nil, map[string]string{"x-api-key": "wrong"})
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

		resp, _ = doJSON(t, app, http.MethodGet, "/tickets", nil, map[string]string{"x-api-key": "secret"})
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("WarnModeAllowsWithoutConfiguredKey", func(t *testing.T) {
		app, _ := newTestApp(t, config.AuthConfig{Mode: config.AuthModeWarn})
		resp, _ := doJSON(t, app, http.MethodGet, "/tickets", nil, nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("DisabledModeSkipsGate", func(t *testing.T) {
		app, _ := newTestApp(t, disabledAuth())
		resp, _ := doJSON(t, app, http.MethodGet, "/tickets", nil, nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}

func TestTicketEndpoints(t *testing.T) {
	t.Run("CreateThenGet", func(t *testing.T) {
		app, _ := newTestApp(t, disabledAuth())

		resp, body := doJSON(t, app, http.MethodPost, "/tickets", createPayload(), nil)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		data := body["data"].(map[string]any)
		id := data["id"].(string)
		assert.NotEmpty(t, id)

		resp, body = doJSON(t, app, http.MethodGet, "/tickets/"+id, nil, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		ticket := body["data"].(map[string]any)
		assert.Equal(t, "printer jam", ticket["summary"])
		assert.Equal(t, "Sato Hanako", ticket["requestorName"])
		assert.Equal(t, "Acme Manufacturing", ticket["accountName"])
	})

	t.Run("CreateMissingFieldsIs400", func(t *testing.T) {
		app, _ := newTestApp(t, disabledAuth())

		payload := createPayload()
		delete(payload, "statusId")
		resp, body := doJSON(t, app, http.MethodPost, "/tickets", payload, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		errObj := body["error"].(map[string]any)
		assert.Equal(t, "VALIDATION_FAILED", errObj["code"])
	})

	t.Run("GetUnknownIs404", func(t *testing.T) {
		app, _ := newTestApp(t, disabledAuth())
		resp, body := doJSON(t, app, http.MethodGet, "/tickets/nonexistent-id", nil, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		errObj := body["error"].(map[string]any)
		assert.Equal(t, "NOT_FOUND", errObj["code"])
	})

	t.Run("PartialUpdateViaPUT", func(t *testing.T) {
		app, _ := newTestApp(t, disabledAuth())

		_, body := doJSON(t, app, http.MethodPost, "/tickets", createPayload(), nil)
		id := body["data"].(map[string]any)["id"].(string)

		resp, _ := doJSON(t, app, http.MethodPut, "/tickets/"+id, map[string]any{"statusId": "stat4"}, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		_, body = doJSON(t, app, http.MethodGet, "/tickets/"+id, nil, nil)
		ticket := body["data"].(map[string]any)
		assert.Equal(t, "stat4", ticket["statusId"])
		assert.Equal(t, "Resolved", ticket["statusName"])
		assert.Equal(t, "printer jam", ticket["summary"])
	})

	t.Run("HistoryRoundTrip", func(t *testing.T) {
		app, _ := newTestApp(t, disabledAuth())

		_, body := doJSON(t, app, http.MethodPost, "/tickets", createPayload(), nil)
		id := body["data"].(map[string]any)["id"].(string)

		payload := map[string]any{
			"userId":  "u1",
			"comment": "triage",
			"changedFields": []map[string]string{
				{"fieldName": "statusId", "oldValue": "stat1", "newValue": "stat2"},
			},
		}
		resp, body := doJSON(t, app, http.MethodPost, "/tickets/"+id+"/history", payload, nil)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		entry := body["data"].(map[string]any)
		assert.Equal(t, "Sato Hanako", entry["userName"])

		resp, body = doJSON(t, app, http.MethodGet, "/tickets/"+id+"/history", nil, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		entries := body["data"].([]any)
		require.Len(t, entries, 1)
		fields := entries[0].(map[string]any)["changedFields"].([]any)
		require.Len(t, fields, 1)
		field := fields[0].(map[string]any)
		assert.Equal(t, "statusId", field["fieldName"])
		assert.Equal(t, "stat1", field["oldValue"])
		assert.Equal(t, "stat2", field["newValue"])
	})

	t.Run("ListFiltersByQueryString", func(t *testing.T) {
		app, _ := newTestApp(t, disabledAuth())

		_, body := doJSON(t, app, http.MethodPost, "/tickets", createPayload(), nil)
		id := body["data"].(map[string]any)["id"].(string)

		completed := createPayload()
		completed["statusId"] = "status-completed"
		_, body = doJSON(t, app, http.MethodPost, "/tickets", completed, nil)
		completedID := body["data"].(map[string]any)["id"].(string)

		resp, body := doJSON(t, app, http.MethodGet, "/tickets", nil, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		ids := listIDs(body)
		assert.Contains(t, ids, id)
		assert.NotContains(t, ids, completedID)

		resp, body = doJSON(t, app, http.MethodGet, "/tickets?showCompleted=true", nil, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		ids = listIDs(body)
		assert.Contains(t, ids, id)
		assert.Contains(t, ids, completedID)
	})

	t.Run("BadDateFilterIs400", func(t *testing.T) {
		app, _ := newTestApp(t, disabledAuth())
		resp, _ := doJSON(t, app, http.MethodGet, "/tickets?scheduledCompletionDateFrom=not-a-date", nil, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestMasterDataEndpoints(t *testing.T) {
	app, _ := newTestApp(t, disabledAuth())

	t.Run("StatusesOrderedByOrderNo", func(t *testing.T) {
		resp, body := doJSON(t, app, http.MethodGet, "/tickets/master/statuses", nil, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		rows := body["data"].([]any)
		require.NotEmpty(t, rows)
		prev := -1
		for _, row := range rows {
			orderNo := int(row.(map[string]any)["orderNo"].(float64))
			assert.GreaterOrEqual(t, orderNo, prev)
			prev = orderNo
		}
	})

	t.Run("CategoryDetailsFilterIsSubset", func(t *testing.T) {
		_, all := doJSON(t, app, http.MethodGet, "/tickets/master/category-details", nil, nil)
		_, filtered := doJSON(t, app, http.MethodGet, "/tickets/master/category-details?categoryId=c1", nil, nil)

		allIDs := map[string]bool{}
		for _, row := range all["data"].([]any) {
			allIDs[row.(map[string]any)["id"].(string)] = true
		}
		filteredRows := filtered["data"].([]any)
		require.NotEmpty(t, filteredRows)
		for _, row := range filteredRows {
			detail := row.(map[string]any)
			assert.True(t, allIDs[detail["id"].(string)])
			assert.Equal(t, "c1", detail["categoryId"])
		}
		assert.Less(t, len(filteredRows), len(all["data"].([]any)))
	})

	t.Run("AllListingsRespond", func(t *testing.T) {
		for _, path := range []string{
			"/tickets/master/users",
			"/tickets/master/accounts",
			"/tickets/master/categories",
			"/tickets/master/request-channels",
			"/tickets/master/response-categories",
		} {
			resp, body := doJSON(t, app, http.MethodGet, path, nil, nil)
			assert.Equal(t, http.StatusOK, resp.StatusCode, path)
			assert.NotEmpty(t, body["data"], path)
		}
	})
}

func listIDs(body map[string]any) []string {
	var ids []string
	for _, row := range body["data"].([]any) {
		ids = append(ids, row.(map[string]any)["id"].(string))
	}
	return ids
}
