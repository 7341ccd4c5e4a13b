package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"

	"feature-store-be/internal/mapper"
	"feature-store-be/internal/pkg/logger"
	"feature-store-be/internal/pkg/serverutils"
	"feature-store-be/internal/repository/memory"
	"feature-store-be/internal/service"
	"feature-store-be/pkg/lifecycle"
	"feature-store-be/pkg/transform"
)

type noopEvents struct{}

func (noopEvents) PublishRecordIngested(context.Context, service.RecordIngestedEvent) {}
func (noopEvents) PublishStatusChanged(context.Context, service.StatusChangedEvent)   {}
func (noopEvents) Consume(context.Context) error                                      { return nil }

func newRegistryApp(t *testing.T) *fiber.App {
	t.Helper()
	catalog, err := service.NewCatalogService(
		transform.NewEngine(transform.NewRegistry()),
		lifecycle.NewManager(),
		memory.NewPlanCache(),
		nil,
		noopEvents{},
		logger.Noop(),
	)
	assert.NoError(t, err)

	app := fiber.New(fiber.Config{
		ErrorHandler: serverutils.ErrorHandlerMiddleware(logger.Noop()),
	})
	api := app.Group("/api")
	NewRegistryController(catalog, mapper.NewFeatureMapper()).RegisterRoutes(api)
	return app
}

const registerBody = `{
	"name": "customer_features",
	"entity": "customer",
	"features": [
		{
			"name": "total_purchases",
			"type": "numerical",
			"tags": ["purchasing"],
			"validation": {"min_value": 0, "not_null": true}
		},
		{
			"name": "avg_order_value",
			"type": "numerical",
			"transformation": {
				"name": "avg_order_value_calc",
				"kind": "expression",
				"expression": "total_spent / total_purchases",
				"source_features": ["total_spent", "total_purchases"]
			}
		}
	]
}`

func postJSON(t *testing.T, app *fiber.App, path, body string) (int, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest("POST", path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	assert.NoError(t, err)
	return resp.StatusCode, decodeBody(t, resp.Body)
}

func getJSON(t *testing.T, app *fiber.App, path string) (int, map[string]interface{}) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest("GET", path, nil), -1)
	assert.NoError(t, err)
	return resp.StatusCode, decodeBody(t, resp.Body)
}

func patchJSON(t *testing.T, app *fiber.App, path, body string) (int, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest("PATCH", path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	assert.NoError(t, err)
	return resp.StatusCode, decodeBody(t, resp.Body)
}

func decodeBody(t *testing.T, r io.Reader) map[string]interface{} {
	t.Helper()
	raw, err := io.ReadAll(r)
	assert.NoError(t, err)
	var out map[string]interface{}
	assert.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func TestRegisterGroupEndpoint(t *testing.T) {
	app := newRegistryApp(t)

	status, body := postJSON(t, app, "/api/registry/v1/groups", registerBody)

	assert.Equal(t, fiber.StatusCreated, status)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "customer_features", data["name"])
	assert.Equal(t, []interface{}{"total_purchases", "avg_order_value"}, data["feature_order"])
}

func TestRegisterGroupEndpointDuplicateConflict(t *testing.T) {
	app := newRegistryApp(t)

	status, _ := postJSON(t, app, "/api/registry/v1/groups", registerBody)
	assert.Equal(t, fiber.StatusCreated, status)

	status, body := postJSON(t, app, "/api/registry/v1/groups", registerBody)
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, "duplicate_group", body["kind"])
}

func TestRegisterGroupEndpointRejectsBadPayload(t *testing.T) {
	app := newRegistryApp(t)

	status, _ := postJSON(t, app, "/api/registry/v1/groups", `{"entity": "customer"}`)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = postJSON(t, app, "/api/registry/v1/groups", `{not json`)
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestShowGroupEndpoint(t *testing.T) {
	app := newRegistryApp(t)
	postJSON(t, app, "/api/registry/v1/groups", registerBody)

	status, body := getJSON(t, app, "/api/registry/v1/groups/customer_features")
	assert.Equal(t, fiber.StatusOK, status)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "customer", data["entity"])
	assert.Len(t, data["features"], 2)

	status, body = getJSON(t, app, "/api/registry/v1/groups/nope")
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "not_found", body["kind"])
}

func TestListFeaturesEndpointWithFilters(t *testing.T) {
	app := newRegistryApp(t)
	postJSON(t, app, "/api/registry/v1/groups", registerBody)

	status, body := getJSON(t, app, "/api/registry/v1/features?tag=purchasing")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Len(t, body["data"], 1)

	status, _ = getJSON(t, app, "/api/registry/v1/features?status=bogus")
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestUpdateStatusEndpoint(t *testing.T) {
	app := newRegistryApp(t)
	postJSON(t, app, "/api/registry/v1/groups", registerBody)

	status, body := patchJSON(t, app, "/api/registry/v1/features/customer/total_purchases/status", `{"status": "active"}`)
	assert.Equal(t, fiber.StatusOK, status)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "active", data["status"])

	// active -> draft is not a legal transition.
	status, body = patchJSON(t, app, "/api/registry/v1/features/customer/total_purchases/status", `{"status": "draft"}`)
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, "invalid_transition", body["kind"])
}

func TestUpdateVersionEndpoint(t *testing.T) {
	app := newRegistryApp(t)
	postJSON(t, app, "/api/registry/v1/groups", registerBody)

	status, body := patchJSON(t, app, "/api/registry/v1/features/customer/total_purchases/version", `{"version": "2.0.0"}`)
	assert.Equal(t, fiber.StatusOK, status)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "2.0.0", data["version"])

	status, body = patchJSON(t, app, "/api/registry/v1/features/customer/total_purchases/version", `{"version": "1.9.0"}`)
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, "version_downgrade", body["kind"])
}

func TestListGroupsEndpoint(t *testing.T) {
	app := newRegistryApp(t)
	postJSON(t, app, "/api/registry/v1/groups", registerBody)

	status, body := getJSON(t, app, "/api/registry/v1/groups")
	assert.Equal(t, fiber.StatusOK, status)
	data := body["data"].([]interface{})
	assert.Len(t, data, 1)
	group := data[0].(map[string]interface{})
	assert.Equal(t, "customer_features", group["name"])
	assert.Equal(t, "customer", group["entity"])
	assert.Len(t, group["features"], 2)
}

func TestFeatureResponsesCarryOwningGroup(t *testing.T) {
	app := newRegistryApp(t)
	postJSON(t, app, "/api/registry/v1/groups", registerBody)

	status, body := getJSON(t, app, "/api/registry/v1/features/customer/total_purchases")
	assert.Equal(t, fiber.StatusOK, status)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "customer_features", data["group"])

	status, body = getJSON(t, app, "/api/registry/v1/features")
	assert.Equal(t, fiber.StatusOK, status)
	for _, item := range body["data"].([]interface{}) {
		assert.Equal(t, "customer_features", item.(map[string]interface{})["group"])
	}
}
