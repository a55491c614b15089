package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/xyzmos/hass-weather-baidu/internal/baidu"
	"github.com/xyzmos/hass-weather-baidu/internal/setup"
	"github.com/xyzmos/hass-weather-baidu/internal/store"
)

const vendorResult = `{
	"location": {"country": "中国", "province": "北京市", "city": "北京市", "name": "海淀", "id": "110108"},
	"now": {"temp": 25, "text": "晴", "wind_class": "3级", "wind_dir": "南风", "vis": 10000, "aqi": 75},
	"forecasts": [
		{"date": "2026-02-12", "week": "星期四", "high": 28, "low": 18,
		 "wc_day": "3级", "wc_night": "<3级", "wd_day": "南风", "wd_night": "北风",
		 "text_day": "晴", "text_night": "多云"}
	],
	"forecast_hours": [], "alerts": [], "indexes": []
}`

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("ak") != "good-ak" {
			fmt.Fprint(w, `{"status": 211, "message": "APP SN校验失败"}`)
			return
		}
		fmt.Fprintf(w, `{"status": 0, "message": "success", "result": %s}`, vendorResult)
	}))
	t.Cleanup(srv.Close)

	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "entries.db"))
	if err != nil {
		t.Fatalf("NewSQLite failed: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	districts, err := baidu.LoadDistricts()
	if err != nil {
		t.Fatalf("LoadDistricts failed: %v", err)
	}

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	home := setup.Zone{Name: setup.ZoneHome, Latitude: 39.915, Longitude: 116.404}
	svc := setup.New(log, st, districts, srv.Client(), home, nil)
	svc.ClientFactory = func(ak string) *baidu.Client {
		return baidu.NewClient(srv.Client(), ak).WithBaseURL(srv.URL)
	}
	t.Cleanup(svc.Shutdown)

	app := fiber.New()
	RegisterRoutes(app, svc)
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body interface{}) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(buf)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	out, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response body: %v", err)
	}
	resp.Body.Close()
	return resp, out
}

func createDistrictEntry(t *testing.T, app *fiber.App) string {
	t.Helper()

	resp, body := doJSON(t, app, fiber.MethodPost, "/api/v1/entries", fiber.Map{
		"ak": "good-ak", "mode": "district",
		"province": "北京市", "city": "北京市", "district": "海淀区",
	})
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("create entry: status = %d, body = %s", resp.StatusCode, body)
	}

	var e struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &e); err != nil {
		t.Fatalf("unmarshal entry: %v", err)
	}
	return e.ID
}

func TestValidateKeyEndpoint(t *testing.T) {
	app := newTestApp(t)

	resp, body := doJSON(t, app, fiber.MethodPost, "/api/v1/setup/validate", fiber.Map{
		"ak": "good-ak", "mode": "district",
	})
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, body = %s", resp.StatusCode, body)
	}
	var out struct {
		Valid bool `json:"valid"`
	}
	if err := json.Unmarshal(body, &out); err != nil || !out.Valid {
		t.Fatalf("body = %s, err = %v", body, err)
	}

	// Missing mode fails validation before any vendor call.
	resp, _ = doJSON(t, app, fiber.MethodPost, "/api/v1/setup/validate", fiber.Map{"ak": "good-ak"})
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestDistrictCascade(t *testing.T) {
	app := newTestApp(t)

	resp, body := doJSON(t, app, fiber.MethodGet, "/api/v1/districts/provinces", nil)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("provinces: status = %d", resp.StatusCode)
	}
	var provinces struct {
		Provinces []string `json:"provinces"`
	}
	if err := json.Unmarshal(body, &provinces); err != nil || len(provinces.Provinces) == 0 {
		t.Fatalf("body = %s, err = %v", body, err)
	}

	path := "/api/v1/districts/provinces/" + url.PathEscape("北京市") + "/cities"
	resp, body = doJSON(t, app, fiber.MethodGet, path, nil)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("cities: status = %d, body = %s", resp.StatusCode, body)
	}

	path = "/api/v1/districts/provinces/" + url.PathEscape("不存在省") + "/cities"
	resp, _ = doJSON(t, app, fiber.MethodGet, path, nil)
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("unknown province: status = %d, want 404", resp.StatusCode)
	}
}

func TestCreateEntryValidation(t *testing.T) {
	app := newTestApp(t)

	// District mode without the cascade fields.
	resp, _ := doJSON(t, app, fiber.MethodPost, "/api/v1/entries", fiber.Map{
		"ak": "good-ak", "mode": "district",
	})
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}

	// Unknown mode.
	resp, _ = doJSON(t, app, fiber.MethodPost, "/api/v1/entries", fiber.Map{
		"ak": "good-ak", "mode": "geocode",
	})
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}

	// Out-of-range interval.
	resp, _ = doJSON(t, app, fiber.MethodPost, "/api/v1/entries", fiber.Map{
		"ak": "good-ak", "mode": "district",
		"province": "北京市", "city": "北京市", "district": "海淀区",
		"interval_seconds": 60,
	})
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestCreateEntryRejectedKey(t *testing.T) {
	app := newTestApp(t)

	resp, _ := doJSON(t, app, fiber.MethodPost, "/api/v1/entries", fiber.Map{
		"ak": "bad-ak", "mode": "district",
		"province": "北京市", "city": "北京市", "district": "海淀区",
	})
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
}

func TestCreateEntryDuplicate(t *testing.T) {
	app := newTestApp(t)
	createDistrictEntry(t, app)

	resp, _ := doJSON(t, app, fiber.MethodPost, "/api/v1/entries", fiber.Map{
		"ak": "good-ak", "mode": "district",
		"province": "北京市", "city": "北京市", "district": "海淀区",
	})
	if resp.StatusCode != fiber.StatusConflict {
		t.Fatalf("status = %d, want 409", resp.StatusCode)
	}
}

func TestEntryLifecycle(t *testing.T) {
	app := newTestApp(t)
	id := createDistrictEntry(t, app)

	resp, body := doJSON(t, app, fiber.MethodGet, "/api/v1/entries/"+id, nil)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("get entry: status = %d", resp.StatusCode)
	}
	if bytes.Contains(body, []byte("good-ak")) {
		t.Fatal("entry response must not leak the credential")
	}

	resp, _ = doJSON(t, app, fiber.MethodPatch, "/api/v1/entries/"+id+"/options", fiber.Map{
		"interval_seconds": 1800,
	})
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("patch options: status = %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, app, fiber.MethodPatch, "/api/v1/entries/"+id+"/options", fiber.Map{
		"interval_seconds": 60,
	})
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("out-of-range options: status = %d, want 400", resp.StatusCode)
	}

	resp, _ = doJSON(t, app, fiber.MethodDelete, "/api/v1/entries/"+id, nil)
	if resp.StatusCode != fiber.StatusNoContent {
		t.Fatalf("delete: status = %d, want 204", resp.StatusCode)
	}

	resp, _ = doJSON(t, app, fiber.MethodGet, "/api/v1/entries/"+id, nil)
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("get after delete: status = %d, want 404", resp.StatusCode)
	}
}

func TestWeatherEndpoint(t *testing.T) {
	app := newTestApp(t)
	id := createDistrictEntry(t, app)

	resp, body := doJSON(t, app, fiber.MethodGet, "/api/v1/entries/"+id+"/weather", nil)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, body = %s", resp.StatusCode, body)
	}

	var v struct {
		Available    bool     `json:"available"`
		Condition    *string  `json:"condition"`
		Temperature  *float64 `json:"temperature"`
		WindSpeed    *float64 `json:"wind_speed"`
		VisibilityKm *float64 `json:"visibility_km"`
	}
	if err := json.Unmarshal(body, &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !v.Available {
		t.Fatal("expected available weather view")
	}
	if v.Condition == nil || *v.Condition != "sunny" {
		t.Fatalf("condition = %v, want sunny", v.Condition)
	}
	if v.Temperature == nil || *v.Temperature != 25 {
		t.Fatalf("temperature = %v, want 25", v.Temperature)
	}
	if v.WindSpeed == nil || *v.WindSpeed != 14 {
		t.Fatalf("wind speed = %v, want 14", v.WindSpeed)
	}
	if v.VisibilityKm == nil || *v.VisibilityKm != 10 {
		t.Fatalf("visibility = %v, want 10", v.VisibilityKm)
	}
}

func TestWeatherUnknownEntry(t *testing.T) {
	app := newTestApp(t)

	resp, _ := doJSON(t, app, fiber.MethodGet, "/api/v1/entries/nope/weather", nil)
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestDayForecastSensor(t *testing.T) {
	app := newTestApp(t)
	id := createDistrictEntry(t, app)

	resp, body := doJSON(t, app, fiber.MethodGet, "/api/v1/entries/"+id+"/sensors/forecast/0", nil)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, body = %s", resp.StatusCode, body)
	}
	var v struct {
		Key   string  `json:"key"`
		State *string `json:"state"`
	}
	if err := json.Unmarshal(body, &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if v.Key != "forecast_today" {
		t.Fatalf("key = %q", v.Key)
	}
	if v.State == nil || *v.State != "晴转多云 18~28°C" {
		t.Fatalf("state = %v", v.State)
	}

	resp, _ = doJSON(t, app, fiber.MethodGet, "/api/v1/entries/"+id+"/sensors/forecast/9", nil)
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("day 9: status = %d, want 400", resp.StatusCode)
	}
}

func TestAlertSensorEmpty(t *testing.T) {
	app := newTestApp(t)
	id := createDistrictEntry(t, app)

	resp, body := doJSON(t, app, fiber.MethodGet, "/api/v1/entries/"+id+"/sensors/alert", nil)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var v struct {
		State string `json:"state"`
		Count int    `json:"alert_count"`
	}
	if err := json.Unmarshal(body, &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if v.State != "无预警" || v.Count != 0 {
		t.Fatalf("view = %+v", v)
	}
}

func TestDiagnosticsEndpointRedacts(t *testing.T) {
	app := newTestApp(t)
	id := createDistrictEntry(t, app)

	resp, body := doJSON(t, app, fiber.MethodGet, "/api/v1/entries/"+id+"/diagnostics", nil)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if bytes.Contains(body, []byte("good-ak")) {
		t.Fatal("diagnostics must not leak the credential")
	}
	if !bytes.Contains(body, []byte("**REDACTED**")) {
		t.Fatalf("expected redaction marker, body = %s", body)
	}
}
