package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aloc23/medication-tracker-app/internal/adapters/storage/memory"
	"github.com/aloc23/medication-tracker-app/internal/app"
	"github.com/aloc23/medication-tracker-app/internal/platform/config"
	"github.com/aloc23/medication-tracker-app/internal/platform/logger"
	"github.com/aloc23/medication-tracker-app/internal/ports/clock"
	"github.com/aloc23/medication-tracker-app/internal/router"
)

type silentNotifier struct{}

func (silentNotifier) RequestPermission(ctx context.Context) error          { return nil }
func (silentNotifier) Notify(ctx context.Context, title, body string) error { return nil }

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	cfg := config.Config{
		Profile:             "gary",
		Location:            time.UTC,
		Store:               config.Store{Driver: config.StoreMemory},
		Notifier:            config.Notifier{Kind: config.NotifierLog},
		MissedCheckInterval: time.Hour,
	}
	clk := clock.Func(func() time.Time { return time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC) })

	a, err := app.New(cfg, logger.Nop(), app.Deps{Store: memory.NewKV(), Notifier: silentNotifier{}, Clock: clk})
	if err != nil {
		t.Fatalf("app.New error: %v", err)
	}
	t.Cleanup(func() { _ = a.Close() })

	ts := httptest.NewServer(router.NewRouter(router.Options{App: a}))
	t.Cleanup(ts.Close)
	return ts
}

func TestHTTP_EndToEnd_DoseFlow(t *testing.T) {
	ts := newTestServer(t)

	// 1) Alta de medicación
	medID := createMedication(t, ts.URL, map[string]any{
		"name":   "Aspirin",
		"dosage": 2,
		"times":  []string{"20:00", "08:00"},
		"stock":  10,
	})

	// 2) Marcar toma: la segunda vez no descuenta
	{
		st, body := doReq(t, ts.URL, "POST", "/medications/"+medID+"/doses", map[string]any{"time": "08:00", "date": "2025-03-10"})
		if st != http.StatusCreated {
			t.Fatalf("expected 201 record dose, got %d body=%s", st, string(body))
		}
	}
	{
		st, body := doReq(t, ts.URL, "POST", "/medications/"+medID+"/doses", map[string]any{"time": "08:00", "date": "2025-03-10"})
		if st != http.StatusOK {
			t.Fatalf("expected 200 on repeated dose, got %d body=%s", st, string(body))
		}
		var resp struct {
			Outcome string `json:"outcome"`
			Stock   int    `json:"stock"`
		}
		_ = json.Unmarshal(body, &resp)
		if resp.Outcome != "already_recorded" || resp.Stock != 8 {
			t.Fatalf("unexpected repeated dose response %s", string(body))
		}
	}

	// 3) Horario no programado
	{
		st, _ := doReq(t, ts.URL, "POST", "/medications/"+medID+"/doses", map[string]any{"time": "13:00"})
		if st != http.StatusBadRequest {
			t.Fatalf("expected 400 for unscheduled slot, got %d", st)
		}
	}

	// 4) Agenda del día
	{
		st, body := doReq(t, ts.URL, "GET", "/schedule/agenda?date=2025-03-10", nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 agenda, got %d body=%s", st, string(body))
		}
		var resp struct {
			Items []struct {
				Time   string `json:"time"`
				Status string `json:"status"`
			} `json:"items"`
		}
		_ = json.Unmarshal(body, &resp)
		if len(resp.Items) != 2 || resp.Items[0].Status != "taken" || resp.Items[1].Status != "upcoming" {
			t.Fatalf("unexpected agenda %s", string(body))
		}
	}

	// 5) Adherencia del día
	{
		st, body := doReq(t, ts.URL, "GET", "/adherence?from=2025-03-10&to=2025-03-10", nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 adherence, got %d body=%s", st, string(body))
		}
		var resp struct {
			Expected int `json:"expected"`
			Taken    int `json:"taken"`
		}
		_ = json.Unmarshal(body, &resp)
		if resp.Expected != 2 || resp.Taken != 1 {
			t.Fatalf("unexpected adherence %s", string(body))
		}
	}

	// 6) Export CSV
	{
		res, err := http.Get(ts.URL + "/export/doses.csv")
		if err != nil {
			t.Fatalf("export request: %v", err)
		}
		body, _ := io.ReadAll(res.Body)
		res.Body.Close()
		if res.StatusCode != http.StatusOK || !strings.Contains(res.Header.Get("Content-Disposition"), "gary_medication_log.csv") {
			t.Fatalf("unexpected export status=%d headers=%v", res.StatusCode, res.Header)
		}
		if !strings.Contains(string(body), "2025-03-10,Aspirin,08:00,2") {
			t.Fatalf("unexpected export body %q", string(body))
		}
	}
}

func TestHTTP_EditsShowUpInChangeHistory(t *testing.T) {
	ts := newTestServer(t)

	medID := createMedication(t, ts.URL, map[string]any{"name": "Aspirin", "dosage": 1, "doses_per_day": 2})

	{
		st, body := doReq(t, ts.URL, "PATCH", "/medications/"+medID, map[string]any{"dosage": 2})
		if st != http.StatusOK {
			t.Fatalf("expected 200 patch, got %d body=%s", st, string(body))
		}
	}

	st, body := doReq(t, ts.URL, "GET", "/history/changes", nil)
	if st != http.StatusOK {
		t.Fatalf("expected 200 changes, got %d body=%s", st, string(body))
	}
	var changes []struct {
		Diff struct {
			Added   []string `json:"added"`
			Changed []struct {
				Name   string   `json:"name"`
				Fields []string `json:"fields"`
			} `json:"changed"`
		} `json:"diff"`
	}
	_ = json.Unmarshal(body, &changes)
	if len(changes) != 2 {
		t.Fatalf("expected 2 changes, got %s", string(body))
	}
	if len(changes[0].Diff.Added) != 1 || changes[0].Diff.Added[0] != "Aspirin" {
		t.Fatalf("unexpected first change %s", string(body))
	}
	last := changes[1].Diff.Changed
	if len(last) != 1 || last[0].Name != "Aspirin" || len(last[0].Fields) != 1 || last[0].Fields[0] != "dosage" {
		t.Fatalf("unexpected second change %s", string(body))
	}
}

func TestHTTP_ImportSkipsMalformedRows(t *testing.T) {
	ts := newTestServer(t)

	csv := "name,dosage,times\nIron,1,09:00\n,1,10:00\nZinc,1,25:00\n"
	req, _ := http.NewRequest(http.MethodPost, ts.URL+"/import", strings.NewReader(csv))
	req.Header.Set("Content-Type", "text/csv")
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("import request: %v", err)
	}
	body, _ := io.ReadAll(res.Body)
	res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 import, got %d body=%s", res.StatusCode, string(body))
	}

	var resp struct {
		Imported []struct {
			Name string `json:"name"`
		} `json:"imported"`
		Skipped int `json:"skipped"`
	}
	_ = json.Unmarshal(body, &resp)
	if len(resp.Imported) != 1 || resp.Imported[0].Name != "Iron" || resp.Skipped != 2 {
		t.Fatalf("unexpected import report %s", string(body))
	}
}

func TestHTTP_TimelineDirections(t *testing.T) {
	ts := newTestServer(t)
	medID := createMedication(t, ts.URL, map[string]any{
		"name": "Aspirin", "dosage": 1, "times": []string{"08:00"}, "stock": 10,
	})

	span := func(query string) (string, string) {
		t.Helper()
		st, body := doReq(t, ts.URL, "GET", "/medications/"+medID+"/timeline"+query, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 timeline%s, got %d body=%s", query, st, string(body))
		}
		var rows []struct {
			Date string `json:"date"`
		}
		_ = json.Unmarshal(body, &rows)
		if len(rows) != 7 {
			t.Fatalf("expected 7 days for timeline%s, got %s", query, string(body))
		}
		return rows[0].Date, rows[6].Date
	}

	// sin parámetros: la semana que termina hoy
	if first, last := span(""); first != "2025-03-04" || last != "2025-03-10" {
		t.Fatalf("default timeline must end today, got %s..%s", first, last)
	}
	// vista semanal: los próximos 7 días desde hoy
	if first, last := span("?direction=next"); first != "2025-03-10" || last != "2025-03-16" {
		t.Fatalf("next timeline must start today, got %s..%s", first, last)
	}
	if first, _ := span("?direction=next&from=2025-03-01"); first != "2025-03-01" {
		t.Fatalf("explicit from must win over direction, got %s", first)
	}
	if st, _ := doReq(t, ts.URL, "GET", "/medications/"+medID+"/timeline?direction=sideways", nil); st != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown direction, got %d", st)
	}
}

func TestHTTP_HealthNotFoundAndSwagger(t *testing.T) {
	ts := newTestServer(t)

	if st, _ := doReq(t, ts.URL, "GET", "/health", nil); st != http.StatusOK {
		t.Fatalf("expected 200 health, got %d", st)
	}
	if st, _ := doReq(t, ts.URL, "GET", "/medications/unknown", nil); st != http.StatusNotFound {
		t.Fatalf("expected 404 unknown medication, got %d", st)
	}
	if st, _ := doReq(t, ts.URL, "GET", "/schedule/agenda?date=10-03-2025", nil); st != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad date, got %d", st)
	}
	if st, body := doReq(t, ts.URL, "GET", "/swagger/doc.json", nil); st != http.StatusOK || !strings.Contains(string(body), "/medications") {
		t.Fatalf("expected swagger doc, got %d", st)
	}
}

func createMedication(t *testing.T, baseURL string, payload map[string]any) string {
	t.Helper()

	st, body := doReq(t, baseURL, "POST", "/medications", payload)
	if st != http.StatusCreated {
		t.Fatalf("expected 201 create medication, got %d body=%s", st, string(body))
	}

	var resp struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(body, &resp)
	if resp.ID == "" {
		t.Fatalf("create medication: missing id body=%s", string(body))
	}
	return resp.ID
}

func doReq(t *testing.T, baseURL, method, path string, payload any) (int, []byte) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		b, _ := json.Marshal(payload)
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, baseURL+path, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()

	b, _ := io.ReadAll(res.Body)
	return res.StatusCode, b
}
