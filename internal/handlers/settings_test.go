package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"reflect"
	"strings"
	"testing"

	"single_sensor/internal/models"
	"single_sensor/internal/service"
	"single_sensor/internal/system"
)

func postForm(r http.Handler, form url.Values) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/settings", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	r.ServeHTTP(w, req)
	return w
}

func TestSettingsForm_Render(t *testing.T) {
	settings := &mockSettings{fields: []service.SettingField{
		{Key: models.KeyLocationName, Value: "Server <Room>"},
		{Key: models.KeySlackChannel, Value: ""},
		{Key: "custom_note", Value: "hello"},
	}}
	r := newTestRouter(&service.Service{Settings: settings})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/settings", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	body := w.Body.String()
	for _, want := range []string{
		`name="sensor_location_name"`,
		`value="Server &lt;Room&gt;"`,
		`name="slack_channel"`,
		`name="custom_note"`,
		`value="reboot"`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("form missing %s", want)
		}
	}
}

func TestSettingsForm_RenderError(t *testing.T) {
	r := newTestRouter(&service.Service{Settings: &mockSettings{fieldsErr: errors.New("permission denied")}})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/settings", nil))
	if w.Code != http.StatusInternalServerError || !strings.Contains(w.Body.String(), "permission denied") {
		t.Fatalf("status=%d body=%q", w.Code, w.Body.String())
	}
}

func TestSettingsForm_Submit(t *testing.T) {
	cases := []struct {
		name        string
		action      string
		settings    *mockSettings
		wantCode    int
		wantBody    string
		wantCalls   []string
		wantReboots int
	}{
		{
			name:      "save only",
			action:    "save",
			settings:  &mockSettings{},
			wantCode:  http.StatusOK,
			wantBody:  "Settings updated!",
			wantCalls: []string{"save"},
		},
		{
			name:        "save then reboot",
			action:      "reboot",
			settings:    &mockSettings{},
			wantCode:    http.StatusOK,
			wantBody:    "Settings updated!",
			wantCalls:   []string{"save", "reboot"},
			wantReboots: 1,
		},
		{
			name:      "save failure skips reboot",
			action:    "reboot",
			settings:  &mockSettings{saveErr: errors.New("read-only file system")},
			wantCode:  http.StatusInternalServerError,
			wantBody:  "read-only file system",
			wantCalls: []string{"save"},
		},
		{
			name:        "reboot failure",
			action:      "reboot",
			settings:    &mockSettings{rebootErr: fmt.Errorf("reboot: %w", errors.New("access denied"))},
			wantCode:    http.StatusInternalServerError,
			wantBody:    "access denied",
			wantCalls:   []string{"save", "reboot"},
			wantReboots: 1,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newTestRouter(&service.Service{Settings: tc.settings})

			w := postForm(r, url.Values{
				"sensor_location_name":  {"Lab"},
				"minutes_between_reads": {"not-a-number"},
				"action":                {tc.action},
			})
			if w.Code != tc.wantCode {
				t.Fatalf("status=%d; want %d (body=%q)", w.Code, tc.wantCode, w.Body.String())
			}
			if !strings.Contains(w.Body.String(), tc.wantBody) {
				t.Fatalf("body=%q; want %q", w.Body.String(), tc.wantBody)
			}
			if !reflect.DeepEqual(tc.settings.calls, tc.wantCalls) {
				t.Fatalf("calls=%v; want %v", tc.settings.calls, tc.wantCalls)
			}
			if tc.settings.rebootCalls != tc.wantReboots {
				t.Fatalf("reboots=%d; want %d", tc.settings.rebootCalls, tc.wantReboots)
			}

			saved := tc.settings.saved[0]
			if _, ok := saved["action"]; ok {
				t.Fatal("action must not be written to the settings file")
			}
			want := map[string]string{"sensor_location_name": "Lab", "minutes_between_reads": "not-a-number"}
			if !reflect.DeepEqual(saved, want) {
				t.Fatalf("saved=%v; want verbatim %v", saved, want)
			}
		})
	}
}

func TestSettingsAPI_GetAndPut(t *testing.T) {
	settings := &mockSettings{raw: map[string]string{"slack_channel": "#ops"}}
	r := newTestRouter(&service.Service{Authorization: &mockAuth{parseID: 1}, Settings: settings})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, withHeaders(httptest.NewRequest(http.MethodGet, "/api/v1/settings", nil), authHeader("valid")))
	if w.Code != http.StatusOK {
		t.Fatalf("GET status=%d", w.Code)
	}
	var raw map[string]string
	_ = json.Unmarshal(w.Body.Bytes(), &raw)
	if raw["slack_channel"] != "#ops" {
		t.Fatalf("unexpected body %v", raw)
	}

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/api/v1/settings", bytes.NewBufferString(`{"threshold_count":"4"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, withHeaders(req, authHeader("valid")))
	if w.Code != http.StatusOK {
		t.Fatalf("PUT status=%d body=%s", w.Code, w.Body.String())
	}
	if len(settings.saved) != 1 || settings.saved[0]["threshold_count"] != "4" {
		t.Fatalf("saved=%v", settings.saved)
	}

	for _, body := range []string{`{}`, `{"threshold_count":4}`, `not json`} {
		w = httptest.NewRecorder()
		req = httptest.NewRequest(http.MethodPut, "/api/v1/settings", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, withHeaders(req, authHeader("valid")))
		if w.Code != http.StatusBadRequest {
			t.Errorf("PUT %s: status=%d; want 400", body, w.Code)
		}
	}
}

func TestRebootAPI(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{name: "accepted", code: http.StatusAccepted},
		{name: "disabled", err: fmt.Errorf("reboot: %w", system.ErrRebootDisabled), code: http.StatusConflict},
		{name: "bus failure", err: errors.New("connect system bus: no such file"), code: http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			settings := &mockSettings{rebootErr: tc.err}
			r := newTestRouter(&service.Service{Authorization: &mockAuth{parseID: 1}, Settings: settings})

			w := httptest.NewRecorder()
			r.ServeHTTP(w, withHeaders(httptest.NewRequest(http.MethodPost, "/api/v1/system/reboot", nil), authHeader("valid")))
			if w.Code != tc.code {
				t.Fatalf("status=%d; want %d", w.Code, tc.code)
			}
			if settings.rebootCalls != 1 {
				t.Fatalf("reboot calls=%d; want 1", settings.rebootCalls)
			}
		})
	}
}
