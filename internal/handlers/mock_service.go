package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"single_sensor/internal/models"
	"single_sensor/internal/service"
)

// ---- Service Mocks ----

type mockAuth struct {
	ensureID      int
	ensureErr     error
	genTokenToken string
	genTokenErr   error
	parseID       int
	parseErr      error

	lastGenUsername string
	lastGenPassword string
	lastParseToken  string
}

func (m *mockAuth) EnsureOperator(username, password string) (int, error) {
	return m.ensureID, m.ensureErr
}
func (m *mockAuth) GenerateToken(username, password string) (string, error) {
	m.lastGenUsername = username
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) (int, error) {
	m.lastParseToken = token
	return m.parseID, m.parseErr
}

type mockMonitoring struct {
	reading models.LatestReading
	err     error
}

func (m *mockMonitoring) GetLatest(ctx context.Context) (models.LatestReading, error) {
	return m.reading, m.err
}

type mockEventLog struct {
	resp     []models.SensorEvent
	err      error
	lastFrom time.Time
	lastTo   time.Time
	lastType string
}

func (m *mockEventLog) List(ctx context.Context, f service.LogFilter) ([]models.SensorEvent, error) {
	m.lastFrom = f.From
	m.lastTo = f.To
	m.lastType = f.Type
	return m.resp, m.err
}

type mockSettings struct {
	mu sync.Mutex

	fields    []service.SettingField
	fieldsErr error
	raw       map[string]string
	rawErr    error
	saveErr   error
	rebootErr error

	saved       []map[string]string
	rebootCalls int
	calls       []string
}

func (m *mockSettings) Fields() ([]service.SettingField, error) { return m.fields, m.fieldsErr }

func (m *mockSettings) Raw() (map[string]string, error) { return m.raw, m.rawErr }

func (m *mockSettings) Save(ctx context.Context, values map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, "save")
	m.saved = append(m.saved, values)
	return m.saveErr
}

func (m *mockSettings) Reboot(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, "reboot")
	m.rebootCalls++
	return m.rebootErr
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(s, nil)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}

func withHeaders(req *http.Request, hdr http.Header) *http.Request {
	for k, vv := range hdr {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	return req
}
