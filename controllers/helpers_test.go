package controllers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	config "github.com/phillip/riseandserve-go/config"
	controllers "github.com/phillip/riseandserve-go/controllers"
	middleware "github.com/phillip/riseandserve-go/middleware"
	models "github.com/phillip/riseandserve-go/models"
	"github.com/phillip/riseandserve-go/realtime"
	"github.com/phillip/riseandserve-go/repository"
	routes "github.com/phillip/riseandserve-go/routes"
	services "github.com/phillip/riseandserve-go/services"
)

const testSecret = "controllers-test-secret"

var testNow = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

var (
	host  = models.Identity{ID: "u-host", Email: "host@example.com", Name: "Hana Host"}
	alice = models.Identity{ID: "u-alice", Email: "alice@example.com", Name: "Alice"}
	bob   = models.Identity{ID: "u-bob", Email: "bob@example.com", Name: "Bob"}
	admin = models.Identity{ID: "u-admin", Email: "admin@example.com", Name: "Ada", Role: models.RoleAdmin}
)

type testServer struct {
	router *gin.Engine
	svc    *controllers.Services
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	events := repository.NewMemoryEventStore()
	deps := services.Deps{Clock: func() time.Time { return testNow }, Logger: zap.NewNop()}
	hub := realtime.NewHub(zap.NewNop())
	chats := services.NewChatService(repository.NewMemoryChatStore(), hub, deps)

	svc := &controllers.Services{
		Events:        services.NewEventService(events, deps, chats.PurgeEvent),
		Queries:       services.NewQueryService(events, deps),
		Participation: services.NewParticipationService(events, deps, nil),
		Passes:        services.NewPassService(events, deps),
		Chats:         chats,
		Hub:           hub,
		Clock:         func() time.Time { return testNow },
	}

	r := gin.New()
	r.Use(middleware.Recovery(zap.NewNop()), middleware.RequestLogger(zap.NewNop()))
	routes.SetupRoutes(r, &config.Config{JWTSecret: testSecret}, svc)
	return &testServer{router: r, svc: svc}
}

func token(t *testing.T, who models.Identity) string {
	t.Helper()
	tok, err := middleware.GenerateToken(testSecret, who, time.Hour)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	return tok
}

// do sends a request as who (anonymous when who is nil) and returns the recorder.
func (s *testServer) do(t *testing.T, method, path string, who *models.Identity, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if who != nil {
		req.Header.Set("Authorization", "Bearer "+token(t, *who))
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("status = %d, want %d; body: %s", w.Code, want, w.Body.String())
	}
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
	return v
}

type errorBody struct {
	Error  string   `json:"error"`
	Kind   string   `json:"kind"`
	Fields []string `json:"fields"`
}

func expectError(t *testing.T, w *httptest.ResponseRecorder, status int, kind string) errorBody {
	t.Helper()
	expectStatus(t, w, status)
	body := decode[errorBody](t, w)
	if body.Kind != kind {
		t.Fatalf("kind = %q, want %q (%s)", body.Kind, kind, body.Error)
	}
	return body
}

func eventBody(title string, typ models.EventType, date time.Time) map[string]any {
	return map[string]any{
		"title":       title,
		"description": title + " for everyone",
		"eventType":   typ,
		"thumbnail":   "https://img.example.com/t.jpg",
		"location":    "Marina Beach, Chennai",
		"eventDate":   date.Format(time.RFC3339),
	}
}

func (s *testServer) create(t *testing.T, title string, typ models.EventType, date time.Time) models.Event {
	t.Helper()
	w := s.do(t, http.MethodPost, "/events", &host, eventBody(title, typ, date))
	expectStatus(t, w, http.StatusCreated)
	return decode[models.Event](t, w)
}
