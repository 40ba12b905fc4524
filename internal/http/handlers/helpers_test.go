package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/JeevaSuryaWorks/emergentiq-advisor/internal/inference"
	"github.com/JeevaSuryaWorks/emergentiq-advisor/internal/location"
	"github.com/JeevaSuryaWorks/emergentiq-advisor/internal/onboarding"
	"github.com/JeevaSuryaWorks/emergentiq-advisor/internal/repo"
	"github.com/JeevaSuryaWorks/emergentiq-advisor/internal/services"
)

func init() { gin.SetMode(gin.TestMode) }

type testEnv struct {
	r   *gin.Engine
	h   *Handlers
	db  *gorm.DB
	mgr *services.SessionManager
}

// echoLLM answers every request with the last user turn.
var echoLLM = inference.ClientFunc(func(_ context.Context, req inference.Request) (*inference.Response, error) {
	last := req.Messages[len(req.Messages)-1].Content
	return &inference.Response{Content: "Reply to: " + last}, nil
})

func newTestEnv(t *testing.T, llm inference.Client, tweak ...func(*Deps)) *testEnv {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := repo.OpenSQLite(fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	// Shared-cache memory databases lock per table; serialize access.
	sqlDB.SetMaxOpenConns(1)
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}

	store := repo.NewStore(db)
	profiles := services.NewProfileService(store)
	mgr := services.NewSessionManager(store, store, services.ProfileUsers{Profiles: store}, llm, services.ManagerOptions{
		IdleTTL:        time.Minute,
		MaxPromptRunes: 200,
	})
	catalog := location.NewCatalog()
	t.Cleanup(func() {
		mgr.CloseAll()
		_ = sqlDB.Close()
	})

	d := Deps{
		Sessions:       mgr,
		SessionSvc:     services.NewSessionService(store, mgr),
		Profiles:       profiles,
		Bookmarks:      services.NewBookmarkService(store),
		Locations:      catalog,
		Onboarding:     onboarding.NewStore(catalog, time.Minute, 300),
		StatsDB:        db,
		MaxPromptRunes: 200,
	}
	for _, fn := range tweak {
		fn(&d)
	}
	h := New(d)
	return &testEnv{r: newTestRouter(h), h: h, db: db, mgr: mgr}
}

// newTestRouter mounts the handlers at the root, without middleware.
func newTestRouter(h *Handlers) *gin.Engine {
	r := gin.New()
	r.UseRawPath = true
	r.POST("/sessions", h.OpenSession)
	r.GET("/sessions", h.ListSessions)
	r.GET("/sessions/:id", h.GetSession)
	r.PUT("/sessions/:id/title", h.RenameSession)
	r.DELETE("/sessions/:id", h.DeleteSession)
	r.GET("/sessions/:id/messages", h.ListMessages)
	r.POST("/sessions/:id/messages", h.SendMessage)
	r.DELETE("/sessions/:id/messages", h.ClearMessages)
	r.POST("/sessions/:id/cancel", h.CancelRequest)

	r.GET("/locations", h.ListRootLocations)
	r.GET("/locations/:id/children", h.ListChildLocations)
	r.GET("/virtual-locations", h.ListVirtualLocations)
	r.GET("/virtual-locations/verify", h.VerifyVirtualLocation)

	r.GET("/onboarding-options", h.GetOnboardingOptions)
	r.POST("/onboarding", h.CreateOnboarding)
	r.GET("/onboarding/:id", h.GetOnboarding)
	r.POST("/onboarding/:id/locations/drill", h.DrillLocation)
	r.POST("/onboarding/:id/locations/jump", h.JumpLocation)
	r.POST("/onboarding/:id/locations/toggle", h.ToggleLocation)
	r.GET("/onboarding/:id/interests", h.SearchInterests)
	r.POST("/onboarding/:id/interests/toggle", h.ToggleInterest)
	r.PUT("/onboarding/:id/preferences", h.UpdatePreferences)
	r.POST("/onboarding/:id/complete", h.CompleteOnboarding)

	r.GET("/profile", h.GetProfile)
	r.PUT("/profile", h.PutProfile)
	r.GET("/bookmarks", h.ListBookmarks)
	r.POST("/bookmarks/:collegeId/toggle", h.ToggleBookmark)
	return r
}

// do sends a request as user "u1" unless headers override X-User-ID.
// body may be nil, a string (sent as is) or any JSON-marshalable value.
func (e *testEnv) do(t *testing.T, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	if rd != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-User-ID", "u1")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	e.r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return v
}

func expectError(t *testing.T, w *httptest.ResponseRecorder, status int, code string) ErrorResponse {
	t.Helper()
	if w.Code != status {
		t.Fatalf("status=%d want %d body=%s", w.Code, status, w.Body.String())
	}
	er := decode[ErrorResponse](t, w)
	if er.Code != code {
		t.Fatalf("code=%q want %q (%s)", er.Code, code, er.Message)
	}
	return er
}

// openSession creates a session for u1 and returns its id.
func (e *testEnv) openSession(t *testing.T) string {
	t.Helper()
	w := e.do(t, http.MethodPost, "/sessions", nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("open: %d %s", w.Code, w.Body.String())
	}
	return decode[services.Snapshot](t, w).SessionID
}
