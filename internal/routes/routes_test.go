package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"walkcanvas/internal/controllers"
	"walkcanvas/internal/middleware"
	"walkcanvas/internal/models"
	"walkcanvas/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestEngine(t *testing.T, accessLog io.Writer) *gin.Engine {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "walkcanvas.db")), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Discard,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	if err := db.AutoMigrate(&models.Account{}, &models.Route{}, &models.Favorite{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return SetupRouter(controllers.New(store.New(db)), Options{AccessLog: accessLog, RequestTimeout: 5 * time.Second})
}

func call(t *testing.T, r http.Handler, method, target, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	out := map[string]any{}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("%s %s: decode %q: %v", method, target, w.Body.String(), err)
	}
	return w, out
}

// TestFavoriteScenario follows two accounts through registration, sharing a route and
// favoriting it, then checks every listing agrees.
func TestFavoriteScenario(t *testing.T) {
	var accessLog bytes.Buffer
	r := newTestEngine(t, &accessLog)

	for _, body := range []string{
		`{"ID":"alice","PW":"pw1","NAME":"Al","SEX":"F"}`,
		`{"ID":"bob","PW":"pw2","NAME":"Bo","SEX":"M"}`,
	} {
		if w, resp := call(t, r, http.MethodPost, "/register", body); w.Code != http.StatusCreated {
			t.Fatalf("register = %d %v", w.Code, resp)
		}
	}

	w, resp := call(t, r, http.MethodPost, "/add_route",
		`{"user_id":"alice","route_name":"N","route_path":[[37.5,127.0],[37.6,127.1]],"region_id":"11"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("add_route = %d %v", w.Code, resp)
	}
	routeID := uint(resp["route_id"].(float64))

	w, resp = call(t, r, http.MethodPost, "/toggle_favorite", fmt.Sprintf(`{"user_id":"bob","route_id":%d}`, routeID))
	if w.Code != http.StatusOK || resp["is_favorite"] != true || resp["favorite_count"] != float64(1) {
		t.Fatalf("toggle_favorite = %d %v", w.Code, resp)
	}

	_, resp = call(t, r, http.MethodGet, "/routes?user_id=alice", "")
	mine := resp["routes"].([]any)[0].(map[string]any)
	if mine["is_favorite"] != false || mine["favorite_count"] != float64(1) {
		t.Errorf("alice's route = %v", mine)
	}

	_, resp = call(t, r, http.MethodGet, "/favorites?user_id=bob", "")
	fav := resp["favorites"].([]any)[0].(map[string]any)
	if fav["is_favorite"] != true || fav["favorite_count"] != float64(1) || fav["nickname"] != "Al" {
		t.Errorf("bob's favorite = %v", fav)
	}

	w, resp = call(t, r, http.MethodDelete, fmt.Sprintf("/delete_route/%d", routeID), "")
	if w.Code != http.StatusOK {
		t.Fatalf("delete_route = %d %v", w.Code, resp)
	}
	_, resp = call(t, r, http.MethodGet, "/favorites?user_id=bob", "")
	if favs := resp["favorites"].([]any); len(favs) != 0 {
		t.Errorf("favorites after delete = %v", favs)
	}

	if w.Header().Get(middleware.RequestIDHeader) == "" {
		t.Error("response has no request id")
	}
	if !strings.Contains(accessLog.String(), "/favorites") {
		t.Errorf("access log missing requests: %q", accessLog.String())
	}
}

func TestHealthzIsNotAccessLogged(t *testing.T) {
	var accessLog bytes.Buffer
	r := newTestEngine(t, &accessLog)

	w, resp := call(t, r, http.MethodGet, "/healthz", "")
	if w.Code != http.StatusOK || resp["status"] != "ok" {
		t.Fatalf("healthz = %d %v", w.Code, resp)
	}
	if strings.Contains(accessLog.String(), "/healthz") {
		t.Errorf("healthz was logged: %q", accessLog.String())
	}
}

func TestUnknownRoute(t *testing.T) {
	r := newTestEngine(t, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}
