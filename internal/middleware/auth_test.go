package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"backend/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(GetJWTSecret())
	if err != nil {
		t.Fatal(err)
	}
	return signed
}

func authRouter(handler gin.HandlerFunc, mw ...gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.GET("/protected", append(mw, handler)...)
	return router
}

func TestRequireAuthMissingToken(t *testing.T) {
	router := authRouter(func(c *gin.Context) { c.Status(http.StatusOK) }, RequireAuth())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestRequireAuthBearerToken(t *testing.T) {
	userID := uuid.New()
	deptID := uuid.New()
	token := signToken(t, jwt.MapClaims{
		"sub":  userID.String(),
		"role": model.RoleApprover,
		"dept": deptID.String(),
		"exp":  time.Now().Add(time.Hour).Unix(),
	})

	var actor model.Actor
	var ok bool
	router := authRouter(func(c *gin.Context) {
		actor, ok = CurrentActor(c)
		c.Status(http.StatusOK)
	}, RequireAuth())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !ok || actor.ID != userID || actor.Role != model.RoleApprover || actor.DepartmentID != deptID {
		t.Fatalf("actor = %+v ok=%v", actor, ok)
	}
}

func TestRequireAuthCookieToken(t *testing.T) {
	token := signToken(t, jwt.MapClaims{
		"sub":  uuid.NewString(),
		"role": model.RoleRequestor,
		"exp":  time.Now().Add(time.Hour).Unix(),
	})

	router := authRouter(func(c *gin.Context) { c.Status(http.StatusOK) }, RequireAuth())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: "access_token", Value: token})
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
}

func TestRequireAuthExpiredToken(t *testing.T) {
	token := signToken(t, jwt.MapClaims{
		"sub":  uuid.NewString(),
		"role": model.RoleRequestor,
		"exp":  time.Now().Add(-time.Minute).Unix(),
	})

	router := authRouter(func(c *gin.Context) { c.Status(http.StatusOK) }, RequireAuth())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestRequireRole(t *testing.T) {
	token := signToken(t, jwt.MapClaims{
		"sub":  uuid.NewString(),
		"role": model.RoleRequestor,
		"exp":  time.Now().Add(time.Hour).Unix(),
	})

	router := authRouter(func(c *gin.Context) { c.Status(http.StatusOK) }, RequireRole(model.RoleSuperAdmin))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", w.Code)
	}

	adminToken := signToken(t, jwt.MapClaims{
		"sub":  uuid.NewString(),
		"role": model.RoleSuperAdmin,
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
}

func TestRequireAuthRejectsUnknownRole(t *testing.T) {
	token := signToken(t, jwt.MapClaims{
		"sub":  uuid.NewString(),
		"role": "wizard",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})

	router := authRouter(func(c *gin.Context) { c.Status(http.StatusOK) }, RequireAuth())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", w.Code)
	}
}
