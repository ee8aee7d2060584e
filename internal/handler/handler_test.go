package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"backend/pkg/apperror"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRespondErrorStatusMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"validation", apperror.Validation("title", "title is required"), http.StatusBadRequest},
		{"authorization", apperror.Authorization("not the current approver"), http.StatusForbidden},
		{"conflict", apperror.Conflict("request is already approved"), http.StatusConflict},
		{"not found", apperror.NotFound("request not found"), http.StatusNotFound},
		{"infrastructure", errors.New("connection refused"), http.StatusInternalServerError},
		{"wrapped validation", errors.Wrap(apperror.Validation("fields", "duplicate field name"), "create template"), http.StatusBadRequest},
	}

	for _, c := range cases {
		w := httptest.NewRecorder()
		ctx, _ := gin.CreateTestContext(w)
		respondError(ctx, c.err)

		if w.Code != c.want {
			t.Errorf("%s: status = %d, want %d", c.name, w.Code, c.want)
			continue
		}

		var body response.Response
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Errorf("%s: body did not decode: %v", c.name, err)
			continue
		}
		if body.Status != "error" || body.StatusCode != c.want || body.Error == "" {
			t.Errorf("%s: body = %+v", c.name, body)
		}
	}
}
