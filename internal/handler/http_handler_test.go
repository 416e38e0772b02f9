package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/weiawesome/duochat/internal/audit"
	"github.com/weiawesome/duochat/internal/domain"
	"github.com/weiawesome/duochat/pkg/log"
)

func TestHandleError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"too large", domain.ErrFileTooLarge, http.StatusRequestEntityTooLarge},
		{"invalid", domain.ErrEmptyMessage, http.StatusBadRequest},
		{"conflict", domain.ErrEmailExists, http.StatusBadRequest},
		{"unauthenticated", domain.ErrInvalidCredentials, http.StatusUnauthorized},
		{"forbidden", domain.ErrNotGroupMember, http.StatusForbidden},
		{"not found", fmt.Errorf("lookup: %w", domain.ErrMessageNotFound), http.StatusNotFound},
		{"internal", errors.New("disk on fire"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(rec)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			handleError(c, tt.err, "failed")

			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
		})
	}
}

func TestOriginChecker(t *testing.T) {
	req := func(origin string) *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/ws", nil)
		if origin != "" {
			r.Header.Set("Origin", origin)
		}
		return r
	}

	wildcard := originChecker([]string{"*"})
	if !wildcard(req("https://evil.example")) {
		t.Error("wildcard rejected an origin")
	}

	check := originChecker([]string{"https://chat.example"})
	if !check(req("https://chat.example")) {
		t.Error("allowed origin rejected")
	}
	if check(req("https://evil.example")) {
		t.Error("foreign origin accepted")
	}
	if !check(req("")) {
		t.Error("request without origin rejected")
	}
}

func TestConnContextAuditFields(t *testing.T) {
	var buf bytes.Buffer
	ctx := log.WithLogger(context.Background(), zerolog.New(&buf))

	audit.Log(connContext(ctx, "conn-1"), audit.ActionConnect, "alice", "conn-1", "websocket connected")

	line := strings.TrimSpace(buf.String())
	if n := strings.Count(line, `"username"`); n != 1 {
		t.Errorf("username appears %d times in %s", n, line)
	}
	var entry map[string]interface{}
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("decode %s: %v", line, err)
	}
	if entry[log.FieldConnID] != "conn-1" || entry[log.FieldUsername] != "alice" {
		t.Errorf("entry = %v", entry)
	}
}
