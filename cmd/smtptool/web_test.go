package main

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"tc2diag/internal/common/ratelimit"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFormHandler_Get(t *testing.T) {
	cfg := baseConfig()
	h := formHandler(cfg, ratelimit.New(0), discardLogger())

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "SMTP Relay Test") || !strings.Contains(body, `name="to"`) {
		t.Error("form page missing expected fields")
	}
	if strings.Contains(body, "debug-log") {
		t.Error("GET response should not render a log panel")
	}
}

func TestFormHandler_PostInvalidRecipient(t *testing.T) {
	cfg := baseConfig()
	h := formHandler(cfg, ratelimit.New(0), discardLogger())

	form := url.Values{"to": {"not-an-email"}}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "debug-log") {
		t.Fatal("POST response missing log panel")
	}
	if !strings.Contains(body, `class="log-entry error"`) {
		t.Error("validation failure not rendered as an error entry")
	}
	if !strings.Contains(body, `value="not-an-email"`) {
		t.Error("submitted recipient not echoed back into the form")
	}
}

func TestFormHandler_RateLimited(t *testing.T) {
	cfg := baseConfig()
	h := formHandler(cfg, ratelimit.New(0.001), discardLogger())

	form := url.Values{"to": {"not-an-email"}}
	post := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		h(rec, req)
		return rec
	}

	post()
	rec := post()
	if !strings.Contains(rec.Body.String(), "Too many test runs") {
		t.Error("second immediate submission was not rate limited")
	}
}
