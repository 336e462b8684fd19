package main

import (
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"tc2diag/internal/common/ratelimit"
	"tc2diag/internal/common/runlog"
	"tc2diag/internal/directory"
)

// formPage is the single page the web variant serves. The submitted password
// is never echoed back; the username is.
const formPage = `<!DOCTYPE html>
<html>
<head>
    <title>LDAP Authentication Test</title>
    <style>
        body { font-family: Arial, sans-serif; max-width: 800px; margin: 50px auto; padding: 20px; background-color: #f5f5f5; }
        .container { background: white; padding: 30px; border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { color: #333; margin-bottom: 30px; }
        .form-group { margin-bottom: 20px; }
        label { display: block; margin-bottom: 5px; font-weight: bold; color: #555; }
        input[type="text"], input[type="password"] { width: 100%; padding: 10px; border: 1px solid #ddd; border-radius: 4px; font-size: 14px; box-sizing: border-box; }
        button { background-color: #4CAF50; color: white; padding: 12px 30px; border: none; border-radius: 4px; cursor: pointer; font-size: 16px; }
        button:hover { background-color: #45a049; }
        .debug-log { background-color: #1e1e1e; color: #d4d4d4; padding: 20px; border-radius: 4px; font-family: 'Courier New', monospace; font-size: 12px; margin-top: 30px; overflow-x: auto; }
        .log-entry { margin: 5px 0; white-space: pre-wrap; }
        .success { color: #4CAF50; }
        .error { color: #f44336; }
        .warning { color: #ffb300; }
    </style>
</head>
<body>
    <div class="container">
        <h1>LDAP Authentication Test</h1>
        <form method="POST" action="">
            <div class="form-group">
                <label for="username">Username:</label>
                <input type="text" id="username" name="username" placeholder="jdoe or jdoe@corp.local" value="{{.Username}}" required>
            </div>
            <div class="form-group">
                <label for="password">Password:</label>
                <input type="password" id="password" name="password" required>
            </div>
            <button type="submit">Test Authentication</button>
        </form>
        {{if .Entries}}
        <div class="debug-log">
            <strong style="display: block; margin-bottom: 10px; color: #fff;">Debug Log:</strong>
            {{range .Entries}}<div class="log-entry {{.Level.Class}}">{{.Stamp}} {{.Message}}</div>
{{end}}
        </div>
        {{end}}
    </div>
</body>
</html>
`

var formTemplate = template.Must(template.New("form").Parse(formPage))

// formData feeds the page template.
type formData struct {
	Username string
	Entries  []runlog.Entry
}

// serveWeb runs the HTML form variant until ctx is cancelled. Each POST
// executes one complete bind test with request-local state only.
func serveWeb(ctx context.Context, cfg *Config, opLog *slog.Logger) error {
	limiter := ratelimit.New(cfg.RateLimit)

	r := mux.NewRouter()
	r.HandleFunc("/", formHandler(cfg, limiter, opLog)).Methods(http.MethodGet, http.MethodPost)
	r.Use(recoverMiddleware(opLog))

	srv := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	opLog.Info("ldaptool web form listening", "addr", cfg.ListenAddr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return fmt.Errorf("web server: %w", err)
	}
}

// recoverMiddleware catches panics from a request, logs the stack trace and
// returns a plain 500. A crashed test run must not take the server down.
func recoverMiddleware(opLog *slog.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					opLog.Error("panic while handling request",
						"panic", rec, "stack", string(debug.Stack()))
					http.Error(w, "internal server error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// formHandler renders the form and, on POST, runs one bind test with a
// buffered run log rendered into the response.
func formHandler(cfg *Config, limiter *ratelimit.Limiter, opLog *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := formData{}

		if r.Method == http.MethodPost {
			if err := r.ParseForm(); err != nil {
				http.Error(w, "bad form data", http.StatusBadRequest)
				return
			}
			raw := r.PostFormValue("password")
			creds := directory.Credentials{
				Username:    strings.TrimSpace(r.PostFormValue("username")),
				Password:    strings.TrimSpace(raw),
				RawPassword: raw,
			}
			data.Username = creds.Username

			log := runlog.New(nil)
			if !limiter.Allow() {
				log.Errorf("Too many test runs, slow down")
			} else {
				auth := directory.NewAuthenticator(&cfg.Directory)
				if _, err := bindRun(cfg, auth, creds, log, opLog, nil); err != nil {
					opLog.Debug("web bind run failed", "error", err)
				}
			}
			data.Entries = log.Entries()
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := formTemplate.Execute(w, data); err != nil {
			opLog.Error("rendering form failed", "error", err)
		}
	}
}
