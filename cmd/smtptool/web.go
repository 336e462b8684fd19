package main

import (
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"tc2diag/internal/common/ratelimit"
	"tc2diag/internal/common/runlog"
)

// formPage is the single page the web variant serves. The log panel colors
// entries by their level class, never by scanning message text.
const formPage = `<!DOCTYPE html>
<html>
<head>
    <title>SMTP Relay Test</title>
    <style>
        body { font-family: Arial, sans-serif; max-width: 800px; margin: 50px auto; padding: 20px; background-color: #f5f5f5; }
        .container { background: white; padding: 30px; border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { color: #333; margin-bottom: 30px; }
        .form-group { margin-bottom: 20px; }
        label { display: block; margin-bottom: 5px; font-weight: bold; color: #555; }
        input[type="text"] { width: 100%; padding: 10px; border: 1px solid #ddd; border-radius: 4px; font-size: 14px; box-sizing: border-box; }
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
        <h1>SMTP Relay Test</h1>
        <form method="POST" action="">
            <div class="form-group">
                <label for="to">Recipient:</label>
                <input type="text" id="to" name="to" placeholder="ops@example.com" value="{{.To}}" required>
            </div>
            <div class="form-group">
                <label for="from">Sender override (optional):</label>
                <input type="text" id="from" name="from" value="{{.From}}">
            </div>
            <div class="form-group">
                <label for="fromname">Sender name override (optional):</label>
                <input type="text" id="fromname" name="fromname" value="{{.FromName}}">
            </div>
            <button type="submit">Send Test Email</button>
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
	To       string
	From     string
	FromName string
	Entries  []runlog.Entry
}

// serveWeb runs the HTML form variant until ctx is cancelled. Each POST
// executes one complete test run with request-local state only.
func serveWeb(ctx context.Context, cfg *Config, opLog *slog.Logger) error {
	limiter := ratelimit.New(cfg.RateLimit)

	r := mux.NewRouter()
	r.HandleFunc("/", formHandler(cfg, limiter, opLog)).Methods(http.MethodGet, http.MethodPost)

	srv := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	opLog.Info("smtptool web form listening", "addr", cfg.ListenAddr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return fmt.Errorf("web server: %w", err)
	}
}

// formHandler renders the form and, on POST, runs one send with a buffered
// run log rendered into the response.
func formHandler(cfg *Config, limiter *ratelimit.Limiter, opLog *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := formData{}

		if r.Method == http.MethodPost {
			if err := r.ParseForm(); err != nil {
				http.Error(w, "bad form data", http.StatusBadRequest)
				return
			}
			data.To = r.PostFormValue("to")
			data.From = r.PostFormValue("from")
			data.FromName = r.PostFormValue("fromname")

			log := runlog.New(nil)
			if !limiter.Allow() {
				log.Errorf("Too many test runs, slow down")
			} else {
				runCfg := *cfg
				runCfg.OverrideFrom = data.From
				runCfg.OverrideName = data.FromName
				runCfg.AttachmentPath = ""
				if err := sendRun(r.Context(), &runCfg, data.To, log, opLog, nil); err != nil {
					opLog.Debug("web send run failed", "error", err)
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
