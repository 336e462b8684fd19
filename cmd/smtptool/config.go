package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"tc2diag/internal/common/envfile"
	"tc2diag/internal/mail"
)

// envPrefix namespaces every key this tool reads from the env file.
const envPrefix = "TC2_CONFIG_SMTP_"

// Config holds everything one send run needs: the relay transport settings
// and the message defaults, all read from the deployment's env file, plus
// the runtime flags.
type Config struct {
	Transport mail.Transport

	// Message defaults and sender policy from the env file.
	FromAddress        string
	FromName           string
	TeamAddress        string
	AllowedSenders     []string
	ForceAccountSender bool
	ReplyTo            string
	TagHeader          string
	TagValue           string
	Subject            string
	Body               string
	HTML               bool

	// Runtime flags.
	ShowVersion    bool
	EnvPath        string
	To             string
	OverrideFrom   string
	OverrideName   string
	AttachmentPath string
	WebMode        bool
	ListenAddr     string
	RateLimit      float64
	Verbose        bool
	LogLevel       string
}

// parseFlags reads the command line. The env file itself is loaded
// separately so web mode can re-read it per request.
func parseFlags(args []string) (*Config, error) {
	cfg := &Config{}

	fs := flag.NewFlagSet("smtptool", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "SMTP relay test tool - part of the TC2 diagnostic toolkit\n\n")
		fmt.Fprintf(fs.Output(), "Usage: %s [options]\n\n", os.Args[0])
		fmt.Fprintf(fs.Output(), "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(fs.Output(), "\nRelay settings are read from the env file (keys prefixed %s).\n", envPrefix)
		fmt.Fprintf(fs.Output(), "Without -to the tool prompts for the recipient.\n\n")
		fmt.Fprintf(fs.Output(), "Exit codes: 0 success, 1 environment problem, 2 validation failure, 3 send failure\n")
	}

	fs.BoolVar(&cfg.ShowVersion, "version", false, "Show version information")
	fs.StringVar(&cfg.EnvPath, "env", ".env", "Path to the env file")
	fs.StringVar(&cfg.To, "to", "", "Recipient address (prompted when omitted)")
	fs.StringVar(&cfg.OverrideFrom, "from", "", "Override sender address")
	fs.StringVar(&cfg.OverrideName, "fromname", "", "Override sender display name")
	fs.StringVar(&cfg.AttachmentPath, "attach", "", "Path of a file to attach")
	fs.BoolVar(&cfg.WebMode, "web", false, "Serve the HTML form instead of running once")
	fs.StringVar(&cfg.ListenAddr, "listen", "127.0.0.1:8000", "Listen address for -web")
	fs.Float64Var(&cfg.RateLimit, "ratelimit", 1, "Maximum form submissions per second in -web mode (0 = unlimited)")
	fs.BoolVar(&cfg.Verbose, "verbose", false, "Enable verbose logging")
	fs.StringVar(&cfg.LogLevel, "loglevel", "INFO", "Logging level: DEBUG, INFO, WARN, ERROR")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv fills the config from the env-file mapping. Unknown keys are
// ignored; absent keys leave zero values in place.
func (c *Config) applyEnv(env envfile.Map) error {
	c.Transport = mail.Transport{
		Host:               env.Get(envPrefix + "HOST"),
		Port:               env.GetInt(envPrefix+"PORT", 587),
		Timeout:            time.Duration(env.GetInt(envPrefix+"TIMEOUT", 30)) * time.Second,
		Security:           mail.ParseSecurity(env.Get(envPrefix + "SECURITY")),
		Username:           env.Get(envPrefix + "USERNAME"),
		Password:           env.Get(envPrefix + "PASSWORD"),
		InsecureSkipVerify: env.GetBool(envPrefix + "INSECURE_SKIP_VERIFY"),
	}
	auth, err := mail.ParseAuthMethod(env.Get(envPrefix + "AUTH_METHOD"))
	if err != nil {
		return err
	}
	c.Transport.Auth = auth

	c.FromAddress = env.Get(envPrefix + "FROM_ADDRESS")
	c.FromName = env.Get(envPrefix + "FROM_NAME")
	c.TeamAddress = env.Get(envPrefix + "TEAM_ADDRESS")
	c.AllowedSenders = splitList(env.Get(envPrefix + "ALLOWED_SENDERS"))
	c.ForceAccountSender = env.GetBool(envPrefix + "FORCE_ACCOUNT_SENDER")
	c.ReplyTo = env.Get(envPrefix + "REPLY_TO")
	c.TagHeader = env.Get(envPrefix + "TAG_HEADER")
	c.TagValue = env.Get(envPrefix + "TAG")
	c.Subject = env.Get(envPrefix + "SUBJECT")
	c.Body = env.Get(envPrefix + "MESSAGE")
	c.HTML = env.GetBool(envPrefix + "HTML")
	return nil
}

// splitList parses a comma-separated list, dropping empty items.
func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
