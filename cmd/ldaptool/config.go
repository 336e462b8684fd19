package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"tc2diag/internal/common/envfile"
	"tc2diag/internal/directory"
)

// envPrefix namespaces every key this tool reads from the env file.
const envPrefix = "TC2_CONFIG_LDAP_"

// Config holds the directory server settings from the env file plus the
// runtime flags.
type Config struct {
	Directory directory.Config

	// PortErr records a non-numeric PORT value. The run still proceeds on
	// the default port; the summary reports the bad value.
	PortErr error

	// Runtime flags.
	ShowVersion bool
	EnvPath     string
	Username    string
	WebMode     bool
	ListenAddr  string
	RateLimit   float64
	Verbose     bool
	LogLevel    string
}

func parseFlags(args []string) (*Config, error) {
	cfg := &Config{}

	fs := flag.NewFlagSet("ldaptool", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "LDAP/AD bind test tool - part of the TC2 diagnostic toolkit\n\n")
		fmt.Fprintf(fs.Output(), "Usage: %s [options]\n\n", os.Args[0])
		fmt.Fprintf(fs.Output(), "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(fs.Output(), "\nServer settings are read from the env file (keys prefixed %s).\n", envPrefix)
		fmt.Fprintf(fs.Output(), "Without -username the tool prompts; the password is always prompted.\n\n")
		fmt.Fprintf(fs.Output(), "Exit codes: 0 success, 1 missing host or credentials, 2 authentication failed\n")
	}

	fs.BoolVar(&cfg.ShowVersion, "version", false, "Show version information")
	fs.StringVar(&cfg.EnvPath, "env", ".env", "Path to the env file")
	fs.StringVar(&cfg.Username, "username", "", "Username to test (prompted when omitted)")
	fs.BoolVar(&cfg.WebMode, "web", false, "Serve the HTML form instead of running once")
	fs.StringVar(&cfg.ListenAddr, "listen", "127.0.0.1:8001", "Listen address for -web")
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
func (c *Config) applyEnv(env envfile.Map) {
	c.Directory = directory.Config{
		Host:          env.Get(envPrefix + "HOST"),
		Domain:        env.Get(envPrefix + "DOMAIN"),
		BaseDN:        env.Get(envPrefix + "BASE_DN"),
		BindUser:      env.Get(envPrefix + "BIND_USER"),
		BindPassword:  env.Get(envPrefix + "BIND_PASSWORD"),
		CACertFile:    env.Get(envPrefix + "TLS_CA_CERT_FILE"),
		AllowInsecure: env.GetBool(envPrefix + "ALLOW_INSECURE"),
	}
	if raw := env.Get(envPrefix + "PORT"); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil || port < 1 || port > 65535 {
			c.PortErr = fmt.Errorf("invalid port value %q, using default %d", raw, directory.DefaultPort)
		} else {
			c.Directory.Port = port
		}
	}
}
