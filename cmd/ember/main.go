// Command ember serves a directory of static files with durable minification,
// content-encoding negotiation and HTTP cache metadata.
//
// Usage:
//
//	ember [flags] [DIR]
//
// DIR defaults to the current directory. Feature flags default to on and can
// be switched off with their --no-* counterparts.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/AarambhDevHub/ember/pkg/ember"
)

func main() {
	var (
		host       = pflag.String("host", "127.0.0.1", "bind address")
		port       = pflag.Int("port", 8080, "listen port")
		tlsCert    = pflag.String("tls-cert", "", "TLS certificate file (enables HTTPS with --tls-key)")
		tlsKey     = pflag.String("tls-key", "", "TLS private key file")
		configFile = pflag.String("config", "", "YAML or JSON configuration file")
		ignoreFile = pflag.String("ignore-file", "", "file of patterns to never serve")
		vhostMode  = pflag.Bool("vhost-mode", false, "serve each host from <DIR>/<host>")

		minCacheDir = pflag.String("min-cache-dir", "", "directory under DIR for minified outputs")

		minify     = pflag.Bool("minify", true, "minify CSS and JavaScript")
		noMinify   = pflag.Bool("no-minify", false, "disable minification")
		compress   = pflag.Bool("compress", true, "negotiate compressed responses")
		noCompress = pflag.Bool("no-compress", false, "disable compression")
		etag       = pflag.Bool("etag", true, "generate and validate ETags")
		noETag     = pflag.Bool("no-etag", false, "disable ETags")

		logLevel  = pflag.String("log-level", "info", "log level: debug, info, warn, error")
		logFormat = pflag.String("log-format", "text", "log format: text, json")
	)
	pflag.Parse()

	dir := "."
	if args := pflag.Args(); len(args) > 0 {
		dir = args[0]
	}

	logger := ember.NewLogger(ember.LoggerConfig{
		Level:  parseLogLevel(*logLevel),
		Format: ember.LogFormat(*logFormat),
		Output: os.Stderr,
	})
	ember.SetDefaultLogger(logger)

	cfg := ember.DefaultConfig(dir)
	cfg.Logger = logger

	var err error
	if *configFile != "" {
		cfg, err = ember.LoadConfig(cfg, *configFile)
		if err != nil {
			fatal(err)
		}
	}
	if *ignoreFile != "" {
		cfg, err = ember.LoadIgnoreFile(cfg, *ignoreFile)
		if err != nil {
			fatal(err)
		}
	}
	if *minCacheDir != "" {
		cfg.MinCacheDir = *minCacheDir
	}

	cfg.Defaults.Minify = *minify && !*noMinify
	cfg.Defaults.Compress = *compress && !*noCompress
	cfg.Defaults.ETag = *etag && !*noETag

	handler, err := ember.NewHandler(cfg)
	if err != nil {
		fatal(err)
	}

	srvCfg := ember.DefaultServerConfig()
	srvCfg.Host = *host
	srvCfg.Port = *port
	srvCfg.TLSCertFile = *tlsCert
	srvCfg.TLSKeyFile = *tlsKey
	srvCfg.VHost = *vhostMode
	srvCfg.Logger = logger

	srv := ember.NewServer(handler, srvCfg)
	if err := srv.ListenAndServeGraceful(); err != nil {
		fatal(err)
	}
}

func parseLogLevel(level string) ember.LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return ember.LogLevelDebug
	case "warn":
		return ember.LogLevelWarn
	case "error":
		return ember.LogLevelError
	default:
		return ember.LogLevelInfo
	}
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "ember:", err)
	os.Exit(1)
}
