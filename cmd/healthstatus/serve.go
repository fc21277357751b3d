// ABOUTME: CLI command for starting the JSON HTTP API.
// ABOUTME: Settings come from config.json and HEALTHSTATUS_* variables.
package main

import (
	"github.com/harperreed/healthstatus/internal/web"
	"github.com/spf13/cobra"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start the JSON HTTP API.

ROUTES:

  POST   /api/auth/signup | /api/auth/login | /api/auth/logout
  GET    /api/auth/me
  POST   /api/auth/password
  GET    /api/profile          PUT /api/profile
  GET    /api/status-types     POST /api/status-types
  DELETE /api/status-types/{id}
  GET    /api/metrics/{type}/dashboard
  POST   /api/metrics/{type}
  GET    /api/metrics/{type}/charts/{bar|line}.{png|svg}
  DELETE /api/records/{id}
  GET    /api/csrf
  GET    /healthz

CONFIG:

  listen_addr     address to bind (default 127.0.0.1:8080)
  session_key     cookie signing key; random per process when unset
  secure_cookies  mark cookies Secure (set when serving over TLS)
  csrf            require X-CSRF-Token on unsafe requests`,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := cfg.ListenAddr
		if serveAddr != "" {
			addr = serveAddr
		}

		srv, err := web.New(web.Config{
			Addr:          addr,
			SessionKey:    []byte(cfg.SessionKey),
			SecureCookies: cfg.SecureCookies,
			CSRF:          cfg.CSRF,
		}, web.Deps{
			Store:     store,
			Auth:      provider,
			Dashboard: dash,
			Logger:    logger,
		})
		if err != nil {
			return err
		}
		return srv.ListenAndServe(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides listen_addr)")
	rootCmd.AddCommand(serveCmd)
}
