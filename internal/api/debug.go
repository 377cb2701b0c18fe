package api

import (
	"net/http"
	"time"

	"shopgate/internal/buildinfo"
)

// DebugJSON reports build info and which optional collaborators are wired.
func (s *Server) DebugJSON(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"build": buildinfo.Info(),
		"time":  time.Now().UTC().Format(time.RFC3339),
		"config": map[string]any{
			"port":          s.Cfg.Port,
			"allowOrigins":  s.Cfg.AllowOrigins,
			"phonepeEnv":    s.Cfg.PhonePe.Env,
			"hasCloudinary": s.Uploader != nil,
			"hasMailer":     s.Mailer != nil,
			"hasDatabase":   s.Cfg.DatabaseURL != "",
			"hasRedis":      s.Cfg.RedisURL != "",
		},
	})
}
