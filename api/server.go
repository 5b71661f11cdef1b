package api

import (
	"context"
	"database/sql"
	"io/fs"
	"mime"
	"net/http"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"

	"portfolio-admin/config"
	"portfolio-admin/core/auth"
	"portfolio-admin/core/ratelimit"
	"portfolio-admin/core/rbac"
	"portfolio-admin/core/store"
	"portfolio-admin/core/utils"
	"portfolio-admin/web"
)

type Server struct {
	cfg        *config.AppConfig
	router     *chi.Mux
	httpServer *http.Server
	db         *sql.DB
	logger     *utils.Logger

	users   store.UsersStore
	audits  store.AuditStore
	notices store.NoticeStore
	content store.ContentStore

	matrix      *rbac.Matrix
	issuer      *auth.SessionIssuer
	verifier    *auth.Verifier
	ipLimiter   *ratelimit.Limiter
	userLimiter *ratelimit.Limiter
	authMetrics *authMetrics
}

func NewServer(cfg *config.AppConfig, db *sql.DB, logger *utils.Logger) *Server {
	ensureMimeTypes()
	users := store.NewUsersStore(db)
	audits := store.NewAuditStore(db)
	s := &Server{
		cfg:      cfg,
		router:   chi.NewRouter(),
		db:       db,
		logger:   logger,
		users:    users,
		audits:   audits,
		notices:  store.NewNoticeStore(db),
		content:  store.NewContentStore(db),
		matrix:   rbac.NewMatrix(),
		issuer:   auth.NewSessionIssuer(cfg.Session),
		verifier: auth.NewVerifier(users, audits, cfg.Pepper, logger),
		// A single username can keep trying from a couple of addresses
		// without the per-user bucket firing before the per-IP ones.
		ipLimiter:   ratelimit.NewLimiter(cfg.RateLimit.MaxAttempts, cfg.RateLimit.Window),
		userLimiter: ratelimit.NewLimiter(cfg.RateLimit.MaxAttempts*2, cfg.RateLimit.Window),
		authMetrics: newAuthMetrics(),
	}
	s.registerRoutes()
	s.registerObservabilityRoutes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         s.cfg.ListenAddr,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	if s.cfg.TLSEnabled {
		return s.httpServer.ListenAndServeTLS(s.cfg.TLSCert, s.cfg.TLSKey)
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) staticHandler() http.Handler {
	staticFS, err := fs.Sub(web.StaticFiles, "static")
	if err != nil {
		s.logger.Fatalf("static fs: %v", err)
	}
	fileServer := http.FileServer(http.FS(staticFS))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := mime.TypeByExtension(filepath.Ext(r.URL.Path)); ct != "" {
			w.Header().Set("Content-Type", ct)
		}
		fileServer.ServeHTTP(w, r)
	})
}

func ensureMimeTypes() {
	_ = mime.AddExtensionType(".css", "text/css; charset=utf-8")
	_ = mime.AddExtensionType(".js", "application/javascript; charset=utf-8")
	_ = mime.AddExtensionType(".json", "application/json; charset=utf-8")
	_ = mime.AddExtensionType(".html", "text/html; charset=utf-8")
}
