package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"portfolio-admin/api/handlers"
	"portfolio-admin/core/rbac"
)

func (s *Server) registerRoutes() {
	s.router.Use(s.recoverMiddleware)
	s.router.Use(s.securityHeadersMiddleware)
	s.router.Use(s.sessionMiddleware)
	s.router.Use(s.loggingMiddleware)

	s.router.Handle("/static/*", http.StripPrefix("/static/", s.staticHandler()))

	authHandler := handlers.NewAuthHandler(s.cfg, s.users, s.verifier, s.issuer, s.matrix, s.audits, s.ipLimiter, s.userLimiter, s.authMetrics, s.logger)
	usersHandler := handlers.NewUsersHandler(s.cfg, s.users, s.matrix, s.audits, s.logger)
	contentHandler := handlers.NewContentHandler(s.content, s.audits, s.logger)
	noticeHandler := handlers.NewNoticeHandler(s.notices, s.audits, s.logger)
	auditHandler := handlers.NewAuditHandler(s.audits)

	s.router.Get("/", handlers.ServeStatic("index.html"))
	s.router.Get("/favicon.ico", http.NotFound)
	s.router.Get(loginPath, s.loginPage)
	s.router.Get(unauthorizedPage, handlers.ServeStatic("unauthorized.html"))

	adminShell := s.requirePage(handlers.ServeStatic("app.html"))
	s.router.Get(adminHome, adminShell)
	s.router.Get(passwordResetPage, s.requireSessionPage(handlers.ServeStatic("password.html")))
	s.router.Get(adminHome+"/*", adminShell)

	s.router.Route("/api", func(api chi.Router) {
		api.Use(jsonMiddleware)

		api.Post("/auth/login", authHandler.Login)
		api.Post("/auth/logout", s.withSession(authHandler.Logout))
		api.Get("/auth/me", s.withSession(authHandler.Me))
		api.Post("/auth/change-password", s.withSession(authHandler.ChangePassword))

		// Public read surface for the portfolio site.
		api.Get("/{kind:projects|certifications|volunteering|awards|languages}", contentHandler.PublicList)
		api.Get("/settings/notice", noticeHandler.PublicGet)

		api.Route("/users", func(r chi.Router) {
			r.Get("/", s.withSession(s.requirePermission(rbac.PermViewUsers)(usersHandler.List)))
			r.Post("/", s.withSession(s.requirePermission(rbac.PermCreateUser)(usersHandler.Create)))
			r.Put("/{id}", s.withSession(s.requirePermission(rbac.PermEditUser)(usersHandler.Update)))
			r.Delete("/{id}", s.withSession(s.requirePermission(rbac.PermDeleteUser)(usersHandler.Delete)))
			r.Post("/{id}/reset-password", s.withSession(s.requirePermission(rbac.PermEditUser)(usersHandler.ResetPassword)))
		})

		api.Route("/content/{kind}", func(r chi.Router) {
			r.Get("/", s.withSession(s.requirePermission(rbac.PermViewContent)(contentHandler.List)))
			r.Post("/", s.withSession(s.requirePermission(rbac.PermCreateContent)(contentHandler.Create)))
			r.Get("/{id}", s.withSession(s.requirePermission(rbac.PermViewContent)(contentHandler.Get)))
			r.Put("/{id}", s.withSession(s.requirePermission(rbac.PermEditContent)(contentHandler.Update)))
			r.Delete("/{id}", s.withSession(s.requirePermission(rbac.PermDeleteContent)(contentHandler.Delete)))
			r.Post("/{id}/publish", s.withSession(s.requirePermission(rbac.PermPublishContent)(contentHandler.SetPublished)))
		})

		api.Get("/settings/notice/current", s.withSession(s.requireAnyPermission(rbac.PermViewSettings, rbac.PermManageNotice)(noticeHandler.Get)))
		api.Put("/settings/notice", s.withSession(s.requirePermission(rbac.PermManageNotice)(noticeHandler.Put)))

		api.Get("/logs", s.withSession(s.requirePermission(rbac.PermViewAuditLogs)(auditHandler.List)))
	})
}

func jsonMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// loginPage serves the sign-in form, or bounces an already signed-in user
// into the admin area.
func (s *Server) loginPage(w http.ResponseWriter, r *http.Request) {
	if claims := claimsFrom(r.Context()); claims != nil {
		if claims.MustResetPassword {
			http.Redirect(w, r, passwordResetPage, http.StatusFound)
			return
		}
		http.Redirect(w, r, adminHome, http.StatusFound)
		return
	}
	handlers.ServeStatic("login.html")(w, r)
}

// requireSessionPage guards the reset page itself: a session is needed, but
// a pending reset must not redirect away from it.
func (s *Server) requireSessionPage(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if claimsFrom(r.Context()) == nil {
			http.Redirect(w, r, loginPath, http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	}
}
