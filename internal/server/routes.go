package server

import (
	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"
)

func addRoutes(r chi.Router, deps Deps) {
	logger, store, broker := deps.Logger, deps.Store, deps.Broker

	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("ForkReel API", "/openapi.json", "/docs"))
	r.Get("/healthz", handleHealth(logger, deps.Health))

	// Pattern catalog — public reads. The for-you feed and the outlier
	// detail screen share the document shape.
	r.Get("/api/v1/for-you", handleListPatterns(store))
	r.Get("/api/v1/for-you/{patternID}", handleGetPattern(store))
	r.Get("/api/v1/outliers/items/{patternID}", handleGetPattern(store))

	// Session funnel — bearer token from POST /api/v1/sessions.
	r.Post("/api/v1/sessions", handleCreateSession(store))
	r.Route("/api/v1/sessions/current", func(r chi.Router) {
		r.Get("/", handleGetSession(store))
		r.Delete("/", handleEndSession(store))
		r.Post("/route", handleRoute(store))
		r.Post("/phase", handleAdvancePhase(logger, store))
		r.Post("/mode", handleSetMode(store))
		r.Post("/pattern", handleSelectPattern(store))
		r.Post("/quest", handleAcceptQuest(store, broker))
		r.Patch("/slots/{slotID}", handlePatchSlot(store))
		r.Post("/runs", handleCreateRun(store, broker))
		r.Post("/runs/status", handleRunStatus(logger, store, broker))
		r.Get("/guide", handleSessionGuide(store))
		r.Get("/events", handleEvents(logger, store, broker))
		r.Post("/interventions", handleLogIntervention(store))
	})

	// Live coaching channel.
	r.Get("/ws/coach", handleCoach(logger, store, broker))

	// Admin auth.
	r.Post("/api/admin/login", handleAdminLogin(logger, store))
	r.Post("/api/admin/logout", handleAdminLogout(store))
	r.Get("/api/admin/me", handleAdminMe(store))

	// Admin pattern catalog CRUD.
	r.Route("/api/admin/patterns", func(r chi.Router) {
		r.Use(adminAuthMiddleware(store))
		r.Get("/", handleAdminListPatterns(store))
		r.Post("/", handleAdminUpsertPattern(store))
		r.Get("/{patternID}", handleAdminGetPattern(store))
		r.Put("/{patternID}", handleAdminUpsertPattern(store))
		r.Delete("/{patternID}", handleAdminDeletePattern(store))
	})
}
