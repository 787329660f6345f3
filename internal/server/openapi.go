package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"

	"github.com/forkreel/forkreel/internal/guide"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "ForkReel API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Backend API for the ForkReel remix shooting flow.")

	// GET /healthz
	getHealthz, _ := r.NewOperationContext(http.MethodGet, "/healthz")
	getHealthz.SetSummary("Health check")
	getHealthz.SetDescription("Returns the health status of backend dependencies.")
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(getHealthz)

	// GET /api/v1/for-you
	listPatterns, _ := r.NewOperationContext(http.MethodGet, "/api/v1/for-you")
	listPatterns.SetSummary("List patterns")
	listPatterns.SetDescription("Returns the pattern catalog list view.")
	listPatterns.AddRespStructure([]PatternSummary{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(listPatterns)

	// GET /api/v1/for-you/{patternID}
	getPattern, _ := r.NewOperationContext(http.MethodGet, "/api/v1/for-you/{patternID}")
	getPattern.SetSummary("Get pattern")
	getPattern.SetDescription("Returns one catalog document with whatever guide signal it carries.")
	getPattern.AddRespStructure(guide.PatternResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getPattern.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getPattern)

	// GET /api/v1/outliers/items/{patternID}
	getOutlier, _ := r.NewOperationContext(http.MethodGet, "/api/v1/outliers/items/{patternID}")
	getOutlier.SetSummary("Get outlier item")
	getOutlier.SetDescription("Alias of the pattern document for the outlier detail screen.")
	getOutlier.AddRespStructure(guide.PatternResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getOutlier.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getOutlier)

	// POST /api/v1/sessions
	createSession, _ := r.NewOperationContext(http.MethodPost, "/api/v1/sessions")
	createSession.SetSummary("Create session")
	createSession.SetDescription("Starts a remix session at the top of the funnel. Returns a bearer token.")
	createSession.AddRespStructure(CreateSessionResponse{}, openapi.WithHTTPStatus(http.StatusCreated))
	_ = r.AddOperation(createSession)

	// GET /api/v1/sessions/current
	getSession, _ := r.NewOperationContext(http.MethodGet, "/api/v1/sessions/current")
	getSession.SetSummary("Get session")
	getSession.SetDescription("Returns the current session state. Requires Bearer token.")
	getSession.AddRespStructure(SessionResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getSession.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(getSession)

	// DELETE /api/v1/sessions/current
	endSession, _ := r.NewOperationContext(http.MethodDelete, "/api/v1/sessions/current")
	endSession.SetSummary("End session")
	endSession.SetDescription("Marks the session ended. Requires Bearer token.")
	endSession.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusNoContent))
	_ = r.AddOperation(endSession)

	// POST /api/v1/sessions/current/route
	postRoute, _ := r.NewOperationContext(http.MethodPost, "/api/v1/sessions/current/route")
	postRoute.SetSummary("Apply deep-link route")
	postRoute.SetDescription("Applies shared-link context (pattern, tab) to the session. Idempotent; the funnel never regresses.")
	postRoute.AddRespStructure(SessionResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postRoute.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(postRoute)

	// POST /api/v1/sessions/current/phase
	postPhase, _ := r.NewOperationContext(http.MethodPost, "/api/v1/sessions/current/phase")
	postPhase.SetSummary("Advance phase")
	postPhase.SetDescription("Moves the funnel forward. Backward targets are ignored.")
	postPhase.AddRespStructure(SessionResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postPhase.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postPhase.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(postPhase)

	// POST /api/v1/sessions/current/mode
	postMode, _ := r.NewOperationContext(http.MethodPost, "/api/v1/sessions/current/mode")
	postMode.SetSummary("Set mode")
	postMode.SetDescription("Toggles between simple and pro. Unknown modes are ignored.")
	postMode.AddRespStructure(SessionResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postMode.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(postMode)

	// POST /api/v1/sessions/current/pattern
	postPattern, _ := r.NewOperationContext(http.MethodPost, "/api/v1/sessions/current/pattern")
	postPattern.SetSummary("Select pattern")
	postPattern.SetDescription("Replaces the selected pattern wholesale and loads its customization slots.")
	postPattern.AddRespStructure(SessionResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postPattern.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	postPattern.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(postPattern)

	// POST /api/v1/sessions/current/quest
	postQuest, _ := r.NewOperationContext(http.MethodPost, "/api/v1/sessions/current/quest")
	postQuest.SetSummary("Accept quest")
	postQuest.SetDescription("Accepts a campaign quest. A second accept is silently ignored.")
	postQuest.AddRespStructure(SessionResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postQuest.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(postQuest)

	// PATCH /api/v1/sessions/current/slots/{slotID}
	patchSlot, _ := r.NewOperationContext(http.MethodPatch, "/api/v1/sessions/current/slots/{slotID}")
	patchSlot.SetSummary("Patch slot value")
	patchSlot.SetDescription("Updates one customization slot value. Unknown slot ids are a no-op.")
	patchSlot.AddRespStructure(SessionResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	patchSlot.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(patchSlot)

	// POST /api/v1/sessions/current/runs
	postRun, _ := r.NewOperationContext(http.MethodPost, "/api/v1/sessions/current/runs")
	postRun.SetSummary("Create run")
	postRun.SetDescription("Starts a recording attempt, replacing any previous run.")
	postRun.AddRespStructure(SessionResponse{}, openapi.WithHTTPStatus(http.StatusCreated))
	postRun.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(postRun)

	// POST /api/v1/sessions/current/runs/status
	postRunStatus, _ := r.NewOperationContext(http.MethodPost, "/api/v1/sessions/current/runs/status")
	postRunStatus.SetSummary("Advance run status")
	postRunStatus.SetDescription("Moves the run status forward (idle, shooting, submitted). Backward transitions are rejected.")
	postRunStatus.AddRespStructure(SessionResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postRunStatus.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	postRunStatus.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postRunStatus.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(postRunStatus)

	// GET /api/v1/sessions/current/guide
	getGuide, _ := r.NewOperationContext(http.MethodGet, "/api/v1/sessions/current/guide")
	getGuide.SetSummary("Get shooting guide")
	getGuide.SetDescription("Resolves the selected pattern into a shooting guide. Always returns a guide; degraded cases carry a notice.")
	getGuide.AddRespStructure(GuideResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getGuide.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(getGuide)

	// GET /api/v1/sessions/current/events
	getEvents, _ := r.NewOperationContext(http.MethodGet, "/api/v1/sessions/current/events")
	getEvents.SetSummary("SSE event stream")
	getEvents.SetDescription("Server-Sent Events stream for track-screen updates. Pass token as query parameter.")
	getEvents.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK),
		openapi.WithContentType("text/event-stream"))
	_ = r.AddOperation(getEvents)

	// POST /api/v1/sessions/current/interventions
	postIntervention, _ := r.NewOperationContext(http.MethodPost, "/api/v1/sessions/current/interventions")
	postIntervention.SetSummary("Log intervention")
	postIntervention.SetDescription("Records one analytics event. Best effort; always answers 202.")
	postIntervention.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusAccepted))
	postIntervention.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(postIntervention)

	// GET /ws/coach
	getCoach, _ := r.NewOperationContext(http.MethodGet, "/ws/coach")
	getCoach.SetSummary("Live coaching channel")
	getCoach.SetDescription("Upgrades to a WebSocket that streams coaching cues during recording. Pass token and pattern as query parameters.")
	getCoach.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusSwitchingProtocols),
		openapi.WithContentType("text/plain"))
	_ = r.AddOperation(getCoach)

	// POST /api/admin/login
	postLogin, _ := r.NewOperationContext(http.MethodPost, "/api/admin/login")
	postLogin.SetSummary("Admin login")
	postLogin.SetDescription("Authenticate with email and password. Sets admin_session cookie.")
	postLogin.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	postLogin.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(postLogin)

	// POST /api/admin/logout
	postLogout, _ := r.NewOperationContext(http.MethodPost, "/api/admin/logout")
	postLogout.SetSummary("Admin logout")
	postLogout.SetDescription("Clears admin session and cookie.")
	postLogout.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusNoContent))
	_ = r.AddOperation(postLogout)

	// GET /api/admin/me
	getMe, _ := r.NewOperationContext(http.MethodGet, "/api/admin/me")
	getMe.SetSummary("Current admin")
	getMe.SetDescription("Returns the currently authenticated admin. Requires admin_session cookie.")
	getMe.AddRespStructure(AdminMeResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getMe.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(getMe)

	// GET /api/admin/patterns
	adminList, _ := r.NewOperationContext(http.MethodGet, "/api/admin/patterns")
	adminList.SetSummary("List patterns (admin)")
	adminList.SetDescription("Returns all catalog entries. Requires admin_session cookie.")
	adminList.AddRespStructure([]PatternSummary{}, openapi.WithHTTPStatus(http.StatusOK))
	adminList.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(adminList)

	// POST /api/admin/patterns
	adminCreate, _ := r.NewOperationContext(http.MethodPost, "/api/admin/patterns")
	adminCreate.SetSummary("Create pattern")
	adminCreate.SetDescription("Creates a catalog document; the id comes from the body. Requires admin_session cookie.")
	adminCreate.AddReqStructure(guide.PatternResponse{})
	adminCreate.AddRespStructure(guide.PatternResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	adminCreate.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	adminCreate.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(adminCreate)

	// GET /api/admin/patterns/{patternID}
	adminGet, _ := r.NewOperationContext(http.MethodGet, "/api/admin/patterns/{patternID}")
	adminGet.SetSummary("Get pattern (admin)")
	adminGet.SetDescription("Returns one catalog document. Requires admin_session cookie.")
	adminGet.AddRespStructure(guide.PatternResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	adminGet.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	adminGet.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(adminGet)

	// PUT /api/admin/patterns/{patternID}
	adminPut, _ := r.NewOperationContext(http.MethodPut, "/api/admin/patterns/{patternID}")
	adminPut.SetSummary("Upsert pattern")
	adminPut.SetDescription("Creates or replaces one catalog document. Requires admin_session cookie.")
	adminPut.AddReqStructure(guide.PatternResponse{})
	adminPut.AddRespStructure(guide.PatternResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	adminPut.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	adminPut.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(adminPut)

	// DELETE /api/admin/patterns/{patternID}
	adminDelete, _ := r.NewOperationContext(http.MethodDelete, "/api/admin/patterns/{patternID}")
	adminDelete.SetSummary("Delete pattern")
	adminDelete.SetDescription("Deletes one catalog document. Requires admin_session cookie.")
	adminDelete.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusNoContent))
	adminDelete.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	adminDelete.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(adminDelete)

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
