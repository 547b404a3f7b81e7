package handlers

import (
	"encoding/json"
	"errors"
	"html/template"
	"io"
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"ltitool/lti"
	"ltitool/services"
	"ltitool/usecases"
)

// autoPostPage submits the signed deep linking response back to the platform
// through the browser, as required by the deep linking flow.
var autoPostPage = template.Must(template.New("autopost").Parse(`<!DOCTYPE html>
<html>
<body onload="document.forms[0].submit()">
<form action="{{.ReturnURL}}" method="post">
<input type="hidden" name="JWT" value="{{.JWT}}">
<noscript><button type="submit">Continue</button></noscript>
</form>
</body>
</html>`))

// registrationCompletePage tells the platform's registration frame that the
// tool finished dynamic registration.
var registrationCompletePage = template.Must(template.New("regdone").Parse(`<!DOCTYPE html>
<html>
<body>
<p>Registered {{.ToolName}} with {{.Issuer}} as client {{.ClientID}}.</p>
<script>
(window.opener || window.parent).postMessage({subject: "org.imsglobal.lti.close"}, "*");
</script>
</body>
</html>`))

type DeepLinkRequest struct {
	Resources []DeepLinkResourceRequest `json:"resources"`
}

type DeepLinkResourceRequest struct {
	Title        string            `json:"title"`
	URL          string            `json:"url"`
	CustomParams map[string]string `json:"custom_params,omitempty"`
}

type ScoreRequest struct {
	Score            decimal.Decimal `json:"score"`
	ActivityProgress string          `json:"activity_progress,omitempty"`
	GradingProgress  string          `json:"grading_progress,omitempty"`
}

type LaunchResponse struct {
	LaunchID    string `json:"launch_id"`
	MessageType string `json:"message_type"`
	IsDeepLink  bool   `json:"is_deep_link"`
}

type LTIHTTPHandler struct {
	ltiUseCase          usecases.LTIUseCaseInterface
	registrationService services.RegistrationService
	toolKeysService     services.ToolKeysService
	toolName            string
}

func NewLTIHTTPHandler(
	ltiUseCase usecases.LTIUseCaseInterface,
	registrationService services.RegistrationService,
	toolKeysService services.ToolKeysService,
	toolName string,
) *LTIHTTPHandler {
	return &LTIHTTPHandler{
		ltiUseCase:          ltiUseCase,
		registrationService: registrationService,
		toolKeysService:     toolKeysService,
		toolName:            toolName,
	}
}

// HandleLogin handles the OIDC third-party login initiation. Platforms may
// send the parameters as a form POST or as query parameters.
func (h *LTIHTTPHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	log.Printf("🔐 Login initiation request received from %s", r.RemoteAddr)

	if err := r.ParseForm(); err != nil {
		log.Printf("❌ Failed to parse login initiation form: %v", err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	params := usecases.LoginParams{
		Issuer:         r.Form.Get("iss"),
		ClientID:       r.Form.Get("client_id"),
		LoginHint:      r.Form.Get("login_hint"),
		TargetLinkURI:  r.Form.Get("target_link_uri"),
		LTIMessageHint: r.Form.Get("lti_message_hint"),
	}

	redirectURL, err := h.ltiUseCase.InitiateLogin(r.Context(), params)
	if err != nil {
		log.Printf("❌ Failed to initiate login: %v", err)
		http.Error(w, "login initiation failed", http.StatusBadRequest)
		return
	}

	http.Redirect(w, r, redirectURL, http.StatusFound)
}

// HandleLaunch handles the id_token form POST from the platform.
func (h *LTIHTTPHandler) HandleLaunch(w http.ResponseWriter, r *http.Request) {
	log.Printf("🚀 Message launch request received from %s", r.RemoteAddr)

	if err := r.ParseForm(); err != nil {
		log.Printf("❌ Failed to parse launch form: %v", err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	launch, err := h.ltiUseCase.HandleLaunch(r.Context(), r.Form.Get("state"), r.Form.Get("id_token"))
	if err != nil {
		log.Printf("❌ Failed to handle launch: %v", err)
		http.Error(w, "launch validation failed", http.StatusUnauthorized)
		return
	}

	h.writeJSONResponse(w, http.StatusOK, LaunchResponse{
		LaunchID:    launch.ID,
		MessageType: launch.MessageType,
		IsDeepLink:  launch.MessageType == lti.MessageTypeDeepLinkingRequest,
	})
}

// HandleJWKS publishes the tool's public signing keys.
func (h *LTIHTTPHandler) HandleJWKS(w http.ResponseWriter, r *http.Request) {
	log.Printf("🔑 JWKS request received from %s", r.RemoteAddr)

	keySet, err := h.toolKeysService.GetToolJWKS(r.Context())
	if err != nil {
		log.Printf("❌ Failed to build JWKS: %v", err)
		http.Error(w, "failed to build key set", http.StatusInternalServerError)
		return
	}

	h.writeJSONResponse(w, http.StatusOK, keySet)
}

// HandleRegister performs LTI dynamic registration against the platform that
// opened this URL.
func (h *LTIHTTPHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	log.Printf("📝 Dynamic registration request received from %s", r.RemoteAddr)

	openidConfigURL := r.URL.Query().Get("openid_configuration")
	if openidConfigURL == "" {
		log.Printf("❌ Missing openid_configuration parameter")
		http.Error(w, "missing openid_configuration parameter", http.StatusBadRequest)
		return
	}
	registrationToken := r.URL.Query().Get("registration_token")

	platform, err := h.registrationService.RegisterPlatform(r.Context(), openidConfigURL, registrationToken)
	if err != nil {
		log.Printf("❌ Failed to register with platform: %v", err)
		http.Error(w, "registration failed", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err = registrationCompletePage.Execute(w, map[string]string{
		"ToolName": h.toolName,
		"Issuer":   platform.Issuer,
		"ClientID": platform.ClientID,
	})
	if err != nil {
		log.Printf("❌ Failed to render registration page: %v", err)
	}
}

// HandleGetLaunchData returns the presentation data for a recorded launch.
func (h *LTIHTTPHandler) HandleGetLaunchData(w http.ResponseWriter, r *http.Request) {
	launchID := mux.Vars(r)["launch_id"]
	log.Printf("📋 Launch data request received for launch: %s", launchID)

	view, err := h.ltiUseCase.GetLaunchView(r.Context(), launchID)
	if err != nil {
		log.Printf("❌ Failed to get launch view: %v", err)
		http.Error(w, "launch not found", http.StatusNotFound)
		return
	}

	h.writeJSONResponse(w, http.StatusOK, view)
}

// HandleDeepLink signs a deep linking response and renders the page that
// posts it back to the platform.
func (h *LTIHTTPHandler) HandleDeepLink(w http.ResponseWriter, r *http.Request) {
	launchID := mux.Vars(r)["launch_id"]
	log.Printf("🔗 Deep link completion request received for launch: %s", launchID)

	// An empty body selects the tool's default resource.
	var req DeepLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		log.Printf("❌ Failed to decode deep link request: %v", err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	resources := make([]lti.DeepLinkResource, 0, len(req.Resources))
	for _, resource := range req.Resources {
		resources = append(resources, lti.DeepLinkResource{
			Title:        resource.Title,
			URL:          resource.URL,
			CustomParams: resource.CustomParams,
		})
	}

	result, err := h.ltiUseCase.CompleteDeepLink(r.Context(), launchID, resources)
	if err != nil {
		log.Printf("❌ Failed to complete deep link: %v", err)
		http.Error(w, "deep link completion failed", http.StatusForbidden)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := autoPostPage.Execute(w, result); err != nil {
		log.Printf("❌ Failed to render deep link page: %v", err)
	}
}

// HandlePublishScore publishes a score for the launching user.
func (h *LTIHTTPHandler) HandlePublishScore(w http.ResponseWriter, r *http.Request) {
	launchID := mux.Vars(r)["launch_id"]
	log.Printf("🎯 Score publish request received for launch: %s", launchID)

	var req ScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("❌ Failed to decode score request: %v", err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	err := h.ltiUseCase.PublishScore(r.Context(), launchID, req.Score, req.ActivityProgress, req.GradingProgress)
	if err != nil {
		log.Printf("❌ Failed to publish score: %v", err)
		http.Error(w, "failed to publish score", http.StatusBadGateway)
		return
	}

	h.writeJSONResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleGetScoreboard returns the course roster merged with scores.
func (h *LTIHTTPHandler) HandleGetScoreboard(w http.ResponseWriter, r *http.Request) {
	launchID := mux.Vars(r)["launch_id"]
	log.Printf("🏆 Scoreboard request received for launch: %s", launchID)

	entries, err := h.ltiUseCase.GetScoreboard(r.Context(), launchID)
	if err != nil {
		log.Printf("❌ Failed to get scoreboard: %v", err)
		http.Error(w, "failed to get scoreboard", http.StatusBadGateway)
		return
	}

	h.writeJSONResponse(w, http.StatusOK, entries)
}

func (h *LTIHTTPHandler) SetupEndpoints(router *mux.Router) {
	log.Printf("🚀 Registering LTI endpoints")

	router.HandleFunc("/lti/login", h.HandleLogin).Methods("GET", "POST")
	log.Printf("✅ GET|POST /lti/login endpoint registered")

	router.HandleFunc("/lti/launch", h.HandleLaunch).Methods("POST")
	log.Printf("✅ POST /lti/launch endpoint registered")

	router.HandleFunc("/lti/jwks", h.HandleJWKS).Methods("GET")
	log.Printf("✅ GET /lti/jwks endpoint registered")

	router.HandleFunc("/lti/register", h.HandleRegister).Methods("GET")
	log.Printf("✅ GET /lti/register endpoint registered")

	router.HandleFunc("/lti/launch/{launch_id}/data", h.HandleGetLaunchData).Methods("GET")
	log.Printf("✅ GET /lti/launch/{launch_id}/data endpoint registered")

	router.HandleFunc("/lti/launch/{launch_id}/deep-link", h.HandleDeepLink).Methods("POST")
	log.Printf("✅ POST /lti/launch/{launch_id}/deep-link endpoint registered")

	router.HandleFunc("/lti/launch/{launch_id}/score", h.HandlePublishScore).Methods("POST")
	log.Printf("✅ POST /lti/launch/{launch_id}/score endpoint registered")

	router.HandleFunc("/lti/launch/{launch_id}/scoreboard", h.HandleGetScoreboard).Methods("GET")
	log.Printf("✅ GET /lti/launch/{launch_id}/scoreboard endpoint registered")
}

func (h *LTIHTTPHandler) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("❌ Failed to encode JSON response: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}
