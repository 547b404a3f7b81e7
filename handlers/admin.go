package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"ltitool/appctx"
	"ltitool/core"
	"ltitool/middleware"
	"ltitool/models"
	"ltitool/services"
)

type PlatformRequest struct {
	Issuer        string   `json:"issuer"`
	ClientID      string   `json:"client_id"`
	Name          string   `json:"name"`
	AuthLoginURL  string   `json:"auth_login_url"`
	AuthTokenURL  string   `json:"auth_token_url"`
	KeySetURL     string   `json:"key_set_url"`
	Audience      *string  `json:"audience,omitempty"`
	DeploymentIDs []string `json:"deployment_ids,omitempty"`
}

type ToolKeyResponse struct {
	ID        string `json:"id"`
	Kid       string `json:"kid"`
	IsActive  bool   `json:"is_active"`
	CreatedAt string `json:"created_at"`
}

// AdminHTTPHandler exposes the platform registry and key management to
// authenticated operators.
type AdminHTTPHandler struct {
	platformsService services.PlatformsService
	toolKeysService  services.ToolKeysService
}

func NewAdminHTTPHandler(
	platformsService services.PlatformsService,
	toolKeysService services.ToolKeysService,
) *AdminHTTPHandler {
	return &AdminHTTPHandler{
		platformsService: platformsService,
		toolKeysService:  toolKeysService,
	}
}

func (h *AdminHTTPHandler) HandleListPlatforms(w http.ResponseWriter, r *http.Request) {
	log.Printf("📋 List platforms request received from %s", r.RemoteAddr)

	user, ok := appctx.GetUser(r.Context())
	if !ok {
		log.Printf("❌ User not found in context")
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}
	log.Printf("✅ Listing platforms for operator: %s", user.ID)

	platforms, err := h.platformsService.GetAllPlatforms(r.Context())
	if err != nil {
		log.Printf("❌ Failed to list platforms: %v", err)
		http.Error(w, "failed to list platforms", http.StatusInternalServerError)
		return
	}

	h.writeJSONResponse(w, http.StatusOK, platforms)
}

func (h *AdminHTTPHandler) HandleCreatePlatform(w http.ResponseWriter, r *http.Request) {
	log.Printf("📋 Create platform request received from %s", r.RemoteAddr)

	if _, ok := appctx.GetUser(r.Context()); !ok {
		log.Printf("❌ User not found in context")
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	var req PlatformRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("❌ Failed to decode platform request: %v", err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	platform, err := h.platformsService.CreatePlatform(r.Context(), &models.Platform{
		Issuer:        req.Issuer,
		ClientID:      req.ClientID,
		Name:          req.Name,
		AuthLoginURL:  req.AuthLoginURL,
		AuthTokenURL:  req.AuthTokenURL,
		KeySetURL:     req.KeySetURL,
		Audience:      req.Audience,
		DeploymentIDs: req.DeploymentIDs,
	})
	if err != nil {
		log.Printf("❌ Failed to create platform: %v", err)
		http.Error(w, "failed to create platform", http.StatusBadRequest)
		return
	}

	h.writeJSONResponse(w, http.StatusCreated, platform)
}

func (h *AdminHTTPHandler) HandleGetPlatform(w http.ResponseWriter, r *http.Request) {
	platformID := mux.Vars(r)["id"]
	log.Printf("📋 Get platform request received for: %s", platformID)

	if _, ok := appctx.GetUser(r.Context()); !ok {
		log.Printf("❌ User not found in context")
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	platformOpt, err := h.platformsService.GetPlatformByID(r.Context(), platformID)
	if err != nil {
		log.Printf("❌ Failed to get platform: %v", err)
		http.Error(w, "failed to get platform", http.StatusInternalServerError)
		return
	}
	if !platformOpt.IsPresent() {
		http.Error(w, "platform not found", http.StatusNotFound)
		return
	}

	h.writeJSONResponse(w, http.StatusOK, platformOpt.MustGet())
}

func (h *AdminHTTPHandler) HandleDeletePlatform(w http.ResponseWriter, r *http.Request) {
	platformID := mux.Vars(r)["id"]
	log.Printf("📋 Delete platform request received for: %s", platformID)

	if _, ok := appctx.GetUser(r.Context()); !ok {
		log.Printf("❌ User not found in context")
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	if err := h.platformsService.DeletePlatform(r.Context(), platformID); err != nil {
		if core.IsNotFoundError(err) {
			http.Error(w, "platform not found", http.StatusNotFound)
			return
		}
		log.Printf("❌ Failed to delete platform: %v", err)
		http.Error(w, "failed to delete platform", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHTTPHandler) HandleRotateToolKey(w http.ResponseWriter, r *http.Request) {
	log.Printf("🔑 Rotate tool key request received from %s", r.RemoteAddr)

	if _, ok := appctx.GetUser(r.Context()); !ok {
		log.Printf("❌ User not found in context")
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	key, err := h.toolKeysService.RotateToolKey(r.Context())
	if err != nil {
		log.Printf("❌ Failed to rotate tool key: %v", err)
		http.Error(w, "failed to rotate tool key", http.StatusInternalServerError)
		return
	}

	h.writeJSONResponse(w, http.StatusOK, ToolKeyResponse{
		ID:        key.ID,
		Kid:       key.Kid,
		IsActive:  key.IsActive,
		CreatedAt: key.CreatedAt.Format(time.RFC3339),
	})
}

func (h *AdminHTTPHandler) HandleDeleteToolKey(w http.ResponseWriter, r *http.Request) {
	keyID := mux.Vars(r)["id"]
	log.Printf("🔑 Delete tool key request received for: %s", keyID)

	if _, ok := appctx.GetUser(r.Context()); !ok {
		log.Printf("❌ User not found in context")
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	if err := h.toolKeysService.DeleteToolKey(r.Context(), keyID); err != nil {
		if core.IsNotFoundError(err) {
			http.Error(w, "tool key not found", http.StatusNotFound)
			return
		}
		log.Printf("❌ Failed to delete tool key: %v", err)
		http.Error(w, "failed to delete tool key", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHTTPHandler) SetupEndpoints(router *mux.Router, authMiddleware *middleware.ClerkAuthMiddleware) {
	log.Printf("🚀 Registering admin API endpoints")

	router.HandleFunc("/platforms", authMiddleware.WithAuth(h.HandleListPlatforms)).Methods("GET")
	log.Printf("✅ GET /platforms endpoint registered")

	router.HandleFunc("/platforms", authMiddleware.WithAuth(h.HandleCreatePlatform)).Methods("POST")
	log.Printf("✅ POST /platforms endpoint registered")

	router.HandleFunc("/platforms/{id}", authMiddleware.WithAuth(h.HandleGetPlatform)).Methods("GET")
	log.Printf("✅ GET /platforms/{id} endpoint registered")

	router.HandleFunc("/platforms/{id}", authMiddleware.WithAuth(h.HandleDeletePlatform)).Methods("DELETE")
	log.Printf("✅ DELETE /platforms/{id} endpoint registered")

	router.HandleFunc("/keys/rotate", authMiddleware.WithAuth(h.HandleRotateToolKey)).Methods("POST")
	log.Printf("✅ POST /keys/rotate endpoint registered")

	router.HandleFunc("/keys/{id}", authMiddleware.WithAuth(h.HandleDeleteToolKey)).Methods("DELETE")
	log.Printf("✅ DELETE /keys/{id} endpoint registered")
}

func (h *AdminHTTPHandler) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("❌ Failed to encode JSON response: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}
