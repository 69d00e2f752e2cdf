package handlers

import (
	"encoding/json"
	"net"
	"net/http"

	"github.com/tourlink/server/internal/models"
	"github.com/tourlink/server/internal/services"
)

// PreVerifyHeader carries the shared token mobile builds present before
// the credential check runs
const PreVerifyHeader = "X-Pre-Verify-Token"

// LoginHandler handles the guest login entry point
type LoginHandler struct {
	loginService *services.LoginService
}

// NewLoginHandler creates a new LoginHandler
func NewLoginHandler(loginService *services.LoginService) *LoginHandler {
	return &LoginHandler{loginService: loginService}
}

// Login authenticates a guest by booking reference and email
// @Summary Guest login
// @Description Authenticate with a booking reference and email, returning the tour pack on success
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.LoginRequest true "Credentials"
// @Success 200 {object} models.LoginResponse
// @Failure 400 {object} models.LoginResponse "Malformed request"
// @Failure 401 {object} models.LoginResponse "Invalid credentials"
// @Failure 429 {object} models.LoginResponse "Rate limited"
// @Router /api/auth/login [post]
func (h *LoginHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeLoginResponse(w, &models.LoginResponse{Outcome: models.LoginOutcomeMalformed})
		return
	}

	response := h.loginService.Login(r.Context(), clientKey(r), r.Header.Get(PreVerifyHeader), req)
	writeLoginResponse(w, response)
}

// clientKey derives the rate-limit key for the caller. RealIP middleware
// has already resolved proxy headers into RemoteAddr.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeLoginResponse(w http.ResponseWriter, response *models.LoginResponse) {
	status := http.StatusOK
	switch response.Outcome {
	case models.LoginOutcomeMalformed:
		status = http.StatusBadRequest
	case models.LoginOutcomeInvalid:
		status = http.StatusUnauthorized
	case models.LoginOutcomeRateLimited:
		status = http.StatusTooManyRequests
	case models.LoginOutcomeInternal:
		status = http.StatusInternalServerError
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(response)
}
