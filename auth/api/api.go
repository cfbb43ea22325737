package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/nmoram/newsdesk/auth"
	"github.com/nmoram/newsdesk/internal/logutil"
)

type (
	registerRequest struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}

	principalResponse struct {
		ID       int64  `json:"id"`
		Email    string `json:"email"`
		Role     string `json:"role"`
		IsActive bool   `json:"is_active"`
	}

	tokenResponse struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
)

// Routes mounts the credential endpoints under /auth.
func (s *Realm) Routes(router *httprouter.Router) {
	router.POST("/auth/register", s.register)
	router.POST("/auth/login", s.login)
	router.GET("/auth/verify", s.verify)
}

func (s *Realm) register(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req registerRequest
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}
	if req.Role == "" {
		req.Role = string(auth.RoleUser)
	}
	p, err := s.authn.Register(r.Context(), req.Email, req.Password, auth.Role(req.Role))
	if errors.Is(err, auth.ErrDuplicateIdentity) {
		writeError(w, http.StatusBadRequest, "Email already registered")
		return
	}
	var unknown auth.UnknownRole
	if errors.As(err, &unknown) {
		writeError(w, http.StatusBadRequest, unknown.Error())
		return
	}
	if err != nil {
		logutil.Acquire(r.Context(), "auth.api").Error().Err(err).Msg("Unable to register principal")
		writeError(w, http.StatusInternalServerError, "unable to process request")
		return
	}
	writeJSON(w, http.StatusOK, principalJSON(p))
}

// login follows the OAuth2 password-grant shape: form-encoded username and
// password in, bearer token out.
func (s *Realm) login(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	err := r.ParseForm()
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid form body")
		return
	}
	token, err := s.authn.Login(r.Context(), r.PostFormValue("username"), r.PostFormValue("password"))
	if errors.Is(err, auth.ErrInvalidCredentials) {
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeError(w, http.StatusUnauthorized, "Incorrect email or password")
		return
	} else if err != nil {
		logutil.Acquire(r.Context(), "auth.api").Error().Err(err).Msg("Unable to login principal")
		writeError(w, http.StatusInternalServerError, "unable to process request")
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: token, TokenType: "bearer"})
}

func (s *Realm) verify(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	token, ok := bearerToken(r)
	if !ok {
		writeChallenge(w, "Bearer")
		return
	}
	p, _, err := s.authz.Authenticate(r.Context(), token)
	if errors.Is(err, auth.ErrUnauthenticated) {
		writeChallenge(w, "Bearer")
		return
	} else if err != nil {
		logutil.Acquire(r.Context(), "auth.api").Error().Err(err).Msg("Unable to verify token")
		writeError(w, http.StatusInternalServerError, "unable to process request")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "valid",
		"user": map[string]interface{}{
			"email":     p.Email,
			"role":      string(p.Role),
			"is_active": p.IsActive,
		},
	})
}

func principalJSON(p *auth.Principal) principalResponse {
	return principalResponse{
		ID:       p.ID,
		Email:    p.Email,
		Role:     string(p.Role),
		IsActive: p.IsActive,
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	buf, err := json.Marshal(body)
	if err != nil {
		http.Error(w, "unable to encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
