package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"loan-recovery/internal/api/handler/dto"
	"loan-recovery/internal/domain/agent"
	"loan-recovery/internal/domain/user"
	"loan-recovery/internal/pkg/apperrors"
)

type AuthHandler struct {
	users     user.Repository
	agents    agent.Service
	jwtSecret []byte
	tokenTTL  time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

func NewAuthHandler(users user.Repository, agents agent.Service, jwtSecret string, tokenTTL time.Duration, l *slog.Logger) *AuthHandler {
	return &AuthHandler{
		users:     users,
		agents:    agents,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
		logger:    l.With("component", "AuthHandler"),
		now:       time.Now,
	}
}

// Login exchanges credentials for a signed bearer token.
//
// @Summary Authenticate and obtain a token
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Credentials"
// @Success 200 {object} dto.Envelope
// @Failure 401 {object} dto.ErrorResponse "Invalid email or password"
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	u, err := h.users.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			// Same response as a bad password so emails cannot be enumerated.
			respondError(w, fmt.Errorf("%w: invalid email or password", apperrors.ErrUnauthorized))
			return
		}
		respondError(w, err)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		h.logger.WarnContext(r.Context(), "Failed login attempt", "email", req.Email)
		respondError(w, fmt.Errorf("%w: invalid email or password", apperrors.ErrUnauthorized))
		return
	}

	token, err := h.signToken(u)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to sign token", "error", err)
		respondError(w, fmt.Errorf("%w: could not issue token", apperrors.ErrInternalServer))
		return
	}

	respondJSON(w, http.StatusOK, dto.OK(dto.TokenResponse{
		Token: token,
		Role:  string(u.Role),
	}))
}

// Register creates a user account. An agent-role signup also creates the
// linked agent record so the new agent is immediately assignable.
//
// @Summary Register a new account
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body dto.RegisterRequest true "Registration payload"
// @Success 201 {object} dto.Envelope
// @Failure 400 {object} dto.ErrorResponse "Validation error or email already registered"
// @Router /auth/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	if _, err := h.users.GetUserByEmail(r.Context(), req.Email); err == nil {
		respondError(w, fmt.Errorf("%w: email is already registered", apperrors.ErrAlreadyExists))
		return
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		respondError(w, err)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to hash password", "error", err)
		respondError(w, fmt.Errorf("%w: could not process password", apperrors.ErrInternalServer))
		return
	}

	created, err := h.users.CreateUser(r.Context(), &user.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         user.Role(req.Role),
	})
	if err != nil {
		respondError(w, err)
		return
	}

	if created.Role == user.RoleAgent {
		if _, err := h.agents.CreateAgent(r.Context(), created.Name, created.Email, req.Phone, &created.ID); err != nil {
			h.logger.ErrorContext(r.Context(), "Failed to create agent record for new user",
				"userID", created.ID, "error", err)
			respondError(w, err)
			return
		}
	}

	h.logger.InfoContext(r.Context(), "User registered", "userID", created.ID, "role", created.Role)
	respondJSON(w, http.StatusCreated, dto.OKWithMessage(
		"User registered successfully",
		map[string]any{"user": dto.NewUserResponse(created)},
	))
}

func (h *AuthHandler) signToken(u *user.User) (string, error) {
	issuedAt := h.now()
	claims := jwt.MapClaims{
		"uid":   u.ID,
		"role":  string(u.Role),
		"email": u.Email,
		"iat":   issuedAt.Unix(),
		"exp":   issuedAt.Add(h.tokenTTL).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(h.jwtSecret)
}
