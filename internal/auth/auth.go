package auth

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/devpulse/devpulse-api/internal/config"
	"github.com/devpulse/devpulse-api/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const TokenDuration = 24 * time.Hour

type AuthHandler struct {
	cfg *config.Config
	db  *gorm.DB
}

func NewAuthHandler(cfg *config.Config, db *gorm.DB) *AuthHandler {
	return &AuthHandler{cfg: cfg, db: db}
}

type UserResponse struct {
	ID             uint   `json:"id"`
	Username       string `json:"username"`
	Email          string `json:"email"`
	GithubUsername string `json:"github_username,omitempty"`
	JiraAccountID  string `json:"jira_account_id,omitempty"`
}

func userResponse(user models.User) UserResponse {
	return UserResponse{
		ID:             user.ID,
		Username:       user.Username,
		Email:          user.Email,
		GithubUsername: user.GithubUsername,
		JiraAccountID:  user.JiraAccountID,
	}
}

type RegisterRequest struct {
	Body struct {
		Username       string `json:"username" doc:"Unique display name" required:"true"`
		Email          string `json:"email" format:"email" required:"true"`
		Password       string `json:"password" minLength:"8" required:"true"`
		GithubUsername string `json:"github_username,omitempty" doc:"Linked GitHub login"`
		JiraAccountID  string `json:"jira_account_id,omitempty" doc:"Linked Jira account id"`
	}
}

type AuthResponse struct {
	SetCookie http.Cookie `header:"Set-Cookie"`
	Body      struct {
		Token string       `json:"token"`
		User  UserResponse `json:"user"`
	}
}

func (h *AuthHandler) HandleRegister(ctx context.Context, input *RegisterRequest) (*AuthResponse, error) {
	var existing models.User
	err := h.db.Where("email = ? OR username = ?", input.Body.Email, input.Body.Username).
		First(&existing).Error
	if err == nil {
		return nil, huma.Error409Conflict("User already exists with this email or username")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, huma.Error500InternalServerError("Database error: " + err.Error())
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Body.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to hash password")
	}

	user := models.User{
		Username:       input.Body.Username,
		Email:          input.Body.Email,
		PasswordHash:   string(hash),
		GithubUsername: input.Body.GithubUsername,
		JiraAccountID:  input.Body.JiraAccountID,
	}
	if err := h.db.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, huma.Error409Conflict("User already exists with this email or username")
		}
		return nil, huma.Error500InternalServerError("Failed to create user: " + err.Error())
	}

	return h.authResponse(user)
}

type LoginRequest struct {
	Body struct {
		Email    string `json:"email" format:"email" required:"true"`
		Password string `json:"password" required:"true"`
	}
}

func (h *AuthHandler) HandleLogin(ctx context.Context, input *LoginRequest) (*AuthResponse, error) {
	var user models.User
	if err := h.db.Where("email = ?", input.Body.Email).First(&user).Error; err != nil {
		return nil, huma.Error401Unauthorized("Invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Body.Password)); err != nil {
		return nil, huma.Error401Unauthorized("Invalid credentials")
	}

	return h.authResponse(user)
}

type ProfileResponse struct {
	Body UserResponse
}

func (h *AuthHandler) HandleProfile(ctx context.Context, input *struct{}) (*ProfileResponse, error) {
	userID, ok := ctx.Value(UserIDKey).(uint)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}

	var user models.User
	if err := h.db.First(&user, userID).Error; err != nil {
		return nil, huma.Error404NotFound("User not found")
	}

	return &ProfileResponse{Body: userResponse(user)}, nil
}

type UpdateProfileRequest struct {
	Body struct {
		GithubUsername *string `json:"github_username,omitempty" doc:"Linked GitHub login"`
		JiraAccountID  *string `json:"jira_account_id,omitempty" doc:"Linked Jira account id"`
	}
}

// HandleUpdateProfile relinks external account identifiers. Everything else
// about a user is immutable after registration.
func (h *AuthHandler) HandleUpdateProfile(ctx context.Context, input *UpdateProfileRequest) (*ProfileResponse, error) {
	userID, ok := ctx.Value(UserIDKey).(uint)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}

	var user models.User
	if err := h.db.First(&user, userID).Error; err != nil {
		return nil, huma.Error404NotFound("User not found")
	}

	if input.Body.GithubUsername != nil {
		user.GithubUsername = *input.Body.GithubUsername
	}
	if input.Body.JiraAccountID != nil {
		user.JiraAccountID = *input.Body.JiraAccountID
	}

	if err := h.db.Save(&user).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to update user: " + err.Error())
	}

	return &ProfileResponse{Body: userResponse(user)}, nil
}

func (h *AuthHandler) authResponse(user models.User) (*AuthResponse, error) {
	token, err := h.GenerateToken(user.ID)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to generate token")
	}

	res := &AuthResponse{
		SetCookie: http.Cookie{
			Name:     "auth_token",
			Value:    token,
			Expires:  time.Now().Add(TokenDuration),
			HttpOnly: true,
			Path:     "/",
		},
	}
	res.Body.Token = token
	res.Body.User = userResponse(user)
	return res, nil
}

func (h *AuthHandler) GenerateToken(userID uint) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(TokenDuration).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.cfg.JWTSecret))
}
