package handlers

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"contacts-service/auth"
	"contacts-service/avatar"
	"contacts-service/config"
	"contacts-service/email"
	"contacts-service/httperr"
	"contacts-service/models"
	"contacts-service/store"
	"contacts-service/validation"
)

const maxAvatarUploadBytes = 10 << 20

// AuthHandler implements the identity workflow: registration, email
// verification, login, logout, profile queries and self-updates.
type AuthHandler struct {
	users    *store.UserStore
	sessions *auth.SessionManager
	mail     email.Sender
	avatars  *avatar.Processor
	cfg      *config.Config
}

func NewAuthHandler(users *store.UserStore, sessions *auth.SessionManager, mail email.Sender, avatars *avatar.Processor, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		users:    users,
		sessions: sessions,
		mail:     mail,
		avatars:  avatars,
		cfg:      cfg,
	}
}

// Register handles POST /users/register.
func (h *AuthHandler) Register(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	fields, verr := validation.Register.Validate(body)
	if verr != nil {
		respondError(ctx, w, verr)
		return
	}

	emailAddr := fields["email"].(string)

	existing, err := h.users.GetByEmail(ctx, emailAddr)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	if existing != nil {
		respondError(ctx, w, httperr.Conflict("Email in use"))
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(fields["password"].(string)), bcrypt.DefaultCost)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	user := &models.User{
		Name:         fields["name"].(string),
		Email:        emailAddr,
		Password:     string(hashed),
		Subscription: models.SubscriptionStarter,
		AvatarURL:    avatar.GravatarURL(emailAddr),
		Verified:     !h.cfg.VerificationEnabled,
	}
	if h.cfg.VerificationEnabled {
		user.VerificationToken = sql.NullString{String: uuid.New().String(), Valid: true}
	}

	if err := h.users.Create(ctx, user); err != nil {
		respondError(ctx, w, err)
		return
	}

	if h.cfg.VerificationEnabled {
		h.dispatchVerificationEmail(user.Email, user.VerificationToken.String)
	}

	logRequest(ctx, "info", "User registered", zap.String("user_id", user.ID))

	respondJSON(w, http.StatusCreated, user.Profile())
}

// Verify handles GET /users/verify/{verificationToken}. A consumed token
// no longer matches any user, so repeating the call returns 404.
func (h *AuthHandler) Verify(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	token := mux.Vars(r)["verificationToken"]

	user, err := h.users.GetByVerificationToken(ctx, token)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	if user == nil {
		respondError(ctx, w, httperr.NotFound("User not found"))
		return
	}

	if err := h.users.MarkVerified(ctx, user.ID); err != nil {
		respondError(ctx, w, err)
		return
	}

	logRequest(ctx, "info", "Email verified", zap.String("user_id", user.ID))

	respondJSON(w, http.StatusOK, map[string]string{"message": "Verification successful"})
}

// ResendVerification handles POST /users/verify. The existing token is
// re-sent unchanged.
func (h *AuthHandler) ResendVerification(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	fields, verr := validation.ResendVerification.Validate(body)
	if verr != nil {
		respondError(ctx, w, verr)
		return
	}

	user, err := h.users.GetByEmail(ctx, fields["email"].(string))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	if user == nil {
		respondError(ctx, w, httperr.NotFound("User not found"))
		return
	}
	if user.Verified {
		respondError(ctx, w, httperr.BadRequest("Verification has already been passed"))
		return
	}

	h.dispatchVerificationEmail(user.Email, user.VerificationToken.String)

	respondJSON(w, http.StatusOK, map[string]string{"message": "Verification email sent"})
}

// Login handles POST /users/login. Unknown email and wrong password are
// indistinguishable to the caller.
func (h *AuthHandler) Login(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	fields, verr := validation.Login.Validate(body)
	if verr != nil {
		respondError(ctx, w, verr)
		return
	}

	user, err := h.users.GetByEmail(ctx, fields["email"].(string))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	if user == nil {
		respondError(ctx, w, httperr.Unauthorized("Email or password is wrong"))
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(fields["password"].(string))); err != nil {
		respondError(ctx, w, httperr.Unauthorized("Email or password is wrong"))
		return
	}

	if h.cfg.VerificationEnabled && !user.Verified {
		respondError(ctx, w, httperr.Unauthorized("Email not verified"))
		return
	}

	token, err := h.sessions.Issue(ctx, user)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	logRequest(ctx, "info", "User logged in", zap.String("user_id", user.ID))

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"user":  user.LoginUser(),
	})
}

// Current handles GET /users/current.
func (h *AuthHandler) Current(ctx context.Context, w http.ResponseWriter, r *http.Request, user *models.User) {
	respondJSON(w, http.StatusOK, user.Profile())
}

// UpdateSubscription handles PATCH /users.
func (h *AuthHandler) UpdateSubscription(ctx context.Context, w http.ResponseWriter, r *http.Request, user *models.User) {
	body, _ := io.ReadAll(r.Body)
	fields, verr := validation.Subscription.Validate(body)
	if verr != nil {
		respondError(ctx, w, verr)
		return
	}

	subscription := fields["subscription"].(string)
	if err := h.users.SetSubscription(ctx, user.ID, subscription); err != nil {
		respondError(ctx, w, err)
		return
	}

	logRequest(ctx, "info", "Subscription updated",
		zap.String("user_id", user.ID), zap.String("subscription", subscription))

	respondJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Subscription successfully updated to %q", subscription),
	})
}

// Logout handles POST /users/logout. The token stops resolving
// immediately; a second logout with the same token is already a 401.
func (h *AuthHandler) Logout(ctx context.Context, w http.ResponseWriter, r *http.Request, user *models.User) {
	if err := h.sessions.Revoke(ctx, user); err != nil {
		respondError(ctx, w, err)
		return
	}

	logRequest(ctx, "info", "User logged out", zap.String("user_id", user.ID))

	respondJSON(w, http.StatusOK, map[string]string{"message": "Successfully logout"})
}

// UpdateAvatar handles PATCH /users/avatars (multipart field "avatar").
func (h *AuthHandler) UpdateAvatar(ctx context.Context, w http.ResponseWriter, r *http.Request, user *models.User) {
	if err := r.ParseMultipartForm(maxAvatarUploadBytes); err != nil {
		respondError(ctx, w, httperr.BadRequest("Invalid multipart form"))
		return
	}

	file, header, err := r.FormFile("avatar")
	if err != nil {
		respondError(ctx, w, httperr.BadRequest("Missing file avatar"))
		return
	}
	defer file.Close()

	avatarURL, err := h.avatars.Save(user.ID, header.Filename, file)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	if err := h.users.SetAvatarURL(ctx, user.ID, avatarURL); err != nil {
		respondError(ctx, w, err)
		return
	}

	logRequest(ctx, "info", "Avatar updated", zap.String("user_id", user.ID))

	respondJSON(w, http.StatusOK, map[string]string{
		"avatarUrl": avatarURL,
		"message":   "Avatar successfully changed",
	})
}

// dispatchVerificationEmail delivers mail without blocking or failing the
// request; errors are logged only.
func (h *AuthHandler) dispatchVerificationEmail(to, token string) {
	subject, content := email.VerificationMessage(h.cfg.BaseURL, token)
	go func() {
		if err := h.mail.Send(context.Background(), to, subject, content); err != nil {
			logRequest(context.Background(), "error", "Failed to send verification email",
				zap.String("email", to), zap.Error(err))
		}
	}()
}
