package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/coursecraft/coursecraft-api/internal/domain"
	"github.com/coursecraft/coursecraft-api/internal/log"
	"github.com/coursecraft/coursecraft-api/internal/mail"
	"github.com/coursecraft/coursecraft-api/internal/queue"
	"github.com/coursecraft/coursecraft-api/internal/security"
)

type registerReq struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register godoc
// @Summary Register user
// @Tags auth
// @Accept json
// @Produce json
// @Param payload body registerReq true "register"
// @Success 201
// @Failure 400 {object} map[string]any
// @Router /api/v1/auth/register [post]
func (h *Handler) Register(c *gin.Context) {
	var in registerReq
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, "invalid json")
		return
	}
	in.Name = strings.TrimSpace(in.Name)
	email := strings.ToLower(strings.TrimSpace(in.Email))

	var errs []fieldError
	if in.Name == "" {
		errs = append(errs, fieldError{"name", "Name is required"})
	}
	if !emailRe.MatchString(email) {
		errs = append(errs, fieldError{"email", "Please include a valid email"})
	}
	if !security.ValidPassword(in.Password) {
		errs = append(errs, fieldError{"password", "Password must be at least 6 characters and contain one uppercase, one lowercase, one number, and one special character"})
	}
	if len(errs) > 0 {
		failFields(c, errs)
		return
	}

	hash, err := security.HashPassword(in.Password)
	if err != nil {
		fail(c, http.StatusInternalServerError, "Server error")
		return
	}
	u := &domain.User{Name: in.Name, Email: email, PasswordHash: hash}
	if err := h.Store.CreateUser(c.Request.Context(), u); err != nil {
		if err == domain.ErrDuplicateEmail {
			fail(c, http.StatusBadRequest, "Email already exists")
			return
		}
		fail(c, http.StatusInternalServerError, "Server error")
		return
	}

	// Issue the verification token; roll it back if the mail never leaves.
	raw, hashed, err := security.NewOneTimeToken()
	if err != nil {
		fail(c, http.StatusInternalServerError, "Server error")
		return
	}
	exp := time.Now().Add(security.VerifyTokenTTL).UTC()
	u.VerifyToken = hashed
	u.VerifyTokenExpire = &exp
	if err := h.Store.UpdateUser(c.Request.Context(), u); err != nil {
		fail(c, http.StatusInternalServerError, "Server error")
		return
	}

	link := h.FrontendURL + "/api/v1/auth/verifyemail/" + raw
	body, err := mail.RenderVerification(link)
	if err == nil {
		err = h.Mailer.Send(u.Email, "Email Verification Token", body)
	}
	if err != nil {
		log.Errorf("verification mail to %s: %v", u.Email, err)
		u.VerifyToken = ""
		u.VerifyTokenExpire = nil
		if uerr := h.Store.UpdateUser(c.Request.Context(), u); uerr != nil {
			log.Errorf("rollback verify token: %v", uerr)
		}
		fail(c, http.StatusInternalServerError, "Email could not be sent")
		return
	}

	go h.Events.Publish(context.Background(), h.Exchange, queue.KeyUserRegistered,
		queue.UserRegistered{UserID: u.ID, Email: u.Email, Name: u.Name}, requestID(c))

	h.sendTokenResponse(c, u, http.StatusCreated)
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login godoc
// @Summary Login
// @Tags auth
// @Accept json
// @Produce json
// @Param payload body loginReq true "login"
// @Success 200
// @Failure 401 {object} map[string]any
// @Router /api/v1/auth/login [post]
func (h *Handler) Login(c *gin.Context) {
	var in loginReq
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, "invalid json")
		return
	}
	if in.Email == "" || in.Password == "" {
		fail(c, http.StatusBadRequest, "Please provide an email and password")
		return
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))

	// Same answer whether the user is missing or the password is wrong.
	u, err := h.Store.FindUserByEmail(c.Request.Context(), email)
	if err != nil || u == nil || !security.CheckPassword(u.PasswordHash, in.Password) {
		fail(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if h.RequireVerified && !u.Verified {
		fail(c, http.StatusUnauthorized, "Email not verified")
		return
	}

	go h.Events.Publish(context.Background(), h.Exchange, queue.KeyUserLoggedIn,
		queue.UserLoggedIn{UserID: u.ID, Email: u.Email}, requestID(c))

	h.sendTokenResponse(c, u, http.StatusOK)
}

type googleLoginReq struct {
	Token string `json:"token"`
}

// GoogleLogin accepts the id_token a browser client obtained from Google and
// signs the user in, creating the account on first sight.
func (h *Handler) GoogleLogin(c *gin.Context) {
	var in googleLoginReq
	if err := c.ShouldBindJSON(&in); err != nil || in.Token == "" {
		fail(c, http.StatusBadRequest, "Token is required")
		return
	}
	gu, err := h.Google.VerifyIDToken(in.Token)
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid Google token")
		return
	}
	u, err := h.upsertGoogleUser(c, gu.Sub, gu.Email, gu.Name)
	if err != nil {
		fail(c, http.StatusInternalServerError, "Server error")
		return
	}
	h.sendTokenResponse(c, u, http.StatusOK)
}

// GoogleRedirect starts the auth-code flow: 302 to the consent screen with an
// HMAC-signed state.
func (h *Handler) GoogleRedirect(c *gin.Context) {
	state := h.Google.MakeState(uuid.NewString())
	c.Redirect(http.StatusFound, h.Google.AuthURL(state))
}

func (h *Handler) GoogleCallback(c *gin.Context) {
	if !h.Google.VerifyState(c.Query("state")) {
		fail(c, http.StatusBadRequest, "Invalid state")
		return
	}
	gu, err := h.Google.ExchangeAndVerify(c.Request.Context(), c.Query("code"))
	if err != nil {
		log.Errorf("google exchange: %v", err)
		fail(c, http.StatusInternalServerError, "Google verification failed")
		return
	}
	u, err := h.upsertGoogleUser(c, gu.Sub, gu.Email, gu.Name)
	if err != nil {
		fail(c, http.StatusInternalServerError, "Server error")
		return
	}
	h.sendTokenResponse(c, u, http.StatusOK)
}

// upsertGoogleUser finds the account by Google id, links an existing local
// account with the same email, or creates a fresh verified user.
func (h *Handler) upsertGoogleUser(c *gin.Context, sub, email, name string) (*domain.User, error) {
	ctx := c.Request.Context()
	u, err := h.Store.FindUserByGoogleID(ctx, sub)
	if err == nil {
		return u, nil
	}
	if err != domain.ErrNotFound {
		return nil, err
	}
	if u, err = h.Store.FindUserByEmail(ctx, strings.ToLower(email)); err == nil {
		u.GoogleID = sub
		u.Verified = true
		if err := h.Store.UpdateUser(ctx, u); err != nil {
			return nil, err
		}
		return u, nil
	}
	if err != domain.ErrNotFound {
		return nil, err
	}
	u = &domain.User{
		Name:     name,
		Email:    strings.ToLower(email),
		GoogleID: sub,
		Verified: true,
	}
	if err := h.Store.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	go h.Events.Publish(context.Background(), h.Exchange, queue.KeyUserRegistered,
		queue.UserRegistered{UserID: u.ID, Email: u.Email, Name: u.Name}, requestID(c))
	return u, nil
}

// Me godoc
// @Summary Current user
// @Tags auth
// @Security BearerAuth
// @Produce json
// @Success 200
// @Failure 401 {object} map[string]any
// @Router /api/v1/auth/me [get]
func (h *Handler) Me(c *gin.Context) {
	u := currentUser(c)
	c.JSON(http.StatusOK, gin.H{"success": true, "data": u})
}

type updateDetailsReq struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (h *Handler) UpdateDetails(c *gin.Context) {
	var in updateDetailsReq
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, "invalid json")
		return
	}
	u := currentUser(c)
	if name := strings.TrimSpace(in.Name); name != "" {
		u.Name = name
	}
	if email := strings.ToLower(strings.TrimSpace(in.Email)); email != "" {
		if !emailRe.MatchString(email) {
			failFields(c, []fieldError{{"email", "Please include a valid email"}})
			return
		}
		u.Email = email
	}
	if err := h.Store.UpdateUser(c.Request.Context(), u); err != nil {
		if err == domain.ErrDuplicateEmail {
			fail(c, http.StatusBadRequest, "Email already exists")
			return
		}
		fail(c, http.StatusInternalServerError, "Server error")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": u})
}

type updatePasswordReq struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (h *Handler) UpdatePassword(c *gin.Context) {
	var in updatePasswordReq
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, "invalid json")
		return
	}
	u := currentUser(c)
	if !security.CheckPassword(u.PasswordHash, in.CurrentPassword) {
		fail(c, http.StatusUnauthorized, "Password is incorrect")
		return
	}
	if !security.ValidPassword(in.NewPassword) {
		failFields(c, []fieldError{{"newPassword", "Password must be at least 6 characters and contain one uppercase, one lowercase, one number, and one special character"}})
		return
	}
	hash, err := security.HashPassword(in.NewPassword)
	if err != nil {
		fail(c, http.StatusInternalServerError, "Server error")
		return
	}
	u.PasswordHash = hash
	if err := h.Store.UpdateUser(c.Request.Context(), u); err != nil {
		fail(c, http.StatusInternalServerError, "Server error")
		return
	}
	h.sendTokenResponse(c, u, http.StatusOK)
}

type forgotPasswordReq struct {
	Email string `json:"email"`
}

// ForgotPassword answers 404 for unknown emails, which leaks account
// existence. That mirrors the original behaviour and stays until a product
// decision says otherwise.
func (h *Handler) ForgotPassword(c *gin.Context) {
	var in forgotPasswordReq
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, "invalid json")
		return
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if !emailRe.MatchString(email) {
		failFields(c, []fieldError{{"email", "Please include a valid email"}})
		return
	}
	u, err := h.Store.FindUserByEmail(c.Request.Context(), email)
	if err != nil || u == nil {
		fail(c, http.StatusNotFound, "No user with that email")
		return
	}

	raw, hashed, err := security.NewOneTimeToken()
	if err != nil {
		fail(c, http.StatusInternalServerError, "Server error")
		return
	}
	exp := time.Now().Add(security.ResetTokenTTL).UTC()
	u.ResetToken = hashed
	u.ResetTokenExpire = &exp
	if err := h.Store.UpdateUser(c.Request.Context(), u); err != nil {
		fail(c, http.StatusInternalServerError, "Server error")
		return
	}

	link := h.FrontendURL + "/api/v1/auth/resetpassword/" + raw
	body, err := mail.RenderPasswordReset(link)
	if err == nil {
		err = h.Mailer.Send(u.Email, "Password reset token", body)
	}
	if err != nil {
		log.Errorf("reset mail to %s: %v", u.Email, err)
		u.ResetToken = ""
		u.ResetTokenExpire = nil
		if uerr := h.Store.UpdateUser(c.Request.Context(), u); uerr != nil {
			log.Errorf("rollback reset token: %v", uerr)
		}
		fail(c, http.StatusInternalServerError, "Email could not be sent")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": "Email sent"})
}

type resetPasswordReq struct {
	Password string `json:"password"`
}

func (h *Handler) ResetPassword(c *gin.Context) {
	var in resetPasswordReq
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, "invalid json")
		return
	}
	hashed := security.HashToken(c.Param("token"))
	u, err := h.Store.FindUserByResetToken(c.Request.Context(), hashed, time.Now().UTC())
	if err != nil || u == nil {
		fail(c, http.StatusBadRequest, "Invalid token")
		return
	}
	if !security.ValidPassword(in.Password) {
		failFields(c, []fieldError{{"password", "Password must be at least 6 characters and contain one uppercase, one lowercase, one number, and one special character"}})
		return
	}
	hash, err := security.HashPassword(in.Password)
	if err != nil {
		fail(c, http.StatusInternalServerError, "Server error")
		return
	}
	// Single use: consuming the token clears it.
	u.PasswordHash = hash
	u.ResetToken = ""
	u.ResetTokenExpire = nil
	if err := h.Store.UpdateUser(c.Request.Context(), u); err != nil {
		fail(c, http.StatusInternalServerError, "Server error")
		return
	}
	h.sendTokenResponse(c, u, http.StatusOK)
}

func (h *Handler) VerifyEmail(c *gin.Context) {
	hashed := security.HashToken(c.Param("token"))
	u, err := h.Store.FindUserByVerifyToken(c.Request.Context(), hashed, time.Now().UTC())
	if err != nil || u == nil {
		fail(c, http.StatusBadRequest, "Invalid token")
		return
	}
	u.Verified = true
	u.VerifyToken = ""
	u.VerifyTokenExpire = nil
	if err := h.Store.UpdateUser(c.Request.Context(), u); err != nil {
		fail(c, http.StatusInternalServerError, "Server error")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": "Email verified successfully. You can now login."})
}

// Logout clears the cookie; the bearer token stays valid until expiry, the
// client is expected to discard it.
func (h *Handler) Logout(c *gin.Context) {
	c.SetCookie("token", "none", 10, "/", "", !h.Dev, true)
	c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{}})
}

// ListUsers is the admin-only surface.
func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.Store.ListUsers(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, "Server error")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(users), "data": users})
}

func (h *Handler) Health(c *gin.Context) {
	if err := h.Store.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(h.startedAt).String(),
	})
}
