package handlers

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/portfoliofuturo/portfolio-api/internal/config"
	"github.com/portfoliofuturo/portfolio-api/internal/i18n"
	"github.com/portfoliofuturo/portfolio-api/internal/middleware"
	"github.com/portfoliofuturo/portfolio-api/internal/models"
	"github.com/portfoliofuturo/portfolio-api/internal/oauth"
	"github.com/portfoliofuturo/portfolio-api/internal/services"
	"github.com/portfoliofuturo/portfolio-api/pkg/dto"
	"golang.org/x/text/language"
)

const (
	stateTTL    = 10 * time.Minute
	authCodeTTL = 30 * time.Second
)

type AuthHandler struct {
	cfg         *config.Config
	providers   map[string]oauth.Provider
	identities  IdentityServiceInterface
	provisioner ProvisionerInterface
	limiter     SignInLimiterInterface
	localizer   *i18n.Localizer
	states      sync.Map
	authCodes   sync.Map
}

type stateData struct {
	expiresAt time.Time
}

type authCodeData struct {
	session   *models.Session
	expiresAt time.Time
}

// NewAuthHandler wires the credential and OAuth routes. limiter may be nil,
// which disables sign-in throttling.
func NewAuthHandler(
	cfg *config.Config,
	identities IdentityServiceInterface,
	provisioner ProvisionerInterface,
	limiter SignInLimiterInterface,
	localizer *i18n.Localizer,
) *AuthHandler {
	h := &AuthHandler{
		cfg:         cfg,
		providers:   oauth.Providers(cfg),
		identities:  identities,
		provisioner: provisioner,
		limiter:     limiter,
		localizer:   localizer,
	}

	go h.cleanupStates()

	return h
}

func (h *AuthHandler) cleanupStates() {
	ticker := time.NewTicker(1 * time.Minute)
	for range ticker.C {
		now := time.Now()
		h.states.Range(func(key, value any) bool {
			if sd, ok := value.(stateData); ok && now.After(sd.expiresAt) {
				h.states.Delete(key)
			}
			return true
		})
		h.authCodes.Range(func(key, value any) bool {
			if acd, ok := value.(authCodeData); ok && now.After(acd.expiresAt) {
				h.authCodes.Delete(key)
			}
			return true
		})
	}
}

func (h *AuthHandler) locale(c *drift.Context) language.Tag {
	return h.localizer.Resolve(c.GetHeader("Accept-Language"))
}

func (h *AuthHandler) fail(c *drift.Context, status int, msg string, notice dto.Notice) {
	_ = c.JSON(status, dto.ErrorResponse{Error: msg, Notice: &notice})
}

func (h *AuthHandler) SignUp(c *drift.Context) {
	tag := h.locale(c)

	var req dto.SignUpRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)

	if err := validate.Struct(req); err != nil {
		msg := validationMessage(err)
		h.fail(c, 400, msg, h.localizer.Notice(tag, i18n.SignUpFailed, msg))
		return
	}

	ctx := c.Request.Context()

	res, err := h.provisioner.Provision(ctx, services.SignUpInput{
		Email:       req.Email,
		Password:    req.Password,
		Name:        req.Name,
		Role:        models.Role(req.Role),
		CompanyName: req.CompanyName,
		Sector:      req.Sector,
		City:        req.City,
		State:       strings.ToUpper(req.State),
		Description: req.Description,
		SchoolName:  req.SchoolName,
		Website:     req.Website,
		Bio:         req.Bio,
		SchoolCity:  req.SchoolCity,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmailTaken):
			h.fail(c, 409, err.Error(), h.localizer.Notice(tag, i18n.SignUpFailed, err.Error()))
		case errors.Is(err, services.ErrWeakPassword):
			h.fail(c, 422, err.Error(), h.localizer.Notice(tag, i18n.SignUpFailed, err.Error()))
		case errors.Is(err, services.ErrProvisioningRolledBack), errors.Is(err, services.ErrNeedsManualRepair):
			log.Printf("Sign-up for %s did not complete: %v", req.Email, err)
			h.fail(c, 500, "failed to create account", h.localizer.Notice(tag, i18n.ProvisioningFailed))
		default:
			log.Printf("Sign-up for %s failed: %v", req.Email, err)
			h.fail(c, 500, "failed to create account", h.localizer.Notice(tag, i18n.SignUpFailed, "failed to create account"))
		}
		return
	}

	_ = c.JSON(201, dto.SignUpResponse{
		User:    res.Identity.ToResponse(),
		Outcome: string(res.Outcome),
		Notice:  h.localizer.Notice(tag, i18n.SignUpSucceeded),
	})
}

func (h *AuthHandler) SignIn(c *drift.Context) {
	tag := h.locale(c)

	var req dto.SignInRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	if err := validate.Struct(req); err != nil {
		msg := validationMessage(err)
		h.fail(c, 400, msg, h.localizer.Notice(tag, i18n.SignInFailed, msg))
		return
	}

	ctx := c.Request.Context()

	if h.limiter != nil {
		allowed, retryAfter, err := h.limiter.Allow(ctx, req.Email)
		if err != nil {
			log.Printf("Sign-in throttle check failed for %s: %v", req.Email, err)
		}
		if !allowed {
			seconds := int(math.Ceil(retryAfter.Seconds()))
			c.Response.Header().Set("Retry-After", strconv.Itoa(seconds))
			h.fail(c, 429, "too many sign-in attempts", h.localizer.Notice(tag, i18n.TooManyAttempts, seconds))
			return
		}
	}

	sess, err := h.identities.VerifyCredential(ctx, req.Email, req.Password)
	if err != nil {
		status := 500
		msg := "failed to sign in"
		switch {
		case errors.Is(err, services.ErrInvalidCredentials):
			status, msg = 400, err.Error()
		case errors.Is(err, services.ErrEmailNotConfirmed):
			status, msg = 403, err.Error()
		default:
			log.Printf("Sign-in for %s failed: %v", req.Email, err)
		}
		h.fail(c, status, msg, h.localizer.Notice(tag, i18n.SignInFailed, msg))
		return
	}

	if h.limiter != nil {
		if err := h.limiter.Reset(ctx, req.Email); err != nil {
			log.Printf("Failed to reset sign-in throttle for %s: %v", req.Email, err)
		}
	}

	_ = c.JSON(200, dto.SignInResponse{
		Session: sess.ToResponse(),
		Notice:  h.localizer.Notice(tag, i18n.SignInSucceeded),
	})
}

func (h *AuthHandler) SignOut(c *drift.Context) {
	tag := h.locale(c)

	identityID := middleware.GetIdentityID(c)
	sessionID := middleware.GetSessionID(c)
	if identityID == uuid.Nil || sessionID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	if err := h.identities.SignOut(c.Request.Context(), identityID, sessionID); err != nil {
		log.Printf("Sign-out of session %s for %s failed: %v", sessionID, middleware.GetEmail(c), err)
		h.fail(c, 500, "failed to sign out", h.localizer.Notice(tag, i18n.SignOutFailed, "failed to sign out"))
		return
	}

	_ = c.JSON(200, dto.SignOutResponse{
		Notice: h.localizer.Notice(tag, i18n.SignOutSucceeded),
	})
}

func (h *AuthHandler) RefreshToken(c *drift.Context) {
	var req dto.RefreshTokenRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	if req.RefreshToken == "" {
		c.BadRequest("refresh_token is required")
		return
	}

	sess, err := h.identities.RefreshSession(c.Request.Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, services.ErrInvalidRefreshToken) {
			c.Unauthorized(err.Error())
			return
		}
		log.Printf("Token refresh failed: %v", err)
		c.InternalServerError("failed to refresh session")
		return
	}

	_ = c.JSON(200, dto.SessionResponse{Session: sess.ToResponse()})
}

// GetSession returns the caller's live session, or a null session once it
// has been signed out or has expired.
func (h *AuthHandler) GetSession(c *drift.Context) {
	sessionID := middleware.GetSessionID(c)
	if sessionID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	sess, err := h.identities.GetSession(c.Request.Context(), sessionID)
	if err != nil {
		log.Printf("Session lookup for %s failed: %v", sessionID, err)
		c.InternalServerError("failed to get session")
		return
	}

	_ = c.JSON(200, dto.SessionResponse{Session: sess.ToResponse()})
}

// ConfirmEmail consumes the link mailed at sign-up and sends the browser to
// redirect_to, which must point at the configured site.
func (h *AuthHandler) ConfirmEmail(c *drift.Context) {
	target := h.confirmRedirect(c.QueryParam("redirect_to"))

	token := c.QueryParam("token")
	if token == "" {
		h.redirect(c, withQuery(target, "error", "missing confirmation token"))
		return
	}

	if _, err := h.identities.ConfirmEmail(c.Request.Context(), token); err != nil {
		msg := err.Error()
		if !errors.Is(err, services.ErrInvalidConfirmationToken) {
			log.Printf("Email confirmation failed: %v", err)
			msg = "failed to confirm email"
		}
		h.redirect(c, withQuery(target, "error", msg))
		return
	}

	h.redirect(c, withQuery(target, "confirmed", "true"))
}

func (h *AuthHandler) confirmRedirect(redirectTo string) string {
	site := strings.TrimRight(h.cfg.SiteURL, "/")
	if redirectTo == "" || (redirectTo != site && !strings.HasPrefix(redirectTo, site+"/")) {
		return site
	}
	return redirectTo
}

func (h *AuthHandler) redirect(c *drift.Context, target string) {
	http.Redirect(c.Response, c.Request, target, http.StatusFound)
}

func withQuery(rawURL, key, value string) string {
	sep := "?"
	if strings.Contains(rawURL, "?") {
		sep = "&"
	}
	return rawURL + sep + url.QueryEscape(key) + "=" + url.QueryEscape(value)
}

func (h *AuthHandler) GetConsentURL(c *drift.Context) {
	provider := c.Param("provider")

	p, ok := h.providers[provider]
	if !ok {
		c.BadRequest("unsupported provider: " + provider)
		return
	}

	state, err := oauth.GenerateState()
	if err != nil {
		c.InternalServerError("failed to generate state")
		return
	}

	h.states.Store(state, stateData{expiresAt: time.Now().Add(stateTTL)})

	_ = c.JSON(200, dto.ConsentURLResponse{
		URL: p.GetConsentURL(state),
	})
}

// Callback finishes an OAuth round trip. Only identities that already
// signed up can sign in this way; the session is handed to the frontend
// through a short-lived one-time code.
func (h *AuthHandler) Callback(c *drift.Context) {
	tag := h.locale(c)
	provider := c.Param("provider")

	p, ok := h.providers[provider]
	if !ok {
		h.redirectWithError(c, tag, "unsupported provider")
		return
	}

	state := c.QueryParam("state")
	if state == "" {
		h.redirectWithError(c, tag, "missing state parameter")
		return
	}

	sd, ok := h.states.LoadAndDelete(state)
	if !ok {
		h.redirectWithError(c, tag, "invalid or expired state")
		return
	}

	if sdTyped, ok := sd.(stateData); !ok || time.Now().After(sdTyped.expiresAt) {
		h.redirectWithError(c, tag, "state expired")
		return
	}

	if errParam := c.QueryParam("error"); errParam != "" {
		h.redirectWithError(c, tag, errParam)
		return
	}

	code := c.QueryParam("code")
	if code == "" {
		h.redirectWithError(c, tag, "missing authorization code")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	userInfo, err := p.ExchangeCode(ctx, code)
	if err != nil {
		log.Printf("OAuth exchange with %s failed: %v", provider, err)
		h.redirectWithError(c, tag, "failed to exchange code")
		return
	}

	if !userInfo.Verified {
		h.redirectWithError(c, tag, services.ErrEmailNotConfirmed.Error())
		return
	}

	sess, err := h.identities.SignInExternal(ctx, userInfo)
	if err != nil {
		msg := err.Error()
		if !errors.Is(err, services.ErrIdentityNotFound) {
			log.Printf("OAuth sign-in for %s failed: %v", userInfo.Email, err)
			msg = "failed to sign in"
		}
		h.redirectWithError(c, tag, msg)
		return
	}

	authCode, err := oauth.GenerateState()
	if err != nil {
		h.redirectWithError(c, tag, "failed to generate auth code")
		return
	}

	h.authCodes.Store(authCode, authCodeData{
		session:   sess,
		expiresAt: time.Now().Add(authCodeTTL),
	})

	h.renderCallbackPage(c, withQuery(h.cfg.FrontendCallbackURL, "code", authCode),
		h.localizer.Notice(tag, i18n.SignInSucceeded), false)
}

func (h *AuthHandler) ExchangeCode(c *drift.Context) {
	tag := h.locale(c)

	var req dto.ExchangeCodeRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	if req.Code == "" {
		c.BadRequest("code is required")
		return
	}

	acd, ok := h.authCodes.LoadAndDelete(req.Code)
	if !ok {
		c.Unauthorized("invalid or expired code")
		return
	}

	codeData, ok := acd.(authCodeData)
	if !ok || time.Now().After(codeData.expiresAt) {
		c.Unauthorized("code expired")
		return
	}

	_ = c.JSON(200, dto.SignInResponse{
		Session: codeData.session.ToResponse(),
		Notice:  h.localizer.Notice(tag, i18n.SignInSucceeded),
	})
}

func (h *AuthHandler) redirectWithError(c *drift.Context, tag language.Tag, errMsg string) {
	h.renderCallbackPage(c, withQuery(h.cfg.FrontendCallbackURL, "error", errMsg),
		h.localizer.Notice(tag, i18n.SignInFailed, errMsg), true)
}

func (h *AuthHandler) renderCallbackPage(c *drift.Context, redirectURL string, notice dto.Notice, failed bool) {
	headingColor := "#111827"
	statusCode := 200
	if failed {
		headingColor = "#991b1b"
		statusCode = 400
	}

	page := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>%s</title>
    <style>
        body { font-family: system-ui, -apple-system, sans-serif; background: #f9fafb; color: #374151; margin: 0; padding: 40px 20px; }
        .container { max-width: 400px; margin: 0 auto; background: #fff; border: 1px solid #e5e7eb; border-radius: 8px; padding: 40px 32px; text-align: center; }
        h1 { font-size: 20px; font-weight: 600; color: %s; margin: 0 0 8px 0; }
        p { color: #6b7280; font-size: 14px; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1>%s</h1>
        <p>%s</p>
    </div>
    <script>
        window.location.href = %q;
    </script>
</body>
</html>`,
		html.EscapeString(notice.Title), headingColor,
		html.EscapeString(notice.Title), html.EscapeString(notice.Description),
		redirectURL)

	_ = c.HTML(statusCode, page)
}
