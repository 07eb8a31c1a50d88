package handlers

import (
	"encoding/base64"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	qrcode "github.com/skip2/go-qrcode"

	"blogpress/internal/middleware"
	"blogpress/internal/models"
	"blogpress/internal/render"
	"blogpress/internal/session"
	"blogpress/internal/store"
)

const (
	// totpIssuer labels the account in authenticator apps.
	totpIssuer = "Blogpress"

	// afterLoginPath is where a login without ?next= lands.
	afterLoginPath = "/dashboard/"

	msgInvalidLogin = "Please enter a correct email and password."
	msgInvalidCode  = "Invalid code. Please try again."
)

// Auth groups all authentication-related HTTP handlers.
type Auth struct {
	site
	userStore *store.UserStore
}

// NewAuth creates a new Auth handler group.
func NewAuth(renderer *render.Renderer, sessions *session.Store, nav NavCategories, userStore *store.UserStore) *Auth {
	return &Auth{
		site:      site{renderer: renderer, sessions: sessions, nav: nav},
		userStore: userStore,
	}
}

// LoginPage renders the login form. Fully logged-in users are sent on to
// their destination.
func (a *Auth) LoginPage(w http.ResponseWriter, r *http.Request) {
	next := middleware.SafeNext(r.URL.Query().Get("next"), "")

	sess := middleware.SessionFromCtx(r.Context())
	if sess != nil && sess.TwoFADone {
		http.Redirect(w, r, orDefault(next, afterLoginPath), http.StatusSeeOther)
		return
	}

	a.renderLogin(w, r, "", next, "")
}

// LoginSubmit checks the credentials and opens a session. Users with TOTP
// enabled must pass /login/2fa/ before the session is usable.
func (a *Auth) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.PostFormValue("email"))
	password := r.PostFormValue("password")
	next := middleware.SafeNext(r.PostFormValue("next"), "")

	user, err := a.userStore.FindByEmail(email)
	if err != nil {
		serverError(w, r, "login lookup failed", err)
		return
	}

	if user == nil || !a.userStore.CheckPassword(user, password) {
		slog.Info("login failed", "email", email)
		a.renderLogin(w, r, email, next, msgInvalidLogin)
		return
	}

	// Drop any half-finished session before issuing a new ID.
	if err := a.sessions.Destroy(r.Context(), w, r); err != nil {
		slog.Warn("destroy previous session failed", "error", err)
	}

	data := &session.Data{
		UserID:      user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Role:        string(user.Role),
		TwoFADone:   !user.Requires2FA(),
		Next:        next,
	}
	if _, err := a.sessions.Create(r.Context(), w, data); err != nil {
		serverError(w, r, "session create failed", err)
		return
	}

	if !data.TwoFADone {
		http.Redirect(w, r, middleware.TwoFAPath, http.StatusSeeOther)
		return
	}

	slog.Info("user logged in", "user_id", user.ID)
	http.Redirect(w, r, orDefault(next, afterLoginPath), http.StatusSeeOther)
}

// TwoFAVerifyPage renders the TOTP code form for the second login step.
func (a *Auth) TwoFAVerifyPage(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess.TwoFADone {
		http.Redirect(w, r, afterLoginPath, http.StatusSeeOther)
		return
	}

	a.page(w, r, http.StatusOK, "2fa_verify", &render.PageData{
		Title: "Two-factor verification",
		Data:  map[string]any{},
	})
}

// TwoFAVerifySubmit validates the TOTP code and completes the login.
func (a *Auth) TwoFAVerifySubmit(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	user, err := a.userStore.FindByID(sess.UserID)
	if err != nil {
		serverError(w, r, "user lookup for 2fa failed", err)
		return
	}
	if user == nil {
		_ = a.sessions.Destroy(r.Context(), w, r)
		http.Redirect(w, r, middleware.LoginPath, http.StatusSeeOther)
		return
	}

	if user.Requires2FA() && !totp.Validate(strings.TrimSpace(r.PostFormValue("code")), *user.TOTPSecret) {
		slog.Info("2fa verification failed", "user_id", user.ID)
		a.page(w, r, http.StatusOK, "2fa_verify", &render.PageData{
			Title: "Two-factor verification",
			Data:  map[string]any{"Error": msgInvalidCode},
		})
		return
	}

	next := orDefault(sess.Next, afterLoginPath)
	sess.TwoFADone = true
	sess.Next = ""
	if err := a.sessions.Update(r.Context(), r, sess); err != nil {
		serverError(w, r, "session update failed", err)
		return
	}

	slog.Info("user logged in", "user_id", user.ID, "2fa", true)
	http.Redirect(w, r, next, http.StatusSeeOther)
}

// TwoFASetupPage shows the enrollment QR code, or the disable form when
// TOTP is already on. A fresh secret is stored on every visit until the
// user confirms a code.
func (a *Auth) TwoFASetupPage(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	user, err := a.userStore.FindByID(sess.UserID)
	if err != nil || user == nil {
		serverError(w, r, "user lookup for 2fa setup failed", err)
		return
	}

	if user.TOTPEnabled {
		a.renderSetup(w, r, nil, true, "")
		return
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      totpIssuer,
		AccountName: user.Email,
	})
	if err != nil {
		serverError(w, r, "totp generate failed", err)
		return
	}

	if err := a.userStore.SetTOTPSecret(user.ID, key.Secret()); err != nil {
		serverError(w, r, "save totp secret failed", err)
		return
	}

	a.renderSetup(w, r, key, false, "")
}

// TwoFASetupSubmit enables or disables TOTP after checking a current code.
func (a *Auth) TwoFASetupSubmit(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	user, err := a.userStore.FindByID(sess.UserID)
	if err != nil || user == nil {
		serverError(w, r, "user lookup for 2fa setup failed", err)
		return
	}

	code := strings.TrimSpace(r.PostFormValue("code"))
	action := r.PostFormValue("action")

	switch {
	case action == "disable" && user.TOTPEnabled:
		if !totp.Validate(code, *user.TOTPSecret) {
			a.renderSetup(w, r, nil, true, msgInvalidCode)
			return
		}
		if err := a.userStore.DisableTOTP(user.ID); err != nil {
			serverError(w, r, "disable totp failed", err)
			return
		}
		slog.Info("2fa disabled", "user_id", user.ID)
		a.flash(r, flashSuccess, "Two-factor authentication disabled.")

	case action == "enable" && !user.TOTPEnabled && user.TOTPSecret != nil:
		if !totp.Validate(code, *user.TOTPSecret) {
			key, err := otp.NewKeyFromURL(totpURL(user))
			if err != nil {
				serverError(w, r, "rebuild totp key failed", err)
				return
			}
			a.renderSetup(w, r, key, false, msgInvalidCode)
			return
		}
		if err := a.userStore.EnableTOTP(user.ID); err != nil {
			serverError(w, r, "enable totp failed", err)
			return
		}
		slog.Info("2fa enabled", "user_id", user.ID)
		a.flash(r, flashSuccess, "Two-factor authentication enabled.")
	}

	http.Redirect(w, r, "/account/2fa/", http.StatusSeeOther)
}

// Logout destroys the session and returns to the home page.
func (a *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	if err := a.sessions.Destroy(r.Context(), w, r); err != nil {
		slog.Warn("session destroy failed", "error", err)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (a *Auth) renderLogin(w http.ResponseWriter, r *http.Request, email, next, errMsg string) {
	a.page(w, r, http.StatusOK, "login", &render.PageData{
		Title: "Log in",
		Data: map[string]any{
			"Email": email,
			"Next":  next,
			"Error": errMsg,
		},
	})
}

// renderSetup renders the enrollment page. key is nil when TOTP is enabled.
func (a *Auth) renderSetup(w http.ResponseWriter, r *http.Request, key *otp.Key, enabled bool, errMsg string) {
	data := map[string]any{
		"Enabled": enabled,
		"Error":   errMsg,
	}

	if key != nil {
		png, err := qrcode.Encode(key.URL(), qrcode.Medium, 256)
		if err != nil {
			serverError(w, r, "qr code generation failed", err)
			return
		}
		data["QRCode"] = template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(png))
		data["Secret"] = key.Secret()
	}

	a.page(w, r, http.StatusOK, "2fa_setup", &render.PageData{
		Title: "Two-factor authentication",
		Data:  data,
	})
}

// totpURL rebuilds the otpauth URL for a pending secret.
func totpURL(u *models.User) string {
	v := url.Values{}
	v.Set("secret", *u.TOTPSecret)
	v.Set("issuer", totpIssuer)
	return "otpauth://totp/" + url.PathEscape(totpIssuer+":"+u.Email) + "?" + v.Encode()
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
