package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/AdityaTeltia/lyzr-agent-craft/internal/api/middleware"
	"github.com/AdityaTeltia/lyzr-agent-craft/internal/crypto"
	"github.com/AdityaTeltia/lyzr-agent-craft/internal/metrics"
	"github.com/AdityaTeltia/lyzr-agent-craft/internal/models"
	"github.com/AdityaTeltia/lyzr-agent-craft/internal/store"
)

type authPage struct {
	layoutData
	Email string
	Name  string
	Next  string
}

func errorNotice(title, description string) []models.Notice {
	return []models.Notice{models.NewNotice(models.NoticeDestructive, title, description)}
}

// SignInSurface renders the sign-in form in place of a gated page. The
// form returns the visitor to the page they asked for.
func (h *Handler) SignInSurface(w http.ResponseWriter, r *http.Request) {
	next := "/dashboard"
	if r.Method == http.MethodGet {
		next = r.URL.RequestURI()
	}
	h.render(w, r, http.StatusOK, "sign_in.html", &authPage{
		layoutData: layoutData{Title: "Sign in"},
		Next:       next,
	})
}

// SignInPage handles GET /sign-in.
func (h *Handler) SignInPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "sign_in.html", &authPage{
		layoutData: layoutData{Title: "Sign in"},
		Next:       safeRedirect(r.URL.Query().Get("next"), "/dashboard"),
	})
}

// SignIn handles POST /sign-in.
func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form data", http.StatusBadRequest)
		return
	}

	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")
	next := safeRedirect(r.FormValue("next"), "/dashboard")

	user, err := h.users.GetUserByEmail(r.Context(), email)
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("user lookup failed")
	}
	if err != nil || user == nil || !crypto.CheckPassword(user.PasswordHash, password) {
		metrics.SignIns.WithLabelValues("failure").Inc()
		h.render(w, r, http.StatusUnauthorized, "sign_in.html", &authPage{
			layoutData: layoutData{
				Title:   "Sign in",
				Notices: errorNotice("Sign in failed", "Invalid email or password."),
			},
			Email: email,
			Next:  next,
		})
		return
	}

	if err := h.startSession(w, r, user); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("create session failed")
		h.render(w, r, http.StatusInternalServerError, "sign_in.html", &authPage{
			layoutData: layoutData{
				Title:   "Sign in",
				Notices: errorNotice("Error", "Could not sign you in. Please try again."),
			},
			Email: email,
			Next:  next,
		})
		return
	}

	metrics.SignIns.WithLabelValues("success").Inc()
	http.Redirect(w, r, next, http.StatusSeeOther)
}

// SignUpPage handles GET /sign-up.
func (h *Handler) SignUpPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "sign_up.html", &authPage{
		layoutData: layoutData{Title: "Sign up"},
	})
}

// SignUp handles POST /sign-up.
func (h *Handler) SignUp(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form data", http.StatusBadRequest)
		return
	}

	name := sanitizeName(r.FormValue("name"))
	email := strings.ToLower(strings.TrimSpace(r.FormValue("email")))
	password := r.FormValue("password")

	fail := func(status int, title, description string) {
		h.render(w, r, status, "sign_up.html", &authPage{
			layoutData: layoutData{Title: "Sign up", Notices: errorNotice(title, description)},
			Email:      email,
			Name:       name,
		})
	}

	if !isValidEmail(email) {
		fail(http.StatusUnprocessableEntity, "Invalid email", "Please enter a valid email address.")
		return
	}

	hash, err := crypto.HashPassword(password)
	if errors.Is(err, crypto.ErrPasswordTooShort) {
		fail(http.StatusUnprocessableEntity, "Password too short", "Use at least 8 characters.")
		return
	}
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("hash password failed")
		fail(http.StatusInternalServerError, "Error", "Could not create your account. Please try again.")
		return
	}

	user := &models.User{
		ID:           crypto.NewUUIDv7(),
		Email:        email,
		Name:         name,
		PasswordHash: hash,
	}
	if err := h.users.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, store.ErrEmailTaken) {
			fail(http.StatusConflict, "Account exists", "An account with this email already exists.")
			return
		}
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("create user failed")
		fail(http.StatusInternalServerError, "Error", "Could not create your account. Please try again.")
		return
	}
	metrics.UsersRegistered.Inc()

	if err := h.startSession(w, r, user); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("create session failed")
		http.Redirect(w, r, "/sign-in", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// SignOut handles POST /sign-out.
func (h *Handler) SignOut(w http.ResponseWriter, r *http.Request) {
	if session := middleware.SessionFromContext(r.Context()); session != nil {
		if err := h.sessions.DeleteSession(r.Context(), session.ID); err != nil {
			zerolog.Ctx(r.Context()).Error().Err(err).Msg("delete session failed")
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   !h.cfg.IsDevelopment(),
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/sign-in", http.StatusSeeOther)
}

// startSession stores a new session for user and sets its cookie.
func (h *Handler) startSession(w http.ResponseWriter, r *http.Request, user *models.User) error {
	now := time.Now()
	session := &models.Session{
		ID:        crypto.NewUUIDv7(),
		UserID:    user.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(h.cfg.SessionTTL),
	}
	if err := h.sessions.CreateSession(r.Context(), session); err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    h.signer.Sign(session.ID, session.ExpiresAt),
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   !h.cfg.IsDevelopment(),
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}
