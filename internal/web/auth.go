package web

import (
	"net/http"

	"go.uber.org/zap"
)

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	state, err := s.sessions.NewState(w)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	http.Redirect(w, r, s.provider.AuthCodeURL(state), http.StatusFound)
}

func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	if !s.sessions.VerifyState(w, r) {
		writeError(w, http.StatusBadRequest, "Invalid sign-in state")
		return
	}
	code := r.URL.Query().Get("code")
	if code == "" {
		writeError(w, http.StatusBadRequest, "Missing authorization code")
		return
	}

	identity, err := s.provider.Exchange(r.Context(), code)
	if err != nil {
		s.logger.Warn("sign-in failed", zap.Error(err))
		writeError(w, http.StatusUnauthorized, "Sign-in failed")
		return
	}

	u, err := s.users.Upsert(r.Context(), identity)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.sessions.SetCookie(w, u.ID); err != nil {
		s.fail(w, r, err)
		return
	}

	s.logger.Info("user signed in", zap.String("user_id", u.ID))
	http.Redirect(w, r, "/recipes", http.StatusSeeOther)
}

func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	s.sessions.ClearCookie(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
