package config

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gorilla/sessions"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"github.com/markbates/goth/providers/facebook"
	"github.com/markbates/goth/providers/google"
)

// InitOAuthProviders configure gothic (cookie store) et retourne les providers activés
func InitOAuthProviders(cfg OAuthConfig, secure bool) []string {
	if cfg.SessionSecret == "" {
		log.Println("⚠️ SESSION_SECRET manquant, connexion sociale désactivée")
		return nil
	}

	store := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	store.MaxAge(86400 * 30)
	store.Options.Path = "/"
	store.Options.HttpOnly = true
	store.Options.Secure = secure
	store.Options.SameSite = http.SameSiteLaxMode
	gothic.Store = store

	// le provider est posé dans la query par le handler de la route
	gothic.GetProviderName = func(req *http.Request) (string, error) {
		if provider := req.URL.Query().Get("provider"); provider != "" {
			return provider, nil
		}
		return "", errors.New("provider not found")
	}

	base := strings.TrimSuffix(cfg.BaseURL, "/")
	var providers []goth.Provider
	var names []string

	if cfg.GoogleClientID != "" {
		providers = append(providers, google.New(cfg.GoogleClientID, cfg.GoogleClientSecret,
			base+"/verse/auth/oauth/google/callback", "email", "profile"))
		names = append(names, "google")
	}
	if cfg.FacebookClientID != "" {
		providers = append(providers, facebook.New(cfg.FacebookClientID, cfg.FacebookClientSecret,
			base+"/verse/auth/oauth/facebook/callback", "email", "public_profile"))
		names = append(names, "facebook")
	}

	if len(providers) == 0 {
		log.Println("⚠️ Aucun provider OAuth configuré")
		return nil
	}
	goth.UseProviders(providers...)
	log.Println("✅ Providers OAuth initialisés:", strings.Join(names, ", "))
	return names
}
