// Package http wires the application's controllers into a ServeMux.
package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/hardikSrivastav/imp-mail-sub002/internal/delivery/http/controllers"
	"github.com/hardikSrivastav/imp-mail-sub002/internal/delivery/http/middleware"
	"github.com/hardikSrivastav/imp-mail-sub002/internal/domain"
)

// Controllers bundles everything the router mounts.
type Controllers struct {
	Auth        *controllers.AuthController
	Emails      *controllers.EmailController
	Preferences *controllers.PreferenceController
	Classifier  *controllers.ClassifierController
	Models      *controllers.ModelController
}

// NewRouter initializes the HTTP router with all application routes.
func NewRouter(c Controllers, verifier domain.TokenVerifier, logger *slog.Logger) *http.ServeMux {
	mux := http.NewServeMux()
	auth := middleware.RequireAuth(verifier, logger)

	// Auth
	mux.HandleFunc("POST /auth/signup", c.Auth.SignUp)
	mux.HandleFunc("POST /auth/login", c.Auth.Login)
	mux.HandleFunc("GET /auth/google/login", c.Auth.GoogleLogin)
	mux.HandleFunc("GET /auth/google/callback", c.Auth.GoogleCallback)
	mux.HandleFunc("GET /users/me", auth(c.Auth.Me))

	// Emails
	mux.HandleFunc("GET /emails", auth(c.Emails.List))
	mux.HandleFunc("GET /emails/{id}", auth(c.Emails.Get))
	mux.HandleFunc("POST /emails/sync", auth(c.Emails.Sync))

	// Preferences
	mux.HandleFunc("GET /users/me/preferences", auth(c.Preferences.Get))
	mux.HandleFunc("PUT /users/me/preferences", auth(c.Preferences.Update))

	// Classifier
	mux.HandleFunc("POST /classifier/train", auth(c.Classifier.Train))
	mux.HandleFunc("POST /classifier/classify", auth(c.Classifier.Classify))
	mux.HandleFunc("POST /classifier/feedback", auth(c.Classifier.Feedback))
	mux.HandleFunc("POST /classifier/labels", auth(c.Classifier.Label))
	mux.HandleFunc("POST /classifier/bulk-label", auth(c.Classifier.BulkLabel))
	mux.HandleFunc("GET /classifier/stats", auth(c.Classifier.Stats))
	mux.HandleFunc("GET /classifier/similar/{id}", auth(c.Classifier.Similar))
	mux.HandleFunc("POST /classifier/reset", auth(c.Classifier.Reset))

	// Model persistence
	mux.HandleFunc("GET /models/status", auth(c.Models.Status))
	mux.HandleFunc("POST /models/save", auth(c.Models.SaveAll))

	// Health
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
