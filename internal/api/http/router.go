package http

import (
	"context"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v2"
	"github.com/go-playground/validator/v10"
	"github.com/shortly-app/shortly/internal/logsink"
	"github.com/shortly-app/shortly/internal/models"
)

// URLService defines the interface for the core URL shortening business logic.
type URLService interface {
	// CreateShortURL validates the input and persists a new short URL record.
	// An empty shortCode requests a system-generated code; a zero validity
	// selects the service default.
	CreateShortURL(ctx context.Context, originalURL, shortCode string, validity time.Duration) (*models.URL, error)

	// ResolveShortCode retrieves the record for a redirect, counting the click.
	// Expired records yield service.ErrURLExpired.
	ResolveShortCode(ctx context.Context, shortCode string) (*models.URL, error)

	// GetURLStats retrieves the record without affecting the click counter.
	GetURLStats(ctx context.Context, shortCode string) (*models.URL, error)
}

// getValidate initializes a new validator instance for validating incoming request payloads.
// It customizes tag name extraction from struct fields to match JSON tags.
func getValidate() *validator.Validate {
	validate := validator.New()

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return validate
}

// NewRouter initializes and returns a new HTTP router with all routes and middleware configured.
// baseURL is the public address short links are built from; sink may be nil.
func NewRouter(logger *httplog.Logger, urlSvc URLService, baseURL string, sink *logsink.Client) http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"POST", "GET", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Accept"},
		AllowCredentials: false,
		MaxAge:           84600,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httplog.RequestLogger(logger))
	r.Use(middleware.Recoverer)

	validate := getValidate()

	r.Get("/ping", handlePing)

	r.Route("/shorturls", func(r chi.Router) {
		r.Post("/", handleCreateShortURL(urlSvc, validate, baseURL, sink))
		r.Get("/{shortCode}/stats", handleGetURLStats(urlSvc, sink))
	})

	r.Get("/{shortCode}", handleRedirect(urlSvc, sink))

	return r
}
