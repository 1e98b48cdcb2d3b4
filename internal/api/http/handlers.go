package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/shortly-app/shortly/internal/database"
	"github.com/shortly-app/shortly/internal/logsink"
	"github.com/shortly-app/shortly/internal/service"
	"github.com/shortly-app/shortly/pkg/response"
)

// handlePing handles health check requests to ensure the server is running.
func handlePing(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "pong")
}

// shortURLRequest represents the request payload for creating a short URL.
// Validity is the lifetime of the short code in minutes; when omitted the
// service default applies.
type shortURLRequest struct {
	URL       string `json:"url" validate:"required"`
	Validity  *int   `json:"validity" validate:"omitnil,gt=0"`
	ShortCode string `json:"shortcode" validate:"omitempty,alphanum,min=3,max=15"`
}

// shortURLCreatedResponse represents the response payload for a successful creation.
type shortURLCreatedResponse struct {
	ShortLink string `json:"shortLink"`
	Expiry    string `json:"expiry"`
}

// urlStatsResponse represents the response payload for the stats endpoint.
type urlStatsResponse struct {
	ID          int64     `json:"id"`
	ShortCode   string    `json:"shortCode"`
	URL         string    `json:"url"`
	TotalClicks int64     `json:"totalClicks"`
	CreatedAt   time.Time `json:"createdAt"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// shortLink builds the fully-qualified short link for a code.
func shortLink(baseURL, shortCode string) string {
	return strings.TrimSuffix(baseURL, "/") + "/" + shortCode
}

// handleCreateShortURL handles POST requests to create a short URL.
//
// The request must contain an absolute URL and may carry a custom short code
// and a validity period in minutes. The handler returns the fully-qualified
// short link together with the expiry timestamp in ISO-8601 UTC form.
func handleCreateShortURL(svc URLService, validate *validator.Validate, baseURL string, sink *logsink.Client) http.HandlerFunc {
	const op = "api.http.handleCreateShortURL"

	return func(w http.ResponseWriter, r *http.Request) {
		var req shortURLRequest

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			if errors.Is(err, io.EOF) {
				sink.Notify(logsink.LevelError, "handler", "empty request body for short url creation")

				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.EmptyRequestBodyResponse)
				return
			}

			sink.Notify(logsink.LevelError, "handler", "invalid request body for short url creation")

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.BadRequestResponse)
			return
		}

		if err := validate.Struct(req); err != nil {
			sink.Notify(logsink.LevelError, "handler", "short url creation request failed validation")

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.ValidationErrorResponse(err))
			return
		}

		var validity time.Duration
		if req.Validity != nil {
			validity = time.Duration(*req.Validity) * time.Minute
		}

		url, err := svc.CreateShortURL(r.Context(), req.URL, req.ShortCode, validity)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrInvalidURL):
				sink.Notify(logsink.LevelError, "handler", "invalid url format: "+req.URL)

				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.Response{
					Error:   "Bad Request",
					Message: "Invalid URL format.",
				})
			case errors.Is(err, service.ErrInvalidShortCode):
				sink.Notify(logsink.LevelError, "handler", "invalid custom shortcode format: "+req.ShortCode)

				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.Response{
					Error:   "Bad Request",
					Message: "'shortcode' must be alphanumeric and between 3 and 15 characters.",
				})
			case errors.Is(err, service.ErrInvalidValidity):
				sink.Notify(logsink.LevelError, "handler", "invalid validity period")

				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.Response{
					Error:   "Bad Request",
					Message: "'validity' must be a positive integer.",
				})
			case errors.Is(err, database.ErrShortCodeExists):
				sink.Notify(logsink.LevelWarn, "controller", "custom shortcode already exists: "+req.ShortCode)

				render.Status(r, http.StatusConflict)
				render.JSON(w, r, response.ShortCodeConflictResponse)
			default:
				httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})
				sink.Notify(logsink.LevelFatal, "db", "database error saving short url")

				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.ServerErrorResponse)
			}
			return
		}

		link := shortLink(baseURL, url.ShortCode)
		sink.Notify(logsink.LevelInfo, "controller", "short url created: "+link)

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, shortURLCreatedResponse{
			ShortLink: link,
			Expiry:    url.ExpiresAt.UTC().Format(time.RFC3339),
		})
	}
}

// handleRedirect handles GET requests to a short code, redirecting the visitor
// to the original URL. Unknown codes yield 404, expired ones 410.
func handleRedirect(svc URLService, sink *logsink.Client) http.HandlerFunc {
	const op = "api.http.handleRedirect"

	return func(w http.ResponseWriter, r *http.Request) {
		shortCode := chi.URLParam(r, "shortCode")

		url, err := svc.ResolveShortCode(r.Context(), shortCode)
		if err != nil {
			switch {
			case errors.Is(err, database.ErrURLNotFound):
				sink.Notify(logsink.LevelWarn, "controller", "shortcode not found: "+shortCode)

				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, response.ResourceNotFoundResponse)
			case errors.Is(err, service.ErrURLExpired):
				sink.Notify(logsink.LevelWarn, "controller", "shortcode expired: "+shortCode)

				render.Status(r, http.StatusGone)
				render.JSON(w, r, response.URLExpiredResponse)
			default:
				httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})
				sink.Notify(logsink.LevelError, "db", "failed to resolve shortcode: "+shortCode)

				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.ServerErrorResponse)
			}
			return
		}

		sink.Notify(logsink.LevelInfo, "controller", "redirecting shortcode: "+shortCode)

		http.Redirect(w, r, url.OriginalURL, http.StatusFound)
	}
}

// handleGetURLStats handles GET requests for the click counter of a short URL.
func handleGetURLStats(svc URLService, sink *logsink.Client) http.HandlerFunc {
	const op = "api.http.handleGetURLStats"

	return func(w http.ResponseWriter, r *http.Request) {
		shortCode := chi.URLParam(r, "shortCode")

		url, err := svc.GetURLStats(r.Context(), shortCode)
		if err != nil {
			if errors.Is(err, database.ErrURLNotFound) {
				sink.Notify(logsink.LevelWarn, "controller", "shortcode not found: "+shortCode)

				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, response.ResourceNotFoundResponse)
				return
			}

			httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})
			sink.Notify(logsink.LevelError, "db", "failed to get shortcode stats: "+shortCode)

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.ServerErrorResponse)
			return
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, urlStatsResponse{
			ID:          url.ID,
			ShortCode:   url.ShortCode,
			URL:         url.OriginalURL,
			TotalClicks: url.TotalClicks,
			CreatedAt:   url.CreatedAt,
			ExpiresAt:   url.ExpiresAt,
		})
	}
}
