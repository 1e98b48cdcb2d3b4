package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"time"

	"github.com/shortly-app/shortly/internal/database"
	"github.com/shortly-app/shortly/internal/models"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// shortCodeAlphabet is the 62-symbol alphabet system codes are drawn from.
const shortCodeAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// maxGenerateAttempts bounds the code generation loop. With a 6-character
// code the keyspace is 62^6 (~5.7e10), so even a handful of consecutive
// collisions means the table is pathologically full; the bound exists to
// keep the loop provably terminating, not as a practical limit.
const maxGenerateAttempts = 256

// collisionWarnThreshold is the number of consecutive collisions after
// which the generation loop starts warning.
const collisionWarnThreshold = 8

var (
	// ErrInvalidURL is returned when the original URL is missing a scheme or host.
	ErrInvalidURL = errors.New("invalid url format")
	// ErrInvalidShortCode is returned when a custom short code isn't alphanumeric
	// or its length is outside [3,15].
	ErrInvalidShortCode = errors.New("invalid short code format")
	// ErrInvalidValidity is returned when the requested validity period isn't positive.
	ErrInvalidValidity = errors.New("invalid validity period")
	// ErrURLExpired is returned when a short code is resolved after its expiry.
	ErrURLExpired = errors.New("url expired")
	// ErrMaxRetriesExceeded is returned when the maximum number of attempts for
	// generating a short code is exceeded.
	ErrMaxRetriesExceeded = errors.New("maximum retries exceeded for generating short code")
)

var shortCodeRegexp = regexp.MustCompile(`^[a-zA-Z0-9]{3,15}$`)

// URLRepository defines the interface for working with URL records at the business logic layer.
type URLRepository interface {
	// Create inserts a new URL record. Uniqueness of the short code is enforced
	// atomically by the storage; a taken code yields database.ErrShortCodeExists.
	Create(ctx context.Context, shortCode, originalURL string, createdAt, expiresAt time.Time) (*models.URL, error)

	// Exists reports whether a short code is already taken. Used only as a
	// fast-path probe during system code generation.
	Exists(ctx context.Context, shortCode string) (bool, error)

	// GetByShortCode retrieves a URL record by its short code without side effects.
	GetByShortCode(ctx context.Context, shortCode string) (*models.URL, error)

	// IncrementClicks atomically adds one click to the record.
	IncrementClicks(ctx context.Context, shortCode string) error
}

// URLService implements the short URL lifecycle: input validation, short code
// resolution, expiry computation and the redirect lookup path.
type URLService struct {
	repo            URLRepository
	logger          *slog.Logger
	shortCodeLength int
	defaultValidity time.Duration
	now             func() time.Time
}

// NewURLService creates a new URLService. defaultValidity is applied when a
// creation request doesn't specify a validity period.
func NewURLService(repo URLRepository, logger *slog.Logger, shortCodeLength int, defaultValidity time.Duration) *URLService {
	return &URLService{
		repo:            repo,
		logger:          logger,
		shortCodeLength: shortCodeLength,
		defaultValidity: defaultValidity,
		now:             time.Now,
	}
}

// CreateShortURL validates the input, resolves a short code (custom or
// generated) and persists the record. A zero validity selects the default
// period. All timestamps are UTC with second precision.
func (s *URLService) CreateShortURL(ctx context.Context, originalURL, shortCode string, validity time.Duration) (*models.URL, error) {
	const op = "service.URLService.CreateShortURL"

	u, err := url.Parse(originalURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidURL)
	}

	if validity == 0 {
		validity = s.defaultValidity
	}
	if validity < 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidValidity)
	}

	createdAt := s.now().UTC().Truncate(time.Second)
	expiresAt := createdAt.Add(validity)

	if shortCode != "" {
		if !shortCodeRegexp.MatchString(shortCode) {
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidShortCode)
		}

		url, err := s.repo.Create(ctx, shortCode, originalURL, createdAt, expiresAt)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to reserve short code: %w", op, err)
		}

		return url, nil
	}

	for attempt := 1; attempt <= maxGenerateAttempts; attempt++ {
		code, err := gonanoid.Generate(shortCodeAlphabet, s.shortCodeLength)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to generate short code: %w", op, err)
		}

		taken, err := s.repo.Exists(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to check short code: %w", op, err)
		}
		if taken {
			s.warnOnCollisions(attempt)
			continue
		}

		url, err := s.repo.Create(ctx, code, originalURL, createdAt, expiresAt)
		if err != nil {
			// Lost the race between the availability probe and the insert.
			if errors.Is(err, database.ErrShortCodeExists) {
				s.warnOnCollisions(attempt)
				continue
			}

			return nil, fmt.Errorf("%s: failed to shorten url: %w", op, err)
		}

		return url, nil
	}

	return nil, fmt.Errorf("%s: %w", op, ErrMaxRetriesExceeded)
}

func (s *URLService) warnOnCollisions(attempt int) {
	if attempt%collisionWarnThreshold == 0 {
		s.logger.Warn("repeated short code collisions",
			slog.Int("consecutive_collisions", attempt),
			slog.Int("code_length", s.shortCodeLength),
		)
	}
}

// ResolveShortCode retrieves the record for a redirect. An expired record
// yields ErrURLExpired and doesn't touch the click counter; otherwise the
// click is counted as soon as the expiry check passes, i.e. the counter
// tracks attempted redirects rather than confirmed deliveries.
func (s *URLService) ResolveShortCode(ctx context.Context, shortCode string) (*models.URL, error) {
	const op = "service.URLService.ResolveShortCode"

	url, err := s.repo.GetByShortCode(ctx, shortCode)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to resolve short code: %w", op, err)
	}

	if s.now().UTC().After(url.ExpiresAt) {
		return nil, fmt.Errorf("%s: %w", op, ErrURLExpired)
	}

	if err := s.repo.IncrementClicks(ctx, shortCode); err != nil {
		return nil, fmt.Errorf("%s: failed to count click: %w", op, err)
	}
	url.TotalClicks++

	return url, nil
}

// GetURLStats retrieves the record without affecting the click counter.
func (s *URLService) GetURLStats(ctx context.Context, shortCode string) (*models.URL, error) {
	const op = "service.URLService.GetURLStats"

	url, err := s.repo.GetByShortCode(ctx, shortCode)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get url stats: %w", op, err)
	}

	return url, nil
}
