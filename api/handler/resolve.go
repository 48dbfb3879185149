package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/linkcard/models"
	"github.com/use-agent/linkcard/resolver"
)

// Resolve returns a handler for POST /api/v1/resolve.
//
// Pipeline: bind → resolve (redirect, cache, fetch, extract) → respond.
// A site that blocks every fetch still answers 200 with the placeholder
// card; only a malformed URL is a client error.
func Resolve(res *resolver.Resolver, maxResolveTime time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		totalStart := time.Now()

		var req models.ResolveRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, models.NewMetadataError(models.ErrCodeInvalidInput, err.Error(), err), totalStart)
			return
		}

		ctx := c.Request.Context()
		if maxResolveTime > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, maxResolveTime)
			defer cancel()
		}

		resp, err := resolveOne(ctx, res, req.URL, resolver.Options{
			MaxAge: time.Duration(req.MaxAge) * time.Millisecond,
		}, totalStart)
		if err != nil {
			respondError(c, err, totalStart)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

// resolveOne builds the API envelope for a single URL. It is shared by the
// single and batch endpoints.
func resolveOne(ctx context.Context, res *resolver.Resolver, rawURL string, opts resolver.Options, start time.Time) (*models.ResolveResponse, error) {
	card, outcome, err := res.ResolveWithOptions(ctx, rawURL, opts)
	if err != nil {
		return nil, err
	}

	cacheStatus := "miss"
	if outcome.CacheHit {
		cacheStatus = "hit"
	}
	return &models.ResolveResponse{
		Success:     true,
		Data:        card,
		Source:      card.Source,
		FinalURL:    card.FinalURL,
		FetchMethod: card.FetchMethod,
		CacheStatus: cacheStatus,
		Timing:      models.TimingInfo{TotalMs: time.Since(start).Milliseconds()},
	}, nil
}

// respondError maps a MetadataError to the correct HTTP status code and
// writes a structured JSON error response.
func respondError(c *gin.Context, err error, start time.Time) {
	me := toMetadataError(err)
	c.JSON(mapErrorToStatus(me), models.ResolveResponse{
		Success: false,
		Error:   me.ToDetail(),
		Timing:  models.TimingInfo{TotalMs: time.Since(start).Milliseconds()},
	})
}

func toMetadataError(err error) *models.MetadataError {
	var me *models.MetadataError
	if errors.As(err, &me) {
		return me
	}
	return models.NewMetadataError(models.ErrCodeInternal, err.Error(), err)
}

// mapErrorToStatus translates error codes to HTTP status codes.
func mapErrorToStatus(e *models.MetadataError) int {
	switch e.Code {
	case models.ErrCodeInvalidURL, models.ErrCodeInvalidInput:
		return http.StatusBadRequest // 400
	case models.ErrCodeUnauthorized:
		return http.StatusUnauthorized // 401
	case models.ErrCodeNotFound:
		return http.StatusNotFound // 404
	case models.ErrCodeRateLimited:
		return http.StatusTooManyRequests // 429
	case models.ErrCodeTimeout:
		return http.StatusGatewayTimeout // 504
	case models.ErrCodeFetchFailed, models.ErrCodeBrowserFailed:
		return http.StatusBadGateway // 502
	default:
		return http.StatusInternalServerError // 500
	}
}
