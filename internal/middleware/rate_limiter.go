package middleware

import (
	"fmt"
	"net/http"

	"consigna/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// RateLimiter limits requests per client IP. rate uses limiter's
// formatted syntax, e.g. "1000-M" or "20-S".
func RateLimiter(rate string) (gin.HandlerFunc, error) {
	r, err := limiter.NewRateFromFormatted(rate)
	if err != nil {
		return nil, fmt.Errorf("rate limiter: formato inválido %q: %w", rate, err)
	}
	instance := limiter.New(memory.NewStore(), r)

	return mgin.NewMiddleware(instance,
		mgin.WithLimitReachedHandler(func(c *gin.Context) {
			log.Warn().
				Str("request_id", c.GetString(RequestIDKey)).
				Str("ip", c.ClientIP()).
				Msg("rate limit alcanzado")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New(apierror.CodigoLimite, "Demasiadas solicitudes. Intente nuevamente en un momento."))
		}),
		mgin.WithErrorHandler(func(c *gin.Context, err error) {
			// store failures must not take the API down
			log.Error().Err(err).Msg("rate limiter store")
			c.Next()
		}),
	), nil
}
