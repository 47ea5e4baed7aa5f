package session

import (
	"github.com/gaborage/go-apiclient/auth"
	"github.com/gaborage/go-apiclient/config"
	"github.com/gaborage/go-apiclient/logger"
	"github.com/gaborage/go-apiclient/ratelimit"
	"github.com/gaborage/go-apiclient/transport"
)

// NewFromConfig builds a fully wired Session from configuration. Options
// are applied after the configuration and may override it.
func NewFromConfig(credential auth.Credential, cfg *config.Config, opts ...Option) (*Session, error) {
	if cfg == nil {
		return nil, NewInvocationError("config must not be nil")
	}

	requestor, err := transport.New(cfg.Client.BaseURL,
		transport.WithTimeout(cfg.Client.Timeout),
		transport.WithUserAgent(cfg.Client.UserAgent),
	)
	if err != nil {
		return nil, NewInvocationError(err.Error())
	}

	var limiter ratelimit.Limiter
	switch cfg.Rate.Mode {
	case config.RateModeBucket:
		limiter = ratelimit.NewTokenBucket(cfg.Rate.RPS, cfg.Rate.Burst)
	case config.RateModeNone:
		limiter = ratelimit.NoopLimiter{}
	default:
		limiter = ratelimit.NewHeaderLimiter()
	}

	policy := AuthRetryRespectBudget
	if cfg.Client.AuthRetry == config.AuthRetryExtraAttempt {
		policy = AuthRetryExtraAttempt
	}

	base := []Option{
		WithRetries(cfg.Client.Retries),
		WithAuthRetryPolicy(policy),
		WithLimiter(limiter),
		WithLogger(logger.New(cfg.Log.Level, cfg.Log.Pretty)),
	}
	return New(credential, requestor, append(base, opts...)...)
}
