package authflow

import (
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/jottr/authflow/jwt"
	"github.com/jottr/authflow/password"
)

// Builder assembles an [Engine]. A builder is single-use; Build wires the
// dependencies and seals it.
//
//	engine, err := authflow.New().
//		WithConfig(cfg).
//		WithStore(store).
//		WithMailer(mailer).
//		Build()
type Builder struct {
	config Config
	store  Store
	mailer Mailer
	redis  *redis.Client

	auditSink AuditSink

	built bool
}

// New returns a Builder preloaded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the full configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithStore sets the credential store adapter. Required.
func (b *Builder) WithStore(store Store) *Builder {
	b.store = store
	return b
}

// WithMailer sets the notification dispatcher. Required.
func (b *Builder) WithMailer(mailer Mailer) *Builder {
	b.mailer = mailer
	return b
}

// WithRedis sets the Redis client backing the optional attempt limiters.
// Required only when Limiter.Enabled is set.
func (b *Builder) WithRedis(client *redis.Client) *Builder {
	b.redis = client
	return b
}

// WithAuditSink sets the destination for audit events and enables the
// dispatcher.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	b.config.Audit.Enabled = true
	return b
}

// WithMetricsEnabled toggles the in-process metrics counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the login latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration, wires every component, and returns a
// ready Engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if b.store == nil {
		return nil, errors.New("store required")
	}
	if b.mailer == nil {
		return nil, errors.New("mailer required")
	}
	if cfg.Limiter.Enabled && b.redis == nil {
		return nil, errors.New("Limiter.Enabled requires redis client")
	}

	jwtManager, err := jwt.NewManager(jwt.Config{
		AccessTTL:     cfg.JWT.AccessTTL,
		RefreshTTL:    cfg.JWT.RefreshTTL,
		SigningMethod: jwt.SigningMethod(cfg.JWT.SigningMethod),
		PrivateKey:    cfg.JWT.PrivateKey,
		PublicKey:     cfg.JWT.PublicKey,
		Issuer:        cfg.JWT.Issuer,
		Leeway:        cfg.JWT.Leeway,
		MaxFutureIAT:  cfg.JWT.MaxFutureIAT,
	})
	if err != nil {
		return nil, err
	}

	hasher, err := password.NewHasher(password.Config{
		Memory:      cfg.Password.Memory,
		Time:        cfg.Password.Time,
		Parallelism: cfg.Password.Parallelism,
		SaltLength:  cfg.Password.SaltLength,
		KeyLength:   cfg.Password.KeyLength,
	})
	if err != nil {
		return nil, err
	}

	engine := &Engine{
		config:       cfg,
		store:        b.store,
		mailer:       b.mailer,
		jwtManager:   jwtManager,
		passwordHash: hasher,
		audit:        newAuditDispatcher(cfg.Audit, b.auditSink),
		metrics:      NewMetrics(cfg.Metrics),
	}

	if cfg.Limiter.Enabled {
		engine.loginLimiter = newLoginLimiter(b.redis, cfg.Limiter)
		engine.verificationLimiter = newVerificationLimiter(b.redis, cfg)
		engine.resetLimiter = newResetLimiter(b.redis, cfg)
	}

	b.built = true

	return engine, nil
}
