package clinicauth

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	internalaudit "github.com/ovumlab/clinicauth/internal/audit"
	"github.com/ovumlab/clinicauth/store"
)

// Builder assembles a [Manager]. Configure it once, call [Builder.Build],
// and discard it; a Builder cannot be reused.
type Builder struct {
	config    Config
	redis     redis.UniversalClient
	accounts  AccountService
	auditSink AuditSink
	logger    *zap.Logger

	built bool
}

// New returns a Builder seeded with defaults: a 30-day session TTL under
// the "clinicauth:session" prefix, audit and metrics disabled, and a nop
// logger.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithRedis sets the Redis client backing the session store.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithAccountService sets the external identity collaborator. Required.
func (b *Builder) WithAccountService(svc AccountService) *Builder {
	b.accounts = svc
	return b
}

// WithAuditSink sets the audit sink and enables audit dispatch.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	b.config.Audit.Enabled = sink != nil
	return b
}

// WithLogger sets the structured logger. Defaults to zap.NewNop.
func (b *Builder) WithLogger(logger *zap.Logger) *Builder {
	b.logger = logger
	return b
}

// WithMetricsEnabled toggles counter collection.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build validates the configuration and returns a ready [Manager] in
// [PhaseUnauthenticated]. Build performs no I/O.
func (b *Builder) Build() (*Manager, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	if b.redis == nil {
		return nil, errors.New("redis client required")
	}
	if b.accounts == nil {
		return nil, errors.New("account service required")
	}
	if err := b.config.Validate(); err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	m := &Manager{
		config:   b.config,
		store:    store.New(b.redis, b.config.Store.KeyPrefix, b.config.Store.TTL),
		accounts: b.accounts,
		logger:   logger,
		validate: validator.New(),
		metrics:  newMetrics(b.config.Metrics),
		phase:    PhaseUnauthenticated,
	}
	m.audit = internalaudit.NewDispatcher(internalaudit.Config{
		Enabled:    b.config.Audit.Enabled,
		BufferSize: b.config.Audit.BufferSize,
		DropIfFull: b.config.Audit.DropIfFull,
	}, b.auditSink, logger)

	b.built = true

	return m, nil
}
