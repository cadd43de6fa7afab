package ai

import (
	"errors"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// BackendFactory builds the backend for a validated config.
type BackendFactory func(cfg AgentConfig) (Backend, error)

// Registry maps roles to agents. It is filled during startup and only read
// afterwards, so resolution needs no locking.
type Registry struct {
	agents  map[string]Agent
	factory BackendFactory
	logger  *zap.Logger
}

// NewRegistry builds one agent per configured role. Any invalid config or
// missing credential aborts construction.
func NewRegistry(configs map[string]AgentConfig, factory BackendFactory, log *zap.Logger) (*Registry, error) {
	if log == nil {
		log = zap.NewNop()
	}
	r := &Registry{
		agents:  make(map[string]Agent, len(configs)),
		factory: factory,
		logger:  log,
	}

	roles := make([]string, 0, len(configs))
	for role := range configs {
		roles = append(roles, role)
	}
	sort.Strings(roles)

	for _, role := range roles {
		if err := r.Register(role, configs[role]); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// Register adds an agent for role. Call it only before the registry is shared.
func (r *Registry) Register(role string, cfg AgentConfig) error {
	role = normalizeRole(role)
	if role == "" {
		return &ConfigError{Kind: ErrInvalidConfig, Err: errEmptyRole}
	}
	if _, ok := r.agents[role]; ok {
		return &ConfigError{Kind: ErrDuplicateRole, Role: role}
	}

	cfg.Role = role
	provider, err := ParseProvider(string(cfg.Provider))
	if err != nil {
		return &ConfigError{Kind: ErrInvalidConfig, Role: role, Err: err}
	}
	cfg.Provider = provider
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return &ConfigError{Kind: ErrInvalidConfig, Role: role, Provider: provider, Err: err}
	}

	if r.factory == nil {
		return &ConfigError{Kind: ErrInvalidConfig, Role: role, Err: errNoFactory}
	}

	backend, err := r.factory(cfg)
	if err != nil {
		var ce *ConfigError
		if errors.As(err, &ce) {
			if ce.Role == "" {
				ce.Role = role
			}
			return ce
		}
		return &ConfigError{Kind: ErrInvalidConfig, Role: role, Provider: provider, Err: err}
	}

	r.agents[role] = NewClient(cfg, backend, r.logger)
	r.logger.Debug("registered agent",
		zap.String("role", role),
		zap.String("provider", string(provider)),
		zap.String("model", cfg.Model),
	)
	return nil
}

// Resolve returns the agent bound to role.
func (r *Registry) Resolve(role string) (Agent, error) {
	role = normalizeRole(role)
	agent, ok := r.agents[role]
	if !ok {
		return nil, &ConfigError{Kind: ErrUnknownRole, Role: role}
	}
	return agent, nil
}

// Has reports whether role is configured.
func (r *Registry) Has(role string) bool {
	_, ok := r.agents[normalizeRole(role)]
	return ok
}

// Roles lists the registered roles in sorted order.
func (r *Registry) Roles() []string {
	roles := make([]string, 0, len(r.agents))
	for role := range r.agents {
		roles = append(roles, role)
	}
	sort.Strings(roles)
	return roles
}

func normalizeRole(role string) string {
	return strings.ToLower(strings.TrimSpace(role))
}
