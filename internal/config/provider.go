package config

import (
	"errors"
	"os"
	"strconv"
	"sync"
)

// Keys read by MongoFromProvider. The timeout key is optional.
const (
	KeyConnectionString = "MONGODB_CONNECTION_STRING"
	KeyDatabaseName     = "MONGODB_DATABASE_NAME"
	KeyConnectTimeout   = "MONGODB_CONNECT_TIMEOUT_SEC"
)

// DefaultConnectTimeoutSec applies when KeyConnectTimeout is absent or not an integer.
const DefaultConnectTimeoutSec = 10

var (
	ErrConnectionStringRequired = errors.New("mongodb connection string is required")
	ErrDatabaseNameRequired     = errors.New("mongodb database name is required")
)

// Provider is a string-valued configuration source.
type Provider interface {
	// Get returns the value stored under key and whether it was present.
	Get(key string) (string, bool)
}

// EnvProvider reads values from the process environment.
type EnvProvider struct{}

// Get implements Provider. Empty variables are reported as absent.
func (EnvProvider) Get(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// MapProvider is an in-memory Provider, optionally layered over a fallback.
// It is safe for concurrent use.
type MapProvider struct {
	mu       sync.RWMutex
	values   map[string]string
	fallback Provider
}

// NewMapProvider creates a MapProvider. Lookups that miss the map are
// delegated to fallback when it is non-nil.
func NewMapProvider(fallback Provider) *MapProvider {
	return &MapProvider{values: make(map[string]string), fallback: fallback}
}

// Get implements Provider.
func (p *MapProvider) Get(key string) (string, bool) {
	p.mu.RLock()
	v, ok := p.values[key]
	p.mu.RUnlock()
	if ok {
		return v, true
	}
	if p.fallback != nil {
		return p.fallback.Get(key)
	}
	return "", false
}

// Set stores value under key, shadowing the fallback.
func (p *MapProvider) Set(key, value string) {
	p.mu.Lock()
	p.values[key] = value
	p.mu.Unlock()
}

// MongoFromProvider builds a MongoConfig from the connection string and
// database name keys, plus the optional connect timeout.
func MongoFromProvider(p Provider) (MongoConfig, error) {
	uri, ok := p.Get(KeyConnectionString)
	if !ok || uri == "" {
		return MongoConfig{}, ErrConnectionStringRequired
	}
	name, ok := p.Get(KeyDatabaseName)
	if !ok || name == "" {
		return MongoConfig{}, ErrDatabaseNameRequired
	}

	timeout := DefaultConnectTimeoutSec
	if v, ok := p.Get(KeyConnectTimeout); ok {
		if n, err := strconv.Atoi(v); err == nil {
			timeout = n
		}
	}
	return MongoConfig{ConnectionString: uri, DatabaseName: name, ConnectTimeoutSec: timeout}, nil
}
