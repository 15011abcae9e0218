package http

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/bft-labs/appship/internal/domain"
	"github.com/bft-labs/appship/internal/ports"
)

// DefaultDestination is the destination used when none is given.
const DefaultDestination = "default"

// ResolverConfig holds the destinations known to a resolver.
type ResolverConfig struct {
	// Destinations maps a destination name to its database URLs
	Destinations map[string][]string

	// DefaultServer is the server bare database names are created on
	DefaultServer string
}

// Resolver implements ports.DestinationResolver. Resolved databases are
// created if missing and cached for the lifetime of the resolver.
type Resolver struct {
	cfg    ResolverConfig
	client ports.HTTPClient
	logger ports.Logger

	mu  sync.Mutex
	dbs map[string]*Database
}

// NewResolver creates a resolver.
func NewResolver(cfg ResolverConfig, client ports.HTTPClient, logger ports.Logger) *Resolver {
	return &Resolver{
		cfg:    cfg,
		client: client,
		logger: logger,
		dbs:    make(map[string]*Database),
	}
}

// Resolve returns the databases behind dest.
//
// An empty dest selects the "default" destination. A configured name maps to
// its URLs, an http(s) URL is used as is and any other string names a
// database on the default server.
func (r *Resolver) Resolve(ctx context.Context, dest string) ([]ports.Database, error) {
	urls, err := r.urls(dest)
	if err != nil {
		return nil, err
	}

	dbs := make([]ports.Database, 0, len(urls))
	for _, u := range urls {
		db, err := r.open(ctx, u)
		if err != nil {
			return nil, err
		}
		dbs = append(dbs, db)
	}
	return dbs, nil
}

func (r *Resolver) urls(dest string) ([]string, error) {
	name := dest
	if name == "" {
		name = DefaultDestination
	}
	if urls := r.cfg.Destinations[name]; len(urls) > 0 {
		return urls, nil
	}
	if strings.HasPrefix(dest, "http://") || strings.HasPrefix(dest, "https://") {
		return []string{dest}, nil
	}
	if dest != "" && r.cfg.DefaultServer != "" {
		return []string{strings.TrimRight(r.cfg.DefaultServer, "/") + "/" + url.PathEscape(dest)}, nil
	}
	if dest == "" {
		return nil, fmt.Errorf("%w: no %q destination configured", domain.ErrNoDestination, DefaultDestination)
	}
	return nil, fmt.Errorf("%w: %q", domain.ErrNoDestination, dest)
}

func (r *Resolver) open(ctx context.Context, rawURL string) (*Database, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if db, ok := r.dbs[rawURL]; ok {
		return db, nil
	}

	db, err := NewDatabase(rawURL, r.client, r.logger)
	if err != nil {
		return nil, err
	}
	if err := db.EnsureExists(ctx); err != nil {
		return nil, fmt.Errorf("open %s: %w", db.Name(), err)
	}
	r.dbs[rawURL] = db
	return db, nil
}
