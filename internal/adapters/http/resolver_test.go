package http

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	logAdapter "github.com/bft-labs/appship/internal/adapters/log"
	"github.com/bft-labs/appship/internal/domain"
	"github.com/bft-labs/appship/internal/ports"
)

func TestResolver_Resolve(t *testing.T) {
	_, ts := newFakeCouch(t)

	cfg := ResolverConfig{
		Destinations: map[string][]string{
			"default": {ts.URL + "/dev"},
			"prod":    {ts.URL + "/prod1", ts.URL + "/prod2"},
		},
		DefaultServer: ts.URL + "/",
	}

	tests := []struct {
		name string
		dest string
		want []string
	}{
		{name: "empty selects default", dest: "", want: []string{ts.URL + "/dev"}},
		{name: "named", dest: "prod", want: []string{ts.URL + "/prod1", ts.URL + "/prod2"}},
		{name: "literal url", dest: ts.URL + "/other", want: []string{ts.URL + "/other"}},
		{name: "bare database name", dest: "scratch", want: []string{ts.URL + "/scratch"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver(cfg, http.DefaultClient, logAdapter.NewNoopLogger())
			dbs, err := r.Resolve(context.Background(), tt.dest)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ports.DatabaseNames(dbs))
		})
	}
}

func TestResolver_CreatesOnce(t *testing.T) {
	fc, ts := newFakeCouch(t)
	r := NewResolver(ResolverConfig{}, http.DefaultClient, logAdapter.NewNoopLogger())

	for i := 0; i < 2; i++ {
		_, err := r.Resolve(context.Background(), ts.URL+"/blog")
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"PUT /blog"}, fc.requests)
	assert.Contains(t, fc.dbs, "blog")
}

func TestResolver_NoDestination(t *testing.T) {
	r := NewResolver(ResolverConfig{}, http.DefaultClient, logAdapter.NewNoopLogger())

	_, err := r.Resolve(context.Background(), "")
	assert.True(t, errors.Is(err, domain.ErrNoDestination))

	_, err = r.Resolve(context.Background(), "scratch")
	assert.True(t, errors.Is(err, domain.ErrNoDestination))
}

func TestResolver_NameWithSlash(t *testing.T) {
	fc, ts := newFakeCouch(t)
	r := NewResolver(ResolverConfig{DefaultServer: ts.URL}, http.DefaultClient, logAdapter.NewNoopLogger())

	dbs, err := r.Resolve(context.Background(), "team/blog")
	require.NoError(t, err)
	require.Len(t, dbs, 1)

	assert.Equal(t, ts.URL+"/team%2Fblog", dbs[0].Name())
	assert.Equal(t, []string{"PUT /team%2Fblog"}, fc.requests)
	assert.Contains(t, fc.dbs, "team%2Fblog")
}
