package tenant_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peoplekit/peoplekit/pkg/tenant"
)

func testTenant(id string) *tenant.Tenant {
	return &tenant.Tenant{ID: id, Name: id, Status: tenant.StatusActive}
}

func TestContext(t *testing.T) {
	t.Parallel()

	t.Run("empty context has no tenant", func(t *testing.T) {
		t.Parallel()

		_, ok := tenant.FromContext(context.Background())
		assert.False(t, ok)

		_, ok = tenant.IDFromContext(context.Background())
		assert.False(t, ok)
	})

	t.Run("with tenant round trip", func(t *testing.T) {
		t.Parallel()

		want := testTenant("acme")
		ctx := tenant.WithTenant(context.Background(), want)

		got, ok := tenant.FromContext(ctx)
		require.True(t, ok)
		assert.Equal(t, want, got)

		id, ok := tenant.IDFromContext(ctx)
		require.True(t, ok)
		assert.Equal(t, "acme", id)
	})

	t.Run("clear tenant removes scope", func(t *testing.T) {
		t.Parallel()

		ctx := tenant.WithTenant(context.Background(), testTenant("acme"))
		ctx = tenant.ClearTenant(ctx)

		_, ok := tenant.FromContext(ctx)
		assert.False(t, ok)
	})

	t.Run("must from context panics when absent", func(t *testing.T) {
		t.Parallel()

		assert.Panics(t, func() {
			tenant.MustFromContext(context.Background())
		})
	})
}

func TestRunWithTenant(t *testing.T) {
	t.Parallel()

	t.Run("scope visible inside fn", func(t *testing.T) {
		t.Parallel()

		err := tenant.RunWithTenant(context.Background(), testTenant("acme"), func(ctx context.Context) error {
			id, ok := tenant.IDFromContext(ctx)
			require.True(t, ok)
			assert.Equal(t, "acme", id)
			return nil
		})
		require.NoError(t, err)
	})

	t.Run("nested scopes shadow and revert", func(t *testing.T) {
		t.Parallel()

		outer := context.Background()
		err := tenant.RunWithTenant(outer, testTenant("outer_corp"), func(ctx context.Context) error {
			outerCtx := ctx

			err := tenant.RunWithTenant(ctx, testTenant("inner_corp"), func(ctx context.Context) error {
				id, _ := tenant.IDFromContext(ctx)
				assert.Equal(t, "inner_corp", id)
				return nil
			})
			require.NoError(t, err)

			// The inner scope ended with its function; the outer context is untouched.
			id, _ := tenant.IDFromContext(outerCtx)
			assert.Equal(t, "outer_corp", id)
			return nil
		})
		require.NoError(t, err)

		_, ok := tenant.FromContext(outer)
		assert.False(t, ok)
	})

	t.Run("scope survives spawned goroutines", func(t *testing.T) {
		t.Parallel()

		err := tenant.RunWithTenant(context.Background(), testTenant("acme"), func(ctx context.Context) error {
			var wg sync.WaitGroup
			ids := make([]string, 3)
			for i := range ids {
				wg.Add(1)
				go func() {
					defer wg.Done()
					ids[i], _ = tenant.IDFromContext(ctx)
				}()
			}
			wg.Wait()
			for _, id := range ids {
				assert.Equal(t, "acme", id)
			}
			return nil
		})
		require.NoError(t, err)
	})

	t.Run("concurrent request trees are isolated", func(t *testing.T) {
		t.Parallel()

		const iterations = 200
		var wg sync.WaitGroup
		for _, id := range []string{"tenant_a", "tenant_b"} {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for range iterations {
					err := tenant.RunWithTenant(context.Background(), testTenant(id), func(ctx context.Context) error {
						got, ok := tenant.IDFromContext(ctx)
						require.True(t, ok)
						require.Equal(t, id, got)
						return nil
					})
					require.NoError(t, err)
				}
			}()
		}
		wg.Wait()
	})
}
