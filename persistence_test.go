package fixture_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"reflect"
	"testing"

	"github.com/arllen133/fixture"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPersist(t *testing.T) {
	ctx := context.Background()
	s := fixture.NewSettings()

	var created, updated []string
	fixture.SetCreatePersistenceMethod(s, func(_ context.Context, p *Product) error {
		created = append(created, p.Name)
		return nil
	})
	fixture.SetUpdatePersistenceMethod(s, func(_ context.Context, p *Product) error {
		updated = append(updated, p.Name)
		return nil
	})

	a, b := &Product{}, &Product{}
	require.NoError(t, fixture.PropertyNamerFor[Product](s).SetValuesOfAll(a, b))
	require.NoError(t, fixture.Persist(ctx, s, a, b))
	assert.Equal(t, []string{"Name1", "Name2"}, created)

	a.Name = "renamed"
	require.NoError(t, fixture.PersistUpdates(ctx, s, a))
	assert.Equal(t, []string{"renamed"}, updated)
}

func TestPersist_NoMethod(t *testing.T) {
	ctx := context.Background()
	s := fixture.NewSettings()

	err := fixture.Persist(ctx, s, &Product{})
	assert.ErrorIs(t, err, fixture.ErrNoPersistenceMethod)

	fixture.SetCreatePersistenceMethod(s, func(context.Context, *Product) error { return nil })
	err = fixture.PersistUpdates(ctx, s, &Product{})
	assert.ErrorIs(t, err, fixture.ErrNoPersistenceMethod)
}

func TestPersist_StopsAtFirstError(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")
	s := fixture.NewSettings()

	calls := 0
	fixture.SetCreatePersistenceMethod(s, func(context.Context, *Product) error {
		calls++
		return boom
	})

	err := fixture.Persist(ctx, s, &Product{}, &Product{})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestPersistenceService_ReplacesMethods(t *testing.T) {
	ctx := context.Background()
	svc := fixture.NewPersistenceService()
	typ := reflect.TypeFor[Product]()

	var got string
	svc.SetPersistenceCreateMethod(typ, func(context.Context, any) error { got = "first"; return nil })
	svc.SetPersistenceCreateMethod(typ, func(context.Context, any) error { got = "second"; return nil })

	require.NoError(t, svc.Create(ctx, &Product{}))
	assert.Equal(t, "second", got)
}

func TestPersistenceService_WrongType(t *testing.T) {
	s := fixture.NewSettings()
	fixture.SetCreatePersistenceMethod(s, func(context.Context, *Product) error { return nil })

	// A Product value rather than *Product reaches the same method.
	err := s.PersistenceService().Create(context.Background(), Product{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "got fixture_test.Product")
}

func TestPersistenceService_Logging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	s := fixture.NewSettings(fixture.WithLogger(logger))
	fixture.SetCreatePersistenceMethod(s, func(context.Context, *Product) error { return errors.New("disk full") })

	_ = fixture.Persist(context.Background(), s, &Product{})
	assert.Contains(t, buf.String(), "persist failed")
	assert.Contains(t, buf.String(), "disk full")
}

func TestPersist_NoService(t *testing.T) {
	s := fixture.NewSettings()
	s.SetPersistenceService(nil)

	assert.Nil(t, s.PersistenceService())
	assert.ErrorIs(t, fixture.Persist(context.Background(), s, &Product{}), fixture.ErrNoPersistenceMethod)
	assert.ErrorIs(t, fixture.PersistUpdates(context.Background(), s, &Product{}), fixture.ErrNoPersistenceMethod)
}
