package fixture_test

import (
	"bytes"
	"errors"
	"log/slog"
	"reflect"
	"testing"
	"time"

	"github.com/arllen133/fixture"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Named interface {
	GetName() string
}

type Customer struct {
	ID        int64
	Name      string
	Email     string
	Birthday  *time.Time
	Score     *int
	CreatedAt time.Time
}

func (c Customer) GetName() string { return c.Name }

type Supplier struct {
	ID   int64
	Name string
}

func (s *Supplier) GetName() string { return s.Name }

type Product struct {
	ID   int64
	Name string
}

type stubNamer struct{ calls int }

func (n *stubNamer) SetValuesOf(any) error            { n.calls++; return nil }
func (n *stubNamer) SetValuesOfAll(objs ...any) error { n.calls += len(objs); return nil }

func TestResetToDefaults(t *testing.T) {
	s := fixture.NewSettings()

	s.AutoNameProperties = false
	s.BuildAllNullablesAsNull(true)
	require.NoError(t, fixture.SetPropertyNamerFor[Customer](s, &stubNamer{}))
	require.NoError(t, fixture.DisablePropertyNamingForField(s, func(c *Customer) *string { return &c.Name }))
	fixture.BuildNullableAsNull[int](s)
	custom := fixture.NewPersistenceService()
	s.SetPersistenceService(custom)

	s.ResetToDefaults()

	assert.True(t, s.AutoNameProperties)
	assert.False(t, s.IsBuildingAllNullablesAsNull())
	assert.False(t, s.HasDisabledProperties())
	assert.Same(t, s.DefaultPropertyNamer(), fixture.PropertyNamerFor[Customer](s))
	assert.IsType(t, &fixture.SequentialNamer{}, s.DefaultPropertyNamer())
	assert.NotSame(t, custom, s.PersistenceService())

	name, err := fixture.PropertyNamed[Customer]("Name")
	require.NoError(t, err)
	assert.False(t, s.ShouldIgnoreProperty(name))

	score, err := fixture.PropertyNamed[Customer]("Score")
	require.NoError(t, err)
	assert.False(t, s.ShouldBuildNullableTypeAsNull(score))

	t.Run("idempotent", func(t *testing.T) {
		s.ResetToDefaults()
		assert.True(t, s.AutoNameProperties)
		assert.False(t, s.HasDisabledProperties())
	})
}

func TestPropertyNamerFor(t *testing.T) {
	s := fixture.NewSettings()
	def := s.DefaultPropertyNamer()

	t.Run("falls back to default", func(t *testing.T) {
		assert.Same(t, def, fixture.PropertyNamerFor[Customer](s))
		assert.Same(t, def, fixture.PropertyNamerFor[Product](s))
	})

	t.Run("override", func(t *testing.T) {
		override := &stubNamer{}
		require.NoError(t, fixture.SetPropertyNamerFor[Customer](s, override))

		assert.Same(t, override, fixture.PropertyNamerFor[Customer](s))
		assert.Same(t, override, s.PropertyNamerForType(reflect.TypeFor[Customer]()))
		assert.Same(t, def, fixture.PropertyNamerFor[Product](s))
	})

	t.Run("duplicate registration fails", func(t *testing.T) {
		first := fixture.PropertyNamerFor[Customer](s)
		err := fixture.SetPropertyNamerFor[Customer](s, &stubNamer{})
		require.Error(t, err)
		assert.True(t, errors.Is(err, fixture.ErrDuplicateConfiguration))
		assert.Same(t, first, fixture.PropertyNamerFor[Customer](s))
	})

	t.Run("set default namer", func(t *testing.T) {
		replacement := &stubNamer{}
		s.SetDefaultPropertyNamer(replacement)
		assert.Same(t, replacement, fixture.PropertyNamerFor[Product](s))

		s.SetDefaultPropertyNamer(nil)
		assert.Nil(t, fixture.PropertyNamerFor[Product](s))
	})
}

func TestShouldIgnoreProperty(t *testing.T) {
	t.Run("exact declaring type", func(t *testing.T) {
		s := fixture.NewSettings()
		ref, err := fixture.PropertyNamed[Customer]("Name")
		require.NoError(t, err)

		s.DisablePropertyNamingFor(ref)

		assert.True(t, s.HasDisabledProperties())
		assert.True(t, s.ShouldIgnoreProperty(ref))
		assert.False(t, s.ShouldIgnoreProperty(fixture.MustPropertyNamed[Customer]("Email")))
		assert.False(t, s.ShouldIgnoreProperty(fixture.MustPropertyNamed[Product]("Name")))
	})

	t.Run("interface declaring type is covariant", func(t *testing.T) {
		s := fixture.NewSettings()
		ref, err := fixture.InterfaceProperty[Named]("Name")
		require.NoError(t, err)

		s.DisablePropertyNamingFor(ref)

		assert.True(t, s.ShouldIgnoreProperty(fixture.MustPropertyNamed[Customer]("Name")))
		// *Supplier implements Named with a pointer receiver.
		assert.True(t, s.ShouldIgnoreProperty(fixture.MustPropertyNamed[Supplier]("Name")))
		assert.False(t, s.ShouldIgnoreProperty(fixture.MustPropertyNamed[Product]("Name")))
		assert.False(t, s.ShouldIgnoreProperty(fixture.MustPropertyNamed[Customer]("Email")))
	})

	t.Run("accessor overload", func(t *testing.T) {
		s := fixture.NewSettings()
		require.NoError(t, fixture.DisablePropertyNamingForField(s, func(c *Customer) *string { return &c.Email }))

		assert.True(t, s.ShouldIgnoreProperty(fixture.MustPropertyNamed[Customer]("Email")))
		assert.False(t, s.ShouldIgnoreProperty(fixture.MustPropertyNamed[Customer]("Name")))
	})

	t.Run("invalid accessor", func(t *testing.T) {
		s := fixture.NewSettings()
		other := "elsewhere"
		err := fixture.DisablePropertyNamingForField(s, func(*Customer) *string { return &other })

		assert.ErrorIs(t, err, fixture.ErrInvalidPropertyExpression)
		assert.False(t, s.HasDisabledProperties())
	})
}

func TestNullableRules(t *testing.T) {
	s := fixture.NewSettings()
	score := fixture.MustPropertyNamed[Customer]("Score")
	birthday := fixture.MustPropertyNamed[Customer]("Birthday")

	assert.False(t, s.ShouldBuildNullableTypeAsNull(score))

	s.BuildNullableTypeAsNull(reflect.TypeFor[*int]())
	assert.True(t, s.ShouldBuildNullableTypeAsNull(score))
	assert.False(t, s.ShouldBuildNullableTypeAsNull(birthday))

	fixture.BuildNullableAsNull[time.Time](s)
	assert.True(t, s.ShouldBuildNullableTypeAsNull(birthday))

	assert.False(t, s.IsBuildingAllNullablesAsNull())
	s.BuildAllNullablesAsNull(true)
	assert.True(t, s.IsBuildingAllNullablesAsNull())
}

func TestWithLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	s := fixture.NewSettings(fixture.WithLogger(logger))
	require.NoError(t, fixture.SetPropertyNamerFor[Customer](s, &stubNamer{}))
	require.Error(t, fixture.SetPropertyNamerFor[Customer](s, &stubNamer{}))

	out := buf.String()
	assert.Contains(t, out, "property namer registered")
	assert.Contains(t, out, "rejected duplicate property namer")
}

func TestOptions(t *testing.T) {
	namer := &stubNamer{}
	svc := fixture.NewPersistenceService()

	s := fixture.NewSettings(
		fixture.WithDefaultPropertyNamer(namer),
		fixture.WithPersistenceService(svc),
	)

	assert.Same(t, namer, s.DefaultPropertyNamer())
	assert.Same(t, svc, s.PersistenceService())
}
