package di

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-entity-client/entity"
	"github.com/goliatone/go-entity-client/pkg/testsupport"
	"github.com/goliatone/go-entity-client/resolver"
	"github.com/goliatone/go-entity-client/transport"
)

type task struct {
	entity.BaseEntity
	Title string `json:"title"`
}

func inMemoryDefinition(name string, records map[entity.ID]task) resolver.Definition[task] {
	return resolver.Definition[task]{
		Name:      name,
		Transport: resolver.KindServerActions,
		Actions: transport.Actions[task]{
			Get: func(ctx context.Context, id entity.ID) (task, error) {
				rec, ok := records[id]
				if !ok {
					return task{}, entity.NewNotFoundError(name, id)
				}
				return rec, nil
			},
			List: func(ctx context.Context, params entity.ListParams) (entity.ListResult[task], error) {
				data := make([]task, 0, len(records))
				for _, rec := range records {
					data = append(data, rec)
				}
				return entity.ListResult[task]{
					Data: data,
					Meta: entity.ListMeta{Total: len(data)},
				}, nil
			},
		},
	}
}

func TestNewContainer_RejectsBadConfig(t *testing.T) {
	_, err := NewContainer(Config{SweepInterval: -1})
	require.Error(t, err)
}

func TestContainer_SharedSingletons(t *testing.T) {
	c, err := NewContainerWithDefaults()
	require.NoError(t, err)
	defer c.Close()

	assert.NotNil(t, c.Store())
	assert.NotNil(t, c.KeySerializer())
	assert.NotNil(t, c.Registry())
	assert.Same(t, c.Store(), c.Store(), "store is a singleton")
	assert.Equal(t, DefaultConfig().SweepInterval, c.Config().SweepInterval)
}

func TestResolveOps_EndToEnd(t *testing.T) {
	clock := testsupport.NewClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	c, err := NewContainer(Config{Clock: clock.Now})
	require.NoError(t, err)
	defer c.Close()

	records := map[entity.ID]task{
		"k1": {BaseEntity: entity.BaseEntity{ID: "k1"}, Title: "write report"},
	}
	ops, err := ResolveOps(c, inMemoryDefinition("task", records))
	require.NoError(t, err)

	res := ops.Get(context.Background(), "k1")
	require.True(t, res.OK(), "Get failed: %v", res.Err)
	assert.Equal(t, "write report", res.Data.Title)

	// Second read within the staleness window comes from the container's
	// shared store.
	delete(records, "k1")
	again := ops.Get(context.Background(), "k1")
	require.True(t, again.OK())
	assert.Equal(t, "write report", again.Data.Title)
}

func TestResolveOps_PropagatesResolveError(t *testing.T) {
	c, err := NewContainerWithDefaults()
	require.NoError(t, err)
	defer c.Close()

	_, err = ResolveOps(c, resolver.Definition[task]{Name: "task", Transport: resolver.Kind("bogus")})
	require.Error(t, err)
	assert.True(t, entity.IsConfigError(err))
}

func TestTwoFacadesShareOneStore(t *testing.T) {
	c, err := NewContainerWithDefaults()
	require.NoError(t, err)
	defer c.Close()

	calls := 0
	def := resolver.Definition[task]{
		Name:      "task",
		Transport: resolver.KindServerActions,
		Actions: transport.Actions[task]{
			Get: func(ctx context.Context, id entity.ID) (task, error) {
				calls++
				return task{BaseEntity: entity.BaseEntity{ID: id}}, nil
			},
		},
	}

	first, err := ResolveOps(c, def)
	require.NoError(t, err)
	second, err := ResolveOps(c, def)
	require.NoError(t, err)

	first.Get(context.Background(), "k1")
	res := second.Get(context.Background(), "k1")
	require.True(t, res.OK())
	assert.Equal(t, 1, calls, "both facades read through the same cache")
}

func TestContainer_RegistryFlow(t *testing.T) {
	c, err := NewContainerWithDefaults()
	require.NoError(t, err)
	defer c.Close()

	v := entity.NewOzzoValidator()
	def := inMemoryDefinition("task", nil)
	def.Validator = v
	require.NoError(t, resolver.Register(c.Registry(), def))
	c.Registry().Freeze()

	cfg, err := resolver.ResolveFromRegistry[task](c.Registry(), v)
	require.NoError(t, err)

	ops := NewOps(c, cfg)
	assert.Equal(t, "task", ops.Metadata().Name)
	assert.True(t, ops.Metadata().Flags.CanGet)
	assert.False(t, ops.Metadata().Flags.CanDelete)
}
