package dbwatch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/travigo/lcplanner/pkg/ctdf"
)

type fakeCache struct {
	invalidated []string
	cleared     int
}

func (c *fakeCache) Invalidate(ctx context.Context, uri string) error {
	c.invalidated = append(c.invalidated, uri)
	return nil
}

func (c *fakeCache) InvalidateAll(ctx context.Context) error {
	c.cleared++
	return nil
}

func TestStationsWatchHandle(t *testing.T) {
	cache := &fakeCache{}
	watch := &StationsWatch{Cache: cache}
	ctx := context.Background()

	watch.handle(ctx, "insert", &ctdf.Station{ID: "http://irail.be/stations/NMBS/008811189"})
	watch.handle(ctx, "update", &ctdf.Station{ID: "http://irail.be/stations/NMBS/008891009"})
	assert.Equal(t, []string{
		"http://irail.be/stations/NMBS/008811189",
		"http://irail.be/stations/NMBS/008891009",
	}, cache.invalidated)
	assert.Zero(t, cache.cleared)

	watch.handle(ctx, "delete", nil)
	// an update whose document was removed before the lookup
	watch.handle(ctx, "update", nil)
	assert.Equal(t, 2, cache.cleared)
}
