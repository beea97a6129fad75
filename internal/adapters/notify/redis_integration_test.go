//go:build integration

package notify

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"

	"github.com/phenrril/rodada/internal/domain"
)

func TestRedisFeedRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()
	ctr, err := tcredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(ctr) })

	url, err := ctr.ConnectionString(ctx)
	require.NoError(t, err)
	client, err := DialRedis(ctx, url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	feed := NewRedisFeed(client, "")
	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	ch, err := feed.Subscribe(subCtx)
	require.NoError(t, err)

	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, feed.Publish(ctx, domain.Change{Kind: domain.ChangeCompanyDeleted, Key: "123", At: at}))

	got := recv(t, ch)
	assert.Equal(t, domain.ChangeCompanyDeleted, got.Kind)
	assert.Equal(t, "123", got.Key)
	assert.True(t, at.Equal(got.At))

	cancel()
	assert.Eventually(t, func() bool {
		_, ok := <-ch
		return !ok
	}, 2*time.Second, 20*time.Millisecond)
}
