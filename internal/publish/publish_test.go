package publish

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/isobench/internal/config"
	"github.com/vk/isobench/internal/results"
)

func TestNew_NilConfigIsNop(t *testing.T) {
	t.Parallel()

	p, err := New(context.Background(), nil)
	require.NoError(t, err)
	assert.IsType(t, Nop{}, p)
	assert.NoError(t, p.Publish(context.Background(), results.Record{Solver: "RI"}))
	assert.NoError(t, p.Close())
}

func TestFunc_ForwardsRecords(t *testing.T) {
	t.Parallel()

	var got []results.Record
	p := Func(func(_ context.Context, r results.Record) error {
		got = append(got, r)
		return nil
	})

	require.NoError(t, p.Publish(context.Background(), results.Record{Solver: "VF3", Group: "1"}))
	assert.Equal(t, []results.Record{{Solver: "VF3", Group: "1"}}, got)
}

func TestDial_RejectsBadURL(t *testing.T) {
	t.Parallel()

	_, err := Dial(context.Background(), config.Publish{URL: "not a url"})
	assert.Error(t, err)
}

func TestDial_GivesUpWithContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := Dial(ctx, config.Publish{URL: "http://127.0.0.1:1/socket.io/"})

	assert.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
}
