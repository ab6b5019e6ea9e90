package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smallnest/planweave/plan"
	"github.com/smallnest/planweave/store"
)

func TestRedisPlanStore(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	s := NewRedisPlanStore(RedisOptions{Addr: mr.Addr()})
	defer s.Close()

	ctx := context.Background()

	record := &store.PlanRecord{
		PlanID: "plan-1",
		Task:   "research topic",
		Plan: &plan.Plan{SubTasks: []plan.SubTask{
			{Name: "search", Input: "search the web", Dependencies: []string{}},
			{Name: "summarize", Input: "summarize findings", Dependencies: []string{"search"}},
		}},
		UpdatedAt: time.Now().UTC(),
		Version:   0,
	}

	require.NoError(t, s.Save(ctx, record))

	loaded, err := s.Load(ctx, "plan-1")
	require.NoError(t, err)
	assert.Equal(t, "research topic", loaded.Task)
	require.Len(t, loaded.Plan.SubTasks, 2)
	assert.Equal(t, []string{"search"}, loaded.Plan.SubTasks[1].Dependencies)

	ids, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"plan-1"}, ids)

	require.NoError(t, s.Delete(ctx, "plan-1"))
	_, err = s.Load(ctx, "plan-1")
	assert.True(t, errors.Is(err, store.ErrRecordNotFound))

	ids, err = s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestRedisPlanStoreTTL(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	s := NewRedisPlanStore(RedisOptions{Addr: mr.Addr(), TTL: time.Minute})
	defer s.Close()

	ctx := context.Background()
	record := &store.PlanRecord{
		PlanID:    "plan-ttl",
		Task:      "task",
		Plan:      &plan.Plan{SubTasks: []plan.SubTask{{Name: "a"}}},
		UpdatedAt: time.Now().UTC(),
	}
	require.NoError(t, s.Save(ctx, record))

	// After the TTL elapses the record is gone.
	mr.FastForward(2 * time.Minute)
	_, err = s.Load(ctx, "plan-ttl")
	assert.True(t, errors.Is(err, store.ErrRecordNotFound))
}
