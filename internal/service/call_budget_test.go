package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestMemoryMonthlyBudget(t *testing.T) {
	now := time.Date(2026, 8, 15, 10, 0, 0, 0, time.UTC)

	t.Run("unset limit denies", func(t *testing.T) {
		b := NewMemoryMonthlyBudget(5, 0)
		if b.CanSpend(now) {
			t.Fatalf("expected deny with limit 0")
		}
	})

	t.Run("denies once limit is reached", func(t *testing.T) {
		b := NewMemoryMonthlyBudget(5, 10)
		if !b.CanSpend(now) {
			t.Fatalf("expected spend allowed at 0 yen")
		}
		b.Record(now)
		if !b.CanSpend(now) {
			t.Fatalf("expected spend allowed at 5 yen")
		}
		b.Record(now)
		if b.CanSpend(now) {
			t.Fatalf("expected deny at 10 yen")
		}
	})

	t.Run("counter is per month", func(t *testing.T) {
		b := NewMemoryMonthlyBudget(5, 10)
		b.Record(now)
		b.Record(now)
		nextMonth := now.AddDate(0, 1, 0)
		if !b.CanSpend(nextMonth) {
			t.Fatalf("expected fresh budget next month")
		}
	})
}

type mockRedisBudgetClient struct {
	getVal     string
	getErr     error
	lastScript string
	lastKeys   []string
	lastArgs   []interface{}
	evalErr    error
}

func (m *mockRedisBudgetClient) Get(ctx context.Context, key string) *redis.StringCmd {
	cmd := redis.NewStringCmd(ctx)
	m.lastKeys = []string{key}
	if m.getErr != nil {
		cmd.SetErr(m.getErr)
		return cmd
	}
	cmd.SetVal(m.getVal)
	return cmd
}

func (m *mockRedisBudgetClient) Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd {
	m.lastScript = script
	m.lastKeys = keys
	m.lastArgs = args
	cmd := redis.NewCmd(ctx)
	if m.evalErr != nil {
		cmd.SetErr(m.evalErr)
		return cmd
	}
	cmd.SetVal(int64(1))
	return cmd
}

func TestRedisMonthlyBudget_CanSpend(t *testing.T) {
	now := time.Date(2026, 8, 15, 10, 0, 0, 0, time.UTC)

	t.Run("missing key allows", func(t *testing.T) {
		b := &redisMonthlyBudget{
			client:   &mockRedisBudgetClient{getErr: redis.Nil},
			prefix:   "llm:budget:",
			costYen:  5,
			limitYen: 100,
		}
		if !b.CanSpend(now) {
			t.Fatalf("expected allow when counter does not exist")
		}
	})

	t.Run("count under limit allows", func(t *testing.T) {
		mock := &mockRedisBudgetClient{getVal: "3"}
		b := &redisMonthlyBudget{client: mock, prefix: "llm:budget:", costYen: 5, limitYen: 100}
		if !b.CanSpend(now) {
			t.Fatalf("expected allow at 15 yen of 100")
		}
		if len(mock.lastKeys) != 1 || mock.lastKeys[0] != "llm:budget:2026-08" {
			t.Fatalf("unexpected month key: %v", mock.lastKeys)
		}
	})

	t.Run("count at limit denies", func(t *testing.T) {
		b := &redisMonthlyBudget{
			client:   &mockRedisBudgetClient{getVal: "20"},
			prefix:   "llm:budget:",
			costYen:  5,
			limitYen: 100,
		}
		if b.CanSpend(now) {
			t.Fatalf("expected deny at 100 yen of 100")
		}
	})

	t.Run("unset limit denies", func(t *testing.T) {
		b := &redisMonthlyBudget{client: &mockRedisBudgetClient{getVal: "0"}, prefix: "x:", costYen: 5}
		if b.CanSpend(now) {
			t.Fatalf("expected deny with limit 0")
		}
	})

	t.Run("redis error honors failOpen", func(t *testing.T) {
		down := errors.New("redis down")
		open := &redisMonthlyBudget{client: &mockRedisBudgetClient{getErr: down}, prefix: "x:", costYen: 5, limitYen: 100, failOpen: true}
		if !open.CanSpend(now) {
			t.Fatalf("expected fail-open budget to allow")
		}
		closed := &redisMonthlyBudget{client: &mockRedisBudgetClient{getErr: down}, prefix: "x:", costYen: 5, limitYen: 100, failOpen: false}
		if closed.CanSpend(now) {
			t.Fatalf("expected fail-closed budget to deny")
		}
	})
}

func TestRedisMonthlyBudget_Record(t *testing.T) {
	now := time.Date(2026, 8, 15, 10, 0, 0, 0, time.UTC)
	mock := &mockRedisBudgetClient{}
	b := &redisMonthlyBudget{client: mock, prefix: "line:budget:", costYen: 5, limitYen: 100}

	b.Record(now)

	if mock.lastScript != redisBudgetRecordScript {
		t.Fatalf("expected record script to run")
	}
	if len(mock.lastKeys) != 1 || mock.lastKeys[0] != "line:budget:2026-08" {
		t.Fatalf("unexpected key: %v", mock.lastKeys)
	}
	if len(mock.lastArgs) != 1 || mock.lastArgs[0] != int(redisBudgetKeyTTL.Seconds()) {
		t.Fatalf("unexpected ttl args: %v", mock.lastArgs)
	}
}
