package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// MonthlyBudget limita gasto mensual estimado (en yenes) de llamadas a
// servicios pagos. Un límite sin configurar deniega todo.
type MonthlyBudget interface {
	CanSpend(now time.Time) bool
	Record(now time.Time)
}

type memoryMonthlyBudget struct {
	mu       sync.Mutex
	costYen  int
	limitYen int
	counts   map[string]int
}

// NewMemoryMonthlyBudget crea un presupuesto mensual en memoria.
// El contador se pierde al reiniciar, alcanza para evitar accidentes.
func NewMemoryMonthlyBudget(costYen, limitYen int) MonthlyBudget {
	if costYen <= 0 {
		costYen = 1
	}
	return &memoryMonthlyBudget{
		costYen:  costYen,
		limitYen: limitYen,
		counts:   make(map[string]int),
	}
}

func (b *memoryMonthlyBudget) CanSpend(now time.Time) bool {
	if b.limitYen <= 0 {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.counts[monthKey(now)]*b.costYen < b.limitYen
}

func (b *memoryMonthlyBudget) Record(now time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.counts[monthKey(now)]++
}

const redisBudgetRecordScript = `
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("EXPIRE", KEYS[1], ARGV[1])
end
return current
`

// Las claves mensuales viven 40 días: sobra para cerrar el mes y no
// acumula basura en redis.
const redisBudgetKeyTTL = 40 * 24 * time.Hour

type redisMonthlyBudget struct {
	client   redisBudgetClient
	prefix   string
	costYen  int
	limitYen int
	failOpen bool
}

type redisBudgetClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

// NewRedisMonthlyBudget crea un presupuesto mensual respaldado en redis,
// compartido entre réplicas. failOpen decide qué pasa si redis no responde.
func NewRedisMonthlyBudget(client *redis.Client, prefix string, costYen, limitYen int, failOpen bool) MonthlyBudget {
	if client == nil {
		return nil
	}
	if costYen <= 0 {
		costYen = 1
	}
	return &redisMonthlyBudget{
		client:   client,
		prefix:   prefix,
		costYen:  costYen,
		limitYen: limitYen,
		failOpen: failOpen,
	}
}

func (b *redisMonthlyBudget) CanSpend(now time.Time) bool {
	if b == nil || b.client == nil {
		return false
	}
	if b.limitYen <= 0 {
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	count, err := b.client.Get(ctx, b.key(now)).Int()
	if err != nil {
		if err == redis.Nil {
			return true
		}
		return b.failOpen
	}
	return count*b.costYen < b.limitYen
}

func (b *redisMonthlyBudget) Record(now time.Time) {
	if b == nil || b.client == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	seconds := int(redisBudgetKeyTTL.Seconds())
	_ = b.client.Eval(ctx, redisBudgetRecordScript, []string{b.key(now)}, seconds).Err()
}

func (b *redisMonthlyBudget) key(now time.Time) string {
	return b.prefix + monthKey(now)
}

func monthKey(now time.Time) string {
	y, m, _ := now.UTC().Date()
	return fmt.Sprintf("%04d-%02d", y, int(m))
}
