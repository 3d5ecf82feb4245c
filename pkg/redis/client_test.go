package redis

import (
	"context"
	"fmt"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryHook answers GET, SET and DEL from a map so the client contract can
// be checked without a server.
type memoryHook struct {
	mu   sync.Mutex
	data map[string]string
	ttls map[string]time.Duration
}

func newMemoryHook() *memoryHook {
	return &memoryHook{data: make(map[string]string), ttls: make(map[string]time.Duration)}
}

func (h *memoryHook) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return nil, fmt.Errorf("dial %s: not allowed in tests", addr)
	}
}

func (h *memoryHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

func (h *memoryHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		h.mu.Lock()
		defer h.mu.Unlock()

		args := cmd.Args()
		switch c := cmd.(type) {
		case *redis.StringCmd: // GET
			v, ok := h.data[args[1].(string)]
			if !ok {
				c.SetErr(redis.Nil)
				return redis.Nil
			}
			c.SetVal(v)
		case *redis.StatusCmd: // SET key value [ex seconds]
			key := args[1].(string)
			h.data[key] = string(args[2].([]byte))
			if len(args) == 5 {
				h.ttls[key] = time.Duration(args[4].(int64)) * time.Second
			}
			c.SetVal("OK")
		case *redis.IntCmd: // DEL
			var n int64
			for _, k := range args[1:] {
				if _, ok := h.data[k.(string)]; ok {
					delete(h.data, k.(string))
					n++
				}
			}
			c.SetVal(n)
		default:
			return fmt.Errorf("unexpected command %v", args)
		}
		return nil
	}
}

func newTestClient(t *testing.T) (*Client, *memoryHook) {
	t.Helper()

	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
	hook := newMemoryHook()
	rdb.AddHook(hook)

	c := NewWithClient(rdb, time.Minute)
	t.Cleanup(c.Close)
	return c, hook
}

func TestBuildSheetKey(t *testing.T) {
	assert.Equal(t, "pricing:sheet:base-pricing.csv", buildSheetKey("base-pricing.csv"))
}

func TestClient_MissIsNilWithoutError(t *testing.T) {
	c, _ := newTestClient(t)

	data, err := c.GetSheet(context.Background(), "base-pricing.csv")
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestClient_SetGetInvalidate(t *testing.T) {
	c, hook := newTestClient(t)
	ctx := context.Background()
	sheet := []byte("Square Inches,Base Price\n9,1.36\n")

	require.NoError(t, c.SetSheet(ctx, "base-pricing.csv", sheet))
	assert.Equal(t, time.Minute, hook.ttls["pricing:sheet:base-pricing.csv"])

	got, err := c.GetSheet(ctx, "base-pricing.csv")
	require.NoError(t, err)
	assert.Equal(t, sheet, got)

	require.NoError(t, c.InvalidateSheet(ctx, "base-pricing.csv"))
	got, err = c.GetSheet(ctx, "base-pricing.csv")
	require.NoError(t, err)
	assert.Nil(t, got, "invalidated sheet reads as a miss")
}

func TestClient_UnreachableServer(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		MaxRetries:  -1,
		DialTimeout: 100 * time.Millisecond,
	})
	c := NewWithClient(rdb, time.Minute)
	defer c.Close()

	ctx := context.Background()

	data, err := c.GetSheet(ctx, "base-pricing.csv")
	assert.Error(t, err, "a connection failure is not a cache miss")
	assert.Nil(t, data)

	assert.Error(t, c.SetSheet(ctx, "base-pricing.csv", []byte("x")))
	assert.Error(t, c.Ping(ctx))
}
