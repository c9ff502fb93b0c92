package tracks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ManuGH/playctl/internal/log"
	"github.com/ManuGH/playctl/internal/metrics"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// DecoderOracle queries the platform for decoder support. It may block.
type DecoderOracle interface {
	IsSupported(ctx context.Context, codec string, width, height int, frameRate float64) (bool, error)
}

// CachedOracle asks the DecoderOracle at most once per distinct format.
// Failed queries are logged and treated as supported.
type CachedOracle struct {
	oracle  DecoderOracle
	timeout time.Duration
	logger  zerolog.Logger

	group singleflight.Group
	mu    sync.RWMutex
	memo  map[string]bool
}

// NewCachedOracle wraps oracle. A zero timeout means 2s per query.
func NewCachedOracle(oracle DecoderOracle, timeout time.Duration) *CachedOracle {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &CachedOracle{
		oracle:  oracle,
		timeout: timeout,
		logger:  log.WithComponent("tracks"),
		memo:    make(map[string]bool),
	}
}

func formatKey(v Variant) string {
	return fmt.Sprintf("%s|%s|%dx%d|%.3f", v.MimeType, v.Codec, v.Width, v.Height, v.FrameRate)
}

// Supported implements Capabilities.
func (c *CachedOracle) Supported(v Variant) bool {
	if c == nil || c.oracle == nil {
		return true
	}
	codec := v.Codec
	if codec == "" {
		codec = v.MimeType
	}
	if codec == "" {
		return true
	}

	key := formatKey(v)
	c.mu.RLock()
	ok, hit := c.memo[key]
	c.mu.RUnlock()
	if hit {
		return ok
	}

	res, _, _ := c.group.Do(key, func() (any, error) {
		c.mu.RLock()
		ok, hit := c.memo[key]
		c.mu.RUnlock()
		if hit {
			return ok, nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
		defer cancel()

		supported, err := c.oracle.IsSupported(ctx, codec, v.Width, v.Height, v.FrameRate)
		if err != nil {
			metrics.RecordDecoderQueryFailure()
			c.logger.Debug().
				Err(err).
				Str(log.FieldEvent, "tracks.decoder_query_failed").
				Str(log.FieldCodec, codec).
				Int(log.FieldHeight, v.Height).
				Msg("decoder query failed, assuming supported")
			supported = true
		}

		c.mu.Lock()
		c.memo[key] = supported
		c.mu.Unlock()
		return supported, nil
	})
	return res.(bool)
}
