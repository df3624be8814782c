package influxdb

import (
	"context"
	"fmt"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"

	"github.com/nerrad567/gray-logic-backplate/internal/infrastructure/config"
)

const pingTimeout = 5 * time.Second

// Client wraps the InfluxDB v2 client for telemetry recording.
//
// Writes go through the non-blocking WriteAPI, which batches points
// and flushes on the configured interval. Write errors surface on an
// internal channel and are forwarded to the OnError callback.
type Client struct {
	client   influxdb2.Client
	writeAPI api.WriteAPI
	cfg      config.InfluxDBConfig

	onError func(err error)
	errMu   sync.RWMutex

	closeOnce sync.Once
	done      chan struct{}
}

// Connect creates an InfluxDB client and verifies the server is reachable.
//
// Returns ErrDisabled when recording is turned off in configuration so
// callers can treat the recorder as optional.
func Connect(ctx context.Context, cfg config.InfluxDBConfig) (*Client, error) {
	if !cfg.Enabled {
		return nil, ErrDisabled
	}

	options := influxdb2.DefaultOptions().
		SetBatchSize(uint(cfg.BatchSize)).
		SetFlushInterval(uint(cfg.GetFlushInterval().Milliseconds()))

	client := influxdb2.NewClientWithOptions(cfg.URL, cfg.Token, options)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	ok, err := client.Ping(pingCtx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}
	if !ok {
		client.Close()
		return nil, fmt.Errorf("%w: ping returned not ready", ErrConnectionFailed)
	}

	c := &Client{
		client:   client,
		writeAPI: client.WriteAPI(cfg.Org, cfg.Bucket),
		cfg:      cfg,
		done:     make(chan struct{}),
	}

	go c.handleWriteErrors()

	return c, nil
}

// SetOnError sets a callback invoked for asynchronous write errors.
func (c *Client) SetOnError(callback func(err error)) {
	c.errMu.Lock()
	c.onError = callback
	c.errMu.Unlock()
}

// handleWriteErrors drains the async write error channel until Close.
func (c *Client) handleWriteErrors() {
	errCh := c.writeAPI.Errors()
	for {
		select {
		case err, ok := <-errCh:
			if !ok {
				return
			}
			c.errMu.RLock()
			callback := c.onError
			c.errMu.RUnlock()
			if callback != nil {
				callback(fmt.Errorf("%w: %w", ErrWriteFailed, err))
			}
		case <-c.done:
			return
		}
	}
}

// Flush forces any buffered points to be written immediately.
func (c *Client) Flush() {
	c.writeAPI.Flush()
}

// HealthCheck verifies the InfluxDB server is reachable.
func (c *Client) HealthCheck(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	ok, err := c.client.Ping(pingCtx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNotConnected, err)
	}
	if !ok {
		return fmt.Errorf("%w: ping returned not ready", ErrNotConnected)
	}
	return nil
}

// Close flushes pending writes and releases the underlying client.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)
		c.writeAPI.Flush()
		c.client.Close()
	})
	return nil
}
