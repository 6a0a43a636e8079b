// internal/pkg/redis/client.go
package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client wraps a go-redis universal client; one address gives a single node, several give a cluster.
type Client struct {
	client redis.UniversalClient
}

// NewClient connects to addrs ("host:port,host:port") and verifies the connection.
func NewClient(addrs, password string, db int) (*Client, error) {
	var list []string
	for _, a := range strings.Split(addrs, ",") {
		if a = strings.TrimSpace(a); a != "" {
			list = append(list, a)
		}
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("redis: no address configured")
	}

	uc := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:        list,
		Password:     password,
		DB:           db,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := uc.Ping(ctx).Err(); err != nil {
		_ = uc.Close()
		return nil, fmt.Errorf("redis: ping %v: %w", list, err)
	}
	return &Client{client: uc}, nil
}

// NewFromUniversal wraps an existing client.
func NewFromUniversal(uc redis.UniversalClient) *Client {
	return &Client{client: uc}
}

func (c *Client) GetClient() redis.UniversalClient {
	return c.client
}

func (c *Client) Close() error {
	return c.client.Close()
}
