// internal/pkg/zookeeper/conn.go
package zookeeper

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-zookeeper/zk"
)

// Conn is a zookeeper session.
type Conn struct {
	*zk.Conn
}

// Connect opens a session against servers ("host:port,host:port").
func Connect(servers string, sessionTimeout time.Duration) (*Conn, error) {
	var list []string
	for _, s := range strings.Split(servers, ",") {
		if s = strings.TrimSpace(s); s != "" {
			list = append(list, s)
		}
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("zookeeper: no server configured")
	}
	if sessionTimeout <= 0 {
		sessionTimeout = 5 * time.Second
	}
	c, _, err := zk.Connect(list, sessionTimeout)
	if err != nil {
		return nil, fmt.Errorf("zookeeper: connect %v: %w", list, err)
	}
	return &Conn{Conn: c}, nil
}
