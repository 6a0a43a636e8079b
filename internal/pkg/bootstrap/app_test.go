package bootstrap

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestShutdownRunsClosersInReverse(t *testing.T) {
	app := &AppCtx{Config: Defaults()}
	var order []string
	app.OnShutdown("db", func(context.Context) error { order = append(order, "db"); return nil })
	app.OnShutdown("kafka", func(context.Context) error { order = append(order, "kafka"); return errors.New("boom") })
	app.OnShutdown("cache", func(context.Context) error { order = append(order, "cache"); return nil })

	shutdown(app, time.Second)
	require.Equal(t, []string{"cache", "kafka", "db"}, order, "a failing closer does not stop the rest")
}
