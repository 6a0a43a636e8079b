package nacos

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseServerConfigs(t *testing.T) {
	configs, err := ParseServerConfigs("10.0.0.1:8848, nacos.internal:9848")
	require.NoError(t, err)
	require.Len(t, configs, 2)
	require.Equal(t, "10.0.0.1", configs[0].IpAddr)
	require.EqualValues(t, 8848, configs[0].Port)
	require.Equal(t, "nacos.internal", configs[1].IpAddr)

	_, err = ParseServerConfigs("no-port")
	require.Error(t, err)
	_, err = ParseServerConfigs("host:abc")
	require.Error(t, err)
	_, err = ParseServerConfigs(" , ")
	require.Error(t, err)
}
