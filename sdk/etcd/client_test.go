package etcd

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/etcd/api/v3/mvccpb"
	clientv3 "go.etcd.io/etcd/client/v3"
)

// memoryKV KV en memoria para pruebas.
type memoryKV struct {
	data    map[string]string
	failGet bool
}

func newMemoryKV(seed map[string]string) *memoryKV {
	kv := &memoryKV{data: make(map[string]string)}
	for k, v := range seed {
		kv.data[k] = v
	}
	return kv
}

func (m *memoryKV) Get(_ context.Context, key string, _ ...clientv3.OpOption) (*clientv3.GetResponse, error) {
	if m.failGet {
		return nil, errors.New("simulated get failure")
	}
	resp := &clientv3.GetResponse{}
	if v, ok := m.data[key]; ok {
		resp.Kvs = []*mvccpb.KeyValue{{Key: []byte(key), Value: []byte(v)}}
		resp.Count = 1
	}
	return resp, nil
}

func TestGetVar(t *testing.T) {
	client := NewWithKV(newMemoryKV(map[string]string{"ctrader/host": "live"}))
	ctx := context.Background()

	v, err := client.GetVar(ctx, "ctrader/host")
	require.NoError(t, err)
	assert.Equal(t, "live", v)

	_, err = client.GetVar(ctx, "missing")
	assert.Error(t, err)
}

func TestTypedGetters(t *testing.T) {
	client := NewWithKV(newMemoryKV(map[string]string{
		"proxy/health_grpc_port":   " 9010 ",
		"proxy/request_timeout_ms": "1500",
		"proxy/broken":             "abc",
	}))
	ctx := context.Background()

	port, err := client.GetVarInt(ctx, "proxy/health_grpc_port")
	require.NoError(t, err)
	assert.Equal(t, 9010, port)

	d, err := client.GetVarDuration(ctx, "proxy/request_timeout_ms")
	require.NoError(t, err)
	assert.Equal(t, 1500*time.Millisecond, d)

	_, err = client.GetVarInt(ctx, "proxy/broken")
	assert.Error(t, err)
}

func TestLookup(t *testing.T) {
	kv := newMemoryKV(map[string]string{"a": "1"})
	client := NewWithKV(kv)

	v, ok := client.Lookup(context.Background(), "a")
	assert.True(t, ok)
	assert.Equal(t, "1", v)

	kv.failGet = true
	_, ok = client.Lookup(context.Background(), "a")
	assert.False(t, ok)
}

func TestNamespacePrefix(t *testing.T) {
	client := NewWithKV(newMemoryKV(nil), WithApp("openapi-proxy"), WithEnv("production"))
	assert.Equal(t, "/openapi-proxy/production/", client.NamespacePrefix())
	assert.NoError(t, client.Close())
}

func TestEndpointsFromEnv(t *testing.T) {
	t.Setenv(EnvEndpoints, " http://a:2379, ,http://b:2379 ")
	assert.Equal(t, []string{"http://a:2379", "http://b:2379"}, EndpointsFromEnv())

	t.Setenv(EnvEndpoints, "")
	assert.Nil(t, EndpointsFromEnv())
}

func TestNewWithoutEndpoints(t *testing.T) {
	t.Setenv(EnvEndpoints, "")
	_, err := New(WithApp("openapi-proxy"))
	assert.Error(t, err)
}
