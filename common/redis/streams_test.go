package redis

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishJSONToStream(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	ctx := context.Background()
	payload := map[string]interface{}{"device_id": "d1", "heart_rate": 72}

	id, err := PublishJSONToStream(ctx, client, "vitals:test:stream", 100, payload)
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	msgs, err := client.XRange(ctx, "vitals:test:stream", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	raw, ok := msgs[0].Values["data"].(string)
	require.True(t, ok)
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(raw), &decoded))
	assert.Equal(t, "d1", decoded["device_id"])
	assert.Contains(t, msgs[0].Values, "timestamp")
}

func TestStreamValue(t *testing.T) {
	cases := []struct {
		in   interface{}
		want string
	}{
		{"abc", "abc"},
		{[]byte("raw"), "raw"},
		{42, "42"},
		{int64(7), "7"},
		{98.5, "98.5"},
		{true, "true"},
		{[]int{1, 2}, "[1,2]"},
	}
	for _, c := range cases {
		got, err := streamValue(c.in)
		require.NoError(t, err)
		assert.Equal(t, c.want, got)
	}
}
