package changefeed

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Dakshesh-max/society-man/config"
)

func TestRedisBroker_Channel(t *testing.T) {
	b := &RedisBroker{prefix: "society:changes"}

	assert.Equal(t, "society:changes:visitors", b.Channel("visitors"))
	assert.Equal(t, "society:changes:*", b.Channel(AllTables))
}

func TestNewRedisBroker_Unreachable(t *testing.T) {
	_, err := NewRedisBroker(config.RedisConfig{Addr: "127.0.0.1:1"}, "society:changes")
	assert.ErrorContains(t, err, "redis ping failed")
}
