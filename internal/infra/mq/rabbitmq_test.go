package mq

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/example/velours/internal/config"
)

func TestNewPublisherWithoutURL(t *testing.T) {
	p := NewPublisher(&config.RabbitMQConfig{})
	require.IsType(t, NopPublisher{}, p)
	require.NoError(t, p.PublishOrderPlaced(context.Background(), &OrderPlaced{OrderID: 1}))
	require.NoError(t, p.Close())
}

func TestDecodeOrderPlaced(t *testing.T) {
	ev, err := DecodeOrderPlaced([]byte(`{"order_id":12,"user_id":3,"total":"118.00","items":2}`))
	require.NoError(t, err)
	require.EqualValues(t, 12, ev.OrderID)
	require.Equal(t, "118.00", ev.Total)

	_, err = DecodeOrderPlaced([]byte(`{"user_id":3}`))
	require.Error(t, err)

	_, err = DecodeOrderPlaced([]byte(`not json`))
	require.Error(t, err)
}
