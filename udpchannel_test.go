package widget

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestUDPChannel_PostToParent(t *testing.T) {
	host, err := NewUDPChannel("127.0.0.1:0", "", zap.NewNop())
	require.Nil(t, err)
	defer host.Shutdown()

	frame, err := NewUDPChannel("127.0.0.1:0", host.BindAddr(), zap.NewNop())
	require.Nil(t, err)
	defer frame.Shutdown()

	received := make(chan *Envelope, 1)
	host.AddListener(func(e *Envelope) {
		received <- e
	})

	assert.Nil(t, frame.PostMessage([]byte(`{"type":"resize","height":10}`), host.Origin()))

	e := recvEnvelope(t, received)
	assert.Equal(t, frame.Origin(), e.Origin)
	assert.Equal(t, `{"type":"resize","height":10}`, string(e.Data))
}

func TestUDPChannel_PostWithoutPeer(t *testing.T) {
	host, err := NewUDPChannel("127.0.0.1:0", "", zap.NewNop())
	require.Nil(t, err)
	defer host.Shutdown()

	assert.True(t, errors.Is(host.PostMessage([]byte("foo"), TargetAny), ErrNoPeer))
}

func TestUDPChannel_ShutdownTwice(t *testing.T) {
	c, err := NewUDPChannel("127.0.0.1:0", "", zap.NewNop())
	require.Nil(t, err)

	assert.Nil(t, c.Shutdown())
	assert.Nil(t, c.Shutdown())
}
