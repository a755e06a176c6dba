package sockets

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConn_ErrorFiresOncePerConnection(t *testing.T) {
	fired := 0
	conn := New(OnError(func(error) { fired++ })).(*Conn)

	err := errors.New("write: broken pipe")
	conn.notifyError(err)
	conn.notifyError(err)

	assert.Equal(t, 1, fired)
	assert.True(t, conn.IsClosed())
}

func TestConn_SendOnClosedConnection(t *testing.T) {
	fired := 0
	conn := New(OnError(func(error) { fired++ }))

	err := conn.Send(Msg{Body: []byte("hello")})
	assert.Error(t, err)
	assert.Zero(t, fired, "a send on a never-opened connection is not a connection failure")
}
