package client

import (
	"bufio"
	"bytes"
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/rocketscienceinc/tictactoe-lineserver/internal/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// echoServer answers every line with "got <line>" and hangs up after Q.
func echoServer(t *testing.T) string {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = listener.Close() })

	go func() {
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		_, _ = conn.Write([]byte("Welcome Player 0\n"))

		scanner := bufio.NewScanner(conn)
		for scanner.Scan() {
			_, _ = conn.Write([]byte("got " + scanner.Text() + "\n"))
			if scanner.Text() == protocol.QuitMarker {
				_, _ = conn.Write([]byte(protocol.MessageGoodbye + "\n"))
				return
			}
		}
	}()

	return listener.Addr().String()
}

func TestPlay(t *testing.T) {
	t.Run("Relays input and prints server lines until the server hangs up", func(t *testing.T) {
		// Given: a server and a player typing 5, a blank line and Q
		addr := echoServer(t)
		in := strings.NewReader("5\n\n  Q  \n")
		var out bytes.Buffer

		// When: Play runs
		err := Play(context.Background(), addr, in, &out)

		// Then: the guide is printed first, followed by the server transcript
		require.NoError(t, err)
		assert.Equal(t,
			protocol.MessageSelectCell+"\n"+protocol.CellGuide()+"\n"+
				"Welcome Player 0\ngot 5\ngot Q\nGoodbye\n",
			out.String())
	})

	t.Run("Fails when nothing listens", func(t *testing.T) {
		listener, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		addr := listener.Addr().String()
		require.NoError(t, listener.Close())

		err = Play(context.Background(), addr, strings.NewReader(""), &bytes.Buffer{})

		require.Error(t, err)
	})

	t.Run("Stops when the context is cancelled", func(t *testing.T) {
		addr := echoServer(t)
		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()

		err := Play(ctx, addr, strings.NewReader(""), &bytes.Buffer{})

		require.ErrorIs(t, err, context.DeadlineExceeded)
	})
}
