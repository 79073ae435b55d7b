package websocket

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rocketscienceinc/tictactoe-lineserver/internal/apperror"
)

const (
	// MaxFrameSize bounds the text of one frame of commands.
	MaxFrameSize = 1024
	// frames beyond maxMessageSize close the connection with CloseMessageTooBig
	maxMessageSize = 64 * MaxFrameSize
)

// conn adapts a websocket connection: every text frame may carry several command
// tokens and every outgoing message is one text frame.
type conn struct {
	ws           *websocket.Conn
	writeTimeout time.Duration
	writeMutex   sync.Mutex
	pending      []string
}

func newConn(ws *websocket.Conn, writeTimeout time.Duration) *conn {
	ws.SetReadLimit(maxMessageSize)

	return &conn{
		ws:           ws,
		writeTimeout: writeTimeout,
	}
}

// ReadCommand returns the next token. A frame larger than MaxFrameSize is
// drained and reported as apperror.ErrUnknownCommand; the connection stays usable.
func (that *conn) ReadCommand() (string, error) {
	for len(that.pending) == 0 {
		_, reader, err := that.ws.NextReader()
		if err != nil {
			return "", fmt.Errorf("failed to read message: %w", err)
		}

		data, err := io.ReadAll(io.LimitReader(reader, MaxFrameSize+1))
		if err != nil {
			return "", fmt.Errorf("failed to read message: %w", err)
		}

		if len(data) > MaxFrameSize {
			if _, err = io.Copy(io.Discard, reader); err != nil {
				return "", fmt.Errorf("failed to drain message: %w", err)
			}

			return "", fmt.Errorf("%w: frame longer than %d bytes", apperror.ErrUnknownCommand, MaxFrameSize)
		}

		that.pending = strings.Fields(string(data))
	}

	token := that.pending[0]
	that.pending = that.pending[1:]

	return token, nil
}

func (that *conn) Write(message string) error {
	that.writeMutex.Lock()
	defer that.writeMutex.Unlock()

	if that.writeTimeout > 0 {
		if err := that.ws.SetWriteDeadline(time.Now().Add(that.writeTimeout)); err != nil {
			return fmt.Errorf("failed to set write deadline: %w", err)
		}
	}

	if err := that.ws.WriteMessage(websocket.TextMessage, []byte(message)); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	return nil
}

func (that *conn) SetReadDeadline(t time.Time) error {
	return that.ws.SetReadDeadline(t)
}

func (that *conn) Close() error {
	return that.ws.Close()
}

func (that *conn) RemoteAddr() string {
	return that.ws.RemoteAddr().String()
}
