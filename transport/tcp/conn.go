package tcp

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/rocketscienceinc/tictactoe-lineserver/internal/apperror"
)

// MaxCommandSize bounds a single command token. Longer tokens are dropped and
// reported as unknown commands.
const MaxCommandSize = 1024

// lineConn reads whitespace separated command tokens and writes one line per message.
type lineConn struct {
	conn         net.Conn
	scanner      *bufio.Scanner
	splitter     *tokenSplitter
	writeTimeout time.Duration
	writeMutex   sync.Mutex
}

func newLineConn(conn net.Conn, writeTimeout time.Duration) *lineConn {
	splitter := &tokenSplitter{maxSize: MaxCommandSize}

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, MaxCommandSize), 4*MaxCommandSize)
	scanner.Split(splitter.split)

	return &lineConn{
		conn:         conn,
		scanner:      scanner,
		splitter:     splitter,
		writeTimeout: writeTimeout,
	}
}

// ReadCommand returns the next token. An oversized token is consumed whole and
// reported as apperror.ErrUnknownCommand; the connection stays usable.
func (that *lineConn) ReadCommand() (string, error) {
	if !that.scanner.Scan() {
		if err := that.scanner.Err(); err != nil {
			return "", fmt.Errorf("failed to read from %s: %w", that.RemoteAddr(), err)
		}
		return "", io.EOF
	}

	if that.splitter.takeOversized() {
		return "", fmt.Errorf("%w: token longer than %d bytes", apperror.ErrUnknownCommand, MaxCommandSize)
	}

	return that.scanner.Text(), nil
}

func (that *lineConn) Write(message string) error {
	that.writeMutex.Lock()
	defer that.writeMutex.Unlock()

	if that.writeTimeout > 0 {
		if err := that.conn.SetWriteDeadline(time.Now().Add(that.writeTimeout)); err != nil {
			return fmt.Errorf("failed to set write deadline: %w", err)
		}
	}

	if _, err := io.WriteString(that.conn, message+"\n"); err != nil {
		return fmt.Errorf("failed to write to %s: %w", that.RemoteAddr(), err)
	}

	return nil
}

func (that *lineConn) SetReadDeadline(t time.Time) error {
	return that.conn.SetReadDeadline(t)
}

func (that *lineConn) Close() error {
	return that.conn.Close()
}

func (that *lineConn) RemoteAddr() string {
	return that.conn.RemoteAddr().String()
}

// tokenSplitter splits like bufio.ScanWords but never buffers more than maxSize
// bytes of one token: the excess is discarded and the token is flagged.
type tokenSplitter struct {
	maxSize    int
	discarding bool
	oversized  bool
}

func (that *tokenSplitter) split(data []byte, atEOF bool) (int, []byte, error) {
	// the discarded token ended right at a buffer boundary
	if that.discarding {
		if len(data) == 0 && atEOF {
			that.discarding = false
			that.oversized = true
			return 0, []byte{}, nil
		}

		if r, width := utf8.DecodeRune(data); len(data) > 0 && unicode.IsSpace(r) {
			that.discarding = false
			that.oversized = true
			return width, []byte{}, nil
		}
	}

	advance, token, err := bufio.ScanWords(data, atEOF)
	if err != nil {
		return advance, token, err
	}

	if token == nil {
		if !atEOF && len(data)-advance >= that.maxSize {
			that.discarding = true
			return len(data), nil, nil
		}
		return advance, nil, nil
	}

	if that.discarding || len(token) > that.maxSize {
		that.discarding = false
		that.oversized = true
	}

	return advance, token, nil
}

// takeOversized reports whether the last token was cut and clears the flag.
func (that *tokenSplitter) takeOversized() bool {
	oversized := that.oversized
	that.oversized = false
	return oversized
}
