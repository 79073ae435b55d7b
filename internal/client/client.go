package client

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"strings"

	"github.com/rocketscienceinc/tictactoe-lineserver/internal/protocol"
)

// Play connects to the game server at addr, relays lines typed on in to the
// server and copies everything the server says to out. It returns once the
// server closes the connection or ctx is cancelled.
func Play(ctx context.Context, addr string, in io.Reader, out io.Writer) error {
	var dialer net.Dialer

	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", addr, err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	if _, err = fmt.Fprintf(out, "%s\n%s\n", protocol.MessageSelectCell, protocol.CellGuide()); err != nil {
		return fmt.Errorf("failed to print board guide: %w", err)
	}

	go relay(in, conn)

	if _, err = io.Copy(out, conn); err != nil && ctx.Err() == nil {
		return fmt.Errorf("connection to %s lost: %w", addr, err)
	}

	return ctx.Err()
}

// relay forwards non-empty input lines until in is exhausted or the
// connection stops accepting writes.
func relay(in io.Reader, conn net.Conn) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if _, err := io.WriteString(conn, line+"\n"); err != nil {
			return
		}
	}
}
