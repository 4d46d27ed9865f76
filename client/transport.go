package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	nethttp "net/http"
	"strconv"
	"strings"
	"time"
)

const (
	crlf            = "\r\n"
	headerSeparator = "\r\n\r\n"
)

// send performs one physical request attempt: it opens a fresh TCP
// connection under the given dial timeout, writes the request frame and
// body, and reads the raw response until the server closes the
// connection. The connection is scoped to the attempt; there is no reuse.
func (c *Client) send(ctx context.Context, method, path string, body []byte, timeout time.Duration) ([]byte, error) {
	dialer := net.Dialer{Timeout: timeout}

	conn, err := dialer.DialContext(ctx, "tcp", c.addr)
	if err != nil {
		if isTimeout(err) {
			return nil, NewTimeoutError(timeout)
		}
		return nil, NewConnectionError(err.Error(), err)
	}
	defer conn.Close()

	frame := buildFrame(method, path, c.addr, len(body))
	if _, err := io.WriteString(conn, frame); err != nil {
		return nil, NewIOError("failed to write request frame", err)
	}
	if len(body) > 0 {
		if _, err := conn.Write(body); err != nil {
			return nil, NewIOError("failed to write request body", err)
		}
	}

	// The server signals completion by closing the connection; there is
	// no length-based read.
	raw, err := io.ReadAll(conn)
	if err != nil {
		return nil, NewIOError("failed to read response", err)
	}

	return raw, nil
}

// buildFrame composes the minimal line-based request frame: start line,
// Host header, content headers for POST, and the blank line terminator.
func buildFrame(method, path, addr string, contentLength int) string {
	var b strings.Builder

	b.WriteString(method + " " + path + " HTTP/1.1" + crlf)
	b.WriteString("Host: " + addr + crlf)
	if method == nethttp.MethodPost {
		b.WriteString("Content-Type: application/json" + crlf)
		fmt.Fprintf(&b, "Content-Length: %d%s", contentLength, crlf)
	}
	b.WriteString("Connection: close" + crlf)
	b.WriteString(crlf)

	return b.String()
}

// parseResponse splits the accumulated response bytes into headers and
// body and maps non-success status lines to a server error.
//
// Status parsing is best-effort: a malformed status line is tolerated
// and the response is treated as successful, matching the server's
// loose framing.
func parseResponse(raw []byte) ([]byte, error) {
	text := string(raw)

	sep := strings.Index(text, headerSeparator)
	if sep < 0 {
		return nil, NewConnectionError("Invalid HTTP response", nil)
	}

	headers := text[:sep]
	body := text[sep+len(headerSeparator):]

	statusLine, _, _ := strings.Cut(headers, crlf)
	parts := strings.Fields(statusLine)
	if len(parts) >= 2 {
		if status, err := strconv.Atoi(parts[1]); err == nil && status >= 400 {
			return nil, NewServerError(status, body)
		}
	}

	return []byte(body), nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
