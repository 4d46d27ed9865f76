package client

import (
	"bufio"
	"context"
	"io"
	"net"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaborage/go-tlq/config"
	"github.com/gaborage/go-tlq/message"
)

const testMessageID = "0198fbd8-344e-7b70-841f-3fbd4b371e4c"

// stubServer is a minimal TCP peer speaking the server's half of the
// protocol: read one request, write one canned response, close.
type stubServer struct {
	ln       net.Listener
	accepts  int32
	requests chan string
}

func newStubServer(t *testing.T, respond func(req string) string) *stubServer {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	s := &stubServer{ln: ln, requests: make(chan string, 16)}

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			atomic.AddInt32(&s.accepts, 1)
			go func(conn net.Conn) {
				defer conn.Close()
				req := readRequest(conn)
				select {
				case s.requests <- req:
				default:
				}
				if respond != nil {
					_, _ = io.WriteString(conn, respond(req))
				}
			}(conn)
		}
	}()

	t.Cleanup(func() { ln.Close() })
	return s
}

func (s *stubServer) port() uint16 {
	return uint16(s.ln.Addr().(*net.TCPAddr).Port)
}

func (s *stubServer) acceptCount() int {
	return int(atomic.LoadInt32(&s.accepts))
}

func (s *stubServer) lastRequest(t *testing.T) string {
	t.Helper()
	select {
	case req := <-s.requests:
		return req
	case <-time.After(2 * time.Second):
		t.Fatal("no request captured")
		return ""
	}
}

// readRequest consumes the request frame plus Content-Length body bytes.
func readRequest(conn net.Conn) string {
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	r := bufio.NewReader(conn)
	var sb strings.Builder
	contentLength := 0

	for {
		line, err := r.ReadString('\n')
		sb.WriteString(line)
		if err != nil {
			return sb.String()
		}
		trimmed := strings.TrimRight(line, "\r\n")
		if v, ok := strings.CutPrefix(strings.ToLower(trimmed), "content-length:"); ok {
			contentLength, _ = strconv.Atoi(strings.TrimSpace(v))
		}
		if trimmed == "" {
			break
		}
	}

	if contentLength > 0 {
		buf := make([]byte, contentLength)
		if _, err := io.ReadFull(r, buf); err == nil {
			sb.Write(buf)
		}
	}
	return sb.String()
}

func jsonResponse(body string) string {
	return "HTTP/1.1 200 OK\r\nContent-Type: application/json\r\nConnection: close\r\n\r\n" + body
}

func testClient(s *stubServer, maxRetries uint) *Client {
	cfg := config.NewBuilder().
		WithHost("127.0.0.1").
		WithPort(s.port()).
		WithTimeout(2 * time.Second).
		WithMaxRetries(maxRetries).
		WithRetryDelayMillis(1).
		Build()
	return NewWithConfig(cfg)
}

func messageJSON(body string) string {
	return `{"id":"` + testMessageID + `","body":"` + body + `","state":"Ready","retry_count":0}`
}

func TestNewDefaults(t *testing.T) {
	c := New("test-host", 9999)

	assert.Equal(t, "test-host:9999", c.addr)
	assert.Equal(t, uint(config.DefaultMaxRetries), c.Config().MaxRetries)
	assert.Equal(t, config.DefaultTimeout, c.Config().Timeout)
}

func TestAddMessage(t *testing.T) {
	s := newStubServer(t, func(string) string {
		return jsonResponse(messageJSON("hello"))
	})

	msg, err := testClient(s, 0).AddMessage(context.Background(), "hello")

	require.NoError(t, err)
	assert.Equal(t, uuid.MustParse(testMessageID), msg.ID)
	assert.Equal(t, "hello", msg.Body)
	assert.Equal(t, message.StateReady, msg.State)
	assert.Zero(t, msg.RetryCount)

	req := s.lastRequest(t)
	assert.True(t, strings.HasPrefix(req, "POST /add HTTP/1.1\r\n"))
	assert.Contains(t, req, "Content-Type: application/json")
	assert.Contains(t, req, `{"body":"hello"}`)
}

func TestAddMessageTooLarge(t *testing.T) {
	s := newStubServer(t, nil)

	_, err := testClient(s, 3).AddMessage(context.Background(), strings.Repeat("x", MaxMessageSize+1))

	require.Error(t, err)
	assert.True(t, IsErrorType(err, MessageTooLargeError))
	assert.Contains(t, err.Error(), strconv.Itoa(MaxMessageSize+1))
	assert.Zero(t, s.acceptCount(), "oversized bodies must not reach the network")
}

func TestAddMessageAtSizeLimit(t *testing.T) {
	s := newStubServer(t, func(string) string {
		return jsonResponse(messageJSON("at-limit"))
	})

	_, err := testClient(s, 0).AddMessage(context.Background(), strings.Repeat("x", MaxMessageSize))

	require.NoError(t, err, "a body of exactly 64KiB passes client-side validation")
	assert.Equal(t, 1, s.acceptCount())
}

func TestGetMessagesValidation(t *testing.T) {
	s := newStubServer(t, nil)

	for _, count := range []int{0, -1} {
		_, err := testClient(s, 3).GetMessages(context.Background(), count)

		require.Error(t, err)
		assert.True(t, IsErrorType(err, ValidationError))
	}
	assert.Zero(t, s.acceptCount())
}

func TestGetMessages(t *testing.T) {
	s := newStubServer(t, func(string) string {
		return jsonResponse(`[` +
			`{"id":"` + testMessageID + `","body":"first","state":"Processing","lock_until":null,"retry_count":1},` +
			`{"id":"` + uuid.Must(uuid.NewV7()).String() + `","body":"second","state":"Ready","retry_count":0}` +
			`]`)
	})

	msgs, err := testClient(s, 0).GetMessages(context.Background(), 5)

	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "first", msgs[0].Body)
	assert.Equal(t, message.StateProcessing, msgs[0].State)
	assert.Equal(t, uint32(1), msgs[0].RetryCount)
	assert.Equal(t, "second", msgs[1].Body)

	req := s.lastRequest(t)
	assert.True(t, strings.HasPrefix(req, "POST /get HTTP/1.1\r\n"))
	assert.Contains(t, req, `{"count":5}`)
}

func TestGetMessagesEmptyQueue(t *testing.T) {
	s := newStubServer(t, func(string) string {
		return jsonResponse(`[]`)
	})

	msgs, err := testClient(s, 0).GetMessages(context.Background(), 3)

	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestGetMessage(t *testing.T) {
	t.Run("returns first message", func(t *testing.T) {
		s := newStubServer(t, func(string) string {
			return jsonResponse(`[` + messageJSON("only") + `]`)
		})

		msg, err := testClient(s, 0).GetMessage(context.Background())

		require.NoError(t, err)
		require.NotNil(t, msg)
		assert.Equal(t, "only", msg.Body)
	})

	t.Run("returns nil on empty queue", func(t *testing.T) {
		s := newStubServer(t, func(string) string {
			return jsonResponse(`[]`)
		})

		msg, err := testClient(s, 0).GetMessage(context.Background())

		require.NoError(t, err)
		assert.Nil(t, msg)
	})
}

func TestDeleteMessages(t *testing.T) {
	s := newStubServer(t, func(string) string {
		return jsonResponse(`"Success"`)
	})

	id := uuid.MustParse(testMessageID)
	result, err := testClient(s, 0).DeleteMessages(context.Background(), []uuid.UUID{id})

	require.NoError(t, err)
	assert.Equal(t, "Success", result)

	req := s.lastRequest(t)
	assert.True(t, strings.HasPrefix(req, "POST /delete HTTP/1.1\r\n"))
	assert.Contains(t, req, testMessageID)
}

func TestDeleteMessagesValidation(t *testing.T) {
	s := newStubServer(t, nil)

	_, err := testClient(s, 3).DeleteMessages(context.Background(), nil)

	require.Error(t, err)
	assert.True(t, IsErrorType(err, ValidationError))
	assert.Zero(t, s.acceptCount())
}

func TestDeleteMessageDelegates(t *testing.T) {
	s := newStubServer(t, func(string) string {
		return jsonResponse(`"Success"`)
	})

	result, err := testClient(s, 0).DeleteMessage(context.Background(), uuid.MustParse(testMessageID))

	require.NoError(t, err)
	assert.Equal(t, "Success", result)
	assert.Contains(t, s.lastRequest(t), `"ids":["`+testMessageID+`"]`)
}

func TestRetryMessages(t *testing.T) {
	s := newStubServer(t, func(string) string {
		return jsonResponse(`"Success"`)
	})

	result, err := testClient(s, 0).RetryMessages(context.Background(), []uuid.UUID{uuid.MustParse(testMessageID)})

	require.NoError(t, err)
	assert.Equal(t, "Success", result)
	assert.True(t, strings.HasPrefix(s.lastRequest(t), "POST /retry HTTP/1.1\r\n"))
}

func TestRetryMessagesValidation(t *testing.T) {
	s := newStubServer(t, nil)

	_, err := testClient(s, 3).RetryMessages(context.Background(), []uuid.UUID{})

	require.Error(t, err)
	assert.True(t, IsErrorType(err, ValidationError))
	assert.Zero(t, s.acceptCount())
}

func TestPurgeQueue(t *testing.T) {
	s := newStubServer(t, func(string) string {
		return jsonResponse(`"Success"`)
	})

	result, err := testClient(s, 0).PurgeQueue(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "Success", result)

	req := s.lastRequest(t)
	assert.True(t, strings.HasPrefix(req, "POST /purge HTTP/1.1\r\n"))
	assert.Contains(t, req, "{}")
}

func TestServerErrorsAreNotRetried(t *testing.T) {
	s := newStubServer(t, func(string) string {
		return "HTTP/1.1 400 Bad Request\r\nConnection: close\r\n\r\nBad request"
	})

	_, err := testClient(s, 3).AddMessage(context.Background(), "hello")

	require.Error(t, err)
	assert.True(t, IsServerStatus(err, 400))
	assert.Contains(t, err.Error(), "Bad request")
	assert.Equal(t, 1, s.acceptCount(), "a definite server failure must not be retried")
}

func TestTruncatedResponsesAreRetried(t *testing.T) {
	// Closing without a full header/body separator is classified as a
	// connection failure, which the retry engine re-attempts.
	s := newStubServer(t, func(string) string {
		return "HTTP/1.1 200 OK"
	})

	_, err := testClient(s, 2).AddMessage(context.Background(), "hello")

	require.Error(t, err)
	assert.True(t, IsErrorType(err, ConnectionError))
	assert.Contains(t, err.Error(), "Invalid HTTP response")
	assert.Equal(t, 3, s.acceptCount(), "1 initial attempt + 2 retries")
}

func TestConnectionRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := uint16(ln.Addr().(*net.TCPAddr).Port)
	require.NoError(t, ln.Close())

	cfg := config.NewBuilder().
		WithHost("127.0.0.1").
		WithPort(port).
		WithTimeout(time.Second).
		WithMaxRetries(0).
		Build()

	_, err = NewWithConfig(cfg).AddMessage(context.Background(), "hello")

	require.Error(t, err)
	assert.True(t, IsErrorType(err, ConnectionError))
}

func TestUndecodableResponseIsTerminal(t *testing.T) {
	s := newStubServer(t, func(string) string {
		return jsonResponse("this is not json")
	})

	_, err := testClient(s, 3).AddMessage(context.Background(), "hello")

	require.Error(t, err)
	assert.True(t, IsErrorType(err, SerializationError))
	assert.Equal(t, 1, s.acceptCount(), "decode failures must not be retried")
}

func TestHealthCheck(t *testing.T) {
	t.Run("healthy server", func(t *testing.T) {
		s := newStubServer(t, func(string) string {
			return jsonResponse(`"Hello World"`)
		})

		ok, err := testClient(s, 0).HealthCheck(context.Background())

		require.NoError(t, err)
		assert.True(t, ok)

		req := s.lastRequest(t)
		assert.True(t, strings.HasPrefix(req, "GET /hello HTTP/1.1\r\n"))
		assert.NotContains(t, req, "Content-Length")
	})

	t.Run("unhealthy server", func(t *testing.T) {
		s := newStubServer(t, func(string) string {
			return "HTTP/1.1 500 Internal Server Error\r\n\r\n"
		})

		ok, err := testClient(s, 0).HealthCheck(context.Background())

		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("unreachable server", func(t *testing.T) {
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		port := uint16(ln.Addr().(*net.TCPAddr).Port)
		require.NoError(t, ln.Close())

		ok, err := New("127.0.0.1", port).HealthCheck(context.Background())

		require.Error(t, err)
		assert.False(t, ok)
		assert.True(t, IsErrorType(err, ConnectionError))
	})
}
