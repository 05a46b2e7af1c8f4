package redisserver

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/yndnr/nskv/internal/core/command"
	"github.com/yndnr/nskv/internal/telemetry/metric"
)

type testClient struct {
	t    *testing.T
	conn net.Conn
	r    *bufio.Reader
}

func newPipeServer(t *testing.T, cfg Config, metrics Metrics) (*Server, *testClient) {
	t.Helper()
	srv := New(cfg, command.New(nil), nil, metrics)
	client, server := net.Pipe()

	done := make(chan struct{})
	go func() {
		srv.serveConn(context.Background(), server)
		close(done)
	}()
	t.Cleanup(func() {
		_ = client.Close()
		<-done
	})
	return srv, &testClient{t: t, conn: client, r: bufio.NewReader(client)}
}

func encode(args ...string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "*%d\r\n", len(args))
	for _, a := range args {
		fmt.Fprintf(&sb, "$%d\r\n%s\r\n", len(a), a)
	}
	return sb.String()
}

// do sends one command and returns its raw reply.
func (c *testClient) do(args ...string) string {
	c.t.Helper()
	_ = c.conn.SetDeadline(time.Now().Add(5 * time.Second))
	if _, err := io.WriteString(c.conn, encode(args...)); err != nil {
		c.t.Fatalf("write %v: %v", args, err)
	}
	reply, err := readReply(c.r)
	if err != nil {
		c.t.Fatalf("read reply to %v: %v", args, err)
	}
	return reply
}

func readReply(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		return "", err
	}
	switch line[0] {
	case '$':
		n, _ := strconv.Atoi(strings.TrimSpace(line[1:]))
		if n < 0 {
			return line, nil
		}
		buf := make([]byte, n+2)
		if _, err := io.ReadFull(r, buf); err != nil {
			return "", err
		}
		return line + string(buf), nil
	case '*':
		n, _ := strconv.Atoi(strings.TrimSpace(line[1:]))
		out := line
		for i := 0; i < n; i++ {
			e, err := readReply(r)
			if err != nil {
				return "", err
			}
			out += e
		}
		return out, nil
	}
	return line, nil
}

func TestServer_Basic(t *testing.T) {
	_, c := newPipeServer(t, Config{}, nil)

	tests := []struct {
		args []string
		want string
	}{
		{[]string{"PING"}, "+PONG\r\n"},
		{[]string{"ping", "hi"}, "$2\r\nhi\r\n"},
		{[]string{"SET", "k", "v"}, "+OK\r\n"},
		{[]string{"GET", "k"}, "$1\r\nv\r\n"},
		{[]string{"GET", "missing"}, "$-1\r\n"},
		{[]string{"DEL", "k", "missing"}, ":1\r\n"},
		{[]string{"NOPE"}, "-ERR unknown command 'NOPE'\r\n"},
		{[]string{"HELLO", "3"}, "-ERR unknown command 'HELLO'\r\n"},
		{[]string{"CLIENT", "SETINFO", "LIB-NAME", "x"}, "-ERR unknown command 'CLIENT'\r\n"},
		{[]string{"AUTH", "secret"}, "-" + string(errNoPassword) + "\r\n"},
	}
	for _, tt := range tests {
		if got := c.do(tt.args...); got != tt.want {
			t.Errorf("%v = %q, want %q", tt.args, got, tt.want)
		}
	}
}

func TestServer_Auth(t *testing.T) {
	_, c := newPipeServer(t, Config{Password: "s3cret"}, nil)

	steps := []struct {
		args []string
		want string
	}{
		{[]string{"PING"}, "+PONG\r\n"},
		{[]string{"GET", "k"}, "-" + string(errNoAuth) + "\r\n"},
		{[]string{"AUTH", "wrong"}, "-" + string(errWrongPass) + "\r\n"},
		{[]string{"AUTH", "other", "s3cret"}, "-" + string(errWrongPass) + "\r\n"},
		{[]string{"AUTH"}, "-" + string(errAuthArity) + "\r\n"},
		{[]string{"AUTH", "default", "s3cret"}, "+OK\r\n"},
		{[]string{"GET", "k"}, "$-1\r\n"},
	}
	for _, s := range steps {
		if got := c.do(s.args...); got != s.want {
			t.Errorf("%v = %q, want %q", s.args, got, s.want)
		}
	}
}

func TestServer_Transaction(t *testing.T) {
	_, c := newPipeServer(t, Config{}, nil)

	steps := []struct {
		args []string
		want string
	}{
		{[]string{"EXEC"}, "-" + string(errExecNoMulti) + "\r\n"},
		{[]string{"DISCARD"}, "-" + string(errDiscNoMulti) + "\r\n"},
		{[]string{"MULTI"}, "+OK\r\n"},
		{[]string{"MULTI"}, "-" + string(errNestedMulti) + "\r\n"},
		{[]string{"SET", "a", "1"}, "+QUEUED\r\n"},
		{[]string{"HSET", "a", "f", "v"}, "+QUEUED\r\n"},
		{[]string{"GET", "a"}, "+QUEUED\r\n"},
		// the HSET fails at run time without undoing the SET
		{[]string{"EXEC"}, "*3\r\n+OK\r\n-" + string(command.ErrWrongType) + "\r\n$1\r\n1\r\n"},
		{[]string{"MULTI"}, "+OK\r\n"},
		{[]string{"SET", "b", "1"}, "+QUEUED\r\n"},
		{[]string{"DISCARD"}, "+OK\r\n"},
		{[]string{"EXISTS", "b"}, ":0\r\n"},
	}
	for _, s := range steps {
		if got := c.do(s.args...); got != s.want {
			t.Errorf("%v = %q, want %q", s.args, got, s.want)
		}
	}
}

func TestServer_ExecAbort(t *testing.T) {
	_, c := newPipeServer(t, Config{}, nil)

	if got := c.do("MULTI"); got != "+OK\r\n" {
		t.Fatalf("MULTI = %q", got)
	}
	if got := c.do("SET", "a", "1"); got != "+QUEUED\r\n" {
		t.Fatalf("SET = %q", got)
	}
	if got := c.do("GET"); !strings.HasPrefix(got, "-ERR wrong number of arguments") {
		t.Fatalf("GET = %q, want arity error", got)
	}
	if got := c.do("EXEC"); got != "-"+string(command.ErrExecAbort)+"\r\n" {
		t.Fatalf("EXEC = %q, want EXECABORT", got)
	}
	if got := c.do("EXISTS", "a"); got != ":0\r\n" {
		t.Errorf("EXISTS a = %q, aborted transaction ran", got)
	}
}

func TestServer_RateLimit(t *testing.T) {
	reg := metric.NewRegistry()
	_, c := newPipeServer(t, Config{RateLimit: 2}, reg)

	c.do("PING")
	c.do("PING")
	if got := c.do("PING"); got != "-"+string(errRateLimited)+"\r\n" {
		t.Fatalf("third PING = %q, want rate limit error", got)
	}
	if v := testutil.ToFloat64(reg.ServerRejected.WithLabelValues("rate_limit")); v != 1 {
		t.Errorf("rate_limit rejects = %v, want 1", v)
	}
}

func TestServer_Quit(t *testing.T) {
	_, c := newPipeServer(t, Config{}, nil)

	if got := c.do("QUIT"); got != "+OK\r\n" {
		t.Fatalf("QUIT = %q", got)
	}
	_ = c.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, err := c.r.ReadByte(); err == nil {
		t.Error("connection still open after QUIT")
	}
}

func TestServer_ProtocolError(t *testing.T) {
	_, c := newPipeServer(t, Config{}, nil)

	_ = c.conn.SetDeadline(time.Now().Add(5 * time.Second))
	go func() { _, _ = io.WriteString(c.conn, fmt.Sprintf("*%d\r\n", MaxArrayLen+1)) }()
	line, err := c.r.ReadString('\n')
	if err != nil {
		t.Fatal(err)
	}
	if line != "-ERR protocol limit exceeded\r\n" {
		t.Errorf("reply = %q", line)
	}
}

func TestServer_Metrics(t *testing.T) {
	reg := metric.NewRegistry()
	_, c := newPipeServer(t, Config{}, reg)

	c.do("PING")
	c.do("GET")
	c.do("FOO")

	if v := testutil.ToFloat64(reg.ServerCommands.WithLabelValues("PING", "ok")); v != 1 {
		t.Errorf("PING ok = %v, want 1", v)
	}
	if v := testutil.ToFloat64(reg.ServerCommands.WithLabelValues("GET", "error")); v != 1 {
		t.Errorf("GET error = %v, want 1", v)
	}
	if v := testutil.ToFloat64(reg.ServerCommands.WithLabelValues("UNKNOWN", "error")); v != 1 {
		t.Errorf("UNKNOWN error = %v, want 1", v)
	}
	if v := testutil.ToFloat64(reg.ServerConnections); v != 1 {
		t.Errorf("open connections = %v, want 1", v)
	}
}

func TestServer_StartShutdown(t *testing.T) {
	srv := New(Config{Addr: "127.0.0.1:0"}, nil, nil, nil)
	if srv.Addr() != nil {
		t.Fatal("Addr() before Start is not nil")
	}
	if err := srv.Start(context.Background()); err != nil {
		t.Fatal(err)
	}

	conn, err := net.Dial("tcp", srv.Addr().String())
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	c := &testClient{t: t, conn: conn, r: bufio.NewReader(conn)}
	if got := c.do("PING"); got != "+PONG\r\n" {
		t.Fatalf("PING = %q", got)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() = %v", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, err := c.r.ReadByte(); err == nil {
		t.Error("connection still open after Shutdown")
	}
}
