package redisserver

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/yndnr/nskv/internal/core/command"
)

// Protocol limits.
const (
	// MaxArrayLen bounds the number of arguments of one command. A purge
	// round deletes up to a thousand keys in one DEL.
	MaxArrayLen = 64 * 1024

	// MaxBulkLen bounds one argument; JSON documents are the largest.
	MaxBulkLen = 16 * 1024 * 1024

	// MaxInlineLen bounds an inline command line.
	MaxInlineLen = 64 * 1024

	maxHeaderLen = 32
)

var (
	ErrProtocol      = errors.New("resp: protocol error")
	ErrLimitExceeded = errors.New("resp: limit exceeded")
)

// ReadCommand reads one command, either a RESP array of bulk strings or an
// inline line. An empty command yields a nil slice.
func ReadCommand(r *bufio.Reader) ([][]byte, error) {
	b, err := r.Peek(1)
	if err != nil {
		return nil, err
	}
	if b[0] == '*' {
		return readArray(r)
	}

	line, err := readLine(r, MaxInlineLen)
	if err != nil {
		return nil, err
	}
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, nil
	}
	out := make([][]byte, len(fields))
	for i, f := range fields {
		out[i] = []byte(f)
	}
	return out, nil
}

func readArray(r *bufio.Reader) ([][]byte, error) {
	n, err := readHeader(r, '*', MaxArrayLen)
	if err != nil {
		return nil, err
	}
	if n <= 0 {
		return nil, nil
	}

	out := make([][]byte, 0, n)
	for i := 0; i < n; i++ {
		arg, err := readBulk(r)
		if err != nil {
			return nil, err
		}
		out = append(out, arg)
	}
	return out, nil
}

func readBulk(r *bufio.Reader) ([]byte, error) {
	b, err := r.Peek(1)
	if err != nil {
		return nil, err
	}
	if b[0] == '+' {
		// some clients send simple strings as arguments
		line, err := readLine(r, MaxInlineLen)
		if err != nil {
			return nil, err
		}
		return []byte(line[1:]), nil
	}

	n, err := readHeader(r, '$', MaxBulkLen)
	if err != nil {
		return nil, err
	}
	if n == -1 {
		return nil, nil
	}
	if n < 0 {
		return nil, fmt.Errorf("%w: invalid bulk length", ErrProtocol)
	}

	buf := make([]byte, n+2)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	if buf[n] != '\r' || buf[n+1] != '\n' {
		return nil, fmt.Errorf("%w: invalid bulk terminator", ErrProtocol)
	}
	return buf[:n], nil
}

// readHeader reads "<prefix><n>\r\n" and checks n against limit.
func readHeader(r *bufio.Reader, prefix byte, limit int) (int, error) {
	line, err := readLine(r, maxHeaderLen)
	if err != nil {
		return 0, err
	}
	if len(line) < 2 || line[0] != prefix {
		return 0, fmt.Errorf("%w: expected '%c'", ErrProtocol, prefix)
	}
	n, err := strconv.Atoi(line[1:])
	if err != nil {
		return 0, fmt.Errorf("%w: invalid length %q", ErrProtocol, line[1:])
	}
	if n > limit {
		return 0, fmt.Errorf("%w: length %d exceeds limit %d", ErrLimitExceeded, n, limit)
	}
	return n, nil
}

func readLine(r *bufio.Reader, maxLen int) (string, error) {
	var buf []byte
	for {
		frag, err := r.ReadSlice('\n')
		buf = append(buf, frag...)
		if len(buf) > maxLen+2 {
			return "", fmt.Errorf("%w: line length exceeds limit %d", ErrLimitExceeded, maxLen)
		}
		if err == nil {
			break
		}
		if !errors.Is(err, bufio.ErrBufferFull) {
			return "", err
		}
	}
	if !bytes.HasSuffix(buf, []byte("\r\n")) {
		return "", fmt.Errorf("%w: missing CRLF", ErrProtocol)
	}
	return string(buf[:len(buf)-2]), nil
}

func WriteSimpleString(w *bufio.Writer, s string) error {
	_, err := w.WriteString("+" + s + "\r\n")
	return err
}

func WriteError(w *bufio.Writer, s string) error {
	_, err := w.WriteString("-" + s + "\r\n")
	return err
}

func WriteInteger(w *bufio.Writer, n int64) error {
	_, err := w.WriteString(":" + strconv.FormatInt(n, 10) + "\r\n")
	return err
}

func WriteNullBulk(w *bufio.Writer) error {
	_, err := w.WriteString("$-1\r\n")
	return err
}

func WriteBulkString(w *bufio.Writer, s string) error {
	if _, err := w.WriteString("$" + strconv.Itoa(len(s)) + "\r\n"); err != nil {
		return err
	}
	if _, err := w.WriteString(s); err != nil {
		return err
	}
	_, err := w.WriteString("\r\n")
	return err
}

func WriteArrayHeader(w *bufio.Writer, n int) error {
	_, err := w.WriteString("*" + strconv.Itoa(n) + "\r\n")
	return err
}

// WriteReply encodes an engine reply.
func WriteReply(w *bufio.Writer, reply command.Reply) error {
	switch v := reply.(type) {
	case nil:
		return WriteNullBulk(w)
	case command.Status:
		return WriteSimpleString(w, string(v))
	case command.Error:
		return WriteError(w, string(v))
	case command.Int:
		return WriteInteger(w, int64(v))
	case command.Bulk:
		return WriteBulkString(w, string(v))
	case command.Array:
		if err := WriteArrayHeader(w, len(v)); err != nil {
			return err
		}
		for _, e := range v {
			if err := WriteReply(w, e); err != nil {
				return err
			}
		}
		return nil
	}
	return fmt.Errorf("redisserver: unsupported reply type %T", reply)
}

func normalizeCommandName(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	if bytes.ContainsAny(b, "abcdefghijklmnopqrstuvwxyz") {
		return strings.ToUpper(string(b))
	}
	return string(b)
}
