package redisserver

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/yndnr/nskv/internal/core/command"
)

func reader(s string) *bufio.Reader {
	return bufio.NewReader(strings.NewReader(s))
}

func asStrings(args [][]byte) []string {
	if args == nil {
		return nil
	}
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = string(a)
	}
	return out
}

func TestReadCommand(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []string
		wantErr bool
	}{
		{name: "ping", input: "*1\r\n$4\r\nPING\r\n", want: []string{"PING"}},
		{name: "set", input: "*3\r\n$3\r\nSET\r\n$1\r\nk\r\n$5\r\nhello\r\n", want: []string{"SET", "k", "hello"}},
		{name: "binary safe", input: "*2\r\n$4\r\nECHO\r\n$4\r\na\r\nb\r\n", want: []string{"ECHO", "a\r\nb"}},
		{name: "empty bulk", input: "*2\r\n$4\r\nECHO\r\n$0\r\n\r\n", want: []string{"ECHO", ""}},
		{name: "simple string arg", input: "*2\r\n$4\r\nECHO\r\n+hi\r\n", want: []string{"ECHO", "hi"}},
		{name: "empty array", input: "*0\r\n", want: nil},
		{name: "inline", input: "SET  k   v\r\n", want: []string{"SET", "k", "v"}},
		{name: "blank inline", input: "\r\n", want: nil},
		{name: "bad length", input: "*x\r\n", wantErr: true},
		{name: "missing crlf", input: "PING\n", wantErr: true},
		{name: "bad terminator", input: "*1\r\n$4\r\nPINGxx", wantErr: true},
		{name: "negative bulk", input: "*1\r\n$-5\r\n", wantErr: true},
		{name: "wrong prefix", input: "*1\r\n:4\r\n", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadCommand(reader(tt.input))
			if (err != nil) != tt.wantErr {
				t.Fatalf("ReadCommand() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if fmt.Sprint(asStrings(got)) != fmt.Sprint(tt.want) {
				t.Errorf("ReadCommand() = %q, want %q", asStrings(got), tt.want)
			}
		})
	}
}

func TestReadCommand_NullBulk(t *testing.T) {
	got, err := ReadCommand(reader("*2\r\n$4\r\nECHO\r\n$-1\r\n"))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[1] != nil {
		t.Errorf("got %q, want nil second argument", got)
	}
}

func TestReadCommand_Pipeline(t *testing.T) {
	r := reader("*1\r\n$4\r\nPING\r\nPING\r\n*2\r\n$3\r\nGET\r\n$1\r\nk\r\n")
	want := [][]string{{"PING"}, {"PING"}, {"GET", "k"}}
	for i, w := range want {
		got, err := ReadCommand(r)
		if err != nil {
			t.Fatalf("command %d: %v", i, err)
		}
		if fmt.Sprint(asStrings(got)) != fmt.Sprint(w) {
			t.Errorf("command %d = %q, want %q", i, asStrings(got), w)
		}
	}
}

func TestReadCommand_Limits(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"array", fmt.Sprintf("*%d\r\n", MaxArrayLen+1)},
		{"bulk", fmt.Sprintf("*1\r\n$%d\r\n", MaxBulkLen+1)},
		{"inline", strings.Repeat("a", MaxInlineLen+10) + "\r\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCommand(reader(tt.input))
			if !errors.Is(err, ErrLimitExceeded) {
				t.Errorf("err = %v, want ErrLimitExceeded", err)
			}
		})
	}
}

func TestWriteReply(t *testing.T) {
	tests := []struct {
		name  string
		reply command.Reply
		want  string
	}{
		{"nil", nil, "$-1\r\n"},
		{"status", command.OK, "+OK\r\n"},
		{"error", command.ErrSyntax, "-ERR syntax error\r\n"},
		{"int", command.Int(-42), ":-42\r\n"},
		{"bulk", command.Bulk("héllo"), "$6\r\nhéllo\r\n"},
		{"empty bulk", command.Bulk(""), "$0\r\n\r\n"},
		{"empty array", command.Array{}, "*0\r\n"},
		{
			"nested",
			command.Array{command.Bulk("0"), command.Array{command.Bulk("a"), nil}, command.Int(1)},
			"*3\r\n$1\r\n0\r\n*2\r\n$1\r\na\r\n$-1\r\n:1\r\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			w := bufio.NewWriter(&buf)
			if err := WriteReply(w, tt.reply); err != nil {
				t.Fatal(err)
			}
			_ = w.Flush()
			if buf.String() != tt.want {
				t.Errorf("WriteReply() = %q, want %q", buf.String(), tt.want)
			}
		})
	}
}

func TestWriteReply_Unsupported(t *testing.T) {
	w := bufio.NewWriter(&bytes.Buffer{})
	if err := WriteReply(w, 3.5); err == nil {
		t.Error("WriteReply(float64) succeeded")
	}
}

func TestNormalizeCommandName(t *testing.T) {
	tests := []struct{ in, want string }{
		{"get", "GET"},
		{"GET", "GET"},
		{"json.set", "JSON.SET"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := normalizeCommandName([]byte(tt.in)); got != tt.want {
			t.Errorf("normalizeCommandName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
