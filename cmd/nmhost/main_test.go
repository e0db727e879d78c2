package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"tarun-kavipurapu/native-messaging/pkg/config"
	"tarun-kavipurapu/native-messaging/pkg/nativemsg"
)

func TestEncodeDecodeStream(t *testing.T) {
	codec := nativemsg.NewCodec(nativemsg.ChromeLimits())

	var frames bytes.Buffer
	n, err := encodeStream(strings.NewReader(`{"text": "hello"} [1, 2]
"three" 4.50`), &frames, codec)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if n != 4 {
		t.Fatalf("expected 4 messages, got %d", n)
	}

	var out bytes.Buffer
	n, err = decodeStream(&frames, &out, codec, false)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if n != 4 {
		t.Fatalf("expected 4 messages, got %d", n)
	}
	want := "{\"text\":\"hello\"}\n[1,2]\n\"three\"\n4.50\n"
	if out.String() != want {
		t.Fatalf("unexpected output:\n%s", out.String())
	}
}

func TestEncodeStreamRejectsBadJSON(t *testing.T) {
	codec := nativemsg.NewCodec(nativemsg.Unbounded())
	var frames bytes.Buffer
	n, err := encodeStream(strings.NewReader(`{} {"a":`), &frames, codec)
	if err == nil {
		t.Fatalf("expected parse error")
	}
	if n != 1 {
		t.Fatalf("expected 1 message before the error, got %d", n)
	}
}

func TestDecodeStreamTruncated(t *testing.T) {
	codec := nativemsg.NewCodec(nativemsg.Unbounded())
	var out bytes.Buffer
	_, err := decodeStream(bytes.NewReader([]byte{5, 0, 0, 0, 'a', 'b'}), &out, codec, true)
	if !errors.Is(err, nativemsg.ErrTruncated) {
		t.Fatalf("expected ErrTruncated, got %v", err)
	}
}

func TestShellExecutor(t *testing.T) {
	codec := nativemsg.NewCodec(nativemsg.Limits{MaxOutgoing: 8})
	cases := []struct {
		in   string
		want string
	}{
		{`encode [1]`, "len=3\n03 00 00 00 5b 31 5d\n"},
		{`encode "too long for the limit"`, "Error: "},
		{`decode 03 00 00 00 5b 31 5d`, "[1]\n"},
		{`decode 0300 0000 5b31 5d ff`, "(1 trailing bytes not consumed)"},
		{`decode 05000000 6162`, "truncated"},
		{`decode zz`, "Invalid hex"},
		{`limits`, "max incoming: unlimited\nmax outgoing: 8 bytes\n"},
		{`bogus`, "Unknown command: bogus"},
	}
	for _, tc := range cases {
		var out bytes.Buffer
		shellExecutor(tc.in, codec, &out)
		if !strings.Contains(out.String(), tc.want) {
			t.Fatalf("%q: output %q does not contain %q", tc.in, out.String(), tc.want)
		}
	}
}

func TestLaunchedByBrowser(t *testing.T) {
	cases := map[string]bool{
		"chrome-extension://abcdefghijklmnop/": true,
		"/usr/lib/mozilla/native-messaging-hosts/nmhost.json": true,
		"serve": false,
		"":      false,
	}
	for arg, want := range cases {
		if got := launchedByBrowser(arg); got != want {
			t.Fatalf("launchedByBrowser(%q) = %v, want %v", arg, got, want)
		}
	}
}

func TestExampleConfigLoads(t *testing.T) {
	t.Setenv("NMHOST_LOG_LEVEL", "")
	t.Setenv("LOG_LEVEL", "")
	loaded, err := config.Load("nmhost.example.toml")
	if err != nil {
		t.Fatalf("load example config: %v", err)
	}
	if loaded.LogFile != "logs/nmhost.log" || loaded.MaxOutgoing != 1<<20 || loaded.MetricsInterval != time.Minute {
		t.Fatalf("unexpected example config: %+v", loaded)
	}
}
