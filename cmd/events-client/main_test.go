package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"net"
	"strings"
	"testing"

	"mediatracker/internal/events"
)

// feed accepts one connection, hands the hello to gotHello and writes lines.
func feed(t *testing.T, lines []string, gotHello chan<- events.Hello) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { _ = ln.Close() })
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		var h events.Hello
		line, _ := bufio.NewReader(conn).ReadBytes('\n')
		_ = json.Unmarshal(line, &h)
		gotHello <- h
		for _, l := range lines {
			_, _ = conn.Write([]byte(l + "\n"))
		}
	}()
	return ln.Addr().String()
}

func TestRun_ResumesAndSkipsReplayedEvents(t *testing.T) {
	hellos := make(chan events.Hello, 1)
	addr := feed(t, []string{
		`{"type":"welcome","transport":"tcp","seq":5}`,
		`{"seq":3,"type":"record_added","recordId":"old"}`,
		`{"seq":4,"type":"record_updated","recordId":"r1"}`,
		`{"seq":5,"type":"record_removed","recordId":"r1"}`,
	}, hellos)

	last := uint64(3)
	var out bytes.Buffer
	if err := run(addr, "tok", &last, false, &out); err == nil || errors.Is(err, errRejected) {
		t.Fatalf("expected a disconnect, got %v", err)
	}

	h := <-hellos
	if h.Token != "tok" || h.Since == nil || *h.Since != 3 {
		t.Fatalf("hello = %+v", h)
	}
	if last != 5 {
		t.Fatalf("last = %d, want 5", last)
	}
	got := out.String()
	if strings.Contains(got, `"old"`) || strings.Contains(got, "welcome") {
		t.Fatalf("replayed or control lines printed: %s", got)
	}
	if strings.Count(got, "\n") != 2 {
		t.Fatalf("expected two events, got %q", got)
	}
}

func TestRun_FirstConnectSendsNoSince(t *testing.T) {
	hellos := make(chan events.Hello, 1)
	addr := feed(t, nil, hellos)

	var last uint64
	_ = run(addr, "tok", &last, true, &bytes.Buffer{})
	if h := <-hellos; h.Since != nil {
		t.Fatalf("unexpected since %d", *h.Since)
	}
}

func TestRun_StopsOnRejection(t *testing.T) {
	hellos := make(chan events.Hello, 1)
	addr := feed(t, []string{`{"type":"error","error":"unauthorized"}`}, hellos)

	var last uint64
	err := run(addr, "bad", &last, true, &bytes.Buffer{})
	if !errors.Is(err, errRejected) || !strings.Contains(err.Error(), "unauthorized") {
		t.Fatalf("expected rejection, got %v", err)
	}
}
