package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"github.com/allape/delaycam/display"
	"github.com/allape/delaycam/video"
	"github.com/gorilla/websocket"
	"image"
	"image/jpeg"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	s := New(&Options{Path: "frames"})
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		_ = s.Close()
		ts.Close()
	})
	return s, ts
}

func waitFor(t *testing.T, what string, cond func() bool) {
	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("Timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestIndex(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), "'/frames'") {
		t.Fatal("Expected the page to connect to /frames")
	}
	if strings.Contains(string(body), wsPathPlaceholder) {
		t.Fatal("Expected the websocket path placeholder to be replaced")
	}
}

func TestStream(t *testing.T) {
	s, ts := newTestServer(t)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + s.Path
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		_ = conn.Close()
	}()

	waitFor(t, "viewer", func() bool {
		return s.Status().Clients == 1
	})

	frame := video.NewImageFrame(image.NewRGBA(image.Rect(0, 0, 64, 48)))
	if err := s.Show(frame); err != nil {
		t.Fatal(err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	kind, bs, err := conn.ReadMessage()
	if err != nil {
		t.Fatal(err)
	}
	if kind != websocket.BinaryMessage {
		t.Fatalf("Expected binary message, got %d", kind)
	}
	img, err := jpeg.Decode(bytes.NewReader(bs))
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Size() != image.Pt(64, 48) {
		t.Fatalf("Expected 64x48, got %v", img.Bounds().Size())
	}

	if _, err := frame.Image(); err != nil {
		t.Fatal("Expected the sink to leave the frame open")
	}

	resp, err := http.Get(ts.URL + "/status")
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	var status Status
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		t.Fatal(err)
	}
	if status.Clients != 1 || status.Shown != 1 {
		t.Fatalf("Expected 1 client and 1 frame shown, got %+v", status)
	}

	_ = conn.Close()
	waitFor(t, "viewer to leave", func() bool {
		return s.Status().Clients == 0
	})
}

func TestSlowViewerKeepsLatest(t *testing.T) {
	cl := &client{frames: make(chan []byte, 1)}
	cl.offer([]byte{1})
	cl.offer([]byte{2})
	cl.offer([]byte{3})

	bs := <-cl.frames
	if !bytes.Equal(bs, []byte{3}) {
		t.Fatalf("Expected the latest frame, got %v", bs)
	}
	select {
	case bs := <-cl.frames:
		t.Fatalf("Expected one queued frame, got another %v", bs)
	default:
	}
}

func TestQuit(t *testing.T) {
	s, ts := newTestServer(t)

	if s.PollQuit(time.Millisecond) {
		t.Fatal("Expected no quit request yet")
	}

	resp, err := http.Post(ts.URL+"/quit", "text/plain", nil)
	if err != nil {
		t.Fatal(err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	if !s.PollQuit(time.Second) {
		t.Fatal("Expected a quit request")
	}
	// a quit request stays requested, even with no time to wait
	for range 200 {
		if !s.PollQuit(0) {
			t.Fatal("Expected the quit request to persist")
		}
	}
}

func TestShowAfterClose(t *testing.T) {
	s := New(nil)
	if s.Addr != DefaultAddr || s.Path != DefaultPath {
		t.Fatalf("Expected defaults, got %s %s", s.Addr, s.Path)
	}

	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	err := s.Show(video.NewImageFrame(image.NewRGBA(image.Rect(0, 0, 1, 1))))
	if !errors.Is(err, display.ErrClosed) {
		t.Fatalf("Expected ErrClosed, got %v", err)
	}
}

func TestOpenListens(t *testing.T) {
	s := New(&Options{Addr: "127.0.0.1:0"})
	if err := s.Open(); err != nil {
		t.Fatal(err)
	}
	defer func() {
		_ = s.Close()
	}()

	addr := s.ListenAddr()
	if addr == nil {
		t.Fatal("Expected a listen address")
	}

	resp, err := http.Get("http://" + addr.String() + "/status")
	if err != nil {
		t.Fatal(err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
}
