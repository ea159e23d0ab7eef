package handlers

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

func TestChatSocketStreamsProgressThenReply(t *testing.T) {
	r := gin.New()
	r.GET("/api/chat/ws", NewChatSocketHandler(&fakeChat{}, nil).Serve)
	srv := httptest.NewServer(r)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/chat/ws?session_id=w1"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	var frame map[string]any
	if err := conn.ReadJSON(&frame); err != nil {
		t.Fatal(err)
	}
	if frame["type"] != "connected" || frame["session_id"] != "w1" {
		t.Fatalf("first frame = %v", frame)
	}

	if err := conn.WriteJSON(map[string]string{"message": "hello"}); err != nil {
		t.Fatal(err)
	}
	frame = nil
	conn.ReadJSON(&frame)
	if frame["type"] != "progress" || frame["fraction"] != 0.5 {
		t.Fatalf("progress frame = %v", frame)
	}
	frame = nil
	conn.ReadJSON(&frame)
	if frame["type"] != "reply" || frame["response"] != "echo: hello" || frame["session_id"] != "w1" {
		t.Fatalf("reply frame = %v", frame)
	}
}

func TestProgressSinkStopsAfterFailedWrite(t *testing.T) {
	calls := 0
	sink := &progressSink{
		write: func(any) error {
			calls++
			return errors.New("write: broken pipe")
		},
		sessionID: "w2",
		logger:    zap.NewNop(),
	}
	sink.ReportProgress(0.25, "Validating...")
	sink.ReportProgress(0.5, "Sending confirmation...")
	sink.ReportProgress(1, "Done")
	if calls != 1 || sink.err == nil {
		t.Errorf("writes after failure: calls=%d err=%v", calls, sink.err)
	}
}
