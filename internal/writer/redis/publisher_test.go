// internal/writer/redis/publisher_test.go
package redis

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/k13114/ifsmurd/internal/message"
)

func TestNew_RequiresAddrAndChannel(t *testing.T) {
	if _, err := New(Config{Channel: "c"}); err == nil {
		t.Fatalf("expected error for empty addr")
	}
	if _, err := New(Config{Addr: "localhost:6379"}); err == nil {
		t.Fatalf("expected error for empty channel")
	}
}

func TestEncode_Payload(t *testing.T) {
	p, err := New(Config{Addr: "localhost:6379", Channel: "ifsmurd:records", Source: "lab-1"})
	if err != nil {
		t.Fatalf("New err=%v", err)
	}
	defer p.Close()

	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return at }

	body, err := p.encode(message.Record{{ID: "AB01", Value: 2.5}, {ID: "CD02", Value: -1}})
	if err != nil {
		t.Fatalf("encode err=%v", err)
	}

	var got struct {
		Source string             `json:"source"`
		Time   time.Time          `json:"time"`
		Values map[string]float64 `json:"values"`
	}
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("unmarshal err=%v", err)
	}

	if got.Source != "lab-1" || !got.Time.Equal(at) {
		t.Fatalf("header got source=%q time=%v", got.Source, got.Time)
	}
	if diff := cmp.Diff(map[string]float64{"AB01": 2.5, "CD02": -1}, got.Values); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
}
