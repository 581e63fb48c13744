package handler

import (
	"errors"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

type fakeNotifySink struct {
	messages []string
	limit    int // ghi quá limit thì coi như kết nối đã đóng, -1 là không giới hạn
}

func (s *fakeNotifySink) WriteMessage(_ int, data []byte) error {
	if s.limit >= 0 && len(s.messages) >= s.limit {
		return errors.New("connection closed")
	}
	s.messages = append(s.messages, string(data))
	return nil
}

func TestForwardNotificationsDeliversEachMessageOnce(t *testing.T) {
	ch := make(chan *redis.Message, 2)
	ch <- &redis.Message{Payload: `{"title":"Đơn hàng mới"}`}
	ch <- &redis.Message{Payload: `{"title":"Đơn hàng đang giao"}`}
	close(ch)

	sink := &fakeNotifySink{limit: -1}
	forwardNotifications(sink, ch)

	assert.Equal(t, []string{
		`{"title":"Đơn hàng mới"}`,
		`{"title":"Đơn hàng đang giao"}`,
	}, sink.messages)
}

func TestForwardNotificationsStopsWhenConnectionCloses(t *testing.T) {
	ch := make(chan *redis.Message, 3)
	ch <- &redis.Message{Payload: "a"}
	ch <- &redis.Message{Payload: "b"}
	ch <- &redis.Message{Payload: "c"}
	close(ch)

	sink := &fakeNotifySink{limit: 1}
	forwardNotifications(sink, ch)

	assert.Equal(t, []string{"a"}, sink.messages)
}
