package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSignalCallsSubscribersInOrder(t *testing.T) {
	var s Signal[int]
	var got []string

	s.Subscribe(func(v int) { got = append(got, "a") })
	unsubB := s.Subscribe(func(v int) { got = append(got, "b") })
	s.Subscribe(func(v int) { got = append(got, "c") })

	s.emit(1)
	assert.Equal(t, []string{"a", "b", "c"}, got)

	got = nil
	unsubB()
	unsubB()
	s.emit(2)
	assert.Equal(t, []string{"a", "c"}, got)
}

func TestSignalUnsubscribeDuringEmit(t *testing.T) {
	var s Signal[string]
	calls := 0
	var unsub func()
	unsub = s.Subscribe(func(string) {
		calls++
		unsub()
	})
	s.Subscribe(func(string) { calls++ })

	s.emit("x")
	assert.Equal(t, 2, calls)
	s.emit("y")
	assert.Equal(t, 3, calls)
}

func TestSignalWithoutSubscribers(t *testing.T) {
	var s Signal[GameResult]
	assert.NotPanics(t, func() { s.emit(GameResult{AreaID: "a"}) })
}
