package game

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/scythe504/trivia-backend/internal"
)

func TestHub_PublishToRoomAndUser(t *testing.T) {
	hub := NewHub(discard)

	hostPhone := newSub("c1", "host")
	hostLaptop := newSub("c2", "host")
	guest := newSub("c3", "guest")
	outsider := newSub("c4", "other")

	hub.Join("111111", hostPhone)
	hub.Register(hostLaptop)
	hub.Join("111111", guest)
	hub.Join("222222", outsider)

	hub.Publish("111111",
		roomEvent(internal.EventRoomUpdated, map[string]string{"code": "111111"}),
		userEvent("host", internal.EventCanStartGame, internal.CanStartGameData{Code: "111111"}),
	)

	assert.Equal(t, []string{internal.EventRoomUpdated, internal.EventCanStartGame}, hostPhone.types())
	assert.Equal(t, []string{internal.EventCanStartGame}, hostLaptop.types())
	assert.Equal(t, []string{internal.EventRoomUpdated}, guest.types())
	assert.Empty(t, outsider.types())
}

func TestHub_SlowSubscriberDoesNotBlock(t *testing.T) {
	hub := NewHub(discard)

	slow := newSub("c1", "u1")
	slow.full = true
	fast := newSub("c2", "u2")
	hub.Join("111111", slow)
	hub.Join("111111", fast)

	hub.Publish("111111", roomEvent(internal.EventGameError, internal.GameErrorData{Message: "x"}))

	assert.Empty(t, slow.types())
	assert.Equal(t, []string{internal.EventGameError}, fast.types())
}

func TestHub_LeaveAndUnregister(t *testing.T) {
	hub := NewHub(discard)
	sub := newSub("c1", "u1")

	hub.Join("111111", sub)
	hub.Join("222222", sub)
	assert.Equal(t, 1, hub.RoomSize("111111"))

	hub.Leave("111111", sub)
	assert.Equal(t, 0, hub.RoomSize("111111"))
	assert.Equal(t, 1, hub.RoomSize("222222"))

	hub.Unregister(sub)
	assert.Equal(t, 0, hub.RoomSize("222222"))

	hub.Publish("222222", roomEvent(internal.EventRoomUpdated, nil))
	hub.Publish("222222", userEvent("u1", internal.EventCanStartGame, nil))
	assert.Empty(t, sub.types())
}
