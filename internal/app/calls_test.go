package app

import (
	"encoding/json"
	"testing"

	"github.com/socia-app/relay/internal/domain"
)

// callFixture wires a caller (u1, connection a1) and a recipient
// (u2, connections b1 and b2) with a1 and b1 in the chat room.
func callFixture(t *testing.T) (*fixture, *Calls, map[string]*fakeConn) {
	t.Helper()
	f := newFixture()
	conns := map[string]*fakeConn{
		"a1": f.connect(t, "a1", "u1"),
		"b1": f.connect(t, "b1", "u2"),
		"b2": f.connect(t, "b2", "u2"),
	}
	room := domain.ChatID("c1").Room()
	f.rooms.Join(room, "a1")
	f.rooms.Join(room, "b1")
	return f, NewCalls(f.relay), conns
}

func TestCalls_InitiateRingsRecipientOnly(t *testing.T) {
	_, calls, conns := callFixture(t)

	id := calls.Initiate("c1", domain.CallAudio, domain.UserRef{ID: "u1"}, domain.UserRef{ID: "u2"})
	if id == "" {
		t.Fatal("Initiate() returned empty call id")
	}

	for _, name := range []string{"b1", "b2"} {
		if got := conns[name].countEvent(t, EventIncomingCall); got != 1 {
			t.Errorf("recipient connection %s received %d incoming_call, want 1", name, got)
		}
	}
	if got := conns["a1"].countEvent(t, EventIncomingCall); got != 0 {
		t.Errorf("caller received %d incoming_call, want 0 (ring is personal-room only)", got)
	}

	var payload struct {
		CallID string `json:"callId"`
		ChatID string `json:"chatId"`
	}
	for _, e := range conns["b1"].events(t) {
		if e.Event == EventIncomingCall {
			if err := json.Unmarshal(e.Data, &payload); err != nil {
				t.Fatalf("incoming_call payload: %v", err)
			}
		}
	}
	if payload.CallID != string(id) || payload.ChatID != "c1" {
		t.Errorf("incoming_call payload = %+v, want callId %s chat c1", payload, id)
	}
}

func TestCalls_UniqueIDs(t *testing.T) {
	_, calls, _ := callFixture(t)
	seen := make(map[domain.CallID]bool)
	for i := 0; i < 10; i++ {
		id := calls.Initiate("c1", domain.CallAudio, domain.UserRef{ID: "u1"}, domain.UserRef{ID: "u2"})
		if seen[id] {
			t.Fatalf("duplicate call id %s", id)
		}
		seen[id] = true
	}
}

func TestCalls_AcceptFlow(t *testing.T) {
	_, calls, conns := callFixture(t)
	id := calls.Initiate("c1", domain.CallAudio, domain.UserRef{ID: "u1"}, domain.UserRef{ID: "u2"})

	calls.Accept("b1", id, "c1", domain.UserRef{ID: "u2"}, domain.CallAudio)

	// The caller's connection in the chat room sees call_accepted then
	// call_status_update.
	var got []string
	for _, e := range conns["a1"].events(t) {
		got = append(got, e.Event)
	}
	want := []string{EventCallAccepted, EventCallStatusUpdate}
	if len(got) != len(want) {
		t.Fatalf("caller events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("caller events = %v, want %v", got, want)
		}
	}

	// The accepter's own connection is excluded from call_accepted but
	// receives the room-wide status update.
	if got := conns["b1"].countEvent(t, EventCallAccepted); got != 0 {
		t.Errorf("accepter received %d call_accepted, want 0", got)
	}
	if got := conns["b1"].countEvent(t, EventCallStatusUpdate); got != 1 {
		t.Errorf("accepter received %d call_status_update, want 1", got)
	}

	var status struct {
		Status string `json:"status"`
		ChatID string `json:"chatId"`
	}
	for _, e := range conns["a1"].events(t) {
		if e.Event == EventCallStatusUpdate {
			if err := json.Unmarshal(e.Data, &status); err != nil {
				t.Fatalf("call_status_update payload: %v", err)
			}
		}
	}
	if status.Status != "accepted" || status.ChatID != "c1" {
		t.Errorf("status payload = %+v, want accepted/c1", status)
	}
}

func TestCalls_DuplicateAcceptSuppressed(t *testing.T) {
	_, calls, conns := callFixture(t)
	id := calls.Initiate("c1", domain.CallAudio, domain.UserRef{ID: "u1"}, domain.UserRef{ID: "u2"})

	calls.Accept("b1", id, "c1", domain.UserRef{ID: "u2"}, domain.CallAudio)
	calls.Accept("b1", id, "c1", domain.UserRef{ID: "u2"}, domain.CallAudio)

	if got := conns["a1"].countEvent(t, EventCallAccepted); got != 1 {
		t.Errorf("caller received %d call_accepted after duplicate accept, want 1", got)
	}
}

func TestCalls_UnknownCallIgnored(t *testing.T) {
	_, calls, conns := callFixture(t)

	calls.Accept("b1", "no-such-call", "c1", domain.UserRef{ID: "u2"}, domain.CallAudio)
	calls.Reject("b1", "no-such-call", "c1", domain.UserRef{ID: "u2"}, domain.CallAudio)

	for _, ev := range []string{EventCallAccepted, EventCallRejected, EventCallStatusUpdate} {
		if got := conns["a1"].countEvent(t, ev); got != 0 {
			t.Errorf("caller received %d %s for unknown call, want 0", got, ev)
		}
	}
}

func TestCalls_RejectTerminates(t *testing.T) {
	_, calls, conns := callFixture(t)
	id := calls.Initiate("c1", domain.CallVideo, domain.UserRef{ID: "u1"}, domain.UserRef{ID: "u2"})

	calls.Reject("b1", id, "c1", domain.UserRef{ID: "u2"}, domain.CallVideo)
	if got := conns["a1"].countEvent(t, EventCallRejected); got != 1 {
		t.Fatalf("caller received %d call_rejected, want 1", got)
	}
	if calls.Active() != 0 {
		t.Errorf("Active() = %d after reject, want 0", calls.Active())
	}

	// Accepting a rejected call is a stale transition.
	calls.Accept("b1", id, "c1", domain.UserRef{ID: "u2"}, domain.CallVideo)
	if got := conns["a1"].countEvent(t, EventCallAccepted); got != 0 {
		t.Errorf("caller received %d call_accepted after reject, want 0", got)
	}
}

func TestCalls_ConnectedBroadcastsToWholeRoom(t *testing.T) {
	_, calls, conns := callFixture(t)
	calls.Initiate("c1", domain.CallAudio, domain.UserRef{ID: "u1"}, domain.UserRef{ID: "u2"})

	calls.Connected("c1", domain.CallAudio)

	for _, name := range []string{"a1", "b1"} {
		if got := conns[name].countEvent(t, EventCallConnected); got != 1 {
			t.Errorf("%s received %d call_connected, want 1", name, got)
		}
	}
}

func TestCalls_EndNotifiesAndClears(t *testing.T) {
	_, calls, conns := callFixture(t)
	calls.Initiate("c1", domain.CallAudio, domain.UserRef{ID: "u1"}, domain.UserRef{ID: "u2"})

	calls.End("a1", "c1", domain.UserRef{ID: "u1"})

	if got := conns["b1"].countEvent(t, EventCallEnded); got != 1 {
		t.Errorf("b1 received %d call_ended, want 1", got)
	}
	if got := conns["a1"].countEvent(t, EventCallEnded); got != 0 {
		t.Errorf("ending connection received %d call_ended, want 0", got)
	}
	if calls.Active() != 0 {
		t.Errorf("Active() = %d after end, want 0", calls.Active())
	}
}

func TestCalls_CancelRingsOnCallerDisconnect(t *testing.T) {
	_, calls, conns := callFixture(t)
	calls.Initiate("c1", domain.CallAudio, domain.UserRef{ID: "u1"}, domain.UserRef{ID: "u2"})

	calls.CancelRingsFor("u1")

	for _, name := range []string{"b1", "b2"} {
		if got := conns[name].countEvent(t, EventCallEnded); got == 0 {
			t.Errorf("recipient connection %s got no call_ended after caller disconnect", name)
		}
	}
	if calls.Active() != 0 {
		t.Errorf("Active() = %d after ring cancel, want 0", calls.Active())
	}

	// Only ringing calls of the disconnected caller are retracted.
	id := calls.Initiate("c1", domain.CallAudio, domain.UserRef{ID: "u1"}, domain.UserRef{ID: "u2"})
	calls.Accept("b1", id, "c1", domain.UserRef{ID: "u2"}, domain.CallAudio)
	calls.CancelRingsFor("u1")
	if calls.Active() != 1 {
		t.Errorf("Active() = %d, want 1 (accepted call survives caller ring-cancel)", calls.Active())
	}
}
