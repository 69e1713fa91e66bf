package state_test

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/tailored-agentic-units/turnstate/observability"
	"github.com/tailored-agentic-units/turnstate/state"
	"github.com/tailored-agentic-units/turnstate/storage"
	"github.com/tailored-agentic-units/turnstate/turn"
)

func TestOnTurn_ConversationCounter(t *testing.T) {
	store := storage.NewMemoryStore()
	convo, err := state.NewConversationState[counter](store)
	if err != nil {
		t.Fatalf("NewConversationState() error = %v", err)
	}

	tc := turn.NewContext(turn.NewActivity("chan", "conv", "user", "hi"))
	err = convo.OnTurn(context.Background(), tc, func(ctx context.Context) error {
		c, err := state.Conversation[counter](tc)
		if err != nil {
			return err
		}
		if c.Count != 0 {
			t.Errorf("got initial Count %d, want 0", c.Count)
		}
		c.Count++
		return nil
	})
	if err != nil {
		t.Fatalf("OnTurn() error = %v", err)
	}

	got, ok := readJSON[counter](t, store, "conversation/chan/conv")
	if !ok {
		t.Fatal("state was not persisted")
	}
	if got.Count != 1 {
		t.Errorf("got stored Count %d, want 1", got.Count)
	}
}

func TestOnTurn_CallOrder(t *testing.T) {
	store := newRecordingStore()
	convo, _ := state.NewConversationState[counter](store)

	var continuationSaw []string
	err := convo.OnTurn(context.Background(), newTurn(), func(ctx context.Context) error {
		continuationSaw = store.Calls()
		return nil
	})
	if err != nil {
		t.Fatalf("OnTurn() error = %v", err)
	}

	if !slices.Equal(continuationSaw, []string{"read"}) {
		t.Errorf("continuation saw calls %v, want [read]", continuationSaw)
	}
	if got := store.Calls(); !slices.Equal(got, []string{"read", "write"}) {
		t.Errorf("got calls %v, want [read write]", got)
	}
}

func TestOnTurn_ContinuationFailureSkipsWrite(t *testing.T) {
	store := newRecordingStore()
	obs := &observability.CaptureObserver{}
	convo, _ := state.NewConversationState(store, state.WithObserver[counter](obs))

	boom := errors.New("handler failed")
	err := convo.OnTurn(context.Background(), newTurn(), func(ctx context.Context) error {
		return boom
	})
	if err != boom {
		t.Errorf("got error %v, want continuation error unchanged", err)
	}
	if got := store.Calls(); !slices.Equal(got, []string{"read"}) {
		t.Errorf("got calls %v, want [read]", got)
	}
	if got := obs.Types(); !slices.Equal(got, []observability.EventType{state.EventLoad, state.EventSkip}) {
		t.Errorf("got events %v", got)
	}
}

func TestOnTurn_ReadFailureSkipsContinuation(t *testing.T) {
	store := newRecordingStore()
	store.readErr = errors.New("storage down")
	convo, _ := state.NewConversationState[counter](store)

	err := convo.OnTurn(context.Background(), newTurn(), func(ctx context.Context) error {
		t.Error("continuation should not run")
		return nil
	})
	if err != store.readErr {
		t.Errorf("got error %v, want %v", err, store.readErr)
	}
}

func TestOnTurn_MissingSlot(t *testing.T) {
	convo, _ := state.NewConversationState[counter](storage.NewMemoryStore())
	tc := newTurn()

	err := convo.OnTurn(context.Background(), tc, func(ctx context.Context) error {
		tc.Services().Remove(convo.Name())
		return nil
	})
	if !errors.Is(err, turn.ErrServiceNotFound) {
		t.Errorf("got error %v, want ErrServiceNotFound", err)
	}
}

func TestOnTurn_SlotTypeMismatch(t *testing.T) {
	convo, _ := state.NewConversationState[counter](storage.NewMemoryStore())
	tc := newTurn()

	err := convo.OnTurn(context.Background(), tc, func(ctx context.Context) error {
		tc.Services().Add(convo.Name(), "not a counter")
		return nil
	})
	if !errors.Is(err, turn.ErrServiceType) {
		t.Errorf("got error %v, want ErrServiceType", err)
	}
}

func TestOnTurn_OverwritesExistingSlot(t *testing.T) {
	store := storage.NewMemoryStore()
	putJSON(t, store, "conversation/test/conv-1", counter{Count: 8})
	convo, _ := state.NewConversationState[counter](store)

	tc := newTurn()
	tc.Services().Add(convo.Name(), &counter{Count: -1})

	err := convo.OnTurn(context.Background(), tc, func(ctx context.Context) error {
		c, err := state.Conversation[counter](tc)
		if err != nil {
			return err
		}
		if c.Count != 8 {
			t.Errorf("got Count %d, want stored 8", c.Count)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("OnTurn() error = %v", err)
	}
}

func TestOnTurn_ScopesDoNotCollide(t *testing.T) {
	store := storage.NewMemoryStore()
	convo, _ := state.NewConversationState[counter](store)
	user, _ := state.NewUserState[counter](store)

	tc := newTurn()
	pipeline := turn.NewPipeline(convo, user)

	err := pipeline.Run(context.Background(), tc, func(ctx context.Context, tc *turn.Context) error {
		c, err := state.Conversation[counter](tc)
		if err != nil {
			return err
		}
		u, err := state.User[counter](tc)
		if err != nil {
			return err
		}
		if c == u {
			t.Error("conversation and user state share an instance")
		}
		c.Count = 1
		u.Count = 100
		return nil
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if got, _ := readJSON[counter](t, store, "conversation/test/conv-1"); got.Count != 1 {
		t.Errorf("got conversation Count %d, want 1", got.Count)
	}
	if got, _ := readJSON[counter](t, store, "user/test/user-1"); got.Count != 100 {
		t.Errorf("got user Count %d, want 100", got.Count)
	}
}

func TestOnTurn_AccumulatesAcrossTurns(t *testing.T) {
	store := storage.NewMemoryStore()
	pipeline := turn.NewPipeline()
	convo, _ := state.NewConversationState[versionedCounter](store)
	pipeline.Use(convo)

	for range 3 {
		tc := turn.NewContext(turn.NewActivity("test", "conv-1", "user-1", "again"))
		err := pipeline.Run(context.Background(), tc, func(ctx context.Context, tc *turn.Context) error {
			c, err := state.Conversation[versionedCounter](tc)
			if err != nil {
				return err
			}
			c.Count++
			return nil
		})
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
	}

	if got, _ := readJSON[versionedCounter](t, store, "conversation/test/conv-1"); got.Count != 3 {
		t.Errorf("got Count %d, want 3", got.Count)
	}
}

func TestOnTurn_Events(t *testing.T) {
	obs := &observability.CaptureObserver{}
	convo, _ := state.NewConversationState(storage.NewMemoryStore(), state.WithObserver[counter](obs))

	err := convo.OnTurn(context.Background(), newTurn(), func(ctx context.Context) error { return nil })
	if err != nil {
		t.Fatalf("OnTurn() error = %v", err)
	}

	events := obs.Events()
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].Type != state.EventLoad || events[1].Type != state.EventSave {
		t.Errorf("got events %v", obs.Types())
	}
	if events[1].Data["property"] != convo.Name() {
		t.Errorf("got property %v, want %q", events[1].Data["property"], convo.Name())
	}
}

func TestDelete(t *testing.T) {
	store := storage.NewMemoryStore()
	putJSON(t, store, "conversation/test/conv-1", counter{Count: 3})
	convo, _ := state.NewConversationState[counter](store)
	ctx := context.Background()
	tc := newTurn()

	tc.Services().Add(convo.Name(), &counter{Count: 3})
	if err := convo.Delete(ctx, tc); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if _, ok := readJSON[counter](t, store, "conversation/test/conv-1"); ok {
		t.Error("stored state should be deleted")
	}
	if tc.Services().Has(convo.Name()) {
		t.Error("registry slot should be cleared")
	}
}

func TestAccessors_BeforeLoad(t *testing.T) {
	tc := newTurn()

	if _, err := state.Conversation[counter](tc); !errors.Is(err, turn.ErrServiceNotFound) {
		t.Errorf("got error %v, want ErrServiceNotFound", err)
	}
	if _, err := state.User[counter](tc); !errors.Is(err, turn.ErrServiceNotFound) {
		t.Errorf("got error %v, want ErrServiceNotFound", err)
	}
}
