// Package state loads typed state into a turn before downstream processing
// and persists it once processing completes.
//
// A Container binds a storage.Store, a registry slot name and a key function.
// Its OnTurn middleware reads the state for the turn's key into the turn's
// service registry, runs the rest of the pipeline, then writes whatever the
// registry slot holds back to the store:
//
//	convo, err := state.NewConversationState[Counter](store)
//	pipeline := turn.NewPipeline(convo)
//	err = pipeline.Run(ctx, tc, func(ctx context.Context, tc *turn.Context) error {
//	    c, err := state.Conversation[Counter](tc)
//	    if err != nil {
//	        return err
//	    }
//	    c.Count++
//	    return nil
//	})
//
// Absence of stored state is never an error: the first turn for a key sees a
// default instance. State types that embed storage.Version take part in
// optimistic concurrency; with LastWriterWins (the default) their tag is
// forced to storage.AnyETag before every write.
package state
