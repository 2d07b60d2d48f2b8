package service

import "github.com/rs/zerolog"

// sagaState tracks a cross-service mutation through its fixed lifecycle:
//
//	validating → remote_pending → local_committed
//	                     └──────→ aborted
//
// There is no shared transaction between services, so each edge carries an
// explicit compensation decision: an abort before local_committed means no
// local writes happened; a failure after the remote leg committed is surfaced
// to the caller, never rolled back silently.
type sagaState string

const (
	sagaValidating     sagaState = "validating"
	sagaRemotePending  sagaState = "remote_pending"
	sagaLocalCommitted sagaState = "local_committed"
	sagaAborted        sagaState = "aborted"
)

type saga struct {
	op    string
	state sagaState
	log   zerolog.Logger
}

func newSaga(op string, log zerolog.Logger) *saga {
	return &saga{op: op, state: sagaValidating, log: log}
}

func (s *saga) to(next sagaState) {
	s.log.Debug().
		Str("saga", s.op).
		Str("from", string(s.state)).
		Str("to", string(next)).
		Msg("saga transition")
	s.state = next
}

// abort moves the saga to its terminal failure state and passes the cause
// through so call sites stay one-liners.
func (s *saga) abort(err error) error {
	s.to(sagaAborted)
	return err
}
