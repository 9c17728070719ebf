package relic

import "log"

// Prediction is one optimistic change a client applied before the server
// answered.
type Prediction struct {
	Key       uint32
	State     State
	Carrier   ID
	Timestamp float64
}

// Ledger tracks in-flight relic predictions on a client.
type Ledger struct {
	active  []Prediction
	nextKey uint32
}

func NewLedger() *Ledger {
	return &Ledger{nextKey: 1}
}

// NextKey returns a fresh prediction key. Keys wrap to 1 and are never 0.
func (l *Ledger) NextKey() uint32 {
	k := l.nextKey
	l.nextKey++
	if l.nextKey == 0 {
		l.nextKey = 1
	}
	return k
}

// AddPrediction records a prediction made at now.
func (l *Ledger) AddPrediction(key uint32, state State, carrier ID, now float64) {
	l.active = append(l.active, Prediction{Key: key, State: state, Carrier: carrier, Timestamp: now})
}

// ConfirmPrediction removes the prediction with key. It reports whether it
// was found.
func (l *Ledger) ConfirmPrediction(key uint32) bool {
	_, ok := l.take(key)
	return ok
}

// RejectPrediction removes the prediction with key after the authority
// settled on state and carrier instead. It reports whether the prediction was
// in flight; a false return means there is nothing left to correct.
func (l *Ledger) RejectPrediction(key uint32, state State, carrier ID) bool {
	p, ok := l.take(key)
	if ok {
		log.Printf("[relic] prediction %d rejected: predicted %s by %d, authority %s by %d", key, p.State, p.Carrier, state, carrier)
	}
	return ok
}

// ClearStaleData drops predictions older than threshold seconds and returns
// how many were dropped.
func (l *Ledger) ClearStaleData(now, threshold float64) int {
	kept := l.active[:0]
	for _, p := range l.active {
		if now-p.Timestamp <= threshold {
			kept = append(kept, p)
		}
	}
	dropped := len(l.active) - len(kept)
	clear(l.active[len(kept):])
	l.active = kept
	return dropped
}

// Get returns the prediction with key.
func (l *Ledger) Get(key uint32) (Prediction, bool) {
	for _, p := range l.active {
		if p.Key == key {
			return p, true
		}
	}
	return Prediction{}, false
}

// Latest returns the newest prediction.
func (l *Ledger) Latest() (Prediction, bool) {
	if len(l.active) == 0 {
		return Prediction{}, false
	}
	return l.active[len(l.active)-1], true
}

// Len is the number of predictions in flight.
func (l *Ledger) Len() int { return len(l.active) }

func (l *Ledger) take(key uint32) (Prediction, bool) {
	for i, p := range l.active {
		if p.Key == key {
			l.active = append(l.active[:i], l.active[i+1:]...)
			return p, true
		}
	}
	return Prediction{}, false
}
