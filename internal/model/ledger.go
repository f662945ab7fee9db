package model

// Ledger is the whole persisted state: the owner recorded at initialization
// and the ordered events, indexed by id.
type Ledger struct {
	Owner  Identity `json:"owner"`
	Events []Event  `json:"events"`
}

// Clone returns a deep copy of the ledger state.
func (l *Ledger) Clone() *Ledger {
	c := &Ledger{Owner: l.Owner, Events: make([]Event, len(l.Events))}
	for i, e := range l.Events {
		c.Events[i] = e.Clone()
	}
	return c
}

// Consistent reports whether every event's id matches its position and its
// vote counter matches its voter list.
func (l *Ledger) Consistent() bool {
	for i, e := range l.Events {
		if e.ID != EventID(i) || e.TotalVotes != int64(len(e.Votes)) {
			return false
		}
	}
	return true
}
