package core

type (
	// State is the in-memory transaction list the local fallback ledger
	// maintains. Transitions happen only through Reduce.
	State struct {
		Transactions []Transaction
	}

	// Action is a state transition understood by Reduce.
	Action interface {
		apply(State) State
	}

	// Load replaces the whole transaction list.
	Load struct{ Transactions []Transaction }

	// Add prepends a transaction, newest first.
	Add struct{ Transaction Transaction }

	// Remove drops the transaction with the given id. Unknown ids are a
	// no-op.
	Remove struct{ ID string }
)

// Reduce applies an action and returns the next state. Arguments are never
// mutated and the returned state shares no slice storage with them.
func Reduce(s State, a Action) State {
	return a.apply(s)
}

func (a Load) apply(State) State {
	next := make([]Transaction, len(a.Transactions))
	copy(next, a.Transactions)
	return State{Transactions: next}
}

func (a Add) apply(s State) State {
	next := make([]Transaction, 0, len(s.Transactions)+1)
	next = append(next, a.Transaction)
	next = append(next, s.Transactions...)
	return State{Transactions: next}
}

func (a Remove) apply(s State) State {
	next := make([]Transaction, 0, len(s.Transactions))
	for _, t := range s.Transactions {
		if t.ID == a.ID {
			continue
		}
		next = append(next, t)
	}
	return State{Transactions: next}
}
