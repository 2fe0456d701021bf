// Package thresholds decides which budget and duration thresholds a lease has
// newly crossed. It does no I/O.
package thresholds

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/shopspring/decimal"
)

type Action string

const (
	ActionAlert   Action = "ALERT"
	ActionFreeze  Action = "FREEZE_ACCOUNT"
	ActionReclaim Action = "RECLAIM_ACCOUNT"
)

func (a Action) Valid() bool {
	switch a {
	case ActionAlert, ActionFreeze, ActionReclaim:
		return true
	}

	return false
}

func (a Action) severity() int {
	switch a {
	case ActionAlert:
		return 1
	case ActionFreeze:
		return 2
	case ActionReclaim:
		return 3
	}

	return 0
}

type BudgetThreshold struct {
	DollarsSpent     decimal.Decimal `json:"dollarsSpent"`
	Action           Action          `json:"action"`
	AlreadyTriggered bool            `json:"alreadyTriggered"`
}

// DurationThreshold fires once the lease has at most HoursRemaining left.
type DurationThreshold struct {
	HoursRemaining   int    `json:"hoursRemaining"`
	Action           Action `json:"action"`
	AlreadyTriggered bool   `json:"alreadyTriggered"`
}

type Kind string

const (
	KindBudget   Kind = "budget"
	KindDuration Kind = "duration"
)

// Crossed references a threshold by its position in the lease's list.
type Crossed struct {
	Kind   Kind
	Index  int
	Action Action
}

// EvaluateBudget returns the untriggered thresholds reached by spent, lowest dollar amount first.
func EvaluateBudget(ts []BudgetThreshold, spent decimal.Decimal) []Crossed {
	order := make([]int, 0, len(ts))
	for i, t := range ts {
		if !t.AlreadyTriggered && spent.GreaterThanOrEqual(t.DollarsSpent) {
			order = append(order, i)
		}
	}

	slices.SortStableFunc(order, func(a, b int) int {
		return ts[a].DollarsSpent.Cmp(ts[b].DollarsSpent)
	})

	crossed := make([]Crossed, 0, len(order))
	for _, i := range order {
		crossed = append(crossed, Crossed{Kind: KindBudget, Index: i, Action: ts[i].Action})
	}

	return crossed
}

// EvaluateDuration returns the untriggered thresholds reached with hoursRemaining
// left, the earliest firing (largest hour count) first.
func EvaluateDuration(ts []DurationThreshold, hoursRemaining float64) []Crossed {
	order := make([]int, 0, len(ts))
	for i, t := range ts {
		if !t.AlreadyTriggered && hoursRemaining <= float64(t.HoursRemaining) {
			order = append(order, i)
		}
	}

	slices.SortStableFunc(order, func(a, b int) int {
		return cmp.Compare(ts[b].HoursRemaining, ts[a].HoursRemaining)
	})

	crossed := make([]Crossed, 0, len(order))
	for _, i := range order {
		crossed = append(crossed, Crossed{Kind: KindDuration, Index: i, Action: ts[i].Action})
	}

	return crossed
}

// Resolution is what a single evaluation pass must do.
type Resolution struct {
	// Effective is the most severe action crossed, empty when nothing fired.
	Effective Action
	// Reported are the thresholds whose alerts still go out. A reclaim
	// suppresses everything below it.
	Reported []Crossed
	// Triggered must all be marked in the same write that applies Effective.
	Triggered []Crossed
}

func (r Resolution) Fired() bool {
	return len(r.Triggered) > 0
}

func Resolve(crossed ...[]Crossed) Resolution {
	var res Resolution
	for _, group := range crossed {
		res.Triggered = append(res.Triggered, group...)
	}

	for _, c := range res.Triggered {
		if c.Action.severity() > res.Effective.severity() {
			res.Effective = c.Action
		}
	}

	if res.Effective == ActionReclaim {
		for _, c := range res.Triggered {
			if c.Action == ActionReclaim {
				res.Reported = []Crossed{c}

				break
			}
		}

		return res
	}

	res.Reported = slices.Clone(res.Triggered)

	return res
}

// MarkBudget returns a copy of ts with every crossed budget threshold flagged.
func MarkBudget(ts []BudgetThreshold, crossed []Crossed) []BudgetThreshold {
	out := slices.Clone(ts)
	for _, c := range crossed {
		if c.Kind == KindBudget && c.Index < len(out) {
			out[c.Index].AlreadyTriggered = true
		}
	}

	return out
}

// MarkDuration returns a copy of ts with every crossed duration threshold flagged.
func MarkDuration(ts []DurationThreshold, crossed []Crossed) []DurationThreshold {
	out := slices.Clone(ts)
	for _, c := range crossed {
		if c.Kind == KindDuration && c.Index < len(out) {
			out[c.Index].AlreadyTriggered = true
		}
	}

	return out
}

// ValidateBudget requires non-negative, strictly ascending amounts with known actions.
func ValidateBudget(ts []BudgetThreshold) error {
	for i, t := range ts {
		if !t.Action.Valid() {
			return fmt.Errorf("budget threshold %d: unknown action %q", i, t.Action)
		}

		if t.DollarsSpent.IsNegative() {
			return fmt.Errorf("budget threshold %d: negative amount %s", i, t.DollarsSpent)
		}

		if i > 0 && !t.DollarsSpent.GreaterThan(ts[i-1].DollarsSpent) {
			return fmt.Errorf("budget thresholds must be strictly ascending, %s follows %s", t.DollarsSpent, ts[i-1].DollarsSpent)
		}
	}

	return nil
}

// ValidateDuration requires non-negative, strictly descending hour counts with known actions.
func ValidateDuration(ts []DurationThreshold) error {
	for i, t := range ts {
		if !t.Action.Valid() {
			return fmt.Errorf("duration threshold %d: unknown action %q", i, t.Action)
		}

		if t.HoursRemaining < 0 {
			return fmt.Errorf("duration threshold %d: negative hours %d", i, t.HoursRemaining)
		}

		if i > 0 && t.HoursRemaining >= ts[i-1].HoursRemaining {
			return fmt.Errorf("duration thresholds must be strictly descending, %d follows %d", t.HoursRemaining, ts[i-1].HoursRemaining)
		}
	}

	return nil
}

// SortBudget orders ts ascending by amount.
func SortBudget(ts []BudgetThreshold) []BudgetThreshold {
	out := slices.Clone(ts)
	slices.SortStableFunc(out, func(a, b BudgetThreshold) int {
		return a.DollarsSpent.Cmp(b.DollarsSpent)
	})

	return out
}

// SortDuration orders ts descending by hours remaining.
func SortDuration(ts []DurationThreshold) []DurationThreshold {
	out := slices.Clone(ts)
	slices.SortStableFunc(out, func(a, b DurationThreshold) int {
		return cmp.Compare(b.HoursRemaining, a.HoursRemaining)
	})

	return out
}

// ResetBudget clears the triggered flags, used when a template's thresholds are
// snapshotted into a new lease.
func ResetBudget(ts []BudgetThreshold) []BudgetThreshold {
	out := slices.Clone(ts)
	for i := range out {
		out[i].AlreadyTriggered = false
	}

	return out
}

func ResetDuration(ts []DurationThreshold) []DurationThreshold {
	out := slices.Clone(ts)
	for i := range out {
		out[i].AlreadyTriggered = false
	}

	return out
}
