// Package batch holds the deferred draw records produced while traversing
// a scene and the accumulator that later commits them.
package batch

import (
	"strings"

	"github.com/spaghettifunk/anima-instancing/engine/renderer/metadata"
	"golang.org/x/exp/slices"
)

// RenderBatch is a deferred draw. Commit issues it, optionally replacing the
// stored effect with overrideEffect (nil means no override).
type RenderBatch interface {
	Commit(overrideEffect *metadata.Effect)
}

// Sortable is implemented by batches that expose their render state so the
// accumulator can group them.
type Sortable interface {
	RenderMode() metadata.RenderMode
	Effect() *metadata.Effect
}

// ObjectState is implemented by batches carrying per object render state.
type ObjectState interface {
	RenderMode() metadata.RenderMode
	PerObjectData() *metadata.PerObjectData
}

// StateApplier receives the render state of each batch right before the
// batch is committed. Batches without ObjectState apply RenderModeAny and nil.
type StateApplier interface {
	ApplyBatchState(mode metadata.RenderMode, perObjectData *metadata.PerObjectData)
}

// Submitter receives batches during the accumulate phase.
type Submitter interface {
	Submit(b RenderBatch)
}

// SortFunc orders two batches like slices.SortStableFunc expects.
type SortFunc func(a, b RenderBatch) int

// NoSort keeps batches in submission order.
var NoSort SortFunc = nil

// ByRenderState groups batches by render mode, then by effect, keeping
// submission order inside a group. Batches that are not Sortable go first.
func ByRenderState(a, b RenderBatch) int {
	sa, oka := a.(Sortable)
	sb, okb := b.(Sortable)
	switch {
	case !oka && !okb:
		return 0
	case !oka:
		return -1
	case !okb:
		return 1
	}
	if ma, mb := sa.RenderMode(), sb.RenderMode(); ma != mb {
		return int(ma) - int(mb)
	}
	return compareEffects(sa.Effect(), sb.Effect())
}

func compareEffects(a, b *metadata.Effect) int {
	switch {
	case a == b:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	if c := strings.Compare(a.ShaderName, b.ShaderName); c != 0 {
		return c
	}
	if a.ID != b.ID {
		if a.ID < b.ID {
			return -1
		}
		return 1
	}
	return strings.Compare(a.Name, b.Name)
}

// Accumulator collects one frame worth of batches. It must be filled
// completely before Render is called; it does not enforce that itself.
type Accumulator struct {
	batches []RenderBatch
	sort    SortFunc
	state   StateApplier
}

// NewAccumulator returns an accumulator ordering batches with sort before
// committing them. Pass NoSort to keep submission order.
func NewAccumulator(sort SortFunc) *Accumulator {
	return &Accumulator{
		batches: make([]RenderBatch, 0, 64),
		sort:    sort,
	}
}

// SetStateApplier installs the receiver of per batch state. nil disables it.
func (a *Accumulator) SetStateApplier(state StateApplier) {
	a.state = state
}

func (a *Accumulator) Submit(b RenderBatch) {
	if b == nil {
		return
	}
	a.batches = append(a.batches, b)
}

func (a *Accumulator) Len() int {
	return len(a.batches)
}

// Batches returns the held batches in their current order.
func (a *Accumulator) Batches() []RenderBatch {
	return a.batches
}

// Render sorts the batches and commits each one. It returns the number of
// batches committed.
func (a *Accumulator) Render(overrideEffect *metadata.Effect) int {
	if a.sort != nil {
		slices.SortStableFunc(a.batches, a.sort)
	}
	for _, b := range a.batches {
		if a.state != nil {
			if st, ok := b.(ObjectState); ok {
				a.state.ApplyBatchState(st.RenderMode(), st.PerObjectData())
			} else {
				a.state.ApplyBatchState(metadata.RenderModeAny, nil)
			}
		}
		b.Commit(overrideEffect)
	}
	if a.state != nil {
		a.state.ApplyBatchState(metadata.RenderModeAny, nil)
	}
	return len(a.batches)
}

// Clear drops every batch. Batches never outlive the frame they were made in.
func (a *Accumulator) Clear() {
	clear(a.batches)
	a.batches = a.batches[:0]
}
