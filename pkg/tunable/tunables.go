package tunable

import (
	"fmt"
	"math"
	"sync/atomic"
)

// Tunable is a gain that can be nudged up and down at runtime in fixed steps.
type Tunable struct {
	Name string
	Step float64

	bits uint64
}

func (t *Tunable) Add(steps int) {
	for {
		old := atomic.LoadUint64(&t.bits)
		newV := math.Float64frombits(old) + float64(steps)*t.Step
		if atomic.CompareAndSwapUint64(&t.bits, old, math.Float64bits(newV)) {
			fmt.Println("Tunable", t.Name, "=", newV)
			return
		}
	}
}

func (t *Tunable) Get() float64 {
	return math.Float64frombits(atomic.LoadUint64(&t.bits))
}

func (t *Tunable) Set(v float64) {
	atomic.StoreUint64(&t.bits, math.Float64bits(v))
}

type Tunables struct {
	All      []*Tunable
	selected int
}

func (t *Tunables) Create(name string, value, step float64) *Tunable {
	newTunable := &Tunable{
		Name: name,
		Step: step,
	}
	newTunable.Set(value)
	t.All = append(t.All, newTunable)
	return newTunable
}

func (t *Tunables) SelectNext() {
	t.selected++
	if t.selected >= len(t.All) {
		t.selected = 0
	}
	fmt.Println("Tunable", t.Current().Name, "selected, value:", t.Current().Get())
}

func (t *Tunables) SelectPrev() {
	t.selected--
	if t.selected < 0 {
		t.selected = len(t.All) - 1
	}
	fmt.Println("Tunable", t.Current().Name, "selected, value:", t.Current().Get())
}

func (t *Tunables) Current() *Tunable {
	return t.All[t.selected]
}
