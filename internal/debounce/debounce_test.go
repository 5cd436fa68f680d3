package debounce

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	d := New(3)

	assert.Equal(t, Released, d.State())
	assert.Equal(t, uint(3), d.Threshold())
	assert.Equal(t, uint(0), d.samples)
}

func TestNewZeroThresholdPanics(t *testing.T) {
	assert.Panics(t, func() { New(0) })
}

func TestReturnsChange(t *testing.T) {
	d := New(3)

	touch := []Change{NoChange(Released), NoChange(Released), Touch, NoChange(Touched)}
	for i, want := range touch {
		assert.Equal(t, want, d.Update(Touched), "touch sample %d", i)
	}

	release := []Change{NoChange(Touched), NoChange(Touched), Release, NoChange(Released)}
	for i, want := range release {
		assert.Equal(t, want, d.Update(Released), "release sample %d", i)
	}
}

func TestAgreementIsIdempotent(t *testing.T) {
	for _, start := range []State{Released, Touched} {
		t.Run(start.String(), func(t *testing.T) {
			d := New(4)
			if start == Touched {
				for i := 0; i < 4; i++ {
					d.Update(Touched)
				}
			}
			require.Equal(t, start, d.State())

			for i := 0; i < 20; i++ {
				assert.Equal(t, NoChange(start), d.Update(start))
				assert.Equal(t, uint(0), d.samples)
			}
		})
	}
}

func TestThresholdExactness(t *testing.T) {
	for _, threshold := range []uint{1, 2, 3, 5, 10} {
		d := New(threshold)
		for i := uint(1); i < threshold; i++ {
			got := d.Update(Touched)
			assert.Equal(t, NoChange(Released), got, "T=%d sample %d", threshold, i)
			assert.Equal(t, i, d.samples)
		}
		assert.Equal(t, Touch, d.Update(Touched), "T=%d final sample", threshold)
		assert.Equal(t, Touched, d.State())
	}
}

func TestThresholdOneIsPassthrough(t *testing.T) {
	d := New(1)

	assert.Equal(t, Touch, d.Update(Touched))
	assert.Equal(t, NoChange(Touched), d.Update(Touched))
	assert.Equal(t, Release, d.Update(Released))
	assert.Equal(t, Touch, d.Update(Touched))
}

func TestInterruptedRunRestarts(t *testing.T) {
	const threshold = 5
	d := New(threshold)

	for i := 0; i < threshold-2; i++ {
		require.Equal(t, NoChange(Released), d.Update(Touched))
	}
	require.Equal(t, uint(threshold-2), d.samples)

	// A single agreeing glitch throws away the accumulated run.
	assert.Equal(t, NoChange(Released), d.Update(Released))
	assert.Equal(t, uint(0), d.samples)

	for i := 0; i < threshold-1; i++ {
		assert.Equal(t, NoChange(Released), d.Update(Touched), "sample %d after reset", i)
	}
	assert.Equal(t, Touch, d.Update(Touched))
}

func TestAlternatingNoiseNeverCommits(t *testing.T) {
	d := New(2)
	for i := 0; i < 50; i++ {
		sample := FromBool(i%2 == 0)
		assert.False(t, d.Update(sample).Changed(), "sample %d", i)
	}
	assert.Equal(t, Released, d.State())
}

func TestNoDoubleFireAfterCommit(t *testing.T) {
	d := New(3)
	for i := 0; i < 3; i++ {
		d.Update(Touched)
	}

	assert.Equal(t, Touched, d.State())
	assert.Equal(t, uint(0), d.samples)
	assert.Equal(t, NoChange(Touched), d.Update(Touched))
}

func TestBidirectional(t *testing.T) {
	d := New(3)
	var events []Event
	feed := func(s State, n int) {
		for i := 0; i < n; i++ {
			if c := d.Update(s); c.Changed() {
				events = append(events, c.Event)
				assert.Equal(t, c.State, d.State())
			}
		}
	}

	feed(Touched, 3)
	feed(Released, 3)
	feed(Touched, 4)
	feed(Released, 2)

	assert.Equal(t, []Event{EventTouch, EventRelease, EventTouch}, events)
	assert.Equal(t, Touched, d.State())
	assert.Equal(t, uint(2), d.samples)
}

func TestValueSemantics(t *testing.T) {
	a := New(2)
	a.Update(Touched)

	b := a
	b.Update(Touched)

	assert.Equal(t, Released, a.State())
	assert.Equal(t, Touched, b.State())
}

func TestUpdateDoesNotAllocate(t *testing.T) {
	d := New(3)
	allocs := testing.AllocsPerRun(100, func() {
		d.Update(Touched)
		d.Update(Released)
	})
	assert.Zero(t, allocs)
}
