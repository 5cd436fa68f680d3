package debounce

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromBool(t *testing.T) {
	assert.Equal(t, Touched, FromBool(true))
	assert.Equal(t, Released, FromBool(false))
	assert.True(t, Touched.Bool())
	assert.False(t, Released.Bool())
}

func TestStateChange(t *testing.T) {
	assert.Equal(t, Touch, Touched.Change())
	assert.Equal(t, Release, Released.Change())
}

func TestUpdateIgnoresReassignedVars(t *testing.T) {
	touch, release := Touch, Release
	t.Cleanup(func() { Touch, Release = touch, release })
	Touch, Release = NoChange(Released), NoChange(Touched)

	d := New(1)
	assert.Equal(t, Change{Event: EventTouch, State: Touched}, d.Update(Touched))
	assert.Equal(t, Change{Event: EventRelease, State: Released}, d.Update(Released))
}

func TestChangeState(t *testing.T) {
	assert.Equal(t, Touched, Touch.State)
	assert.Equal(t, Released, Release.State)
	assert.Equal(t, Touched, NoChange(Touched).State)
	assert.False(t, NoChange(Touched).Changed())
	assert.True(t, Touch.Changed())
	assert.True(t, Release.Changed())
}

func TestStrings(t *testing.T) {
	assert.Equal(t, "TOUCHED", Touched.String())
	assert.Equal(t, "RELEASED", Released.String())
	assert.Equal(t, "UNKNOWN", State(7).String())
	assert.Equal(t, "TOUCH", Touch.String())
	assert.Equal(t, "RELEASE", Release.String())
	assert.Equal(t, "NO_CHANGE(RELEASED)", NoChange(Released).String())
}
