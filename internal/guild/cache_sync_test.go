package guild

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func namedState(id, name string) *State {
	return &State{GuildID: id, Name: name, Players: map[string]*PlayerState{}}
}

// blockedBuild returns a builder that signals when it starts and waits for release
func blockedBuild(state *State, started chan<- struct{}, release <-chan struct{}) func() (*State, error) {
	return func() (*State, error) {
		close(started)
		<-release
		return state, nil
	}
}

func waitErr(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(time.Second):
		t.Fatal("upsert did not return")
		return nil
	}
}

func TestCacheRemoveDiscardsInFlightRebuild(t *testing.T) {
	c := NewCache()
	require.NoError(t, c.Upsert("g", func() (*State, error) { return namedState("g", "before"), nil }))

	started, release := make(chan struct{}), make(chan struct{})
	done := make(chan error, 1)
	go func() { done <- c.Upsert("g", blockedBuild(namedState("g", "rebuilt"), started, release)) }()

	<-started
	c.Remove("g")
	close(release)

	assert.ErrorIs(t, waitErr(t, done), ErrSuperseded)
	_, ok := c.Get("g")
	assert.False(t, ok, "removed guild came back")

	// Rejoining after the removal is a fresh rebuild
	require.NoError(t, c.Upsert("g", func() (*State, error) { return namedState("g", "rejoined"), nil }))
	state, ok := c.Get("g")
	require.True(t, ok)
	assert.Equal(t, "rejoined", state.Name)
}

func TestCacheOlderRebuildDoesNotOverwriteNewer(t *testing.T) {
	c := NewCache()
	require.NoError(t, c.Upsert("g", func() (*State, error) { return namedState("g", "initial"), nil }))

	started, release := make(chan struct{}), make(chan struct{})
	done := make(chan error, 1)
	go func() { done <- c.Upsert("g", blockedBuild(namedState("g", "old roles"), started, release)) }()
	<-started

	require.NoError(t, c.Upsert("g", func() (*State, error) { return namedState("g", "new roles"), nil }))
	close(release)

	assert.ErrorIs(t, waitErr(t, done), ErrSuperseded)
	state, _ := c.Get("g")
	assert.Equal(t, "new roles", state.Name)
}

func TestCacheRebuildsOfDifferentGuildsDoNotInterfere(t *testing.T) {
	c := NewCache()

	started, release := make(chan struct{}), make(chan struct{})
	done := make(chan error, 1)
	go func() { done <- c.Upsert("a", blockedBuild(namedState("a", "a"), started, release)) }()
	<-started

	require.NoError(t, c.Upsert("b", func() (*State, error) { return namedState("b", "b"), nil }))
	close(release)

	assert.NoError(t, waitErr(t, done))
	assert.Equal(t, []string{"a", "b"}, c.IDs())
}

func TestCacheRebuildWaitsForDispatchPass(t *testing.T) {
	c := NewCache()
	require.NoError(t, c.Upsert("g", func() (*State, error) { return namedState("g", "old"), nil }))

	entered, release := make(chan struct{}), make(chan struct{})
	passDone := make(chan struct{})
	var seenBefore, seenAfter string
	go func() {
		defer close(passDone)
		c.ForEachMutable(func(_ string, s *State) {
			seenBefore = s.Name
			close(entered)
			<-release
			seenAfter = s.Name
		})
	}()
	<-entered

	done := make(chan error, 1)
	go func() { done <- c.Upsert("g", func() (*State, error) { return namedState("g", "new"), nil }) }()

	select {
	case <-done:
		t.Fatal("rebuild applied during a dispatch pass")
	case <-time.After(30 * time.Millisecond):
	}

	close(release)
	<-passDone
	assert.NoError(t, waitErr(t, done))

	assert.Equal(t, "old", seenBefore)
	assert.Equal(t, "old", seenAfter)
	state, _ := c.Get("g")
	assert.Equal(t, "new", state.Name)
}

func TestCacheRemoveWaitsForDispatchPass(t *testing.T) {
	c := NewCache()
	require.NoError(t, c.Upsert("g", func() (*State, error) { return namedState("g", "old"), nil }))

	entered, release := make(chan struct{}), make(chan struct{})
	passDone := make(chan struct{})
	go func() {
		defer close(passDone)
		c.ForEachMutable(func(_ string, _ *State) {
			close(entered)
			<-release
		})
	}()
	<-entered

	removed := make(chan struct{})
	go func() {
		c.Remove("g")
		close(removed)
	}()

	select {
	case <-removed:
		t.Fatal("remove applied during a dispatch pass")
	case <-time.After(30 * time.Millisecond):
	}

	close(release)
	<-passDone
	<-removed
	_, ok := c.Get("g")
	assert.False(t, ok)
}
