package prismvk

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	vk "github.com/vulkan-go/vulkan"
)

// stubToken stands in for the fence-backed token. It starts trivially
// satisfied like the real one.
type stubToken struct {
	done   bool
	waits  int
	resets int
}

func (s *stubToken) Done() bool  { return s.done }
func (s *stubToken) Wait() error { s.waits++; return nil }
func (s *stubToken) Reset() error {
	s.resets++
	s.done = false
	return nil
}

// scriptedChain plays back per-call acquire and present statuses; calls past
// the end of a script report ChainOK.
type scriptedChain struct {
	extent         vk.Extent2D
	acquireScript  []ChainStatus
	presentScript  []ChainStatus
	acquireFailure error
	rebuildFailure error

	acquires int
	presents int
	rebuilds int
}

func (c *scriptedChain) Extent() vk.Extent2D { return c.extent }

func (c *scriptedChain) Acquire(vk.Semaphore) (uint32, ChainStatus, error) {
	status := ChainOK
	if c.acquires < len(c.acquireScript) {
		status = c.acquireScript[c.acquires]
	}
	c.acquires++
	return 0, status, c.acquireFailure
}

func (c *scriptedChain) Present(uint32, vk.Semaphore) (ChainStatus, error) {
	status := ChainOK
	if c.presents < len(c.presentScript) {
		status = c.presentScript[c.presents]
	}
	c.presents++
	return status, nil
}

func (c *scriptedChain) Rebuild() error {
	c.rebuilds++
	return c.rebuildFailure
}

type recordingSubmitter struct {
	submits int
	failure error
}

func (s *recordingSubmitter) Submit(vk.CommandBuffer, vk.Semaphore, vk.Semaphore, vk.Fence) error {
	s.submits++
	return s.failure
}

func (s *recordingSubmitter) Idle() error { return nil }

func newTestSync(sub Submitter) *FrameSync {
	return &FrameSync{
		submitter:   sub,
		token:       &stubToken{done: true},
		render_sems: make([]vk.Semaphore, 4),
	}
}

func visibleChain() *scriptedChain {
	return &scriptedChain{extent: vk.Extent2D{Width: 640, Height: 480}}
}

func noRecord(t *testing.T) RecordFunc {
	return func(uint32, vk.CommandBuffer) error {
		t.Fatal("record must not run")
		return nil
	}
}

func okRecord(uint32, vk.CommandBuffer) error { return nil }

func TestSubmitFramePresents(t *testing.T) {
	chain := visibleChain()
	sub := &recordingSubmitter{}
	f := newTestSync(sub)

	recorded := 0
	outcome, err := f.SubmitFrame(chain, func(image uint32, _ vk.CommandBuffer) error {
		recorded++
		assert.Equal(t, uint32(0), image)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, OutcomePresented, outcome)
	assert.Equal(t, 1, recorded)
	assert.Equal(t, 1, sub.submits)
	assert.Equal(t, 1, chain.presents)
	assert.True(t, f.armed, "submission leaves the token armed")

	token := f.token.(*stubToken)
	assert.Equal(t, 1, token.waits)
	assert.Equal(t, 1, token.resets)
}

func TestSubmitFrameSkipsZeroExtent(t *testing.T) {
	chain := &scriptedChain{}
	f := newTestSync(&recordingSubmitter{})

	outcome, err := f.SubmitFrame(chain, noRecord(t))
	require.NoError(t, err)
	assert.Equal(t, OutcomeSkipped, outcome)
	assert.Zero(t, chain.acquires, "a zero-area chain never acquires")
}

func TestSubmitFrameStaleAcquireDefersRebuild(t *testing.T) {
	chain := visibleChain()
	chain.acquireScript = []ChainStatus{ChainStale}
	sub := &recordingSubmitter{}
	f := newTestSync(sub)

	outcome, err := f.SubmitFrame(chain, noRecord(t))
	require.NoError(t, err)
	assert.Equal(t, OutcomeRecreated, outcome)
	assert.True(t, f.rebuild_deferred)
	assert.Zero(t, chain.rebuilds, "rebuild waits for the next frame")
	assert.Zero(t, sub.submits)

	// The next frame rebuilds before acquiring again.
	outcome, err = f.SubmitFrame(chain, okRecord)
	require.NoError(t, err)
	assert.Equal(t, OutcomePresented, outcome)
	assert.Equal(t, 1, chain.rebuilds)
	assert.False(t, f.rebuild_deferred)
	assert.Equal(t, 2, chain.acquires)
}

func TestSubmitFrameSuboptimalAcquireStillPresents(t *testing.T) {
	chain := visibleChain()
	chain.acquireScript = []ChainStatus{ChainSuboptimal}
	sub := &recordingSubmitter{}
	f := newTestSync(sub)

	outcome, err := f.SubmitFrame(chain, okRecord)
	require.NoError(t, err)
	assert.Equal(t, OutcomePresented, outcome)
	assert.Equal(t, 1, sub.submits)
	assert.Equal(t, 1, chain.presents)
	assert.True(t, f.rebuild_deferred)
	assert.Zero(t, chain.rebuilds)
}

func TestSubmitFrameStalePresentRebuildsNow(t *testing.T) {
	chain := visibleChain()
	chain.presentScript = []ChainStatus{ChainStale}
	sub := &recordingSubmitter{}
	f := newTestSync(sub)
	token := f.token.(*stubToken)

	outcome, err := f.SubmitFrame(chain, okRecord)
	require.NoError(t, err)
	assert.Equal(t, OutcomeRecreated, outcome)
	assert.Equal(t, 1, chain.rebuilds, "stale present rebuilds within the frame")
	assert.False(t, f.rebuild_deferred)
	assert.False(t, f.armed, "the submission is drained before the rebuild")
	assert.Equal(t, 2, token.waits, "one wait guards recording, one drains the submission")
}

func TestSubmitFrameSuboptimalPresentSchedulesRebuild(t *testing.T) {
	chain := visibleChain()
	chain.presentScript = []ChainStatus{ChainSuboptimal}
	f := newTestSync(&recordingSubmitter{})

	outcome, err := f.SubmitFrame(chain, okRecord)
	require.NoError(t, err)
	assert.Equal(t, OutcomePresented, outcome)
	assert.True(t, f.rebuild_deferred)
	assert.Zero(t, chain.rebuilds)
}

func TestSubmitFrameRecordFailureSkipsSubmit(t *testing.T) {
	chain := visibleChain()
	sub := &recordingSubmitter{}
	f := newTestSync(sub)

	boom := errors.New("bad command buffer")
	outcome, err := f.SubmitFrame(chain, func(uint32, vk.CommandBuffer) error {
		return boom
	})
	assert.Equal(t, OutcomeSkipped, outcome)
	require.ErrorIs(t, err, boom)
	assert.ErrorContains(t, err, "record frame")
	assert.Zero(t, sub.submits)
	assert.False(t, f.armed)
}

func TestSubmitFrameSubmitFailure(t *testing.T) {
	chain := visibleChain()
	sub := &recordingSubmitter{failure: errors.New("queue rejected work")}
	f := newTestSync(sub)

	outcome, err := f.SubmitFrame(chain, okRecord)
	assert.Equal(t, OutcomeSkipped, outcome)
	assert.ErrorContains(t, err, "submit frame")
	assert.False(t, f.armed)
	assert.Zero(t, chain.presents)
}

func TestSubmitFrameAcquireFailure(t *testing.T) {
	chain := visibleChain()
	chain.acquireFailure = errors.New("surface lost")
	f := newTestSync(&recordingSubmitter{})
	token := f.token.(*stubToken)

	outcome, err := f.SubmitFrame(chain, noRecord(t))
	assert.Equal(t, OutcomeSkipped, outcome)
	assert.ErrorContains(t, err, "acquire image")
	assert.Zero(t, token.waits)
}

func TestSubmitFrameDeferredRebuildFailure(t *testing.T) {
	chain := visibleChain()
	chain.rebuildFailure = errors.New("no surface")
	f := newTestSync(&recordingSubmitter{})
	f.rebuild_deferred = true

	outcome, err := f.SubmitFrame(chain, noRecord(t))
	assert.Equal(t, OutcomeSkipped, outcome)
	assert.ErrorContains(t, err, "deferred chain rebuild")
	assert.Equal(t, 1, chain.rebuilds)
	assert.Zero(t, chain.acquires)
}

func TestSubmitFrameHousekeepingDisarms(t *testing.T) {
	f := newTestSync(&recordingSubmitter{})
	f.armed = true

	// Zero-area chain: the housekeeping poll is the only work this frame.
	outcome, err := f.SubmitFrame(&scriptedChain{}, noRecord(t))
	require.NoError(t, err)
	assert.Equal(t, OutcomeSkipped, outcome)
	assert.False(t, f.armed)
}

func TestWaitPendingDisarms(t *testing.T) {
	f := newTestSync(&recordingSubmitter{})
	f.armed = true
	token := f.token.(*stubToken)

	require.NoError(t, f.WaitPending())
	assert.False(t, f.armed)
	assert.Equal(t, 1, token.waits)
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "presented", OutcomePresented.String())
	assert.Equal(t, "skipped", OutcomeSkipped.String())
	assert.Equal(t, "recreated", OutcomeRecreated.String())
}
