package wizard

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type saveRecorder struct {
	mu    sync.Mutex
	saves []FormData
}

func (r *saveRecorder) save(form FormData) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saves = append(r.saves, form)
}

func (r *saveRecorder) snapshot() []FormData {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]FormData, len(r.saves))
	copy(out, r.saves)
	return out
}

func TestAutoSaver_DebouncesToLastState(t *testing.T) {
	rec := &saveRecorder{}
	saver := NewAutoSaver(30*time.Millisecond, rec.save)
	defer saver.Stop()

	// Rapid changes collapse into one save of the final state.
	saver.Notify(FormData{AdditionalInfo: "a"})
	saver.Notify(FormData{AdditionalInfo: "ab"})
	saver.Notify(FormData{AdditionalInfo: "abc"})

	require.Eventually(t, func() bool {
		return len(rec.snapshot()) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, "abc", rec.snapshot()[0].AdditionalInfo)

	// A later burst produces a second, independent save.
	saver.Notify(FormData{AdditionalInfo: "abcd"})
	require.Eventually(t, func() bool {
		return len(rec.snapshot()) == 2
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, "abcd", rec.snapshot()[1].AdditionalInfo)
}

func TestAutoSaver_FlushSavesImmediately(t *testing.T) {
	rec := &saveRecorder{}
	saver := NewAutoSaver(time.Hour, rec.save)
	defer saver.Stop()

	saver.Notify(FormData{AdditionalInfo: "draft"})
	saver.Flush()

	saves := rec.snapshot()
	require.Len(t, saves, 1)
	assert.Equal(t, "draft", saves[0].AdditionalInfo)

	// Flushing with nothing pending is a no-op.
	saver.Flush()
	assert.Len(t, rec.snapshot(), 1)
}

func TestAutoSaver_StopDiscardsPending(t *testing.T) {
	rec := &saveRecorder{}
	saver := NewAutoSaver(20*time.Millisecond, rec.save)

	saver.Notify(FormData{AdditionalInfo: "doomed"})
	saver.Stop()

	time.Sleep(60 * time.Millisecond)
	assert.Empty(t, rec.snapshot())

	// Notifications after Stop are ignored.
	saver.Notify(FormData{AdditionalInfo: "ignored"})
	time.Sleep(60 * time.Millisecond)
	assert.Empty(t, rec.snapshot())
}
