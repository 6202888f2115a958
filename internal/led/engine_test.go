package led

import (
	"log/slog"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(ctrl Controller, fps int) *Engine {
	return NewEngine(ctrl, EngineOptions{
		FPS:    fps,
		Logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})),
	})
}

func TestEngine_PlaysFramesInOrder(t *testing.T) {
	ctrl := newRecorder(3)
	engine := newTestEngine(ctrl, 100)

	engine.Play(sequence("ramp", 3, 0.1, 0.2, 0.3, 0.4, 0.5), 1)
	engine.Wait()

	writes := ctrl.led(0)
	require.Len(t, writes, 5)

	step := engine.clock.Step()
	for i, w := range writes {
		assert.InDelta(t, 0.1*float64(i+1), w.value, 1e-9)
		if i > 0 {
			gap := w.at.Sub(writes[i-1].at)
			assert.GreaterOrEqual(t, gap, step/2, "frame %d emitted before its slot", i)
		}
	}

	_, active := engine.playing()
	assert.False(t, active, "session should end after its last frame")
}

func TestEngine_RepeatCount(t *testing.T) {
	ctrl := newRecorder(2)
	engine := newTestEngine(ctrl, 200)

	engine.Play(sequence("triple", 2, 0.2, 0.4, 0.6), 2)
	engine.Wait()

	var values []float64
	for _, w := range ctrl.led(1) {
		values = append(values, w.value)
	}
	assert.Equal(t, []float64{0.2, 0.4, 0.6, 0.2, 0.4, 0.6}, values)
}

func TestEngine_StopBoundsFrames(t *testing.T) {
	ctrl := newRecorder(5)
	engine := newTestEngine(ctrl, 50)

	start := time.Now()
	engine.Play(Swish(5, 50, time.Second, 0.3), Forever)
	time.Sleep(120 * time.Millisecond)
	engine.Stop()
	elapsed := time.Since(start)
	atStop := len(ctrl.led(0))

	engine.Wait()

	frames := len(ctrl.led(0))
	assert.Equal(t, atStop, frames, "no frame may be written after Stop")

	bound := int(elapsed/engine.clock.Step()) + 1
	assert.LessOrEqual(t, frames, bound)
	assert.Positive(t, frames)
}

func TestEngine_StopIsIdempotent(t *testing.T) {
	engine := newTestEngine(newRecorder(5), 25)

	engine.Stop()
	engine.Play(Swish(5, 25, time.Second, 0.3), Forever)
	engine.Stop()
	engine.Stop()
	engine.Wait()

	_, active := engine.playing()
	assert.False(t, active)
}

func TestEngine_Preemption(t *testing.T) {
	ctrl := newRecorder(5)
	engine := newTestEngine(ctrl, 100)

	engine.Play(sequence("dim", 5, 0.5), Forever)
	time.Sleep(50 * time.Millisecond)

	engine.Play(sequence("bright", 5, 1), Forever)
	marker := len(ctrl.snapshot())

	time.Sleep(50 * time.Millisecond)
	engine.Stop()
	engine.Wait()

	writes := ctrl.snapshot()
	require.Greater(t, len(writes), marker, "new session should have written frames")
	for _, w := range writes[marker:] {
		assert.Equal(t, 1.0, w.value, "preempted session wrote LED %d after losing its claim", w.index)
	}

	name, active := engine.playing()
	assert.False(t, active, "active = %s", name)
}

func TestEngine_ActiveReportsCurrent(t *testing.T) {
	engine := newTestEngine(newRecorder(5), 25)
	defer engine.Wait()
	defer engine.Stop()

	engine.Play(Swish(5, 25, time.Second, 0.3), Forever)
	name, active := engine.playing()
	assert.True(t, active)
	assert.Equal(t, "swish", name)

	engine.Play(BlinkOff(5, 25, time.Second), 1)
	name, _ = engine.playing()
	assert.Equal(t, "blink_off", name)
}

func TestEngine_BlendRaise(t *testing.T) {
	ctrl := newRecorder(2)
	engine := newTestEngine(ctrl, 200)

	engine.Play(sequence("half", 2, 0.6), 1)
	engine.Wait()

	marker := len(ctrl.snapshot())
	engine.Play(FadeIn(2, 200, 100*time.Millisecond), 1)
	engine.Wait()

	writes := ctrl.snapshot()[marker:]
	require.NotEmpty(t, writes)
	last := map[int]float64{0: 0.6, 1: 0.6}
	for _, w := range writes {
		assert.Greater(t, w.value, last[w.index], "fade must never lower LED %d", w.index)
		last[w.index] = w.value
	}
	assert.Equal(t, Frame{1, 1}, engine.lastFrame())
}

func TestEngine_ClampsValues(t *testing.T) {
	ctrl := newRecorder(1)
	engine := newTestEngine(ctrl, 200)

	engine.Play(sequence("wild", 1, -0.5, 1.5), 1)
	engine.Wait()

	writes := ctrl.led(0)
	require.Len(t, writes, 2)
	assert.Equal(t, 0.0, writes[0].value)
	assert.Equal(t, 1.0, writes[1].value)
}

func TestEngine_WriteErrorEndsSession(t *testing.T) {
	ctrl := newRecorder(5)
	ctrl.failAfter = 7

	var errorsSeen atomic.Int32
	engine := NewEngine(ctrl, EngineOptions{
		FPS: 100,
		OnError: func(err error) {
			assert.ErrorIs(t, err, errWriteFailed)
			errorsSeen.Add(1)
		},
		Logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})),
	})

	engine.Play(Swish(5, 100, time.Second, 0.3), Forever)
	engine.Wait()

	assert.Equal(t, int32(1), errorsSeen.Load())
	_, active := engine.playing()
	assert.False(t, active)
}

func TestEngine_OnFrame(t *testing.T) {
	var frames atomic.Int32
	engine := NewEngine(newRecorder(5), EngineOptions{
		FPS: 200,
		OnFrame: func(animation string) {
			assert.Equal(t, "blink_off", animation)
			frames.Add(1)
		},
	})

	engine.Play(BlinkOff(5, 200, 20*time.Millisecond), 1)
	engine.Wait()

	assert.Equal(t, int32(5), frames.Load())
}

func TestEngine_EmptyAnimationForever(t *testing.T) {
	engine := newTestEngine(newRecorder(5), 100)

	engine.Play(sequence("empty", 5), Forever)

	done := make(chan struct{})
	go func() {
		engine.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("empty animation with unbounded repeat never finished")
	}
}

func TestEngine_Close(t *testing.T) {
	ctrl := newRecorder(3)
	engine := newTestEngine(ctrl, 100)

	engine.Play(sequence("on", 3, 1), Forever)
	time.Sleep(30 * time.Millisecond)

	require.NoError(t, engine.Close())

	assert.True(t, ctrl.closed)
	assert.Equal(t, Frame{0, 0, 0}, engine.lastFrame())
	for i := range 3 {
		writes := ctrl.led(i)
		require.NotEmpty(t, writes)
		assert.Equal(t, 0.0, writes[len(writes)-1].value)
	}
}
