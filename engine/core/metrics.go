package core

import "sync"

const AVG_COUNT uint8 = 30

// MetricsState tracks frame timings plus how many batches the frame
// accumulated and how many of them turned into real draw calls.
type MetricsState struct {
	FrameAVGCounter    uint8
	MStimes            [AVG_COUNT]float64
	MSavg              float64
	Frames             int32
	AccumulatedFrameMS float64
	FPS                float64

	FrameBatches uint32
	FrameDraws   uint32
	TotalBatches uint64
	TotalDraws   uint64
	TotalFrames  uint64
}

var metricsMutex sync.Mutex
var metricsState *MetricsState = nil

func MetricsInitialize() error {
	metricsMutex.Lock()
	defer metricsMutex.Unlock()
	metricsState = &MetricsState{}
	return nil
}

// MetricsUpdate closes the current frame. frameElapsedTime is in seconds.
func MetricsUpdate(frameElapsedTime float64) {
	metricsMutex.Lock()
	defer metricsMutex.Unlock()
	if metricsState == nil {
		return
	}

	frameMS := frameElapsedTime * 1000.0
	metricsState.MStimes[metricsState.FrameAVGCounter] = frameMS
	if metricsState.FrameAVGCounter == AVG_COUNT-1 {
		var sum float64
		for i := uint8(0); i < AVG_COUNT; i++ {
			sum += metricsState.MStimes[i]
		}
		metricsState.MSavg = sum / float64(AVG_COUNT)
	}
	metricsState.FrameAVGCounter++
	metricsState.FrameAVGCounter %= AVG_COUNT

	metricsState.AccumulatedFrameMS += frameMS
	if metricsState.AccumulatedFrameMS > 1000 {
		metricsState.FPS = float64(metricsState.Frames)
		metricsState.AccumulatedFrameMS -= 1000
		metricsState.Frames = 0
	}

	metricsState.Frames++
	metricsState.TotalFrames++
	metricsState.FrameBatches = 0
	metricsState.FrameDraws = 0
}

// MetricsRecordBatches adds n accumulated batches to the current frame.
func MetricsRecordBatches(n int) {
	metricsMutex.Lock()
	defer metricsMutex.Unlock()
	if metricsState == nil {
		return
	}
	metricsState.FrameBatches += uint32(n)
	metricsState.TotalBatches += uint64(n)
}

// MetricsRecordDraws adds n issued draw calls to the current frame.
func MetricsRecordDraws(n int) {
	metricsMutex.Lock()
	defer metricsMutex.Unlock()
	if metricsState == nil {
		return
	}
	metricsState.FrameDraws += uint32(n)
	metricsState.TotalDraws += uint64(n)
}

func MetricsFPS() float64 {
	metricsMutex.Lock()
	defer metricsMutex.Unlock()
	if metricsState == nil {
		return 0
	}
	return metricsState.FPS
}

func MetricsFrameTime() float64 {
	metricsMutex.Lock()
	defer metricsMutex.Unlock()
	if metricsState == nil {
		return 0
	}
	return metricsState.MSavg
}

// MetricsSnapshot returns a copy of the current counters.
func MetricsSnapshot() MetricsState {
	metricsMutex.Lock()
	defer metricsMutex.Unlock()
	if metricsState == nil {
		return MetricsState{}
	}
	return *metricsState
}
