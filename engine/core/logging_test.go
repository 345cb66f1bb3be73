package core

import (
	"bytes"
	"io"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoggerFromManyGoroutines(t *testing.T) {
	SetLogOutput(io.Discard)
	t.Cleanup(func() { SetLogOutput(os.Stderr) })

	var wg sync.WaitGroup
	loggers := make([]*logger, 16)
	for i := range loggers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			loggers[i] = getLogger()
			LogDebug("worker %d", i)
		}(i)
	}
	wg.Wait()

	for _, l := range loggers {
		assert.Same(t, loggers[0], l)
	}
}

func TestSetLogLevel(t *testing.T) {
	var out bytes.Buffer
	SetLogOutput(&out)
	t.Cleanup(func() {
		SetLogOutput(os.Stderr)
		SetLogLevel(DebugLevel)
	})

	SetLogLevel(WarnLevel)
	LogInfo("hidden")
	LogWarn("shown")
	assert.NotContains(t, out.String(), "hidden")
	assert.Contains(t, out.String(), "shown")

	// unknown levels fall back to info
	out.Reset()
	SetLogLevel("loud")
	LogDebug("quiet")
	LogInfo("visible")
	assert.NotContains(t, out.String(), "quiet")
	assert.Contains(t, out.String(), "visible")
}
