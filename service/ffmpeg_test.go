package service

import (
	"bufio"
	"context"
	"errors"
	"strings"
	"testing"

	"course-media/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgressParserDurationThenPositions(t *testing.T) {
	p := newProgressParser()

	_, ok := p.ParseLine("  Duration: 00:01:40.00, start: 0.000000, bitrate: 1205 kb/s")
	assert.False(t, ok)

	event, ok := p.ParseLine("frame=  750 fps= 30 q=28.0 size=    2048KiB time=00:00:50.00 bitrate= 335.5kbits/s speed=1.2x")
	require.True(t, ok)
	assert.InDelta(t, 50.0, event.ElapsedSeconds, 0.01)
	assert.InDelta(t, 100.0, event.TotalSeconds, 0.01)
}

func TestProgressParserPositionBeforeDuration(t *testing.T) {
	p := newProgressParser()

	_, ok := p.ParseLine("frame=   10 fps= 30 time=00:00:01.00 speed=1.0x")
	assert.False(t, ok)
}

func TestProgressParserIgnoresNoise(t *testing.T) {
	p := newProgressParser()

	_, ok := p.ParseLine("Stream #0:0(und): Video: h264 (High)")
	assert.False(t, ok)
	assert.Equal(t, "Stream #0:0(und): Video: h264 (High)", p.LastLine())
}

func TestProgressPercentFloorsAndClamps(t *testing.T) {
	assert.Equal(t, 49, progressPercent(ProgressEvent{ElapsedSeconds: 49.9, TotalSeconds: 100}))
	assert.Equal(t, 100, progressPercent(ProgressEvent{ElapsedSeconds: 120, TotalSeconds: 100}))
	assert.Equal(t, 0, progressPercent(ProgressEvent{ElapsedSeconds: 10, TotalSeconds: 0}))
}

type scriptedExecutor struct {
	lines []string
	err   error

	gotBinary string
	gotArgs   []string
}

func (s *scriptedExecutor) Run(_ context.Context, binary string, args []string, onStderrLine func(string)) error {
	s.gotBinary = binary
	s.gotArgs = args
	for _, line := range s.lines {
		onStderrLine(line)
	}
	return s.err
}

func TestTranscodeReportsProgress(t *testing.T) {
	exec := &scriptedExecutor{
		lines: []string{
			"  Duration: 00:00:10.00, start: 0.000000",
			"frame= 150 time=00:00:05.00 speed=1.0x",
			"frame= 300 time=00:00:10.00 speed=1.0x",
		},
	}
	tr := NewTranscoder(config.Transcode{TargetHeight: 720, VideoBitrate: "3000k", AudioBitrate: "128k"}, WithExecutor(exec))

	var events []ProgressEvent
	err := tr.Transcode(context.Background(), "in.mp4", "out.mp4", func(e ProgressEvent) {
		events = append(events, e)
	})
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.InDelta(t, 5.0, events[0].ElapsedSeconds, 0.01)
	assert.InDelta(t, 10.0, events[1].TotalSeconds, 0.01)

	assert.Equal(t, "ffmpeg", exec.gotBinary)
	assert.Contains(t, exec.gotArgs, "scale=-2:720")
	assert.Contains(t, exec.gotArgs, "libx264")
}

func TestTranscodePassesThroughExecError(t *testing.T) {
	bang := errors.New("binary not found")
	tr := NewTranscoder(config.Transcode{TargetHeight: 720}, WithExecutor(&scriptedExecutor{err: bang}))

	err := tr.Transcode(context.Background(), "in.mp4", "out.mp4", nil)
	assert.ErrorIs(t, err, bang)
}

func TestScanCRorLF(t *testing.T) {
	scanner := bufio.NewScanner(strings.NewReader("one\rtwo\nthree"))
	scanner.Split(scanCRorLF)

	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	assert.Equal(t, []string{"one", "two", "three"}, lines)
}
