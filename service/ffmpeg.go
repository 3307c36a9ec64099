package service

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"regexp"
	"strconv"

	"course-media/apperr"
	"course-media/config"
)

// ProgressEvent is one parsed position report from the transcoder's stderr.
type ProgressEvent struct {
	ElapsedSeconds float64
	TotalSeconds   float64
}

// Transcoder converts a source file into the fixed output profile, emitting
// progress events as the subprocess reports positions.
type Transcoder interface {
	Transcode(ctx context.Context, inputPath, outputPath string, onProgress func(ProgressEvent)) error
}

// Executor abstracts subprocess execution so tests can fake the binary.
type Executor interface {
	Run(ctx context.Context, binary string, args []string, onStderrLine func(string)) error
}

type ffmpegTranscoder struct {
	profile config.Transcode
	exec    Executor
}

type TranscoderOption func(*ffmpegTranscoder)

func WithExecutor(exec Executor) TranscoderOption {
	return func(t *ffmpegTranscoder) {
		if exec != nil {
			t.exec = exec
		}
	}
}

func NewTranscoder(profile config.Transcode, opts ...TranscoderOption) Transcoder {
	t := &ffmpegTranscoder{
		profile: profile,
		exec:    commandExecutor{},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *ffmpegTranscoder) Transcode(ctx context.Context, inputPath, outputPath string, onProgress func(ProgressEvent)) error {
	args := []string{
		"-i", inputPath,
		"-vf", fmt.Sprintf("scale=-2:%d", t.profile.TargetHeight),
		"-c:v", "libx264",
		"-preset", "veryfast",
		"-b:v", t.profile.VideoBitrate,
		"-maxrate", t.profile.VideoBitrate,
		"-bufsize", t.profile.VideoBitrate,
		"-c:a", "aac",
		"-b:a", t.profile.AudioBitrate,
		"-movflags", "+faststart",
		"-y",
		outputPath,
	}

	parser := newProgressParser()
	err := t.exec.Run(ctx, "ffmpeg", args, func(line string) {
		if event, ok := parser.ParseLine(line); ok && onProgress != nil {
			onProgress(event)
		}
	})
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &apperr.TranscodeError{ExitCode: exitErr.ExitCode(), Output: parser.LastLine()}
		}
		return err
	}

	return nil
}

// ffmpeg prints the source duration once in the stream header and the current
// position on its periodic status lines.
var (
	reDuration = regexp.MustCompile(`Duration:\s*(\d+):(\d+):(\d+(?:\.\d+)?)`)
	rePosition = regexp.MustCompile(`time=(\d+):(\d+):(\d+(?:\.\d+)?)`)
)

type progressParser struct {
	totalSeconds float64
	lastLine     string
}

func newProgressParser() *progressParser {
	return &progressParser{}
}

// ParseLine extracts a progress event from one stderr line. Position lines
// seen before the duration header produce nothing, there is no total to
// report against yet.
func (p *progressParser) ParseLine(line string) (ProgressEvent, bool) {
	p.lastLine = line

	if m := reDuration.FindStringSubmatch(line); m != nil {
		p.totalSeconds = hmsToSeconds(m[1], m[2], m[3])
		return ProgressEvent{}, false
	}

	if p.totalSeconds <= 0 {
		return ProgressEvent{}, false
	}

	if m := rePosition.FindStringSubmatch(line); m != nil {
		return ProgressEvent{
			ElapsedSeconds: hmsToSeconds(m[1], m[2], m[3]),
			TotalSeconds:   p.totalSeconds,
		}, true
	}

	return ProgressEvent{}, false
}

func (p *progressParser) LastLine() string {
	return p.lastLine
}

func hmsToSeconds(h, m, s string) float64 {
	hours, _ := strconv.ParseFloat(h, 64)
	minutes, _ := strconv.ParseFloat(m, 64)
	seconds, _ := strconv.ParseFloat(s, 64)
	return hours*3600 + minutes*60 + seconds
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string, onStderrLine func(string)) error {
	cmd := exec.CommandContext(ctx, binary, args...)

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return err
	}

	if err := cmd.Start(); err != nil {
		return err
	}

	scanner := bufio.NewScanner(stderr)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	// ffmpeg terminates status lines with \r, everything else with \n
	scanner.Split(scanCRorLF)
	for scanner.Scan() {
		if onStderrLine != nil {
			onStderrLine(scanner.Text())
		}
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, io.EOF) {
		// keep draining; the exit code decides success
		_, _ = io.Copy(io.Discard, stderr)
	}

	return cmd.Wait()
}

func scanCRorLF(data []byte, atEOF bool) (advance int, token []byte, err error) {
	for i, b := range data {
		if b == '\n' || b == '\r' {
			return i + 1, data[:i], nil
		}
	}
	if atEOF && len(data) > 0 {
		return len(data), data, nil
	}
	return 0, nil, nil
}
