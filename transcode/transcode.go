package transcode

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"
)

// TranscodeError wraps a failed external transcoder invocation.
type TranscodeError struct {
	Kind string // "still" or "animated"
	Err  error
}

func (e *TranscodeError) Error() string {
	return fmt.Sprintf("transcode: %s generation failed: %v", e.Kind, e.Err)
}

func (e *TranscodeError) Unwrap() error { return e.Err }

// Transcoder derives preview imagery from a downloaded recording. Modeled as
// a capability so the engine's tests can substitute a fake without invoking
// a real external tool.
type Transcoder interface {
	// Still extracts the first frame of the video as a JPEG.
	Still(ctx context.Context, videoPath, outputPath string) error
	// Animated renders a short animated GIF preview of the video.
	Animated(ctx context.Context, videoPath, outputPath string) error
}

// Defaults for the animated preview clip.
const (
	animatedSeconds = 3
	animatedFPS     = 10
	animatedWidth   = 320
)

// FFmpeg invokes the ffmpeg command-line tool as a black box. Every
// invocation runs under a bounded timeout so a wedged subprocess cannot
// stall the refresh cycle.
type FFmpeg struct {
	binary  string
	timeout time.Duration
}

// NewFFmpeg creates a Transcoder using the ffmpeg binary on PATH.
func NewFFmpeg(timeout time.Duration) *FFmpeg {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &FFmpeg{binary: "ffmpeg", timeout: timeout}
}

// Still extracts the first frame of the video as a JPEG.
func (f *FFmpeg) Still(ctx context.Context, videoPath, outputPath string) error {
	args := StillArgs(videoPath, outputPath)
	if err := f.run(ctx, args); err != nil {
		return &TranscodeError{Kind: "still", Err: err}
	}
	return nil
}

// Animated renders a short animated GIF preview from the start of the video.
func (f *FFmpeg) Animated(ctx context.Context, videoPath, outputPath string) error {
	args := AnimatedArgs(videoPath, outputPath)
	if err := f.run(ctx, args); err != nil {
		return &TranscodeError{Kind: "animated", Err: err}
	}
	return nil
}

// StillArgs returns the ffmpeg arguments for first-frame extraction.
func StillArgs(videoPath, outputPath string) []string {
	return []string{
		"-y",
		"-i", videoPath,
		"-frames:v", "1",
		outputPath,
	}
}

// AnimatedArgs returns the ffmpeg arguments for the animated preview.
func AnimatedArgs(videoPath, outputPath string) []string {
	return []string{
		"-y",
		"-i", videoPath,
		"-t", fmt.Sprintf("%d", animatedSeconds),
		"-vf", fmt.Sprintf("fps=%d,scale=%d:-2", animatedFPS, animatedWidth),
		outputPath,
	}
}

func (f *FFmpeg) run(ctx context.Context, args []string) error {
	runCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	if _, err := os.Stat(args[2]); os.IsNotExist(err) {
		return fmt.Errorf("input video does not exist: %s", args[2])
	}

	cmd := exec.CommandContext(runCtx, f.binary, args...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s %v: %v (output: %s)", f.binary, args, err, truncate(output, 200))
	}
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
