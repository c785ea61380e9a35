// Package depcheck verifies external programs the process shells out to.
package depcheck

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"time"
)

// ErrMissingDependency matches every MissingError.
var ErrMissingDependency = errors.New("missing dependency")

// MissingError names the program and how to install it.
type MissingError struct {
	Program string
	Hint    string
	Err     error
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("%s not found (%v). Please install it using: %s", e.Program, e.Err, e.Hint)
}

func (e *MissingError) Unwrap() error { return e.Err }

func (e *MissingError) Is(target error) bool { return target == ErrMissingDependency }

// Runner runs a program with arguments and reports whether it succeeded.
type Runner func(ctx context.Context, name string, args ...string) error

func execRunner(ctx context.Context, name string, args ...string) error {
	return exec.CommandContext(ctx, name, args...).Run()
}

type Checker struct {
	Run  Runner
	GOOS string
}

// Require runs program with args, typically a version flag.
func (c Checker) Require(ctx context.Context, program string, args ...string) error {
	run := c.Run
	if run == nil {
		run = execRunner
	}
	goos := c.GOOS
	if goos == "" {
		goos = runtime.GOOS
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := run(ctx, program, args...); err != nil {
		return &MissingError{Program: program, Hint: InstallHint(goos, program), Err: err}
	}
	return nil
}

// FFmpeg checks that ffmpeg is on PATH.
func FFmpeg(ctx context.Context) error {
	return Checker{}.Require(ctx, "ffmpeg", "-version")
}

func InstallHint(goos, program string) string {
	switch goos {
	case "windows":
		return "winget install " + program
	case "darwin":
		return "brew install " + program
	default:
		return "your package manager, e.g. sudo apt install " + program
	}
}
