package main

import (
	"errors"
	"fmt"
	"testing"

	"github.com/urfave/cli/v2"

	"github.com/pagecraft-io/pagestream/render"
)

func TestExitErrHandler_NilError(t *testing.T) {
	// Should not panic or exit on nil error
	exitErrHandler(nil, nil)
}

func TestExitCodes_RecognizedAsExitCoder(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{name: "complete", err: cli.Exit("", render.ExitOK), wantCode: 0},
		{name: "generation error", err: cli.Exit("generation failed", render.ExitGenerationError), wantCode: 1},
		{name: "transport failure", err: cli.Exit("connection lost", render.ExitTransportFailure), wantCode: 2},
		{name: "publish failure", err: cli.Exit("publish failed", render.ExitPublishFailure), wantCode: 3},
		{name: "interrupted", err: cli.Exit("", render.ExitCanceled), wantCode: 130},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var exitCoder cli.ExitCoder
			if !errors.As(tt.err, &exitCoder) {
				t.Fatal("error should be cli.ExitCoder")
			}
			if exitCoder.ExitCode() != tt.wantCode {
				t.Errorf("exit code = %d, want %d", exitCoder.ExitCode(), tt.wantCode)
			}
		})
	}
}

func TestEmptyExitMessage_IsSuppressed(t *testing.T) {
	// cli.Exit("", N).Error() returns "exit status N"; the handler must
	// not print that synthetic message.
	err := cli.Exit("", 2)
	if err.Error() != fmt.Sprintf("exit status %d", 2) {
		t.Errorf("unexpected synthetic message %q", err.Error())
	}
}
