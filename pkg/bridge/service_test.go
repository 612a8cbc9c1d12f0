package bridge

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestServiceControl_Run(t *testing.T) {
	tests := []struct {
		name   string
		out    Output
		runErr error
		want   ServiceResult
	}{
		{
			name: "exit zero",
			out:  Output{Stdout: "lte started\n"},
			want: ServiceResult{Code: http.StatusOK, Response: "lte started\n"},
		},
		{
			name: "exit non-zero keeps stdout",
			out:  Output{Stdout: "partial\n", Stderr: "unit not found\n", ExitCode: 5},
			want: ServiceResult{Code: http.StatusInternalServerError, Response: "partial\n", Error: "unit not found\n"},
		},
		{
			name:   "spawn failure",
			out:    Output{ExitCode: -1},
			runErr: errors.New("exec: \"service\": executable file not found in $PATH"),
			want: ServiceResult{
				Code:  http.StatusInternalServerError,
				Error: "exec: \"service\": executable file not found in $PATH",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fr := &fakeRunner{out: tt.out, err: tt.runErr}
			sc, err := NewServiceControl([]string{"service", "lte"}, "", fr, nil)
			if err != nil {
				t.Fatalf("NewServiceControl: %v", err)
			}
			got, err := sc.Run(context.Background(), ActionRestart)
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff([]string{"lte", "restart"}, fr.calls[0].Args); diff != "" {
				t.Errorf("args mismatch (-want +got):\n%s", diff)
			}
			if fr.calls[0].Binary != "service" {
				t.Errorf("binary = %q, want service", fr.calls[0].Binary)
			}
		})
	}
}

func TestServiceControl_UnknownAction(t *testing.T) {
	fr := &fakeRunner{}
	sc, _ := NewServiceControl([]string{"systemctl"}, "", fr, nil)

	_, err := sc.Run(context.Background(), "reboot")
	if !errors.Is(err, ErrUnknownAction) {
		t.Errorf("err = %v, want ErrUnknownAction", err)
	}
	if len(fr.calls) != 0 {
		t.Error("runner must not be called for an unknown action")
	}
}

func TestNewServiceControl_EmptyCommand(t *testing.T) {
	if _, err := NewServiceControl(nil, "", nil, nil); err == nil {
		t.Error("expected error for empty command")
	}
}
