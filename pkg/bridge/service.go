package bridge

import (
	"context"
	"fmt"
	"net/http"

	"github.com/mobilenet/amaribridge/pkg/log"
)

// Service actions accepted by ServiceControl.
const (
	ActionStart   = "start"
	ActionStop    = "stop"
	ActionRestart = "restart"
	ActionStatus  = "status"
)

// ServiceResult mirrors the HTTP-style answer of a service action.
type ServiceResult struct {
	Code     int    `json:"status"`
	Response string `json:"response"`
	Error    string `json:"error"`
}

// OK reports a zero exit status.
func (r ServiceResult) OK() bool {
	return r.Code == http.StatusOK
}

// ServiceControl runs the service management command, for example
// ["service", "lte"], with the action appended.
type ServiceControl struct {
	command []string
	dir     string
	runner  Runner
	logger  log.Logger
}

// NewServiceControl creates a ServiceControl. command must not be empty.
func NewServiceControl(command []string, dir string, runner Runner, logger log.Logger) (*ServiceControl, error) {
	if len(command) == 0 {
		return nil, fmt.Errorf("bridge: service command is empty")
	}
	if runner == nil {
		runner = ExecRunner{}
	}
	return &ServiceControl{
		command: append([]string(nil), command...),
		dir:     dir,
		runner:  runner,
		logger:  log.OrNoop(logger),
	}, nil
}

// Run executes the action. Exit 0 maps to 200 and anything else to 500;
// stdout and stderr are always returned. Unknown actions are rejected
// before anything runs.
func (s *ServiceControl) Run(ctx context.Context, action string) (ServiceResult, error) {
	switch action {
	case ActionStart, ActionStop, ActionRestart, ActionStatus:
	default:
		return ServiceResult{}, fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}

	args := append(append([]string(nil), s.command[1:]...), action)
	cmd := Command{Binary: s.command[0], Args: args, Dir: s.dir}
	s.logger.Info("service action", log.String("action", action), log.String("command", cmd.String()))

	out, err := s.runner.Run(ctx, cmd)
	res := ServiceResult{
		Code:     http.StatusOK,
		Response: out.Stdout,
		Error:    out.Stderr,
	}
	if err != nil || out.ExitCode != 0 {
		res.Code = http.StatusInternalServerError
		if res.Error == "" && err != nil {
			res.Error = err.Error()
		}
		s.logger.Warn("service action failed",
			log.String("action", action),
			log.Int("exit_code", out.ExitCode),
			log.String("stderr", out.Stderr))
	}
	return res, nil
}
