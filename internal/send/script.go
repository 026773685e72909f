package send

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/afrpush/afrpush/internal/model"
)

// ScriptSender hands the message to a local shell script over stdin, with
// the target as the first argument. Exit code zero means delivered.
type ScriptSender struct {
	scriptPath string
	timeout    time.Duration
}

// NewScriptSender creates a script sender.
func NewScriptSender(scriptPath string, timeout time.Duration) (*ScriptSender, error) {
	if scriptPath == "" {
		return nil, fmt.Errorf("script path is required")
	}
	if timeout == 0 {
		timeout = 45 * time.Second
	}
	return &ScriptSender{scriptPath: scriptPath, timeout: timeout}, nil
}

// Name identifies the channel in delivery records.
func (s *ScriptSender) Name() string { return "desktop-script" }

// Send runs the script. Image delivery is not supported by this channel.
func (s *ScriptSender) Send(target, message string) model.DeliveryResult {
	if _, err := os.Stat(s.scriptPath); err != nil {
		return model.DeliveryResult{
			Channel:      s.Name(),
			Success:      false,
			ErrorMessage: fmt.Sprintf("script not found: %s", s.scriptPath),
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "bash", s.scriptPath, target)
	cmd.Stdin = strings.NewReader(message)
	cmd.Env = append(os.Environ(), "LANG=en_US.UTF-8")

	output, err := cmd.CombinedOutput()
	trimmed := strings.TrimSpace(string(output))

	if ctx.Err() == context.DeadlineExceeded {
		return model.DeliveryResult{
			Channel:      s.Name(),
			Success:      false,
			ErrorMessage: fmt.Sprintf("script timed out after %s", s.timeout),
		}
	}
	if err != nil {
		return model.DeliveryResult{
			Channel:         s.Name(),
			Success:         false,
			ErrorMessage:    fmt.Sprintf("script execution failed: %v", err),
			ResponseExcerpt: excerpt(trimmed),
		}
	}

	return model.DeliveryResult{
		Channel:         s.Name(),
		Success:         true,
		ResponseExcerpt: excerpt(trimmed),
	}
}
