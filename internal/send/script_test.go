package send

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "send.sh")
	if err := os.WriteFile(path, []byte(body), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func TestScriptSendSuccess(t *testing.T) {
	path := writeScript(t, "#!/bin/bash\ncat > /dev/null\necho delivered to \"$1\"\n")

	s, err := NewScriptSender(path, 10*time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result := s.Send("File Transfer", "hello")
	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
	if !strings.Contains(result.ResponseExcerpt, "File Transfer") {
		t.Errorf("expected target in output, got %q", result.ResponseExcerpt)
	}
}

func TestScriptSendNonZeroExit(t *testing.T) {
	path := writeScript(t, "#!/bin/bash\nexit 3\n")

	s, _ := NewScriptSender(path, 10*time.Second)
	result := s.Send("target", "hello")
	if result.Success {
		t.Error("expected failure on non-zero exit")
	}
	if result.ErrorMessage == "" {
		t.Error("expected error message")
	}
}

func TestScriptSendMissingScript(t *testing.T) {
	s, _ := NewScriptSender("/nonexistent/send.sh", time.Second)
	result := s.Send("target", "hello")
	if result.Success {
		t.Error("expected failure for missing script")
	}
	if !strings.Contains(result.ErrorMessage, "not found") {
		t.Errorf("unexpected error message %q", result.ErrorMessage)
	}
}

func TestScriptSenderHasNoImageCapability(t *testing.T) {
	s, _ := NewScriptSender("/tmp/send.sh", time.Second)
	if _, ok := any(s).(ImageSender); ok {
		t.Error("script sender must not advertise image capability")
	}
}
