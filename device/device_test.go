package device_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/netop-tools/ixc/device"
)

func TestForbidden(t *testing.T) {
	tests := []struct {
		command string
		want    bool
	}{
		{"show version", false},
		{"show ip interface brief", false},
		{"ping 10.0.0.1", false},
		{"configure terminal", true},
		{"copy running-config startup-config", true},
		{"reload", true},
		{"RELOAD", true},
		{"debug ip packet", true},
		{"delete flash:old.bin", true},
		{"  reload in 5", true},
	}

	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			if got := device.Forbidden(tt.command); got != tt.want {
				t.Errorf("Forbidden(%q) = %v, want %v", tt.command, got, tt.want)
			}
		})
	}
}

func TestGuardCheck_ReasonFormat(t *testing.T) {
	err := device.GuardCheck("reload")
	if err == nil {
		t.Fatal("GuardCheck(reload) = nil, want error")
	}

	var cmdErr *device.CommandError
	if !errors.As(err, &cmdErr) {
		t.Fatalf("got %T, want *CommandError", err)
	}
	if !strings.Contains(cmdErr.Reason, "%FORBIDDEN COMMAND: reload") {
		t.Errorf("reason %q missing forbidden marker", cmdErr.Reason)
	}
}

func TestGuardCheck_AllowsShow(t *testing.T) {
	if err := device.GuardCheck("show running-config interface Gi1"); err != nil {
		t.Errorf("GuardCheck allowed command returned %v", err)
	}
}

func TestConfigResult_Failed(t *testing.T) {
	ok := &device.ConfigResult{Applied: 3}
	if ok.Failed() {
		t.Error("result without failed line reported Failed() = true")
	}

	bad := &device.ConfigResult{Applied: 1, FailedLine: "ip address bad", FailureReason: "% Invalid input"}
	if !bad.Failed() {
		t.Error("result with failed line reported Failed() = false")
	}
}

// infoExecutor fakes the device channel for the info probe.
type infoExecutor struct {
	outputs map[string]string
}

func (e *infoExecutor) RunShow(ctx context.Context, commands []string) []device.ShowResult {
	return nil
}

func (e *infoExecutor) RunConfigure(ctx context.Context, lines []string) (*device.ConfigResult, error) {
	return nil, nil
}

func (e *infoExecutor) RunDirect(ctx context.Context, command string) (string, error) {
	out, ok := e.outputs[command]
	if !ok {
		return "", &device.CommandError{Command: command, Reason: "no output configured"}
	}
	return out, nil
}

func (e *infoExecutor) Prompt() string { return "router#" }
func (e *infoExecutor) Close() error   { return nil }

func TestInfo(t *testing.T) {
	ex := &infoExecutor{outputs: map[string]string{
		"show version":  "Cisco IOS XE Software, Version 17.9.4a\n...",
		"show platform": "Chassis type: C8000V\n\nSlot Type ...",
	}}

	info := device.Info(context.Background(), ex)

	if !strings.HasPrefix(info, "```json") || !strings.HasSuffix(info, "```") {
		t.Errorf("info not fenced: %q", info)
	}
	if !strings.Contains(info, `"IOS-XE Version": "17.9.4a"`) {
		t.Errorf("info missing version: %q", info)
	}
	if !strings.Contains(info, `"Chassis": "C8000V"`) {
		t.Errorf("info missing chassis: %q", info)
	}
}

func TestInfo_ProbeFailureDegrades(t *testing.T) {
	ex := &infoExecutor{outputs: map[string]string{}}

	info := device.Info(context.Background(), ex)

	if !strings.Contains(info, "json") {
		t.Errorf("info should still be a fenced block, got %q", info)
	}
	if strings.Contains(info, "Version") {
		t.Errorf("unexpected version field in %q", info)
	}
}
