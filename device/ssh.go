package device

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"
)

const (
	defaultSSHPort    = 22
	defaultCmdTimeout = 30 * time.Second
)

// promptRE matches an IOS-style CLI prompt at the end of output
// (hostname# in exec mode, hostname(config)# in config mode, hostname>
// unprivileged).
var promptRE = regexp.MustCompile(`(?m)^[\w.\-/:]+(\([\w.\-]+\))?[#>]\s*$`)

// errorLineRE matches the device's rejection lines ("% Invalid input...").
var errorLineRE = regexp.MustCompile(`(?m)^%.*$`)

// SSHConfig holds device connection parameters.
type SSHConfig struct {
	Host           string `json:"host"`
	Port           int    `json:"port,omitempty"`
	Username       string `json:"username,omitempty"`
	TimeoutSeconds int    `json:"timeout_seconds,omitempty"`
}

// DefaultSSHConfig returns the default device configuration.
func DefaultSSHConfig() SSHConfig {
	return SSHConfig{Port: defaultSSHPort}
}

// Merge applies non-zero values from source into c.
func (c *SSHConfig) Merge(source *SSHConfig) {
	if source.Host != "" {
		c.Host = source.Host
	}
	if source.Port > 0 {
		c.Port = source.Port
	}
	if source.Username != "" {
		c.Username = source.Username
	}
	if source.TimeoutSeconds > 0 {
		c.TimeoutSeconds = source.TimeoutSeconds
	}
}

type sshExecutor struct {
	client  *ssh.Client
	session *ssh.Session
	stdin   io.WriteCloser
	data    chan []byte
	readErr chan error
	timeout time.Duration

	mu     sync.Mutex
	prompt string
}

// DialSSH connects to the device, opens an interactive shell, detects the
// CLI prompt, and disables output paging. The password is consumed here
// and not retained.
func DialSSH(cfg SSHConfig, password string) (Executor, error) {
	port := cfg.Port
	if port == 0 {
		port = defaultSSHPort
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = defaultCmdTimeout
	}

	clientCfg := &ssh.ClientConfig{
		User:            cfg.Username,
		Auth:            []ssh.AuthMethod{ssh.Password(password)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         timeout,
	}

	client, err := ssh.Dial("tcp", fmt.Sprintf("%s:%d", cfg.Host, port), clientCfg)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", cfg.Host, err)
	}

	session, err := client.NewSession()
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("open session: %w", err)
	}

	modes := ssh.TerminalModes{
		ssh.ECHO:          0,
		ssh.TTY_OP_ISPEED: 115200,
		ssh.TTY_OP_OSPEED: 115200,
	}
	if err := session.RequestPty("vt100", 40, 200, modes); err != nil {
		session.Close()
		client.Close()
		return nil, fmt.Errorf("request pty: %w", err)
	}

	stdin, err := session.StdinPipe()
	if err != nil {
		session.Close()
		client.Close()
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}
	stdout, err := session.StdoutPipe()
	if err != nil {
		session.Close()
		client.Close()
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}

	if err := session.Shell(); err != nil {
		session.Close()
		client.Close()
		return nil, fmt.Errorf("start shell: %w", err)
	}

	ex := &sshExecutor{
		client:  client,
		session: session,
		stdin:   stdin,
		data:    make(chan []byte, 16),
		readErr: make(chan error, 1),
		timeout: timeout,
	}
	go ex.pump(stdout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Nudge the shell past any login banner and capture the prompt.
	if _, err := ex.exchange(ctx, ""); err != nil {
		ex.Close()
		return nil, fmt.Errorf("detect prompt: %w", err)
	}
	if _, err := ex.exchange(ctx, "terminal length 0"); err != nil {
		ex.Close()
		return nil, fmt.Errorf("disable paging: %w", err)
	}

	return ex, nil
}

// pump moves device output from the SSH channel into the data channel so
// exchange can select against timeouts and cancellation.
func (ex *sshExecutor) pump(stdout io.Reader) {
	buf := make([]byte, 4096)
	for {
		n, err := stdout.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			ex.data <- chunk
		}
		if err != nil {
			ex.readErr <- err
			return
		}
	}
}

// exchange writes one line and accumulates output until the device prompt
// reappears. An empty command sends a bare newline.
func (ex *sshExecutor) exchange(ctx context.Context, command string) (string, error) {
	if _, err := io.WriteString(ex.stdin, command+"\n"); err != nil {
		return "", fmt.Errorf("write command: %w", err)
	}

	timer := time.NewTimer(ex.timeout)
	defer timer.Stop()

	var b strings.Builder
	for {
		select {
		case <-ctx.Done():
			return b.String(), ctx.Err()
		case <-timer.C:
			return b.String(), fmt.Errorf("timed out waiting for device prompt")
		case err := <-ex.readErr:
			return b.String(), fmt.Errorf("device connection: %w", err)
		case chunk := <-ex.data:
			b.Write(chunk)
			if ex.sawPrompt(b.String()) {
				return b.String(), nil
			}
		}
	}
}

// sawPrompt reports whether output ends at a CLI prompt, recording the
// prompt text for the REPL frame.
func (ex *sshExecutor) sawPrompt(out string) bool {
	lines := strings.Split(out, "\n")
	last := strings.TrimRight(lines[len(lines)-1], " ")
	if !promptRE.MatchString(last) {
		return false
	}

	ex.mu.Lock()
	ex.prompt = strings.TrimSpace(last)
	ex.mu.Unlock()
	return true
}

// clean strips the echoed command and the trailing prompt from raw output.
func clean(command, raw string) string {
	lines := strings.Split(raw, "\n")

	var kept []string
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if i == 0 && command != "" && strings.Contains(trimmed, strings.TrimSpace(command)) {
			continue
		}
		if i == len(lines)-1 && promptRE.MatchString(strings.TrimRight(line, " ")) {
			continue
		}
		kept = append(kept, strings.TrimRight(line, "\r"))
	}

	return strings.TrimSpace(strings.Join(kept, "\n"))
}

func (ex *sshExecutor) RunShow(ctx context.Context, commands []string) []ShowResult {
	results := make([]ShowResult, 0, len(commands))

	for _, command := range commands {
		if err := ctx.Err(); err != nil {
			results = append(results, ShowResult{Command: command, Err: err})
			continue
		}
		if err := GuardCheck(command); err != nil {
			results = append(results, ShowResult{Command: command, Err: err})
			continue
		}

		raw, err := ex.exchange(ctx, command)
		if err != nil {
			results = append(results, ShowResult{
				Command: command,
				Err:     &CommandError{Command: command, Reason: err.Error()},
			})
			continue
		}
		results = append(results, ShowResult{Command: command, Output: clean(command, raw)})
	}

	return results
}

func (ex *sshExecutor) RunConfigure(ctx context.Context, lines []string) (*ConfigResult, error) {
	raw, err := ex.exchange(ctx, "configure terminal")
	if err != nil {
		return nil, &ConfigError{Reason: "enter config mode: " + err.Error()}
	}
	if rej := rejection(raw); rej != "" {
		return nil, &ConfigError{Reason: rej}
	}

	result := &ConfigResult{}
	var applied []string

	for _, line := range lines {
		if err := ctx.Err(); err != nil {
			ex.exchange(context.Background(), "end")
			return nil, &ConfigError{Reason: err.Error()}
		}

		raw, err := ex.exchange(ctx, line)
		if err != nil {
			ex.exchange(context.Background(), "end")
			return nil, &ConfigError{Reason: err.Error()}
		}

		if rej := rejection(raw); rej != "" {
			result.FailedLine = line
			result.FailureReason = rej
			break
		}

		result.Applied++
		applied = append(applied, clean(line, raw))
	}

	result.Output = strings.TrimSpace(strings.Join(applied, "\n"))

	if _, err := ex.exchange(ctx, "end"); err != nil {
		return result, &ConfigError{Reason: "leave config mode: " + err.Error()}
	}
	return result, nil
}

func (ex *sshExecutor) RunDirect(ctx context.Context, command string) (string, error) {
	raw, err := ex.exchange(ctx, command)
	if err != nil {
		return "", &CommandError{Command: command, Reason: err.Error()}
	}
	return clean(command, raw), nil
}

func (ex *sshExecutor) Prompt() string {
	ex.mu.Lock()
	defer ex.mu.Unlock()
	return ex.prompt
}

func (ex *sshExecutor) Close() error {
	ex.session.Close()
	return ex.client.Close()
}

// rejection returns the device's error line from command output, or "".
func rejection(out string) string {
	return strings.TrimSpace(errorLineRE.FindString(out))
}
