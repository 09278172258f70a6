package device

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

var (
	versionRE = regexp.MustCompile(`Version +(\d+\.\d+\.\d+\w*)`)
	chassisRE = regexp.MustCompile(`Chassis type: (.+)`)
)

// Info probes the device for its software version and chassis type and
// formats them as a fenced JSON block suitable for appending to the
// developer prompt, so the model knows what platform it is talking to.
// Probe failures degrade to an incomplete block rather than an error.
func Info(ctx context.Context, ex Executor) string {
	var fields []string

	if out, err := ex.RunDirect(ctx, "show version"); err == nil {
		if m := versionRE.FindStringSubmatch(out); m != nil {
			fields = append(fields, fmt.Sprintf("    %q: %q", "IOS-XE Version", m[1]))
		}
	}
	if out, err := ex.RunDirect(ctx, "show platform"); err == nil {
		if m := chassisRE.FindStringSubmatch(out); m != nil {
			fields = append(fields, fmt.Sprintf("    %q: %q", "Chassis", strings.TrimSpace(m[1])))
		}
	}

	return "```json\n{\n" + strings.Join(fields, ",\n") + "\n}\n```"
}
