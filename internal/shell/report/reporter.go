package report

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/artpar/moodle-bootstrap/internal/core/bootstrap"
	"github.com/artpar/moodle-bootstrap/internal/core/outcome"
)

// Reporter writes the human-readable summary of a run.
type Reporter struct {
	style OutputStyle
}

// NewReporter creates a new Reporter.
func NewReporter(style OutputStyle) *Reporter {
	return &Reporter{style: style}
}

// Report writes the summary of o to w. It covers every recorded step, the
// effective configuration and, when the run did not abort, where to reach
// the stack.
func (r *Reporter) Report(w io.Writer, o *outcome.Outcome) error {
	p := &printer{w: w}

	p.line(r.style.Heading.Sprintf("Bootstrap summary (run %s)", o.RunID))
	for _, step := range o.Steps {
		status := r.style.ForStatus(step.Status).Sprintf("%-16s", step.Status)
		line := fmt.Sprintf("  %-32s %s", step.State, status)
		if step.Duration > 0 {
			line += r.style.Muted.Sprintf(" %s", step.Duration.Round(time.Millisecond))
		}
		p.line(line)
		if detail := stepDetail(step); detail != "" {
			p.line(r.style.Muted.Sprintf("      %s", detail))
		}
	}

	if o.Config != nil {
		p.line("")
		p.line(r.style.Heading.Sprint("Configuration"))
		for _, kv := range configRows(*o.Config) {
			p.line(fmt.Sprintf("  %-12s %s", kv[0], kv[1]))
		}
	}

	if len(o.Services) > 0 {
		p.line("")
		p.line(r.style.Heading.Sprint("Services"))
		for _, svc := range o.Services {
			p.line("  " + svc)
		}
	}

	p.line("")
	if o.Failed() {
		p.line(r.style.Failure.Sprintf("FATAL: %v", o.Fatal))
		return p.err
	}

	if o.Config != nil {
		p.line(r.style.Success.Sprintf("Site available at %s", o.Config.WebURL()))
		if o.Config.HasVNCPort() {
			p.line(fmt.Sprintf("Selenium VNC on localhost:%d", *o.Config.VNCPort))
		}
	}
	if n := len(o.ToleratedFailures()); n > 0 {
		p.line(r.style.Warning.Sprintf("Completed with %d tolerated failure(s)", n))
	}
	return p.err
}

func stepDetail(step outcome.StepResult) string {
	if step.Err != nil {
		return step.Err.Error()
	}
	return step.Detail
}

func configRows(cfg bootstrap.BootstrapConfig) [][2]string {
	return [][2]string{
		{"project", cfg.ProjectPrefix},
		{"web port", strconv.Itoa(cfg.WebPort)},
		{"code path", cfg.CodePath},
		{"db engine", string(cfg.DBEngine)},
		{"db port", optionalPort(cfg.DBPort)},
		{"vnc port", optionalPort(cfg.VNCPort)},
		{"install", strconv.FormatBool(cfg.RunInstall)},
	}
}

func optionalPort(port *int) string {
	if port == nil {
		return "-"
	}
	return strconv.Itoa(*port)
}

// printer remembers the first write error.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) line(s string) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintln(p.w, s)
}
