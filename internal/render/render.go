// Package render formats tracker results for the terminal.
//
// Results go to the output writer, warnings and errors to the error writer.
// Colour is applied only when the writer is a terminal that supports it.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/fyrsmithlabs/czar/internal/eventlog"
	"github.com/fyrsmithlabs/czar/internal/project"
	"github.com/fyrsmithlabs/czar/internal/tracker"
)

// TimeLayout is how event times are shown.
const TimeLayout = "2006-01-02 15:04"

const none = "(none)"

// Renderer writes styled command output.
type Renderer struct {
	out    io.Writer
	errOut io.Writer
	styles styles
	errSty styles
}

type styles struct {
	label   lipgloss.Style
	value   lipgloss.Style
	dim     lipgloss.Style
	index   lipgloss.Style
	running lipgloss.Style
	ok      lipgloss.Style
	warning lipgloss.Style
	err     lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		label:   r.NewStyle().Foreground(lipgloss.Color("45")),
		value:   r.NewStyle().Foreground(lipgloss.Color("231")).Bold(true),
		dim:     r.NewStyle().Foreground(lipgloss.Color("245")),
		index:   r.NewStyle().Foreground(lipgloss.Color("51")).Bold(true),
		running: r.NewStyle().Foreground(lipgloss.Color("46")).Bold(true),
		ok:      r.NewStyle().Foreground(lipgloss.Color("46")),
		warning: r.NewStyle().Foreground(lipgloss.Color("226")).Bold(true),
		err:     r.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
	}
}

// New creates a Renderer writing results to out and diagnostics to errOut.
func New(out, errOut io.Writer) *Renderer {
	return &Renderer{
		out:    out,
		errOut: errOut,
		styles: newStyles(lipgloss.NewRenderer(out)),
		errSty: newStyles(lipgloss.NewRenderer(errOut)),
	}
}

// Info prints the directory project and the running project.
func (r *Renderer) Info(st *tracker.Status) {
	s := r.styles
	fmt.Fprintf(r.out, " %s %s\n", s.label.Render("Project Directory :"), r.projectDir(st.Project))
	fmt.Fprintf(r.out, " %s %s\n", s.label.Render("Running Project   :"), r.projectDir(st.Running))
}

func (r *Renderer) projectDir(p *project.Project) string {
	if p == nil {
		return r.styles.dim.Render(none)
	}
	return r.styles.value.Render(p.Directory)
}

// Registered reports the outcome of add.
func (r *Renderer) Registered(reg *tracker.Registration) {
	s := r.styles
	if reg.Created {
		fmt.Fprintf(r.out, "%s %s\n", s.ok.Render("Registered project"), s.value.Render(reg.Project.Directory))
		return
	}
	fmt.Fprintf(r.out, "Already registered as %s\n", s.value.Render(reg.Project.Directory))
}

// Started reports a start transition.
func (r *Renderer) Started(t *tracker.Transition) {
	r.transition("Started", t)
}

// Stopped reports a stop transition.
func (r *Renderer) Stopped(t *tracker.Transition) {
	r.transition("Stopped", t)
}

func (r *Renderer) transition(verb string, t *tracker.Transition) {
	s := r.styles
	line := fmt.Sprintf("%s %s %s", s.ok.Render(verb), s.value.Render(t.Project.Directory),
		s.dim.Render("at "+t.Event.Time.Local().Format(TimeLayout)))
	if text := t.Event.Text(); text != "" {
		line += ": " + text
	}
	fmt.Fprintln(r.out, line)
}

// TaskAdded reports a new task and its number.
func (r *Renderer) TaskAdded(c *tracker.TaskChange) {
	r.Target(c.Target)
	fmt.Fprintf(r.out, "Added task %s %s\n", r.styles.index.Render(fmt.Sprintf("%d.", c.Index)), c.Event.Text())
}

// NoteAdded reports a note attached to a task.
func (r *Renderer) NoteAdded(c *tracker.TaskChange) {
	r.Target(c.Target)
	fmt.Fprintf(r.out, "Noted task %s %s\n", r.styles.index.Render(fmt.Sprintf("%d.", c.Index)), c.Task.Text())
	fmt.Fprintf(r.out, "    - %s\n", c.Event.Text())
}

// Done reports a task marked done.
func (r *Renderer) Done(c *tracker.TaskChange) {
	r.Target(c.Target)
	line := fmt.Sprintf("%s %s %s", r.styles.ok.Render("Done"), r.styles.index.Render(fmt.Sprintf("%d.", c.Index)), c.Task.Text())
	if text := c.Event.Text(); text != "" {
		line += r.styles.dim.Render(" (" + text + ")")
	}
	fmt.Fprintln(r.out, line)
}

// Tasks prints the numbered open tasks, oldest first, each followed by its
// notes newest first.
func (r *Renderer) Tasks(l *tracker.TaskList) {
	s := r.styles
	r.Target(l.Target)

	fmt.Fprintf(r.out, "%s %s\n", s.label.Render("Project:"), s.value.Render(l.Project.Directory))
	if l.State.Len() == 0 {
		fmt.Fprintln(r.out, s.dim.Render("No open tasks"))
		return
	}

	width := len(fmt.Sprint(l.State.Len()))
	indent := strings.Repeat(" ", width+4)
	for _, task := range l.State.Open {
		fmt.Fprintf(r.out, "  %s %s %s\n",
			s.index.Render(fmt.Sprintf("%*d.", width, task.Index)),
			task.Event.Text(),
			s.dim.Render(stamp(task.Event)))
		for _, note := range task.Notes {
			fmt.Fprintf(r.out, "%s- %s %s\n", indent, note.Text(), s.dim.Render(stamp(note)))
		}
	}
}

// Projects prints every registered project, marking the running one.
func (r *Renderer) Projects(list []tracker.ProjectStatus) {
	s := r.styles
	if len(list) == 0 {
		fmt.Fprintln(r.out, s.dim.Render("No projects registered"))
		return
	}
	for _, ps := range list {
		marker := "  "
		dir := ps.Project.Directory
		if ps.Running {
			marker = s.running.Render("* ")
			dir = s.running.Render(dir)
		}
		fmt.Fprintf(r.out, "%s%s %s\n", marker, dir, s.dim.Render(ps.Project.UUID))
	}
}

// Target warns when the running project stood in for the directory's.
func (r *Renderer) Target(t tracker.Target) {
	if t.ViaActive {
		r.Warning(fmt.Sprintf("not in a project directory, using running project %s", t.Project.Directory))
	}
}

// Warning prints a yellow warning line.
func (r *Renderer) Warning(msg string) {
	fmt.Fprintln(r.errOut, r.errSty.warning.Render("warning:")+" "+msg)
}

// Error prints a red error line.
func (r *Renderer) Error(err error) {
	fmt.Fprintln(r.errOut, r.errSty.err.Render("error:")+" "+err.Error())
}

func stamp(e eventlog.Event) string {
	return "(" + e.Time.Local().Format(TimeLayout) + ")"
}
