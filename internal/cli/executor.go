package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"runlevelctl/internal/mcpserver"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"gopkg.in/yaml.v3"
)

// OutputFormat represents the output format for CLI commands
type OutputFormat string

const (
	OutputFormatTable OutputFormat = "table"
	OutputFormatJSON  OutputFormat = "json"
	OutputFormatYAML  OutputFormat = "yaml"
)

// ParseOutputFormat validates a --output flag value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(s)); f {
	case OutputFormatTable, OutputFormatJSON, OutputFormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported output format %q (use table, json or yaml)", s)
	}
}

// Executor calls the run-level tools of a running server and prints the results.
type Executor struct {
	client *Client
	format OutputFormat
	out    io.Writer
}

// NewExecutor creates an executor printing to out in format.
func NewExecutor(client *Client, format OutputFormat, out io.Writer) *Executor {
	return &Executor{client: client, format: format, out: out}
}

type proceedResult struct {
	Transition *mcpserver.TransitionInfo `json:"transition,omitempty"`
	State      mcpserver.StateInfo       `json:"state"`
}

type recordersResult struct {
	Recorders []mcpserver.RecorderInfo `json:"recorders"`
	Total     int                      `json:"total"`
}

// State prints the current and planned run level.
func (e *Executor) State(ctx context.Context) error {
	raw, err := e.client.CallToolText(ctx, "runlevel_state", nil)
	if err != nil {
		return err
	}
	var state mcpserver.StateInfo
	return e.print(raw, &state, func() { e.stateTable(state) })
}

// Proceed requests level. With wait it also waits for the transition and
// fails when the level was not reached.
func (e *Executor) Proceed(ctx context.Context, level int, wait bool, timeout time.Duration) error {
	args := map[string]interface{}{
		"level": level,
		"wait":  wait,
	}
	if timeout > 0 {
		args["timeout_seconds"] = timeout.Seconds()
	}
	raw, err := e.client.CallToolText(ctx, "runlevel_proceed", args)
	if err != nil {
		return err
	}
	var result proceedResult
	if err := e.print(raw, &result, func() { e.transitionTable(result) }); err != nil {
		return err
	}
	return transitionError(result.Transition)
}

// Recorders prints the activations recorded per level.
func (e *Executor) Recorders(ctx context.Context) error {
	raw, err := e.client.CallToolText(ctx, "runlevel_recorders", nil)
	if err != nil {
		return err
	}
	var result recordersResult
	return e.print(raw, &result, func() { e.recordersTable(result) })
}

// Wait waits for a transition, or for the orchestrator to go idle when id is empty.
func (e *Executor) Wait(ctx context.Context, id string, timeout time.Duration) error {
	args := map[string]interface{}{}
	if id != "" {
		args["transition_id"] = id
	}
	if timeout > 0 {
		args["timeout_seconds"] = timeout.Seconds()
	}
	raw, err := e.client.CallToolText(ctx, "runlevel_wait", args)
	if err != nil {
		return err
	}
	var result proceedResult
	if err := e.print(raw, &result, func() { e.transitionTable(result) }); err != nil {
		return err
	}
	return transitionError(result.Transition)
}

func transitionError(t *mcpserver.TransitionInfo) error {
	if t == nil || t.Outcome != "failed" {
		return nil
	}
	return fmt.Errorf("level %d not reached: %s", t.Target, t.Error)
}

// print decodes raw into v and renders it in the configured format.
func (e *Executor) print(raw string, v interface{}, renderTable func()) error {
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("failed to parse server response: %w", err)
	}

	switch e.format {
	case OutputFormatJSON:
		fmt.Fprintln(e.out, raw)
	case OutputFormatYAML:
		var data interface{}
		if err := json.Unmarshal([]byte(raw), &data); err != nil {
			return fmt.Errorf("failed to parse JSON: %w", err)
		}
		yamlData, err := yaml.Marshal(data)
		if err != nil {
			return fmt.Errorf("failed to convert to YAML: %w", err)
		}
		fmt.Fprint(e.out, string(yamlData))
	default:
		renderTable()
	}
	return nil
}

func (e *Executor) newTable() table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(e.out)
	t.SetStyle(table.StyleRounded)
	return t
}

func (e *Executor) stateTable(state mcpserver.StateInfo) {
	t := e.newTable()
	t.AppendHeader(table.Row{text.FgHiCyan.Sprint("PROPERTY"), text.FgHiCyan.Sprint("VALUE")})
	e.appendStateRows(t, state)
	t.Render()
}

func (e *Executor) appendStateRows(t table.Writer, state mcpserver.StateInfo) {
	planned := text.FgHiBlack.Sprint("-")
	if state.Planned != nil {
		planned = text.FgYellow.Sprint(*state.Planned)
	}
	t.AppendRows([]table.Row{
		{text.FgYellow.Sprint("environment"), state.Environment},
		{text.FgYellow.Sprint("current"), formatLevel(state.Current)},
		{text.FgYellow.Sprint("planned"), planned},
		{text.FgYellow.Sprint("inFlight"), state.InFlight},
	})
}

func (e *Executor) transitionTable(result proceedResult) {
	t := e.newTable()
	t.AppendHeader(table.Row{text.FgHiCyan.Sprint("PROPERTY"), text.FgHiCyan.Sprint("VALUE")})
	if tr := result.Transition; tr != nil {
		t.AppendRows([]table.Row{
			{text.FgYellow.Sprint("transition"), tr.ID},
			{text.FgYellow.Sprint("target"), tr.Target},
			{text.FgYellow.Sprint("outcome"), formatOutcome(tr.Outcome)},
		})
		if tr.Error != "" {
			t.AppendRow(table.Row{text.FgYellow.Sprint("error"), text.FgRed.Sprint(tr.Error)})
		}
		t.AppendSeparator()
	}
	e.appendStateRows(t, result.State)
	t.Render()
}

func (e *Executor) recordersTable(result recordersResult) {
	if len(result.Recorders) == 0 {
		fmt.Fprintln(e.out, text.FgYellow.Sprint("No levels recorded"))
		return
	}
	t := e.newTable()
	t.AppendHeader(table.Row{text.FgHiCyan.Sprint("LEVEL"), text.FgHiCyan.Sprint("ACTIVATIONS")})
	for _, r := range result.Recorders {
		activations := text.FgHiBlack.Sprint("none")
		if len(r.Activations) > 0 {
			activations = strings.Join(r.Activations, ", ")
		}
		t.AppendRow(table.Row{r.Level, activations})
	}
	t.Render()
	fmt.Fprintf(e.out, "\n%s %v levels\n", text.FgHiBlue.Sprint("Total:"), text.FgHiWhite.Sprint(result.Total))
}

func formatLevel(level int) interface{} {
	if level < 0 {
		return text.FgHiBlack.Sprint("none")
	}
	return text.FgGreen.Sprint(level)
}

func formatOutcome(outcome string) interface{} {
	switch outcome {
	case "completed":
		return text.FgGreen.Sprint("✅ " + outcome)
	case "failed":
		return text.FgRed.Sprint("❌ " + outcome)
	case "cancelled":
		return text.FgYellow.Sprint("⚠️  " + outcome)
	default:
		return text.FgYellow.Sprint("⏳ " + outcome)
	}
}
