package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"runlevelctl/internal/config"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"gopkg.in/yaml.v3"
)

// PrintComponents renders the configured components ordered as in the
// configuration. Untagged components show "-" as their level.
func PrintComponents(out io.Writer, format OutputFormat, rc config.RunlevelConfig) error {
	switch format {
	case OutputFormatJSON, OutputFormatYAML:
		data, err := yaml.Marshal(rc.Components)
		if err != nil {
			return fmt.Errorf("failed to encode components: %w", err)
		}
		if format == OutputFormatYAML {
			fmt.Fprint(out, string(data))
			return nil
		}
		// Round-trip through YAML so JSON keys follow the config file.
		var generic interface{}
		if err := yaml.Unmarshal(data, &generic); err != nil {
			return fmt.Errorf("failed to encode components: %w", err)
		}
		jsonData, err := json.MarshalIndent(generic, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode components: %w", err)
		}
		fmt.Fprintln(out, string(jsonData))
		return nil
	}

	if len(rc.Components) == 0 {
		fmt.Fprintln(out, text.FgYellow.Sprint("No components configured"))
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"NAME", "LEVEL", "KIND", "ENVIRONMENT", "DEPENDS ON"})
	for _, c := range rc.Components {
		level := "-"
		if c.Level != nil {
			level = fmt.Sprint(*c.Level)
		}
		kind := c.Kind
		if kind == "" {
			kind = "noop"
		}
		env := c.Environment
		if env == "" {
			env = rc.Settings.Environment
		}
		deps := strings.Join(c.DependsOn, ", ")
		if deps == "" {
			deps = "-"
		}
		t.AppendRow(table.Row{c.Name, level, text.FgCyan.Sprint(kind), env, deps})
	}
	t.Render()
	return nil
}
