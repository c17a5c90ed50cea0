package services

import (
	"fmt"
	"strings"

	"github.com/ochairo/aclmake/internal/domain/entities"
)

// Placeholders recognized in the verification command template
const (
	PlaceholderTool   = "{tool}"
	PlaceholderInput  = "{input}"
	PlaceholderConfig = "{config}"
)

// CommandTemplate renders the verification command for one work item
type CommandTemplate struct {
	template string
	tool     string
}

// NewCommandTemplate validates the template against the run mode.
// {input} is mandatory; {config} is mandatory with configs and forbidden without.
func NewCommandTemplate(template, tool string, withConfigs bool) (*CommandTemplate, error) {
	if strings.TrimSpace(template) == "" {
		return nil, fmt.Errorf("verification command is empty")
	}
	if !strings.Contains(template, PlaceholderInput) {
		return nil, fmt.Errorf("verification command %q has no %s placeholder", template, PlaceholderInput)
	}
	hasConfig := strings.Contains(template, PlaceholderConfig)
	if withConfigs && !hasConfig {
		return nil, fmt.Errorf("verification command %q has no %s placeholder", template, PlaceholderConfig)
	}
	if !withConfigs && hasConfig {
		return nil, fmt.Errorf("verification command %q uses %s but configs are disabled", template, PlaceholderConfig)
	}
	return &CommandTemplate{template: template, tool: tool}, nil
}

// Render substitutes the shell-quoted tool, input and config paths
func (t *CommandTemplate) Render(input entities.TestInput, cfg *entities.TestConfig) string {
	configPath := ""
	if cfg != nil {
		configPath = cfg.Path
	}
	return strings.NewReplacer(
		PlaceholderTool, ShellQuote(t.tool),
		PlaceholderInput, ShellQuote(input.Path),
		PlaceholderConfig, ShellQuote(configPath),
	).Replace(t.template)
}

// BuildWorkItems creates one item per input, in corpus order, for a round
func (t *CommandTemplate) BuildWorkItems(inputs []entities.TestInput, cfg *entities.TestConfig) []entities.WorkItem {
	items := make([]entities.WorkItem, 0, len(inputs))
	for i, in := range inputs {
		items = append(items, entities.WorkItem{
			Seq:     i,
			Input:   in,
			Config:  cfg,
			Command: t.Render(in, cfg),
		})
	}
	return items
}

// ShellQuote quotes s for /bin/sh; safe words are returned unchanged
func ShellQuote(s string) string {
	if s == "" {
		return "''"
	}
	safe := true
	for _, r := range s {
		if !isShellSafe(r) {
			safe = false
			break
		}
	}
	if safe {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}

func isShellSafe(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	}
	return strings.ContainsRune("_@%+=:,./-", r)
}
