package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ochairo/aclmake/internal/domain/entities"
)

func TestShellQuote(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "", want: "''"},
		{in: "/data/clips/run.acl.sjson", want: "/data/clips/run.acl.sjson"},
		{in: "/data/my clips/run.acl.sjson", want: "'/data/my clips/run.acl.sjson'"},
		{in: "it's", want: `'it'"'"'s'`},
		{in: "$(rm -rf /)", want: "'$(rm -rf /)'"},
		{in: "a;b", want: "'a;b'"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ShellQuote(tt.in))
		})
	}
}

func TestNewCommandTemplate_Validation(t *testing.T) {
	tests := []struct {
		name        string
		template    string
		withConfigs bool
		wantErr     bool
	}{
		{name: "no-config default", template: "node {tool} {input}"},
		{name: "config mode", template: "node {tool} {input} {config}", withConfigs: true},
		{name: "empty", template: "  ", wantErr: true},
		{name: "missing input", template: "node {tool}", wantErr: true},
		{name: "config mode without config", template: "node {tool} {input}", withConfigs: true, wantErr: true},
		{name: "config placeholder without configs", template: "node {tool} {input} {config}", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCommandTemplate(tt.template, "/bin/tester.js", tt.withConfigs)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestCommandTemplate_BuildWorkItems(t *testing.T) {
	tmpl, err := NewCommandTemplate("node {tool} {input} {config}", "/repo/bin/tester.js", true)
	require.NoError(t, err)

	inputs := []entities.TestInput{
		{Path: "/data/big clip.acl.sjson", Size: 30},
		{Path: "/data/small.acl.sjson", Size: 10},
	}
	cfg := &entities.TestConfig{Path: "/data/configs/default.config.sjson", Name: "default"}

	items := tmpl.BuildWorkItems(inputs, cfg)
	require.Len(t, items, 2)

	assert.Equal(t, 0, items[0].Seq)
	assert.Equal(t, "node /repo/bin/tester.js '/data/big clip.acl.sjson' /data/configs/default.config.sjson", items[0].Command)
	assert.Equal(t, "default", items[0].ConfigName())
	assert.Equal(t, 1, items[1].Seq)
	assert.Equal(t, "node /repo/bin/tester.js /data/small.acl.sjson /data/configs/default.config.sjson", items[1].Command)
}

func TestCommandTemplate_NoConfig(t *testing.T) {
	tmpl, err := NewCommandTemplate("node {tool} {input}", "/repo/bin/tester.js", false)
	require.NoError(t, err)

	items := tmpl.BuildWorkItems([]entities.TestInput{{Path: "/data/a.acl.sjson"}}, nil)
	require.Len(t, items, 1)
	assert.Equal(t, "node /repo/bin/tester.js /data/a.acl.sjson", items[0].Command)
	assert.Equal(t, "", items[0].ConfigName())
}
