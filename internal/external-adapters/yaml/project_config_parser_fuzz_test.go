package yaml

import (
	"testing"
)

// FuzzProjectConfigParser tests the YAML parser against random/malformed inputs
// to detect crashes, panics, or unexpected behavior.
//
// Run with: go test -fuzz=FuzzProjectConfigParser -fuzztime=30s
func FuzzProjectConfigParser(f *testing.F) {
	// Seed corpus with valid YAML examples
	f.Add([]byte(`paths:
  build: build
  install: bin
regression:
  command: 'node {tool} {input}'
  workers: 4
`))

	f.Add([]byte(`data:
  archive: test_data/acl_regression_tests.tar.zst
  dir: test_data/acl_regression
  missing: optional
regression:
  with_configs: true
  progress_interval: 500ms
`))

	f.Add([]byte(`toolchain:
  artifacts:
    - wasm: acl-encoder.wasm
      wrapper: src-js/encoder.wasm.js
pack:
  extra_files: [CHANGELOG.md, README.md, LICENSE]
`))

	// Seed with edge cases
	f.Add([]byte(``))                                     // Empty input
	f.Add([]byte(`{}`))                                   // Empty JSON-style YAML
	f.Add([]byte(`[]`))                                   // Array instead of object
	f.Add([]byte("paths:\n  build: a\n bad"))             // Invalid indentation
	f.Add([]byte("regression:\n  workers: many\n"))       // Wrong scalar type
	f.Add([]byte("paths: {build: a}\npaths: {build: b}")) // Duplicate keys

	parser := NewProjectConfigParser()

	f.Fuzz(func(_ *testing.T, data []byte) {
		// The parser should handle any input without crashing
		_, _ = parser.Parse(data)
	})
}
