// Package entities defines core domain models and data structures.
package entities

// Artifact represents a compiled module produced by the build step
type Artifact struct {
	Name        string // e.g. "acl-encoder"
	Path        string // absolute path to the .wasm file
	WrapperPath string // absolute path to the hand-authored JS wrapper
}

// PatchResult describes what the post-build patcher wrote into a wrapper
type PatchResult struct {
	WrapperPath string
	Version     string
	BlobBytes   int
	Changed     bool
}
