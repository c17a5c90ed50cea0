package gateways

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ochairo/aclmake/internal/domain/entities"
)

func TestArtifactFinder_Resolve(t *testing.T) {
	root := t.TempDir()
	installDir := filepath.Join(root, "bin")
	jsDir := filepath.Join(root, "acl-js")

	for _, path := range []string{
		filepath.Join(installDir, "acl-encoder.wasm"),
		filepath.Join(jsDir, "src-js", "encoder.wasm.js"),
		filepath.Join(installDir, "acl-decoder.wasm"),
	} {
		if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("x"), 0600); err != nil {
			t.Fatal(err)
		}
	}

	finder := NewArtifactFinder()

	t.Run("resolves configured pairs", func(t *testing.T) {
		got, err := finder.Resolve(installDir, jsDir, []entities.ArtifactConfig{
			{Wasm: "acl-encoder.wasm", Wrapper: "src-js/encoder.wasm.js"},
		})
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		want := entities.Artifact{
			Name:        "acl-encoder",
			Path:        filepath.Join(installDir, "acl-encoder.wasm"),
			WrapperPath: filepath.Join(jsDir, "src-js", "encoder.wasm.js"),
		}
		if len(got) != 1 || got[0] != want {
			t.Errorf("Resolve() = %+v, want [%+v]", got, want)
		}
	})

	tests := []struct {
		name    string
		pairs   []entities.ArtifactConfig
		wantErr string
	}{
		{name: "nothing configured", wantErr: "no artifacts configured"},
		{
			name:    "module not built",
			pairs:   []entities.ArtifactConfig{{Wasm: "acl-missing.wasm", Wrapper: "src-js/encoder.wasm.js"}},
			wantErr: "artifact acl-missing not built",
		},
		{
			name:    "wrapper missing",
			pairs:   []entities.ArtifactConfig{{Wasm: "acl-decoder.wasm", Wrapper: "src-js/decoder.wasm.js"}},
			wantErr: "wrapper for acl-decoder missing",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := finder.Resolve(installDir, jsDir, tt.pairs)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Resolve() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}
