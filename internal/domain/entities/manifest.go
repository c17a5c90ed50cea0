package entities

// ManifestFileName is the fixed name of the manifest inside the data directory
const ManifestFileName = "metadata.sjson"

// Manifest lists discovered configs and clips, each relative to its own root
type Manifest struct {
	Configs []string
	Clips   []string
}
