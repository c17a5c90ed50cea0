package entities

// Suffixes recognized by corpus discovery
const (
	InputSuffix  = ".acl.sjson"
	ConfigSuffix = ".config.sjson"
)

// TestInput identifies one corpus entry. Size is only a scheduling hint.
type TestInput struct {
	Path string
	Size int64
}

// TestConfig identifies one configuration variant applied to every input
type TestConfig struct {
	Path string
	Name string
}

// Corpus is the ordered result of corpus discovery
type Corpus struct {
	Root       string
	ConfigRoot string
	Inputs     []TestInput
	Configs    []TestConfig
}

// TotalBytes returns the summed size of every input
func (c *Corpus) TotalBytes() int64 {
	var total int64
	for _, in := range c.Inputs {
		total += in.Size
	}
	return total
}

// RoundCount returns the number of scheduling rounds the corpus needs.
// In no-config mode there is exactly one round.
func (c *Corpus) RoundCount() int {
	if len(c.Configs) == 0 {
		return 1
	}
	return len(c.Configs)
}

// WorkItemCount returns inputs × max(1, configs)
func (c *Corpus) WorkItemCount() int {
	return len(c.Inputs) * c.RoundCount()
}
