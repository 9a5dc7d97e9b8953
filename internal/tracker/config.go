package tracker

// Config controls where and how much scan history is kept.
type Config struct {
	// Path is the sqlite database file. ":memory:" keeps history for the
	// life of the process only.
	Path string `mapstructure:"path" json:"path,omitempty"`

	// MaxHistory limits stored scans per site; older scans are pruned on
	// Save. Zero keeps everything.
	MaxHistory int `mapstructure:"max_history" json:"max_history,omitempty"`
}
