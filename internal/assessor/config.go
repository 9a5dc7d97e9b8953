package assessor

// Config holds the constants behind every estimate. The defaults match the
// published websitecarbon model and the fixed per-resource byte sizes used
// for page weight.
type Config struct {
	// EnergyPerByte is kWh spent per transferred byte.
	EnergyPerByte float64 `mapstructure:"energy_per_byte" json:"energy_per_byte"`

	// GridIntensity is grams of CO2 per kWh.
	GridIntensity float64 `mapstructure:"grid_intensity" json:"grid_intensity"`

	// Assumed transfer size of one external resource, in bytes.
	StylesheetBytes int `mapstructure:"stylesheet_bytes" json:"stylesheet_bytes"`
	ScriptBytes     int `mapstructure:"script_bytes" json:"script_bytes"`
	ImageBytes      int `mapstructure:"image_bytes" json:"image_bytes"`

	// Recommendation thresholds; a count strictly above the limit triggers.
	MaxImages      int `mapstructure:"max_images" json:"max_images"`
	MaxScripts     int `mapstructure:"max_scripts" json:"max_scripts"`
	MaxStylesheets int `mapstructure:"max_stylesheets" json:"max_stylesheets"`
}

// DefaultConfig returns the stock estimate constants.
func DefaultConfig() *Config {
	return &Config{
		EnergyPerByte:   0.0000000018,
		GridIntensity:   475,
		StylesheetBytes: 50000,
		ScriptBytes:     100000,
		ImageBytes:      200000,
		MaxImages:       20,
		MaxScripts:      10,
		MaxStylesheets:  5,
	}
}

// withDefaults fills zero fields from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.EnergyPerByte <= 0 {
		c.EnergyPerByte = d.EnergyPerByte
	}
	if c.GridIntensity <= 0 {
		c.GridIntensity = d.GridIntensity
	}
	if c.StylesheetBytes <= 0 {
		c.StylesheetBytes = d.StylesheetBytes
	}
	if c.ScriptBytes <= 0 {
		c.ScriptBytes = d.ScriptBytes
	}
	if c.ImageBytes <= 0 {
		c.ImageBytes = d.ImageBytes
	}
	if c.MaxImages <= 0 {
		c.MaxImages = d.MaxImages
	}
	if c.MaxScripts <= 0 {
		c.MaxScripts = d.MaxScripts
	}
	if c.MaxStylesheets <= 0 {
		c.MaxStylesheets = d.MaxStylesheets
	}
	return c
}
