package model

// AppConfig holds user preferences and the defaults new requests start from.
type AppConfig struct {
	DefaultMode            Mode            `json:"default_mode"`
	DefaultKerfWidth       float64         `json:"default_kerf_width"`
	DefaultMinOffcut       float64         `json:"default_min_usable_offcut"`
	DefaultGrainImportance GrainImportance `json:"default_grain_importance"`
	DefaultKerfPolicy      KerfPolicy      `json:"default_kerf_policy"`
	DefaultFeedRate        float64         `json:"default_feed_rate"`
	DefaultSetupMinutes    float64         `json:"default_setup_minutes_per_cut"`

	Units          string   `json:"units"` // "in" or "mm", display only
	RecentRequests []string `json:"recent_requests"`
}

// maxRecentRequests caps the recent file list.
const maxRecentRequests = 10

// DefaultAppConfig returns an AppConfig matching DefaultSettings().
func DefaultAppConfig() AppConfig {
	defaults := DefaultSettings()
	return AppConfig{
		DefaultMode:            defaults.Mode,
		DefaultKerfWidth:       defaults.KerfWidth,
		DefaultMinOffcut:       defaults.MinUsableOffcut,
		DefaultGrainImportance: defaults.GrainImportance,
		DefaultKerfPolicy:      defaults.KerfPolicy,
		DefaultFeedRate:        defaults.FeedRate,
		DefaultSetupMinutes:    defaults.SetupMinutesPerCut,
		Units:                  UnitsInches,
		RecentRequests:         []string{},
	}
}

// ApplyToSettings copies the saved defaults into s.
// Zero values in the config leave the corresponding setting untouched.
func (c AppConfig) ApplyToSettings(s *Settings) {
	if c.DefaultMode != "" {
		s.Mode = c.DefaultMode
	}
	if c.DefaultKerfWidth > 0 {
		s.KerfWidth = c.DefaultKerfWidth
	}
	if c.DefaultMinOffcut > 0 {
		s.MinUsableOffcut = c.DefaultMinOffcut
	}
	if c.DefaultGrainImportance != "" {
		s.GrainImportance = c.DefaultGrainImportance
	}
	if c.DefaultKerfPolicy != "" {
		s.KerfPolicy = c.DefaultKerfPolicy
	}
	if c.DefaultFeedRate > 0 {
		s.FeedRate = c.DefaultFeedRate
	}
	if c.DefaultSetupMinutes > 0 {
		s.SetupMinutesPerCut = c.DefaultSetupMinutes
	}
}

// AddRecent moves path to the front of the recent list.
func (c *AppConfig) AddRecent(path string) {
	list := []string{path}
	for _, p := range c.RecentRequests {
		if p != path && len(list) < maxRecentRequests {
			list = append(list, p)
		}
	}
	c.RecentRequests = list
}
