package legacy

// Files locates the legacy documents on disk.
type Files struct {
	ConfigPath string
	UserPath   string
}

// Config reads and parses the config document.
func (f Files) Config() (*Config, error) {
	return ReadConfigFile(f.ConfigPath)
}

// Users reads and parses the user document.
func (f Files) Users() ([]UserEntry, error) {
	return ReadUserFile(f.UserPath)
}
