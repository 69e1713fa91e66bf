package state

// Settings controls when and how a Container persists state.
type Settings struct {
	// WriteBeforeSend is carried for configuration parity; state is always
	// read before the continuation and written after it completes.
	WriteBeforeSend bool
	// LastWriterWins forces a Versioned state's tag to storage.AnyETag before
	// writing. When false the state's own tag is passed through and the store
	// rejects stale writes.
	LastWriterWins bool
}

// DefaultSettings returns WriteBeforeSend and LastWriterWins enabled.
func DefaultSettings() Settings {
	return Settings{
		WriteBeforeSend: true,
		LastWriterWins:  true,
	}
}

// Config is the serialized form of Settings. Nil fields take the default.
type Config struct {
	WriteBeforeSend *bool `json:"write_before_send,omitempty" env:"WRITE_BEFORE_SEND"`
	LastWriterWins  *bool `json:"last_writer_wins,omitempty" env:"LAST_WRITER_WINS"`
}

// DefaultConfig returns a Config that resolves to DefaultSettings.
func DefaultConfig() Config {
	return Config{}
}

// Merge applies non-nil values from source into c.
func (c *Config) Merge(source *Config) {
	if source.WriteBeforeSend != nil {
		v := *source.WriteBeforeSend
		c.WriteBeforeSend = &v
	}
	if source.LastWriterWins != nil {
		v := *source.LastWriterWins
		c.LastWriterWins = &v
	}
}

// Settings resolves c against DefaultSettings.
func (c Config) Settings() Settings {
	s := DefaultSettings()
	if c.WriteBeforeSend != nil {
		s.WriteBeforeSend = *c.WriteBeforeSend
	}
	if c.LastWriterWins != nil {
		s.LastWriterWins = *c.LastWriterWins
	}
	return s
}
