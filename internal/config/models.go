package config

// RemoteConfig represents the configuration for the classification service
type RemoteConfig struct {
	BaseURL string
	Timeout string
}

// StoreConfig represents the configuration for the local scan store
type StoreConfig struct {
	Type       string
	SQLitePath string
	MySQLDSN   string
}

// HistoryConfig represents the configuration for history reconciliation
type HistoryConfig struct {
	RemoteTimeout string
	RemoteLimit   int
	PollInterval  string
}

// ServerConfig represents the configuration for the SMTP mail gate
type ServerConfig struct {
	Enabled        bool
	ListenAddress  string
	BlockPhishing  bool
	VerdictHeader  string
	RiskHeader     string
	ReasonHeader   string
	RelayEnabled   bool
	RelayAddress   string
	RelayPort      int
	TrustedDomains []string
}

// GetRemote returns the remote service configuration
func (c *Config) GetRemote() RemoteConfig {
	return RemoteConfig{
		BaseURL: c.GetString("remote.base_url"),
		Timeout: c.GetString("remote.timeout"),
	}
}

// GetStore returns the scan store configuration
func (c *Config) GetStore() StoreConfig {
	return StoreConfig{
		Type:       c.GetString("store.type"),
		SQLitePath: c.GetString("store.sqlite_path"),
		MySQLDSN:   c.GetString("store.mysql_dsn"),
	}
}

// GetHistory returns the history reconciliation configuration
func (c *Config) GetHistory() HistoryConfig {
	return HistoryConfig{
		RemoteTimeout: c.GetString("history.remote_timeout"),
		RemoteLimit:   c.GetInt("history.remote_limit"),
		PollInterval:  c.GetString("history.poll_interval"),
	}
}

// GetServer returns the mail gate configuration
func (c *Config) GetServer() ServerConfig {
	return ServerConfig{
		Enabled:        c.GetBool("server.enabled"),
		ListenAddress:  c.GetString("server.listen_address"),
		BlockPhishing:  c.GetBool("server.block_phishing"),
		VerdictHeader:  c.GetString("server.headers.verdict"),
		RiskHeader:     c.GetString("server.headers.risk"),
		ReasonHeader:   c.GetString("server.headers.reason"),
		RelayEnabled:   c.GetBool("server.relay.enabled"),
		RelayAddress:   c.GetString("server.relay.address"),
		RelayPort:      c.GetInt("server.relay.port"),
		TrustedDomains: c.GetStringSlice("server.trusted_domains"),
	}
}
