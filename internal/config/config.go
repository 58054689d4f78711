package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth"     validate:"required"`
	Realtime RealtimeConfig `mapstructure:"realtime" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`

	// AllowedOrigins lists the browser origins permitted for CORS and websocket upgrades.
	AllowedOrigins []string `mapstructure:"allowed_origins" validate:"dive,url"`

	ShutdownTimeoutSeconds int  `mapstructure:"shutdown_timeout_seconds" validate:"gt=0"`
	MetricsEnabled         bool `mapstructure:"metrics_enabled"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL          string `mapstructure:"url"            validate:"required,url"`
	MaxOpenConns int    `mapstructure:"max_open_conns" validate:"gt=0"`
	MaxIdleConns int    `mapstructure:"max_idle_conns" validate:"gte=0"`
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret" validate:"required,min=32"`
	// RefreshSecret signs refresh tokens. Falls back to JWTSecret when empty.
	RefreshSecret               string `mapstructure:"refresh_secret"                 validate:"omitempty,min=32"`
	TokenLifetimeMinutes        int    `mapstructure:"token_lifetime_minutes"         validate:"required,gt=0,lt=44640"`
	RefreshTokenLifetimeMinutes int    `mapstructure:"refresh_token_lifetime_minutes" validate:"required,gt=0,lt=525600"`
	BcryptCost                  int    `mapstructure:"bcrypt_cost"                    validate:"gte=4,lte=31"`
}

// RealtimeConfig contains settings for the websocket transport and lock coordinator.
type RealtimeConfig struct {
	// SendBufferSize is the number of outbound messages queued per connection
	// before the connection is considered too slow and closed.
	SendBufferSize      int   `mapstructure:"send_buffer_size"      validate:"gt=0"`
	MaxMessageBytes     int64 `mapstructure:"max_message_bytes"     validate:"gt=0"`
	WriteTimeoutSeconds int   `mapstructure:"write_timeout_seconds" validate:"gt=0"`
	PongTimeoutSeconds  int   `mapstructure:"pong_timeout_seconds"  validate:"gt=1"`

	// RequireAuth rejects websocket upgrades that do not present a valid access token.
	RequireAuth bool `mapstructure:"require_auth"`

	// EmitCRUDEvents forwards REST task mutations into the coordinator so that
	// clients do not have to echo them over the socket. While it is on, task-*
	// frames from sockets are validated and dropped so each change is
	// broadcast once.
	EmitCRUDEvents bool `mapstructure:"emit_crud_events"`
}
