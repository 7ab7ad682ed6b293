package reload

import (
	"log/slog"

	"github.com/shaiso/Kiln/internal/fsx"
)

// Значения по умолчанию.
const (
	DefaultDirectory  = "./build"
	DefaultPort       = 8080
	DefaultFallback   = "index.html"
	DefaultReloadPort = 8181
)

// Config — настройки dev-сервера.
type Config struct {
	// Directory — каталог со статикой; относительный путь разрешается
	// относительно FS.Cwd.
	Directory string
	// Host — адрес для прослушивания; пусто означает все интерфейсы.
	Host string
	// Port — порт HTTP-сервера; 0 означает свободный порт.
	Port int
	// Fallback — файл, который отдаётся вместо отсутствующих путей.
	Fallback string
	// Reload включает WebSocket-канал и внедрение клиентского скрипта.
	Reload bool
	// ReloadPort — порт WebSocket-канала.
	ReloadPort int

	FS     *fsx.FS
	Logger *slog.Logger
}

// DefaultConfig возвращает конфигурацию по умолчанию.
func DefaultConfig() Config {
	return Config{
		Directory:  DefaultDirectory,
		Port:       DefaultPort,
		Fallback:   DefaultFallback,
		Reload:     true,
		ReloadPort: DefaultReloadPort,
	}
}

// Option изменяет Config.
type Option func(*Config)

// WithHost задаёт адрес прослушивания.
func WithHost(host string) Option {
	return func(c *Config) { c.Host = host }
}

// WithFallback задаёт fallback-файл.
func WithFallback(name string) Option {
	return func(c *Config) { c.Fallback = name }
}

// WithReload включает или выключает живую перезагрузку.
func WithReload(enabled bool) Option {
	return func(c *Config) { c.Reload = enabled }
}

// WithReloadPort задаёт порт reload-канала.
func WithReloadPort(port int) Option {
	return func(c *Config) { c.ReloadPort = port }
}

// WithFS задаёт файловый корень.
func WithFS(fs *fsx.FS) Option {
	return func(c *Config) { c.FS = fs }
}

// WithLogger задаёт логгер.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) { c.Logger = logger }
}
