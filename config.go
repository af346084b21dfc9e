package udal

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"
)

// Config содержит настройки, передаваемые реализации UDAL при создании:
// каталог кеша и API-токены внешних провайдеров. После создания
// конфигурация используется только для чтения.
//
// Проверка существования каталога и корректности токенов не выполняется,
// это ответственность реализации.
type Config struct {
	cacheDir  string
	apiTokens map[string]string
}

// ConfigOption изменяет конфигурацию при создании.
type ConfigOption func(*Config)

// NewConfig создает конфигурацию. Без опций каталог кеша не задан,
// а набор токенов пуст. Каждый вызов получает собственную карту токенов.
func NewConfig(opts ...ConfigOption) *Config {
	c := &Config{
		apiTokens: make(map[string]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithCacheDir задает каталог кеша. Путь нормализуется: ведущая тильда
// раскрывается в домашний каталог, затем путь очищается filepath.Clean.
// Пустая строка оставляет каталог незаданным.
func WithCacheDir(dir string) ConfigOption {
	return func(c *Config) {
		c.cacheDir = normalizeDir(dir)
	}
}

// WithAPIToken задает токен для одного провайдера.
func WithAPIToken(provider, token string) ConfigOption {
	return func(c *Config) {
		c.apiTokens[provider] = token
	}
}

// WithAPITokens добавляет токены из карты. Карта копируется.
func WithAPITokens(tokens map[string]string) ConfigOption {
	return func(c *Config) {
		for provider, token := range tokens {
			c.apiTokens[provider] = token
		}
	}
}

// CacheDir возвращает каталог кеша. Второй результат ложен, если каталог не задан.
func (c *Config) CacheDir() (string, bool) {
	return c.cacheDir, c.cacheDir != ""
}

// APIToken возвращает токен провайдера.
func (c *Config) APIToken(provider string) (string, bool) {
	token, ok := c.apiTokens[provider]
	return token, ok
}

// APITokens возвращает копию карты токенов.
func (c *Config) APITokens() map[string]string {
	out := make(map[string]string, len(c.apiTokens))
	for provider, token := range c.apiTokens {
		out[provider] = token
	}
	return out
}

// Providers возвращает отсортированные имена провайдеров, для которых заданы токены.
func (c *Config) Providers() []string {
	return sortedKeys(c.apiTokens)
}

// String не раскрывает значения токенов.
func (c *Config) String() string {
	dir := "<unset>"
	if c.cacheDir != "" {
		dir = c.cacheDir
	}
	return fmt.Sprintf("Config{cache_dir: %s, api_tokens: %v}", dir, c.Providers())
}

// configFile — форма конфигурации в YAML и JSON.
type configFile struct {
	CacheDir  string            `yaml:"cache_dir,omitempty" json:"cache_dir,omitempty"`
	APITokens map[string]string `yaml:"api_tokens,omitempty" json:"api_tokens,omitempty"`
}

func (c Config) toFile() configFile {
	return configFile{CacheDir: c.cacheDir, APITokens: c.APITokens()}
}

func (c *Config) fromFile(f configFile) {
	*c = *NewConfig(WithCacheDir(f.CacheDir), WithAPITokens(f.APITokens))
}

// MarshalYAML реализует yaml.Marshaler. Метод объявлен на значении,
// поэтому Config и *Config кодируются одинаково.
func (c Config) MarshalYAML() (any, error) {
	return c.toFile(), nil
}

// UnmarshalYAML реализует yaml.Unmarshaler.
func (c *Config) UnmarshalYAML(node *yaml.Node) error {
	var f configFile
	if err := node.Decode(&f); err != nil {
		return err
	}
	c.fromFile(f)
	return nil
}

// MarshalJSON реализует json.Marshaler. Как и MarshalYAML, работает
// и для Config, и для *Config; декодирование возможно только в *Config.
func (c Config) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.toFile())
}

// UnmarshalJSON реализует json.Unmarshaler.
func (c *Config) UnmarshalJSON(data []byte) error {
	var f configFile
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	c.fromFile(f)
	return nil
}

// LoadConfig читает конфигурацию из YAML-документа. JSON также принимается.
// Пустой документ дает конфигурацию по умолчанию.
func LoadConfig(r io.Reader) (*Config, error) {
	cfg := NewConfig()
	if err := yaml.NewDecoder(r).Decode(cfg); err != nil && err != io.EOF {
		return nil, fmt.Errorf("не удалось разобрать конфигурацию: %w", err)
	}
	return cfg, nil
}

// LoadConfigFile читает конфигурацию из файла.
func LoadConfigFile(path string) (*Config, error) {
	f, err := os.Open(normalizeDir(path))
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть файл конфигурации: %w", err)
	}
	defer f.Close()

	return LoadConfig(f)
}

func normalizeDir(dir string) string {
	if dir == "" {
		return ""
	}
	if expanded, err := homedir.Expand(dir); err == nil {
		dir = expanded
	}
	return filepath.Clean(dir)
}

var (
	_ yaml.Marshaler   = Config{}
	_ yaml.Marshaler   = (*Config)(nil)
	_ yaml.Unmarshaler = (*Config)(nil)
	_ json.Marshaler   = Config{}
	_ json.Marshaler   = (*Config)(nil)
	_ json.Unmarshaler = (*Config)(nil)
)
