package config

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// FileSystem is the slice of file access the loader needs.
type FileSystem interface {
	Exists(path string) bool
	LoadEnv(path string) error
}

type osFS struct{}

func (osFS) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (osFS) LoadEnv(path string) error { return godotenv.Load(path) }

type envAlias struct{ env, key string }

type loader struct {
	fs         FileSystem
	configFile string
	envFile    string
	envPrefix  string
	aliases    []envAlias
}

// LoaderOption configures LoadConfig.
type LoaderOption func(*loader)

func WithFileSystem(fs FileSystem) LoaderOption {
	return func(l *loader) { l.fs = fs }
}

// WithConfigFile skips the search and reads path. A missing file is not an error.
func WithConfigFile(path string) LoaderOption {
	return func(l *loader) { l.configFile = path }
}

func WithEnvFile(path string) LoaderOption {
	return func(l *loader) { l.envFile = path }
}

// WithEnvPrefix binds PREFIX_SECTION_KEY variables onto section.key.
func WithEnvPrefix(prefix string) LoaderOption {
	return func(l *loader) { l.envPrefix = strings.ToUpper(strings.TrimSuffix(prefix, "_")) }
}

// WithEnvAlias binds a bare environment variable onto a config key.
// Aliases override prefixed variables. When several aliases target the
// same key, the one registered last wins.
func WithEnvAlias(envName, key string) LoaderOption {
	return func(l *loader) { l.aliases = append(l.aliases, envAlias{envName, key}) }
}

func configCandidates(service string) []string {
	return []string{
		"./cmd/" + service + "/config.yml",
		"../cmd/" + service + "/config.yml",
		"./config/config.yml",
		"./config.yml",
	}
}

func envCandidates(service string) []string {
	return []string{
		"./cmd/" + service + "/.env",
		".env." + service,
		".env",
	}
}

// resolve returns the config and env files to read. Explicit paths are kept
// as given; otherwise the first existing candidate is used.
func (l *loader) resolve(service string) (configFile, envFile string) {
	pick := func(explicit string, candidates []string) string {
		if explicit != "" {
			return explicit
		}
		if i := slices.IndexFunc(candidates, l.fs.Exists); i >= 0 {
			return candidates[i]
		}
		return ""
	}
	return pick(l.configFile, configCandidates(service)), pick(l.envFile, envCandidates(service))
}

// LoadConfig fills cfg for the named service. Sources, lowest precedence
// first: the YAML file, PREFIX_* variables, then aliases. The .env file is
// loaded into the process environment before variables are bound and never
// overrides variables that are already set.
func LoadConfig(service string, cfg any, opts ...LoaderOption) error {
	l := &loader{fs: osFS{}}
	for _, opt := range opts {
		opt(l)
	}
	configFile, envFile := l.resolve(service)

	v := viper.New()
	v.SetConfigType("yaml")
	if configFile != "" && l.fs.Exists(configFile) {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config file %s: %w", configFile, err)
		}
	}
	if envFile != "" && l.fs.Exists(envFile) {
		if err := l.fs.LoadEnv(envFile); err != nil {
			return fmt.Errorf("load env file %s: %w", envFile, err)
		}
	}

	if l.envPrefix != "" {
		bindPrefixedEnv(v, l.envPrefix)
	}
	for _, a := range l.aliases {
		if value := os.Getenv(a.env); value != "" {
			v.Set(a.key, value)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("decode config for %s: %w", service, err)
	}
	return nil
}

func bindPrefixedEnv(v *viper.Viper, prefix string) {
	for _, env := range os.Environ() {
		name, value, ok := strings.Cut(env, "=")
		if !ok {
			continue
		}
		rest, found := strings.CutPrefix(name, prefix+"_")
		if !found {
			continue
		}
		for _, key := range envKeyVariants(rest) {
			v.Set(key, value)
		}
	}
}

// envKeyVariants lists every nested key an underscore-separated name could
// mean, so keys that contain underscores themselves still resolve.
//
//	RECOGNITION_SESSION_TIMEOUT -> recognition_session_timeout,
//	    recognition.session.timeout, recognition.session_timeout
func envKeyVariants(name string) []string {
	lower := strings.ToLower(name)
	parts := strings.Split(lower, "_")
	variants := []string{lower}
	if len(parts) == 1 {
		return variants
	}
	variants = append(variants, strings.Join(parts, "."))
	for i := 1; i < len(parts)-1; i++ {
		variants = append(variants, strings.Join(parts[:i], ".")+"."+strings.Join(parts[i:], "_"))
	}
	return variants
}
