// Package config provides the configuration of protoedit.
//
// A config is merged from (in ascending order of precedence) the built-in
// defaults, the global config file, the project local config file,
// PROTOEDIT_* environment variables and command line flags.
package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/ktr0731/protoedit/cache"
	"github.com/ktr0731/protoedit/logger"
	"github.com/ktr0731/protoedit/meta"
	homedir "github.com/mitchellh/go-homedir"
	toml "github.com/pelletier/go-toml"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	xdgbasedir "github.com/zchee/go-xdgbasedir"
)

const (
	localConfigName  = ".protoedit.toml"
	globalConfigName = "config.toml"
	configVersion    = "1"
)

// Cache kinds.
const (
	CacheNone     = "none"
	CacheFile     = "file"
	CacheMemcache = "memcache"
	CacheRedis    = "redis"
)

type Config struct {
	Default *Default `toml:"default"`
	Log     *Log     `toml:"log"`
	Cache   *Cache   `toml:"cache"`
	Server  *Server  `toml:"server"`
	Meta    *Meta    `toml:"meta"`
}

type Default struct {
	// Import paths searched for .proto files.
	ProtoPath []string `toml:"protoPath"`
	// Files loaded on every run.
	ProtoFile []string `toml:"protoFile"`
	// The maximum depth of generated default values.
	Depth int `toml:"depth"`
	// The output format of documents. One of "json" or "yaml".
	Output string `toml:"output"`
}

type Log struct {
	Prefix string `toml:"prefix"`
	Level  string `toml:"level"`
}

type Cache struct {
	// One of "none", "file", "memcache" or "redis".
	Kind string `toml:"kind"`
	// The directory of the file cache.
	Dir string `toml:"dir"`
	// The server address of memcache or redis.
	Addr string `toml:"addr"`
	// Expiration of cached entries in seconds. Zero means no expiration.
	TTL int `toml:"ttl"`
}

type Server struct {
	Addr string `toml:"addr"`
}

type Meta struct {
	ConfigVersion string `toml:"configVersion"`
}

// ValidationError is returned by Validate when the config has invalid values.
type ValidationError struct {
	err error
}

func (e *ValidationError) Error() string {
	return e.err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.err
}

// Validate reports every invalid value of c at once.
func (c *Config) Validate() error {
	var result error
	invalidCases := []struct {
		name string
		cond bool
	}{
		{"default.depth must be greater than 0", c.Default.Depth < 1},
		{fmt.Sprintf("unknown output format %q", c.Default.Output), c.Default.Output != "json" && c.Default.Output != "yaml"},
		{fmt.Sprintf("unknown cache kind %q", c.Cache.Kind), !isCacheKind(c.Cache.Kind)},
		{fmt.Sprintf("cache.addr is required by the %s cache", c.Cache.Kind), (c.Cache.Kind == CacheMemcache || c.Cache.Kind == CacheRedis) && c.Cache.Addr == ""},
		{"cache.ttl must not be negative", c.Cache.TTL < 0},
	}
	for _, ic := range invalidCases {
		if ic.cond {
			result = multierror.Append(result, errors.New(ic.name))
		}
	}
	if c.Log.Level != "" {
		if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
			result = multierror.Append(result, errors.Wrap(err, "invalid log.level"))
		}
	}
	if result != nil {
		return &ValidationError{err: result}
	}
	return nil
}

func isCacheKind(k string) bool {
	switch k {
	case CacheNone, CacheFile, CacheMemcache, CacheRedis:
		return true
	}
	return false
}

// Encode writes c to w as a TOML document.
func (c *Config) Encode(w io.Writer) error {
	b, err := toml.Marshal(*c)
	if err != nil {
		return errors.Wrap(err, "failed to encode the config")
	}
	_, err = w.Write(b)
	return err
}

func defaultConfig() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal the default config")
	}
	setupConfig(&cfg)
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("default.protoPath", []string{})
	v.SetDefault("default.protoFile", []string{})
	v.SetDefault("default.depth", 2)
	v.SetDefault("default.output", "json")
	v.SetDefault("log.prefix", fmt.Sprintf("[%s] ", meta.AppName))
	v.SetDefault("log.level", "info")
	v.SetDefault("cache.kind", CacheFile)
	v.SetDefault("cache.dir", cache.DefaultDir())
	v.SetDefault("cache.addr", "")
	v.SetDefault("cache.ttl", 0)
	v.SetDefault("server.addr", "127.0.0.1:8080")
	v.SetDefault("meta.configVersion", configVersion)
}

// Get returns the merged config. fs may be nil.
// If the global config file doesn't exist, Get creates it with the default values.
func Get(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigType("toml")

	if err := readGlobalConfig(v); err != nil {
		return nil, err
	}
	if err := mergeLocalConfig(v); err != nil {
		return nil, err
	}

	v.SetEnvPrefix(meta.AppName)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if fs != nil {
		if err := bindFlags(v, fs); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal the config")
	}
	setupConfig(&cfg)
	return &cfg, nil
}

func readGlobalConfig(v *viper.Viper) error {
	dir := globalConfigDir()
	p := filepath.Join(dir, globalConfigName)
	if _, err := os.Stat(p); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.Wrap(err, "failed to create the config dir")
		}
		if err := v.WriteConfigAs(p); err != nil {
			return errors.Wrap(err, "failed to write the default global config")
		}
		logger.Printf("created the global config %s", p)
		return nil
	}
	v.SetConfigFile(p)
	if err := v.ReadInConfig(); err != nil {
		return errors.Wrapf(err, "failed to read the global config %s", p)
	}
	return nil
}

func mergeLocalConfig(v *viper.Viper) error {
	p, err := localConfigPath()
	if err != nil {
		return err
	}
	if p == "" {
		return nil
	}
	f, err := os.Open(p)
	if err != nil {
		return errors.Wrapf(err, "failed to open the local config %s", p)
	}
	defer f.Close()
	if err := v.MergeConfig(f); err != nil {
		return errors.Wrapf(err, "failed to merge the local config %s", p)
	}
	logger.Printf("merged the local config %s", p)
	return nil
}

// flagKeys maps config keys to the flag names that override them.
var flagKeys = map[string]string{
	"default.protoPath": "path",
	"default.protoFile": "proto",
	"default.depth":     "depth",
	"default.output":    "output",
	"log.level":         "log-level",
	"cache.kind":        "cache",
	"cache.addr":        "cache-addr",
	"server.addr":       "addr",
}

func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for k, name := range flagKeys {
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(k, f); err != nil {
			return errors.Wrapf(err, "failed to bind flag --%s", name)
		}
	}
	return nil
}

// setupConfig normalizes values that cannot be expressed in files as is.
func setupConfig(c *Config) {
	if c.Default == nil {
		c.Default = &Default{}
	}
	if c.Log == nil {
		c.Log = &Log{}
	}
	if c.Cache == nil {
		c.Cache = &Cache{}
	}
	if c.Server == nil {
		c.Server = &Server{}
	}
	if c.Meta == nil {
		c.Meta = &Meta{}
	}
	c.Default.ProtoPath = expandPaths(c.Default.ProtoPath)
	c.Default.ProtoFile = nonEmpty(c.Default.ProtoFile)
	if p, err := homedir.Expand(c.Cache.Dir); err == nil {
		c.Cache.Dir = p
	}
}

func expandPaths(paths []string) []string {
	res := make([]string, 0, len(paths))
	encountered := make(map[string]bool)
	for _, p := range nonEmpty(paths) {
		if expanded, err := homedir.Expand(p); err == nil {
			p = expanded
		}
		if encountered[p] {
			continue
		}
		encountered[p] = true
		res = append(res, p)
	}
	return res
}

func nonEmpty(ss []string) []string {
	res := make([]string, 0, len(ss))
	for _, s := range ss {
		if s != "" {
			res = append(res, s)
		}
	}
	return res
}

func globalConfigDir() string {
	return filepath.Join(xdgbasedir.ConfigHome(), meta.AppName)
}

// localConfigPath returns the path of the local config file. It looks up the
// current directory first, then the root of the Git repository. It returns
// an empty string if neither has one.
func localConfigPath() (string, error) {
	if _, err := os.Stat(localConfigName); err == nil {
		return localConfigName, nil
	} else if !os.IsNotExist(err) {
		return "", errors.Wrap(err, "failed to stat the local config")
	}
	root, err := lookupProjectRoot()
	if err != nil {
		// Not in a Git repository.
		return "", nil
	}
	p := filepath.Join(root, localConfigName)
	if _, err := os.Stat(p); err != nil {
		return "", nil
	}
	return p, nil
}

func lookupProjectRoot() (string, error) {
	outBuf, errBuf := new(bytes.Buffer), new(bytes.Buffer)
	cmd := exec.Command("git", "rev-parse", "--show-cdup")
	cmd.Stdout = outBuf
	cmd.Stderr = errBuf
	if err := cmd.Run(); err != nil {
		return "", errors.Wrap(err, strings.TrimSpace(errBuf.String()))
	}
	root := strings.TrimSpace(outBuf.String())
	if root == "" {
		root = "."
	}
	return root, nil
}

var runEditor = func(editor string, cfgPath string) error {
	cmd := exec.Command(editor, cfgPath)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func getEditor() string {
	if e := os.Getenv("EDITOR"); e != "" {
		return e
	}
	return "vi"
}

// Edit opens the project local config file with $EDITOR. The file is placed at
// the root of the Git repository. Edit returns an error outside a repository.
func Edit() error {
	root, err := lookupProjectRoot()
	if err != nil {
		return errors.Wrap(err, "the local config must be placed in a Git repository")
	}
	return runEditor(getEditor(), filepath.Join(root, localConfigName))
}

// EditGlobal opens the global config file with $EDITOR.
func EditGlobal() error {
	if _, err := Get(nil); err != nil {
		return err
	}
	return runEditor(getEditor(), filepath.Join(globalConfigDir(), globalConfigName))
}
