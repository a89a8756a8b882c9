package config

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/ktr0731/protoedit/cache"
	homedir "github.com/mitchellh/go-homedir"
	toml "github.com/pelletier/go-toml"
	"github.com/spf13/pflag"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// setupEnv creates a temp dir, changes the working dir to it and sets
// $XDG_CONFIG_HOME and $XDG_CACHE_HOME under it.
// setupEnv returns the base dir and the protoedit config dir.
//
//	─ (temp dir): dir
//	   ─ config: $XDG_CONFIG_HOME
//	      ─ protoedit: cfgDir
//	   ─ cache: $XDG_CACHE_HOME
func setupEnv(t *testing.T) (string, string) {
	t.Helper()

	cwd := getWorkDir(t)
	dir := t.TempDir()
	mustChdir(t, dir)
	t.Cleanup(func() { mustChdir(t, cwd) })

	cfgDir := filepath.Join(dir, "config")
	t.Setenv("XDG_CONFIG_HOME", cfgDir)
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	protoeditCfgDir := filepath.Join(cfgDir, "protoedit")
	mkdir(t, protoeditCfgDir)
	return dir, protoeditCfgDir
}

func writeTOML(t *testing.T, fname string, m map[string]interface{}) {
	t.Helper()

	tree, err := toml.TreeFromMap(m)
	if err != nil {
		t.Fatalf("failed to build a TOML tree: %s", err)
	}
	f, err := os.Create(fname)
	if err != nil {
		t.Fatalf("failed to create a file: %s", err)
	}
	defer f.Close()
	if _, err := tree.WriteTo(f); err != nil {
		t.Fatalf("failed to encode a TOML document: %s", err)
	}
}

var globalConfig = map[string]interface{}{
	"default": map[string]interface{}{
		"protoPath": []interface{}{"global"},
		"depth":     3,
	},
	"server": map[string]interface{}{
		"addr": "localhost:3000",
	},
}

var localConfig = map[string]interface{}{
	"default": map[string]interface{}{
		"protoPath": []interface{}{"local"},
		"protoFile": []interface{}{"api.proto"},
	},
	"cache": map[string]interface{}{
		"kind": "none",
	},
}

func expectedDefault(t *testing.T) *Config {
	t.Helper()
	return &Config{
		Default: &Default{ProtoPath: []string{}, ProtoFile: []string{}, Depth: 2, Output: "json"},
		Log:     &Log{Prefix: "[protoedit] ", Level: "info"},
		Cache:   &Cache{Kind: CacheFile, Dir: cache.DefaultDir()},
		Server:  &Server{Addr: "127.0.0.1:8080"},
		Meta:    &Meta{ConfigVersion: configVersion},
	}
}

func TestGet(t *testing.T) {
	cases := map[string]struct {
		global bool
		local  bool
		env    map[string]string
		args   []string
		want   func(c *Config)
	}{
		"create a default global config if both of global and local config are not found": {
			want: func(c *Config) {},
		},
		"load a global config if local config is not found": {
			global: true,
			want: func(c *Config) {
				c.Default.ProtoPath = []string{"global"}
				c.Default.Depth = 3
				c.Server.Addr = "localhost:3000"
			},
		},
		"load a local config": {
			global: true,
			local:  true,
			want: func(c *Config) {
				c.Default.ProtoPath = []string{"local"}
				c.Default.ProtoFile = []string{"api.proto"}
				c.Default.Depth = 3
				c.Cache.Kind = CacheNone
				c.Server.Addr = "localhost:3000"
			},
		},
		"an environment variable overrides config files": {
			global: true,
			local:  true,
			env:    map[string]string{"PROTOEDIT_SERVER_ADDR": ":9001", "PROTOEDIT_DEFAULT_DEPTH": "5"},
			want: func(c *Config) {
				c.Default.ProtoPath = []string{"local"}
				c.Default.ProtoFile = []string{"api.proto"}
				c.Default.Depth = 5
				c.Cache.Kind = CacheNone
				c.Server.Addr = ":9001"
			},
		},
		"flags override everything": {
			global: true,
			local:  true,
			env:    map[string]string{"PROTOEDIT_SERVER_ADDR": ":9001"},
			args:   []string{"--addr", ":8081", "--path", "foo", "--path", "bar", "--depth", "4"},
			want: func(c *Config) {
				c.Default.ProtoPath = []string{"foo", "bar"}
				c.Default.ProtoFile = []string{"api.proto"}
				c.Default.Depth = 4
				c.Cache.Kind = CacheNone
				c.Server.Addr = ":8081"
			},
		},
		"flags which are not passed don't override config files": {
			global: true,
			want: func(c *Config) {
				c.Default.ProtoPath = []string{"global"}
				c.Default.Depth = 3
				c.Server.Addr = "localhost:3000"
			},
		},
	}

	for name, c := range cases {
		c := c
		t.Run(name, func(t *testing.T) {
			dir, cfgDir := setupEnv(t)
			if c.global {
				writeTOML(t, filepath.Join(cfgDir, "config.toml"), globalConfig)
			}
			if c.local {
				writeTOML(t, filepath.Join(dir, ".protoedit.toml"), localConfig)
			}
			for k, v := range c.env {
				t.Setenv(k, v)
			}

			fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
			fs.StringSlice("path", []string{"ignored"}, "")
			fs.StringSlice("proto", nil, "")
			fs.Int("depth", 10, "")
			fs.String("addr", ":1", "")
			if err := fs.Parse(c.args); err != nil {
				t.Fatalf("failed to parse flags: %s", err)
			}

			got := mustGet(t, fs)

			want := expectedDefault(t)
			c.want(want)
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("(-want, +got)\n%s", diff)
			}

			if _, err := os.Stat(filepath.Join(cfgDir, "config.toml")); err != nil {
				t.Errorf("the global config must exist after Get, but got '%s'", err)
			}
		})
	}
}

func TestGet_ExpandsPaths(t *testing.T) {
	dir, cfgDir := setupEnv(t)
	t.Setenv("HOME", dir)
	homedir.DisableCache = true
	defer func() { homedir.DisableCache = false }()
	writeTOML(t, filepath.Join(cfgDir, "config.toml"), map[string]interface{}{
		"default": map[string]interface{}{
			"protoPath": []interface{}{"~/protos", "", "~/protos", "vendor"},
		},
	})

	cfg := mustGet(t, nil)

	want := []string{filepath.Join(dir, "protos"), "vendor"}
	if diff := cmp.Diff(want, cfg.Default.ProtoPath); diff != "" {
		t.Errorf("(-want, +got)\n%s", diff)
	}
}

func TestValidate(t *testing.T) {
	cases := map[string]struct {
		modify func(c *Config)
		errs   []string
	}{
		"default config is valid": {
			modify: func(c *Config) {},
		},
		"remote caches require an address": {
			modify: func(c *Config) { c.Cache.Kind = CacheRedis },
			errs:   []string{"cache.addr is required by the redis cache"},
		},
		"every invalid value is reported": {
			modify: func(c *Config) {
				c.Default.Depth = 0
				c.Default.Output = "xml"
				c.Cache.Kind = "disk"
				c.Log.Level = "loud"
			},
			errs: []string{
				"default.depth must be greater than 0",
				`unknown output format "xml"`,
				`unknown cache kind "disk"`,
				"invalid log.level",
			},
		},
	}

	for name, c := range cases {
		c := c
		t.Run(name, func(t *testing.T) {
			cfg, err := defaultConfig()
			if err != nil {
				t.Fatalf("defaultConfig must not return an error, but got '%s'", err)
			}
			c.modify(cfg)

			err = cfg.Validate()
			if len(c.errs) == 0 {
				if err != nil {
					t.Errorf("Validate must not return an error, but got '%s'", err)
				}
				return
			}
			if _, ok := err.(*ValidationError); !ok {
				t.Fatalf("expected *ValidationError, but got %T", err)
			}
			for _, e := range c.errs {
				if !strings.Contains(err.Error(), e) {
					t.Errorf("error should contain %q, but got '%s'", e, err)
				}
			}
		})
	}
}

func TestEncode(t *testing.T) {
	cfg, err := defaultConfig()
	if err != nil {
		t.Fatalf("defaultConfig must not return an error, but got '%s'", err)
	}
	var buf bytes.Buffer
	if err := cfg.Encode(&buf); err != nil {
		t.Fatalf("Encode must not return an error, but got '%s'", err)
	}
	for _, s := range []string{"[default]", "depth = 2", `addr = "127.0.0.1:8080"`, `kind = "file"`} {
		if !strings.Contains(buf.String(), s) {
			t.Errorf("encoded config should contain %q, but got:\n%s", s, buf.String())
		}
	}
}

func TestEdit(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("TestEdit requires Git")
	}

	cases := map[string]struct {
		outsideGitRepo bool
		expectedEditor string
		hasErr         bool
	}{
		"run with default editor": {},
		"run with $EDITOR":        {expectedEditor: "nvim"},
		"Edit returns an error because it is outside a Git repo": {outsideGitRepo: true, hasErr: true},
	}

	for name, c := range cases {
		c := c
		t.Run(name, func(t *testing.T) {
			dir, _ := setupEnv(t)
			t.Setenv("EDITOR", c.expectedEditor)
			if !c.outsideGitRepo {
				if err := exec.Command("git", "init", dir).Run(); err != nil {
					t.Fatalf("failed to init a pseudo project: %s", err)
				}
			}

			var called bool
			defer func(old func(string, string) error) { runEditor = old }(runEditor)
			runEditor = func(editor string, cfgPath string) error {
				called = true
				expected := "vi"
				if c.expectedEditor != "" {
					expected = c.expectedEditor
				}
				if expected != editor {
					t.Errorf("runEditor must be called with the expected editor (expected = %s, actual = %s)", expected, editor)
				}
				if filepath.Base(cfgPath) != ".protoedit.toml" {
					t.Errorf("unexpected config path: %s", cfgPath)
				}
				return nil
			}

			err := Edit()
			if c.hasErr {
				if err == nil {
					t.Error("Edit must return an error, but got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Edit must not return an error, but got '%s'", err)
			}
			if !called {
				t.Error("runEditor must be called")
			}
		})
	}
}

func TestEditGlobal(t *testing.T) {
	_, cfgDir := setupEnv(t)
	t.Setenv("EDITOR", "nano")

	defer func(old func(string, string) error) { runEditor = old }(runEditor)
	var gotEditor, gotPath string
	runEditor = func(editor string, cfgPath string) error {
		gotEditor, gotPath = editor, cfgPath
		return nil
	}

	if err := EditGlobal(); err != nil {
		t.Fatalf("EditGlobal must not return an error, but got '%s'", err)
	}
	if gotEditor != "nano" {
		t.Errorf("expected nano, but got %s", gotEditor)
	}
	if want := filepath.Join(cfgDir, "config.toml"); gotPath != want {
		t.Errorf("expected %s, but got %s", want, gotPath)
	}
}

func getWorkDir(t *testing.T) string {
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get the working dir: %s", err)
	}
	return cwd
}

func mkdir(t *testing.T, dir string) {
	err := os.MkdirAll(dir, 0755)
	if err != nil {
		t.Fatalf("failed to create dirs: %s", err)
	}
}

func mustGet(t *testing.T, fs *pflag.FlagSet) *Config {
	t.Helper()
	cfg, err := Get(fs)
	if err != nil {
		t.Fatalf("Get must not return any errors, but got '%s'", err)
	}
	return cfg
}

func mustChdir(t *testing.T, dir string) {
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir must not return an error, but got '%s'", err)
	}
}
