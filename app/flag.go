package app

import (
	"github.com/hashicorp/go-multierror"
	"github.com/ktr0731/protoedit/config"
	"github.com/pkg/errors"
)

// flags defines command line flags shared by all commands.
type flags struct {
	common struct {
		path      []string
		proto     []string
		output    string
		cache     string
		cacheAddr string
		logLevel  string
	}

	meta struct {
		verbose bool
		version bool
		help    bool
	}
}

// validate defines invalid conditions and validates whether f has invalid conditions.
func (f *flags) validate() error {
	var result error
	invalidCases := []struct {
		name string
		cond bool
	}{
		{
			"--cache-addr is available only with --cache memcache or --cache redis",
			f.common.cacheAddr != "" && f.common.cache != "" &&
				f.common.cache != config.CacheMemcache && f.common.cache != config.CacheRedis,
		},
		{"--output must be json or yaml", f.common.output != "" && f.common.output != "json" && f.common.output != "yaml"},
	}
	for _, c := range invalidCases {
		if c.cond {
			result = multierror.Append(result, errors.New(c.name))
		}
	}
	return result
}
