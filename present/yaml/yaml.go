// Package yaml provides a YAML presenter.
package yaml

import (
	"bytes"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Presenter is a presenter that formats v into YAML string.
type Presenter struct{}

// Format formats v into a YAML document indented with two spaces.
func (p *Presenter) Format(v interface{}) (string, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return "", errors.Wrap(err, "failed to format v into YAML string")
	}
	if err := enc.Close(); err != nil {
		return "", errors.Wrap(err, "failed to flush YAML encoder")
	}
	return buf.String(), nil
}

func NewPresenter() *Presenter {
	return &Presenter{}
}
