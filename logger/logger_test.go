package logger_test

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/ktr0731/protoedit/logger"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScriptln(t *testing.T) {
	t.Run("logger must write the result of Scriptln to w, but got empty result", func(t *testing.T) {
		defer logger.Reset()
		w := new(bytes.Buffer)
		logger.SetOutput(w)
		logger.Scriptln(func() []interface{} {
			return []interface{}{"aoi", "miyamori"}
		})
		assert.NotEmpty(t, w.String())
	})

	t.Run("logger must not write the result of Scriptln to w because SetOutput is not called", func(t *testing.T) {
		defer logger.Reset()
		w := new(bytes.Buffer)
		var called bool
		logger.Scriptln(func() []interface{} {
			called = true
			return []interface{}{"erika", "yano"}
		})
		assert.Empty(t, w.String())
		assert.False(t, called, "f must not be called while logging is disabled")
	})
}

func TestPrintf(t *testing.T) {
	defer logger.Reset()
	w := new(bytes.Buffer)
	logger.SetOutput(w)
	logger.SetPrefix("[test] ")

	logger.Printf("loaded %d files", 3)
	logger.WithFields(logrus.Fields{"file": "a.proto"}).Info("compiled")

	lines := strings.Split(strings.TrimSpace(w.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "[test] level=info msg=loaded 3 files", lines[0])
	assert.Equal(t, "[test] level=info msg=compiled file=a.proto", lines[1])
}

func TestSetLevel(t *testing.T) {
	defer logger.Reset()
	w := new(bytes.Buffer)
	logger.SetOutput(w)

	require.NoError(t, logger.SetLevel("warn"))
	logger.Printf("hidden")
	logger.Debugf("hidden")
	assert.Empty(t, w.String())

	logger.Warnf("shown")
	assert.Contains(t, w.String(), "msg=shown")

	assert.Error(t, logger.SetLevel("loud"))
}

func TestWriter(t *testing.T) {
	defer logger.Reset()
	w := new(bytes.Buffer)
	logger.SetOutput(w)

	lw := logger.Writer()
	fmt.Fprint(lw, "first line\nsecond ")
	fmt.Fprint(lw, "line\n")

	assert.Contains(t, w.String(), "msg=first line")
	assert.Contains(t, w.String(), "msg=second line")
	assert.Equal(t, 2, strings.Count(w.String(), "\n"))
}
