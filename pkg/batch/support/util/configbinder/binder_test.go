package configbinder_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tigerroll/midas-extract/pkg/batch/support/util/configbinder"
)

type target struct {
	BaseDir  string `yaml:"base_dir"`
	ReadOnly bool   `yaml:"read_only"`
	Batch    int    `yaml:"batch"`
}

func TestBind(t *testing.T) {
	var got target
	require.NoError(t, configbinder.Bind(map[string]interface{}{
		"base_dir":  "/data",
		"read_only": "true",
		"batch":     "5000",
	}, &got))
	assert.Equal(t, target{BaseDir: "/data", ReadOnly: true, Batch: 5000}, got)
}

func TestBind_Nil(t *testing.T) {
	got := target{BaseDir: "/keep"}
	require.NoError(t, configbinder.Bind(nil, &got))
	assert.Equal(t, "/keep", got.BaseDir)
}

func TestBind_Invalid(t *testing.T) {
	var got target
	err := configbinder.Bind(map[string]interface{}{"batch": "many"}, &got)
	assert.ErrorContains(t, err, "target")
}
