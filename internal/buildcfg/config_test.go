package buildcfg

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hbuild/hpkgrepo/internal/models"
)

func TestApplyDefaults(t *testing.T) {
	cfg := Config{PackagingArch: "x86_64"}
	cfg.ApplyDefaults()

	assert.Equal(t, []string{"x86_64"}, cfg.PackagingArchs)
	assert.Greater(t, cfg.Jobs, 0)
}

func TestValidate(t *testing.T) {
	cfg := Config{
		PackagingArch:  "x86",
		PackagingArchs: []string{"x86_gcc2", "x86"},
		Jobs:           1,
	}
	require.NoError(t, cfg.Validate())

	cfg.PackagingArch = "arm64"
	assert.Error(t, cfg.Validate(), "current arch must be among configured architectures")

	cfg.PackagingArch = "x86"
	cfg.SecondaryCrossTools = []string{"/a", "/b"}
	assert.Error(t, cfg.Validate(), "cross-tools count must match secondary arch count")
}

func TestValidateErrorKind(t *testing.T) {
	cfg := Config{PackagingArchs: []string{"x86_64"}}

	err := cfg.Validate()
	require.Error(t, err)

	var fe *models.FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, models.ErrInvalidConfig, fe.Kind)
}

func TestLoadReportsMalformedEnvironment(t *testing.T) {
	t.Setenv("HPKG_JOBS", "notanumber")

	_, err := Load()
	assert.Error(t, err)
}

func TestArchHelpers(t *testing.T) {
	cfg := Config{
		PackagingArch:  "x86",
		PackagingArchs: []string{"x86_gcc2", "x86"},
	}

	assert.Equal(t, "x86_gcc2", cfg.PrimaryArch())
	assert.Equal(t, []string{"x86"}, cfg.SecondaryArchs())
	assert.True(t, cfg.IsSecondaryArch())

	cfg.PackagingArch = "x86_gcc2"
	assert.False(t, cfg.IsSecondaryArch())
}
