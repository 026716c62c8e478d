package sagebeckn

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetVersionInfo(t *testing.T) {
	info := GetVersionInfo()

	assert.Equal(t, Version, info.SageBecknVersion)
	assert.Equal(t, BecknCoreVersion, info.BecknCoreVersion)
	assert.Equal(t, SAGEVersion, info.SAGEVersion)
}
