package version_test

import (
	"encoding/json"
	"runtime"
	"testing"

	// Packages
	version "github.com/mutablelogic/go-uploader/pkg/version"
	assert "github.com/stretchr/testify/assert"
)

func Test_Version(t *testing.T) {
	t.Run("Tag", func(t *testing.T) {
		assert := assert.New(t)
		defer func(tag, branch string) { version.GitTag, version.GitBranch = tag, branch }(version.GitTag, version.GitBranch)
		version.GitTag, version.GitBranch = "v1.2.3", "main"
		assert.Equal("v1.2.3", version.Version())
	})
	t.Run("Branch", func(t *testing.T) {
		assert := assert.New(t)
		defer func(tag, branch string) { version.GitTag, version.GitBranch = tag, branch }(version.GitTag, version.GitBranch)
		version.GitTag, version.GitBranch = "", "main"
		assert.Equal("main", version.Version())
	})
	t.Run("Fallback", func(t *testing.T) {
		assert := assert.New(t)
		defer func(tag, branch string) { version.GitTag, version.GitBranch = tag, branch }(version.GitTag, version.GitBranch)
		version.GitTag, version.GitBranch = "", ""
		assert.NotEmpty(version.Version())
	})
}

func Test_JSON(t *testing.T) {
	assert := assert.New(t)
	defer func(hash string) { version.GitHash = hash }(version.GitHash)
	version.GitHash = "abc123"

	var info version.Info
	assert.NoError(json.Unmarshal(version.JSON("uploader"), &info))
	assert.Equal("uploader", info.Name)
	assert.Equal("abc123", info.Hash)
	assert.Equal(runtime.Version(), info.Compiler)
	assert.Equal(version.Version(), info.Version)
}
