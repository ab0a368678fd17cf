package internal

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVersionString(t *testing.T) {
	tsts := []struct {
		Name     string
		Tag      string
		Build    string
		Revision string
		Want     string
	}{
		{"release", "", "", "", "0.1.0"},
		{"tagged", "rc1", "", "", "0.1.0-rc1"},
		{"build", "", "alpha", "", "0.1.0+alpha"},
		{"revision", "", "", "3f2c1ab9d0e4", "0.1.0+3f2c1ab"},
		{"everything", "rc1", "alpha", "3f2c1ab9d0e4", "0.1.0-rc1+alpha.3f2c1ab"},
	}
	for _, tst := range tsts {
		t.Run(tst.Name, func(t *testing.T) {
			assert.Equal(t, tst.Want, versionString(tst.Tag, tst.Build, tst.Revision))
		})
	}

	assert.True(t, strings.HasPrefix(VersionString(), "0.1.0"), VersionString())
}
