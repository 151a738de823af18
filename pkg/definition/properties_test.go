package definition

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wellmaintained/karton/internal/errors"
	"github.com/wellmaintained/karton/pkg/host"
)

const testDefinitionPath = "/images/dev/definition.hcl"

func testHost() host.Static {
	return host.Static{User: "alice", Home: "/home/alice", Host: "workstation"}
}

func newTestProperties() *Properties {
	return NewProperties("dev", testDefinitionPath, testHost())
}

func TestNewPropertiesDefaults(t *testing.T) {
	p := newTestProperties()

	assert.Equal(t, "dev", p.ImageName())
	assert.Equal(t, testDefinitionPath, p.DefinitionPath())
	assert.Equal(t, testHost(), p.Host())
	assert.Equal(t, "alice", p.Username())
	assert.Equal(t, "/home/alice", p.UserHome())
	assert.Equal(t, "ubuntu", p.Distro())
	assert.Empty(t, p.Packages())
	assert.Empty(t, p.AdditionalArchs())

	_, ok := p.Maintainer()
	assert.False(t, ok, "maintainer must be unset by default")
}

func TestSetDistro(t *testing.T) {
	for _, distro := range []string{"ubuntu", "debian"} {
		t.Run(distro, func(t *testing.T) {
			p := newTestProperties()
			require.NoError(t, p.SetDistro(distro))
			assert.Equal(t, distro, p.Distro())
		})
	}

	for _, distro := range []string{"fedora", "Ubuntu", "", "ubuntu:22.04"} {
		t.Run("invalid "+distro, func(t *testing.T) {
			p := newTestProperties()
			err := p.SetDistro(distro)
			require.Error(t, err)

			defErr, ok := errors.AsDefinitionError(err)
			require.True(t, ok, "expected a definition error, got %T", err)
			assert.Equal(t, testDefinitionPath, defErr.Path)
			assert.Contains(t, defErr.Message, `"`+distro+`"`)
			assert.Equal(t, "ubuntu", p.Distro(), "a rejected value must not be stored")
		})
	}
}

func TestSetUsername(t *testing.T) {
	tests := []struct {
		name     string
		username string
		wantErr  bool
	}{
		{name: "simple", username: "bob"},
		{name: "underscore and digits", username: "_build01"},
		{name: "dash", username: "dev-user"},
		{name: "samba machine account", username: "host$"},
		{name: "uppercase", username: "Bob", wantErr: true},
		{name: "leading digit", username: "1bob", wantErr: true},
		{name: "shell injection", username: "bob; rm -rf /", wantErr: true},
		{name: "empty", username: "", wantErr: true},
		{name: "too long", username: strings.Repeat("a", 33), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestProperties()
			err := p.SetUsername(tt.username)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, "alice", p.Username())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.username, p.Username())
		})
	}
}

func TestSetUserHome(t *testing.T) {
	tests := []struct {
		name    string
		home    string
		wantErr bool
	}{
		{name: "absolute", home: "/home/bob"},
		{name: "root", home: "/root"},
		{name: "relative", home: "home/bob", wantErr: true},
		{name: "not clean", home: "/home/../bob", wantErr: true},
		{name: "trailing slash", home: "/home/bob/", wantErr: true},
		{name: "spaces", home: "/home/my bob", wantErr: true},
		{name: "command substitution", home: "/home/$(whoami)", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestProperties()
			err := p.SetUserHome(tt.home)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, "/home/alice", p.UserHome())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.home, p.UserHome())
		})
	}
}

func TestAddPackagesPreservesOrder(t *testing.T) {
	p := newTestProperties()

	require.NoError(t, p.AddPackages("foo", "bar"))
	require.NoError(t, p.AddPackages("libc6:i386", "g++", "foo"))

	assert.Equal(t, []string{"foo", "bar", "libc6:i386", "g++", "foo"}, p.Packages())
}

func TestAddPackagesRejectsAll(t *testing.T) {
	p := newTestProperties()

	err := p.AddPackages("git", "vim && curl evil")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "vim && curl evil")
	assert.Empty(t, p.Packages(), "no package must be added when one is invalid")
}

func TestPackagesReturnsCopy(t *testing.T) {
	p := newTestProperties()
	require.NoError(t, p.AddPackages("git"))

	pkgs := p.Packages()
	pkgs[0] = "changed"
	_ = append(pkgs, "extra")

	assert.Equal(t, []string{"git"}, p.Packages())
}

func TestAddArchitectures(t *testing.T) {
	p := newTestProperties()

	require.NoError(t, p.AddArchitectures("armhf", "i386"))
	assert.Equal(t, []string{"armhf", "i386"}, p.AdditionalArchs())

	require.Error(t, p.AddArchitectures("i386 && rm"))
	assert.Equal(t, []string{"armhf", "i386"}, p.AdditionalArchs())
}

func TestSetMaintainer(t *testing.T) {
	p := newTestProperties()

	require.NoError(t, p.SetMaintainer("Jane Doe <jane@example.com>"))
	m, ok := p.Maintainer()
	assert.True(t, ok)
	assert.Equal(t, "Jane Doe <jane@example.com>", m)

	require.Error(t, p.SetMaintainer("Jane\nRUN evil"))
	m, _ = p.Maintainer()
	assert.Equal(t, "Jane Doe <jane@example.com>", m)
}
