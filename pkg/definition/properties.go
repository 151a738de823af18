// Package definition loads image definition files and holds the properties
// they produce.
//
// A definition file is an HCL document with a single "setup_image" block.
// Evaluating the block mutates a Properties value, which the dockerfile
// package later renders into a Dockerfile.
package definition

import (
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/wellmaintained/karton/internal/errors"
	"github.com/wellmaintained/karton/pkg/host"
)

// DefaultDistro is the distribution used when a definition doesn't pick one.
const DefaultDistro = "ubuntu"

// Distros lists the supported base distributions.
var Distros = []string{"ubuntu", "debian"}

var (
	usernameRegex = regexp.MustCompile(`^[a-z_][a-z0-9_-]*\$?$`)
	packageRegex  = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9+.:=~_/-]*$`)
	archRegex     = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)
)

const maxUsernameLength = 32

// Properties holds the instructions on how to generate an image and what
// to include in it.
type Properties struct {
	imageName      string
	definitionPath string
	host           host.System

	username        string
	userHome        string
	distro          string
	packages        []string
	additionalArchs []string
	maintainer      *string

	evalMap map[string]func() string
}

// NewProperties creates the properties for imageName, defined by the file
// at definitionPath, with the user settings copied from host.
func NewProperties(imageName, definitionPath string, sys host.System) *Properties {
	return &Properties{
		imageName:      imageName,
		definitionPath: definitionPath,
		host:           sys,
		username:       sys.Username(),
		userHome:       sys.UserHome(),
		distro:         DefaultDistro,
		evalMap: map[string]func() string{
			"host.username": sys.Username,
			"host.userhome": sys.UserHome,
			"host.hostname": sys.Hostname,
		},
	}
}

// ImageName returns the name of the image being defined.
func (p *Properties) ImageName() string { return p.imageName }

// DefinitionPath returns the path of the definition file.
func (p *Properties) DefinitionPath() string { return p.definitionPath }

// Host returns the host the properties were seeded from.
func (p *Properties) Host() host.System { return p.host }

// Username returns the name of the non-root user created in the image.
func (p *Properties) Username() string { return p.username }

// SetUsername changes the name of the user created in the image.
func (p *Properties) SetUsername(username string) error {
	if len(username) > maxUsernameLength || !usernameRegex.MatchString(username) {
		return p.errorf("Invalid username: %q.", username)
	}
	p.username = username
	return nil
}

// UserHome returns the home directory of the user in the image.
func (p *Properties) UserHome() string { return p.userHome }

// SetUserHome sets the home directory for the user in the container.
//
// Keeping the home directory identical in the host and the container helps
// when tools write container paths into files later read from the host.
func (p *Properties) SetUserHome(userHome string) error {
	if !path.IsAbs(userHome) || path.Clean(userHome) != userHome || strings.ContainsAny(userHome, " \t\n\"'\\$`") {
		return p.errorf("Invalid user home directory: %q (it must be a clean absolute path).", userHome)
	}
	p.userHome = userHome
	return nil
}

// Distro returns the base distribution of the image.
func (p *Properties) Distro() string { return p.distro }

// SetDistro changes the base distribution. Only the values in Distros are
// accepted.
func (p *Properties) SetDistro(distro string) error {
	for _, d := range Distros {
		if d == distro {
			p.distro = distro
			return nil
		}
	}
	return p.errorf("Invalid distribution: %q.", distro)
}

// Packages returns the packages to install, in insertion order.
func (p *Properties) Packages() []string {
	return append([]string(nil), p.packages...)
}

// AddPackages appends packages to the list of packages to install. Either
// all the names are added or, if one is invalid, none is.
func (p *Properties) AddPackages(names ...string) error {
	for _, name := range names {
		if !packageRegex.MatchString(name) {
			return p.errorf("Invalid package name: %q.", name)
		}
	}
	p.packages = append(p.packages, names...)
	return nil
}

// AdditionalArchs returns the extra architectures enabled in the image.
func (p *Properties) AdditionalArchs() []string {
	return append([]string(nil), p.additionalArchs...)
}

// AddArchitectures enables extra dpkg architectures (like "i386" or
// "armhf") so packages for them can be installed.
func (p *Properties) AddArchitectures(archs ...string) error {
	for _, arch := range archs {
		if !archRegex.MatchString(arch) {
			return p.errorf("Invalid architecture: %q.", arch)
		}
	}
	p.additionalArchs = append(p.additionalArchs, archs...)
	return nil
}

// Maintainer returns the image maintainer and whether one was set.
func (p *Properties) Maintainer() (string, bool) {
	if p.maintainer == nil {
		return "", false
	}
	return *p.maintainer, true
}

// SetMaintainer sets the image maintainer.
func (p *Properties) SetMaintainer(maintainer string) error {
	if strings.ContainsAny(maintainer, "\n\r") {
		return p.errorf("Invalid maintainer: %q (it must fit on one line).", maintainer)
	}
	p.maintainer = &maintainer
	return nil
}

func (p *Properties) errorf(format string, args ...interface{}) error {
	return errors.NewDefinitionError(p.definitionPath, fmt.Sprintf(format, args...), nil)
}
