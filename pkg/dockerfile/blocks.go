package dockerfile

import (
	"text/template"
)

// view is the data the Dockerfile blocks are rendered from.
type view struct {
	Distro        string
	Maintainer    string
	HasMaintainer bool
	ArchCommands  []string
	Packages      []string
	PackageList   string
	Username      string
	UserHome      string
	Copies        []CopyFile
}

// block is a piece of the Dockerfile, emitted only when its condition holds.
type block struct {
	name string
	when func(v *view) bool
	tmpl *template.Template
}

func always(*view) bool { return true }

func newBlock(name string, when func(v *view) bool, text string) block {
	return block{
		name: name,
		when: when,
		tmpl: template.Must(template.New(name).Option("missingkey=error").Parse(dedent(text))),
	}
}

// blocks are emitted in this order, separated by a blank line.
var blocks = []block{
	newBlock("header", always, `
		# Generated by Karton.
		`),

	newBlock("from", always, `
		FROM {{.Distro}}
		`),

	newBlock("maintainer", func(v *view) bool { return v.HasMaintainer }, `
		MAINTAINER {{.Maintainer}}
		`),

	newBlock("archs", func(v *view) bool { return len(v.ArchCommands) > 0 }, `
		RUN \
		{{- range .ArchCommands}}
		    {{.}}
		{{- end}}
		`),

	newBlock("bootstrap", always, `
		RUN \
		    export DEBIAN_FRONTEND=noninteractive && \
		    apt-get update -qqy && \
		    apt-get install -qqy -o=Dpkg::Use-Pty=0 \
		        --no-install-recommends \
		        apt-utils \
		        && \
		    apt-get install -qqy -o=Dpkg::Use-Pty=0 \
		        locales
		`),

	newBlock("packages", func(v *view) bool { return len(v.Packages) > 0 }, `
		RUN \
		    export DEBIAN_FRONTEND=noninteractive && \
		    sed -e 's|^# en_GB.UTF-8|en_GB.UTF-8|g' -i /etc/locale.gen && \
		    locale-gen && \
		    TERM=xterm apt-get install -qqy -o=Dpkg::Use-Pty=0 \
		        {{.PackageList}}
		`),

	newBlock("clean", always, `
		RUN \
		    apt-get clean -qq
		`),

	newBlock("user", always, `
		RUN \
		    mkdir -p $(dirname {{.UserHome}}) && \
		    useradd -m -s /bin/bash --home-dir {{.UserHome}} {{.Username}} && \
		    chown {{.Username}} {{.UserHome}}
		ENV USER={{.Username}}
		USER {{.Username}}
		`),

	newBlock("copies", func(v *view) bool { return len(v.Copies) > 0 }, `
		{{- range .Copies}}
		COPY {{.Source}} {{.Target}}
		{{- end}}
		`),
}
