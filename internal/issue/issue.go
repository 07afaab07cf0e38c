// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/glamour"
)

const (
	ToolNotFoundId Id = iota + 1
	RootNotFoundId
	ConfigLoadFailedId
	PermissionDeniedId
)

type (
	Id int

	MarkdownMsg string

	HttpLink string

	// Issue is a Markdown guidance page for a class of failure.
	Issue struct {
		id       Id
		mdMsg    MarkdownMsg
		docLinks []HttpLink
		extLinks []HttpLink
	}
)

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

// Render renders the page with glamour using the given style ("dark",
// "light", "notty", "auto" or a style file path).
func (i *Issue) Render(stylePath string) (string, error) {
	return render(i.Markdown(), stylePath)
}

// Markdown returns the page source including a trailing link section.
func (i *Issue) Markdown() string {
	var sb strings.Builder
	sb.WriteString(string(i.mdMsg))
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		sb.WriteString("\n\n## See also\n")
		for _, link := range slices.Concat(i.docLinks, i.extLinks) {
			sb.WriteString("- <" + string(link) + ">\n")
		}
	}
	return sb.String()
}

var (
	render = glamour.Render

	toolNotFoundIssue = &Issue{
		id: ToolNotFoundId,
		mdMsg: `
# MoonBit toolchain not found!

moon-dst drives the ` + "`moon`" + ` CLI and could not run ` + "`moon version`" + `.

## Lookup order
1. ` + "`moon_bin`" + ` from the config file or ` + "`MOONDST_MOON_BIN`" + `
2. ` + "`moon`" + ` on your PATH
3. ` + "`~/.moon/bin/moon`" + `

## Things you can try:
- Install MoonBit:
~~~
$ curl -fsSL https://cli.moonbitlang.com/install/unix.sh | bash
~~~
- Add ` + "`~/.moon/bin`" + ` to your PATH and open a new shell
- Point moon-dst at a specific binary:
~~~
$ MOONDST_MOON_BIN=/opt/moon/bin/moon moon-dst scan
~~~`,
		extLinks: []HttpLink{"https://www.moonbitlang.com/download"},
	}

	rootNotFoundIssue = &Issue{
		id: RootNotFoundId,
		mdMsg: `
# Root directory not usable!

The directory given with ` + "`--root`" + ` does not exist or is not a directory.

## Things you can try:
- Check the path for typos
- Run from inside the workspace and omit ` + "`--root`" + ` to scan the current directory`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

The configuration file could not be parsed or does not match the schema.

## Things you can try:
- Check the CUE syntax of the file
- Compare with the output of:
~~~
$ moon-dst config show
~~~
- Unset ` + "`MOONDST_*`" + ` environment variables to rule out overrides`,
	}

	permissionDeniedIssue = &Issue{
		id: PermissionDeniedId,
		mdMsg: `
# Permission denied!

A directory could not be read during discovery, or a justfile could not be written.

## Things you can try:
- Check the permissions of the reported path
- Add the directory name to ` + "`--ignore`" + ` if it should not be scanned`,
	}

	issues = map[Id]*Issue{
		toolNotFoundIssue.Id():     toolNotFoundIssue,
		rootNotFoundIssue.Id():     rootNotFoundIssue,
		configLoadFailedIssue.Id(): configLoadFailedIssue,
		permissionDeniedIssue.Id(): permissionDeniedIssue,
	}
)

// Values returns every issue ordered by Id.
func Values() []*Issue {
	return slices.SortedFunc(maps.Values(issues), func(a, b *Issue) int {
		return int(a.id) - int(b.id)
	})
}

func Get(id Id) *Issue {
	return issues[id]
}
