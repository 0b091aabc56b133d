// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/slices"
)

type Id int

const (
	ConfigLoadFailedId Id = iota + 1
	ManifestNotFoundId
	ProviderFailedId
	OutputWriteFailedId
	PackageNotFoundId
	InvalidSelectionId
)

type MarkdownMsg string

type HttpLink string

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink  // project documentation for this issue
	extLinks []HttpLink  // external links that might be useful for the user
}

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

// Render renders the issue page with glamour using the given style ("dark", "light", "notty", ...).
func (i *Issue) Render(stylePath string) (string, error) {
	extraMd := ""
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		extraMd += "\n\n## See also\n"
		for _, link := range i.docLinks {
			extraMd += "\n- <" + string(link) + ">"
		}
		for _, link := range i.extLinks {
			extraMd += "\n- <" + string(link) + ">"
		}
	}
	return render(string(i.mdMsg)+extraMd, stylePath)
}

var (
	render = glamour.Render

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

A configuration file could not be read or did not match the schema.

## Files read (later files win):
1. config.cue in the user configuration directory
2. usage-rules.cue in the project directory
3. USAGE_RULES_* environment variables

A file passed with --config replaces both files.

## Things you can try:
- Print the files that apply and the effective values:
~~~
$ usage-rules config path
$ usage-rules config show
~~~

- Regenerate a valid project file:
~~~
$ usage-rules config init
~~~`,
		extLinks: []HttpLink{"https://cuelang.org/docs/"},
	}

	manifestNotFoundIssue = &Issue{
		id: ManifestNotFoundId,
		mdMsg: `
# No dependency manifest found!

The project directory contains none of the files used to resolve dependencies.

## Supported manifests (in order of precedence):
1. usage-rules.packages.toml (explicit package list)
2. go.mod
3. Cargo.toml

## Things you can try:
- Point usage-rules at the project root:
~~~
$ usage-rules sync -C /path/to/project
~~~

- List packages explicitly in usage-rules.packages.toml:
~~~toml
[[package]]
name = "acme/widgets"
version = "1.2.0"
path = "../widgets"
~~~`,
	}

	providerFailedIssue = &Issue{
		id: ProviderFailedId,
		mdMsg: `
# Failed to resolve dependencies!

The build tool reported an error while listing the dependency graph. Nothing was written.

## Things you can try:
- Run the build tool yourself to see the full error:
~~~
$ go list -m -json all
$ cargo metadata --format-version 1
~~~

- Allow missing packages to be downloaded:
~~~
$ usage-rules sync --fetch
~~~`,
	}

	outputWriteFailedIssue = &Issue{
		id: OutputWriteFailedId,
		mdMsg: `
# Failed to write output!

One of the output files could not be written. Files listed as written before the failure are complete.

## Things you can try:
- Check that the output directory exists and is writable
- Check free disk space
- Re-run the command; unchanged files are skipped`,
	}

	packageNotFoundIssue = &Issue{
		id: PackageNotFoundId,
		mdMsg: `
# Package not found!

The requested package is not part of the resolved dependency set.

## Things you can try:
- List the packages usage-rules can see:
~~~
$ usage-rules list
~~~

- Include indirect dependencies by turning off provider.direct_only`,
	}

	invalidSelectionIssue = &Issue{
		id: InvalidSelectionId,
		mdMsg: `
# Invalid selection!

The requested combination of options cannot be rendered.

## Things you can try:
- Use --link-style only together with --folder
- Pass one of the supported link styles: markdown, at
- Keep --folder outside the index file path`,
	}

	issues = map[Id]*Issue{
		configLoadFailedIssue.Id():  configLoadFailedIssue,
		manifestNotFoundIssue.Id():  manifestNotFoundIssue,
		providerFailedIssue.Id():    providerFailedIssue,
		outputWriteFailedIssue.Id(): outputWriteFailedIssue,
		packageNotFoundIssue.Id():   packageNotFoundIssue,
		invalidSelectionIssue.Id():  invalidSelectionIssue,
	}
)

// Values returns every issue ordered by id.
func Values() []*Issue {
	values := make([]*Issue, 0, len(issues))
	for _, i := range issues {
		values = append(values, i)
	}
	slices.SortFunc(values, func(a, b *Issue) int { return int(a.id) - int(b.id) })
	return values
}

func Get(id Id) *Issue {
	return issues[id]
}
