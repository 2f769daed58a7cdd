// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/slices"
)

// Id identifies a catalog page.
type Id int

const (
	ConfigLoadFailedId Id = iota + 1
	InvalidConfigId
	TagManagerNotFoundId
	BinaryAssetId
	InvalidSlotTableId
	NameCollisionId
	EmitFailedId
	NotifyHookFailedId
)

type (
	// MarkdownMsg is the page body.
	MarkdownMsg string

	// HttpLink is an external reference shown under "See also".
	HttpLink string

	// Issue is a troubleshooting page.
	Issue struct {
		id       Id
		mdMsg    MarkdownMsg
		extLinks []HttpLink
	}
)

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

// Markdown returns the page body followed by its links.
func (i *Issue) Markdown() string {
	var sb strings.Builder
	sb.WriteString(string(i.mdMsg))
	if len(i.extLinks) > 0 {
		sb.WriteString("\n\n## See also\n")
		for _, link := range i.extLinks {
			sb.WriteString("- <" + string(link) + ">\n")
		}
	}
	return sb.String()
}

// Render renders the page for the terminal with a glamour style such as
// "dark", "light", "notty" or a path to a JSON style file.
func (i *Issue) Render(stylePath string) (string, error) {
	return render(i.Markdown(), stylePath)
}

var (
	render = glamour.Render

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Configuration could not be loaded

layergen reads, in order: the file given with ` + "`--config`" + `,
` + "`layergen.cue`" + ` in the project directory, then ` + "`config.cue`" + ` in your user
config directory.

## Things you can try
- Print the path being used:
~~~
$ layergen config path
~~~
- Check the CUE syntax at the line and column reported above
- Regenerate a starter file:
~~~
$ layergen config init --force
~~~`,
	}

	invalidConfigIssue = &Issue{
		id: InvalidConfigId,
		mdMsg: `
# Configuration values are invalid

The file parsed, but a value would produce C# that does not compile or a
monitor that cannot run.

## Rules
- ` + "`namespace_name`" + `: identifiers separated by dots, e.g. ` + "`Game.Physics`" + `
- ` + "`enum_name`" + `: a single identifier, e.g. ` + "`Layers`" + `
- ` + "`source.kind`" + `: ` + "`unity`" + ` or ` + "`table`" + `
- ` + "`monitor.poll_interval`" + `: a positive duration, e.g. ` + "`500ms`" + `

## Fixing a single key
~~~
$ layergen config set enum_name Layers
~~~`,
	}

	tagManagerNotFoundIssue = &Issue{
		id: TagManagerNotFoundId,
		mdMsg: `
# TagManager.asset not found

layergen looks for ` + "`ProjectSettings/TagManager.asset`" + ` under the project
directory.

## Things you can try
- Run from the Unity project root, or pass it explicitly:
~~~
$ layergen -C path/to/UnityProject generate
~~~
- Point ` + "`source.path`" + ` at the file if your layout differs`,
		extLinks: []HttpLink{"https://docs.unity3d.com/Manual/class-TagManager.html"},
	}

	binaryAssetIssue = &Issue{
		id: BinaryAssetId,
		mdMsg: `
# TagManager.asset is binary serialized

Only text-serialized assets can be read.

## Fix
In Unity open **Edit > Project Settings > Editor** and set
**Asset Serialization** to **Force Text**. Unity rewrites the project
settings as YAML.`,
		extLinks: []HttpLink{"https://docs.unity3d.com/Manual/class-EditorManager.html"},
	}

	invalidSlotTableIssue = &Issue{
		id: InvalidSlotTableId,
		mdMsg: `
# Slot table is invalid

A table source maps slot indices 0 to 31 to names:

~~~toml
[layers]
0 = "Default"
4 = "Water"
~~~

Keys must be integers in that range.`,
	}

	nameCollisionIssue = &Issue{
		id: NameCollisionId,
		mdMsg: `
# Two layers map to the same identifier

Characters outside ` + "`A-Z a-z 0-9 _`" + ` become underscores, so names such as
` + "`Post Processing`" + ` and ` + "`Post-Processing`" + ` both become ` + "`Post_Processing`" + `.
The previous artifact is left untouched.

## Things you can try
- Inspect the table and the derived identifiers:
~~~
$ layergen layers
~~~
- Rename one of the colliding layers`,
	}

	emitFailedIssue = &Issue{
		id: EmitFailedId,
		mdMsg: `
# The enum file could not be written

## Things you can try
- Check that the directory of ` + "`output_path`" + ` is writable
- Make sure no file exists where a directory is expected
- Re-run with ` + "`--verbose`" + ` for the full error chain`,
	}

	notifyHookFailedIssue = &Issue{
		id: NotifyHookFailedId,
		mdMsg: `
# The notify hook failed

The enum file was written, but ` + "`notify.hook`" + ` exited with an error. The
hook runs in the project directory with the artifact path in
` + "`$LAYERGEN_OUTPUT`" + `.

## Things you can try
- Run the hook by hand with the same variable set
- Clear it to disable notification:
~~~
$ layergen config set notify.hook ""
~~~`,
	}

	issues = map[Id]*Issue{
		configLoadFailedIssue.Id():   configLoadFailedIssue,
		invalidConfigIssue.Id():      invalidConfigIssue,
		tagManagerNotFoundIssue.Id(): tagManagerNotFoundIssue,
		binaryAssetIssue.Id():        binaryAssetIssue,
		invalidSlotTableIssue.Id():   invalidSlotTableIssue,
		nameCollisionIssue.Id():      nameCollisionIssue,
		emitFailedIssue.Id():         emitFailedIssue,
		notifyHookFailedIssue.Id():   notifyHookFailedIssue,
	}
)

// Values returns every catalog page ordered by Id.
func Values() []*Issue {
	out := make([]*Issue, 0, len(issues))
	for _, is := range issues {
		out = append(out, is)
	}
	slices.SortFunc(out, func(a, b *Issue) int { return int(a.id) - int(b.id) })
	return out
}

// Get returns the page for id, or nil.
func Get(id Id) *Issue {
	return issues[id]
}
