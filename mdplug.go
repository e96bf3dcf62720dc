// Package mdplug provides a declarative, line-oriented text transformation engine
// for markdown editors.
//
// Behavior is data-driven: a Manager holds ordered Plugins, each Plugin holds
// ordered LineFunctions, and each LineFunction optionally matches a line against
// a regular expression and then applies positional edits to it.
//
// # Basic Usage
//
//	heading := mdplug.MustNewLineFunction("heading", mdplug.Pattern(`^(#).+`), []mdplug.Effect{
//	    {Argument: mdplug.Replace(mdplug.LineStart(), mdplug.Index(0)), Text: "<h1>"},
//	    {Argument: mdplug.Insert(mdplug.Eol()), Text: "</h1>"},
//	})
//
//	manager := mdplug.MustNew(mdplug.WithPlugins(&mdplug.Plugin{
//	    Name:          "core",
//	    LineFunctions: []*mdplug.LineFunction{heading},
//	}))
//
//	result := manager.Transform("#Title\nbody")
//	// result.Output: "<h1>Title</h1>\nbody"
//
// # Positions
//
// A Position is one of:
//
//	LineStart()  offset 0
//	Eol()        offset len(line)
//	Index(n)     match start + n (requires a pattern)
//
// Offsets are byte offsets and must fall on a UTF-8 character boundary.
//
// # Effects
//
// Each Effect pairs a PositionArgument with a literal text:
//
//	Insert(p)      insert text at p
//	Replace(a, b)  replace the inclusive span [a, b] with text
//	Log(msg)       emit msg at info level on the effect logger
//	DebugLog(msg)  emit msg at debug level on the effect logger
//
// # Errors
//
// Construction fails fast (IndexGivenWithoutPattern, InvalidRegex). Execution
// never does: every effect, function, plugin and line is attempted, and all
// failures are returned together as an ErrorList next to the best-effort output.
//
// # Definitions
//
// Plugins can be decoded from YAML, JSON or TOML:
//
//	name: core
//	line_functions:
//	  - name: heading
//	    pattern: "^(#).+"
//	    effects:
//	      - replace: [line_start, 0]
//	        text: "<h1>"
//	      - insert: eol
//	        text: "</h1>"
//
// Decoded line functions compile their pattern lazily on first use.
package mdplug

// Version is the library version.
const Version = "0.4.0"
