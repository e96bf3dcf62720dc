package mdplug

import (
	"bytes"
	"encoding/json"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Format is a plugin definition encoding.
type Format string

// Supported definition formats
const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatTOML Format = "toml"
)

// File extensions mapped to formats by FormatFromPath
const (
	ExtYAML    = ".yaml"
	ExtYAMLAlt = ".yml"
	ExtJSON    = ".json"
	ExtTOML    = ".toml"
)

// FormatFromPath infers the definition format from a file extension.
func FormatFromPath(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ExtYAML, ExtYAMLAlt:
		return FormatYAML, true
	case ExtJSON:
		return FormatJSON, true
	case ExtTOML:
		return FormatTOML, true
	default:
		return "", false
	}
}

// ParseFormat validates a format name.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(name)); f {
	case FormatYAML, FormatJSON, FormatTOML:
		return f, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", &DefinitionError{Message: ErrMsgUnknownFormat + ": " + name}
	}
}

// pluginDoc is the encoded shape of a Plugin.
type pluginDoc struct {
	Name           string            `yaml:"name" json:"name" toml:"name"`
	FailOneFailAll bool              `yaml:"fail_one_fail_all,omitempty" json:"fail_one_fail_all,omitempty" toml:"fail_one_fail_all,omitempty"`
	LineFunctions  []lineFunctionDoc `yaml:"line_functions" json:"line_functions" toml:"line_functions"`
}

// lineFunctionDoc is the encoded shape of a LineFunction. The matcher slot has
// no counterpart.
type lineFunctionDoc struct {
	Name    string      `yaml:"name" json:"name" toml:"name"`
	Pattern *string     `yaml:"pattern,omitempty" json:"pattern,omitempty" toml:"pattern,omitempty"`
	Effects []effectDoc `yaml:"effects" json:"effects" toml:"effects"`
}

// effectDoc is the encoded shape of an Effect: exactly one argument key plus
// the text. Positions are either a keyword or an integer offset.
type effectDoc struct {
	Insert   any     `yaml:"insert,omitempty" json:"insert,omitempty" toml:"insert,omitempty"`
	Replace  []any   `yaml:"replace,omitempty" json:"replace,omitempty" toml:"replace,omitempty"`
	Log      *string `yaml:"log,omitempty" json:"log,omitempty" toml:"log,omitempty"`
	DebugLog *string `yaml:"debug_log,omitempty" json:"debug_log,omitempty" toml:"debug_log,omitempty"`
	Text     string  `yaml:"text" json:"text" toml:"text"`
}

// DecodePlugin decodes one plugin definition. Patterns are not compiled and
// nothing is validated beyond the document shape; the returned functions
// compile on first use, or earlier when loaded into a Manager.
func DecodePlugin(data []byte, format Format) (*Plugin, error) {
	if len(data) > MaxDefinitionSize {
		return nil, &DefinitionError{Message: ErrMsgDefinitionTooLarge}
	}

	var doc pluginDoc
	var err error
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		err = dec.Decode(&doc)
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		dec.UseNumber()
		err = dec.Decode(&doc)
	case FormatTOML:
		var meta toml.MetaData
		meta, err = toml.Decode(string(data), &doc)
		if err == nil {
			if undecoded := meta.Undecoded(); len(undecoded) > 0 {
				err = &unknownKeyError{key: undecoded[0].String()}
			}
		}
	default:
		return nil, &DefinitionError{Message: ErrMsgUnknownFormat + ": " + string(format)}
	}
	if err != nil {
		return nil, &DefinitionError{Message: ErrMsgDecodeFailed, Cause: err}
	}

	return doc.plugin()
}

// EncodePlugin encodes p in the given format. Compiled matchers are never
// part of the output.
func EncodePlugin(p *Plugin, format Format) ([]byte, error) {
	if p == nil {
		return nil, NewNilPluginError()
	}
	doc := newPluginDoc(p)

	switch format {
	case FormatYAML:
		return yaml.Marshal(doc)
	case FormatJSON:
		return json.MarshalIndent(doc, "", "  ")
	case FormatTOML:
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(doc); err != nil {
			return nil, &DefinitionError{Plugin: p.Name, Message: ErrMsgEncodeFailed, Cause: err}
		}
		return buf.Bytes(), nil
	default:
		return nil, &DefinitionError{Plugin: p.Name, Message: ErrMsgUnknownFormat + ": " + string(format)}
	}
}

func (d pluginDoc) plugin() (*Plugin, error) {
	if d.Name == "" {
		return nil, &DefinitionError{Message: ErrMsgMissingPluginName}
	}

	p := &Plugin{
		Name:           d.Name,
		FailOneFailAll: d.FailOneFailAll,
		LineFunctions:  make([]*LineFunction, 0, len(d.LineFunctions)),
	}
	for _, fd := range d.LineFunctions {
		if fd.Name == "" {
			return nil, &DefinitionError{Plugin: d.Name, Message: ErrMsgMissingFunctionName}
		}
		effects := make([]Effect, 0, len(fd.Effects))
		for i, ed := range fd.Effects {
			e, err := ed.effect()
			if err != nil {
				return nil, &DefinitionError{
					Plugin:   d.Name,
					Function: fd.Name,
					Effect:   i + 1,
					Message:  ErrMsgInvalidEffect,
					Cause:    err,
				}
			}
			effects = append(effects, e)
		}
		p.LineFunctions = append(p.LineFunctions, newLineFunction(fd.Name, fd.Pattern, effects))
	}
	return p, nil
}

func (d effectDoc) effect() (Effect, error) {
	set := 0
	if d.Insert != nil {
		set++
	}
	if d.Replace != nil {
		set++
	}
	if d.Log != nil {
		set++
	}
	if d.DebugLog != nil {
		set++
	}
	if set != 1 {
		return Effect{}, errEffectArgumentCount
	}

	switch {
	case d.Insert != nil:
		p, err := positionFromValue(d.Insert)
		if err != nil {
			return Effect{}, err
		}
		return Effect{Argument: Insert(p), Text: d.Text}, nil

	case d.Replace != nil:
		if len(d.Replace) != 2 {
			return Effect{}, errReplaceArity
		}
		start, err := positionFromValue(d.Replace[0])
		if err != nil {
			return Effect{}, err
		}
		end, err := positionFromValue(d.Replace[1])
		if err != nil {
			return Effect{}, err
		}
		return Effect{Argument: Replace(start, end), Text: d.Text}, nil

	case d.Log != nil:
		return Effect{Argument: Log(*d.Log), Text: d.Text}, nil

	default:
		return Effect{Argument: DebugLog(*d.DebugLog), Text: d.Text}, nil
	}
}

// positionFromValue accepts the keyword forms and integer offsets as produced
// by the YAML (int), JSON (json.Number) and TOML (int64) decoders.
func positionFromValue(v any) (Position, error) {
	switch x := v.(type) {
	case string:
		switch x {
		case PositionNameLineStart:
			return LineStart(), nil
		case PositionNameEol:
			return Eol(), nil
		}
		if n, err := strconv.Atoi(x); err == nil {
			return Index(n), nil
		}
	case int:
		return Index(x), nil
	case int64:
		if x >= math.MinInt && x <= math.MaxInt {
			return Index(int(x)), nil
		}
	case json.Number:
		if n, err := x.Int64(); err == nil && n >= math.MinInt && n <= math.MaxInt {
			return Index(int(n)), nil
		}
	}
	return Position{}, &positionValueError{value: v}
}

func newPluginDoc(p *Plugin) pluginDoc {
	doc := pluginDoc{
		Name:           p.Name,
		FailOneFailAll: p.FailOneFailAll,
		LineFunctions:  make([]lineFunctionDoc, 0, len(p.LineFunctions)),
	}
	for _, lf := range p.LineFunctions {
		if lf == nil {
			continue
		}
		fd := lineFunctionDoc{
			Name:    lf.name,
			Pattern: lf.pattern,
			Effects: make([]effectDoc, 0, len(lf.effects)),
		}
		for _, e := range lf.effects {
			fd.Effects = append(fd.Effects, newEffectDoc(e))
		}
		doc.LineFunctions = append(doc.LineFunctions, fd)
	}
	return doc
}

func newEffectDoc(e Effect) effectDoc {
	d := effectDoc{Text: e.Text}
	switch e.Argument.kind {
	case ArgumentInsert:
		d.Insert = positionValue(e.Argument.at)
	case ArgumentReplace:
		d.Replace = []any{positionValue(e.Argument.at), positionValue(e.Argument.end)}
	case ArgumentLog:
		msg := e.Argument.message
		d.Log = &msg
	case ArgumentDebugLog:
		msg := e.Argument.message
		d.DebugLog = &msg
	}
	return d
}

func positionValue(p Position) any {
	if p.IsIndex() {
		return p.offset
	}
	return p.kind.String()
}
