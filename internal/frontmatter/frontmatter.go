// Package frontmatter splits content files into a metadata block and a
// Markdown body. Two fence styles are recognized on the very first line:
// `+++` delimits TOML metadata, `---` delimits YAML metadata.
package frontmatter

import (
	"bytes"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Format identifies the metadata syntax of a front matter block.
type Format int

const (
	FormatNone Format = iota
	FormatTOML
	FormatYAML
)

func (f Format) String() string {
	switch f {
	case FormatTOML:
		return "toml"
	case FormatYAML:
		return "yaml"
	default:
		return "none"
	}
}

func (f Format) fence() string {
	switch f {
	case FormatTOML:
		return "+++"
	case FormatYAML:
		return "---"
	default:
		return ""
	}
}

// Split separates a leading front matter block from the document body.
//
// If the first line is not a fence, or the closing fence never appears, the
// whole input is returned as body with FormatNone. A missing closing fence is
// deliberately not an error: plain Markdown files that happen to open with
// dashes or plus signs still build. A single blank line immediately after the
// closing fence is stripped from the body.
func Split(content []byte) (meta []byte, body []byte, format Format) {
	nl := detectNewline(content)

	format = detectFormat(content, nl)
	if format == FormatNone {
		return nil, content, FormatNone
	}

	fence := format.fence()
	open := []byte(fence + nl)
	rest := content[len(open):]

	// Closing fence directly after the opening one: empty metadata.
	if bytes.HasPrefix(rest, open) {
		return []byte{}, stripLeadingBlank(rest[len(open):], nl), format
	}

	closeSeq := []byte(nl + fence + nl)
	if idx := bytes.Index(rest, closeSeq); idx >= 0 {
		meta = rest[: idx+len(nl) : idx+len(nl)]
		body = stripLeadingBlank(rest[idx+len(closeSeq):], nl)
		return meta, body, format
	}

	// Closing fence as the very last line without a trailing newline.
	if tail := []byte(nl + fence); bytes.HasSuffix(rest, tail) {
		return rest[:len(rest)-len(tail)+len(nl)], []byte{}, format
	}

	return nil, content, FormatNone
}

// Parse decodes a raw metadata block according to its fence format.
// Nested tables decode as map[string]any; TOML and YAML date values decode
// as time.Time.
func Parse(meta []byte, format Format) (map[string]any, error) {
	if format == FormatNone || len(meta) == 0 {
		return map[string]any{}, nil
	}

	var fields map[string]any
	switch format {
	case FormatTOML:
		if err := toml.Unmarshal(meta, &fields); err != nil {
			return nil, err
		}
	case FormatYAML:
		if err := yaml.Unmarshal(meta, &fields); err != nil {
			return nil, err
		}
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return fields, nil
}

// Extract splits and parses in one step, returning the metadata map and body.
func Extract(content []byte) (map[string]any, []byte, error) {
	meta, body, format := Split(content)
	fields, err := Parse(meta, format)
	if err != nil {
		return nil, nil, err
	}
	return fields, body, nil
}

func detectFormat(content []byte, nl string) Format {
	for _, f := range []Format{FormatTOML, FormatYAML} {
		fence := f.fence()
		if bytes.HasPrefix(content, []byte(fence+nl)) {
			return f
		}
	}
	return FormatNone
}

func stripLeadingBlank(body []byte, nl string) []byte {
	if bytes.HasPrefix(body, []byte(nl)) {
		return body[len(nl):]
	}
	return body
}

func detectNewline(content []byte) string {
	for i := 0; i < len(content); i++ {
		if content[i] == '\r' && i+1 < len(content) && content[i+1] == '\n' {
			return "\r\n"
		}
		if content[i] == '\n' {
			return "\n"
		}
	}
	return "\n"
}
