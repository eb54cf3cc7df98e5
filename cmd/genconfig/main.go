// Package main implements the genconfig tool that writes config.default.toml
// from config.ExampleConfig().
//
// It is invoked by go generate via the directive in internal/config/config.go.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"tools.zach/dev/lottery/internal/atomicfile"
	"tools.zach/dev/lottery/internal/config"
)

// header opens the generated file.
var header = []string{
	"# ///////////////////////////////////////////////",
	"# Lottery Configuration",
	"# ///////////////////////////////////////////////",
	"",
}

func main() {
	// go generate runs from internal/config/, so ../../ is the repo root where
	// configdata.go embeds the file.
	outPath := flag.String("out", "../../config.default.toml", "output path")
	flag.Parse()

	result, err := render(config.ExampleConfig(), config.ConfigDocs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "render: %v\n", err)
		os.Exit(1)
	}
	if err := atomicfile.Write(*outPath, []byte(result), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "write %s: %v\n", *outPath, err)
		os.Exit(1)
	}
	fmt.Printf("wrote %s\n", *outPath)
}

// ///////////////////////////////////////////////
// Rendering
// ///////////////////////////////////////////////

// render encodes cfg as TOML, strips the encoder's indentation and annotates
// every field and section with its entry from docs. Documented fields the
// encoder omitted are written as comments so every option appears in the
// output.
func render(cfg *config.Config, docs map[string]config.FieldDoc) (string, error) {
	var raw bytes.Buffer
	if err := toml.NewEncoder(&raw).Encode(cfg); err != nil {
		return "", fmt.Errorf("marshal: %w", err)
	}

	r := &renderer{docs: docs, emitted: map[string]bool{}}
	r.out = append(r.out, header...)

	for line := range strings.Lines(raw.String()) {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			// spacing is managed here, not by the encoder
		case strings.HasPrefix(trimmed, "[") && !strings.HasPrefix(trimmed, "[["):
			r.section(trimmed)
		case !strings.Contains(trimmed, "=") || strings.HasPrefix(trimmed, "#"):
			r.out = append(r.out, trimmed)
		default:
			r.field(trimmed)
		}
	}
	r.flushOmitted()

	return strings.TrimRight(strings.Join(r.out, "\n"), "\n") + "\n", nil
}

type renderer struct {
	docs    map[string]config.FieldDoc
	out     []string
	stack   []string
	emitted map[string]bool
}

func (r *renderer) comment(text string) {
	if text == "" {
		return
	}
	for _, cl := range strings.Split(text, "\n") {
		r.out = append(r.out, "# "+cl)
	}
}

func (r *renderer) section(line string) {
	r.flushOmitted()

	name := strings.Trim(line, "[] ")
	r.stack = parseSectionPath(name)

	r.out = append(r.out, "", fmt.Sprintf("# ///// %s /////", sectionName(name)), "")
	if doc, ok := r.docs[name]; ok {
		r.comment(doc.Comment)
	}
	r.out = append(r.out, line)
}

func (r *renderer) field(line string) {
	key := strings.TrimSpace(strings.SplitN(line, "=", 2)[0])
	path := key
	if len(r.stack) > 0 {
		path = strings.Join(r.stack, ".") + "." + key
	}
	r.emitted[path] = true

	doc, ok := r.docs[path]
	if !ok {
		r.out = append(r.out, line)
		return
	}
	r.comment(doc.Comment)
	r.out = append(r.out, line)
	for _, alt := range doc.Alternatives {
		r.out = append(r.out, "# "+alt)
	}
}

// flushOmitted appends commented-out entries for documented keys of the
// current section that the encoder skipped, typically omitempty fields
// holding their zero value. Keys are sorted for deterministic output.
func (r *renderer) flushOmitted() {
	if len(r.stack) == 0 {
		return
	}
	prefix := strings.Join(r.stack, ".") + "."

	var omitted []string
	for path := range r.docs {
		rest, ok := strings.CutPrefix(path, prefix)
		if !ok || strings.Contains(rest, ".") || r.emitted[path] {
			continue
		}
		omitted = append(omitted, path)
	}
	sort.Strings(omitted)

	for _, path := range omitted {
		doc := r.docs[path]
		r.out = append(r.out, "")
		r.comment(doc.Comment)
		for _, alt := range doc.Alternatives {
			r.out = append(r.out, "# "+alt)
		}
		r.emitted[path] = true
	}
}

// parseSectionPath splits a dotted TOML section header (e.g. "log.file")
// into its path segments.
func parseSectionPath(section string) []string {
	return strings.Split(section, ".")
}

// sectionName returns the last dotted segment of a section header with its
// first letter capitalized. For example, "log.file" yields "File".
func sectionName(section string) string {
	parts := strings.Split(section, ".")
	last := parts[len(parts)-1]
	if len(last) == 0 {
		return ""
	}
	return strings.ToUpper(last[:1]) + last[1:]
}
