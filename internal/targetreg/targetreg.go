// Package targetreg implements the target-triple registry backing the
// `ori target`/`ori targets` subcommands. Target-triple registry
// contents are an explicit out-of-scope external collaborator (spec
// §1); this package is the named, concrete seam that stands in for it
// -- a small YAML-backed list rather than a real cross-compilation
// toolchain index.
package targetreg

import (
	"bytes"
	"fmt"
	"os"

	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"
)

// Entry is one known target triple and whether its toolchain is marked
// installed locally.
type Entry struct {
	Triple    string `yaml:"triple"`
	Installed bool   `yaml:"installed"`
}

// Registry is the in-memory target list, persisted as YAML.
type Registry struct {
	Targets []Entry `yaml:"targets"`
}

// defaultTriples seeds a fresh registry with the handful of targets the
// build pipeline is expected to exercise (native host families plus
// WebAssembly, matching the CLI's --wasm shorthand).
var defaultTriples = []string{
	"x86_64-unknown-linux-gnu",
	"aarch64-unknown-linux-gnu",
	"x86_64-apple-darwin",
	"aarch64-apple-darwin",
	"x86_64-pc-windows-msvc",
	"wasm32-unknown-unknown",
}

// Default returns a fresh registry seeded with defaultTriples, none
// marked installed.
func Default() *Registry {
	r := &Registry{Targets: make([]Entry, len(defaultTriples))}
	for i, t := range defaultTriples {
		r.Targets[i] = Entry{Triple: t}
	}
	return r
}

// Load reads a registry from path, returning Default() if the file does
// not exist yet. Registries are normally YAML, but a path containing a
// JSON object (e.g. hand-edited or emitted by another tool) is read via
// gjson's ad hoc field extraction instead of a full struct unmarshal.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading target registry %s: %w", path, err)
	}
	if looksLikeJSON(data) {
		return loadJSON(data)
	}
	var r Registry
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parsing target registry %s: %w", path, err)
	}
	return &r, nil
}

func looksLikeJSON(data []byte) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) > 0 && trimmed[0] == '{'
}

// loadJSON reads only the "targets" array's triple/installed fields via
// gjson, without unmarshaling the whole document into a Go struct.
func loadJSON(data []byte) (*Registry, error) {
	targets := gjson.GetBytes(data, "targets")
	if !targets.Exists() {
		return &Registry{}, nil
	}
	var r Registry
	var rangeErr error
	targets.ForEach(func(_, entry gjson.Result) bool {
		triple := entry.Get("triple")
		if !triple.Exists() {
			rangeErr = fmt.Errorf("target entry missing \"triple\" field")
			return false
		}
		r.Targets = append(r.Targets, Entry{
			Triple:    triple.String(),
			Installed: entry.Get("installed").Bool(),
		})
		return true
	})
	if rangeErr != nil {
		return nil, rangeErr
	}
	return &r, nil
}

// Save writes the registry back to path as YAML.
func (r *Registry) Save(path string) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("encoding target registry: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing target registry %s: %w", path, err)
	}
	return nil
}

func (r *Registry) find(triple string) int {
	for i, e := range r.Targets {
		if e.Triple == triple {
			return i
		}
	}
	return -1
}

// Add marks triple installed, appending a new entry if it is not
// already known.
func (r *Registry) Add(triple string) {
	if i := r.find(triple); i >= 0 {
		r.Targets[i].Installed = true
		return
	}
	r.Targets = append(r.Targets, Entry{Triple: triple, Installed: true})
}

// Remove drops triple from the registry. Returns an error if triple is
// not present.
func (r *Registry) Remove(triple string) error {
	i := r.find(triple)
	if i < 0 {
		return fmt.Errorf("unknown target %q", triple)
	}
	r.Targets = append(r.Targets[:i], r.Targets[i+1:]...)
	return nil
}

// Installed returns only the entries marked installed.
func (r *Registry) Installed() []Entry {
	var out []Entry
	for _, e := range r.Targets {
		if e.Installed {
			out = append(out, e)
		}
	}
	return out
}
