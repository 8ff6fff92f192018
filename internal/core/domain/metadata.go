package domain

import (
	"encoding/json"
	"fmt"
	"runtime"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
)

// metaKey is the wrapper key holding the typed portion of pin metadata. The
// user mapping lives beside it; everything else found at the top level of a
// stored blob is treated as user data.
const metaKey = "model_meta"

// Legacy pins used "ptype" for the prototype descriptor.
const legacyPrototypeKey = "ptype"

// Metadata is the provenance record written next to a serialized model and
// reconstructed on read. Version and URL are assigned by the board, never by
// the record itself.
type Metadata struct {
	User           map[string]any
	RequiredPkgs   []string
	Prototype      *Prototype
	Version        string
	URL            string
	RuntimeVersion []int
}

// MetadataFromLegacy upgrades a stored metadata mapping into the current
// record shape. It accepts, in fixed priority order:
//
//  1. the current shape: {"user": {...}, "model_meta": {...}}
//  2. the same wrapper carrying the old "ptype" field name for the prototype
//  3. an untyped mapping, whose keys become user data
//
// The conversion is idempotent and never drops unknown top-level keys; they
// are folded into User. Only a mapping that cannot be interpreted at all
// yields ErrMigration.
func MetadataFromLegacy(raw map[string]any) (Metadata, error) {
	meta := Metadata{User: map[string]any{}}
	if raw == nil {
		return meta, nil
	}

	wrapper, hasWrapper := raw[metaKey].(map[string]any)
	if !hasWrapper {
		if _, present := raw[metaKey]; present {
			return Metadata{}, fmt.Errorf("%w: %q is not a mapping", ErrMigration, metaKey)
		}
		// Untyped legacy mapping: everything is user data.
		for k, v := range raw {
			meta.User[k] = v
		}
		return meta, nil
	}

	if userRaw, present := raw["user"]; present {
		if user, ok := userRaw.(map[string]any); ok {
			for k, v := range user {
				meta.User[k] = v
			}
		} else {
			// A non-mapping user value is still user data; keep it under its
			// own key rather than dropping it.
			meta.User["user"] = userRaw
		}
	}
	// Unknown top-level keys are preserved rather than discarded.
	for k, v := range raw {
		if k == "user" || k == metaKey {
			continue
		}
		meta.User[k] = v
	}

	pkgs, err := stringSlice(wrapper["required_pkgs"])
	if err != nil {
		return Metadata{}, fmt.Errorf("%w: required_pkgs: %v", ErrMigration, err)
	}
	meta.RequiredPkgs = pkgs

	protoRaw, ok := wrapper["prototype"]
	if !ok {
		protoRaw = wrapper[legacyPrototypeKey]
	}
	proto, err := decodePrototype(protoRaw)
	if err != nil {
		return Metadata{}, fmt.Errorf("%w: prototype: %v", ErrMigration, err)
	}
	meta.Prototype = proto

	if rv, ok := wrapper["runtime_version"]; ok && rv != nil {
		versions, err := intSlice(rv)
		if err != nil {
			return Metadata{}, fmt.Errorf("%w: runtime_version: %v", ErrMigration, err)
		}
		meta.RuntimeVersion = versions
	}

	return meta, nil
}

// StoredMap projects the record into the mapping persisted alongside the
// model blob. MetadataFromLegacy(StoredMap(m)) reproduces m (minus Version
// and URL, which only the board assigns).
func (m Metadata) StoredMap() map[string]any {
	user := m.User
	if user == nil {
		user = map[string]any{}
	}
	var proto any
	if m.Prototype != nil {
		proto = descriptorToMap(m.Prototype.Descriptor())
	}
	var rv any
	if m.RuntimeVersion != nil {
		vs := make([]any, len(m.RuntimeVersion))
		for i, v := range m.RuntimeVersion {
			vs[i] = float64(v)
		}
		rv = vs
	}
	pkgs := m.RequiredPkgs
	if pkgs == nil {
		pkgs = []string{}
	}
	return map[string]any{
		"user": user,
		metaKey: map[string]any{
			"required_pkgs":   pkgs,
			"prototype":       proto,
			"runtime_version": rv,
		},
	}
}

// MergeRequiredPackages concatenates board-inferred identifiers with the
// declared ones, deduplicating while preserving first-seen order.
func MergeRequiredPackages(backend, declared []string) []string {
	merged := make([]string, 0, len(backend)+len(declared))
	seen := make(map[string]bool, len(backend)+len(declared))
	for _, pkg := range append(append([]string{}, backend...), declared...) {
		if pkg == "" || seen[pkg] {
			continue
		}
		seen[pkg] = true
		merged = append(merged, pkg)
	}
	return merged
}

// boardPackages maps a board access-protocol tag to the dependency
// identifiers a reader needs to reach that board. Multi-tag protocols get one
// entry per accepted tag.
var boardPackages = map[string][]string{
	"file":     {},
	"s3":       {"github.com/aws/aws-sdk-go-v2"},
	"s3a":      {"github.com/aws/aws-sdk-go-v2"},
	"gcs":      {"cloud.google.com/go/storage"},
	"gs":       {"cloud.google.com/go/storage"},
	"abfs":     {"github.com/Azure/azure-sdk-for-go"},
	"postgres": {"github.com/jackc/pgx/v5"},
	"bolt":     {"go.etcd.io/bbolt"},
}

// BoardPackages infers the dependency identifiers implied by a board's
// access-protocol tag. Unrecognized tags yield no identifiers and a non-fatal
// warning; callers must then declare the packages themselves.
func BoardPackages(protocol string) []string {
	pkgs, ok := boardPackages[protocol]
	if !ok {
		log.WithField("protocol", protocol).Warn(
			"required packages unknown for board protocol; declare them in the model metadata to ensure they are exported")
		return nil
	}
	out := make([]string, len(pkgs))
	copy(out, pkgs)
	return out
}

// RuntimeVersion reports the executing Go runtime version as an integer
// tuple, e.g. go1.24.9 -> [1 24 9]. Development toolchains without a release
// version report nil.
func RuntimeVersion() []int {
	return parseRuntimeVersion(runtime.Version())
}

func parseRuntimeVersion(v string) []int {
	v = strings.TrimPrefix(v, "go")
	parts := strings.Split(v, ".")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil
		}
		out = append(out, n)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func stringSlice(v any) ([]string, error) {
	if v == nil {
		return nil, nil
	}
	switch xs := v.(type) {
	case []string:
		out := make([]string, len(xs))
		copy(out, xs)
		return out, nil
	case []any:
		out := make([]string, 0, len(xs))
		for _, x := range xs {
			s, ok := x.(string)
			if !ok {
				return nil, fmt.Errorf("expected string, got %T", x)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected list, got %T", v)
	}
}

func intSlice(v any) ([]int, error) {
	xs, ok := v.([]any)
	if !ok {
		if ns, ok := v.([]int); ok {
			out := make([]int, len(ns))
			copy(out, ns)
			return out, nil
		}
		return nil, fmt.Errorf("expected list, got %T", v)
	}
	out := make([]int, 0, len(xs))
	for _, x := range xs {
		n, ok := asNumber(x)
		if !ok {
			return nil, fmt.Errorf("expected number, got %T", x)
		}
		out = append(out, int(n))
	}
	return out, nil
}

func decodePrototype(v any) (*Prototype, error) {
	if v == nil {
		return nil, nil
	}
	var raw []byte
	switch x := v.(type) {
	case string:
		if x == "" {
			return nil, nil
		}
		raw = []byte(x)
	case map[string]any:
		b, err := json.Marshal(x)
		if err != nil {
			return nil, err
		}
		raw = b
	default:
		return nil, fmt.Errorf("expected descriptor mapping, got %T", v)
	}
	var d Descriptor
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, err
	}
	return PrototypeFromDescriptor(&d)
}

func descriptorToMap(d *Descriptor) map[string]any {
	b, _ := json.Marshal(d)
	var m map[string]any
	_ = json.Unmarshal(b, &m)
	return m
}
