package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadataFromLegacy_CurrentShape(t *testing.T) {
	proto, err := DerivePrototype("prototype", Instance{"B": 88})
	require.NoError(t, err)

	stored := Metadata{
		User:           map[string]any{"team": "pricing"},
		RequiredPkgs:   []string{"scikit-learn"},
		Prototype:      proto,
		RuntimeVersion: []int{1, 24, 0},
	}.StoredMap()

	meta, err := MetadataFromLegacy(stored)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"team": "pricing"}, meta.User)
	assert.Equal(t, []string{"scikit-learn"}, meta.RequiredPkgs)
	assert.Equal(t, proto, meta.Prototype)
	assert.Equal(t, []int{1, 24, 0}, meta.RuntimeVersion)
}

func TestMetadataFromLegacy_UntypedMapping(t *testing.T) {
	meta, err := MetadataFromLegacy(map[string]any{"owner": "ops", "notes": "legacy pin"})
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"owner": "ops", "notes": "legacy pin"}, meta.User)
	assert.Empty(t, meta.RequiredPkgs)
	assert.Nil(t, meta.Prototype)
}

func TestMetadataFromLegacy_PtypeRename(t *testing.T) {
	proto, err := DerivePrototype("prototype", Instance{"B": 88})
	require.NoError(t, err)

	stored := map[string]any{
		"user": map[string]any{},
		metaKey: map[string]any{
			"required_pkgs": []any{"scikit-learn"},
			"ptype":         descriptorToMap(proto.Descriptor()),
		},
	}

	meta, err := MetadataFromLegacy(stored)
	require.NoError(t, err)
	assert.Equal(t, proto, meta.Prototype)
}

func TestMetadataFromLegacy_Idempotent(t *testing.T) {
	shapes := []map[string]any{
		{"owner": "ops"},
		{
			"user": map[string]any{"a": "b"},
			metaKey: map[string]any{
				"required_pkgs":   []any{"scikit-learn"},
				"prototype":       nil,
				"runtime_version": []any{float64(1), float64(24)},
			},
		},
	}

	for _, raw := range shapes {
		once, err := MetadataFromLegacy(raw)
		require.NoError(t, err)
		twice, err := MetadataFromLegacy(once.StoredMap())
		require.NoError(t, err)

		assert.Equal(t, once.User, twice.User)
		assert.Equal(t, once.Prototype, twice.Prototype)
		assert.Equal(t, once.RuntimeVersion, twice.RuntimeVersion)
		assert.ElementsMatch(t, once.RequiredPkgs, twice.RequiredPkgs)
	}
}

func TestMetadataFromLegacy_PreservesUnknownTopLevelKeys(t *testing.T) {
	stored := map[string]any{
		"user":    map[string]any{"a": "b"},
		metaKey:   map[string]any{"required_pkgs": []any{}},
		"orphan":  "kept",
		"orphan2": float64(7),
	}

	meta, err := MetadataFromLegacy(stored)
	require.NoError(t, err)
	assert.Equal(t, "kept", meta.User["orphan"])
	assert.Equal(t, float64(7), meta.User["orphan2"])
	assert.Equal(t, "b", meta.User["a"])
}

func TestMetadataFromLegacy_NonMappingUserValue(t *testing.T) {
	stored := map[string]any{
		"user":   "alice",
		metaKey:  map[string]any{"required_pkgs": []any{}},
		"orphan": "kept",
	}

	meta, err := MetadataFromLegacy(stored)
	require.NoError(t, err)
	assert.Equal(t, "alice", meta.User["user"])
	assert.Equal(t, "kept", meta.User["orphan"])
}

func TestMetadataFromLegacy_Uninterpretable(t *testing.T) {
	_, err := MetadataFromLegacy(map[string]any{metaKey: "not a mapping"})
	assert.ErrorIs(t, err, ErrMigration)

	_, err = MetadataFromLegacy(map[string]any{
		metaKey: map[string]any{"required_pkgs": "not a list"},
	})
	assert.ErrorIs(t, err, ErrMigration)
}

func TestMergeRequiredPackages(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"},
		MergeRequiredPackages([]string{"a", "b"}, []string{"b", "c"}))

	assert.Equal(t, []string{"x"}, MergeRequiredPackages(nil, []string{"x", "x", ""}))
	assert.Empty(t, MergeRequiredPackages(nil, nil))
}

func TestBoardPackages(t *testing.T) {
	assert.Empty(t, BoardPackages("file"))
	assert.Equal(t, BoardPackages("s3"), BoardPackages("s3a"))
	assert.Equal(t, BoardPackages("gcs"), BoardPackages("gs"))
	assert.Equal(t, []string{"go.etcd.io/bbolt"}, BoardPackages("bolt"))
	assert.Equal(t, []string{"github.com/jackc/pgx/v5"}, BoardPackages("postgres"))

	// Unknown protocols warn and leave package resolution to the caller.
	assert.Empty(t, BoardPackages("carrier-pigeon"))
}

func TestParseRuntimeVersion(t *testing.T) {
	assert.Equal(t, []int{1, 24, 9}, parseRuntimeVersion("go1.24.9"))
	assert.Equal(t, []int{1, 24}, parseRuntimeVersion("go1.24"))
	assert.Nil(t, parseRuntimeVersion("devel +abc123"))
}

func TestRuntimeVersionRecorded(t *testing.T) {
	v := RuntimeVersion()
	if v != nil {
		require.GreaterOrEqual(t, len(v), 2)
		assert.Equal(t, 1, v[0])
	}
}
