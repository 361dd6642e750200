package yamltree

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/hupe1980/regio"
)

const sampleYAML = `
name: vector-service
replicas: 3
ports:
  - 8080
  - 9090
labels:
  team: storage
  tier: backend
`

func TestLoad(t *testing.T) {
	rg, err := Load([]byte(sampleYAML))
	require.NoError(t, err)
	defer rg.Close()

	root, err := RootNode(rg)
	require.NoError(t, err)
	require.Equal(t, KindMapping, root.Kind())
	require.Equal(t, 4, root.Len())

	name, ok := root.Get(rg, "name")
	require.True(t, ok)
	require.Equal(t, KindScalar, name.Kind())
	require.Equal(t, "vector-service", name.Value(rg))
	require.Equal(t, "!!str", name.Tag(rg))

	replicas, ok := root.Get(rg, "replicas")
	require.True(t, ok)
	require.Equal(t, "3", replicas.Value(rg))
	require.Equal(t, "!!int", replicas.Tag(rg))

	ports, ok := root.Get(rg, "ports")
	require.True(t, ok)
	require.Equal(t, KindSequence, ports.Kind())
	require.Equal(t, 2, ports.Len())

	p0, err := ports.Item(rg, 0)
	require.NoError(t, err)
	require.Equal(t, "8080", p0.Value(rg))

	_, err = ports.Item(rg, 2)
	require.Error(t, err)

	_, ok = root.Get(rg, "missing")
	require.False(t, ok)
}

func TestMappingOrder(t *testing.T) {
	rg, err := Load([]byte(sampleYAML))
	require.NoError(t, err)
	defer rg.Close()

	root, err := RootNode(rg)
	require.NoError(t, err)

	var keys []string
	for key := range root.Pairs(rg) {
		keys = append(keys, key)
	}
	require.Equal(t, []string{"name", "replicas", "ports", "labels"}, keys)
}

func TestMarshalRoundTrip(t *testing.T) {
	rg, err := Load([]byte(sampleYAML))
	require.NoError(t, err)
	defer rg.Close()

	out, err := Marshal(rg)
	require.NoError(t, err)

	// Round-tripping through the region preserves structure, order and
	// values.
	r2, err := Load(out)
	require.NoError(t, err)
	defer r2.Close()

	root, err := RootNode(r2)
	require.NoError(t, err)

	var keys []string
	for key := range root.Pairs(r2) {
		keys = append(keys, key)
	}
	require.Equal(t, []string{"name", "replicas", "ports", "labels"}, keys)

	labels, ok := root.Get(r2, "labels")
	require.True(t, ok)
	team, ok := labels.Get(r2, "team")
	require.True(t, ok)
	require.Equal(t, "storage", team.Value(r2))
}

func TestAliasesShareNodes(t *testing.T) {
	src := `
defaults: &defaults
  retries: 5
first:
  <<: *defaults
second: *defaults
`
	// The merge key form is decoded by yaml.v3 as a mapping entry with key
	// "<<"; structural sharing is what matters here.
	rg, err := Load([]byte(src))
	require.NoError(t, err)
	defer rg.Close()

	root, err := RootNode(rg)
	require.NoError(t, err)

	defaults, ok := root.Get(rg, "defaults")
	require.True(t, ok)
	second, ok := root.Get(rg, "second")
	require.True(t, ok)

	// The alias resolves to the same region node, not a copy.
	require.Same(t, defaults, second)
}

func TestRelocation(t *testing.T) {
	rg, err := Load([]byte(sampleYAML))
	require.NoError(t, err)

	img := append([]byte(nil), rg.Image()...)
	require.NoError(t, rg.Close())

	r2, err := regio.FromBytes[Document](img)
	require.NoError(t, err)
	defer r2.Close()

	root, err := RootNode(r2)
	require.NoError(t, err)
	name, ok := root.Get(r2, "name")
	require.True(t, ok)
	require.Equal(t, "vector-service", name.Value(r2))
}

func TestEmptyDocument(t *testing.T) {
	rg, err := Load([]byte(""))
	require.NoError(t, err)
	defer rg.Close()

	root, err := RootNode(rg)
	require.NoError(t, err)
	require.Nil(t, root)

	out, err := Marshal(rg)
	require.NoError(t, err)
	require.Empty(t, out)
}

func TestNonScalarKey(t *testing.T) {
	src := `
? [composite, key]
: value
`
	_, err := Load([]byte(src))
	require.ErrorIs(t, err, ErrUnsupportedKey)
}

func TestImportIntoExistingRegion(t *testing.T) {
	rg, err := regio.Create[Document](1 << 16)
	require.NoError(t, err)
	defer rg.Close()

	var yn yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte("a: 1"), &yn))
	require.NoError(t, Import(rg, &yn))

	root, err := RootNode(rg)
	require.NoError(t, err)
	a, ok := root.Get(rg, "a")
	require.True(t, ok)
	require.Equal(t, "1", a.Value(rg))
}
