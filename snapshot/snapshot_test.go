package snapshot_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hupe1980/regio"
	"github.com/hupe1980/regio/snapshot"
)

type counters struct {
	Values regio.Vector[uint64]
}

func buildRegion(t *testing.T, n int) *regio.Region {
	t.Helper()

	rg, err := regio.Create[counters](1 << 16)
	require.NoError(t, err)

	root, err := regio.Root[counters](rg)
	require.NoError(t, err)
	for i := 0; i < n; i++ {
		require.NoError(t, root.Get().Values.PushBack(rg, uint64(i)*2))
	}
	return rg
}

func verifyRegion(t *testing.T, rg *regio.Region, n int) {
	t.Helper()

	root, err := regio.Root[counters](rg)
	require.NoError(t, err)
	require.Equal(t, n, root.Get().Values.Len())
	for i, p := range root.Get().Values.All() {
		require.Equal(t, uint64(i)*2, *p)
	}
}

func TestEncodeDecode(t *testing.T) {
	rg := buildRegion(t, 100)
	defer rg.Close()

	for _, name := range []string{"none", "zstd", "lz4"} {
		t.Run(name, func(t *testing.T) {
			c, ok := snapshot.ByName(name)
			require.True(t, ok)

			data, err := snapshot.Encode(rg.Image(), c)
			require.NoError(t, err)

			img, err := snapshot.Decode(data)
			require.NoError(t, err)

			r2, err := regio.FromBytes[counters](img)
			require.NoError(t, err)
			defer r2.Close()
			verifyRegion(t, r2, 100)
		})
	}
}

func TestDecodeRejectsCorruption(t *testing.T) {
	rg := buildRegion(t, 10)
	defer rg.Close()

	data, err := snapshot.Encode(rg.Image(), snapshot.Zstd{})
	require.NoError(t, err)

	t.Run("truncated", func(t *testing.T) {
		_, err := snapshot.Decode(data[:4])
		require.ErrorIs(t, err, snapshot.ErrInvalidSnapshot)
	})

	t.Run("bad magic", func(t *testing.T) {
		bad := append([]byte(nil), data...)
		bad[0] ^= 0xff
		_, err := snapshot.Decode(bad)
		require.ErrorIs(t, err, snapshot.ErrInvalidSnapshot)
	})

	t.Run("flipped payload bit", func(t *testing.T) {
		bad := append([]byte(nil), data...)
		bad[len(bad)-1] ^= 0x01
		_, err := snapshot.Decode(bad)
		require.ErrorIs(t, err, snapshot.ErrChecksum)
	})

	t.Run("flipped size field", func(t *testing.T) {
		// Inflating the recorded raw size must fail the checksum, not
		// drive a huge allocation in the codec.
		bad := append([]byte(nil), data...)
		bad[7+int(bad[6])+7] ^= 0x80
		_, err := snapshot.Decode(bad)
		require.ErrorIs(t, err, snapshot.ErrChecksum)
	})

	t.Run("flipped codec name", func(t *testing.T) {
		bad := append([]byte(nil), data...)
		bad[7] ^= 0x01
		_, err := snapshot.Decode(bad)
		require.ErrorIs(t, err, snapshot.ErrChecksum)
	})
}

func TestManagerSaveRestore(t *testing.T) {
	ctx := context.Background()

	rg := buildRegion(t, 200)
	defer rg.Close()

	m := snapshot.NewManager(snapshot.NewMemoryStore(),
		snapshot.WithCodec(snapshot.LZ4{}),
		snapshot.WithPrefix("graphs"),
	)

	require.NoError(t, m.Save(ctx, "current", rg))

	names, err := m.List(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"current"}, names)

	r2, err := snapshot.Restore[counters](ctx, m, "current")
	require.NoError(t, err)
	defer r2.Close()
	verifyRegion(t, r2, 200)

	require.NoError(t, m.Delete(ctx, "current"))
	_, err = snapshot.Restore[counters](ctx, m, "current")
	require.ErrorIs(t, err, snapshot.ErrNotFound)
}

func TestManagerSaveAll(t *testing.T) {
	ctx := context.Background()

	regions := make(map[string]*regio.Region)
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		rg := buildRegion(t, 50)
		defer rg.Close()
		regions[name] = rg
	}

	m := snapshot.NewManager(snapshot.NewMemoryStore(),
		snapshot.WithParallelism(2),
		snapshot.WithUploadLimit(64<<20),
	)
	require.NoError(t, m.SaveAll(ctx, regions))

	names, err := m.List(ctx)
	require.NoError(t, err)
	require.Len(t, names, 5)

	for name := range regions {
		r2, err := snapshot.Restore[counters](ctx, m, name)
		require.NoError(t, err)
		verifyRegion(t, r2, 50)
		require.NoError(t, r2.Close())
	}
}

func TestManagerWrongType(t *testing.T) {
	ctx := context.Background()

	rg := buildRegion(t, 5)
	defer rg.Close()

	m := snapshot.NewManager(snapshot.NewMemoryStore())
	require.NoError(t, m.Save(ctx, "snap", rg))

	type otherRoot struct{ x uint64 }
	_, err := snapshot.Restore[otherRoot](ctx, m, "snap")

	var tm *regio.TypeMismatchError
	require.ErrorAs(t, err, &tm)
}
