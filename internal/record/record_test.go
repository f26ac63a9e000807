package record

import (
	"compress/flate"
	"strings"
	"testing"
	"time"

	"github.com/adaptcache/go-adapt-cache/internal/compress"
	"github.com/adaptcache/go-adapt-cache/internal/sizeof"
	"github.com/adaptcache/go-adapt-cache/model"
	"github.com/stretchr/testify/require"
)

func testCodec() *compress.Codec {
	return compress.NewCodec(flate.DefaultCompression)
}

// TestRecord_New_SkipsShortText checks that text at or under the threshold stays raw.
func TestRecord_New_SkipsShortText(t *testing.T) {
	value := model.Text(strings.Repeat("a", 128))
	r := New(value, sizeof.Estimate(value), 0, 0, nil, testCodec(), base)

	require.False(t, r.IsCompressed())
	require.Zero(t, r.Savings())

	got, err := r.Value(testCodec())
	require.NoError(t, err)
	require.True(t, value.Equal(got))
}

// TestRecord_New_CompressesLongText checks that a long repetitive string is
// deflated with positive savings and reads back unchanged.
func TestRecord_New_CompressesLongText(t *testing.T) {
	value := model.Text(strings.Repeat("x", 10000))
	codec := testCodec()
	r := New(value, sizeof.Estimate(value), 0, 0, nil, codec, base)

	require.True(t, r.IsCompressed())
	require.Greater(t, r.Savings(), int64(0))

	got, err := r.Value(codec)
	require.NoError(t, err)
	require.True(t, value.Equal(got))
}

// TestRecord_New_CompressesCollections checks that lists and maps are stored
// as deflated JSON and rehydrate to equal values.
func TestRecord_New_CompressesCollections(t *testing.T) {
	items := make([]model.Value, 0, 200)
	for i := 0; i < 200; i++ {
		items = append(items, model.Text("element payload"))
	}
	value := model.List(items...)
	codec := testCodec()
	r := New(value, sizeof.Estimate(value), 0, 0, nil, codec, base)

	require.True(t, r.IsCompressed())
	require.True(t, r.Serialize()[fieldJSONEncoded].(bool))

	got, err := r.Value(codec)
	require.NoError(t, err)
	require.True(t, value.Equal(got))
}

// TestRecord_New_RejectsUnprofitable checks that the deflated form is dropped
// when it is not strictly smaller than the size estimate.
func TestRecord_New_RejectsUnprofitable(t *testing.T) {
	value := model.Text(strings.Repeat("x", 10000))
	r := New(value, 10, 0, 0, nil, testCodec(), base)

	require.False(t, r.IsCompressed())
	require.Zero(t, r.Savings())
}

// TestRecord_New_NilCodec checks that no compression is attempted without a codec.
func TestRecord_New_NilCodec(t *testing.T) {
	value := model.Text(strings.Repeat("x", 10000))
	r := New(value, sizeof.Estimate(value), 0, 0, nil, nil, base)

	require.False(t, r.IsCompressed())
}

// TestRecord_Tags checks tag ownership on the record.
func TestRecord_Tags(t *testing.T) {
	r := New(model.Int(1), 8, 0, 0, []string{"users", "sessions"}, nil, base)

	require.ElementsMatch(t, []string{"users", "sessions"}, r.Tags())
	require.True(t, r.HasTag("users"))
	require.False(t, r.HasTag("other"))

	empty := New(model.Int(1), 8, 0, 0, nil, nil, base)
	require.Nil(t, empty.Tags())
}

// TestRecord_SerializeRoundTrip_Raw checks the flat mapping for an uncompressed record.
func TestRecord_SerializeRoundTrip_Raw(t *testing.T) {
	value := model.Map(map[string]model.Value{"id": model.Int(7), "name": model.Text("row")})
	r := New(value, sizeof.Estimate(value), time.Hour, 3, []string{"tag"}, nil, base)
	r.Entry().IncrementFrequency()

	m := r.Serialize()
	require.Contains(t, m, fieldValue)
	require.NotContains(t, m, fieldCompressed)
	require.Contains(t, m, fieldExpiresAt)

	restored, err := Deserialize(m)
	require.NoError(t, err)

	got, err := restored.Value(testCodec())
	require.NoError(t, err)
	require.True(t, value.Equal(got))

	require.Equal(t, 3, restored.Entry().Priority())
	require.Equal(t, int64(2), restored.Entry().Frequency())
	require.True(t, restored.Entry().CreatedAt().Equal(base))
	expiresAt, ok := restored.Entry().ExpiresAt()
	require.True(t, ok)
	require.True(t, expiresAt.Equal(base.Add(time.Hour)))

	// Tags are not part of the persisted format.
	require.Nil(t, restored.Tags())
}

// TestRecord_SerializeRoundTrip_Compressed checks the flat mapping for a
// deflated record, including the reconstructed size estimate.
func TestRecord_SerializeRoundTrip_Compressed(t *testing.T) {
	value := model.Text(strings.Repeat("payload ", 2000))
	size := sizeof.Estimate(value)
	codec := testCodec()
	r := New(value, size, 0, 0, nil, codec, base)
	require.True(t, r.IsCompressed())

	m := r.Serialize()
	require.Contains(t, m, fieldCompressed)
	require.NotContains(t, m, fieldValue)
	require.NotContains(t, m, fieldExpiresAt)

	restored, err := Deserialize(m)
	require.NoError(t, err)
	require.True(t, restored.IsCompressed())
	require.Equal(t, size, restored.Entry().SizeBytes())

	got, err := restored.Value(codec)
	require.NoError(t, err)
	require.True(t, value.Equal(got))
}

// TestRecord_MarshalUnmarshal checks the JSON wire form used by storage
// adapters, where compressed payloads travel as base64 text.
func TestRecord_MarshalUnmarshal(t *testing.T) {
	codec := testCodec()
	for _, value := range []model.Value{
		model.Text(strings.Repeat("wire ", 1000)),
		model.List(model.Int(1), model.Int(2), model.Int(3)),
		model.Bytes([]byte{1, 2, 3}),
		model.Nil(),
	} {
		r := New(value, sizeof.Estimate(value), time.Minute, 1, nil, codec, base)

		data, err := r.Marshal()
		require.NoError(t, err)

		restored, err := Unmarshal(data)
		require.NoError(t, err)

		got, err := restored.Value(codec)
		require.NoError(t, err)
		require.True(t, value.Equal(got), "value %s changed across the wire", value.Kind())
	}
}

// TestDeserialize_ToleratesMalformedTimestamps checks timestamp fallbacks.
func TestDeserialize_ToleratesMalformedTimestamps(t *testing.T) {
	restored, err := Deserialize(map[string]any{
		fieldValue:        "payload",
		fieldCreatedAt:    "not a timestamp",
		fieldLastAccessed: 12345,
		fieldExpiresAt:    "garbage",
	})
	require.NoError(t, err)

	require.False(t, restored.Entry().HasExpiry())
	require.False(t, restored.Entry().CreatedAt().IsZero())
	require.True(t, !restored.Entry().LastAccessed().Before(restored.Entry().CreatedAt()))
}

// TestDeserialize_Defaults checks numeric fallbacks for absent fields.
func TestDeserialize_Defaults(t *testing.T) {
	restored, err := Deserialize(map[string]any{fieldValue: int64(42)})
	require.NoError(t, err)

	require.Equal(t, 0, restored.Entry().Priority())
	require.Equal(t, int64(1), restored.Entry().Frequency())
	require.Zero(t, restored.Savings())

	got, err := restored.Value(testCodec())
	require.NoError(t, err)
	require.True(t, model.Int(42).Equal(got))
}

// TestDeserialize_MissingPayload checks that a record without any payload fails.
func TestDeserialize_MissingPayload(t *testing.T) {
	_, err := Deserialize(map[string]any{fieldPriority: 1})
	require.ErrorIs(t, err, errNoPayload)
}
