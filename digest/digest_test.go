package digest

import (
	"encoding/json"
	"io/ioutil"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBytesKnownVectors(t *testing.T) {
	assert.Equal(t,
		"e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		Bytes(nil).Hex())
	assert.Equal(t,
		"ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad",
		Bytes([]byte("abc")).Hex())
}

func TestFileMatchesBytes(t *testing.T) {
	dir, err := ioutil.TempDir("", "digest")
	assert.Nil(t, err)
	defer os.RemoveAll(dir)

	// sizes straddling the streaming chunk boundary
	sizes := []int{0, 1, 100, fileChunkSize - 1, fileChunkSize, fileChunkSize + 1, 3*fileChunkSize + 17}
	for _, size := range sizes {
		content := make([]byte, size)
		for i := range content {
			content[i] = byte(i % 251)
		}
		path := filepath.Join(dir, "blob")
		assert.Nil(t, ioutil.WriteFile(path, content, 0600))

		got, err := File(path)
		assert.Nil(t, err)
		assert.Equal(t, Bytes(content), got, "size %d", size)
	}
}

func TestFileNotExist(t *testing.T) {
	_, err := File(filepath.Join(os.TempDir(), "digest-no-such-file"))
	assert.NotNil(t, err)
}

func TestCanonicalForm(t *testing.T) {
	tests := []struct {
		value interface{}
		want  string
	}{
		{nil, `null`},
		{true, `true`},
		{"hi", `"hi"`},
		{json.Number("1e3"), `1e3`},
		{1.5, `1.5`},
		{map[string]interface{}{"b": 2, "a": 1}, `{"a":1,"b":2}`},
		{
			map[string]interface{}{
				"z": []interface{}{1, "two", nil},
				"a": map[string]interface{}{"y": false, "x": true},
			},
			`{"a":{"x":true,"y":false},"z":[1,"two",null]}`,
		},
		// no html escaping, matching the reference canonical form
		{map[string]interface{}{"note": "a<b>&c"}, `{"note":"a<b>&c"}`},
	}
	for _, tt := range tests {
		enc, err := Canonical(tt.value)
		assert.Nil(t, err)
		assert.Equal(t, tt.want, string(enc))
	}
}

func TestCanonicalOrderInvariance(t *testing.T) {
	first := map[string]interface{}{
		"name":    "model.bin",
		"epoch":   7,
		"nested":  map[string]interface{}{"lr": 0.001, "batch": 32},
		"classes": []interface{}{"cat", "dog"},
	}
	second := map[string]interface{}{
		"classes": []interface{}{"cat", "dog"},
		"nested":  map[string]interface{}{"batch": 32, "lr": 0.001},
		"epoch":   7,
		"name":    "model.bin",
	}

	encFirst, err := Canonical(first)
	assert.Nil(t, err)
	encSecond, err := Canonical(second)
	assert.Nil(t, err)
	assert.Equal(t, string(encFirst), string(encSecond))

	digFirst, err := Value(first)
	assert.Nil(t, err)
	digSecond, err := Value(second)
	assert.Nil(t, err)
	assert.Equal(t, digFirst, digSecond)
}

func TestCanonicalStructEqualsMap(t *testing.T) {
	type params struct {
		Rate  float64 `json:"rate"`
		Steps int     `json:"steps"`
	}
	fromStruct, err := Value(params{Rate: 0.5, Steps: 10})
	assert.Nil(t, err)
	fromMap, err := Value(map[string]interface{}{"steps": 10, "rate": 0.5})
	assert.Nil(t, err)
	assert.Equal(t, fromStruct, fromMap)
}

func TestValueMatchesCanonicalBytes(t *testing.T) {
	v := map[string]interface{}{"k": "v", "n": 42}
	enc, err := Canonical(v)
	assert.Nil(t, err)
	dig, err := Value(v)
	assert.Nil(t, err)
	assert.Equal(t, Bytes(enc), dig)
}

func TestValueNotSerializable(t *testing.T) {
	_, err := Value(map[string]interface{}{"bad": math.NaN()})
	assert.ErrorIs(t, err, ErrNotSerializable)

	_, err = Value(make(chan int))
	assert.ErrorIs(t, err, ErrNotSerializable)
}

func TestParseHex(t *testing.T) {
	want := Bytes([]byte("abc"))
	parsed, err := ParseHex(want.Hex())
	assert.Nil(t, err)
	assert.Equal(t, want, parsed)

	_, err = ParseHex("ba7816bf")
	assert.ErrorIs(t, err, ErrInvalidDigest)
	_, err = ParseHex("zz7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad")
	assert.ErrorIs(t, err, ErrInvalidDigest)
}

func TestIsHexDigest(t *testing.T) {
	assert.True(t, IsHexDigest("ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"))
	assert.True(t, IsHexDigest("BA7816BF8F01CFEA414140DE5DAE2223B00361A396177A9CB410FF61F20015AD"))
	assert.False(t, IsHexDigest("ba7816bf"))
	assert.False(t, IsHexDigest("gg7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"))
	assert.False(t, IsHexDigest(""))
}

func TestDigestJSONRoundTrip(t *testing.T) {
	d := Bytes([]byte("abc"))
	enc, err := json.Marshal(d)
	assert.Nil(t, err)
	assert.Equal(t, `"`+d.Hex()+`"`, string(enc))

	var back Digest
	assert.Nil(t, json.Unmarshal(enc, &back))
	assert.Equal(t, d, back)
}
