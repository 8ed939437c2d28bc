package ir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIRObjectSortedKeys(t *testing.T) {
	obj := IRObject{
		"zebra":  IRString("z"),
		"apple":  IRString("a"),
		"banana": IRString("b"),
	}
	assert.Equal(t, []string{"apple", "banana", "zebra"}, obj.SortedKeys())
	assert.Empty(t, IRObject{}.SortedKeys())
}

func TestIRObjectSortedKeysUTF16Order(t *testing.T) {
	obj := IRObject{
		"a": IRInt(1), "A": IRInt(2), "aa": IRInt(3),
		"aA": IRInt(4), "Aa": IRInt(5), "AA": IRInt(6),
	}
	assert.Equal(t, []string{"A", "AA", "Aa", "a", "aA", "aa"}, obj.SortedKeys())
}

func TestCompareUTF16SurrogatePairs(t *testing.T) {
	// U+1F600 encodes as a surrogate pair (0xD83D...) which sorts before
	// U+FF61 in UTF-16 even though its code point is larger.
	assert.Less(t, compareUTF16("\U0001F600", "\uFF61"), 0)
	assert.Equal(t, 0, compareUTF16("same", "same"))
	assert.Less(t, compareUTF16("", "a"), 0)
	assert.Greater(t, compareUTF16("ab", "a"), 0)
}

func TestIRNullMarshaling(t *testing.T) {
	data, err := json.Marshal(IRNull{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(data))
}

func TestIRObjectJSONRoundTrip(t *testing.T) {
	obj := IRObject{
		"present": IRString("value"),
		"missing": IRNull{},
		"list":    IRArray{IRInt(1), IRBool(true)},
	}

	data, err := json.Marshal(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"list":[1,true],"missing":null,"present":"value"}`, string(data))

	var decoded IRObject
	require.NoError(t, json.Unmarshal(data, &decoded))
	_, isNull := decoded["missing"].(IRNull)
	assert.True(t, isNull, "expected IRNull, got %T", decoded["missing"])
	assert.Equal(t, obj, decoded)
}

func TestIRObjectUnmarshalRejectsNonObject(t *testing.T) {
	var decoded IRObject
	err := json.Unmarshal([]byte(`[1,2]`), &decoded)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected JSON object")
}

func TestUnmarshalRejectsFloats(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"simple float", `3.14`},
		{"scientific notation", `1e10`},
		{"scientific notation uppercase", `1E10`},
		{"negative float", `-2.5`},
		{"nested float in object", `{"value": 1.5}`},
		{"array with whole float literal", `[1, 2.0, 3]`},
		{"deeply nested float", `{"a": {"b": [1.5]}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnmarshalIRValue([]byte(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "fractional numbers")
		})
	}
}

func TestUnmarshalIRValue(t *testing.T) {
	v, err := UnmarshalIRValue([]byte(`{"n": 9007199254740993, "s": "x", "b": false, "z": null}`))
	require.NoError(t, err)
	assert.Equal(t, IRObject{
		"n": IRInt(9007199254740993),
		"s": IRString("x"),
		"b": IRBool(false),
		"z": IRNull{},
	}, v)
}

func TestMarshalIRValue(t *testing.T) {
	data, err := MarshalIRValue(IRArray{IRString("a"), IRNull{}, IRObject{"k": IRInt(-1)}})
	require.NoError(t, err)
	assert.Equal(t, `["a",null,{"k":-1}]`, string(data))
}
