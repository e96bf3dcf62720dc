package mdplug

import (
	"errors"
	"testing"

	"github.com/itsatony/go-cuserr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorConstructors_Metadata(t *testing.T) {
	sc := scope{plugin: "p", function: "f", line: 7}

	err := NewEffectIndexOutOfBoundsError(sc, 12, 3, ReasonPastEnd)

	var customErr *cuserr.CustomError
	require.True(t, errors.As(err, &customErr))
	assert.True(t, errors.Is(err, ErrEffectIndexOutOfBounds))
	assert.Contains(t, err.Error(), ErrMsgEffectIndexOutOfBounds)

	for key, want := range map[string]string{
		MetaKeyPhase:    PhaseExecution,
		MetaKeyPlugin:   "p",
		MetaKeyFunction: "f",
		MetaKeyLine:     "7",
		MetaKeyIndex:    "12",
		MetaKeyLength:   "3",
		MetaKeyReason:   ReasonPastEnd,
	} {
		got, ok := customErr.GetMetadata(key)
		assert.True(t, ok, key)
		assert.Equal(t, want, got, key)
	}
}

func TestErrorConstructors_EmptyScopeOmitsMetadata(t *testing.T) {
	err := NewEffectIndexGivenWithoutRegexError(scope{}, 2)

	_, ok := ErrorMetadata(err, MetaKeyPlugin)
	assert.False(t, ok)
	_, ok = ErrorMetadata(err, MetaKeyLine)
	assert.False(t, ok)
	offset, ok := ErrorMetadata(err, MetaKeyOffset)
	assert.True(t, ok)
	assert.Equal(t, "2", offset)
}

func TestErrorPhases(t *testing.T) {
	tests := []struct {
		name string
		err  error
		load bool
	}{
		{"index without pattern", NewIndexGivenWithoutPatternError("f"), true},
		{"load regex", NewLoadInvalidRegexError("f", "(", errors.New("missing )")), true},
		{"rejected", NewPluginRejectedError("p", errors.New("cause")), true},
		{"nil plugin", NewNilPluginError(), true},
		{"nil function", NewNilLineFunctionError("p", 0), true},
		{"exec regex", NewExecInvalidRegexError(scope{}, "(", errors.New("missing )")), false},
		{"bounds", NewEffectIndexOutOfBoundsError(scope{}, 1, 0, ReasonPastEnd), false},
		{"inverted", NewInvertedRangeError(scope{}, 2, 1, 3), false},
		{"no regex", NewEffectIndexGivenWithoutRegexError(scope{}, 0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.load, IsLoadError(tt.err))
			assert.Equal(t, !tt.load, IsExecutionError(tt.err))
		})
	}

	assert.False(t, IsLoadError(errors.New("plain")))
	assert.False(t, IsExecutionError(nil))
}

func TestPluginRejectedError_WrapsCause(t *testing.T) {
	cause := NewLoadInvalidRegexError("f", "(", errors.New("missing )"))
	err := NewPluginRejectedError("strict", ErrorList{cause})

	assert.True(t, errors.Is(err, ErrPluginRejected))
	assert.True(t, errors.Is(err, ErrInvalidRegex))
	plugin, _ := ErrorMetadata(err, MetaKeyPlugin)
	assert.Equal(t, "strict", plugin)
}

func TestErrorList(t *testing.T) {
	var empty ErrorList
	assert.NoError(t, empty.ErrOrNil())
	assert.Equal(t, "", empty.Error())

	one := ErrorList{errors.New("a")}
	assert.Equal(t, "a", one.Error())

	list := appendError(nil, errors.New("a"))
	list = appendError(list, nil)
	list = appendError(list, ErrorList{errors.New("b"), ErrManagerBusy})
	require.Len(t, list, 3)
	assert.Equal(t, "3 errors: a; b; plugin manager is busy", list.Error())
	assert.True(t, errors.Is(list, ErrManagerBusy))
	assert.Error(t, list.ErrOrNil())
}
