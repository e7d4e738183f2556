package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapKeepsSentinel(t *testing.T) {
	err := Wrap(ErrAggregation, "Sum.Total")

	assert.Contains(t, err.Error(), "Sum.Total")
	assert.Contains(t, err.Error(), "ambiguous aggregation")
	assert.True(t, Is(err, ErrAggregation))
	assert.False(t, Is(err, ErrShape))
}

func TestUnknownMember(t *testing.T) {
	err := UnknownMember("Frobnicate", "func")

	require.Error(t, err)
	assert.True(t, IsUnknownMemberError(err))
	assert.Contains(t, err.Error(), `func "Frobnicate" is not a member of the interface`)
}

func TestUnsupported(t *testing.T) {
	err := Unsupported("default", "type")

	assert.True(t, IsUnsupportedError(err))
	assert.Contains(t, err.Error(), "default does not support type members")
}

func TestParsefAndShapef(t *testing.T) {
	perr := Parsef("argument %q cannot be set twice", "reduce")
	assert.True(t, IsParseError(perr))
	assert.Contains(t, perr.Error(), `argument "reduce" cannot be set twice`)

	serr := Shapef("operation %s has no receiver", "New")
	assert.True(t, Is(serr, ErrShape))
	assert.False(t, IsParseError(serr))
}

func TestWithHint(t *testing.T) {
	err := WithHint(Wrap(ErrAggregation, "Mean"), "add reduce=<fn> to the operation")

	hints := GetAllHints(err)
	require.Len(t, hints, 1)
	assert.Equal(t, "add reduce=<fn> to the operation", hints[0])
	assert.True(t, Is(err, ErrAggregation))
}

func TestNilChecks(t *testing.T) {
	assert.False(t, IsParseError(nil))
	assert.False(t, IsUnknownMemberError(nil))
	assert.False(t, IsUnsupportedError(nil))
}

type positioned struct {
	err error
}

func (p *positioned) Error() string { return "at file.go:1:1: " + p.err.Error() }
func (p *positioned) Unwrap() error { return p.err }

func TestIsThroughCustomWrapper(t *testing.T) {
	err := &positioned{err: Wrap(ErrUnresolved, "Widget")}

	assert.True(t, Is(err, ErrUnresolved))

	var target *positioned
	require.True(t, As(Wrap(err, "fill"), &target))
	assert.Contains(t, target.Error(), "file.go:1:1")
}
