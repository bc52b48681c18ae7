// Copyright © 2018 The ELPS authors

package cooltest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpectation(t *testing.T) {
	expect, err := Expectation([]byte("-- expect: ok\nclass A { };\n"))
	require.NoError(t, err)
	assert.Equal(t, "ok", expect)

	expect, err = Expectation([]byte("--   expect:   TypeMismatchError  \n"))
	assert.Error(t, err)
	assert.Empty(t, expect)

	expect, err = Expectation([]byte("-- expect: UnknownTypeError"))
	require.NoError(t, err)
	assert.Equal(t, "UnknownTypeError", expect)

	_, err = Expectation([]byte("class A { };\n"))
	assert.Error(t, err)
	_, err = Expectation(nil)
	assert.Error(t, err)
	_, err = Expectation([]byte("-- expect:\n"))
	assert.Error(t, err)
}

func TestOutcome(t *testing.T) {
	tests := []struct {
		source string
		kind   string
	}{
		{"class Main { main() : Int { 1 }; };", ExpectOK},
		{"class Main { main() : Int { true }; };", "TypeMismatchError"},
		{"class Main { main() : Int { 1 } };", ExpectParseError},
		{"class Main inherits Nope { };", "UnknownTypeError"},
		{"class Main { }; class Main { };", "DuplicateTypeError"},
	}
	for i, test := range tests {
		kind, err := Outcome("test.cl", []byte(test.source))
		assert.Equal(t, test.kind, kind, "test %d: %v", i, err)
	}
}

func TestFixtures(t *testing.T) {
	r := &Runner{}
	r.RunFixtureDir(t, "../testdata")
}
