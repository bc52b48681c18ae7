// Copyright © 2024 The ELPS authors

package token

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypeString(t *testing.T) {
	used := make(map[string]bool)
	for tok := Type(0); tok < numTokenTypes; tok++ {
		str := tok.String()
		if str == "" {
			t.Errorf("token type %x has empty string value", tok)
			continue
		}
		if used[str] {
			t.Errorf("token type string used twice: %v", tok)
		}
		used[str] = true
	}
}

func TestKeywordsRoundTrip(t *testing.T) {
	for text, typ := range Keywords {
		assert.Equal(t, text, typ.String())
	}
}

func TestLocationError(t *testing.T) {
	cause := errors.New("unexpected token")
	err := &LocationError{Err: cause, Source: &Location{File: "a.cl", Line: 3, Col: 7}}
	assert.Equal(t, "a.cl:3:7: unexpected token", err.Error())
	assert.True(t, errors.Is(err, cause))
}
