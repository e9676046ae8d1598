package main

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseBlockIDNumber(t *testing.T) {
	id, err := parseBlockID("42")
	require.NoError(t, err)
	require.False(t, id.isHash)
	require.Equal(t, int64(42), id.number)
}

func TestParseBlockIDHash(t *testing.T) {
	hash := "0x000000000000000000000000000000000000000000000000000000000000002a"
	id, err := parseBlockID(hash)
	require.NoError(t, err)
	require.True(t, id.isHash)
}

func TestParseBlockIDRejectsGarbage(t *testing.T) {
	_, err := parseBlockID("not-a-block-id")
	require.Error(t, err)
}

func TestParseBlockIDRejectsEmpty(t *testing.T) {
	_, err := parseBlockID("")
	require.Error(t, err)
}

func TestWithRetriesFloorsAtOneAttempt(t *testing.T) {
	attempts := 0
	err := withRetries(0, func() error {
		attempts++
		return errors.New("always fails")
	})
	require.Error(t, err)
	require.Equal(t, 1, attempts, "retries<1 must still make exactly one attempt")
}

func TestWithRetriesStopsOnSuccess(t *testing.T) {
	attempts := 0
	err := withRetries(5, func() error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 3, attempts)
}

func TestWithRetriesExhaustsMaxAttempts(t *testing.T) {
	attempts := 0
	err := withRetries(3, func() error {
		attempts++
		return errors.New("permanent")
	})
	require.Error(t, err)
	require.Equal(t, 3, attempts)
}
