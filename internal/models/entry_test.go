package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEntryNormaliseTrimsFields(t *testing.T) {
	entry := Entry{GuestName: "  Ada \n", MessageText: "\tHi there  "}
	entry.Normalise()

	require.Equal(t, "Ada", entry.GuestName)
	require.Equal(t, "Hi there", entry.MessageText)
}

func TestEntryTableName(t *testing.T) {
	require.Equal(t, "entries", Entry{}.TableName())
}
