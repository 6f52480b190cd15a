package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypeString(t *testing.T) {
	tests := []struct {
		want string
		typ  Type
	}{
		{want: "ScanStarted", typ: ScanStarted},
		{want: "ScanComplete", typ: ScanComplete},
		{want: "FileStarted", typ: FileStarted},
		{want: "FileHashed", typ: FileHashed},
		{want: "FileFailed", typ: FileFailed},
		{want: "FileSkipped", typ: FileSkipped},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, tc.typ.String())
	}
	assert.Equal(t, "Unknown", Type(0).String())
	assert.Equal(t, "Unknown", Type(99).String())
}
