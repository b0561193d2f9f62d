package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoundaryKey_String(t *testing.T) {
	k := NewBoundaryKey("hostops.Person", "readMember")
	assert.Equal(t, "hostops.Person.readMember", k.String())
}

func TestBoundaryKey_Validate(t *testing.T) {
	tests := []struct {
		name    string
		key     BoundaryKey
		wantErr string
	}{
		{name: "valid", key: NewBoundaryKey("Person", "read")},
		{name: "empty target", key: NewBoundaryKey("", "read"), wantErr: "target type"},
		{name: "empty operation", key: NewBoundaryKey("Person", ""), wantErr: "operation name"},
		{name: "dotted operation", key: NewBoundaryKey("Person", "a.b"), wantErr: "must not contain"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.key.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseBoundaryKey(t *testing.T) {
	k, err := ParseBoundaryKey("hostops.Person.readMember")
	require.NoError(t, err)
	assert.Equal(t, "hostops.Person", k.TargetType)
	assert.Equal(t, "readMember", k.Operation)

	for _, bad := range []string{"", "noDot", ".op", "Type."} {
		_, err := ParseBoundaryKey(bad)
		assert.Error(t, err, bad)
	}
}

func TestErrorDetail_Error(t *testing.T) {
	d := NewErrorDetail("interop", "unknown member name").
		WithCode("unknown_identifier").
		WithBoundary("Person.readMember")
	assert.Equal(t, "interop: unknown member name [unknown_identifier] (at Person.readMember)", d.Error())
	assert.True(t, d.IsInterop())

	var nilDetail *ErrorDetail
	assert.Equal(t, "", nilDetail.Error())
	assert.False(t, nilDetail.IsInterop())
}
