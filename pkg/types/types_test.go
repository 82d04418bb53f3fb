package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDocument(t *testing.T) {
	doc := NewDocument("report.txt", map[string]string{"source": "upload"})

	require.NotEmpty(t, doc.ID)
	assert.Equal(t, DocumentProcessing, doc.Status)
	assert.Equal(t, "report.txt", doc.Name)
	assert.False(t, doc.UploadedAt.IsZero())
	assert.Empty(t, doc.Error)
}

func TestNewChunk(t *testing.T) {
	chunk := NewChunk("doc-1", 3, "some text")

	require.NotEmpty(t, chunk.ID)
	assert.Equal(t, "doc-1", chunk.DocumentID)
	assert.Equal(t, 3, chunk.Index)
	assert.Equal(t, "some text", chunk.Text)
	assert.False(t, chunk.HasEntities)
}

func TestEntityKey(t *testing.T) {
	tests := []struct {
		name string
		a, b Entity
		same bool
	}{
		{
			name: "identical",
			a:    Entity{Name: "Paris", Type: "LOCATION"},
			b:    Entity{Name: "Paris", Type: "LOCATION"},
			same: true,
		},
		{
			name: "case insensitive",
			a:    Entity{Name: "Paris", Type: "LOCATION"},
			b:    Entity{Name: "paris", Type: "location"},
			same: true,
		},
		{
			name: "different type",
			a:    Entity{Name: "Paris", Type: "LOCATION"},
			b:    Entity{Name: "Paris", Type: "PERSON"},
			same: false,
		},
		{
			name: "different name",
			a:    Entity{Name: "Paris", Type: "LOCATION"},
			b:    Entity{Name: "London", Type: "LOCATION"},
			same: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.same {
				assert.Equal(t, tt.a.Key(), tt.b.Key())
			} else {
				assert.NotEqual(t, tt.a.Key(), tt.b.Key())
			}
		})
	}
}

func TestRelationshipKey(t *testing.T) {
	a := Relationship{Source: "Paris", Type: "LOCATED_IN", Target: "France"}
	b := Relationship{Source: "paris", Type: "located_in", Target: "FRANCE"}
	c := Relationship{Source: "France", Type: "LOCATED_IN", Target: "Paris"}

	assert.Equal(t, a.Key(), b.Key())
	assert.NotEqual(t, a.Key(), c.Key(), "relationships are directed")
}
