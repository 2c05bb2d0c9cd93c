package n42

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	nsA = "urn:a"
	nsB = "urn:b"
)

const sample = `<?xml version="1.0" encoding="UTF-8"?>
<a:Root xmlns:a="urn:a" xmlns:b="urn:b">
  <a:Group>
    <a:Item><a:Key>one</a:Key><a:Val>1</a:Val></a:Item>
    <a:Item><a:Key>two</a:Key><a:Val>2</a:Val><b:Extra>x</b:Extra></a:Item>
  </a:Group>
  <a:Item><a:Key>two</a:Key><a:Val>3</a:Val></a:Item>
  <b:Meta><b:When>2024-01-01T00:00:00Z</b:When></b:Meta>
</a:Root>`

func TestParse_ResolvesNamespaces(t *testing.T) {
	root, err := ParseBytes([]byte(sample))
	require.NoError(t, err)

	assert.Equal(t, N(nsA, "Root"), root.Name)
	require.Len(t, root.Children, 3)
	assert.Equal(t, N(nsB, "Meta"), root.Children[2].Name)
	assert.Equal(t, "2024-01-01T00:00:00Z", root.Find(N(nsB, "When")).Text)
}

func TestFindFirst_DocumentOrderFirstMatchWins(t *testing.T) {
	root, err := ParseBytes([]byte(sample))
	require.NoError(t, err)

	item := root.FindFirst(WithChildText(N(nsA, "Item"), N(nsA, "Key"), "two"))
	require.NotNil(t, item)
	assert.Equal(t, "2", item.Find(N(nsA, "Val")).Text)
	assert.NotNil(t, item.Find(N(nsB, "Extra")))
}

func TestFindFirst_NamespaceMustMatch(t *testing.T) {
	root, err := ParseBytes([]byte(sample))
	require.NoError(t, err)

	assert.Nil(t, root.Find(N(nsB, "Item")))
	assert.Nil(t, root.Find(N("", "Item")))
	assert.Nil(t, root.FindFirst(WithChildText(N(nsA, "Item"), N(nsA, "Key"), "three")))
}

func TestFindFirst_ExcludesSelf(t *testing.T) {
	root, err := ParseBytes([]byte(sample))
	require.NoError(t, err)
	assert.Nil(t, root.Find(N(nsA, "Root")))

	var nilNode *Node
	assert.Nil(t, nilNode.Find(N(nsA, "Root")))
	assert.Empty(t, nilNode.InnerText())
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"empty", ""},
		{"whitespace only", "  \n"},
		{"unclosed", "<a><b></a>"},
		{"two roots", "<a/><b/>"},
		{"not xml", "alpha,beta\n1,2\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseBytes([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestInnerText(t *testing.T) {
	root, err := ParseBytes([]byte(`<r>a<b>b</b><c>c<d>d</d></c></r>`))
	require.NoError(t, err)
	assert.Equal(t, "abcd", root.InnerText())
	assert.Equal(t, "{urn:x}y", N("urn:x", "y").String())
	assert.Equal(t, "y", N("", "y").String())
}
