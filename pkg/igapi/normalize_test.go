package igapi

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captionEdges(text string) CaptionEdgeSet {
	return CaptionEdgeSet{Edges: []CaptionEdge{{Node: CaptionNode{Text: text}}}}
}

func TestNormalizeMapsFields(t *testing.T) {
	edges := []Edge{
		{Node: Node{
			ID:                 "123",
			Shortcode:          "Cxyz",
			DisplayURL:         "https://scontent.example.com/img.jpg",
			IsVideo:            true,
			TakenAtTimestamp:   1717250000,
			EdgeMediaToCaption: captionEdges("rocket launch"),
		}},
	}

	out := Normalize(edges, "nasa", 10, nil)

	require.Len(t, out, 1)
	p := out[0]
	assert.Equal(t, "123", p.ID)
	assert.Equal(t, "https://www.instagram.com/p/Cxyz/", p.URL)
	assert.Equal(t, "rocket launch", p.Caption)
	assert.Equal(t, "https://scontent.example.com/img.jpg", p.MediaURL)
	assert.True(t, p.IsVideo)
	assert.Equal(t, time.Unix(1717250000, 0).UTC(), p.Timestamp)
}

func TestNormalizeMissingCaptionIsEmpty(t *testing.T) {
	edges := []Edge{
		{Node: Node{ID: "1", Shortcode: "Abc", DisplayURL: "https://example.com/a.jpg"}},
	}

	out := Normalize(edges, "nasa", 10, nil)

	require.Len(t, out, 1)
	assert.Equal(t, "", out[0].Caption)
}

func TestNormalizeSkipsNodeWithoutShortcode(t *testing.T) {
	edges := []Edge{
		{Node: Node{ID: "1", Shortcode: "Aaa"}},
		{Node: Node{ID: "2"}}, // malformed: no shortcode, no permalink possible
		{Node: Node{ID: "3", Shortcode: "Ccc"}},
	}

	out := Normalize(edges, "nasa", 10, nil)

	require.Len(t, out, 2)
	assert.Equal(t, "1", out[0].ID)
	assert.Equal(t, "3", out[1].ID)
}

func TestNormalizeFallsBackToShortcodeAsID(t *testing.T) {
	edges := []Edge{{Node: Node{Shortcode: "OnlyCode"}}}

	out := Normalize(edges, "nasa", 10, nil)

	require.Len(t, out, 1)
	assert.Equal(t, "OnlyCode", out[0].ID)
}

func TestNormalizePreservesOrderAndLimit(t *testing.T) {
	var edges []Edge
	for _, code := range []string{"e", "d", "c", "b", "a"} {
		edges = append(edges, Edge{Node: Node{ID: code, Shortcode: code}})
	}

	out := Normalize(edges, "nasa", 3, nil)

	require.Len(t, out, 3)
	assert.Equal(t, "e", out[0].ID)
	assert.Equal(t, "d", out[1].ID)
	assert.Equal(t, "c", out[2].ID)
}

func TestNormalizeEmptyInput(t *testing.T) {
	assert.Empty(t, Normalize(nil, "nasa", 10, nil))
	assert.Empty(t, Normalize([]Edge{}, "nasa", 10, nil))
}
