package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"docschat/internal/retrieval"
)

func TestExtractCitations(t *testing.T) {
	retrieved := []retrieval.RetrievedContent{
		{URL: "https://docs.example.com/install", Header: "Installation"},
		{URL: "https://docs.example.com/config", Header: "Configuration"},
		{URL: "https://docs.example.com/deploy", Header: "Deployment"},
	}

	t.Run("URL cited on verbatim match", func(t *testing.T) {
		answer := "See https://docs.example.com/install for details."
		got := ExtractCitations(answer, retrieved, 3)
		assert.Equal(t, []string{"https://docs.example.com/install"}, got)
	})

	t.Run("URL match is case sensitive", func(t *testing.T) {
		answer := "See HTTPS://DOCS.EXAMPLE.COM/INSTALL for details."
		got := ExtractCitations(answer, retrieved, 3)
		assert.Empty(t, got)
	})

	t.Run("Header cited case-insensitively", func(t *testing.T) {
		answer := "The INSTALLATION section covers this."
		got := ExtractCitations(answer, retrieved, 3)
		assert.Equal(t, []string{"Section: Installation"}, got)
	})

	t.Run("Retrieval order preserved", func(t *testing.T) {
		answer := "Start with deployment, then configuration, then installation."
		got := ExtractCitations(answer, retrieved, 3)
		assert.Equal(t, []string{
			"Section: Installation",
			"Section: Configuration",
			"Section: Deployment",
		}, got)
	})

	t.Run("Capped at limit", func(t *testing.T) {
		answer := "installation configuration deployment https://docs.example.com/install"
		got := ExtractCitations(answer, retrieved, 2)
		assert.Len(t, got, 2)
	})

	t.Run("Duplicates collapsed", func(t *testing.T) {
		dup := []retrieval.RetrievedContent{
			{URL: "https://docs.example.com/a", Header: "Setup"},
			{URL: "https://docs.example.com/a", Header: "Setup"},
		}
		answer := "Covered in setup at https://docs.example.com/a"
		got := ExtractCitations(answer, dup, 5)
		assert.Equal(t, []string{"https://docs.example.com/a", "Section: Setup"}, got)
	})

	t.Run("Deterministic for same input", func(t *testing.T) {
		answer := "installation and configuration both matter"
		first := ExtractCitations(answer, retrieved, 3)
		second := ExtractCitations(answer, retrieved, 3)
		assert.Equal(t, first, second)
	})

	t.Run("No matches yields empty non-nil slice", func(t *testing.T) {
		got := ExtractCitations("Nothing relevant here.", retrieved, 3)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("Empty fields never matched", func(t *testing.T) {
		sparse := []retrieval.RetrievedContent{{URL: "", Header: ""}}
		got := ExtractCitations("any answer text", sparse, 3)
		assert.Empty(t, got)
	})
}
