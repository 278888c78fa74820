package search

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"
)

// buildIndexMapping creates the Bleve index mapping for note documents.
//
// Titles are the primary target and are stored for display and highlighting.
// Content is searchable but not stored. Ownership and type are keyword fields
// used only as exact filters.
func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = en.AnalyzerName

	docMapping := bleve.NewDocumentMapping()

	titleFieldMapping := bleve.NewTextFieldMapping()
	titleFieldMapping.Analyzer = en.AnalyzerName
	titleFieldMapping.Store = true
	titleFieldMapping.IncludeTermVectors = true // For highlighting
	docMapping.AddFieldMappingsAt("title", titleFieldMapping)

	contentFieldMapping := bleve.NewTextFieldMapping()
	contentFieldMapping.Analyzer = en.AnalyzerName
	contentFieldMapping.Store = false
	docMapping.AddFieldMappingsAt("content", contentFieldMapping)

	for _, field := range []string{"id", "user_id", "node_id", "type"} {
		fm := bleve.NewTextFieldMapping()
		fm.Analyzer = keyword.Name
		fm.Store = field != "id"
		docMapping.AddFieldMappingsAt(field, fm)
	}

	indexMapping.DefaultMapping = docMapping
	return indexMapping
}
