package scraper

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/legalpt/legal-rag-be/types"
)

func TestExtractDocumentType(t *testing.T) {
	tests := []struct {
		name   string
		title  string
		number string
		want   string
	}{
		{"lei", "Lei n.º 23/2024 - Regime do arrendamento", "", types.DocumentTypeLei},
		{"decreto lei wins over lei", "Decreto-Lei n.º 10/2023", "", types.DocumentTypeDecretoLei},
		{"decreto", "Decreto n.º 5/2022 do Presidente", "", types.DocumentTypeDecreto},
		{"portaria", "Portaria n.º 100/2024", "", types.DocumentTypePortaria},
		{"despacho", "Despacho n.º 12/2024 do Ministro", "", types.DocumentTypeDespacho},
		{"resolucao", "Resolução do Conselho de Ministros n.º 45/2023", "", types.DocumentTypeResolucao},
		{"aviso", "Aviso n.º 3/2024", "", types.DocumentTypeAviso},
		{"case insensitive", "LEI N.º 1/2024", "", types.DocumentTypeLei},
		{"number in separate field", "Novo regime jurídico", "Portaria n.º 2/2024", types.DocumentTypePortaria},
		{"unknown", "Comunicado do Banco de Portugal", "", types.DocumentTypeOther},
		{"empty", "", "", types.DocumentTypeOther},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractDocumentType(tt.title, tt.number))
		})
	}
}

func TestExtractDocumentNumber(t *testing.T) {
	tests := []struct {
		name    string
		title   string
		docType string
		want    string
	}{
		{"lei", "Lei n.º 23/2024 - Regime do arrendamento", types.DocumentTypeLei, "23/2024"},
		{"decreto lei", "Decreto-Lei n.º 446/85", types.DocumentTypeDecretoLei, "446/85"},
		{"suffixed number", "Lei n.º 75-B/2020", types.DocumentTypeLei, "75-B/2020"},
		{"generic fallback", "Diploma n.º 7/2021 sem tipo conhecido", types.DocumentTypeOther, "7/2021"},
		{"resolucao with body", "Resolução do Conselho de Ministros n.º 45/2023", types.DocumentTypeResolucao, "45/2023"},
		{"no number", "Regime geral das taxas", types.DocumentTypeLei, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractDocumentNumber(tt.title, tt.docType))
		})
	}
}

func TestExtractPublicationDate(t *testing.T) {
	assert.Equal(t, "2024-03-15", ExtractPublicationDate("Publicado em 2024-03-15 no DR"))
	assert.Equal(t, "2023-01-02", ExtractPublicationDate("2023-01-02 e depois 2024-05-06"))
	assert.Empty(t, ExtractPublicationDate("Publicado em 15 de março de 2024"))
}

func TestExtractDocumentsFromTask(t *testing.T) {
	task := &Task{
		Status: "successful",
		CapturedLists: map[string][]map[string]any{
			"documents": {
				{
					"title":     "Lei n.º 23/2024 - Habitação",
					"url":       "https://dre.pt/lei-23-2024",
					"summary":   "Publicado em 2024-03-15",
					"full_text": "Artigo 1.º\nA presente lei...",
				},
				{
					"title": "",
				},
			},
		},
	}

	docs := ExtractDocuments(task)
	assert.Len(t, docs, 1)
	assert.Equal(t, types.DocumentTypeLei, docs[0].DocumentType)
	assert.Equal(t, "23/2024", docs[0].DocumentNumber)
	assert.Equal(t, "2024-03-15", docs[0].PublicationDate)
	assert.Equal(t, "https://dre.pt/lei-23-2024", docs[0].URL)
}
