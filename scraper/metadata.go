package scraper

import (
	"regexp"

	"github.com/legalpt/legal-rag-be/types"
)

// Diploma heading patterns, checked in order so the more specific
// Decreto-Lei wins over Decreto.
var documentTypePatterns = []struct {
	docType string
	re      *regexp.Regexp
}{
	{types.DocumentTypeDecretoLei, regexp.MustCompile(`(?i)Decreto-Lei n\.?º?\s*\d+`)},
	{types.DocumentTypeLei, regexp.MustCompile(`(?i)Lei n\.?º?\s*\d+`)},
	{types.DocumentTypeDecreto, regexp.MustCompile(`(?i)Decreto n\.?º?\s*\d+`)},
	{types.DocumentTypePortaria, regexp.MustCompile(`(?i)Portaria n\.?º?\s*\d+`)},
	{types.DocumentTypeDespacho, regexp.MustCompile(`(?i)Despacho n\.?º?\s*\d+`)},
	{types.DocumentTypeResolucao, regexp.MustCompile(`(?i)Resolução.*n\.?º?\s*\d+`)},
	{types.DocumentTypeRegulamento, regexp.MustCompile(`(?i)Regulamento n\.?º?\s*\d+`)},
	{types.DocumentTypeAviso, regexp.MustCompile(`(?i)Aviso n\.?º?\s*\d+`)},
	{types.DocumentTypeDeliberacao, regexp.MustCompile(`(?i)Deliberação n\.?º?\s*\d+`)},
}

var numberByType = map[string]*regexp.Regexp{
	types.DocumentTypeLei:         regexp.MustCompile(`(?i)Lei n\.?º?\s*(\d+(?:-[A-Z])?/\d+)`),
	types.DocumentTypeDecretoLei:  regexp.MustCompile(`(?i)Decreto-Lei n\.?º?\s*(\d+(?:-[A-Z])?/\d+)`),
	types.DocumentTypeDecreto:     regexp.MustCompile(`(?i)Decreto n\.?º?\s*(\d+(?:-[A-Z])?/\d+)`),
	types.DocumentTypePortaria:    regexp.MustCompile(`(?i)Portaria n\.?º?\s*(\d+(?:-[A-Z])?/\d+)`),
	types.DocumentTypeDespacho:    regexp.MustCompile(`(?i)Despacho n\.?º?\s*(\d+(?:-[A-Z])?/\d+)`),
	types.DocumentTypeResolucao:   regexp.MustCompile(`(?i)Resolução[^\d]*n\.?º?\s*(\d+(?:-[A-Z])?/\d+)`),
	types.DocumentTypeRegulamento: regexp.MustCompile(`(?i)Regulamento n\.?º?\s*(\d+(?:-[A-Z])?/\d+)`),
	types.DocumentTypeAviso:       regexp.MustCompile(`(?i)Aviso n\.?º?\s*(\d+(?:-[A-Z])?/\d+)`),
	types.DocumentTypeDeliberacao: regexp.MustCompile(`(?i)Deliberação n\.?º?\s*(\d+(?:-[A-Z])?/\d+)`),
}

var (
	genericNumberRe = regexp.MustCompile(`(?i)n\.?º?\s*(\d+(?:-[A-Z])?/\d+)`)
	isoDateRe       = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)
)

// ExtractDocumentType classifies a diploma from its title and number.
func ExtractDocumentType(title, number string) string {
	combined := title + " " + number
	for _, p := range documentTypePatterns {
		if p.re.MatchString(combined) {
			return p.docType
		}
	}
	return types.DocumentTypeOther
}

// ExtractDocumentNumber pulls the "n.º 23/2024" style identifier out of a
// title, preferring the pattern for the known document type.
func ExtractDocumentNumber(title, docType string) string {
	if re, ok := numberByType[docType]; ok {
		if m := re.FindStringSubmatch(title); m != nil {
			return m[1]
		}
	}
	if m := genericNumberRe.FindStringSubmatch(title); m != nil {
		return m[1]
	}
	return ""
}

// ExtractPublicationDate finds the first ISO date in the text.
func ExtractPublicationDate(text string) string {
	return isoDateRe.FindString(text)
}
