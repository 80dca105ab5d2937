package service

import (
	"context"
	"html"
	"log"

	"google.golang.org/api/option"
	translate "google.golang.org/api/translate/v2"
)

// TranslationService translates user queries into Portuguese before
// embedding, keeping the query in the same language as the corpus.
type TranslationService interface {
	ToPortuguese(ctx context.Context, text, sourceLang string) string
}

type googleTranslation struct {
	service *translate.Service
}

// NewTranslationService returns nil when no API key is configured; a nil
// service means queries are embedded as-is.
func NewTranslationService(apiKey string) (TranslationService, error) {
	if apiKey == "" {
		return nil, nil
	}
	svc, err := translate.NewService(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	return &googleTranslation{service: svc}, nil
}

// ToPortuguese is best effort: any translation failure falls back to the
// original text so retrieval still runs.
func (t *googleTranslation) ToPortuguese(ctx context.Context, text, sourceLang string) string {
	call := t.service.Translations.List([]string{text}, "pt").Context(ctx)
	if sourceLang != "" {
		call = call.Source(sourceLang)
	}
	res, err := call.Do()
	if err != nil || len(res.Translations) == 0 {
		log.Printf("translation failed, using original query: %v", err)
		return text
	}
	return html.UnescapeString(res.Translations[0].TranslatedText)
}
