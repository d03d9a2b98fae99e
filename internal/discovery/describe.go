package discovery

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"discovery/internal/models"
	"discovery/pkg/backend"
)

const descriptionMaxTokens = 150

type Extractor interface {
	Extract(ctx context.Context, lang, title string) (string, error)
}

// Describer writes short place descriptions with the backend model. Calls
// are spaced by a limiter; an article extract is used when the model fails
// and the place has a wikipedia tag.
type Describer struct {
	gen     Generator
	wiki    Extractor
	limiter *rate.Limiter
}

func NewDescriber(gen Generator, wiki Extractor, interval time.Duration) *Describer {
	return &Describer{gen: gen, wiki: wiki, limiter: rate.NewLimiter(rate.Every(interval), 1)}
}

func (d *Describer) Describe(ctx context.Context, category, location string, p *models.Place) error {
	if p.DescriptionLoaded {
		return nil
	}
	if err := d.limiter.Wait(ctx); err != nil {
		return err
	}
	text, err := d.gen.Generate(ctx, backend.GenerateRequest{
		Prompt:      DescriptionPrompt(category, p.Name, location),
		MaxTokens:   descriptionMaxTokens,
		Temperature: backend.Temperature(backend.DefaultTemperature),
	})
	if err == nil {
		p.Description = strings.TrimSpace(text)
		p.DescriptionLoaded = true
		return nil
	}

	ref := p.Tags["wikipedia"]
	if d.wiki == nil || ref == "" {
		return fmt.Errorf("describe %s: %w", p.Name, err)
	}
	lang, title := "en", ref
	if i := strings.Index(ref, ":"); i > 0 && i <= 3 {
		lang, title = ref[:i], ref[i+1:]
	}
	extract, xerr := d.wiki.Extract(ctx, lang, title)
	if xerr != nil {
		return fmt.Errorf("describe %s: %w (extract: %v)", p.Name, err, xerr)
	}
	p.Description = FirstSentences(extract, 2)
	p.DescriptionLoaded = true
	return nil
}

// FirstSentences keeps the first n sentences of text.
func FirstSentences(text string, n int) string {
	text = strings.TrimSpace(text)
	count := 0
	for i, r := range text {
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		if i+1 < len(text) && text[i+1] != ' ' && text[i+1] != '\n' {
			continue
		}
		count++
		if count == n {
			return text[:i+1]
		}
	}
	return text
}
