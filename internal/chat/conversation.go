package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"discovery/internal/discovery"
	"discovery/internal/images"
	"discovery/internal/logger"
	"discovery/internal/models"
	"discovery/pkg/backend"
	"discovery/pkg/format"
)

var (
	ErrEmptyMessage  = errors.New("message is empty")
	ErrBusy          = errors.New("a response is already being generated")
	ErrUnknownAction = errors.New("unknown quick action")
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Backend interface {
	Generate(ctx context.Context, req backend.GenerateRequest) (string, error)
	Stream(ctx context.Context, req backend.GenerateRequest, onChunk func(chunk string) error) (string, error)
	GenerateImage(ctx context.Context, prompt string) (string, error)
}

// Settings are the per-message generation knobs picked by the user.
type Settings struct {
	Model       string   `json:"model"`
	MaxTokens   int      `json:"max_tokens"`
	Temperature *float64 `json:"temperature,omitempty"`
	Stream      bool     `json:"stream"`
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Reply is a finished assistant answer.
type Reply struct {
	Text      string `json:"text"`
	HTML      string `json:"html"`
	Truncated bool   `json:"truncated"`
}

const imageWorkers = 3

// ImageResolver finds a picture for a named place. It never fails; a miss
// yields a fallback image.
type ImageResolver interface {
	Resolve(ctx context.Context, q images.Query) *models.Image
}

// Locator geocodes place names near a location.
type Locator interface {
	Locate(ctx context.Context, names []string, loc models.Location, category string) ([]*models.Place, error)
}

// Conversation keeps the message history of one user. Only one generation
// runs at a time.
type Conversation struct {
	backend Backend
	images  ImageResolver
	locator Locator
	log     *zap.Logger

	mu      sync.Mutex
	busy    bool
	history []Message
}

type Option func(*Conversation)

// WithImages makes Explore attach an image to every attraction.
func WithImages(r ImageResolver) Option {
	return func(c *Conversation) { c.images = r }
}

// WithLocator makes Explore place the landmarks it finds on the map.
func WithLocator(l Locator) Option {
	return func(c *Conversation) { c.locator = l }
}

func NewConversation(b Backend, log *zap.Logger, opts ...Option) *Conversation {
	c := &Conversation{backend: b, log: logger.OrNop(log)}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// History returns a copy of the messages so far.
func (c *Conversation) History() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Message(nil), c.history...)
}

func (c *Conversation) begin(userText string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy {
		return ErrBusy
	}
	c.busy = true
	c.history = append(c.history, Message{Role: RoleUser, Content: userText})
	return nil
}

func (c *Conversation) end(assistant string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.busy = false
	if assistant != "" {
		c.history = append(c.history, Message{Role: RoleAssistant, Content: assistant})
	}
}

// Send answers message. In stream mode onChunk, when set, receives the
// formatted HTML of the text received so far after every chunk.
func (c *Conversation) Send(ctx context.Context, s Settings, message string, onChunk func(html string)) (*Reply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrEmptyMessage
	}
	if err := c.begin(message); err != nil {
		return nil, err
	}
	text, err := c.generate(ctx, s, message, onChunk)
	if err != nil {
		c.end("")
		c.log.Warn("chat generation failed", zap.Bool("stream", s.Stream), zap.Error(err))
		return nil, err
	}
	c.end(text)
	return &Reply{Text: text, HTML: format.Message(text), Truncated: format.IsTruncated(text)}, nil
}

func (c *Conversation) generate(ctx context.Context, s Settings, prompt string, onChunk func(html string)) (string, error) {
	req := backend.GenerateRequest{
		Prompt:      prompt,
		Model:       s.Model,
		MaxTokens:   s.MaxTokens,
		Temperature: s.Temperature,
	}
	if !s.Stream {
		return c.backend.Generate(ctx, req)
	}
	var full strings.Builder
	return c.backend.Stream(ctx, req, func(chunk string) error {
		full.WriteString(chunk)
		if onChunk != nil {
			onChunk(format.Message(full.String()))
		}
		return nil
	})
}

// SendImage asks the backend for an image and records it in the history.
func (c *Conversation) SendImage(ctx context.Context, prompt string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", ErrEmptyMessage
	}
	if err := c.begin(prompt); err != nil {
		return "", err
	}
	url, err := c.backend.GenerateImage(ctx, prompt)
	if err != nil {
		c.end("")
		return "", err
	}
	c.end(fmt.Sprintf("[Generated image: %s]", prompt))
	return url, nil
}

// Recommendations is the outcome of a quick action. Places holds the
// landmarks that could be geocoded, numbered densely for the map.
type Recommendations struct {
	Prompt      Prompt          `json:"prompt"`
	ImageURL    string          `json:"imageUrl,omitempty"`
	Attractions []Attraction    `json:"attractions"`
	Landmarks   []string        `json:"landmarks"`
	Places      []*models.Place `json:"places"`
}

// Explore runs a quick action: an illustrating image first, then a silent
// generation that is parsed into attraction cards and landmark markers.
// Failed images or geocodes do not fail the action.
func (c *Conversation) Explore(ctx context.Context, s Settings, action string, loc models.Location) (*Recommendations, error) {
	p, err := LocationPrompt(action, loc.Name)
	if err != nil {
		return nil, err
	}
	if err := c.begin(p.Text); err != nil {
		return nil, err
	}
	out := &Recommendations{Prompt: p}
	if url, err := c.backend.GenerateImage(ctx, p.Image); err != nil {
		c.log.Warn("quick action image failed", zap.String("action", action), zap.Error(err))
	} else {
		out.ImageURL = url
	}

	s.Stream = false
	text, err := c.generate(ctx, s, p.Text, nil)
	if err != nil {
		c.end("")
		return nil, err
	}
	out.Attractions = ParseAttractions(text)
	out.Landmarks = ParseLandmarks(text)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c.attractionImages(gctx, out.Attractions, action, loc.Name)
		return nil
	})
	g.Go(func() error {
		out.Places = c.landmarkPlaces(gctx, out.Landmarks, action, loc)
		return nil
	})
	_ = g.Wait()
	c.end(text)

	c.log.Info("quick action answered",
		zap.String("action", action),
		zap.String("location", loc.Name),
		zap.Int("attractions", len(out.Attractions)),
		zap.Int("places", len(out.Places)))
	return out, nil
}

func (c *Conversation) attractionImages(ctx context.Context, attractions []Attraction, action, location string) {
	if c.images == nil {
		return
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(imageWorkers)
	for i := range attractions {
		i := i
		a := &attractions[i]
		g.Go(func() error {
			a.Image = c.images.Resolve(gctx, images.Query{
				Name:         a.Name,
				Location:     location,
				Category:     action,
				MarkerNumber: i + 1,
			})
			return nil
		})
	}
	_ = g.Wait()
}

// landmarkPlaces geocodes the landmark names near loc and returns the ones
// that got coordinates, with dense marker numbers.
func (c *Conversation) landmarkPlaces(ctx context.Context, names []string, action string, loc models.Location) []*models.Place {
	if c.locator == nil || len(names) == 0 {
		return nil
	}
	places, err := c.locator.Locate(ctx, names, loc, action)
	if err != nil {
		c.log.Warn("landmark geocoding failed", zap.String("action", action), zap.Error(err))
		return nil
	}
	discovery.ApplyDistance(places, loc.Coordinates, 0)
	return discovery.Displayed(places)
}
