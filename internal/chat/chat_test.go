package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"discovery/internal/images"
	"discovery/internal/models"
	"discovery/pkg/backend"
)

var paris = models.Location{Name: "Paris", Coordinates: models.Coordinates{Lat: 48.8566, Lon: 2.3522}}

type fakeBackend struct {
	answer   string
	chunks   []string
	imageURL string
	err      error
	imageErr error
	requests []backend.GenerateRequest
	images   []string
	block    chan struct{}
}

func (f *fakeBackend) Generate(ctx context.Context, req backend.GenerateRequest) (string, error) {
	f.requests = append(f.requests, req)
	if f.block != nil {
		<-f.block
	}
	return f.answer, f.err
}

func (f *fakeBackend) Stream(_ context.Context, req backend.GenerateRequest, onChunk func(string) error) (string, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return "", f.err
	}
	var full strings.Builder
	for _, c := range f.chunks {
		full.WriteString(c)
		if err := onChunk(c); err != nil {
			return full.String(), err
		}
	}
	return full.String(), nil
}

func (f *fakeBackend) GenerateImage(_ context.Context, prompt string) (string, error) {
	f.images = append(f.images, prompt)
	return f.imageURL, f.imageErr
}

type fakeImages struct {
	mu      sync.Mutex
	urls    map[string]string
	queries []images.Query
}

func (f *fakeImages) Resolve(_ context.Context, q images.Query) *models.Image {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	if u, ok := f.urls[q.Name]; ok {
		return &models.Image{URL: u, Source: "wikipedia"}
	}
	return &models.Image{Source: "fallback", Fallback: &models.Fallback{From: "#667eea", To: "#764ba2", Icon: "landmark"}}
}

type fakeLocator struct {
	coords   map[string]models.Coordinates
	err      error
	names    []string
	category string
}

func (f *fakeLocator) Locate(_ context.Context, names []string, _ models.Location, category string) ([]*models.Place, error) {
	f.names, f.category = names, category
	if f.err != nil {
		return nil, f.err
	}
	var out []*models.Place
	for _, name := range names {
		p := models.NewPlace(name)
		if c, ok := f.coords[name]; ok {
			p.Coordinates = &c
		}
		out = append(out, p)
	}
	return out, nil
}

func TestSend_NormalMode(t *testing.T) {
	b := &fakeBackend{answer: "Visit **Montmartre**."}
	c := NewConversation(b, nil)

	reply, err := c.Send(context.Background(), Settings{Model: "m", MaxTokens: 200, Temperature: backend.Temperature(0)}, "  what to see?  ", nil)
	require.NoError(t, err)
	assert.Contains(t, reply.HTML, "<strong>Montmartre</strong>")
	assert.False(t, reply.Truncated)
	require.Len(t, b.requests, 1)
	assert.Equal(t, backend.GenerateRequest{Prompt: "what to see?", Model: "m", MaxTokens: 200, Temperature: backend.Temperature(0)}, b.requests[0])
	assert.Equal(t, []Message{
		{Role: RoleUser, Content: "what to see?"},
		{Role: RoleAssistant, Content: "Visit **Montmartre**."},
	}, c.History())
}

func TestSend_StreamModeReportsFormattedProgress(t *testing.T) {
	b := &fakeBackend{chunks: []string{"**Lou", "vre** is", " open"}}
	c := NewConversation(b, nil)

	var progress []string
	reply, err := c.Send(context.Background(), Settings{Stream: true}, "hi", func(html string) {
		progress = append(progress, html)
	})
	require.NoError(t, err)
	require.Len(t, progress, 3)
	assert.Contains(t, progress[2], "<strong>Louvre</strong>")
	assert.Equal(t, "**Louvre** is open", reply.Text)
	assert.True(t, reply.Truncated)
}

func TestSend_Errors(t *testing.T) {
	c := NewConversation(&fakeBackend{err: errors.New("boom")}, nil)

	_, err := c.Send(context.Background(), Settings{}, "   ", nil)
	assert.ErrorIs(t, err, ErrEmptyMessage)

	_, err = c.Send(context.Background(), Settings{}, "hello", nil)
	assert.EqualError(t, err, "boom")
	assert.Equal(t, []Message{{Role: RoleUser, Content: "hello"}}, c.History())

	_, err = c.Send(context.Background(), Settings{}, "again", nil)
	assert.EqualError(t, err, "boom", "a failed send releases the conversation")
}

func TestSend_OneAtATime(t *testing.T) {
	b := &fakeBackend{answer: "ok.", block: make(chan struct{})}
	c := NewConversation(b, nil)

	done := make(chan error, 1)
	go func() {
		_, err := c.Send(context.Background(), Settings{}, "first", nil)
		done <- err
	}()
	require.Eventually(t, func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		return c.busy
	}, time.Second, time.Millisecond)

	_, err := c.Send(context.Background(), Settings{}, "second", nil)
	assert.ErrorIs(t, err, ErrBusy)
	close(b.block)
	assert.NoError(t, <-done)
}

func TestSendImage(t *testing.T) {
	b := &fakeBackend{imageURL: "https://img.example/1.png"}
	c := NewConversation(b, nil)

	url, err := c.SendImage(context.Background(), "a castle")
	require.NoError(t, err)
	assert.Equal(t, "https://img.example/1.png", url)
	assert.Equal(t, "[Generated image: a castle]", c.History()[1].Content)
}

func TestExplore(t *testing.T) {
	b := &fakeBackend{
		answer: "Here you go:\n" +
			"1. **Eiffel Tower** - Iron lattice tower with views over the city.\n" +
			"2. **Louvre**: The largest art museum in the world.\n" +
			"3. **Ok** - Too short a name to count here.\n" +
			"4. **Arc de Triomphe** - Short.\n",
		imageErr: errors.New("image backend down"),
	}
	c := NewConversation(b, nil)

	rec, err := c.Explore(context.Background(), Settings{Stream: true}, "landmarks", paris)
	require.NoError(t, err)
	assert.Equal(t, "Landmarks", rec.Prompt.Title)
	assert.Empty(t, rec.ImageURL)
	assert.Equal(t, []Attraction{
		{Name: "Eiffel Tower", Description: "Iron lattice tower with views over the city."},
		{Name: "Louvre", Description: "The largest art museum in the world."},
	}, rec.Attractions)
	assert.Equal(t, []string{"Eiffel Tower", "Louvre", "Arc de Triomphe"}, rec.Landmarks)
	require.Len(t, b.images, 1)
	assert.Contains(t, b.images[0], "landmark in Paris")
	assert.Empty(t, rec.Places)

	_, err = c.Explore(context.Background(), Settings{}, "museums", paris)
	assert.ErrorIs(t, err, ErrUnknownAction)
}

func TestExplore_ImagesAndLandmarkMarkers(t *testing.T) {
	b := &fakeBackend{
		answer: "1. **Eiffel Tower** - Iron lattice tower with views over the city.\n" +
			"2. **Arc de Triomphe** - Triumphal arch at the top of the avenue.\n" +
			"3. **Louvre** - The largest art museum in the world.\n",
		imageURL: "https://img.example/paris.png",
	}
	imgs := &fakeImages{urls: map[string]string{"Eiffel Tower": "https://upload.wikimedia.org/eiffel.jpg"}}
	locator := &fakeLocator{coords: map[string]models.Coordinates{
		"Eiffel Tower": {Lat: 48.8584, Lon: 2.2945},
		"Louvre":       {Lat: 48.8606, Lon: 2.3376},
	}}
	c := NewConversation(b, nil, WithImages(imgs), WithLocator(locator))

	rec, err := c.Explore(context.Background(), Settings{}, "landmarks", paris)
	require.NoError(t, err)
	assert.Equal(t, "https://img.example/paris.png", rec.ImageURL)

	require.Len(t, rec.Attractions, 3)
	for _, a := range rec.Attractions {
		require.NotNil(t, a.Image, a.Name)
	}
	assert.Equal(t, "https://upload.wikimedia.org/eiffel.jpg", rec.Attractions[0].Image.URL)
	assert.NotNil(t, rec.Attractions[1].Image.Fallback)
	require.Len(t, imgs.queries, 3)
	for _, q := range imgs.queries {
		assert.Equal(t, "Paris", q.Location)
		assert.Equal(t, "landmarks", q.Category)
	}

	assert.Equal(t, []string{"Eiffel Tower", "Arc de Triomphe", "Louvre"}, locator.names)
	assert.Equal(t, "landmarks", locator.category)
	require.Len(t, rec.Places, 2)
	assert.Equal(t, "Eiffel Tower", rec.Places[0].Name)
	assert.Equal(t, 1, rec.Places[0].MarkerNumber)
	assert.Equal(t, "Louvre", rec.Places[1].Name)
	assert.Equal(t, 2, rec.Places[1].MarkerNumber)
	assert.InDelta(t, 6.4, rec.Places[0].DistanceKm, 0.1)
	assert.Positive(t, rec.Places[1].WalkingMinutes)

	assert.False(t, c.busy)
	assert.Len(t, c.History(), 2)
}

func TestExplore_LandmarkGeocodingFailureIsNotFatal(t *testing.T) {
	b := &fakeBackend{answer: "1. **Louvre** - The largest art museum in the world.\n"}
	locator := &fakeLocator{err: context.Canceled}
	c := NewConversation(b, nil, WithLocator(locator))

	rec, err := c.Explore(context.Background(), Settings{}, "landmarks", paris)
	require.NoError(t, err)
	assert.Len(t, rec.Attractions, 1)
	assert.Nil(t, rec.Attractions[0].Image)
	assert.Empty(t, rec.Places)
}

func TestLocationPrompt(t *testing.T) {
	require.Len(t, Actions(), 6)
	for _, action := range Actions() {
		p, err := LocationPrompt(action, "Lisbon")
		require.NoError(t, err, action)
		assert.Contains(t, p.Text, "Lisbon")
		assert.Contains(t, p.Text, "**Name**")
		assert.Contains(t, p.Image, "Lisbon")
		assert.NotEmpty(t, p.Title)
	}
}

func TestParseAttractions_Limit(t *testing.T) {
	var sb strings.Builder
	for i := 1; i <= 7; i++ {
		sb.WriteString(string(rune('0'+i)) + ". **Place number " + string(rune('0'+i)) + "** - A description long enough.\n")
	}
	assert.Len(t, ParseAttractions(sb.String()), MaxAttractions)
	assert.Empty(t, ParseAttractions("no list here"))
}

func TestParseLandmarks(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"numbered with colon", "1. Notre Dame: a cathedral\n2. Panthéon: a temple", []string{"Notre Dame", "Panthéon"}},
		{"bullets with bold", "- **Old Town** is nice\n• **Castle Hill** too", []string{"Old Town", "Castle Hill"}},
		{"short names dropped", "1. **Zoo** - fun\n2. **Aquarium** - wet", []string{"Aquarium"}},
		{"nothing", "just prose", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLandmarks(tt.text))
		})
	}
}
