package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePlatform(t *testing.T) {
	tests := []struct {
		in      string
		want    Platform
		wantErr bool
	}{
		{"x", PlatformX, false},
		{"x (twitter)", PlatformX, false},
		{"  Twitter ", PlatformX, false},
		{"INSTAGRAM", PlatformInstagram, false},
		{"linkedin", PlatformLinkedIn, false},
		{"facebook", PlatformFacebook, false},
		{"myspace", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePlatform(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizePlatforms_DedupesAndDropsUnknown(t *testing.T) {
	got, dropped := NormalizePlatforms([]string{"x (twitter)", "instagram", "x", "tiktok", "Instagram"})

	assert.Equal(t, []Platform{PlatformX, PlatformInstagram}, got)
	assert.Equal(t, []string{"tiktok"}, dropped)
}

func TestNormalizeHashtags(t *testing.T) {
	got := NormalizeHashtags([]string{"#golang", "  ##go ", "", "#", "plain"})
	assert.Equal(t, []string{"golang", "go", "plain"}, got)
}

func TestGenerationResult_UnmarshalFoldsAliases(t *testing.T) {
	body := `{"platforms": {
		"x (twitter)": {"content": "short and sweet", "hashtags": ["#go", "dev"]},
		"linkedin": {"content": "long form", "hashtags": []},
		"myspace": {"content": "ignored", "hashtags": []}
	}}`

	var resp GenerateResponse
	require.NoError(t, json.Unmarshal([]byte(body), &resp))

	require.Len(t, resp.Platforms, 2)
	x := resp.Platforms[PlatformX]
	assert.Equal(t, PlatformX, x.Platform)
	assert.Equal(t, "short and sweet", x.Content)
	assert.Equal(t, []string{"go", "dev"}, x.Hashtags)
	assert.Equal(t, PlatformLinkedIn, resp.Platforms[PlatformLinkedIn].Platform)
}

func TestGenerationResult_PlatformsAndMissing(t *testing.T) {
	res := GenerationResult{
		PlatformFacebook: {Platform: PlatformFacebook},
		PlatformX:        {Platform: PlatformX},
	}

	assert.Equal(t, []Platform{PlatformFacebook, PlatformX}, res.Platforms(PlatformFacebook, PlatformInstagram))
	assert.Equal(t, []Platform{PlatformX, PlatformFacebook}, res.Platforms())
	assert.Equal(t, []Platform{PlatformInstagram}, res.Missing([]Platform{PlatformX, PlatformInstagram}))
}

func TestPost_UnmarshalListItem(t *testing.T) {
	body := `{
		"_id": "65f0c0ffee",
		"prompt": "launch day",
		"platforms": ["x (twitter)", "facebook"],
		"createdAt": "2024-03-01T12:30:00.000Z",
		"content": {"facebook": {"content": "We launched!", "hashtags": ["launch"]}}
	}`

	var p Post
	require.NoError(t, json.Unmarshal([]byte(body), &p))

	assert.Equal(t, "65f0c0ffee", p.ID)
	assert.Equal(t, "launch day", p.Prompt)
	assert.Equal(t, []Platform{PlatformX, PlatformFacebook}, p.Platforms)
	assert.Equal(t, time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC), p.CreatedAt.UTC())

	// x was requested but not generated: only facebook is rendered.
	cards := p.Cards()
	require.Len(t, cards, 1)
	assert.Equal(t, PlatformFacebook, cards[0].Platform)
}

func TestPost_UnmarshalDetailWithoutIDOrTimestamp(t *testing.T) {
	var p Post
	require.NoError(t, json.Unmarshal([]byte(`{"prompt": "p", "platforms": ["x"]}`), &p))

	assert.Empty(t, p.ID)
	assert.True(t, p.CreatedAt.IsZero())
	assert.NotNil(t, p.Content)
	assert.Empty(t, p.Cards())
}

func TestPost_RoundTripThroughJSON(t *testing.T) {
	in := Post{
		ID:        "abc",
		Prompt:    "hello",
		Platforms: []Platform{PlatformInstagram},
		Content: GenerationResult{
			PlatformInstagram: {Platform: PlatformInstagram, Content: "hi", Hashtags: []string{"a"}},
		},
		CreatedAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	data, err := json.Marshal(in)
	require.NoError(t, err)

	var out Post
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in.ID, out.ID)
	assert.Equal(t, in.Platforms, out.Platforms)
	assert.Equal(t, in.Content, out.Content)
	assert.True(t, in.CreatedAt.Equal(out.CreatedAt))
}

func TestUserUpdate_Empty(t *testing.T) {
	assert.True(t, UserUpdate{}.Empty())
	name := "n"
	assert.False(t, UserUpdate{Name: &name}.Empty())
}

func TestNormalizeContent(t *testing.T) {
	got := NormalizeContent(map[string]PlatformContent{
		"LinkedIn":    {Content: "pro", Hashtags: []string{"#work", " ", "##team"}},
		"myspace":     {Content: "gone"},
		"x (twitter)": {Content: "short"},
	})

	assert.Len(t, got, 2)
	assert.Equal(t, PlatformLinkedIn, got[PlatformLinkedIn].Platform)
	assert.Equal(t, []string{"work", "team"}, got[PlatformLinkedIn].Hashtags)
	assert.Equal(t, "short", got[PlatformX].Content)
}
