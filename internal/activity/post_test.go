package activity

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPostBuild(t *testing.T) {
	now := time.Date(2026, time.March, 3, 21, 15, 0, 0, time.FixedZone("KST", 9*3600))

	p, err := NewPost{
		UserID:      "alice",
		Content:     "  shipped the streak sweep  ",
		Category:    " Coding ",
		DurationMin: 45,
		LinkURL:     "https://example.com/pr/1",
	}.Build(now)
	require.NoError(t, err)

	_, err = uuid.Parse(p.ID)
	assert.NoError(t, err)
	assert.Equal(t, "shipped the streak sweep", p.Content)
	assert.Equal(t, "coding", p.Category)
	assert.Equal(t, time.UTC, p.CreatedAt.Location())
	assert.True(t, p.CreatedAt.Equal(now))
}

func TestNewPostValidation(t *testing.T) {
	base := NewPost{UserID: "alice", Content: "notes", Category: "study"}

	cases := map[string]func(*NewPost){
		"missing user":     func(p *NewPost) { p.UserID = "" },
		"blank content":    func(p *NewPost) { p.Content = "   " },
		"missing category": func(p *NewPost) { p.Category = "" },
		"negative minutes": func(p *NewPost) { p.DurationMin = -5 },
		"bad link":         func(p *NewPost) { p.LinkURL = "not a url" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := base
			mutate(&in)
			_, err := in.Build(time.Now())
			require.ErrorIs(t, err, ErrInvalidPost)
		})
	}
}
