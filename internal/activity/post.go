// Package activity owns dev log posts: the event log every streak and
// challenge figure is derived from.
package activity

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var (
	ErrPostNotFound = errors.New("post not found")
	ErrInvalidPost  = errors.New("invalid post")
)

// Categories offered by the posting form. Other values are accepted.
var Categories = []string{"coding", "study", "review", "design", "writing", "other"}

// Post is a single dev log entry. CreatedAt is the activity event.
type Post struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	Content     string     `json:"content"`
	Category    string     `json:"category"`
	Project     string     `json:"project,omitempty"`
	DurationMin int        `json:"duration_min"`
	LinkURL     string     `json:"link_url,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

// NewPost is the input for creating a post.
type NewPost struct {
	UserID      string `json:"-" validate:"required,max=128"`
	Content     string `json:"content" validate:"required,max=5000"`
	Category    string `json:"category" validate:"required,max=64"`
	Project     string `json:"project" validate:"max=128"`
	DurationMin int    `json:"duration_min" validate:"gte=0,lte=1440"`
	LinkURL     string `json:"link_url" validate:"omitempty,url"`
}

// PostEdit carries the mutable fields of a post.
type PostEdit struct {
	Content     string `json:"content" validate:"required,max=5000"`
	Category    string `json:"category" validate:"required,max=64"`
	Project     string `json:"project" validate:"max=128"`
	DurationMin int    `json:"duration_min" validate:"gte=0,lte=1440"`
	LinkURL     string `json:"link_url" validate:"omitempty,url"`
}

var validate = validator.New()

// Validate checks a struct's validate tags and wraps failures in ErrInvalidPost.
func Validate(v any) error {
	if err := validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", strings.ToLower(fe.Field()), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", ErrInvalidPost, strings.Join(fields, ", "))
		}
		return fmt.Errorf("%w: %v", ErrInvalidPost, err)
	}
	return nil
}

// Build validates in and returns a new post stamped with id and now (UTC).
func (in NewPost) Build(now time.Time) (Post, error) {
	in.Content = strings.TrimSpace(in.Content)
	in.Category = strings.ToLower(strings.TrimSpace(in.Category))
	in.Project = strings.TrimSpace(in.Project)
	if err := Validate(in); err != nil {
		return Post{}, err
	}
	return Post{
		ID:          uuid.NewString(),
		UserID:      in.UserID,
		Content:     in.Content,
		Category:    in.Category,
		Project:     in.Project,
		DurationMin: in.DurationMin,
		LinkURL:     in.LinkURL,
		CreatedAt:   now.UTC(),
	}, nil
}
