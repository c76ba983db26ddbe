// Package domain contains core business types shared by the service, handler
// and client layers.
//
// This file defines the blog types exchanged with the remote content API.
package domain

import (
	"strconv"
	"time"
)

// Blog is a blog post as returned by the remote API.
type Blog struct {
	ID                    int          `json:"id"`
	Title                 string       `json:"title"`
	Slug                  string       `json:"slug"`
	Summary               string       `json:"summary"`
	Body                  string       `json:"body"`
	ImageURL              string       `json:"image_url"`
	CreatedBy             string       `json:"created_by"`
	Team                  string       `json:"team"`
	ViewCount             int          `json:"view_count"`
	Active                bool         `json:"active"`
	CreatedByPosition     string       `json:"created_by_position"`
	CreatedByProfileImage string       `json:"created_by_profile_image"`
	CreatedAt             time.Time    `json:"createdAt"`
	UpdatedAt             time.Time    `json:"updatedAt"`
	Category              BlogCategory `json:"blogCategory"`
}

// AuthorInitial returns the first letter of the author's name for avatar fallbacks.
func (b *Blog) AuthorInitial() string {
	for _, r := range b.CreatedBy {
		return string(r)
	}
	return "?"
}

// BlogCategory groups blog posts.
type BlogCategory struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// BlogPage is one page of the paginated blog listing.
type BlogPage struct {
	Blogs    []Blog `json:"blogs"`
	Total    int    `json:"total"`
	Page     int    `json:"page"`
	LastPage int    `json:"lastPage"`
}

// HasNext reports whether a following page exists.
func (p BlogPage) HasNext() bool {
	return p.Page < p.LastPage
}

// HasPrev reports whether a preceding page exists.
func (p BlogPage) HasPrev() bool {
	return p.Page > 1
}

// CreateBlogParams is the body of POST /blogs.
type CreateBlogParams struct {
	Title                 string `json:"title"`
	Summary               string `json:"summary"`
	ImageURL              string `json:"image_url"`
	CreatedBy             string `json:"created_by"`
	Team                  string `json:"team"`
	CreatedByPosition     string `json:"created_by_position"`
	CreatedByProfileImage string `json:"created_by_profile_image"`
	Body                  string `json:"body"`
	BlogCategoryID        int    `json:"blogCategoryId"`
}

// UpdateBlogParams is the body of PUT /blogs/{id}. The category of an existing
// post cannot be changed, so blogCategoryId is never sent.
type UpdateBlogParams struct {
	Title                 string `json:"title"`
	Summary               string `json:"summary"`
	ImageURL              string `json:"image_url"`
	CreatedBy             string `json:"created_by"`
	Team                  string `json:"team"`
	CreatedByPosition     string `json:"created_by_position"`
	CreatedByProfileImage string `json:"created_by_profile_image"`
	Body                  string `json:"body"`
}

// UpdateParams drops the server-assigned and immutable fields.
func (p CreateBlogParams) UpdateParams() UpdateBlogParams {
	return UpdateBlogParams{
		Title:                 p.Title,
		Summary:               p.Summary,
		ImageURL:              p.ImageURL,
		CreatedBy:             p.CreatedBy,
		Team:                  p.Team,
		CreatedByPosition:     p.CreatedByPosition,
		CreatedByProfileImage: p.CreatedByProfileImage,
		Body:                  p.Body,
	}
}

// CategoryParams is the body of POST and PUT /blog-categories.
type CategoryParams struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// BlogFormValues converts a stored post into form values for the edit screen.
func BlogFormValues(b *Blog) map[string]string {
	values := map[string]string{
		"title":                    b.Title,
		"summary":                  b.Summary,
		"body":                     b.Body,
		"created_by":               b.CreatedBy,
		"created_by_position":      b.CreatedByPosition,
		"created_by_profile_image": b.CreatedByProfileImage,
		"team":                     b.Team,
		"image_url":                b.ImageURL,
	}
	if b.Category.ID > 0 {
		values["blogCategoryId"] = strconv.Itoa(b.Category.ID)
	}
	return values
}
