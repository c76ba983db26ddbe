package handler

import (
	"strconv"

	"github.com/sourzer/sourzer-web/internal/domain"
	"github.com/sourzer/sourzer-web/internal/form"
)

// FormIDField is the hidden input that ties a POST to its form instance.
const FormIDField = "form_id"

// =============================================================================
// Login
// =============================================================================

// LoginField names an input of the admin login form.
type LoginField string

const (
	LoginUsername LoginField = "username"
	LoginPassword LoginField = "password"
)

// LoginSchema validates the admin login form.
func LoginSchema() form.Schema[LoginField] {
	return form.Schema[LoginField]{
		{Name: LoginUsername, Label: "Username", Rule: form.Required("Username is required")},
		{Name: LoginPassword, Label: "Password", Rule: form.Required("Password is required"), Secret: true},
	}
}

// =============================================================================
// Waitlist
// =============================================================================

// WaitlistField names an input of the waitlist form.
type WaitlistField string

const (
	WaitlistName        WaitlistField = "name"
	WaitlistEmail       WaitlistField = "email"
	WaitlistPhone       WaitlistField = "phone_number"
	WaitlistCountry     WaitlistField = "country"
	WaitlistCountryCode WaitlistField = "country_code"
	WaitlistCompany     WaitlistField = "company_name"
	WaitlistRegChannel  WaitlistField = "reg_channel"
)

// WaitlistSchema validates the waitlist form. country_code is filled from
// the phone number and has no rule of its own.
func WaitlistSchema() form.Schema[WaitlistField] {
	return form.Schema[WaitlistField]{
		{Name: WaitlistName, Label: "Name", Rule: form.MinLength(2, "Username must be at least 2 characters.")},
		{Name: WaitlistEmail, Label: "Email", Rule: form.Email("Please enter a valid email address.")},
		{Name: WaitlistPhone, Label: "Phone number", Rule: form.Optional(form.MinLength(10, "Phone number must be at least 10 digits."))},
		{Name: WaitlistCountry, Label: "Country", Rule: form.MinLength(2, "Country must be at least 2 characters.")},
		{Name: WaitlistCountryCode, Label: "Country code"},
		{Name: WaitlistCompany, Label: "Company name", Rule: form.Optional(form.MinLength(2, "Company name must be at least 2 characters."))},
		{Name: WaitlistRegChannel, Label: "How did you hear about us?", Rule: form.Optional(form.MinLength(2, "Please specify how you heard about us."))},
	}
}

func waitlistSubmission(v form.Values[WaitlistField]) domain.WaitlistSubmission {
	return domain.WaitlistSubmission{
		Name:        v.Get(WaitlistName),
		Email:       v.Get(WaitlistEmail),
		PhoneNumber: v.Get(WaitlistPhone),
		Country:     v.Get(WaitlistCountry),
		CountryCode: v.Get(WaitlistCountryCode),
		CompanyName: v.Get(WaitlistCompany),
		RegChannel:  v.Get(WaitlistRegChannel),
	}
}

// =============================================================================
// Blog
// =============================================================================

// BlogField names an input of the blog editor.
type BlogField string

const (
	BlogID           BlogField = "blog_id"
	BlogTitle        BlogField = "title"
	BlogSummary      BlogField = "summary"
	BlogBody         BlogField = "body"
	BlogCategoryID   BlogField = "blogCategoryId"
	BlogCreatedBy    BlogField = "created_by"
	BlogPosition     BlogField = "created_by_position"
	BlogProfileImage BlogField = "created_by_profile_image"
	BlogTeam         BlogField = "team"
	BlogImageURL     BlogField = "image_url"
)

// SummaryMaxLength is the longest summary the editor accepts.
const SummaryMaxLength = 120

// BlogSchema validates the blog editor. blog_id is the hidden id of the
// post being edited.
func BlogSchema() form.Schema[BlogField] {
	return form.Schema[BlogField]{
		{Name: BlogID, Label: "Blog"},
		{Name: BlogTitle, Label: "Title", Rule: form.Required("Title is required")},
		{Name: BlogCategoryID, Label: "Category", Rule: form.PositiveInt("Blog category is required")},
		{Name: BlogCreatedBy, Label: "Author", Rule: form.Required("Created by is required")},
		{Name: BlogPosition, Label: "Position", Rule: form.Required("Position is required")},
		{Name: BlogTeam, Label: "Team", Rule: form.Required("Team is required")},
		{Name: BlogProfileImage, Label: "Profile image", Rule: form.URL("Must be a valid URL")},
		{Name: BlogSummary, Label: "Summary", Rule: form.All(
			form.Required("Summary is required"),
			form.MaxLength(SummaryMaxLength, "Summary must be 120 characters or less"),
		)},
		{Name: BlogBody, Label: "Body", Rule: form.Required("Body is required")},
		{Name: BlogImageURL, Label: "Cover image", Rule: form.URL("Must be a valid URL")},
	}
}

func blogParams(v form.Values[BlogField]) domain.CreateBlogParams {
	categoryID, _ := strconv.Atoi(v.Get(BlogCategoryID))
	return domain.CreateBlogParams{
		Title:                 v.Get(BlogTitle),
		Summary:               v.Get(BlogSummary),
		ImageURL:              v.Get(BlogImageURL),
		CreatedBy:             v.Get(BlogCreatedBy),
		Team:                  v.Get(BlogTeam),
		CreatedByPosition:     v.Get(BlogPosition),
		CreatedByProfileImage: v.Get(BlogProfileImage),
		Body:                  v.Get(BlogBody),
		BlogCategoryID:        categoryID,
	}
}

// =============================================================================
// Category
// =============================================================================

// CategoryField names an input of the category dialog.
type CategoryField string

const (
	CategoryID          CategoryField = "category_id"
	CategoryName        CategoryField = "name"
	CategoryDescription CategoryField = "description"
)

// CategorySchema validates the category dialog. category_id is the hidden id
// of the category being edited.
func CategorySchema() form.Schema[CategoryField] {
	return form.Schema[CategoryField]{
		{Name: CategoryID, Label: "Category"},
		{Name: CategoryName, Label: "Name", Rule: form.Required("Name is required")},
		{Name: CategoryDescription, Label: "Description", Rule: form.Required("Description is required")},
	}
}

func categoryParams(v form.Values[CategoryField]) domain.CategoryParams {
	return domain.CategoryParams{
		Name:        v.Get(CategoryName),
		Description: v.Get(CategoryDescription),
	}
}

// =============================================================================
// View model
// =============================================================================

// FormView is what templates need to render one form instance.
type FormView struct {
	ID          string
	Values      map[string]string
	Errors      map[string]string
	ServerError string
}

// Value returns the value of a field.
func (v FormView) Value(name string) string { return v.Values[name] }

// Error returns the validation message of a field.
func (v FormView) Error(name string) string { return v.Errors[name] }

// emptyView is a fresh form with initial values.
func emptyView(initial map[string]string) FormView {
	if initial == nil {
		initial = map[string]string{}
	}
	return FormView{ID: form.NewID(), Values: initial, Errors: map[string]string{}}
}

// viewOf snapshots a controller. Secret fields are never echoed back.
func viewOf[F ~string, R any](id string, c *form.Controller[F, R], schema form.Schema[F]) FormView {
	values, errs, serverErr := c.Snapshot()
	out := FormView{
		ID:          id,
		Values:      make(map[string]string, len(values)),
		Errors:      errs.Strings(),
		ServerError: serverErr,
	}
	for name, value := range values {
		if f, ok := schema.Lookup(name); ok && f.Secret {
			continue
		}
		out.Values[string(name)] = value
	}
	return out
}
