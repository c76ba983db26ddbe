// Package content holds the static copy of the marketing site and the fixed
// lists used by the blog editor. It is read from an embedded YAML document.
package content

import (
	_ "embed"
	"fmt"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed site.yaml
var siteYAML []byte

// NavItem is one entry of the top navigation.
type NavItem struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// Price holds the displayed price per billing frequency. Non-numeric values
// such as "Custom" are shown as-is.
type Price struct {
	Monthly string `yaml:"monthly"`
	Yearly  string `yaml:"yearly"`
}

// For returns the price for frequency, defaulting to monthly.
func (p Price) For(frequency string) string {
	if frequency == FrequencyYearly {
		return p.Yearly
	}
	return p.Monthly
}

// Tier is a pricing plan.
type Tier struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	Price       Price    `yaml:"price"`
	Description string   `yaml:"description"`
	Features    []string `yaml:"features"`
	CTA         string   `yaml:"cta"`
	Popular     bool     `yaml:"popular"`
	Highlighted bool     `yaml:"highlighted"`
}

// Feature is one step of the product walkthrough.
type Feature struct {
	Step    string `yaml:"step"`
	Title   string `yaml:"title"`
	Content string `yaml:"content"`
	Image   string `yaml:"image"`
}

// NetworkTab is one tab of the talent network section.
type NetworkTab struct {
	Value       string `yaml:"value"`
	Label       string `yaml:"label"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
}

// Network is the talent network section.
type Network struct {
	Heading     string       `yaml:"heading"`
	Description string       `yaml:"description"`
	Tabs        []NetworkTab `yaml:"tabs"`
}

// FAQ is a question and its answer.
type FAQ struct {
	Question string `yaml:"question"`
	Answer   string `yaml:"answer"`
}

// Contact is the footer contact block.
type Contact struct {
	Address []string `yaml:"address"`
	Phone   string   `yaml:"phone"`
	Email   string   `yaml:"email"`
}

// Author is a selectable blog author. Picking one fills the position, team
// and profile image fields of the blog form.
type Author struct {
	Name     string `yaml:"name"`
	Position string `yaml:"position"`
	Team     string `yaml:"team"`
	Image    string `yaml:"image"`
}

// Billing frequencies of the pricing toggle.
const (
	FrequencyMonthly = "monthly"
	FrequencyYearly  = "yearly"
)

// Site is the whole content document.
type Site struct {
	Nav                []NavItem `yaml:"nav"`
	PaymentFrequencies []string  `yaml:"payment_frequencies"`
	Tiers              []Tier    `yaml:"tiers"`
	Features           []Feature `yaml:"features"`
	Network            Network   `yaml:"network"`
	FAQ                []FAQ     `yaml:"faq"`
	Contact            Contact   `yaml:"contact"`
	Teams              []string  `yaml:"teams"`
	Positions          []string  `yaml:"positions"`
	Authors            []Author  `yaml:"authors"`
}

// Load parses the embedded document.
func Load() (*Site, error) {
	return Parse(siteYAML)
}

// MustLoad is Load for program start-up.
func MustLoad() *Site {
	s, err := Load()
	if err != nil {
		panic(err)
	}
	return s
}

// Parse decodes a content document and checks that the editor lists are
// consistent.
func Parse(data []byte) (*Site, error) {
	var s Site
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("content: decode: %w", err)
	}
	if len(s.PaymentFrequencies) == 0 {
		s.PaymentFrequencies = []string{FrequencyMonthly, FrequencyYearly}
	}

	seen := make(map[string]bool, len(s.Authors))
	for _, a := range s.Authors {
		name := strings.TrimSpace(a.Name)
		if name == "" {
			return nil, fmt.Errorf("content: author without a name")
		}
		if seen[name] {
			return nil, fmt.Errorf("content: duplicate author %q", name)
		}
		seen[name] = true
		if a.Team != "" && !slices.Contains(s.Teams, a.Team) {
			return nil, fmt.Errorf("content: author %q has unknown team %q", name, a.Team)
		}
		// Authors may hold positions outside the editor list; offer them too.
		if a.Position != "" && !slices.Contains(s.Positions, a.Position) {
			s.Positions = append(s.Positions, a.Position)
		}
	}
	return &s, nil
}

// AuthorByName finds an author by exact name.
func (s *Site) AuthorByName(name string) (Author, bool) {
	for _, a := range s.Authors {
		if a.Name == name {
			return a, true
		}
	}
	return Author{}, false
}

// Frequency normalizes a requested billing frequency.
func (s *Site) Frequency(requested string) string {
	if slices.Contains(s.PaymentFrequencies, requested) {
		return requested
	}
	return FrequencyMonthly
}
