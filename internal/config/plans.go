package config

// Plan is one entry of the subscription catalog.
type Plan struct {
	ID           string   `yaml:"id" json:"id"`
	Name         string   `yaml:"name" json:"name"`
	Description  string   `yaml:"description" json:"description"`
	Price        float64  `yaml:"price" json:"price"`
	DurationDays int      `yaml:"duration_days" json:"durationDays"`
	Role         string   `yaml:"role" json:"role,omitempty"` // granted on activation to users with role "user"
	Features     []string `yaml:"features" json:"features"`
}

func DefaultPlans() []Plan {
	return []Plan{
		{
			ID:           "etudiant",
			Name:         "Étudiant",
			Description:  "Accès aux offres et candidatures illimitées",
			Price:        1000,
			DurationDays: 30,
			Role:         "etudiant",
			Features:     []string{"job_applications", "forum", "cv_generator"},
		},
		{
			ID:           "annonceur",
			Name:         "Annonceur",
			Description:  "Publication d'annonces sur la marketplace",
			Price:        5000,
			DurationDays: 30,
			Role:         "annonceur",
			Features:     []string{"marketplace_listings", "forum"},
		},
		{
			ID:           "recruteur",
			Name:         "Recruteur",
			Description:  "Publication d'offres d'emploi et gestion des candidatures",
			Price:        9000,
			DurationDays: 30,
			Role:         "recruteur",
			Features:     []string{"job_postings", "marketplace_listings", "forum"},
		},
	}
}

// FindPlan looks a plan up by id.
func (c *Config) FindPlan(id string) (Plan, bool) {
	for _, p := range c.Subscriptions.Plans {
		if p.ID == id {
			return p, true
		}
	}
	return Plan{}, false
}
