package catalog

import "tour-workers/internal/models"

// SampleTours is the seed catalog of Tunisian day trips and tours.
func SampleTours() []models.Tour {
	return []models.Tour{
		{
			ID:           "1",
			Name:         "Sidi Bou Said & Carthage Discovery",
			Description:  "Explore the iconic blue and white village of Sidi Bou Said and the ancient ruins of Carthage",
			Destinations: []string{"Sidi Bou Said", "Carthage", "Tunis"},
			Duration:     1,
			Price:        120,
			Currency:     "TND",
			Category:     "Cultural",
			Difficulty:   models.DifficultyEasy,
			GroupSize:    models.GroupSizeRange{Min: 2, Max: 15},
			Includes:     []string{"Transportation", "Guide", "Entry fees", "Traditional tea"},
			Highlights:   []string{"Blue and white architecture", "Ancient Carthage ruins", "Mediterranean views"},
			Images:       []string{"/sidi-bou-said-blue-white-buildings-mediterranean-t.jpg"},
			Rating:       4.8,
			ReviewCount:  124,
			Available:    true,
			Seasonality:  []models.Season{models.SeasonSpring, models.SeasonSummer, models.SeasonAutumn},
			Tags:         []string{"culture", "history", "photography", "architecture"},
		},
		{
			ID:           "2",
			Name:         "Sahara Desert Adventure",
			Description:  "3-day desert expedition with camel trekking and overnight camping under the stars",
			Destinations: []string{"Douz", "Sahara Desert", "Tozeur"},
			Duration:     3,
			Price:        450,
			Currency:     "TND",
			Category:     "Adventure",
			Difficulty:   models.DifficultyModerate,
			GroupSize:    models.GroupSizeRange{Min: 4, Max: 12},
			Includes:     []string{"4WD transport", "Camel trekking", "Desert camping", "All meals", "Berber guide"},
			Highlights:   []string{"Camel trekking", "Desert camping", "Sunrise/sunset views", "Berber culture"},
			Images:       []string{"/sahara-desert-tunisia-camels-sand-dunes-sunset.jpg"},
			Rating:       4.9,
			ReviewCount:  89,
			Available:    true,
			Seasonality:  []models.Season{models.SeasonAutumn, models.SeasonWinter, models.SeasonSpring},
			Tags:         []string{"adventure", "desert", "camping", "culture"},
		},
		{
			ID:           "3",
			Name:         "Tunis Medina Cultural Walk",
			Description:  "Guided walking tour through the UNESCO World Heritage Tunis Medina",
			Destinations: []string{"Tunis Medina", "Zitouna Mosque", "Souk"},
			Duration:     0.5,
			Price:        60,
			Currency:     "TND",
			Category:     "Cultural",
			Difficulty:   models.DifficultyEasy,
			GroupSize:    models.GroupSizeRange{Min: 1, Max: 20},
			Includes:     []string{"Professional guide", "Entry fees", "Traditional mint tea"},
			Highlights:   []string{"UNESCO World Heritage site", "Traditional souks", "Islamic architecture"},
			Images:       []string{"/tunis-medina-traditional-souk-market-tunisia-histo.jpg"},
			Rating:       4.6,
			ReviewCount:  156,
			Available:    true,
			Seasonality:  []models.Season{models.SeasonAll},
			Tags:         []string{"culture", "history", "walking", "shopping"},
		},
		{
			ID:           "4",
			Name:         "Hammamet Beach & Spa Retreat",
			Description:  "Relaxing beach day with traditional hammam spa experience",
			Destinations: []string{"Hammamet", "Nabeul"},
			Duration:     1,
			Price:        180,
			Currency:     "TND",
			Category:     "Beach",
			Difficulty:   models.DifficultyEasy,
			GroupSize:    models.GroupSizeRange{Min: 2, Max: 10},
			Includes:     []string{"Beach access", "Hammam session", "Lunch", "Transportation"},
			Highlights:   []string{"Mediterranean beaches", "Traditional spa", "Local pottery visit"},
			Images:       []string{"/hammamet-beach-tunisia-mediterranean-coast.jpg"},
			Rating:       4.7,
			ReviewCount:  92,
			Available:    true,
			Seasonality:  []models.Season{models.SeasonSpring, models.SeasonSummer, models.SeasonAutumn},
			Tags:         []string{"beach", "relaxation", "spa", "wellness"},
		},
		{
			ID:           "5",
			Name:         "Kairouan Holy City Pilgrimage",
			Description:  "Spiritual journey to the fourth holiest city in Islam",
			Destinations: []string{"Kairouan", "Great Mosque", "Aghlabid Basins"},
			Duration:     1,
			Price:        100,
			Currency:     "TND",
			Category:     "Cultural",
			Difficulty:   models.DifficultyEasy,
			GroupSize:    models.GroupSizeRange{Min: 3, Max: 25},
			Includes:     []string{"Transportation", "Guide", "Entry fees", "Traditional lunch"},
			Highlights:   []string{"Great Mosque of Kairouan", "Islamic architecture", "Carpet weaving"},
			Images:       []string{"/kairouan-great-mosque-tunisia-islamic-architecture.jpg"},
			Rating:       4.5,
			ReviewCount:  78,
			Available:    true,
			Seasonality:  []models.Season{models.SeasonAll},
			Tags:         []string{"culture", "religion", "history", "architecture"},
		},
	}
}
