package domain

// SeedQuotes returns the built-in collection used when nothing has been persisted.
// A fresh slice is returned on every call so callers may mutate it.
func SeedQuotes() []Quote {
	return []Quote{
		{
			Text:     "The only way to do great work is to love what you do.",
			Author:   "Steve Jobs",
			Category: "motivation",
		},
		{
			Text:     "Life is what happens when you're busy making other plans.",
			Author:   "John Lennon",
			Category: "life",
		},
		{
			Text:     "The future belongs to those who believe in the beauty of their dreams.",
			Author:   "Eleanor Roosevelt",
			Category: "inspiration",
		},
		{
			Text:     "Success is not final, failure is not fatal: it is the courage to continue that counts.",
			Author:   "Winston Churchill",
			Category: "success",
		},
		{
			Text:     "The journey of a thousand miles begins with one step.",
			Author:   "Lao Tzu",
			Category: "wisdom",
		},
	}
}
