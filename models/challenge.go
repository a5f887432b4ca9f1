package models

import "time"

// Challenge is one entry of the static daily challenge table. Challenges are
// code-defined and recomputed per request; nothing is persisted.
type Challenge struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Points      int    `json:"points"`
}

var dailyChallenges = []Challenge{
	{Title: "Hydration Hero", Description: "Drink 8 glasses of water today.", Points: 20},
	{Title: "Sugar Swap", Description: "Swap one sugary soda for a healthy alternative like lemon water or unsweetened tea.", Points: 30},
	{Title: "Move Your Body", Description: "Do 20 minutes of light exercise like walking or stretching.", Points: 25},
	{Title: "Mindful Sipping", Description: "Take a moment to read the ingredients list on a beverage you drink today.", Points: 15},
	{Title: "Fruit Power", Description: "Eat one whole fruit instead of drinking a packaged juice.", Points: 25},
	{Title: "Share the Knowledge", Description: "Share one health fact you learned from SipWise with a friend or family member.", Points: 20},
	{Title: "Early Bird Hydration", Description: "Drink a glass of water within 10 minutes of waking up.", Points: 15},
}

// ChallengeForDay selects the challenge for the calendar day of t:
// day-of-year modulo table size, so every call on the same date agrees.
func ChallengeForDay(t time.Time) Challenge {
	return dailyChallenges[t.YearDay()%len(dailyChallenges)]
}
