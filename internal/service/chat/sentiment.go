package chat

import (
	"strings"
	"unicode"
)

// Moods assigned to messages from the lexicon score. Thresholds: a score
// above 2 is happy, below -2 is sad, any other negative score is angry,
// everything else is neutral.
const (
	MoodHappy   = "happy"
	MoodSad     = "sad"
	MoodAngry   = "angry"
	MoodNeutral = "neutral"
)

// sentimentLexicon is an AFINN-style valence table: word -> score in
// [-5, 5]. Deliberately small; the relay only needs a coarse mood tag.
var sentimentLexicon = map[string]int{
	"abandon": -2, "abuse": -3, "accept": 1, "admire": 3, "adore": 3,
	"afraid": -2, "aggressive": -2, "agree": 1, "alone": -2, "amazing": 4,
	"angry": -3, "annoy": -2, "annoyed": -2, "anxious": -2, "appreciate": 2,
	"argue": -2, "awesome": 4, "awful": -3, "bad": -3, "beautiful": 3,
	"best": 3, "better": 2, "bless": 2, "bored": -2, "boring": -3,
	"brilliant": 4, "broken": -1, "calm": 2, "celebrate": 3, "cheerful": 2,
	"confused": -2, "congratulations": 2, "cool": 1, "crash": -2, "cry": -1,
	"crying": -2, "cute": 2, "damn": -4, "dead": -3, "delight": 3,
	"delighted": 3, "depressed": -2, "disappointed": -2, "disaster": -2,
	"disgusting": -3, "dislike": -2, "dreadful": -3, "dumb": -3, "easy": 1,
	"enjoy": 2, "evil": -3, "excellent": 3, "excited": 3, "fail": -2,
	"failure": -2, "fantastic": 4, "fear": -2, "fine": 2, "fun": 4,
	"funny": 4, "furious": -3, "glad": 3, "good": 3, "great": 3,
	"grief": -2, "happy": 3, "hate": -3, "hated": -3, "hates": -3,
	"heartbroken": -3, "hell": -4, "help": 2, "helpless": -2, "hopeful": 2,
	"horrible": -3, "hug": 2, "hurt": -2, "idiot": -3, "ignore": -1,
	"incredible": 4, "interesting": 2, "joy": 3, "kill": -3, "kind": 2,
	"laugh": 1, "like": 2, "lol": 3, "lonely": -2, "lose": -3,
	"loser": -3, "lost": -3, "love": 3, "loved": 3, "lovely": 3,
	"loves": 3, "lucky": 3, "mad": -3, "miss": -1, "missed": -1,
	"nervous": -2, "nice": 3, "no": -1, "pain": -2, "peace": 2,
	"perfect": 3, "please": 1, "pleased": 3, "poor": -2, "pretty": 1,
	"problem": -2, "proud": 2, "rage": -2, "regret": -2, "relax": 2,
	"sad": -2, "scared": -2, "scary": -2, "shame": -2, "shit": -4,
	"sick": -2, "smile": 2, "sorry": -1, "strong": 2, "stupid": -2,
	"success": 2, "suck": -3, "sucks": -3, "sweet": 2, "terrible": -3,
	"terrific": 4, "thank": 2, "thanks": 2, "tired": -2, "true": 2,
	"trust": 1, "ugly": -3, "upset": -2, "useless": -2, "want": 1,
	"welcome": 2, "win": 4, "winner": 4, "wonderful": 4, "worry": -3,
	"worried": -3, "worst": -3, "wow": 4, "wrong": -2, "yes": 1,
}

// SentimentScore sums lexicon valences over the message tokens
func SentimentScore(text string) int {
	score := 0
	for _, token := range tokenize(text) {
		score += sentimentLexicon[token]
	}
	return score
}

// MoodFor maps a sentiment score to a mood tag
func MoodFor(score int) string {
	switch {
	case score > 2:
		return MoodHappy
	case score < -2:
		return MoodSad
	case score < 0:
		return MoodAngry
	default:
		return MoodNeutral
	}
}

// AnalyzeMood scores a message and returns its mood tag
func AnalyzeMood(text string) string {
	return MoodFor(SentimentScore(text))
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}
