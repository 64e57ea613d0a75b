// Package chatbot answers free-text travel questions from a fixed, ordered
// table of keyword rules.
//
// Rules are evaluated top to bottom and the first rule with any keyword
// contained in the lower-cased message wins. Order matters: an earlier,
// broader rule shadows a later, more specific one that shares a keyword.
package chatbot

import "strings"

// Fallback is returned when no rule matches.
const Fallback = "Sorry, I didn't quite get that. Try asking about destinations, food, weather, visas, budgets or getting around."

// Rule maps a set of keywords to a canned response.
type Rule struct {
	Name     string
	Keywords []string
	Response string
}

func (r Rule) matches(lowered string) bool {
	for _, kw := range r.Keywords {
		if strings.Contains(lowered, kw) {
			return true
		}
	}
	return false
}

// DefaultRules is the built-in rule table, in priority order.
//
// "paris-food" is unreachable: each of its keywords contains "food" or
// "restaurant", which the earlier "food" rule claims first.
var DefaultRules = []Rule{
	{
		Name:     "greeting",
		Keywords: []string{"hello", "hi there", "hey there", "greetings", "good morning", "good evening"},
		Response: "Hello! I'm your travel assistant. Ask me about destinations, food, weather, visas or budgets.",
	},
	{
		Name:     "thanks",
		Keywords: []string{"thank"},
		Response: "You're welcome! Have a great trip.",
	},
	{
		Name:     "recommend",
		Keywords: []string{"recommend", "suggest", "where should i go", "similar to"},
		Response: "Use the recommender on the home page: type a city you loved and I'll list similar places to visit.",
	},
	{
		Name:     "food",
		Keywords: []string{"food", "restaurant", "cuisine", "dish", "eating"},
		Response: "Trying local food is the best part of travel! Look for busy places full of locals and ask about regional specialities.",
	},
	{
		Name:     "weather",
		Keywords: []string{"weather", "climate", "rainy", "season", "temperature"},
		Response: "Shoulder seasons (spring and autumn) usually offer mild weather and smaller crowds. Check each destination page for the best time to visit.",
	},
	{
		Name:     "visa",
		Keywords: []string{"visa", "passport", "entry requirement"},
		Response: "Visa rules depend on your nationality. Check the official embassy website of your destination well before you book.",
	},
	{
		Name:     "budget",
		Keywords: []string{"budget", "cheap", "cost", "price", "afford"},
		Response: "To travel on a budget: book early, travel off-season, use public transport and stay in guesthouses or hostels.",
	},
	{
		Name:     "accommodation",
		Keywords: []string{"hotel", "hostel", "accommodation", "where to stay", "airbnb"},
		Response: "Stay near public transport in a central neighbourhood. Guesthouses are great value; hotels are best for short city breaks.",
	},
	{
		Name:     "transport",
		Keywords: []string{"flight", "train", "transport", "airport", "metro"},
		Response: "Trains are the most relaxing way to move between nearby cities; for long distances compare flight prices a few weeks ahead.",
	},
	{
		Name:     "safety",
		Keywords: []string{"safe", "danger", "scam", "insurance"},
		Response: "Keep copies of your documents, watch your belongings in crowded places and always buy travel insurance.",
	},
	{
		Name:     "paris",
		Keywords: []string{"paris", "eiffel", "louvre"},
		Response: "Paris: climb the Eiffel Tower at sunset, spend a morning at the Louvre and wander Montmartre. Spring is lovely.",
	},
	{
		Name:     "tokyo",
		Keywords: []string{"tokyo", "shibuya", "japan"},
		Response: "Tokyo: explore Shibuya and Asakusa, take a day trip to Nikko and try a conveyor-belt sushi bar. Visit in spring for cherry blossoms.",
	},
	{
		Name:     "rome",
		Keywords: []string{"rome", "colosseum", "vatican"},
		Response: "Rome: book the Colosseum and Vatican Museums in advance, and toss a coin into the Trevi Fountain.",
	},
	{
		Name:     "paris-food",
		Keywords: []string{"paris food", "food in paris", "paris restaurant"},
		Response: "In Paris try fresh croissants, steak-frites in a bistro and macarons from a local patisserie.",
	},
	{
		Name:     "goodbye",
		Keywords: []string{"bye", "see you"},
		Response: "Goodbye and safe travels!",
	},
}

// Responder evaluates an ordered rule table. The zero value is not usable;
// construct with New.
type Responder struct {
	rules []Rule
}

// New returns a Responder over rules, in the given order. With no rules the
// DefaultRules table is used.
func New(rules ...Rule) *Responder {
	if len(rules) == 0 {
		rules = DefaultRules
	}
	cp := make([]Rule, len(rules))
	for i, r := range rules {
		kws := make([]string, len(r.Keywords))
		for j, kw := range r.Keywords {
			kws[j] = strings.ToLower(kw)
		}
		cp[i] = Rule{Name: r.Name, Keywords: kws, Response: r.Response}
	}
	return &Responder{rules: cp}
}

// Match returns the first rule matching message.
func (r *Responder) Match(message string) (Rule, bool) {
	lowered := strings.ToLower(message)
	for _, rule := range r.rules {
		if rule.matches(lowered) {
			return rule, true
		}
	}
	return Rule{}, false
}

// Reply returns the response of the first matching rule, or Fallback.
func (r *Responder) Reply(message string) string {
	rule, ok := r.Match(message)
	if !ok {
		return Fallback
	}
	return rule.Response
}

// Shadowed returns the names of rules that can never match because every
// one of their keywords contains a keyword of some earlier rule.
func (r *Responder) Shadowed() []string {
	var out []string
	for i, rule := range r.rules {
		if len(rule.Keywords) == 0 {
			out = append(out, rule.Name)
			continue
		}
		hidden := true
		for _, kw := range rule.Keywords {
			if !coveredBy(kw, r.rules[:i]) {
				hidden = false
				break
			}
		}
		if hidden {
			out = append(out, rule.Name)
		}
	}
	return out
}

func coveredBy(keyword string, earlier []Rule) bool {
	for _, rule := range earlier {
		if rule.matches(keyword) {
			return true
		}
	}
	return false
}
