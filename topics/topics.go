// Package topics generates varied business scenarios for video content when
// live topic research is unavailable. Every concept follows the same arc:
// problem, solution, call to action.
package topics

import (
	"fmt"
	"math/rand"
	"strings"
	"time"
)

// Problem is one business pain point with its on-screen title.
type Problem struct {
	Title    string
	Scenario string
	Pain     string
}

// CTA is one call-to-action variation.
type CTA struct {
	Hook    string
	Action  string
	Urgency string
}

// Concept is a complete fallback video concept.
type Concept struct {
	BusinessType string
	Location     string
	Problem      Problem
	Solution     string
	CTA          CTA
	Topic        string
}

var businessTypes = []string{
	"restaurant",
	"retail store",
	"medical practice",
	"real estate agency",
	"hotel",
	"dental office",
	"law firm",
	"spa and salon",
	"auto repair shop",
	"construction company",
	"accounting firm",
	"gym and fitness center",
	"coffee shop",
	"property management company",
}

var locations = []string{"Honolulu", "Maui", "Kauai", "Big Island", "Oahu"}

var problems = []Problem{
	{"DROWNING IN PAPERWORK", "overwhelmed by manual data entry and paper documents piling up everywhere", "spending hours on administrative tasks instead of serving customers"},
	{"LOSING CUSTOMERS", "struggling to respond to customer inquiries fast enough", "customers leaving negative reviews about slow response times"},
	{"SCHEDULING NIGHTMARE", "juggling appointments and double-bookings constantly", "losing revenue from scheduling conflicts and no-shows"},
	{"INVENTORY CHAOS", "running out of stock or over-ordering products", "wasting money on excess inventory or losing sales from stockouts"},
	{"NO ONLINE PRESENCE", "competitors dominating online while you're invisible", "potential customers can't find you and going to competitors instead"},
	{"OVERWHELMED BY CALLS", "phone ringing non-stop with the same questions", "staff exhausted answering repetitive calls instead of important work"},
	{"MANUAL INVOICING", "creating invoices by hand and chasing payments", "cash flow problems from late payments and billing errors"},
	{"ZERO MARKETING", "no time or knowledge to market your business effectively", "relying only on word-of-mouth while competitors steal market share"},
	{"DATA DISASTER", "important business data scattered across spreadsheets and notebooks", "making decisions blindly without real insights into your business"},
	{"HIRING HEADACHES", "spending weeks screening unqualified candidates", "positions staying empty while your team burns out from overwork"},
}

var solutions = []string{
	"AI-powered automation handling repetitive tasks instantly",
	"intelligent chatbots responding to customers 24/7",
	"smart scheduling preventing conflicts automatically",
	"predictive inventory management optimizing stock levels",
	"AI-generated content boosting your online visibility",
	"a virtual assistant answering common questions automatically",
	"automated billing and payment reminders",
	"AI marketing campaigns targeting ideal customers",
	"a real-time analytics dashboard showing key business metrics",
	"AI candidate screening finding perfect hires faster",
}

var ctas = []CTA{
	{"READY FOR CHANGE?", "Book Your Free AI Consultation", "Limited Spots Available This Month"},
	{"TRANSFORM YOUR BUSINESS", "Get Your Custom AI Strategy", "Free Analysis - No Commitment"},
	{"DON'T FALL BEHIND", "Start Your AI Journey Today", "Your Competitors Already Are"},
	{"IMAGINE THE FREEDOM", "Schedule Your AI Demo Now", "See Results In 30 Days"},
	{"STOP STRUGGLING", "Let AI Do The Heavy Lifting", "Free Trial - Risk Free"},
}

// Generator produces fallback concepts. The zero value is not usable; call
// New (random seed) or NewSeeded (reproducible output for tests).
type Generator struct {
	rng *rand.Rand
}

func New() *Generator {
	return NewSeeded(time.Now().UnixNano())
}

func NewSeeded(seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

// GenerateConcept picks one business, problem, solution and CTA at random.
func (g *Generator) GenerateConcept() Concept {
	business := businessTypes[g.rng.Intn(len(businessTypes))]
	problem := problems[g.rng.Intn(len(problems))]
	solution := solutions[g.rng.Intn(len(solutions))]
	cta := ctas[g.rng.Intn(len(ctas))]
	location := locations[g.rng.Intn(len(locations))]

	return Concept{
		BusinessType: business,
		Location:     location,
		Problem:      problem,
		Solution:     solution,
		CTA:          cta,
		Topic:        conceptTopic(business, location, solution),
	}
}

// GenerateBatch returns count concepts with no repeated business/problem
// pairing.
func (g *Generator) GenerateBatch(count int) []Concept {
	seen := make(map[string]bool)
	var concepts []Concept
	for len(concepts) < count {
		c := g.GenerateConcept()
		key := c.BusinessType + "|" + c.Problem.Title
		if seen[key] {
			continue
		}
		seen[key] = true
		concepts = append(concepts, c)
	}
	return concepts
}

// FallbackTopic returns a usable topic title when topic research failed.
// A non-empty category pins the business type; anything else is random.
func (g *Generator) FallbackTopic(category string) string {
	business := strings.TrimSpace(category)
	if business == "" {
		business = businessTypes[g.rng.Intn(len(businessTypes))]
	}
	location := locations[g.rng.Intn(len(locations))]
	solution := solutions[g.rng.Intn(len(solutions))]
	return conceptTopic(business, location, solution)
}

func conceptTopic(business, location, solution string) string {
	return fmt.Sprintf("How a %s in %s wins with %s", business, location, solution)
}

// VoiceoverScript renders the concept's narration in the standard arc.
func (c Concept) VoiceoverScript(companyName, phone, website string) string {
	return fmt.Sprintf(
		"Are you a %s owner in Hawaii %s? You're not alone. But there's a better way. "+
			"%s, that's what %s brings to Hawaii businesses like yours. "+
			"%s. Call %s or visit %s. %s.",
		c.BusinessType, c.Problem.Pain,
		upperFirst(c.Solution), companyName,
		c.CTA.Action, phone, website, c.CTA.Urgency)
}

func upperFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
