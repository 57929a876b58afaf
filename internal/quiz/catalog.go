package quiz

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// QuestionsPerTrait is the number of items each trait must carry.
const QuestionsPerTrait = 10

type Question struct {
	Trait    Trait  `json:"trait" yaml:"trait"`
	Text     string `json:"text" yaml:"text"`
	Reversed bool   `json:"-" yaml:"reversed"`
}

// Catalog is an ordered, read-only questionnaire. Question indexes are
// positions in this list.
type Catalog struct {
	questions []Question
}

func NewCatalog(qs []Question) (Catalog, error) {
	c := Catalog{questions: append([]Question(nil), qs...)}
	if err := c.Validate(); err != nil {
		return Catalog{}, err
	}
	return c, nil
}

func (c Catalog) Len() int { return len(c.questions) }

func (c Catalog) Question(i int) Question { return c.questions[i] }

// Questions returns a copy so callers cannot mutate the catalog.
func (c Catalog) Questions() []Question {
	return append([]Question(nil), c.questions...)
}

func (c Catalog) Validate() error {
	counts := map[Trait]int{}
	for i, q := range c.questions {
		if !q.Trait.Valid() {
			return fmt.Errorf("question %d: unknown trait %q", i, q.Trait)
		}
		counts[q.Trait]++
	}
	for _, t := range Traits {
		if counts[t] != QuestionsPerTrait {
			return fmt.Errorf("trait %s: want %d questions, got %d", t, QuestionsPerTrait, counts[t])
		}
	}
	return nil
}

// LoadCatalogYAML reads a catalog of the form
//
//	questions:
//	  - {trait: openness, text: "...", reversed: false}
func LoadCatalogYAML(r io.Reader) (Catalog, error) {
	var doc struct {
		Questions []Question `yaml:"questions"`
	}
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return Catalog{}, fmt.Errorf("decode catalog: %w", err)
	}
	return NewCatalog(doc.Questions)
}

// LoadCatalogFile loads path, or returns the default catalog when path is empty.
func LoadCatalogFile(path string) (Catalog, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return Catalog{}, err
	}
	defer f.Close()
	return LoadCatalogYAML(f)
}

// DefaultCatalog is the 50-item questionnaire, 10 per trait.
func DefaultCatalog() Catalog {
	return Catalog{questions: append([]Question(nil), defaultQuestions...)}
}

var defaultQuestions = []Question{
	{Openness, "I enjoy exploring unfamiliar ideas.", false},
	{Openness, "I actively seek new experiences.", false},
	{Openness, "I dislike trying new things.", true},
	{Openness, "Abstract thinking appeals to me.", false},
	{Openness, "I avoid unconventional viewpoints.", true},
	{Openness, "I like creative problem solving.", false},
	{Openness, "I prefer routine over novelty.", true},
	{Openness, "Art, music or literature interest me.", false},
	{Openness, "I question traditions and norms.", false},
	{Openness, "I’m uncomfortable with ambiguity.", true},

	{Conscientiousness, "I plan tasks before starting.", false},
	{Conscientiousness, "I leave things to the last minute.", true},
	{Conscientiousness, "I keep things organized.", false},
	{Conscientiousness, "I stick to schedules I set.", false},
	{Conscientiousness, "I’m careless with details.", true},
	{Conscientiousness, "I finish what I start.", false},
	{Conscientiousness, "I struggle to follow through.", true},
	{Conscientiousness, "I prepare carefully.", false},
	{Conscientiousness, "I often misplace things.", true},
	{Conscientiousness, "I like having clear structure.", false},

	{Extraversion, "I feel energized by social events.", false},
	{Extraversion, "I prefer being alone most of the time.", true},
	{Extraversion, "I’m talkative around new people.", false},
	{Extraversion, "I avoid the spotlight.", true},
	{Extraversion, "I seek excitement and activity.", false},
	{Extraversion, "I feel drained by group conversations.", true},
	{Extraversion, "I easily start conversations.", false},
	{Extraversion, "I keep to myself in groups.", true},
	{Extraversion, "I like being the center of attention.", false},
	{Extraversion, "I find it hard to express myself verbally.", true},

	{Agreeableness, "I try to see things from others’ perspectives.", false},
	{Agreeableness, "I enjoy competition more than cooperation.", true},
	{Agreeableness, "I am considerate and kind to most people.", false},
	{Agreeableness, "I am skeptical of people’s motives.", true},
	{Agreeableness, "I forgive people who have wronged me.", false},
	{Agreeableness, "I prioritize my needs over others’ feelings.", true},
	{Agreeableness, "I avoid hurting others’ feelings.", false},
	{Agreeableness, "I’m blunt even if it upsets people.", true},
	{Agreeableness, "I value harmony in groups.", false},
	{Agreeableness, "I hold grudges.", true},

	{Neuroticism, "I often feel anxious or tense.", false},
	{Neuroticism, "I stay calm in stressful situations.", true},
	{Neuroticism, "My mood changes frequently.", false},
	{Neuroticism, "I rarely worry about things.", true},
	{Neuroticism, "I’m easily irritated.", false},
	{Neuroticism, "I bounce back quickly after setbacks.", true},
	{Neuroticism, "I often feel overwhelmed.", false},
	{Neuroticism, "I keep emotions steady most days.", true},
	{Neuroticism, "I’m sensitive to stress.", false},
	{Neuroticism, "I rarely feel nervous.", true},
}
