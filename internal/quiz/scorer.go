package quiz

import "fmt"

// Answers maps a question index to a Likert response in [1,5].
type Answers map[int]int

// AnswersFromSlice indexes a positional answer list. Zero means unanswered.
func AnswersFromSlice(vs []int) Answers {
	a := make(Answers, len(vs))
	for i, v := range vs {
		if v != 0 {
			a[i] = v
		}
	}
	return a
}

// MissingAnswerError reports that at least one question has no response.
type MissingAnswerError struct {
	First   int // index of the first unanswered question
	Missing int
}

func (e *MissingAnswerError) Error() string {
	return "please answer all questions"
}

type InvalidAnswerError struct {
	Index int
	Value int
}

func (e *InvalidAnswerError) Error() string {
	return fmt.Sprintf("question %d: response %d out of range [%d,%d]", e.Index+1, e.Value, minResponse, maxResponse)
}

type Result struct {
	Averages map[Trait]float64 `json:"averages"`
	Levels   map[Trait]Level   `json:"levels"`
	Code     Code              `json:"code"`
}

// Scorer turns a complete answer set into a personality code. It holds no
// mutable state; the catalog is fixed at construction.
type Scorer struct {
	catalog Catalog
}

func NewScorer(c Catalog) *Scorer { return &Scorer{catalog: c} }

func (s *Scorer) Catalog() Catalog { return s.catalog }

// Reverse flips a response for a reverse-keyed item.
func Reverse(v int) int { return minResponse + maxResponse - v }

func (s *Scorer) Score(a Answers) (Result, error) {
	missing, first := 0, -1
	for i := 0; i < s.catalog.Len(); i++ {
		v, ok := a[i]
		if !ok {
			missing++
			if first < 0 {
				first = i
			}
			continue
		}
		if v < minResponse || v > maxResponse {
			return Result{}, &InvalidAnswerError{Index: i, Value: v}
		}
	}
	if missing > 0 {
		return Result{}, &MissingAnswerError{First: first, Missing: missing}
	}

	sums := map[Trait]int{}
	counts := map[Trait]int{}
	for i, q := range s.catalog.questions {
		v := a[i]
		if q.Reversed {
			v = Reverse(v)
		}
		sums[q.Trait] += v
		counts[q.Trait]++
	}

	res := Result{
		Averages: make(map[Trait]float64, len(Traits)),
		Levels:   make(map[Trait]Level, len(Traits)),
	}
	for _, t := range Traits {
		if counts[t] == 0 {
			return Result{}, fmt.Errorf("trait %s has no questions", t)
		}
		avg := float64(sums[t]) / float64(counts[t])
		res.Averages[t] = avg
		res.Levels[t] = Bucket(avg)
	}
	res.Code = ComposeCode(res.Levels)
	return res, nil
}
