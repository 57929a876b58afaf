package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	auth "github.com/mind-engage/mindengage-bigfive/internal/auth/middleware"
	"github.com/mind-engage/mindengage-bigfive/internal/metrics"
	"github.com/mind-engage/mindengage-bigfive/internal/quiz"
	"github.com/mind-engage/mindengage-bigfive/internal/session"
	syncx "github.com/mind-engage/mindengage-bigfive/internal/sync"
)

// GET /api/questions
func QuestionsHandler(c quiz.Catalog) http.HandlerFunc {
	type item struct {
		Index int        `json:"index"`
		Trait quiz.Trait `json:"trait"`
		Text  string     `json:"text"`
	}
	items := make([]item, 0, c.Len())
	for i, q := range c.Questions() {
		items = append(items, item{Index: i, Trait: q.Trait, Text: q.Text})
	}
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"questions": items})
	}
}

// scoreRequest accepts either a positional list or an index map.
type scoreRequest struct {
	Answers json.RawMessage `json:"answers"`
}

func (s scoreRequest) decode() (quiz.Answers, error) {
	var list []int
	if err := json.Unmarshal(s.Answers, &list); err == nil {
		return quiz.AnswersFromSlice(list), nil
	}
	var m map[int]int
	if err := json.Unmarshal(s.Answers, &m); err != nil {
		return nil, err
	}
	return quiz.Answers(m), nil
}

// POST /api/score  { "answers": [ ...50 ints... ] }
func ScoreHandler(sc *quiz.Scorer, sessions session.Store, events *syncx.EventRepo, m *metrics.Metrics, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req scoreRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Answers) == 0 {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		answers, err := req.decode()
		if err != nil {
			http.Error(w, "bad answers", http.StatusBadRequest)
			return
		}
		res, err := sc.Score(answers)
		if err != nil {
			var missing *quiz.MissingAnswerError
			if errors.As(err, &missing) {
				http.Error(w, "Please answer all questions.", http.StatusBadRequest)
				return
			}
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		sid := auth.SessionIDFromContext(r.Context())
		if err := saveCode(r, sessions, events, sid, res.Code); err != nil {
			log.Error("persist code", zap.String("session", sid), zap.Error(err))
			http.Error(w, "could not save result", http.StatusInternalServerError)
			return
		}
		m.CodeScored(string(res.Code))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(res)
	}
}

// POST /api/set-latest-code  { "code": "..." }
func SetLatestCodeHandler(sessions session.Store, events *syncx.EventRepo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Code string `json:"code"`
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Code == "" {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "error": "No code provided"})
			return
		}
		code, err := quiz.ParseCode(req.Code)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "error": "Invalid code"})
			return
		}
		if err := saveCode(r, sessions, events, auth.SessionIDFromContext(r.Context()), code); err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(map[string]any{"success": false})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true})
	}
}

func saveCode(r *http.Request, sessions session.Store, events *syncx.EventRepo, sid string, code quiz.Code) error {
	if err := sessions.SetLatestCode(r.Context(), sid, string(code)); err != nil {
		return err
	}
	if events != nil {
		return events.Record(r.Context(), syncx.TypeCodeSubmitted, sid, map[string]string{"code": string(code)})
	}
	return nil
}
