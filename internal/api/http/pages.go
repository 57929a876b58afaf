package http

import (
	"encoding/json"
	"html/template"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	auth "github.com/mind-engage/mindengage-bigfive/internal/auth/middleware"
	"github.com/mind-engage/mindengage-bigfive/internal/gate"
	"github.com/mind-engage/mindengage-bigfive/internal/metrics"
	"github.com/mind-engage/mindengage-bigfive/internal/quiz"
	"github.com/mind-engage/mindengage-bigfive/internal/session"
	syncx "github.com/mind-engage/mindengage-bigfive/internal/sync"
)

var pages = template.Must(template.New("layout").Funcs(template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}).Parse(`
{{define "head"}}<!doctype html>
<html lang="en"><head><meta charset="utf-8"><title>Big Five Archetypes</title>
<style>
  #report-container { opacity: 0; transition: opacity .6s ease-in; }
  #report-container.visible { opacity: 1; }
  .hidden { display: none; }
</style></head><body>{{end}}
{{define "foot"}}</body></html>{{end}}

{{define "quiz"}}{{template "head"}}
<h1>Big Five Personality Test</h1>
<form id="quiz" method="post" action="/quiz">
{{- range $i, $q := .Questions}}
  <fieldset class="question"><legend>{{inc $i}}. {{$q.Text}}</legend>
  {{- range $v := $.Scale}}
    <label><input type="radio" name="q{{$i}}" value="{{$v}}"> {{$v}}</label>
  {{- end}}
  </fieldset>
{{- end}}
{{- if .Error}}<p class="error">{{.Error}}</p>{{end}}
  <button type="submit">See my result</button>
</form>
{{template "foot"}}{{end}}

{{define "result"}}{{template "head"}}
<h1>Your code</h1>
<p class="code">{{.Code}}</p>
<table class="averages">
{{- range .Rows}}
  <tr><th>{{.Trait}}</th><td>{{printf "%.1f" .Average}}</td><td>{{.Level}}</td></tr>
{{- end}}
</table>
<p><a class="buy" href="/create-checkout-session">Unlock the detailed report</a></p>
<form class="free" method="get" action="/report">
  <input type="hidden" name="code" value="{{.Code}}">
  <label>Free code <input name="free" maxlength="8"></label>
  <button type="submit">Redeem</button>
</form>
<p><a href="/subtype">Refine with a subtype</a></p>
{{template "foot"}}{{end}}

{{define "report"}}{{template "head"}}
<div id="gate" class="{{if .Shown}}hidden{{end}}">{{if not .Shown}}{{.Body}}{{end}}</div>
<div id="report-container" class="{{if .Shown}}visible{{end}}">{{if .Shown}}{{.Body}}{{end}}</div>
{{- if .Shown}}
<p><a href="/api/download-report">Download report</a></p>
{{- end}}
{{template "foot"}}{{end}}

{{define "subtype"}}{{template "head"}}
<h1>Subtype</h1>
<form id="subForm" method="post" action="/subtype">
{{- range .Traits}}
  <label>{{.Name}} <select name="{{.Letter}}">
    <option value="L">L</option><option value="M" selected>M</option><option value="H">H</option>
  </select></label>
{{- end}}
  <button id="submitSub" type="submit">Get subtype</button>
</form>
{{- if .Sub}}
<p id="subResult">Subtype code: <strong>{{.Sub}}</strong><br><a href="{{.Link}}">View Detailed Report</a></p>
{{- end}}
{{template "foot"}}{{end}}
`))

func render(w http.ResponseWriter, status int, name string, data any, log *zap.Logger) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := pages.ExecuteTemplate(w, name, data); err != nil {
		log.Error("render page", zap.String("page", name), zap.Error(err))
	}
}

type quizView struct {
	Questions []quiz.Question
	Scale     []int
	Error     string
}

// GET /
func QuizPageHandler(c quiz.Catalog, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render(w, http.StatusOK, "quiz", quizView{Questions: c.Questions(), Scale: []int{1, 2, 3, 4, 5}}, log)
	}
}

type resultRow struct {
	Trait   string
	Average float64
	Level   quiz.Level
}

// POST /quiz  (form fields q0..qN)
func QuizSubmitHandler(sc *quiz.Scorer, sessions session.Store, events *syncx.EventRepo, m *metrics.Metrics, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		c := sc.Catalog()
		answers := make(quiz.Answers, c.Len())
		for i := 0; i < c.Len(); i++ {
			if v, err := strconv.Atoi(r.PostForm.Get("q" + strconv.Itoa(i))); err == nil {
				answers[i] = v
			}
		}
		res, err := sc.Score(answers)
		if err != nil {
			render(w, http.StatusBadRequest, "quiz", quizView{Questions: c.Questions(), Scale: []int{1, 2, 3, 4, 5}, Error: "Please answer all questions."}, log)
			return
		}
		sid := auth.SessionIDFromContext(r.Context())
		if err := saveCode(r, sessions, events, sid, res.Code); err != nil {
			log.Error("persist code", zap.String("session", sid), zap.Error(err))
			http.Error(w, "could not save result", http.StatusInternalServerError)
			return
		}
		m.CodeScored(string(res.Code))

		rows := make([]resultRow, 0, len(quiz.Traits))
		for _, t := range quiz.Traits {
			rows = append(rows, resultRow{Trait: string(t), Average: res.Averages[t], Level: res.Levels[t]})
		}
		render(w, http.StatusOK, "result", map[string]any{"Code": res.Code, "Rows": rows}, log)
	}
}

// GateFactory builds the access gate for one incoming request.
type GateFactory func(r *http.Request) *gate.Gate

// InProcessGate verifies against the local stores for the caller's session.
func InProcessGate(a *Access, opts ...gate.Option) GateFactory {
	return func(r *http.Request) *gate.Gate {
		sa := a.For(auth.SessionIDFromContext(r.Context()))
		return gate.New(sa, sa, sa, append([]gate.Option{gate.WithSession(sa)}, opts...)...)
	}
}

// GET /report?session_id=&code=&sub=&free=
func ReportPageHandler(newGate GateFactory, events *syncx.EventRepo, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := gate.FromURL(r.URL, r.Referer())
		out := newGate(r).Run(r.Context(), req)

		if events != nil {
			sid := auth.SessionIDFromContext(r.Context())
			if err := events.Record(r.Context(), syncx.TypeGateDecision, sid, map[string]any{
				"state": out.State, "via": out.Via, "code": req.Code,
			}); err != nil {
				log.Warn("event log append failed", zap.Error(err))
			}
		}

		status := http.StatusOK
		switch out.State {
		case gate.StateDenied:
			status = http.StatusForbidden
		case gate.StateError:
			status = http.StatusBadGateway
		}
		render(w, status, "report", map[string]any{
			"Shown": out.State == gate.StateShown,
			// Gate markup is either fixed text or renderer output.
			"Body": template.HTML(out.HTML),
		}, log)
	}
}

type subtypeTrait struct {
	Name   string
	Letter string
}

func subtypeTraits() []subtypeTrait {
	out := make([]subtypeTrait, 0, len(quiz.Traits))
	for _, t := range quiz.Traits {
		out = append(out, subtypeTrait{Name: string(t), Letter: t.Letter()})
	}
	return out
}

func mainCode(r *http.Request, sessions session.Store) quiz.Code {
	s, err := sessions.Get(r.Context(), auth.SessionIDFromContext(r.Context()))
	if err != nil {
		return quiz.NeutralCode
	}
	return ReportCode(s, "")
}

// GET|POST /subtype
func SubtypePageHandler(sessions session.Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := map[string]any{"Traits": subtypeTraits()}
		if r.Method == http.MethodPost {
			if err := r.ParseForm(); err != nil {
				http.Error(w, "bad form", http.StatusBadRequest)
				return
			}
			f := r.PostForm
			sub := quiz.Subtype{O: f.Get("O"), C: f.Get("C"), E: f.Get("E"), A: f.Get("A"), N: f.Get("N")}.Code()
			data["Sub"] = sub
			data["Link"] = quiz.SubtypeLink(mainCode(r, sessions), sub)
		}
		render(w, http.StatusOK, "subtype", data, log)
	}
}

// POST /api/subtype  { "O": "H", "C": "L", ... }
func SubtypeHandler(sessions session.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var st quiz.Subtype
		if err := json.NewDecoder(r.Body).Decode(&st); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		main := mainCode(r, sessions)
		sub := st.Code()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"code": string(main),
			"sub":  sub,
			"link": quiz.SubtypeLink(main, sub),
		})
	}
}
