package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Aman-CERP/lexdebate/internal/debate"
	lexerr "github.com/Aman-CERP/lexdebate/internal/errors"
	"github.com/Aman-CERP/lexdebate/internal/search"
	"github.com/Aman-CERP/lexdebate/internal/session"
	"github.com/Aman-CERP/lexdebate/pkg/version"
)

func (s *Server) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Legal Debate API is running",
		"version": version.Short(),
		"endpoints": []string{
			"GET /health", "GET /generate_case", "POST /search", "POST /debate",
			"POST /judge_decision", "POST /summarize_verdict", "GET /sessions/:id",
		},
	})
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status     string            `json:"status"`
	Version    version.BuildInfo `json:"version"`
	Uptime     string            `json:"uptime"`
	Generation uint64            `json:"generation"`
	BuiltAt    time.Time         `json:"built_at"`
	Index      search.Stats      `json:"index"`
	Sessions   int               `json:"sessions"`
}

func (s *Server) handleHealth(c *gin.Context) {
	r := s.holder.Load()
	c.JSON(http.StatusOK, HealthResponse{
		Status:     "ok",
		Version:    version.GetInfo(),
		Uptime:     time.Since(s.started).Round(time.Second).String(),
		Generation: s.holder.Generation(),
		BuiltAt:    r.BuiltAt(),
		Index:      r.Stats(),
		Sessions:   s.sessions.Store().Len(),
	})
}

type generateCaseRequest struct {
	Case string `json:"case"`
}

// GenerateCaseResponse is the body of /generate_case.
type GenerateCaseResponse struct {
	Case     debate.Case `json:"case"`
	Scenario string      `json:"scenario"`
}

// handleGenerateCase picks a corpus case. A POST may name its own case
// text, which is echoed back.
func (s *Server) handleGenerateCase(c *gin.Context) {
	var req generateCaseRequest
	if c.Request.Method == http.MethodPost && c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			SendInvalidJSON(c, err)
			return
		}
	}

	gen := s.engine.Generator()
	resp := GenerateCaseResponse{Scenario: gen.Scenario()}
	if text := strings.TrimSpace(req.Case); text != "" {
		resp.Case = debate.Case{ID: "custom", Title: "Custom Case", Text: text, Year: "N/A", Jurisdiction: "Unknown", Tags: []string{}}
	} else {
		resp.Case = gen.GenerateCase(s.holder.Load().Documents())
	}
	c.JSON(http.StatusOK, resp)
}

// SearchRequest is the body of POST /search.
type SearchRequest struct {
	Query        string       `json:"query"`
	K            *int         `json:"k"`
	Hints        search.Hints `json:"hints"`
	CaseType     string       `json:"case_type"`
	Jurisdiction string       `json:"jurisdiction"`
}

func (r SearchRequest) hints() search.Hints {
	h := search.Hints{}
	for k, v := range r.Hints {
		h[k] = v
	}
	if r.CaseType != "" {
		h[search.HintCaseType] = r.CaseType
	}
	if r.Jurisdiction != "" {
		h[search.HintJurisdiction] = r.Jurisdiction
	}
	return h
}

// SearchResponse is the body of a successful POST /search.
type SearchResponse struct {
	Query   string          `json:"query"`
	K       int             `json:"k"`
	Results []search.Result `json:"results"`
	Hints   search.Hints    `json:"hints"`
}

func (s *Server) handleSearch(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		SendInvalidJSON(c, err)
		return
	}

	k := s.cfg.DefaultK
	if req.K != nil {
		k = *req.K
	}
	if k > s.cfg.MaxK {
		SendLexError(c, lexerr.ValidationError(fmt.Sprintf("k must be at most %d", s.cfg.MaxK), nil).
			WithDetail("k", fmt.Sprint(k)))
		return
	}

	resp, err := s.holder.Search(c.Request.Context(), req.Query, k, req.hints())
	if err != nil {
		SendLexError(c, err)
		return
	}
	c.JSON(http.StatusOK, SearchResponse{Query: req.Query, K: k, Results: resp.Results, Hints: resp.Hints})
}

// DebateRequest is the body of POST /debate. Case is either a string or
// an object with title and text.
type DebateRequest struct {
	Case          json.RawMessage `json:"case"`
	Title         string          `json:"title"`
	MetadataHints search.Hints    `json:"metadata_hints"`
}

type caseObject struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

// parseCase returns the title and text of the requested case.
func (r DebateRequest) parseCase() (string, string, error) {
	raw := bytes.TrimSpace(r.Case)
	if len(raw) == 0 || string(raw) == "null" {
		return "", "", lexerr.ValidationError("case is required", nil)
	}
	if raw[0] == '"' {
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return "", "", lexerr.ValidationError("case must be a string or an object", err)
		}
		return r.Title, text, nil
	}
	var obj caseObject
	if err := json.Unmarshal(raw, &obj); err != nil {
		return "", "", lexerr.ValidationError("case must be a string or an object", err)
	}
	title := r.Title
	if title == "" {
		title = obj.Title
	}
	text := obj.Text
	if strings.TrimSpace(text) == "" {
		text = obj.Title
	}
	return title, text, nil
}

// SessionView is how a session is returned to the client.
type SessionView struct {
	SessionID   string          `json:"session_id"`
	Title       string          `json:"title,omitempty"`
	Case        string          `json:"case"`
	Hints       search.Hints    `json:"hints"`
	Precedents  []search.Result `json:"precedents"`
	Prosecution []debate.Turn   `json:"prosecution"`
	Defense     []debate.Turn   `json:"defense"`
	JudgeEvents []debate.Event  `json:"judge_events"`
	Reversed    bool            `json:"role_reversed"`
	Verdict     string          `json:"verdict,omitempty"`
	Summary     string          `json:"summary,omitempty"`
	Closed      bool            `json:"closed"`
	Revision    int             `json:"revision"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func viewOf(sess *session.Session) SessionView {
	d := sess.Debate
	return SessionView{
		SessionID:   sess.ID,
		Title:       sess.Title,
		Case:        d.Case,
		Hints:       d.Hints,
		Precedents:  nonNil(d.Precedents),
		Prosecution: nonNil(d.Prosecution),
		Defense:     nonNil(d.Defense),
		JudgeEvents: nonNil(d.JudgeEvents),
		Reversed:    d.Reversed,
		Verdict:     sess.Verdict,
		Summary:     sess.Summary,
		Closed:      sess.Closed,
		Revision:    sess.Revision,
		CreatedAt:   sess.CreatedAt,
		UpdatedAt:   sess.UpdatedAt,
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func (s *Server) handleDebate(c *gin.Context) {
	var req DebateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		SendInvalidJSON(c, err)
		return
	}
	title, text, err := req.parseCase()
	if err != nil {
		SendLexError(c, err)
		return
	}

	sess, err := s.sessions.Start(c.Request.Context(), title, text, req.MetadataHints)
	if err != nil {
		SendLexError(c, err)
		return
	}
	c.JSON(http.StatusOK, viewOf(sess))
}

// JudgeRequest is the body of POST /judge_decision. Either Action names
// one decision, or the flag fields name several, applied as evidence,
// then role reversal, then next round, then verdict.
type JudgeRequest struct {
	SessionID    string `json:"session_id"`
	Action       string `json:"action"`
	Verdict      string `json:"verdict"`
	NewEvidence  string `json:"new_evidence"`
	RoleReversal bool   `json:"role_reversal"`
	NextRound    bool   `json:"next_round"`
}

func (r JudgeRequest) decisions() []session.Decision {
	if r.Action != "" {
		return []session.Decision{{Action: session.Action(r.Action), Verdict: r.Verdict, Evidence: r.NewEvidence}}
	}
	var out []session.Decision
	if strings.TrimSpace(r.NewEvidence) != "" {
		out = append(out, session.Decision{Action: session.ActionNewEvidence, Evidence: r.NewEvidence})
	}
	if r.RoleReversal {
		out = append(out, session.Decision{Action: session.ActionRoleReversal})
	}
	if r.NextRound {
		out = append(out, session.Decision{Action: session.ActionNextRound})
	}
	if strings.TrimSpace(r.Verdict) != "" {
		out = append(out, session.Decision{Action: session.ActionVerdict, Verdict: r.Verdict})
	}
	return out
}

func (s *Server) handleJudgeDecision(c *gin.Context) {
	var req JudgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		SendInvalidJSON(c, err)
		return
	}
	if strings.TrimSpace(req.SessionID) == "" {
		SendLexError(c, lexerr.ValidationError("session_id is required", nil))
		return
	}

	decisions := req.decisions()
	if len(decisions) == 0 {
		SendLexError(c, lexerr.ValidationError("no decision given", nil).
			WithSuggestion("Set action, or one of verdict, new_evidence, role_reversal, next_round"))
		return
	}

	var sess *session.Session
	for _, dec := range decisions {
		var err error
		if sess, err = s.sessions.Decide(c.Request.Context(), req.SessionID, dec); err != nil {
			SendLexError(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, viewOf(sess))
}

func (s *Server) handleGetSession(c *gin.Context) {
	sess, err := s.sessions.Store().Get(c.Param("id"))
	if err != nil {
		SendLexError(c, err)
		return
	}
	c.JSON(http.StatusOK, viewOf(sess))
}

// SummarizeRequest is the body of POST /summarize_verdict.
type SummarizeRequest struct {
	Case          json.RawMessage `json:"case"`
	Prosecution   []debate.Turn   `json:"prosecution"`
	Defense       []debate.Turn   `json:"defense"`
	JudgeDecision string          `json:"judge_decision"`
	Precedents    []string        `json:"precedents"`
}

func (s *Server) handleSummarizeVerdict(c *gin.Context) {
	var req SummarizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		SendInvalidJSON(c, err)
		return
	}

	var title, text string
	if len(bytes.TrimSpace(req.Case)) > 0 {
		var err error
		if title, text, err = (DebateRequest{Case: req.Case}).parseCase(); err != nil {
			SendLexError(c, err)
			return
		}
	}
	if title == "" {
		title = text
	}

	d := &debate.Debate{Case: text, Prosecution: req.Prosecution, Defense: req.Defense}
	for _, t := range req.Precedents {
		d.Precedents = append(d.Precedents, search.Result{Document: search.Document{Title: t}})
	}
	c.JSON(http.StatusOK, gin.H{"summary": s.engine.Summarize(c.Request.Context(), d, title, req.JudgeDecision)})
}
