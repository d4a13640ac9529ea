package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/cors"

	"cetpredict/internal/predict"
)

// Server exposes the eligibility index over HTTP. The index is read-only
// after construction, so one instance serves all requests without locking.
type Server struct {
	index       *predict.Index
	branchNames map[string]string
}

func New(index *predict.Index, branchNames map[string]string) *Server {
	if branchNames == nil {
		branchNames = map[string]string{}
	}
	return &Server{index: index, branchNames: branchNames}
}

// Handler wires the routes and the CORS layer.
func (s *Server) Handler(allowedOrigins []string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /courses", s.handleCourses)
	mux.HandleFunc("GET /categories", s.handleCategories)
	mux.HandleFunc("GET /branches", s.handleBranches)
	mux.HandleFunc("GET /predict", s.handlePredict)

	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet},
	})
	return c.Handler(mux)
}

func (s *Server) handleCourses(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.index.Courses())
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.index.Categories(r.URL.Query().Get("course")))
}

func (s *Server) handleBranches(w http.ResponseWriter, r *http.Request) {
	codes := s.index.Branches(r.URL.Query().Get("course"))
	out := make([]string, 0, len(codes))
	for _, code := range codes {
		out = append(out, s.branchDisplay(code))
	}
	writeJSON(w, http.StatusOK, out)
}

type flatResult struct {
	Code        string `json:"code"`
	CollegeName string `json:"college_name"`
	Course      string `json:"course"`
	Branch      string `json:"branch"`
	BranchFull  string `json:"branch_full"`
	CutoffRank  int    `json:"cutoff_rank"`
}

type groupedBranch struct {
	Branch     string `json:"branch"`
	BranchFull string `json:"branch_full"`
	CutoffRank int    `json:"cutoff_rank"`
}

type groupedResult struct {
	Code        string          `json:"code"`
	CollegeName string          `json:"college_name"`
	Branches    []groupedBranch `json:"branches"`
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	rank, err := strconv.Atoi(q.Get("rank"))
	if err != nil || rank <= 0 {
		writeDetail(w, http.StatusBadRequest, "rank must be a positive integer")
		return
	}

	params := predict.Params{
		Course:   strings.TrimSpace(q.Get("course")),
		Category: strings.TrimSpace(q.Get("category")),
		Branch:   strings.TrimSpace(q.Get("branch")),
		Rank:     rank,
	}

	if params.Branch != "" {
		records, err := s.index.Query(params)
		if err != nil {
			writeQueryError(w, err)
			return
		}
		out := make([]flatResult, 0, len(records))
		for _, rec := range records {
			out = append(out, flatResult{
				Code:        rec.CollegeCode,
				CollegeName: rec.CollegeName,
				Course:      rec.Course,
				Branch:      rec.Branch,
				BranchFull:  s.branchFull(rec.Branch),
				CutoffRank:  rec.CutoffRank,
			})
		}
		writeJSON(w, http.StatusOK, out)
		return
	}

	groups, err := s.index.GroupedQuery(params)
	if err != nil {
		writeQueryError(w, err)
		return
	}
	out := make([]groupedResult, 0, len(groups))
	for _, g := range groups {
		branches := make([]groupedBranch, 0, len(g.Branches))
		for _, b := range g.Branches {
			branches = append(branches, groupedBranch{
				Branch:     b.Branch,
				BranchFull: s.branchFull(b.Branch),
				CutoffRank: b.CutoffRank,
			})
		}
		out = append(out, groupedResult{Code: g.CollegeCode, CollegeName: g.CollegeName, Branches: branches})
	}
	writeJSON(w, http.StatusOK, out)
}

// branchFull falls back to the bare code when the lookup has no entry.
func (s *Server) branchFull(code string) string {
	if full, ok := s.branchNames[code]; ok && full != "" {
		return full
	}
	return code
}

func (s *Server) branchDisplay(code string) string {
	full := s.branchNames[code]
	return strings.TrimSpace(code + " " + full)
}

func writeQueryError(w http.ResponseWriter, err error) {
	var unknownCategory predict.UnknownCategoryError
	var unknownBranch predict.UnknownBranchError
	var unknownCourse predict.UnknownCourseError
	if errors.As(err, &unknownCategory) || errors.As(err, &unknownBranch) || errors.As(err, &unknownCourse) {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}
	writeDetail(w, http.StatusInternalServerError, err.Error())
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
