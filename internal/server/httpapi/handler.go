package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/cdsvote/cdsvote/internal/common"
	"github.com/cdsvote/cdsvote/internal/logging"
	"github.com/cdsvote/cdsvote/internal/server/models"
	"github.com/cdsvote/cdsvote/internal/server/tally"
	"github.com/cdsvote/cdsvote/internal/server/voting"
)

type handler struct {
	voting votingService
	tally  tallyService
	admin  adminService
	export exportService
	subs   subscriber
	logger logging.Logger
}

func (h *handler) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/verify", h.handleVerify)
	mux.HandleFunc("POST /api/vote", h.handleVote)
	mux.HandleFunc("GET /api/ballot", h.handleBallot)
	mux.HandleFunc("GET /api/phase", h.handlePhase)
	mux.HandleFunc("GET /api/tally", h.handleTally)
	mux.HandleFunc("GET /api/tally/stream", h.handleTallyStream)

	mux.HandleFunc("POST /api/admin/login", h.handleAdminLogin)
	mux.HandleFunc("PUT /api/admin/phase", h.requireAdmin(h.handleAdminSetPhase))
	mux.HandleFunc("POST /api/admin/export", h.requireAdmin(h.handleAdminExport))
	mux.HandleFunc("GET /api/admin/audit", h.requireAdmin(h.handleAdminAudit))
	mux.HandleFunc("GET /api/admin/turnout", h.requireAdmin(h.handleAdminTurnout))

	return mux
}

// ---- response plumbing ----

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError maps service errors onto HTTP codes. Infrastructure failures
// read as 503 so clients can retry; everything else is a client problem.
func (h *handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, common.ErrorValidation):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, common.ErrorUnauthorized), errors.Is(err, common.ErrInvalidToken):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
	case errors.Is(err, common.ErrorNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
	default:
		h.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err.Error())
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "temporary failure, please retry"})
	}
}

// statusHTTPCode maps the stable voting reason codes onto HTTP statuses.
func statusHTTPCode(st voting.Status) int {
	switch st {
	case voting.StatusOk:
		return http.StatusOK
	case voting.StatusVotingClosed, voting.StatusAlreadyVoted:
		return http.StatusConflict
	case voting.StatusNotRegistered, voting.StatusCommitteeMember, voting.StatusAdminIneligible:
		return http.StatusForbidden
	case voting.StatusInvalidCandidate:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed request body"})
		return false
	}
	return true
}

// ---- voter surface ----

type verifyRequest struct {
	StateCode string `json:"state_code"`
}

type positionResponse struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	ElectionOrder int    `json:"election_order"`
}

type verifyResponse struct {
	Status    string             `json:"status"`
	Reason    string             `json:"reason,omitempty"`
	Voted     []string           `json:"voted,omitempty"`
	Remaining []positionResponse `json:"remaining,omitempty"`
	Complete  bool               `json:"complete"`
}

func (h *handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if !decodeBody(w, r, &req) {
		return
	}

	v, err := h.voting.VerifyVoter(r.Context(), req.StateCode)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	resp := verifyResponse{
		Status:   string(v.Status),
		Reason:   v.Reason,
		Voted:    v.Voted,
		Complete: v.Complete,
	}
	for _, p := range v.Remaining {
		resp.Remaining = append(resp.Remaining, positionResponse{
			ID:            p.ID,
			Name:          p.Name,
			ElectionOrder: p.ElectionOrder,
		})
	}

	writeJSON(w, statusHTTPCode(v.Status), resp)
}

type voteRequest struct {
	StateCode   string `json:"state_code"`
	PositionID  string `json:"position_id"`
	CandidateID string `json:"candidate_id"`
}

type voteResponse struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

func (h *handler) handleVote(w http.ResponseWriter, r *http.Request) {
	var req voteRequest
	if !decodeBody(w, r, &req) {
		return
	}

	res, err := h.voting.CastVote(r.Context(), req.StateCode, req.PositionID, req.CandidateID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, statusHTTPCode(res.Status), voteResponse{
		Status: string(res.Status),
		Reason: res.Reason,
	})
}

type candidateResponse struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
	Mantra   string `json:"mantra,omitempty"`
}

type ballotPositionResponse struct {
	Position   positionResponse    `json:"position"`
	Candidates []candidateResponse `json:"candidates"`
}

func (h *handler) handleBallot(w http.ResponseWriter, r *http.Request) {
	ballot, err := h.voting.Ballot(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	resp := make([]ballotPositionResponse, 0, len(ballot))
	for _, bp := range ballot {
		entry := ballotPositionResponse{
			Position: positionResponse{
				ID:            bp.Position.ID,
				Name:          bp.Position.Name,
				ElectionOrder: bp.Position.ElectionOrder,
			},
			Candidates: make([]candidateResponse, 0, len(bp.Candidates)),
		}
		for _, c := range bp.Candidates {
			entry.Candidates = append(entry.Candidates, candidateResponse{
				ID:       c.ID,
				FullName: c.FullName,
				Mantra:   c.Mantra,
			})
		}
		resp = append(resp, entry)
	}

	writeJSON(w, http.StatusOK, resp)
}

type phaseResponse struct {
	ApplicationsOpen bool `json:"applications_open"`
	VotingOpen       bool `json:"voting_open"`
}

func (h *handler) handlePhase(w http.ResponseWriter, r *http.Request) {
	ph, err := h.voting.Phase(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, phaseResponse{
		ApplicationsOpen: ph.ApplicationsOpen,
		VotingOpen:       ph.VotingOpen,
	})
}

// ---- tally surface ----

type candidateTallyResponse struct {
	CandidateID string `json:"candidate_id"`
	FullName    string `json:"full_name"`
	Votes       int64  `json:"votes"`
}

type positionTallyResponse struct {
	PositionID   string                   `json:"position_id"`
	PositionName string                   `json:"position_name"`
	TotalVotes   int64                    `json:"total_votes"`
	Candidates   []candidateTallyResponse `json:"candidates"`
	Leader       *candidateTallyResponse  `json:"leader,omitempty"`
}

type tallyResponse struct {
	GeneratedAt    time.Time               `json:"generated_at"`
	EligibleVoters int64                   `json:"eligible_voters"`
	TotalVotes     int64                   `json:"total_votes"`
	Positions      []positionTallyResponse `json:"positions"`
}

func tallyToResponse(snap *tally.Snapshot) tallyResponse {
	resp := tallyResponse{
		GeneratedAt:    snap.GeneratedAt,
		EligibleVoters: snap.EligibleVoters,
		TotalVotes:     snap.TotalVotes,
		Positions:      make([]positionTallyResponse, 0, len(snap.Positions)),
	}
	for _, p := range snap.Positions {
		pt := positionTallyResponse{
			PositionID:   p.PositionID,
			PositionName: p.PositionName,
			TotalVotes:   p.TotalVotes,
			Candidates:   make([]candidateTallyResponse, 0, len(p.Candidates)),
		}
		for _, c := range p.Candidates {
			pt.Candidates = append(pt.Candidates, candidateTallyResponse{
				CandidateID: c.CandidateID,
				FullName:    c.FullName,
				Votes:       c.Votes,
			})
		}
		if p.Leader != nil {
			pt.Leader = &candidateTallyResponse{
				CandidateID: p.Leader.CandidateID,
				FullName:    p.Leader.FullName,
				Votes:       p.Leader.Votes,
			}
		}
		resp.Positions = append(resp.Positions, pt)
	}
	return resp
}

func (h *handler) handleTally(w http.ResponseWriter, r *http.Request) {
	snap, err := h.tally.Build(r.Context(), r.URL.Query().Get("position_id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tallyToResponse(snap))
}

// ---- admin surface ----

type loginRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

func (h *handler) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	token, err := h.admin.Login(r.Context(), req.Name, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{Token: token})
}

type setPhaseRequest struct {
	Phase string `json:"phase"`
	Open  bool   `json:"open"`
}

func (h *handler) handleAdminSetPhase(w http.ResponseWriter, r *http.Request) {
	var req setPhaseRequest
	if !decodeBody(w, r, &req) {
		return
	}

	key := models.PhaseKey(req.Phase)
	if key != models.PhaseApplications && key != models.PhaseVoting {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "unknown phase"})
		return
	}

	ph, err := h.admin.SetPhase(r.Context(), adminFromContext(r.Context()), key, req.Open)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, phaseResponse{
		ApplicationsOpen: ph.ApplicationsOpen,
		VotingOpen:       ph.VotingOpen,
	})
}

type exportResponse struct {
	Key         string `json:"key"`
	DownloadURL string `json:"download_url"`
	Rows        int    `json:"rows"`
}

func (h *handler) handleAdminExport(w http.ResponseWriter, r *http.Request) {
	res, err := h.export.Export(r.Context(), adminFromContext(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, exportResponse{
		Key:         res.Key,
		DownloadURL: res.DownloadURL,
		Rows:        res.Rows,
	})
}

type auditEntryResponse struct {
	ID        string          `json:"id"`
	AdminName string          `json:"admin_name"`
	Action    string          `json:"action"`
	Details   json.RawMessage `json:"details,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

func (h *handler) handleAdminAudit(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "limit must be a non-negative integer"})
			return
		}
		limit = n
	}

	entries, err := h.admin.Audit(r.Context(), limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	resp := make([]auditEntryResponse, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, auditEntryResponse{
			ID:        e.ID,
			AdminName: e.AdminName,
			Action:    e.Action,
			Details:   e.Details,
			CreatedAt: e.CreatedAt,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

type turnoutResponse struct {
	CastVotes      int64 `json:"cast_votes"`
	EligibleVoters int64 `json:"eligible_voters"`
}

func (h *handler) handleAdminTurnout(w http.ResponseWriter, r *http.Request) {
	cast, eligible, err := h.tally.Turnout(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, turnoutResponse{CastVotes: cast, EligibleVoters: eligible})
}
