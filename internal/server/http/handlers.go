package httpserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid/v5"

	"agora/internal/model"
	"agora/internal/service"
)

// --- request/response payloads ---

type createAssemblyRequest struct {
	Title     string    `json:"title"`
	SignupEnd time.Time `json:"signup_end"`
}

type assemblyResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	SignupEnd time.Time `json:"signup_end"`
}

type candidatePayload struct {
	Moniker     string `json:"moniker"`
	Description string `json:"description,omitempty"`
}

type createBallotRequest struct {
	Title            string             `json:"title"`
	UseBar           bool               `json:"use_bar"`
	AbsQuorum        int                `json:"abs_quorum"`
	RelQuorum        int                `json:"rel_quorum"`
	QuorumMode       string             `json:"quorum_mode"`
	VoteBegin        time.Time          `json:"vote_begin"`
	VoteEnd          time.Time          `json:"vote_end"`
	VoteExtensionEnd *time.Time         `json:"vote_extension_end,omitempty"`
	Candidates       []candidatePayload `json:"candidates"`
}

type ballotResponse struct {
	ID               string             `json:"id"`
	AssemblyID       string             `json:"assembly_id"`
	Title            string             `json:"title"`
	UseBar           bool               `json:"use_bar"`
	AbsQuorum        int                `json:"abs_quorum"`
	RelQuorum        int                `json:"rel_quorum"`
	QuorumMode       string             `json:"quorum_mode"`
	VoteBegin        time.Time          `json:"vote_begin"`
	VoteEnd          time.Time          `json:"vote_end"`
	VoteExtensionEnd *time.Time         `json:"vote_extension_end,omitempty"`
	Extended         bool               `json:"extended"`
	Tallied          bool               `json:"tallied"`
	Candidates       []candidatePayload `json:"candidates"`
}

type ballotStateResponse struct {
	ballotResponse
	State    string `json:"state"`
	Votes    int    `json:"votes"`
	Eligible int    `json:"eligible"`
}

type registerAttendeeRequest struct {
	PersonaID string `json:"persona_id"`
}

type registerAttendeeResponse struct {
	// Secret is shown exactly once; the server never returns it again.
	Secret string `json:"secret"`
}

type castVoteRequest struct {
	PersonaID string `json:"persona_id"`
	Ranking   string `json:"ranking"`
}

type verifyRequest struct {
	Secret  string `json:"secret"`
	Ranking string `json:"ranking"`
	Salt    string `json:"salt"`
}

type verifyResponse struct {
	Verified bool `json:"verified"`
}

type voteRecordResponse struct {
	Ranking    string `json:"ranking"`
	Salt       string `json:"salt"`
	Commitment string `json:"commitment"`
}

func toBallotResponse(b *model.Ballot) ballotResponse {
	resp := ballotResponse{
		ID:               b.ID.String(),
		AssemblyID:       b.AssemblyID.String(),
		Title:            b.Title,
		UseBar:           b.UseBar,
		AbsQuorum:        b.Quorum.Abs,
		RelQuorum:        b.Quorum.RelPercent,
		QuorumMode:       string(b.Quorum.Mode),
		VoteBegin:        b.VoteBegin,
		VoteEnd:          b.VoteEnd,
		VoteExtensionEnd: b.VoteExtensionEnd,
		Extended:         b.Extended,
		Tallied:          b.Tallied,
	}
	for _, c := range b.Candidates {
		resp.Candidates = append(resp.Candidates, candidatePayload{
			Moniker:     c.Moniker,
			Description: c.Description,
		})
	}
	return resp
}

// --- helpers ---

func decode[T any](w http.ResponseWriter, r *http.Request) (T, bool) {
	var v T
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		writeError(w, fmt.Errorf("validation: bad request body: %w", err))
		return v, false
	}
	return v, true
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.FromString(chi.URLParam(r, name))
	if err != nil {
		writeError(w, fmt.Errorf("validation: bad %s", name))
		return uuid.Nil, false
	}
	return id, true
}

func parseUUID(w http.ResponseWriter, raw, name string) (uuid.UUID, bool) {
	id, err := uuid.FromString(raw)
	if err != nil {
		writeError(w, fmt.Errorf("validation: bad %s", name))
		return uuid.Nil, false
	}
	return id, true
}

// --- handlers ---

// handleCreateAssembly handles POST /api/assemblies.
func (s *Server) handleCreateAssembly(w http.ResponseWriter, r *http.Request) {
	req, ok := decode[createAssemblyRequest](w, r)
	if !ok {
		return
	}
	a, err := s.assemblies.CreateAssembly(r.Context(), req.Title, req.SignupEnd)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, assemblyResponse{
		ID:        a.ID.String(),
		Title:     a.Title,
		SignupEnd: a.SignupEnd,
	})
}

// handleCreateBallot handles POST /api/assemblies/{assemblyID}/ballots.
func (s *Server) handleCreateBallot(w http.ResponseWriter, r *http.Request) {
	assemblyID, ok := pathID(w, r, "assemblyID")
	if !ok {
		return
	}
	req, ok := decode[createBallotRequest](w, r)
	if !ok {
		return
	}
	nb := service.NewBallot{
		AssemblyID: assemblyID,
		Title:      req.Title,
		UseBar:     req.UseBar,
		Quorum: model.Quorum{
			Abs:        req.AbsQuorum,
			RelPercent: req.RelQuorum,
			Mode:       model.QuorumMode(req.QuorumMode),
		},
		VoteBegin:        req.VoteBegin,
		VoteEnd:          req.VoteEnd,
		VoteExtensionEnd: req.VoteExtensionEnd,
	}
	for _, c := range req.Candidates {
		nb.Candidates = append(nb.Candidates, model.Candidate{
			Moniker:     c.Moniker,
			Description: c.Description,
		})
	}
	b, err := s.assemblies.CreateBallot(r.Context(), nb)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toBallotResponse(b))
}

// handleListBallots handles GET /api/assemblies/{assemblyID}/ballots.
func (s *Server) handleListBallots(w http.ResponseWriter, r *http.Request) {
	assemblyID, ok := pathID(w, r, "assemblyID")
	if !ok {
		return
	}
	ballots, err := s.assemblies.ListBallots(r.Context(), assemblyID)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]ballotResponse, 0, len(ballots))
	for i := range ballots {
		out = append(out, toBallotResponse(&ballots[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

// handleRegisterAttendee handles POST /api/assemblies/{assemblyID}/attendees.
func (s *Server) handleRegisterAttendee(w http.ResponseWriter, r *http.Request) {
	assemblyID, ok := pathID(w, r, "assemblyID")
	if !ok {
		return
	}
	req, ok := decode[registerAttendeeRequest](w, r)
	if !ok {
		return
	}
	personaID, ok := parseUUID(w, req.PersonaID, "persona_id")
	if !ok {
		return
	}
	secret, err := s.assemblies.RegisterAttendee(r.Context(), assemblyID, personaID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, registerAttendeeResponse{Secret: secret})
}

// handleCastVote handles POST /api/ballots/{ballotID}/votes.
func (s *Server) handleCastVote(w http.ResponseWriter, r *http.Request) {
	ballotID, ok := pathID(w, r, "ballotID")
	if !ok {
		return
	}
	req, ok := decode[castVoteRequest](w, r)
	if !ok {
		return
	}
	personaID, ok := parseUUID(w, req.PersonaID, "persona_id")
	if !ok {
		return
	}
	receipt, err := s.voting.Cast(r.Context(), ballotID, personaID, req.Ranking)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, receipt)
}

// handleBallotState handles GET /api/ballots/{ballotID}.
func (s *Server) handleBallotState(w http.ResponseWriter, r *http.Request) {
	ballotID, ok := pathID(w, r, "ballotID")
	if !ok {
		return
	}
	st, err := s.voting.BallotState(r.Context(), ballotID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ballotStateResponse{
		ballotResponse: toBallotResponse(st.Ballot),
		State:          st.State.String(),
		Votes:          st.Votes,
		Eligible:       st.Eligible,
	})
}

// handleRunTally handles POST /api/ballots/{ballotID}/tally.
func (s *Server) handleRunTally(w http.ResponseWriter, r *http.Request) {
	ballotID, ok := pathID(w, r, "ballotID")
	if !ok {
		return
	}
	res, err := s.voting.Tally(r.Context(), ballotID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleGetTally handles GET /api/ballots/{ballotID}/tally.
func (s *Server) handleGetTally(w http.ResponseWriter, r *http.Request) {
	ballotID, ok := pathID(w, r, "ballotID")
	if !ok {
		return
	}
	res, err := s.voting.GetTally(r.Context(), ballotID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleRecords handles GET /api/ballots/{ballotID}/records.
func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	ballotID, ok := pathID(w, r, "ballotID")
	if !ok {
		return
	}
	records, err := s.voting.Records(r.Context(), ballotID)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]voteRecordResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, voteRecordResponse{
			Ranking:    rec.Ranking,
			Salt:       rec.Salt,
			Commitment: rec.Commitment,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// handleVerify handles POST /api/ballots/{ballotID}/verify.
func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	ballotID, ok := pathID(w, r, "ballotID")
	if !ok {
		return
	}
	req, ok := decode[verifyRequest](w, r)
	if !ok {
		return
	}
	verified, err := s.voting.Verify(r.Context(), ballotID, req.Secret, req.Ranking, req.Salt)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, verifyResponse{Verified: verified})
}
