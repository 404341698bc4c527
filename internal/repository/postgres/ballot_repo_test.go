package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"agora/internal/errs"
	"agora/internal/model"
)

func TestBallotRepo_Create_InsertsCandidatesInOrder(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewBallotRepo(db)

	b := &model.Ballot{
		ID:         uuid.Must(uuid.NewV4()),
		AssemblyID: uuid.Must(uuid.NewV4()),
		Title:      "board election",
		Quorum:     model.Quorum{Abs: 5, Mode: model.QuorumModeAll},
		VoteBegin:  time.Now(),
		VoteEnd:    time.Now().Add(time.Hour),
		Candidates: []model.Candidate{{Moniker: "B"}, {Moniker: "A"}},
	}

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO ballots`).
		WithArgs(b.ID, b.AssemblyID, b.Title, b.UseBar,
			b.Quorum.Abs, b.Quorum.RelPercent, string(b.Quorum.Mode),
			b.VoteBegin, b.VoteEnd, b.VoteExtensionEnd).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO candidates`).
		WithArgs(b.ID, 0, "B", "").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO candidates`).
		WithArgs(b.ID, 1, "A", "").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	require.NoError(t, r.Create(context.Background(), b))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBallotRepo_SetExtended_Idempotent(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewBallotRepo(db)

	id := uuid.Must(uuid.NewV4())
	// Second invocation affects zero rows; still no error.
	mock.ExpectExec(`UPDATE ballots SET extended=true`).
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	require.NoError(t, r.SetExtended(context.Background(), id))
}

func TestBallotRepo_MarkTallied_OK(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewBallotRepo(db)

	id := uuid.Must(uuid.NewV4())
	result := []byte(`{"outcome":"accepted"}`)
	mock.ExpectExec(`UPDATE ballots SET tallied=true`).
		WithArgs(id, result).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, r.MarkTallied(context.Background(), id, result))
}

func TestBallotRepo_MarkTallied_Conflict(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewBallotRepo(db)

	id := uuid.Must(uuid.NewV4())
	// tallied guard kept the update from matching: re-tally must fail loudly.
	mock.ExpectExec(`UPDATE ballots SET tallied=true`).
		WithArgs(id, []byte(`{}`)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := r.MarkTallied(context.Background(), id, []byte(`{}`))
	require.ErrorIs(t, err, errs.ErrAlreadyTallied)
}

func TestBallotRepo_Result_NotTallied(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewBallotRepo(db)

	id := uuid.Must(uuid.NewV4())
	mock.ExpectQuery(`SELECT tallied, result FROM ballots`).
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{"tallied", "result"}).AddRow(false, nil))

	_, err := r.Result(context.Background(), id)
	require.ErrorIs(t, err, errs.ErrNotTallied)
}

func TestBallotRepo_Get_WithCandidates(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewBallotRepo(db)

	id := uuid.Must(uuid.NewV4())
	assemblyID := uuid.Must(uuid.NewV4())
	begin := time.Now()
	end := begin.Add(time.Hour)
	created := begin.Add(-time.Hour)

	mock.ExpectQuery(`SELECT .* FROM ballots WHERE id=\$1`).
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "assembly_id", "title", "use_bar", "abs_quorum", "rel_quorum", "quorum_mode",
			"vote_begin", "vote_end", "vote_extension_end", "extended", "tallied", "created_at",
		}).AddRow(id, assemblyID, "board election", true, 5, 0, "all",
			begin, end, nil, false, false, created))
	mock.ExpectQuery(`SELECT ballot_id, moniker, description`).
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{"ballot_id", "moniker", "description"}).
			AddRow(id, "A", "first").
			AddRow(id, "B", "second"))

	b, err := r.Get(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, "board election", b.Title)
	require.True(t, b.UseBar)
	require.Equal(t, model.QuorumModeAll, b.Quorum.Mode)
	require.Equal(t, []string{"A", "B"}, b.Monikers())
}
