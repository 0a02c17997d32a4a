//go:build integration

package repo_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petrolia/termlab/internal/fault"
	"github.com/petrolia/termlab/internal/sample"
	"github.com/petrolia/termlab/internal/sample/entity"
	"github.com/petrolia/termlab/internal/sample/repo"
	"github.com/petrolia/termlab/internal/schema"
)

func testDB(t *testing.T) *sqlx.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	db, err := sqlx.Connect("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, schema.Apply(context.Background(), db))
	return db
}

// fixture creates a company, a coded terminal and a user, returning their ids.
func fixture(t *testing.T, db *sqlx.DB, code string) (terminalID, userID int64) {
	t.Helper()
	ctx := context.Background()

	var companyID int64
	require.NoError(t, db.GetContext(ctx, &companyID,
		`INSERT INTO companies (name, company_type) VALUES ($1, 'client') RETURNING id`,
		fmt.Sprintf("it-co-%d", time.Now().UnixNano())))

	require.NoError(t, db.GetContext(ctx, &terminalID,
		`INSERT INTO company_terminals (company_id, name, terminal_code, next_sample_sequence)
		 VALUES ($1, $2, $3, 7) RETURNING id`,
		companyID, "Terminal "+code, code))

	require.NoError(t, db.GetContext(ctx, &userID,
		`INSERT INTO users (name, last_name, email, role, password_hash, company_id)
		 VALUES ('It', 'Tester', $1, 'admin', 'x', $2) RETURNING id`,
		fmt.Sprintf("it-%d@termlab.test", time.Now().UnixNano()), companyID))
	return terminalID, userID
}

func TestCreateAllocatesSequenceAndCode(t *testing.T) {
	db := testDB(t)
	terminalID, userID := fixture(t, db, "SEQ"+string(rune('A'+time.Now().UnixNano()%26)))
	r := repo.NewSampleRepo(db)

	s := &entity.Sample{TerminalID: terminalID, CreatedByUserID: userID}
	require.NoError(t, r.Create(context.Background(), s))

	assert.Equal(t, int64(7), s.Sequence)
	assert.Contains(t, s.Code, "-0007")
	assert.Equal(t, "Crudo", s.ProductName)

	var next int64
	require.NoError(t, db.Get(&next, `SELECT next_sample_sequence FROM company_terminals WHERE id=$1`, terminalID))
	assert.Equal(t, int64(8), next)
}

func TestCreateConcurrentAllocationsAreGapFree(t *testing.T) {
	db := testDB(t)
	terminalID, userID := fixture(t, db, "CON"+string(rune('A'+time.Now().UnixNano()%26)))
	r := repo.NewSampleRepo(db)

	const workers = 2
	results := make([]*entity.Sample, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s := &entity.Sample{TerminalID: terminalID, CreatedByUserID: userID}
			errs[i] = r.Create(context.Background(), s)
			results[i] = s
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
	}
	seqs := map[int64]bool{results[0].Sequence: true, results[1].Sequence: true}
	assert.True(t, seqs[7] && seqs[8], "expected sequences 7 and 8, got %v", seqs)
	assert.NotEqual(t, results[0].Code, results[1].Code)

	var next int64
	require.NoError(t, db.Get(&next, `SELECT next_sample_sequence FROM company_terminals WHERE id=$1`, terminalID))
	assert.Equal(t, int64(9), next)
}

func TestCreateFailsWithoutTerminalCode(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	var companyID, terminalID, userID int64
	require.NoError(t, db.GetContext(ctx, &companyID,
		`INSERT INTO companies (name, company_type) VALUES ($1, 'client') RETURNING id`,
		fmt.Sprintf("it-nocode-%d", time.Now().UnixNano())))
	require.NoError(t, db.GetContext(ctx, &terminalID,
		`INSERT INTO company_terminals (company_id, name) VALUES ($1, 'No Code Yet') RETURNING id`,
		companyID))
	require.NoError(t, db.GetContext(ctx, &userID,
		`INSERT INTO users (name, last_name, email, role, password_hash, company_id)
		 VALUES ('It', 'Tester', $1, 'admin', 'x', $2) RETURNING id`,
		fmt.Sprintf("it-nocode-%d@termlab.test", time.Now().UnixNano()), companyID))

	r := repo.NewSampleRepo(db)
	err := r.Create(ctx, &entity.Sample{TerminalID: terminalID, CreatedByUserID: userID})
	require.Error(t, err)
	assert.True(t, errors.Is(err, fault.ErrConflict))
}

func TestDeleteAnalyzedSampleRefused(t *testing.T) {
	db := testDB(t)
	terminalID, userID := fixture(t, db, "DEL"+string(rune('A'+time.Now().UnixNano()%26)))
	r := repo.NewSampleRepo(db)
	ctx := context.Background()

	s := &entity.Sample{TerminalID: terminalID, CreatedByUserID: userID}
	require.NoError(t, r.Create(ctx, s))
	require.NoError(t, r.CreateAnalysis(ctx, &entity.Analysis{SampleID: s.ID, AnalysisType: "api", ProductName: "Crudo"}))

	err := r.Delete(ctx, s.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, fault.ErrInUse))

	// an untouched sample can still be removed
	s2 := &entity.Sample{TerminalID: terminalID, CreatedByUserID: userID}
	require.NoError(t, r.Create(ctx, s2))
	assert.NoError(t, r.Delete(ctx, s2.ID))
}

func TestUpdateAnalysisWritesExactlyOneHistoryRow(t *testing.T) {
	db := testDB(t)
	terminalID, userID := fixture(t, db, "HIS"+string(rune('A'+time.Now().UnixNano()%26)))
	r := repo.NewSampleRepo(db)
	ctx := context.Background()

	s := &entity.Sample{TerminalID: terminalID, CreatedByUserID: userID}
	require.NoError(t, r.Create(ctx, s))
	a := &entity.Analysis{SampleID: s.ID, AnalysisType: "api", ProductName: "Crudo"}
	require.NoError(t, r.CreateAnalysis(ctx, a))

	newAPI := 31.4
	updated, err := r.UpdateAnalysis(ctx, a.ID, userID, func(x *entity.Analysis) error {
		x.LecturaAPI = &newAPI
		return nil
	}, sample.DiffAnalysis)
	require.NoError(t, err)
	require.NotNil(t, updated.LecturaAPI)
	assert.Equal(t, newAPI, *updated.LecturaAPI)

	history, err := r.AnalysisHistory(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Nil(t, history[0].LecturaAPIBefore)
	require.NotNil(t, history[0].LecturaAPIAfter)
	assert.Equal(t, newAPI, *history[0].LecturaAPIAfter)
	assert.Equal(t, userID, history[0].ChangedByUserID)

	// no-op edit leaves the history untouched
	_, err = r.UpdateAnalysis(ctx, a.ID, userID, func(x *entity.Analysis) error {
		return nil
	}, sample.DiffAnalysis)
	require.NoError(t, err)

	history, err = r.AnalysisHistory(ctx, a.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}
