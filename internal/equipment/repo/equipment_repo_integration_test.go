//go:build integration

package repo

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petrolia/termlab/internal/equipment/entity"
	"github.com/petrolia/termlab/internal/fault"
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

type fixtureIDs struct {
	terminalID, otherTerminalID int64
	typeX, typeY                int64
	userID                      int64
}

func fixture(t *testing.T, db *sqlx.DB) fixtureIDs {
	t.Helper()
	ctx := context.Background()
	nonce := time.Now().UnixNano()

	var ids fixtureIDs
	var companyID int64
	require.NoError(t, db.GetContext(ctx, &companyID,
		`INSERT INTO companies (name, company_type) VALUES ($1, 'client') RETURNING id`,
		fmt.Sprintf("eq-co-%d", nonce)))
	require.NoError(t, db.GetContext(ctx, &ids.terminalID,
		`INSERT INTO company_terminals (company_id, name) VALUES ($1, 'Main') RETURNING id`, companyID))
	require.NoError(t, db.GetContext(ctx, &ids.otherTerminalID,
		`INSERT INTO company_terminals (company_id, name) VALUES ($1, 'Spare') RETURNING id`, companyID))
	require.NoError(t, db.GetContext(ctx, &ids.typeX,
		`INSERT INTO equipment_types (name, role) VALUES ($1, 'working') RETURNING id`,
		fmt.Sprintf("Thermometer %d", nonce)))
	require.NoError(t, db.GetContext(ctx, &ids.typeY,
		`INSERT INTO equipment_types (name, role) VALUES ($1, 'reference') RETURNING id`,
		fmt.Sprintf("Thermometer %d", nonce)))
	require.NoError(t, db.GetContext(ctx, &ids.userID,
		`INSERT INTO users (name, last_name, email, role, password_hash, company_id)
		 VALUES ('Eq', 'Tester', $1, 'admin', 'x', $2) RETURNING id`,
		fmt.Sprintf("eq-%d@termlab.test", nonce), companyID))
	return ids
}

func TestCreateOpensInitialHistoryIntervals(t *testing.T) {
	db := testDB(t)
	ids := fixture(t, db)
	r := NewEquipmentRepo(db)
	ctx := context.Background()

	e := &entity.Equipment{
		EquipmentTypeID: ids.typeX,
		TerminalID:      ids.terminalID,
		CreatedByUserID: ids.userID,
		Status:          entity.StatusStored,
	}
	require.NoError(t, r.Create(ctx, e, nil, nil))

	typeHist, err := r.TypeHistory(ctx, e.ID)
	require.NoError(t, err)
	require.Len(t, typeHist, 1)
	assert.Equal(t, ids.typeX, typeHist[0].EquipmentTypeID)
	assert.Nil(t, typeHist[0].EndedAt)
	assert.Equal(t, e.CreatedAt.Unix(), typeHist[0].StartedAt.Unix())

	termHist, err := r.TerminalHistory(ctx, e.ID)
	require.NoError(t, err)
	require.Len(t, termHist, 1)
	assert.Equal(t, ids.terminalID, termHist[0].TerminalID)
	assert.Nil(t, termHist[0].EndedAt)
}

func TestChangeTypeClosesOpenIntervalAndOpensNew(t *testing.T) {
	db := testDB(t)
	ids := fixture(t, db)
	r := NewEquipmentRepo(db)
	ctx := context.Background()

	e := &entity.Equipment{
		EquipmentTypeID: ids.typeX,
		TerminalID:      ids.terminalID,
		CreatedByUserID: ids.userID,
		Status:          entity.StatusStored,
	}
	require.NoError(t, r.Create(ctx, e, nil, nil))

	at := time.Now().UTC()
	changed, err := r.ChangeType(ctx, e.ID, ids.typeY, ids.userID, at)
	require.NoError(t, err)
	assert.True(t, changed)

	hist, err := r.TypeHistory(ctx, e.ID)
	require.NoError(t, err)
	require.Len(t, hist, 2)

	// rows ordered by started_at: the original interval is now closed at T
	require.NotNil(t, hist[0].EndedAt)
	assert.Equal(t, ids.typeX, hist[0].EquipmentTypeID)
	assert.Equal(t, at.Unix(), hist[0].EndedAt.Unix())

	assert.Equal(t, ids.typeY, hist[1].EquipmentTypeID)
	assert.Equal(t, at.Unix(), hist[1].StartedAt.Unix())
	assert.Nil(t, hist[1].EndedAt)
	assert.Equal(t, ids.userID, hist[1].ChangedByUserID)

	var current int64
	require.NoError(t, db.Get(&current, `SELECT equipment_type_id FROM equipment WHERE id=$1`, e.ID))
	assert.Equal(t, ids.typeY, current)
}

func TestChangeTypeSameValueIsNoop(t *testing.T) {
	db := testDB(t)
	ids := fixture(t, db)
	r := NewEquipmentRepo(db)
	ctx := context.Background()

	e := &entity.Equipment{
		EquipmentTypeID: ids.typeX,
		TerminalID:      ids.terminalID,
		CreatedByUserID: ids.userID,
		Status:          entity.StatusStored,
	}
	require.NoError(t, r.Create(ctx, e, nil, nil))

	changed, err := r.ChangeType(ctx, e.ID, ids.typeX, ids.userID, time.Now().UTC())
	require.NoError(t, err)
	assert.False(t, changed)

	hist, err := r.TypeHistory(ctx, e.ID)
	require.NoError(t, err)
	assert.Len(t, hist, 1)
}

func TestChangeTypeWithoutOpenIntervalIsConflict(t *testing.T) {
	db := testDB(t)
	ids := fixture(t, db)
	r := NewEquipmentRepo(db)
	ctx := context.Background()

	e := &entity.Equipment{
		EquipmentTypeID: ids.typeX,
		TerminalID:      ids.terminalID,
		CreatedByUserID: ids.userID,
		Status:          entity.StatusStored,
	}
	require.NoError(t, r.Create(ctx, e, nil, nil))

	// corrupt the history by closing the open interval out of band
	_, err := db.Exec(
		`UPDATE equipment_type_history SET ended_at=NOW() WHERE equipment_id=$1`, e.ID)
	require.NoError(t, err)

	_, err = r.ChangeType(ctx, e.ID, ids.typeY, ids.userID, time.Now().UTC())
	require.ErrorIs(t, err, fault.ErrConflict)
}

func TestChangeTerminalKeepsSingleOpenInterval(t *testing.T) {
	db := testDB(t)
	ids := fixture(t, db)
	r := NewEquipmentRepo(db)
	ctx := context.Background()

	e := &entity.Equipment{
		EquipmentTypeID: ids.typeX,
		TerminalID:      ids.terminalID,
		CreatedByUserID: ids.userID,
		Status:          entity.StatusInUse,
	}
	require.NoError(t, r.Create(ctx, e, nil, nil))

	changed, err := r.ChangeTerminal(ctx, e.ID, ids.otherTerminalID, ids.userID, time.Now().UTC())
	require.NoError(t, err)
	assert.True(t, changed)

	var open int
	require.NoError(t, db.Get(&open,
		`SELECT COUNT(*) FROM equipment_terminal_history WHERE equipment_id=$1 AND ended_at IS NULL`, e.ID))
	assert.Equal(t, 1, open)

	hist, err := r.TerminalHistory(ctx, e.ID)
	require.NoError(t, err)
	require.Len(t, hist, 2)
	assert.Equal(t, ids.otherTerminalID, hist[1].TerminalID)
}
