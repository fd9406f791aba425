package db_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/wilsonalvesmartins/grapaz/db"
	"github.com/wilsonalvesmartins/grapaz/db/migrations"
	"github.com/wilsonalvesmartins/grapaz/models"
)

func newTestStorage(t *testing.T) *db.Storage {
	t.Helper()
	conn, err := sqlx.Connect("sqlite", "file:"+filepath.Join(t.TempDir(), "grapaz.db"))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	migrations.Run(conn.DB)
	return db.NewStorage(conn)
}

func TestBidRoundTrip(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	bid := models.Bid{
		ID:           "1",
		Orgao:        "Prefeitura X",
		Cidade:       "Santos",
		Plataforma:   "ComprasNet",
		NumeroPregao: "90012/2025",
		Processo:     "123/2025",
		Data:         "2025-03-01",
		Horario:      "10:00",
		Modalidade:   "Pregão Eletrônico",
		Status:       models.StatusPending,
	}
	require.NoError(t, store.PutBid(ctx, &bid))

	bids, err := store.GetAllBids(ctx)
	require.NoError(t, err)
	require.Len(t, bids, 1)
	require.Equal(t, bid, bids[0])
	require.False(t, bids[0].IsPaid)
	require.Equal(t, models.Deadlines{}, bids[0].Deadlines)
}

func TestBidDeadlinesPersistAcrossBoundary(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	bid := models.Bid{
		ID:     "2",
		Status: models.StatusWon,
		Value:  1500.50,
		Deadlines: models.Deadlines{
			Docs:     "2025-03-10",
			Sign:     "2025-03-15",
			Delivery: "2025-04-01",
		},
	}
	require.NoError(t, store.PutBid(ctx, &bid))

	got, err := store.GetBid(ctx, "2")
	require.NoError(t, err)
	require.Equal(t, bid.Deadlines, got.Deadlines)
	require.InDelta(t, 1500.50, got.Value, 0.0001)
}

func TestPutBidReplacesExisting(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, store.PutBid(ctx, &models.Bid{ID: "1", Orgao: "A", Status: models.StatusPending}))
	require.NoError(t, store.PutBid(ctx, &models.Bid{ID: "1", Orgao: "B", Status: models.StatusWon}))

	got, err := store.GetBid(ctx, "1")
	require.NoError(t, err)
	require.Equal(t, "B", got.Orgao)
	require.Equal(t, models.StatusWon, got.Status)

	bids, err := store.GetAllBids(ctx)
	require.NoError(t, err)
	require.Len(t, bids, 1)
}

func TestGetBidNotFound(t *testing.T) {
	store := newTestStorage(t)
	_, err := store.GetBid(context.Background(), "missing")
	require.ErrorIs(t, err, db.ErrNotFound)
}

func TestPatchBid(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, store.PutBid(ctx, &models.Bid{ID: "1", Orgao: "Prefeitura X", Status: models.StatusPending}))

	err := store.PatchBid(ctx, "1", map[string]any{
		"status":    "won",
		"value":     2000.0,
		"deadlines": map[string]any{"docs": "2025-03-10"},
		"isPaid":    false,
	})
	require.NoError(t, err)

	got, err := store.GetBid(ctx, "1")
	require.NoError(t, err)
	require.Equal(t, models.StatusWon, got.Status)
	require.InDelta(t, 2000.0, got.Value, 0.0001)
	require.Equal(t, models.Deadlines{Docs: "2025-03-10"}, got.Deadlines)
	require.Equal(t, "Prefeitura X", got.Orgao)
}

func TestPatchBidIsPaidTruthiness(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, store.PutBid(ctx, &models.Bid{ID: "1", Status: models.StatusDelivered}))

	// older clients sent the legacy flag as a number
	require.NoError(t, store.PatchBid(ctx, "1", map[string]any{"isPaid": 1.0}))
	got, err := store.GetBid(ctx, "1")
	require.NoError(t, err)
	require.True(t, got.IsPaid)

	require.NoError(t, store.PatchBid(ctx, "1", map[string]any{"isPaid": 0.0}))
	got, err = store.GetBid(ctx, "1")
	require.NoError(t, err)
	require.False(t, got.IsPaid)

	require.NoError(t, store.PatchBid(ctx, "1", map[string]any{"isPaid": true}))
	got, err = store.GetBid(ctx, "1")
	require.NoError(t, err)
	require.True(t, got.IsPaid)
}

func TestPatchBidRejectsUnknownField(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, store.PutBid(ctx, &models.Bid{ID: "1", Status: models.StatusPending}))

	err := store.PatchBid(ctx, "1", map[string]any{"orgao; DROP TABLE bids": "x"})
	var unknown *db.UnknownFieldError
	require.True(t, errors.As(err, &unknown))

	// id is not patchable either
	err = store.PatchBid(ctx, "1", map[string]any{"id": "2"})
	require.True(t, errors.As(err, &unknown))

	got, err := store.GetBid(ctx, "1")
	require.NoError(t, err)
	require.Equal(t, "1", got.ID)
}

func TestPatchBidEmptyIsNoOp(t *testing.T) {
	store := newTestStorage(t)
	require.NoError(t, store.PatchBid(context.Background(), "whatever", map[string]any{}))
}

func TestDeleteBidIdempotent(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, store.PutBid(ctx, &models.Bid{ID: "1", Status: models.StatusPending}))
	require.NoError(t, store.DeleteBid(ctx, "1"))
	require.NoError(t, store.DeleteBid(ctx, "1"))
	require.NoError(t, store.DeleteBid(ctx, "never-existed"))

	bids, err := store.GetAllBids(ctx)
	require.NoError(t, err)
	require.Empty(t, bids)
}

func TestMalformedDeadlinesBlobDecodesEmpty(t *testing.T) {
	conn, err := sqlx.Connect("sqlite", "file:"+filepath.Join(t.TempDir(), "grapaz.db"))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	migrations.Run(conn.DB)

	_, err = conn.Exec(`INSERT INTO bids (id, orgao, cidade, plataforma, numeroPregao, processo,
        data, horario, modalidade, status, value, items, deadlines, paymentDeadline, isPaid)
        VALUES ('1', '', '', '', '', '', '', '', '', 'pending', 0, '', 'not-json', '', 0)`)
	require.NoError(t, err)

	store := db.NewStorage(conn)
	got, err := store.GetBid(context.Background(), "1")
	require.NoError(t, err)
	require.Equal(t, models.Deadlines{}, got.Deadlines)
}

func TestFiles(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	first := models.FileRecord{
		Filename:     "100-nota.pdf",
		OriginalName: "nota.pdf",
		Type:         models.FileTypeEntry,
		CreatedAt:    "2025-03-01T10:00:00Z",
	}
	second := models.FileRecord{
		Filename:     "200-recibo.pdf",
		OriginalName: "recibo.pdf",
		Type:         models.FileTypeExit,
		CreatedAt:    "2025-03-02T10:00:00Z",
	}
	require.NoError(t, store.AddFile(ctx, &first))
	require.NoError(t, store.AddFile(ctx, &second))
	require.NotZero(t, first.ID)
	require.Greater(t, second.ID, first.ID)

	// newest first
	files, err := store.GetAllFiles(ctx, "")
	require.NoError(t, err)
	require.Len(t, files, 2)
	require.Equal(t, "200-recibo.pdf", files[0].Filename)
	require.Equal(t, "100-nota.pdf", files[1].Filename)

	entries, err := store.GetAllFiles(ctx, models.FileTypeEntry)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, models.FileTypeEntry, entries[0].Type)

	got, err := store.GetFile(ctx, first.ID)
	require.NoError(t, err)
	require.Equal(t, first, *got)

	require.NoError(t, store.DeleteFile(ctx, first.ID))
	_, err = store.GetFile(ctx, first.ID)
	require.ErrorIs(t, err, db.ErrNotFound)
}
