package quests

import (
	"context"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Quest asks the guild to deliver a quantity of one item for a coin reward.
type Quest struct {
	ID       int64  `json:"id"`
	ItemID   int64  `json:"item_id"`
	ItemName string `json:"item_name"`
	Quantity int    `json:"quantity"`
	Reward   int64  `json:"reward"`
}

// Generator rebuilds the trade quest board. Rewards track the observed
// market: each quest pays the average traded price of its item with a
// small premium, so the board stays worth doing as prices drift.
type Generator struct {
	db  *pgxpool.Pool
	log *slog.Logger

	mu   sync.Mutex
	rand *rand.Rand
}

func NewGenerator(db *pgxpool.Pool, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		db:   db,
		log:  logger,
		rand: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

const rewardPremium = 1.1

// Regenerate replaces the whole board with count fresh quests. The swap is
// one transaction so readers never see a half-built board.
func (g *Generator) Regenerate(ctx context.Context, count int) ([]Quest, error) {
	tx, err := g.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM trade_quests`); err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `
		SELECT id, name, base_price FROM items
		ORDER BY random()
		LIMIT $1
	`, count)
	if err != nil {
		return nil, err
	}
	type pick struct {
		id        int64
		name      string
		basePrice int64
	}
	var picks []pick
	for rows.Next() {
		var p pick
		if err := rows.Scan(&p.id, &p.name, &p.basePrice); err != nil {
			rows.Close()
			return nil, err
		}
		picks = append(picks, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]Quest, 0, len(picks))
	for _, p := range picks {
		price, err := averageTradePriceTx(ctx, tx, p.id, p.basePrice)
		if err != nil {
			return nil, err
		}

		g.mu.Lock()
		quantity := 1 + g.rand.Intn(5)
		g.mu.Unlock()

		q := Quest{
			ItemID:   p.id,
			ItemName: p.name,
			Quantity: quantity,
			Reward:   int64(float64(price) * float64(quantity) * rewardPremium),
		}
		err = tx.QueryRow(ctx, `
			INSERT INTO trade_quests (item_id, quantity, reward, created_at)
			VALUES ($1, $2, $3, now())
			RETURNING id
		`, q.ItemID, q.Quantity, q.Reward).Scan(&q.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	g.log.Info("quest board regenerated", "quests", len(out))
	return out, nil
}

// averageTradePriceTx falls back to the item's base price when no trades
// have happened yet.
func averageTradePriceTx(ctx context.Context, tx pgx.Tx, itemID, basePrice int64) (int64, error) {
	var avg int64
	err := tx.QueryRow(ctx, `
		SELECT COALESCE(ROUND(AVG(price)), $2)::bigint
		FROM trades
		WHERE item_id = $1
	`, itemID, basePrice).Scan(&avg)
	if err != nil {
		return 0, err
	}
	if avg < 1 {
		avg = 1
	}
	return avg, nil
}

// ListActive returns the current board, newest first.
func (g *Generator) ListActive(ctx context.Context) ([]Quest, error) {
	rows, err := g.db.Query(ctx, `
		SELECT q.id, q.item_id, i.name, q.quantity, q.reward
		FROM trade_quests q
		JOIN items i ON i.id = q.item_id
		ORDER BY q.id DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Quest
	for rows.Next() {
		var q Quest
		if err := rows.Scan(&q.ID, &q.ItemID, &q.ItemName, &q.Quantity, &q.Reward); err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}
