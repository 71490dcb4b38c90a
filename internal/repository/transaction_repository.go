package repository

import (
	"context"
	"fmt"
	"sort"
	"time"

	"retailpos-backend/internal/db"
	"retailpos-backend/internal/domain"
)

type TransactionRepository struct {
	DB *db.Postgres
}

type CreateTransactionInput struct {
	OperatorName string
	Amount       int64
	DiscountCode *string
	UserID       *int64
	Items        []CreateTransactionItem
}

type CreateTransactionItem struct {
	ProductID *int64
	Name      string
	Price     int64
	Qty       int
}

// Create writes the transaction, its items, and one sale movement per
// tracked item via the ledger's AdjustWithTx, all in one database tx.
func (r TransactionRepository) Create(ctx context.Context, tenantID int64, in CreateTransactionInput, ledger StockRepository) (*domain.Transaction, error) {
	tx, err := r.DB.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	code := fmt.Sprintf("ORD-%d", time.Now().UnixNano()/1e6)
	now := time.Now()
	var id int64
	err = tx.QueryRow(ctx, `
		INSERT INTO transactions (tenant_id, code, amount, status, discount_code, operator_name, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING id
	`, tenantID, code, in.Amount, string(domain.TransactionPaid), in.DiscountCode, in.OperatorName, now).Scan(&id)
	if err != nil {
		return nil, err
	}

	for _, item := range in.Items {
		if _, err := tx.Exec(ctx, `
			INSERT INTO transaction_items (tenant_id, transaction_id, product_id, name, price, qty)
			VALUES ($1,$2,$3,$4,$5,$6)
		`, tenantID, id, item.ProductID, item.Name, item.Price, item.Qty); err != nil {
			return nil, err
		}
		if item.ProductID != nil {
			_, err := ledger.AdjustWithTx(ctx, tx, tenantID, AdjustStockInput{
				ProductID:     *item.ProductID,
				Delta:         -item.Qty,
				Type:          domain.MovementSale,
				TransactionID: &id,
				UserID:        in.UserID,
				Reason:        code,
			})
			if err != nil {
				return nil, err
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return &domain.Transaction{
		ID:           id,
		TenantID:     tenantID,
		Code:         code,
		Amount:       domain.Money{Amount: in.Amount},
		Status:       domain.TransactionPaid,
		DiscountCode: in.DiscountCode,
		OperatorName: in.OperatorName,
		CreatedAt:    now,
	}, nil
}

// UnitsSold aggregates paid sales per product since the given time. Feeds the
// replenishment projection and the demand multiplier.
func (r TransactionRepository) UnitsSold(ctx context.Context, tenantID int64, since time.Time) (map[int64]int, error) {
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT ti.product_id, COALESCE(SUM(ti.qty),0)
		FROM transaction_items ti
		JOIN transactions t ON t.id = ti.transaction_id AND t.tenant_id = ti.tenant_id
		WHERE ti.tenant_id=$1 AND t.status='paid' AND t.created_at >= $2 AND ti.product_id IS NOT NULL
		GROUP BY ti.product_id
	`, tenantID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	totals := make(map[int64]int)
	for rows.Next() {
		var productID int64
		var qty int
		if err := rows.Scan(&productID, &qty); err != nil {
			return nil, err
		}
		totals[productID] = qty
	}
	return totals, rows.Err()
}

// ActorActivity is one operator's counts over the suspicion window.
type ActorActivity struct {
	Actor        string
	Refunds      int
	Voids        int
	Discounts    int
	FailedLogins int
}

// ActorCounts aggregates refunds, voids, and discount applications per
// operator, merged with failed-login counts from the audit log.
func (r TransactionRepository) ActorCounts(ctx context.Context, tenantID int64, since time.Time) ([]ActorActivity, error) {
	byActor := make(map[string]*ActorActivity)
	get := func(actor string) *ActorActivity {
		a, ok := byActor[actor]
		if !ok {
			a = &ActorActivity{Actor: actor}
			byActor[actor] = a
		}
		return a
	}

	rows, err := r.DB.Pool.Query(ctx, `
		SELECT operator_name,
		       COUNT(*) FILTER (WHERE status='refund' AND refunded_at >= $2),
		       COUNT(*) FILTER (WHERE status='void' AND voided_at >= $2),
		       COUNT(*) FILTER (WHERE discount_code IS NOT NULL AND created_at >= $2)
		FROM transactions
		WHERE tenant_id=$1
		  AND (created_at >= $2 OR refunded_at >= $2 OR voided_at >= $2)
		GROUP BY operator_name
	`, tenantID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var actor string
		var refunds, voids, discounts int
		if err := rows.Scan(&actor, &refunds, &voids, &discounts); err != nil {
			return nil, err
		}
		a := get(actor)
		a.Refunds, a.Voids, a.Discounts = refunds, voids, discounts
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	loginRows, err := r.DB.Pool.Query(ctx, `
		SELECT actor, COUNT(*)
		FROM audit_logs
		WHERE tenant_id=$1 AND action='login_failed' AND created_at >= $2
		GROUP BY actor
	`, tenantID, since)
	if err != nil {
		return nil, err
	}
	defer loginRows.Close()
	for loginRows.Next() {
		var actor string
		var n int
		if err := loginRows.Scan(&actor, &n); err != nil {
			return nil, err
		}
		get(actor).FailedLogins = n
	}
	if err := loginRows.Err(); err != nil {
		return nil, err
	}

	out := make([]ActorActivity, 0, len(byActor))
	for _, a := range byActor {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Actor < out[j].Actor })
	return out, nil
}
