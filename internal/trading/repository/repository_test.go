package repository

import (
	"context"
	"testing"
	"time"

	"golang-kis-trader/internal/entity"
	"golang-kis-trader/pkg/kis"
	"golang-kis-trader/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// every connection to :memory: is a separate database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&entity.TradingAccount{},
		&entity.KISToken{},
		&entity.Order{},
		&entity.Strategy{},
		&entity.Balance{},
	))
	return db
}

func TestTradingAccountRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewTradingAccountRepository(newTestDB(t))

	accounts := []*entity.TradingAccount{
		{UserID: 1, AccountNumber: "5012345601", AppKey: "k1", AppSecret: "s1", IsActive: false},
		{UserID: 1, AccountNumber: "5012345602", AppKey: "k2", AppSecret: "s2", IsActive: true},
		{UserID: 1, AccountNumber: "5012345603", AppKey: "k3", AppSecret: "s3", IsActive: true},
		{UserID: 2, AccountNumber: "6012345601", AppKey: "k4", AppSecret: "s4", IsActive: true},
	}
	for _, a := range accounts {
		require.NoError(t, repo.Create(ctx, a))
	}

	list, err := repo.FindByUser(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, list, 3)

	first, err := repo.FindActive(ctx, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, accounts[1].ID, first.ID)

	chosen, err := repo.FindActive(ctx, 1, &accounts[2].ID)
	require.NoError(t, err)
	assert.Equal(t, "5012345603", chosen.AccountNumber)

	_, err = repo.FindActive(ctx, 1, &accounts[0].ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound, "inactive account")

	_, err = repo.FindActive(ctx, 2, &accounts[1].ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound, "account of another user")

	byID, err := repo.FindActiveByID(ctx, accounts[3].ID)
	require.NoError(t, err)
	assert.Equal(t, uint(2), byID.UserID)

	count, err := repo.CountActive(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestKISTokenRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewKISTokenRepository(newTestDB(t))

	tok, err := repo.Latest(ctx, 9)
	require.NoError(t, err)
	assert.Nil(t, tok)

	issued := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Append(ctx, 9, kis.Token{Value: "old", Type: "Bearer", IssuedAt: issued, ExpiresIn: 86400}))
	require.NoError(t, repo.Append(ctx, 9, kis.Token{Value: "new", Type: "Bearer", IssuedAt: issued.Add(24 * time.Hour), ExpiresIn: 86400}))
	require.NoError(t, repo.Append(ctx, 10, kis.Token{Value: "other", Type: "Bearer", IssuedAt: issued.Add(48 * time.Hour), ExpiresIn: 86400}))

	tok, err = repo.Latest(ctx, 9)
	require.NoError(t, err)
	require.NotNil(t, tok)
	assert.Equal(t, "new", tok.Value)
	assert.Equal(t, int64(86400), tok.ExpiresIn)
	assert.True(t, tok.IssuedAt.Equal(issued.Add(24*time.Hour)))
}

func TestOrderRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewOrderRepository(newTestDB(t))

	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, repo.Create(ctx, &entity.Order{
			UserID: 1, TradingAccountID: 1, ClientOrderID: id, Symbol: "005930",
			OrderType: "BUY", OrderMethod: "MARKET", Quantity: int64(i + 1), Status: entity.OrderStatusPending,
		}))
	}
	other := &entity.Order{UserID: 2, TradingAccountID: 2, ClientOrderID: "d", Symbol: "005930",
		OrderType: "SELL", OrderMethod: "LIMIT", Quantity: 1, Price: utils.ToPointer(int64(70000)), Status: entity.OrderStatusPending}
	require.NoError(t, repo.Create(ctx, other))

	other.Status = entity.OrderStatusSubmitted
	other.KISOrderNo = "0000117057"
	require.NoError(t, repo.Update(ctx, other))

	orders, err := repo.FindByUser(ctx, 1, 0, 2)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, "c", orders[0].ClientOrderID)

	orders, err = repo.FindByUser(ctx, 1, 2, 10)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "a", orders[0].ClientOrderID)

	orders, err = repo.FindByUser(ctx, 2, 0, 10)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, entity.OrderStatusSubmitted, orders[0].Status)
	assert.Equal(t, "0000117057", orders[0].KISOrderNo)
}

func TestStrategyRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewStrategyRepository(newTestDB(t))
	now := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)

	due := &entity.Strategy{UserID: 1, TradingAccountID: 1, Name: "due", Symbol: "005930", IsActive: true, CronExpression: "*/5 * * * *"}
	future := &entity.Strategy{UserID: 1, TradingAccountID: 1, Name: "future", Symbol: "000660", IsActive: true, CronExpression: "*/5 * * * *"}
	future.NextExecution.Time = now.Add(time.Hour)
	future.NextExecution.Valid = true
	inactive := &entity.Strategy{UserID: 1, TradingAccountID: 1, Name: "inactive", Symbol: "035420", CronExpression: "*/5 * * * *"}
	manual := &entity.Strategy{UserID: 2, TradingAccountID: 2, Name: "manual", Symbol: "035720", IsActive: true}

	for _, s := range []*entity.Strategy{due, future, inactive, manual} {
		require.NoError(t, repo.Create(ctx, s))
	}

	found, err := repo.FindDue(ctx, now)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, due.ID, found[0].ID)

	got, err := repo.FindByID(ctx, future.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, "future", got.Name)
	_, err = repo.FindByID(ctx, future.ID, 2)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	got.Name = "renamed"
	require.NoError(t, repo.Update(ctx, got))
	list, err := repo.FindByUser(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "renamed", list[1].Name)

	assert.ErrorIs(t, repo.Delete(ctx, manual.ID, 1), gorm.ErrRecordNotFound)
	require.NoError(t, repo.Delete(ctx, manual.ID, 2))
	list, err = repo.FindByUser(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestBalanceRepository(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewBalanceRepository(db)

	require.NoError(t, repo.CreateSnapshot(ctx, nil))

	at := time.Now().UTC()
	require.NoError(t, repo.CreateSnapshot(ctx, []entity.Balance{
		{UserID: 1, TradingAccountID: 1, Symbol: "005930", Quantity: 10, SnapshotAt: at},
		{UserID: 1, TradingAccountID: 1, Symbol: "000660", Quantity: 3, SnapshotAt: at},
	}))

	var count int64
	require.NoError(t, db.Model(&entity.Balance{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}
