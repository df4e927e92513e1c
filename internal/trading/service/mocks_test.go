package service

import (
	"context"
	"sync"
	"testing"

	"golang-kis-trader/internal/entity"
	"golang-kis-trader/internal/trading/dto"
	"golang-kis-trader/internal/trading/repository"
	"golang-kis-trader/pkg/kis"
	"golang-kis-trader/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type fakeGateway struct {
	mu sync.Mutex

	priceResp   kis.Response
	priceErr    error
	balanceResp kis.Response
	balanceErr  error
	orderResp   kis.Response
	orderErr    error
	newsResp    kis.Response
	newsErr     error

	orders []kis.OrderRequest
	creds  []kis.Credentials
}

func (g *fakeGateway) record(creds kis.Credentials) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.creds = append(g.creds, creds)
}

func (g *fakeGateway) GetCurrentPrice(_ context.Context, creds kis.Credentials, _, _ string) (kis.Response, error) {
	g.record(creds)
	return g.priceResp, g.priceErr
}

func (g *fakeGateway) GetBalance(_ context.Context, creds kis.Credentials) (kis.Response, error) {
	g.record(creds)
	return g.balanceResp, g.balanceErr
}

func (g *fakeGateway) PlaceOrder(_ context.Context, creds kis.Credentials, order kis.OrderRequest) (kis.Response, error) {
	g.record(creds)
	g.mu.Lock()
	g.orders = append(g.orders, order)
	g.mu.Unlock()
	return g.orderResp, g.orderErr
}

func (g *fakeGateway) GetNews(_ context.Context, creds kis.Credentials, _ string) (kis.Response, error) {
	g.record(creds)
	return g.newsResp, g.newsErr
}

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
	err      error
}

func (n *recordingNotifier) SendMessage(text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, text)
	return n.err
}

type fakeFeed struct {
	items []dto.NewsItem
	err   error
}

func (f *fakeFeed) Fetch(_ context.Context, _ string, _ int) ([]dto.NewsItem, error) {
	return f.items, f.err
}

type testEnv struct {
	db         *gorm.DB
	accounts   repository.TradingAccountRepository
	orders     repository.OrderRepository
	strategies repository.StrategyRepository
	balances   repository.BalanceRepository
	market     repository.MarketCacheRepository
	gateway    *fakeGateway
	notifier   *recordingNotifier
	log        *logger.Logger
	account    *entity.TradingAccount
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&entity.TradingAccount{}, &entity.KISToken{}, &entity.Order{}, &entity.Strategy{}, &entity.Balance{}))

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	env := &testEnv{
		db:         db,
		accounts:   repository.NewTradingAccountRepository(db),
		orders:     repository.NewOrderRepository(db),
		strategies: repository.NewStrategyRepository(db),
		balances:   repository.NewBalanceRepository(db),
		market:     repository.NewMarketCacheRepository(rdb),
		gateway:    &fakeGateway{},
		notifier:   &recordingNotifier{},
		log:        logger.NewNop(),
	}

	env.account = &entity.TradingAccount{UserID: 1, AccountNumber: "5012345601", AppKey: "app-key", AppSecret: "app-secret", IsActive: true}
	require.NoError(t, env.accounts.Create(context.Background(), env.account))
	return env
}

func (e *testEnv) orderService() OrderService {
	return NewOrderService(e.gateway, e.accounts, e.orders, e.notifier, e.log)
}

func (e *testEnv) marketService() MarketService {
	return NewMarketService(e.gateway, e.accounts, e.market, "J", 50, e.log)
}

func (e *testEnv) signalService() SignalService {
	return NewSignalService(e.strategies, e.accounts, e.market, e.marketService(), e.orderService(), e.notifier, e.log)
}

func priceResponse(price string) kis.Response {
	return kis.Response{
		"rt_cd": "0",
		"output": map[string]interface{}{
			"stck_prpr": price,
			"acml_vol":  "1500",
			"prdy_ctrt": "-0.60",
		},
	}
}
