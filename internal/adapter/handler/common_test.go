package handler

import (
	"context"
	"crypto/ed25519"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rl1809/marketplace/internal/adapter/storage"
	"github.com/rl1809/marketplace/internal/auth"
	"github.com/rl1809/marketplace/internal/core/domain"
	"github.com/rl1809/marketplace/internal/core/service"
)

type testEnv struct {
	ledger   *service.LedgerService
	wallets  *service.WalletService
	verifier *auth.Verifier
}

type testSigner struct {
	id   domain.Identity
	priv ed25519.PrivateKey
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	ctx := context.Background()
	db, err := storage.OpenSQL(ctx, storage.DialectSQLite, ":memory:")
	require.NoError(t, err)
	adapter := storage.NewSQLAdapter(db, storage.DialectSQLite)
	require.NoError(t, adapter.Migrate(ctx))

	ledger := service.NewLedgerService(adapter, adapter, 100, service.WithReceipts(adapter))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		service.RunReceiptWorker(0, ledger.GetReceiptQueue(), adapter, nil)
	}()

	t.Cleanup(func() {
		ledger.Close()
		wg.Wait()
		db.Close()
	})

	return &testEnv{
		ledger:   ledger,
		wallets:  service.NewWalletService(adapter, nil),
		verifier: auth.NewVerifier(time.Minute),
	}
}

func newTestSigner(t *testing.T) testSigner {
	t.Helper()
	id, priv, err := auth.GenerateKey()
	require.NoError(t, err)
	return testSigner{id: id, priv: priv}
}

func (s testSigner) token(t *testing.T) string {
	t.Helper()
	token, err := auth.SignToken(s.priv, time.Minute)
	require.NoError(t, err)
	return token
}
