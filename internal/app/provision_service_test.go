package app

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentwallet/agentwallet/internal/signer"
	"github.com/agentwallet/agentwallet/internal/storage"
	apperrors "github.com/agentwallet/agentwallet/pkg/errors"
)

// fakeProvisionStore is an in-memory ProvisionStore. CreateWalletWithShare
// is atomic like the real one: on error neither row is stored.
type fakeProvisionStore struct {
	mu        sync.Mutex
	shares    map[string]*storage.KeyShare
	wallets   map[string]*storage.Wallet
	createErr error
}

func newFakeProvisionStore() *fakeProvisionStore {
	return &fakeProvisionStore{
		shares:  make(map[string]*storage.KeyShare),
		wallets: make(map[string]*storage.Wallet),
	}
}

func (f *fakeProvisionStore) GetShareByAccountID(ctx context.Context, accountID string) (*storage.KeyShare, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.shares[accountID], nil
}

func (f *fakeProvisionStore) GetWalletByAccountID(ctx context.Context, accountID string) (*storage.Wallet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.wallets[accountID], nil
}

func (f *fakeProvisionStore) CreateWalletWithShare(ctx context.Context, share *storage.KeyShare, wallet *storage.Wallet) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	wallet.CreatedAt = time.Now()
	f.shares[share.AccountID] = share
	f.wallets[wallet.AccountID] = wallet
	return nil
}

type provisionFixture struct {
	service *ProvisionService
	store   *fakeProvisionStore
	cipher  *countingCipher
}

func newProvisionFixture(t *testing.T) *provisionFixture {
	t.Helper()
	store := newFakeProvisionStore()
	cipher := newCountingCipher(t)
	return &provisionFixture{
		service: NewProvisionService(store, cipher, testChainID),
		store:   store,
		cipher:  cipher,
	}
}

func TestProvisionCreatesWallet(t *testing.T) {
	f := newProvisionFixture(t)

	wallet, err := f.service.Provision(context.Background(), testAccount)
	require.NoError(t, err)

	assert.Equal(t, testAccount, wallet.AccountID)
	assert.True(t, common.IsHexAddress(wallet.Address))
	assert.Equal(t, testChainID, wallet.ChainID)

	share := f.store.shares[testAccount]
	require.NotNil(t, share)
	assert.Equal(t, f.cipher.Provider(), share.CipherBackend)
	assert.Equal(t, keySharePayloadVersion, share.Version)

	// The stored blob must be ciphertext, not a raw share payload
	var decoded map[string]json.RawMessage
	assert.Error(t, json.Unmarshal(share.BlobEncrypted, &decoded))
}

func TestProvisionedShareOpensToStoredAddress(t *testing.T) {
	// The encrypted share must reconstruct a signer whose address matches
	// the wallet row
	f := newProvisionFixture(t)

	wallet, err := f.service.Provision(context.Background(), testAccount)
	require.NoError(t, err)

	plaintext, err := f.cipher.Decrypt(context.Background(), f.store.shares[testAccount].BlobEncrypted)
	require.NoError(t, err)

	session, err := signer.Open(plaintext)
	require.NoError(t, err)
	defer session.Close()

	assert.Equal(t, wallet.Address, session.Address().Hex())
}

func TestProvisionRejectsSecondAttempt(t *testing.T) {
	f := newProvisionFixture(t)

	first, err := f.service.Provision(context.Background(), testAccount)
	require.NoError(t, err)

	_, err = f.service.Provision(context.Background(), testAccount)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeAccountAlreadyProvisioned, apperrors.Kind(err))

	// The original share and wallet are untouched
	got, err := f.service.GetWallet(context.Background(), testAccount)
	require.NoError(t, err)
	assert.Equal(t, first.Address, got.Address)
}

func TestProvisionFailedPersistenceLeavesNoState(t *testing.T) {
	// A failed wallet insert must not strand a share row: that would refuse
	// every retry while GetWallet keeps reporting the account unprovisioned
	f := newProvisionFixture(t)
	f.store.createErr = assert.AnError

	_, err := f.service.Provision(context.Background(), testAccount)
	require.Error(t, err)

	assert.Empty(t, f.store.shares)
	assert.Empty(t, f.store.wallets)

	_, err = f.service.GetWallet(context.Background(), testAccount)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeAccountNotProvisioned, apperrors.Kind(err))

	// Once the database recovers, provisioning the account succeeds
	f.store.createErr = nil
	wallet, err := f.service.Provision(context.Background(), testAccount)
	require.NoError(t, err)
	assert.True(t, common.IsHexAddress(wallet.Address))

	got, err := f.service.GetWallet(context.Background(), testAccount)
	require.NoError(t, err)
	assert.Equal(t, wallet.Address, got.Address)
}

func TestProvisionInvalidAccountID(t *testing.T) {
	f := newProvisionFixture(t)

	for _, accountID := range []string{"", string(make([]byte, 321))} {
		_, err := f.service.Provision(context.Background(), accountID)
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeInvalidInput, apperrors.Kind(err))
	}
	assert.Empty(t, f.store.shares)
}

func TestProvisionDistinctAccountsGetDistinctKeys(t *testing.T) {
	f := newProvisionFixture(t)

	a, err := f.service.Provision(context.Background(), "a@x.com")
	require.NoError(t, err)
	b, err := f.service.Provision(context.Background(), "b@x.com")
	require.NoError(t, err)

	assert.NotEqual(t, a.Address, b.Address)
}

func TestGetWalletUnprovisioned(t *testing.T) {
	f := newProvisionFixture(t)

	_, err := f.service.GetWallet(context.Background(), "nobody@x.com")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeAccountNotProvisioned, apperrors.Kind(err))
}
