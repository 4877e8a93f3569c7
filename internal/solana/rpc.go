// Package solana provides the chain-access layer: a JSON-RPC account
// reader with endpoint rotation and a WebSocket account-subscription
// client.
package solana

import "context"

// AccountReader is the only network capability the snapshot engine needs
// from the chain-access layer.
type AccountReader interface {
	// GetMultipleAccounts returns the raw data of each account, aligned to
	// keys. Accounts that do not exist yield nil entries.
	GetMultipleAccounts(ctx context.Context, keys []string) ([][]byte, error)
}

// AccountNotification is a WebSocket account-change message.
type AccountNotification struct {
	Pubkey   string
	Slot     int64
	Lamports uint64
}

// AccountSubscriber delivers account-change notifications for subscribed
// pubkeys.
type AccountSubscriber interface {
	// SubscribeAccount subscribes to changes of one account.
	SubscribeAccount(ctx context.Context, pubkey string) (<-chan AccountNotification, error)

	// Close closes the underlying connection.
	Close() error
}
