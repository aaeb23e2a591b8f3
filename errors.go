package ytnotify

import (
	"ytnotify/notify"
	"ytnotify/store"
	"ytnotify/youtube"
)

// Error handling types exported for library users.
//
// All error types support the standard error handling patterns:
//
// Using errors.Is() for sentinel errors:
//
//	if errors.Is(err, ytnotify.ErrChannelNotFound) {
//		fmt.Println("Channel not found")
//	}
//
// Using errors.As() for wrapped errors:
//
//	var transportErr *ytnotify.TransportError
//	if errors.As(err, &transportErr) {
//		fmt.Printf("Platform call failed with status %d: %v\n", transportErr.StatusCode, transportErr.Err)
//	}

// Exported error types from sub-packages:
//
// From youtube package:
//   - youtube.ErrAPIKeyMissing: No API key configured
//   - youtube.ErrChannelNotFound: Channel does not exist
//   - youtube.ErrSearchUnsupported: Source cannot search by text
//   - youtube.TransportError: Error during a platform call
//
// From notify package:
//   - notify.DeliveryError: Error delivering a notification
//
// From store package:
//   - store.ErrCorrupt: Persistent state could not be parsed
//   - store.ErrLockTimeout: File lock timeout
//   - store.ErrEmptyTemplate: Empty message template rejected
//   - store.ErrInvalidInterval: Check interval below one minute
//   - store.StoreError: General store operation error

// Type aliases for convenient error handling.
type (
	// TransportError wraps errors during platform calls.
	TransportError = youtube.TransportError
	// DeliveryError wraps errors during notification delivery.
	DeliveryError = notify.DeliveryError
	// StoreError wraps errors during store operations.
	StoreError = store.StoreError
)

// Sentinel errors exported from sub-packages.
var (
	// ErrAPIKeyMissing indicates no API key was configured.
	ErrAPIKeyMissing = youtube.ErrAPIKeyMissing
	// ErrChannelNotFound indicates the channel does not exist.
	ErrChannelNotFound = youtube.ErrChannelNotFound
	// ErrSearchUnsupported indicates the configured source cannot search by text.
	ErrSearchUnsupported = youtube.ErrSearchUnsupported

	// Store errors
	// ErrCorrupt indicates the persistent state could not be parsed.
	ErrCorrupt = store.ErrCorrupt
	// ErrLockTimeout indicates a timeout acquiring the state file lock.
	ErrLockTimeout = store.ErrLockTimeout
	// ErrEmptyTemplate indicates an empty message template was rejected.
	ErrEmptyTemplate = store.ErrEmptyTemplate
	// ErrInvalidInterval indicates a check interval below one minute.
	ErrInvalidInterval = store.ErrInvalidInterval
)
